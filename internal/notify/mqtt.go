package notify

import (
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	mqtt "github.com/eclipse/paho.mqtt.golang"

	"aquarium_wot/internal/logger"
)

var ErrNotConnected = errors.New("mqtt client not connected")

// MQTTConfig describes the broker connection.
type MQTTConfig struct {
	Broker         string // tcp://host:1883
	ClientID       string
	Username       string
	Password       string
	QoS            byte
	ConnectRetries uint64
	ConnectTimeout time.Duration
}

// MQTT publishes events to an MQTT broker.
type MQTT struct {
	client mqtt.Client
	qos    byte
	log    *logger.Logger
}

// NewMQTT connects to the broker, retrying with exponential backoff.
func NewMQTT(cfg MQTTConfig, log *logger.Logger) (*MQTT, error) {
	if log == nil {
		log = logger.Nop()
	}
	if cfg.Broker == "" {
		return nil, errors.New("mqtt broker address is empty")
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 5 * time.Second
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	opts.SetUsername(cfg.Username)
	opts.SetPassword(cfg.Password)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectTimeout(cfg.ConnectTimeout)
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		log.Warnw("mqtt_connection_lost", "broker", cfg.Broker, "error", err)
	})

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 30 * time.Second

	var client mqtt.Client
	err := backoff.Retry(func() error {
		client = mqtt.NewClient(opts)
		token := client.Connect()
		if !token.WaitTimeout(cfg.ConnectTimeout) {
			return fmt.Errorf("connect to %s: timeout", cfg.Broker)
		}
		if err := token.Error(); err != nil {
			log.Warnw("mqtt_connect_failed", "broker", cfg.Broker, "error", err)
			return err
		}
		return nil
	}, backoff.WithMaxRetries(bo, cfg.ConnectRetries))
	if err != nil {
		return nil, fmt.Errorf("could not establish MQTT connection: %w", err)
	}

	log.Infow("mqtt_connected", "broker", cfg.Broker, "client_id", cfg.ClientID)
	return &MQTT{client: client, qos: cfg.QoS, log: log}, nil
}

// Publish sends payload without waiting past a short deadline; events are
// best-effort notifications.
func (m *MQTT) Publish(topic string, payload []byte) error {
	if !m.client.IsConnectionOpen() {
		return ErrNotConnected
	}
	token := m.client.Publish(topic, m.qos, false, payload)
	if !token.WaitTimeout(2 * time.Second) {
		return fmt.Errorf("publish %s: timeout", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}

func (m *MQTT) Close() {
	if m.client.IsConnected() {
		m.client.Disconnect(250)
		m.log.Infow("mqtt_disconnected")
	}
}
