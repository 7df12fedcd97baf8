package main

import (
	"strings"
	"time"

	"github.com/spf13/viper"

	"aquarium_wot/internal/logger"
	"aquarium_wot/internal/models"
	"aquarium_wot/internal/notify"
)

const envPrefix = "AQUARIUM"

// Bounds of the process tunables, in milliseconds.
const (
	minSamplingMs = 3000
	maxSamplingMs = 1800000
	minIntervalMs = 1000
	maxIntervalMs = 3600000
)

// Settings is the resolved process configuration.
type Settings struct {
	Port     string
	LogLevel string
	DBPath   string

	ParametersFile string
	Things         []string

	SamplingIntervalMs          int // 0: use the mode table
	FilterHealthCheckIntervalMs int // 0: use the mode table
	StatusIntervalMs            int
	CorrectionIntervalMs        int

	CleaningDuration time.Duration
	ShutdownTimeout  time.Duration

	WaterURL    string
	PumpURL     string
	HTTPTimeout time.Duration

	MQTTEnabled bool
	MQTT        notify.MQTTConfig
	TopicPrefix string
}

// newViper returns a viper reading configs/config.yml with AQUARIUM_* env
// overrides and the three bare tunables.
func newViper() *viper.Viper {
	v := viper.New()
	v.AddConfigPath("configs") // configs/config.yml
	v.SetConfigName("config")

	v.SetDefault("port", "8080")
	v.SetDefault("log_level", logger.InfoLevel)
	v.SetDefault("db.path", ":memory:")
	v.SetDefault("parameters_file", "configs/parameters.json")
	v.SetDefault("things", strings.Join([]string{models.ThingWater, models.ThingPump, models.ThingSensor}, ","))
	v.SetDefault("intervals.sampling_ms", 0)
	v.SetDefault("intervals.filter_health_check_ms", 0)
	v.SetDefault("intervals.orchestration_status_ms", 10000)
	v.SetDefault("intervals.correction_ms", 1000)
	v.SetDefault("simulation.cleaning_duration", "8s")
	v.SetDefault("shutdown_timeout", "10s")
	v.SetDefault("peers.http_timeout", "5s")
	v.SetDefault("mqtt.enabled", false)
	v.SetDefault("mqtt.broker", "tcp://localhost:1883")
	v.SetDefault("mqtt.client_id", "aquarium-wot")
	v.SetDefault("mqtt.topic_prefix", "aquarium")
	v.SetDefault("mqtt.qos", 0)
	v.SetDefault("mqtt.connect_retries", 5)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("intervals.sampling_ms", "SENSOR_SAMPLING_INTERVAL_MS")
	_ = v.BindEnv("intervals.filter_health_check_ms", "FILTER_HEALTH_CHECK_INTERVAL_MS")
	_ = v.BindEnv("intervals.orchestration_status_ms", "ORCHESTRATION_STATUS_INTERVAL_MS")
	return v
}

// loadConfig reads the config file when present; a missing file leaves defaults and env.
func loadConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return err
	}
	return nil
}

// resolveSettings turns viper keys into Settings, clamping tunables with a warning.
func resolveSettings(v *viper.Viper, log *logger.Logger) Settings {
	s := Settings{
		Port:           v.GetString("port"),
		LogLevel:       v.GetString("log_level"),
		DBPath:         v.GetString("db.path"),
		ParametersFile: v.GetString("parameters_file"),
		Things:         thingsFrom(v),

		CorrectionIntervalMs: v.GetInt("intervals.correction_ms"),
		CleaningDuration:     v.GetDuration("simulation.cleaning_duration"),
		ShutdownTimeout:      v.GetDuration("shutdown_timeout"),

		WaterURL:    strings.TrimSpace(v.GetString("peers.water_url")),
		PumpURL:     strings.TrimSpace(v.GetString("peers.pump_url")),
		HTTPTimeout: v.GetDuration("peers.http_timeout"),

		MQTTEnabled: v.GetBool("mqtt.enabled"),
		MQTT: notify.MQTTConfig{
			Broker:         v.GetString("mqtt.broker"),
			ClientID:       v.GetString("mqtt.client_id"),
			Username:       v.GetString("mqtt.username"),
			Password:       v.GetString("mqtt.password"),
			QoS:            byte(clampInt(v.GetInt("mqtt.qos"), 0, 2)),
			ConnectRetries: uint64(max(v.GetInt("mqtt.connect_retries"), 0)),
		},
		TopicPrefix: v.GetString("mqtt.topic_prefix"),
	}

	if ms := v.GetInt("intervals.sampling_ms"); ms != 0 {
		s.SamplingIntervalMs = clampTunable(log, "SENSOR_SAMPLING_INTERVAL_MS", ms, minSamplingMs, maxSamplingMs)
	}
	if ms := v.GetInt("intervals.filter_health_check_ms"); ms != 0 {
		s.FilterHealthCheckIntervalMs = clampTunable(log, "FILTER_HEALTH_CHECK_INTERVAL_MS", ms, minIntervalMs, maxIntervalMs)
	}
	s.StatusIntervalMs = clampTunable(log, "ORCHESTRATION_STATUS_INTERVAL_MS",
		v.GetInt("intervals.orchestration_status_ms"), minIntervalMs, maxIntervalMs)
	return s
}

func clampTunable(log *logger.Logger, name string, ms, lo, hi int) int {
	clamped := clampInt(ms, lo, hi)
	if clamped != ms && log != nil {
		log.Warnw("tunable_out_of_range", "name", name, "requested_ms", ms, "applied_ms", clamped)
	}
	return clamped
}

func clampInt(v, lo, hi int) int {
	return min(max(v, lo), hi)
}

// thingsFrom accepts a YAML list or a delimited string (env override).
func thingsFrom(v *viper.Viper) []string {
	if _, ok := v.Get("things").([]interface{}); ok {
		return v.GetStringSlice("things")
	}
	return splitList(v.GetString("things"))
}

// splitList accepts "water,pump sensor" style lists.
func splitList(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == ';'
	})
}
