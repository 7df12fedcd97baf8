package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"aquarium_wot/internal/client"
	"aquarium_wot/internal/configstore"
	"aquarium_wot/internal/handlers"
	"aquarium_wot/internal/logger"
	"aquarium_wot/internal/metrics"
	"aquarium_wot/internal/notify"
	"aquarium_wot/internal/repository"
	"aquarium_wot/internal/repository/db"
	"aquarium_wot/internal/server"
	"aquarium_wot/internal/service"
)

func main() {
	// load config.yml + env
	v := newViper()
	if err := loadConfig(v); err != nil {
		logger.Get(logger.InfoLevel).Fatalw("error reading config", "err", err)
	}

	// init logger
	log := logger.Get(v.GetString("log_level"))
	defer func() { _ = log.Sync() }()
	settings := resolveSettings(v, log)

	// open DB
	sqlDB, err := openDB(settings.DBPath, log)
	if err != nil {
		log.Fatalw("failed to init sqlite", "err", err)
	}
	defer func() {
		if cerr := sqlDB.Close(); cerr != nil {
			log.Errorw("failed to close sqlite", "err", cerr)
		}
	}()

	// config document
	store := configstore.New(settings.ParametersFile, log)
	if err := store.EnsureExists(); err != nil {
		log.Fatalw("failed to prepare parameters file", "err", err, "path", settings.ParametersFile)
	}

	// metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m, err := metrics.New(reg)
	if err != nil {
		log.Fatalw("failed to register metrics", "err", err)
	}

	pub := openPublisher(settings, log)
	defer pub.Close()

	// wire dependencies
	deps := service.Deps{
		Config:      store,
		Repos:       repository.NewRepository(sqlDB),
		Publisher:   pub,
		TopicPrefix: settings.TopicPrefix,
		Metrics:     m,
		Log:         log,
	}
	if settings.WaterURL != "" {
		deps.RemoteWater = client.NewWaterHTTP(settings.WaterURL, settings.HTTPTimeout)
	}
	if settings.PumpURL != "" {
		deps.RemotePump = client.NewPumpHTTP(settings.PumpURL, settings.HTTPTimeout)
	}

	// context for background tasks
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	services, err := service.NewService(ctx, deps, serviceOptions(settings))
	if err != nil {
		log.Fatalw("failed to build things", "err", err, "things", settings.Things)
	}
	services.Start(ctx)
	log.Infow("things_started", "things", settings.Things, "mode", store.Load().Mode)

	apiHandler := handlers.NewHandler(services, log, reg)

	// start HTTP server
	srv := &server.Server{}
	runHTTPServer(srv, settings.Port, apiHandler, log)

	// graceful shutdown
	waitForShutdown(cancel, srv, services, settings.ShutdownTimeout, log)
}

// serviceOptions maps settings onto the orchestrator options.
func serviceOptions(s Settings) service.Options {
	opts := service.DefaultOptions()
	if len(s.Things) > 0 {
		opts.Things = s.Things
	}
	opts.SamplingIntervalMs = s.SamplingIntervalMs
	opts.FilterHealthCheckIntervalMs = s.FilterHealthCheckIntervalMs
	opts.StatusInterval = time.Duration(s.StatusIntervalMs) * time.Millisecond
	if s.CorrectionIntervalMs > 0 {
		opts.CorrectionInterval = time.Duration(s.CorrectionIntervalMs) * time.Millisecond
	}
	if s.CleaningDuration > 0 {
		opts.Pump.CleaningDuration = s.CleaningDuration
	}
	return opts
}

// openDB initializes the SQLite journal; the default keeps it in memory.
func openDB(path string, log *logger.Logger) (*sql.DB, error) {
	if path == "" || path == db.MemoryPath {
		log.Infow("using in-memory journal")
	}
	return db.InitDB(path)
}

// openPublisher connects to MQTT when enabled. A broker that cannot be reached
// is logged and events are still streamed and journaled. Publishing runs off
// the tick goroutines behind a bounded queue.
func openPublisher(s Settings, log *logger.Logger) notify.Publisher {
	if !s.MQTTEnabled {
		return notify.Nop{}
	}
	pub, err := notify.NewMQTT(s.MQTT, log)
	if err != nil {
		log.Errorw("mqtt_unavailable", "err", err, "broker", s.MQTT.Broker)
		return notify.Nop{}
	}
	return notify.NewAsync(pub, notify.DefaultQueueSize, log)
}

// runHTTPServer runs the HTTP server in a separate goroutine.
func runHTTPServer(srv *server.Server, port string, handler *handlers.Handler, log *logger.Logger) {
	go func() {
		if err := srv.Run(port, handler.InitRoutes()); err != nil {
			log.Fatalw("error starting server", "err", err)
		}
	}()
}

// waitForShutdown listens for termination signals and performs graceful shutdown.
func waitForShutdown(cancel context.CancelFunc, srv *server.Server, services *service.Service, timeout time.Duration, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server...")

	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
	defer shutdownCancel()

	// allow in-flight requests to complete
	if err := srv.Shutdown(ctx); err != nil {
		log.Errorw("server forced to shutdown", "err", err)
	}

	// stop timers, then background goroutines
	if err := services.Shutdown(ctx); err != nil {
		log.Errorw("things forced to shutdown", "err", err)
	}
	cancel()
}
