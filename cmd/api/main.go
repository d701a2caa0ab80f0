package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"slotnik/internal/access"
	"slotnik/internal/api"
	"slotnik/internal/clock"
	"slotnik/internal/config"
	"slotnik/internal/engine"
	"slotnik/internal/events"
	"slotnik/internal/logging"
	"slotnik/internal/metrics"
	"slotnik/internal/notify"
	"slotnik/internal/slotstore"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer func() { _ = closer.Close() }()
	}

	store, err := buildStore(cfg, &logger)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bus := events.NewBus()
	dispatcher := buildDispatcher(cfg, bus, &logger)
	go dispatcher.Run(ctx)

	loc := cfg.Location()
	eng := engine.New(store, clock.NewSystem(loc), loc, bus, cfg.Booking.MaxAdvanceDays, &logger)
	gate := access.NewGate()

	httpServer := api.NewServer(cfg.API, eng, gate, &logger)

	startMetrics(ctx, cfg, &logger)
	startHealth(ctx, cfg, &logger)

	return startServer(ctx, httpServer, dispatcher, &logger)
}

func loadConfigAndLogger() (*config.Config, zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("load config: %w", err)
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("init logger: %w", err)
	}
	logger := baseLogger.With().Str("component", "api-main").Logger()

	return cfg, logger, closer, nil
}

func buildStore(cfg *config.Config, logger *zerolog.Logger) (slotstore.Store, error) {
	var primary slotstore.Store

	switch cfg.Store.Backend {
	case "redis":
		client := slotstore.NewRedisClient(cfg.Store.Redis)
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := slotstore.Ping(pingCtx, client); err != nil {
			if !cfg.Store.FailoverToMemory {
				return nil, err
			}
			logger.Error().Err(err).Msg("redis unreachable at startup")
		}
		primary = slotstore.NewRedisStore(client, cfg.Store.Key)
	case "sqlite":
		store, err := slotstore.NewSQLiteStore(cfg.Store.SQLite.Path, cfg.Store.Key)
		if err != nil {
			return nil, fmt.Errorf("init sqlite store: %w", err)
		}
		primary = store
	default:
		primary = slotstore.NewMemoryStore()
	}

	if cfg.Store.FailoverToMemory && cfg.Store.Backend != "memory" {
		return slotstore.NewFailoverStore(primary, slotstore.NewMemoryStore(), logger), nil
	}

	logger.Info().Str("backend", cfg.Store.Backend).Str("key", cfg.Store.Key).Msg("slot store initialized")
	return primary, nil
}

func buildDispatcher(cfg *config.Config, bus *events.Bus, logger *zerolog.Logger) *notify.Dispatcher {
	retry := notify.RetryPolicy{
		MaxRetries:    cfg.Notify.Retry.MaxRetries,
		BackoffFactor: cfg.Notify.Retry.BackoffFactor,
	}
	if d, err := time.ParseDuration(cfg.Notify.Retry.InitialDelay); err == nil {
		retry.InitialDelay = d
	}
	if d, err := time.ParseDuration(cfg.Notify.Retry.MaxDelay); err == nil {
		retry.MaxDelay = d
	}

	notifierLogger := logger.With().Str("component", "notify").Logger()
	dispatcher := notify.NewDispatcher(
		&notify.LogNotifier{Logger: &notifierLogger},
		retry,
		cfg.Notify.QueueSize,
		&notifierLogger,
	)

	if cfg.Notify.Enabled {
		dispatcher.SubscribeTo(bus)
	}

	return dispatcher
}

func startMetrics(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) {
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}

	metrics.Register()
	port := cfg.Monitoring.PrometheusPort
	if port == 0 {
		port = 9090
	}
	go startMetricsServer(ctx, port, logger)
}

// startHealth runs a separate liveness listener so probes keep working
// even when the API port is saturated. Disabled when no port is set.
func startHealth(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) {
	port := cfg.Monitoring.HealthCheckPort
	if port == 0 {
		return
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	go func() {
		logger.Info().Int("port", port).Msg("health listener started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("health server error")
		}
	}()
}

func startServer(ctx context.Context, httpServer *api.Server, dispatcher *notify.Dispatcher, logger *zerolog.Logger) error {
	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Error().Err(err).Msg("http server stopped")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = httpServer.Shutdown(shutdownCtx)

	select {
	case <-dispatcher.Done():
	case <-shutdownCtx.Done():
	}

	logger.Info().Msg("API server stopped")
	return nil
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
