package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/weather-warning-service/internal/adapter/homeassistant"
	"github.com/couchcryptid/weather-warning-service/internal/adapter/httpadapter"
	kafkaadapter "github.com/couchcryptid/weather-warning-service/internal/adapter/kafka"
	natsadapter "github.com/couchcryptid/weather-warning-service/internal/adapter/nats"
	redisadapter "github.com/couchcryptid/weather-warning-service/internal/adapter/redis"
	"github.com/couchcryptid/weather-warning-service/internal/config"
	"github.com/couchcryptid/weather-warning-service/internal/observability"
	"github.com/couchcryptid/weather-warning-service/internal/pipeline"
	"github.com/couchcryptid/weather-warning-service/internal/translation"
)

func main() {
	// A missing .env file is fine; the environment may already be set.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := sharedobs.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var closers []namedCloser

	ha := homeassistant.NewClient(cfg.HAURL, cfg.HAToken, cfg.HATimeout, logger, metrics)

	var translator pipeline.Translator
	if cfg.TranslationEnabled {
		store, closer, err := newTranslationStore(ctx, cfg)
		if err != nil {
			logger.Error("failed to open translation store", "error", err)
			os.Exit(1)
		}
		if closer != nil {
			closers = append(closers, namedCloser{"redis", closer})
		}
		cache := translation.NewCache(ctx, store, clockwork.NewRealClock(), logger)
		translator = translation.NewTranslator(ha, cache, translation.Config{
			EntityID:    cfg.TranslationEntity,
			Timeout:     cfg.TranslationTimeout,
			Concurrency: cfg.TranslationConcurrency,
			Rate:        cfg.TranslationRate,
		}, logger, metrics)
		metrics.TranslationEnabled.Set(1)
		logger.Info("translation enabled",
			"language", cfg.TranslationLanguage,
			"cache_backend", cfg.CacheBackend,
			"cached_entries", cache.Len(),
		)
	} else {
		logger.Info("translation disabled")
	}

	var publisher pipeline.Publisher
	switch cfg.PublishBackend {
	case config.BackendKafka:
		w := kafkaadapter.NewWriter(cfg, logger)
		publisher = w
		closers = append(closers, namedCloser{"kafka writer", w})
	case config.BackendNATS:
		np, err := natsadapter.NewPublisher(cfg.NATSURL, cfg.NATSSubject, logger)
		if err != nil {
			logger.Error("failed to connect to nats", "error", err)
			os.Exit(1)
		}
		publisher = np
		closers = append(closers, namedCloser{"nats publisher", np})
	}
	logger.Info("board publishing", "backend", cfg.PublishBackend)

	p := pipeline.New(ha, translator, publisher, pipeline.Options{
		Sources:  cfg.Sources(),
		Board:    cfg.BoardOptions(),
		Interval: cfg.PollInterval,
		Language: cfg.TranslationLanguage,
	}, logger, metrics)

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, p, logger)

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start polling.
	go func() {
		if err := p.Run(ctx); err != nil {
			logger.Error("pipeline error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	for _, c := range closers {
		if err := c.Close(); err != nil {
			logger.Error(c.name+" close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}

type namedCloser struct {
	name string
	io.Closer
}

// newTranslationStore opens the configured cache backend. The returned closer
// is nil for the in-memory store.
func newTranslationStore(ctx context.Context, cfg *config.Config) (translation.Store, io.Closer, error) {
	if cfg.CacheBackend != config.BackendRedis {
		return translation.NewMemoryStore(), nil, nil
	}
	store, err := redisadapter.NewStore(ctx, redisadapter.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
		Prefix:   cfg.RedisPrefix,
	})
	if err != nil {
		return nil, nil, err
	}
	return store, store, nil
}
