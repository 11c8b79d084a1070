package main

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/dcshock/formpipe/config"
	"github.com/dcshock/formpipe/observer"
	"github.com/dcshock/formpipe/pipeline"
	"github.com/dcshock/formpipe/student"
	"github.com/dcshock/formpipe/validation"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

//go:embed runners.yaml
var defaultRunners []byte

// app holds everything a command needs for one process run.
type app struct {
	settings  config.Settings
	logger    *zap.Logger
	observers *config.ObserverRegistry
	deps      student.Deps
	store     *student.MemoryStore
	closers   []func()
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = lvl
	cfg.OutputPaths = []string{"stderr"}
	return cfg.Build()
}

// newApp wires settings, logging, observers and the student dependencies.
func newApp(ctx context.Context, settings config.Settings) (*app, error) {
	logger, err := newLogger(settings.LogLevel)
	if err != nil {
		return nil, err
	}
	a := &app{
		settings:  settings,
		logger:    logger,
		observers: config.NewObserverRegistry(),
		store:     student.NewMemoryStore(),
	}
	a.closers = append(a.closers, func() { _ = logger.Sync() })
	a.deps = student.Deps{
		Validator: validation.New(),
		Store:     a.store,
		PersistRetry: &pipeline.RetryPolicy{
			MaxAttempts: 3,
			Multiplier:  2,
			ShouldRetry: pipeline.IsRetryable,
		},
	}

	a.observers.Register("log", observer.NewLogObserver(logger))
	if settings.DatabaseURL != "" {
		pool, err := pgxpool.New(ctx, settings.DatabaseURL)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("connect database: %w", err)
		}
		a.closers = append(a.closers, pool.Close)
		if err := observer.Migrate(ctx, pool); err != nil {
			a.close()
			return nil, err
		}
		a.observers.Register("db", observer.NewDBObserver(pool))
		logger.Info("Run log enabled", zap.String("sink", "postgres"))
	}
	if len(settings.KafkaBrokers) > 0 {
		w := &kafka.Writer{
			Addr:                   kafka.TCP(settings.KafkaBrokers...),
			Balancer:               &kafka.LeastBytes{},
			AllowAutoTopicCreation: true,
		}
		a.closers = append(a.closers, func() {
			if err := w.Close(); err != nil {
				logger.Warn("Failed to close kafka writer", zap.Error(err))
			}
		})
		a.observers.Register("events", observer.NewEventObserver(w, settings.KafkaTopic))
		logger.Info("Run events enabled", zap.Strings("brokers", settings.KafkaBrokers), zap.String("topic", settings.KafkaTopic))
	}
	return a, nil
}

// defaultObserver fans out to every configured observer.
func (a *app) defaultObserver() pipeline.Observer {
	var list []pipeline.Observer
	for _, name := range []string{"log", "db", "events"} {
		if o, ok := a.observers.Get(name); ok {
			list = append(list, o)
		}
	}
	return observer.Multi(list...)
}

// close releases resources in reverse order of acquisition.
func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// loadRunners returns the runners file at path, or the built-in definitions.
func loadRunners(path string) (*config.File, error) {
	if path == "" {
		return config.ParseFile(defaultRunners)
	}
	return config.LoadFile(path)
}
