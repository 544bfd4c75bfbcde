// Package di provides dependency injection for service implementations.
package di

import (
	"context"
	"fmt"
	"time"

	"github.com/aristath/cycleview/internal/catalog"
	"github.com/aristath/cycleview/internal/config"
	"github.com/aristath/cycleview/internal/datasets"
	"github.com/aristath/cycleview/internal/events"
	"github.com/aristath/cycleview/internal/loader"
	"github.com/aristath/cycleview/internal/scheduler"
	"github.com/aristath/cycleview/internal/session"
	"github.com/rs/zerolog"
)

// sourceInitTimeout bounds loading remote credentials for the S3 source.
const sourceInitTimeout = 10 * time.Second

// InitializeServices creates all services and stores them in the container.
// Services are created in dependency order.
func InitializeServices(container *Container, cfg *config.Config, log zerolog.Logger) error {
	if container == nil {
		return fmt.Errorf("container cannot be nil")
	}
	if container.CacheRepo == nil {
		return fmt.Errorf("repositories not initialized")
	}

	// Step 1: dataset source chain
	origin, err := newOrigin(cfg)
	if err != nil {
		return fmt.Errorf("failed to create dataset source: %w", err)
	}
	container.Origin = origin
	container.Source = origin
	if cfg.Source.Kind != config.SourceDir {
		container.Source = datasets.NewCachedSource(origin, container.CacheRepo, cfg.CacheTTL, log)
	}
	log.Info().Str("source", cfg.Source.Kind).Msg("Dataset source initialized")

	// Step 2: series catalog
	cat, err := catalog.Load(cfg.Catalog.File)
	if err != nil {
		return err
	}
	container.Catalog = cat.WithDefault(cfg.Catalog.DefaultSeries)

	// Step 3: events
	container.EventBus = events.NewBus(log)
	container.EventManager = events.NewManager(container.EventBus, log)

	// Step 4: loader and sessions
	container.Loader = loader.New(container.Source, cfg.FetchTimeout, log)
	container.Sessions = session.NewManager(container.Loader, container.EventManager, session.Options{
		MaxSpectrumPeriod: cfg.MaxSpectrumPeriod,
	}, log)

	// Step 5: scheduler (jobs are registered by RegisterJobs)
	container.Scheduler = scheduler.New(log)

	log.Info().Msg("Services initialized")
	return nil
}

func newOrigin(cfg *config.Config) (datasets.Source, error) {
	switch cfg.Source.Kind {
	case config.SourceDir:
		return datasets.NewDirSource(cfg.Source.Dir), nil
	case config.SourceHTTP:
		return datasets.NewHTTPSource(cfg.Source.URL, nil), nil
	case config.SourceS3:
		ctx, cancel := context.WithTimeout(context.Background(), sourceInitTimeout)
		defer cancel()
		s3cfg := cfg.Source.S3
		return datasets.NewS3Source(ctx, datasets.S3Config{
			Bucket:          s3cfg.Bucket,
			Prefix:          s3cfg.Prefix,
			Endpoint:        s3cfg.Endpoint,
			Region:          s3cfg.Region,
			AccessKeyID:     s3cfg.AccessKeyID,
			SecretAccessKey: s3cfg.SecretAccessKey,
		})
	}
	return nil, fmt.Errorf("unknown dataset source %q", cfg.Source.Kind)
}
