// Package app initializes and holds the services a run needs, acting as a
// dependency injection container for the CLI commands.
package app

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/pubsub"
	gcsstorage "cloud.google.com/go/storage"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/JakeFAU/pageviews/internal/clock/system"
	"github.com/JakeFAU/pageviews/internal/config"
	collyfetcher "github.com/JakeFAU/pageviews/internal/fetcher/colly"
	"github.com/JakeFAU/pageviews/internal/id/uuid"
	"github.com/JakeFAU/pageviews/internal/metrics"
	"github.com/JakeFAU/pageviews/internal/pageviews"
	pubsubpublisher "github.com/JakeFAU/pageviews/internal/publisher/pubsub"
	"github.com/JakeFAU/pageviews/internal/storage/gcs"
	"github.com/JakeFAU/pageviews/internal/storage/local"
)

// Options carries client options for the optional Google Cloud sinks.
type Options struct {
	StorageOptions []option.ClientOption
	PubSubOptions  []option.ClientOption
	Clock          pageviews.Clock
}

// App holds the services shared by the commands.
type App struct {
	cfg       config.Config
	logger    *zap.Logger
	store     *local.RecordStore
	updater   *pageviews.Updater
	gcsClient *gcsstorage.Client
	publisher *pubsubpublisher.Publisher
}

// New wires the fetcher, record store and any configured sinks. It fails fast
// if an enabled sink cannot be initialized.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger, opts Options) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &App{cfg: cfg, logger: logger}

	store, err := local.New(cfg.Output, logger.Named("store"))
	if err != nil {
		return nil, fmt.Errorf("init record store: %w", err)
	}
	a.store = store

	sinks := pageviews.Sinks{}
	if cfg.Metrics.Textfile != "" {
		sinks.Metrics = metrics.New(cfg.Metrics.Textfile)
	}

	if cfg.MirrorEnabled() {
		client, err := gcsstorage.NewClient(ctx, opts.StorageOptions...)
		if err != nil {
			return nil, fmt.Errorf("create GCS client: %w", err)
		}
		a.gcsClient = client
		mirror, err := gcs.New(client, gcs.Config{Bucket: cfg.Mirror.GCSBucket, Object: cfg.Mirror.Object})
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("init GCS mirror: %w", err)
		}
		sinks.Mirror = mirror
		logger.Info("mirroring record to GCS", zap.String("bucket", cfg.Mirror.GCSBucket), zap.String("object", cfg.Mirror.Object))
	}

	if cfg.NotifyEnabled() {
		client, err := pubsub.NewClient(ctx, cfg.Notify.ProjectID, opts.PubSubOptions...)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("create pubsub client: %w", err)
		}
		a.publisher = pubsubpublisher.New(client, map[string]string{"source": cfg.Source.URL})
		sinks.Publisher = a.publisher
		logger.Info("publishing changes to Pub/Sub", zap.String("topic", cfg.Notify.Topic))
	}

	fetcher := collyfetcher.New(collyfetcher.Config{
		UserAgent: cfg.Source.UserAgent,
		Accept:    cfg.Source.Accept,
		Timeout:   cfg.RequestTimeout(),
	})

	clock := opts.Clock
	if clock == nil {
		clock = system.New()
	}

	a.updater = pageviews.NewUpdater(
		pageviews.Config{
			SourceURL: cfg.Source.URL,
			Since:     cfg.Source.Since,
			Topic:     cfg.Notify.Topic,
		},
		fetcher,
		store,
		clock,
		uuid.New(),
		sinks,
		logger.Named("updater"),
	)
	return a, nil
}

// Config returns the loaded configuration.
func (a *App) Config() config.Config {
	return a.cfg
}

// Logger returns the shared zap logger.
func (a *App) Logger() *zap.Logger {
	return a.logger
}

// Store exposes the local record store.
func (a *App) Store() *local.RecordStore {
	return a.store
}

// Updater returns the configured pipeline.
func (a *App) Updater() *pageviews.Updater {
	return a.updater
}

// Close releases cloud clients and flushes the logger.
func (a *App) Close() {
	var errs []error
	if a.publisher != nil {
		errs = append(errs, a.publisher.Close())
		a.publisher = nil
	}
	if a.gcsClient != nil {
		errs = append(errs, a.gcsClient.Close())
		a.gcsClient = nil
	}
	if err := errors.Join(errs...); err != nil {
		a.logger.Warn("error closing clients", zap.Error(err))
	}
	// Sync on stderr returns EINVAL/ENOTTY on some platforms; best effort only.
	_ = a.logger.Sync()
}
