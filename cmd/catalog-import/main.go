// Command catalog-import loads products from a JSON Lines feed into the
// catalog. Each line is one product import; every product is written in its
// own transaction, so a bad line never leaves a partial product behind.
package main

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	appkg "github.com/xenking/catalog/internal/app"
	"github.com/xenking/catalog/internal/domain/catalog"
	"github.com/xenking/catalog/internal/storage/postgres"
	"github.com/xenking/catalog/pkg/httpclient"
)

func main() {
	app.Run(func(ctx context.Context, lg *zap.Logger, m *app.Telemetry) error {
		cfg, err := loadConfig(appkg.Files, false)
		if err != nil {
			return err
		}
		return run(zctx.Base(ctx, lg), lg, m, cfg)
	})
}

func run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	owner, err := cfg.DefaultOwner()
	if err != nil {
		return err
	}

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return errors.Wrap(err, "create db pool")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	svc, err := catalog.NewService(postgres.NewProductRepository(pool), catalog.Options{
		MeterProvider:  m.MeterProvider(),
		TracerProvider: m.TracerProvider(),
	})
	if err != nil {
		return errors.Wrap(err, "create catalog service")
	}

	client := httpclient.New(httpclient.Options{
		RPS:            cfg.Feed.RPS,
		Burst:          cfg.Feed.Burst,
		Timeout:        cfg.Feed.Timeout,
		TracerProvider: m.TracerProvider(),
		MeterProvider:  m.MeterProvider(),
	})

	src, err := openSource(ctx, client, cfg.Source)
	if err != nil {
		return err
	}
	defer func() { _ = src.Close() }()

	lg.Info("Importing feed",
		zap.String("source", cfg.Source),
		zap.Int("workers", cfg.Workers),
		zap.Stringer("default_owner", owner.Kind),
	)
	start := time.Now()

	stats, err := importFeed(ctx, svc, src, cfg.Workers, owner)
	lg.Info("Import finished",
		zap.Int64("imported", stats.Imported),
		zap.Int64("failed", stats.Failed),
		zap.Duration("took", time.Since(start)),
	)
	if err != nil {
		return errors.Wrap(err, "import feed")
	}
	if stats.Failed > 0 {
		return errors.Errorf("%d of %d products failed", stats.Failed, stats.Imported+stats.Failed)
	}
	return nil
}
