// Command collector moves rows from a sqlite source table into the
// configured storage backend, one claimed chunk per pass, until no
// unprocessed rows remain.
package main

import (
	"context"
	"embed"
	"fmt"
	"os"

	"github.com/kbukum/collector/bootstrap"
	"github.com/kbukum/collector/collector"
	"github.com/kbukum/collector/config"
	"github.com/kbukum/collector/database"
	"github.com/kbukum/collector/logger"
	"github.com/kbukum/collector/observability"
	"github.com/kbukum/collector/storage"

	_ "github.com/kbukum/collector/storage/kafkatopic"
	_ "github.com/kbukum/collector/storage/memory"
	_ "github.com/kbukum/collector/storage/redisstream"
	_ "github.com/kbukum/collector/storage/s3"
	_ "github.com/kbukum/collector/storage/sqldb"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const serviceName = "collector"

func main() {
	var cfg JobConfig
	if err := config.LoadConfig(serviceName, &cfg); err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	if err := run(context.Background(), &cfg); err != nil {
		logger.Error("collector failed", logger.ErrorFields("run", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *JobConfig) error {
	app, err := bootstrap.NewApp[*JobConfig](cfg)
	if err != nil {
		return err
	}
	log := app.Logger

	dbComp := database.NewComponent(cfg.Database, log).WithMigrations(migrationsFS, "migrations")
	storeComp := storage.NewComponent(cfg.Storage, storage.ProviderConfigFunc(func() (any, error) {
		return providerConfig(cfg, dbComp)
	}), log)
	if err := app.RegisterComponent(dbComp); err != nil {
		return err
	}
	if err := app.RegisterComponent(storeComp); err != nil {
		return err
	}

	app.OnStart(func(ctx context.Context) error {
		n, err := seedSource(dbComp.DB(), cfg.Source.Seed, log)
		if err != nil {
			return err
		}
		if n > 0 {
			log.Info("Seeded source table", logger.Fields("rows", cfg.Source.Seed))
		}
		return nil
	})

	sink, err := telemetrySink(ctx, app)
	if err != nil {
		return err
	}

	var c *collector.Collector[sourceTrack, track]
	app.OnConfigure(func(ctx context.Context, app *bootstrap.App[*JobConfig]) error {
		built, buildErr := collector.New(cfg.Collector, newTrackJob(dbComp.DB(), cfg.Source.ClaimLimit), storeComp,
			collector.WithSink(sink), collector.WithLogger(log))
		if buildErr != nil {
			return buildErr
		}
		c = built
		return nil
	})

	return app.RunTask(ctx, func(ctx context.Context) error {
		runErr := c.Run(ctx)
		for _, p := range c.Passes() {
			log.Info("Pass summary", p.Fields())
		}
		return runErr
	})
}

// telemetrySink returns the log sink, joined by an OTLP metrics sink when
// telemetry is enabled. Providers are flushed on stop.
func telemetrySink(ctx context.Context, app *bootstrap.App[*JobConfig]) (observability.Sink, error) {
	logSink := observability.NewLogSink(app.Logger)
	tcfg := app.Cfg.Telemetry
	if !tcfg.Enabled {
		return logSink, nil
	}

	mp, err := observability.InitMeter(ctx, tcfg.Meter)
	if err != nil {
		return nil, err
	}
	tp, err := observability.InitTracer(ctx, tcfg.Tracer)
	if err != nil {
		return nil, err
	}
	app.OnStop(mp.Shutdown, tp.Shutdown)

	metrics, err := observability.NewCollectorMetrics(observability.Meter(serviceName))
	if err != nil {
		return nil, err
	}
	return observability.MultiSink{logSink, observability.NewMetricsSink(metrics)}, nil
}
