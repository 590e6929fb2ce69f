package app

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"dashwatch/internal/config"
	"dashwatch/internal/fields"
	"dashwatch/internal/graphite"
	"dashwatch/internal/pipeline"
	"dashwatch/internal/scheduler"
	"dashwatch/internal/scrape"
	"dashwatch/internal/storage"
	"dashwatch/internal/watermark"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{Config: cfg, Logger: logger.With().Str("component", "app").Logger()}
}

// newTable loads the chart-to-field table and runs its startup self-check.
// The table ordering is an external contract with the dashboard homepage,
// so a misconfigured table must fail here, not misassign fields at runtime.
func (a *App) newTable() (*fields.Table, error) {
	if path := a.Config.Charts.TablePath; path != "" {
		table, err := fields.Load(path)
		if err != nil {
			return nil, err
		}
		a.Logger.Info().Str("path", path).Int("charts", table.Len()).Msg("loaded field table override")
		return table, nil
	}

	table := fields.Default()
	a.Logger.Debug().Int("charts", table.Len()).Msg("using built-in field table")
	return table, nil
}

// openStores yields the watermark store and, when a database is configured,
// the emission journal backed by the same connection.
func (a *App) openStores(ctx context.Context) (watermark.Store, pipeline.Journal, func(), error) {
	if a.Config.Database.DSN == "" {
		path := a.Config.Watermark.Path
		a.Logger.Debug().Str("path", path).Msg("using file watermark store")
		return watermark.NewFileStore(path), nil, nil, nil
	}

	pool, err := storage.NewPool(ctx, a.Config.Database)
	if err != nil {
		return nil, nil, nil, err
	}
	store := storage.NewStore(pool)
	if err := store.Init(ctx); err != nil {
		store.Close()
		return nil, nil, nil, err
	}
	return store, store, store.Close, nil
}

func (a *App) newPipeline(ctx context.Context) (*pipeline.Pipeline, func(), error) {
	table, err := a.newTable()
	if err != nil {
		return nil, nil, err
	}

	store, journal, closeStore, err := a.openStores(ctx)
	if err != nil {
		return nil, nil, err
	}

	sink := graphite.NewSender(graphite.Options{
		Addr:    a.Config.Graphite.Addr,
		Timeout: a.Config.Graphite.Timeout,
	}, a.Logger)

	p := pipeline.New(pipeline.Options{Namespace: a.Config.Graphite.Prefix}, table, store, sink, journal, a.Logger)
	if closeStore == nil {
		closeStore = func() {}
	}
	return p, closeStore, nil
}

// Run executes the long-running fetch loop against the collector endpoint.
func (a *App) Run(ctx context.Context) error {
	if a.Config.Scrape.URL == "" {
		return errors.New("scrape.url is required for the run command")
	}
	if a.Config.Graphite.Addr == "" {
		return errors.New("graphite.addr is required for the run command")
	}

	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	p, closePipeline, err := a.newPipeline(ctx)
	if err != nil {
		return err
	}
	defer closePipeline()

	source := scrape.NewHTTPSource(a.Config.Scrape.URL, a.Config.Scrape.Timeout, a.Logger)

	sched := scheduler.New(scheduler.Options{
		Interval:     a.Config.Scheduler.Interval,
		AlignToStart: a.Config.Scheduler.AlignToBucket,
		StartupDelay: a.Config.Scheduler.StartupDelay,
	}, a.Logger)

	a.Logger.Info().Msg("starting dashboard report loop")
	err = sched.Run(ctx, func(ctx context.Context, _ time.Time) error {
		batch, err := source.Fetch(ctx)
		if err != nil {
			return fmt.Errorf("fetch batch: %w", err)
		}
		emitted, err := p.Process(ctx, batch)
		if err != nil {
			return err
		}
		a.Logger.Info().Int("records", emitted).Msg("fetch cycle complete")
		return nil
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		a.Logger.Error().Err(err).Msg("report loop terminated with error")
		return err
	}

	a.Logger.Info().Msg("report loop stopped")
	return nil
}

// ReportOptions configure a one-shot report from a scraped batch file.
type ReportOptions struct {
	Path         string
	DownloadTime time.Time
}

// RenderOptions configure local decoding of one chart URL to a PNG.
type RenderOptions struct {
	URL         string
	ChartIndex  int
	WindowIndex int
	PNGPath     string
}

// ShowOptions configure the show command.
type ShowOptions struct {
	Limit int
}
