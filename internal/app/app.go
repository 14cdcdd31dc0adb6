// Package app initializes and holds long-lived application services, acting
// as a dependency injection container for the CLI commands.
package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/sivamaran/reddit-scraper/internal/clock/system"
	"github.com/sivamaran/reddit-scraper/internal/config"
	"github.com/sivamaran/reddit-scraper/internal/extract"
	collyfetcher "github.com/sivamaran/reddit-scraper/internal/fetcher/colly"
	"github.com/sivamaran/reddit-scraper/internal/fetcher/headless"
	"github.com/sivamaran/reddit-scraper/internal/id/uuid"
	"github.com/sivamaran/reddit-scraper/internal/metrics"
	"github.com/sivamaran/reddit-scraper/internal/navigate"
	"github.com/sivamaran/reddit-scraper/internal/pipeline"
	"github.com/sivamaran/reddit-scraper/internal/schema"
	"github.com/sivamaran/reddit-scraper/internal/stealth"
	"github.com/sivamaran/reddit-scraper/internal/store"
	"github.com/sivamaran/reddit-scraper/internal/store/memory"
	"github.com/sivamaran/reddit-scraper/internal/store/postgres"
	"github.com/sivamaran/reddit-scraper/internal/store/redis"
	"github.com/sivamaran/reddit-scraper/internal/urlnorm"
)

// App holds the shared services built from one Config.
type App struct {
	cfg          config.Config
	logger       *zap.Logger
	orchestrator *pipeline.Orchestrator
	store        store.Upserter
	ids          uuid.Generator
}

// Option customizes App construction.
type Option func(*options)

type options struct {
	opener   pipeline.SessionOpener
	pipeline []pipeline.Option
}

// WithSessionOpener replaces the chromedp session opener.
func WithSessionOpener(o pipeline.SessionOpener) Option {
	return func(opts *options) {
		opts.opener = o
	}
}

// WithPipelineOptions forwards options to the orchestrator.
func WithPipelineOptions(po ...pipeline.Option) Option {
	return func(opts *options) {
		opts.pipeline = append(opts.pipeline, po...)
	}
}

// New builds the orchestrator and the configured store. It fails fast if the
// store cannot be reached.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger, opts ...Option) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.opener == nil {
		o.opener = pipeline.NewChromeOpener(HeadlessConfig(cfg), logger)
	}
	metrics.Init()

	st, err := NewStore(ctx, cfg.Store, logger)
	if err != nil {
		return nil, err
	}

	pipelineOpts := append([]pipeline.Option{pipeline.WithClock(system.New())}, o.pipeline...)
	orchestrator := pipeline.New(
		PipelineConfig(cfg),
		o.opener,
		stealth.NewGenerator(StealthConfig(cfg)),
		logger,
		pipelineOpts...,
	)

	logger.Info("application services initialized",
		zap.String("platform", cfg.Platform.Name),
		zap.String("store", cfg.Store.Driver),
	)
	return &App{
		cfg:          cfg,
		logger:       logger,
		orchestrator: orchestrator,
		store:        st,
		ids:          uuid.New(),
	}, nil
}

// Config returns the configuration the App was built from.
func (a *App) Config() config.Config { return a.cfg }

// Logger returns the shared logger.
func (a *App) Logger() *zap.Logger { return a.logger }

// Orchestrator returns the batch runner.
func (a *App) Orchestrator() *pipeline.Orchestrator { return a.orchestrator }

// Store returns the configured store, or nil when store.driver is none.
func (a *App) Store() store.Upserter { return a.store }

// IDs returns the run ID generator.
func (a *App) IDs() uuid.Generator { return a.ids }

// Close releases the store and flushes the logger.
func (a *App) Close() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.logger.Warn("close store", zap.String("driver", a.store.Driver()), zap.Error(err))
		}
	}
	_ = a.logger.Sync()
}

// NewStore opens the store selected by cfg.Driver. It returns a nil
// Upserter for the "none" driver.
func NewStore(ctx context.Context, cfg config.StoreConfig, logger *zap.Logger) (store.Upserter, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	switch cfg.Driver {
	case "", config.StoreNone:
		return nil, nil
	case config.StoreMemory:
		return memory.New(), nil
	case config.StorePostgres:
		s, err := postgres.New(ctx, postgres.Config{
			DSN:             cfg.Postgres.DSN,
			Table:           cfg.Postgres.Table,
			MaxConns:        cfg.Postgres.MaxConns,
			MinConns:        cfg.Postgres.MinConns,
			MaxConnLifetime: cfg.Postgres.MaxConnLifetime,
		})
		if err != nil {
			return nil, fmt.Errorf("init postgres store: %w", err)
		}
		if cfg.Postgres.EnsureSchema {
			if err := s.EnsureSchema(ctx); err != nil {
				_ = s.Close()
				return nil, fmt.Errorf("init postgres store: %w", err)
			}
		}
		logger.Info("using postgres store", zap.String("table", cfg.Postgres.Table))
		return s, nil
	case config.StoreRedis:
		s, err := redis.New(redis.Config{
			Addr:      cfg.Redis.Addr,
			Password:  cfg.Redis.Password,
			DB:        cfg.Redis.DB,
			KeyPrefix: cfg.Redis.KeyPrefix,
			TTL:       cfg.Redis.TTL,
		})
		if err != nil {
			return nil, fmt.Errorf("init redis store: %w", err)
		}
		if err := s.Ping(ctx); err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("init redis store: %w", err)
		}
		logger.Info("using redis store", zap.String("addr", cfg.Redis.Addr))
		return s, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

// PipelineConfig translates the loaded configuration into orchestrator
// settings.
func PipelineConfig(cfg config.Config) pipeline.Config {
	return pipeline.Config{
		Family:           urlnorm.NewFamily(cfg.Platform.Domains, cfg.Platform.MirrorHost).WithMirrorDomains(cfg.Platform.MirrorDomains),
		Mapper:           schema.NewMapper(cfg.Platform.Name, cfg.Platform.Source),
		InteractiveRules: extract.InteractiveRules(cfg.Interactive.ContentLimit),
		PassiveRules:     extract.PassiveRules(cfg.Passive.ContentLimit),
		Limits: extract.Limits{
			AnchorScanLimit: cfg.Extract.AnchorScanLimit,
			MaxLinks:        cfg.Extract.MaxLinks,
		},
		InteractivePolicy: navigate.Policy{MaxAttempts: cfg.Interactive.MaxAttempts},
		PassivePolicy:     navigate.Policy{MaxAttempts: cfg.Passive.MaxAttempts},
		SettleMin:         cfg.Interactive.SettleMin,
		SettleMax:         cfg.Interactive.SettleMax,
		Static: collyfetcher.Config{
			Timeout:   cfg.Passive.Timeout,
			DomainQPS: cfg.Passive.DomainQPS,
		},
	}
}

// HeadlessConfig translates the interactive section into browser settings.
func HeadlessConfig(cfg config.Config) headless.Config {
	return headless.Config{
		Headless:          cfg.Interactive.Headless,
		NoSandbox:         cfg.Interactive.NoSandbox,
		ExecPath:          cfg.Interactive.ExecPath,
		NavigationTimeout: cfg.Interactive.NavTimeout,
	}
}

// StealthConfig translates the stealth section; empty pools fall back to the
// stock identities.
func StealthConfig(cfg config.Config) stealth.Config {
	sc := stealth.DefaultConfig()
	if len(cfg.Stealth.UserAgents) > 0 {
		sc.UserAgents = append([]string(nil), cfg.Stealth.UserAgents...)
	}
	if len(cfg.Stealth.Timezones) > 0 {
		sc.Timezones = append([]string(nil), cfg.Stealth.Timezones...)
	}
	if cfg.Stealth.MinWidth > 0 {
		sc.MinWidth = cfg.Stealth.MinWidth
	}
	if cfg.Stealth.MaxWidth > 0 {
		sc.MaxWidth = cfg.Stealth.MaxWidth
	}
	if cfg.Stealth.MinHeight > 0 {
		sc.MinHeight = cfg.Stealth.MinHeight
	}
	if cfg.Stealth.MaxHeight > 0 {
		sc.MaxHeight = cfg.Stealth.MaxHeight
	}
	if cfg.Stealth.Locale != "" {
		sc.Locale = cfg.Stealth.Locale
	}
	sc.Seed = cfg.Stealth.Seed
	return sc
}
