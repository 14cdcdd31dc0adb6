// Package pipeline runs one extraction batch end to end: it opens a browser
// session with a fresh stealth identity, runs the interactive and passive
// strategies side by side, then reconciles and maps their records.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sivamaran/reddit-scraper/internal/extract"
	collyfetcher "github.com/sivamaran/reddit-scraper/internal/fetcher/colly"
	"github.com/sivamaran/reddit-scraper/internal/metrics"
	"github.com/sivamaran/reddit-scraper/internal/navigate"
	"github.com/sivamaran/reddit-scraper/internal/post"
	"github.com/sivamaran/reddit-scraper/internal/reconcile"
	"github.com/sivamaran/reddit-scraper/internal/schema"
	"github.com/sivamaran/reddit-scraper/internal/stealth"
	"github.com/sivamaran/reddit-scraper/internal/strategy"
	"github.com/sivamaran/reddit-scraper/internal/urlnorm"
)

// Page is a browser tab owned by one strategy.
type Page interface {
	strategy.Page
	Close() error
}

// Session is the browsing resource shared by a batch.
type Session interface {
	NewPage(ctx context.Context) (Page, error)
	Close() error
}

// SessionOpener acquires a Session presenting identity.
type SessionOpener interface {
	Open(ctx context.Context, identity stealth.Identity) (Session, error)
}

// StaticFactory builds the passive strategy's fetcher for a batch.
type StaticFactory func(cfg collyfetcher.Config) strategy.Getter

// Config carries everything a batch needs besides its collaborators.
type Config struct {
	Family            urlnorm.Family
	Mapper            schema.Mapper
	InteractiveRules  extract.Rules
	PassiveRules      extract.Rules
	Limits            extract.Limits
	InteractivePolicy navigate.Policy
	PassivePolicy     navigate.Policy
	SettleMin         time.Duration
	SettleMax         time.Duration
	Static            collyfetcher.Config
}

// Orchestrator runs batches. It is safe for concurrent use; each Run opens
// its own session.
type Orchestrator struct {
	cfg        Config
	opener     SessionOpener
	static     StaticFactory
	identities *stealth.Generator
	clock      extract.Clock
	logger     *zap.Logger
}

// Option customizes an Orchestrator.
type Option func(*Orchestrator)

// WithStaticFactory replaces the colly-backed static fetcher.
func WithStaticFactory(f StaticFactory) Option {
	return func(o *Orchestrator) {
		o.static = f
	}
}

// WithClock sets the clock stamped on records.
func WithClock(c extract.Clock) Option {
	return func(o *Orchestrator) {
		o.clock = c
	}
}

// New builds an Orchestrator.
func New(cfg Config, opener SessionOpener, identities *stealth.Generator, logger *zap.Logger, opts ...Option) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if identities == nil {
		identities = stealth.NewGenerator(stealth.DefaultConfig())
	}
	o := &Orchestrator{
		cfg:        cfg,
		opener:     opener,
		identities: identities,
		logger:     logger,
	}
	o.static = func(c collyfetcher.Config) strategy.Getter {
		return collyfetcher.New(c, o.logger)
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run extracts every URL and returns one document per distinct URL, in
// first-seen order. Per-URL failures are carried on the documents. Run fails
// only when the session cannot be acquired (post.ErrSessionAcquisition) or
// ctx is canceled.
func (o *Orchestrator) Run(ctx context.Context, urls []string) (docs []post.Document, err error) {
	start := time.Now()
	urls = urlnorm.Dedupe(urls)
	if len(urls) == 0 {
		return []post.Document{}, nil
	}
	defer func() {
		metrics.ObserveBatch(time.Since(start))
	}()

	identity := o.identities.Identity()
	logger := o.logger.With(zap.Int("urls", len(urls)))
	logger.Info("batch starting",
		zap.String("user_agent", identity.UserAgent),
		zap.Int("viewport_width", identity.Viewport.Width),
		zap.Int("viewport_height", identity.Viewport.Height),
		zap.String("timezone", identity.Timezone),
	)

	session, err := o.opener.Open(ctx, identity)
	if err != nil {
		return nil, fmt.Errorf("open session: %w: %w", post.ErrSessionAcquisition, err)
	}
	defer func() {
		if closeErr := session.Close(); closeErr != nil {
			logger.Warn("close session", zap.Error(closeErr))
		}
	}()

	page, err := session.NewPage(ctx)
	if err != nil {
		return nil, fmt.Errorf("open page: %w: %w", post.ErrSessionAcquisition, err)
	}
	defer func() {
		if closeErr := page.Close(); closeErr != nil {
			logger.Warn("close page", zap.Error(closeErr))
		}
	}()

	interactive, passive := o.strategies(page, identity)

	var recordsA, recordsB []post.PartialRecord
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		recs, runErr := interactive.Run(gctx, urls)
		recordsA = recs
		return runErr
	})
	g.Go(func() error {
		recs, runErr := passive.Run(gctx, urls)
		recordsB = recs
		return runErr
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("run batch: %w", err)
	}

	merged := reconcile.Merge(append(recordsA, recordsB...))
	docs = o.cfg.Mapper.MapAll(merged)
	failed := 0
	for _, d := range docs {
		if d.Error != nil {
			failed++
		}
	}
	logger.Info("batch finished",
		zap.Int("documents", len(docs)),
		zap.Int("failed", failed),
		zap.Duration("elapsed", time.Since(start)),
	)
	return docs, nil
}

func (o *Orchestrator) strategies(page Page, identity stealth.Identity) (strategy.Strategy, strategy.Strategy) {
	interactivePolicy := o.cfg.InteractivePolicy
	if interactivePolicy.Backoff == nil {
		interactivePolicy.Backoff = navigate.DefaultBackoff(o.identities.Fork())
	}
	passivePolicy := o.cfg.PassivePolicy
	if passivePolicy.Backoff == nil {
		passivePolicy.Backoff = navigate.DefaultBackoff(o.identities.Fork())
	}

	var settle strategy.SettleFunc
	if o.cfg.SettleMax > 0 {
		settle = strategy.UniformSettle(o.cfg.SettleMin, o.cfg.SettleMax, o.identities.Uniform)
	}

	staticCfg := o.cfg.Static
	staticCfg.UserAgent = identity.UserAgent
	staticCfg.Headers = identity.Headers()

	interactive := strategy.NewInteractive(
		page,
		extract.NewExtractor(post.StrategyInteractive, o.cfg.InteractiveRules, o.cfg.Family, o.cfg.Limits, o.clock),
		o.cfg.Family,
		interactivePolicy,
		settle,
		o.logger,
	)
	passive := strategy.NewPassive(
		o.static(staticCfg),
		extract.NewExtractor(post.StrategyPassive, o.cfg.PassiveRules, o.cfg.Family, o.cfg.Limits, o.clock),
		o.cfg.Family,
		passivePolicy,
		o.logger,
	)
	return interactive, passive
}
