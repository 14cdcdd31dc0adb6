package strategy

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sivamaran/reddit-scraper/internal/extract"
	"github.com/sivamaran/reddit-scraper/internal/fetcher/headless"
	"github.com/sivamaran/reddit-scraper/internal/navigate"
	"github.com/sivamaran/reddit-scraper/internal/post"
	"github.com/sivamaran/reddit-scraper/internal/urlnorm"
)

// Page is a live browser tab. *headless.Page satisfies it.
type Page interface {
	Navigate(ctx context.Context, rawURL string) (headless.Response, error)
}

// SettleFunc waits after a successful navigation so late scripts can render.
type SettleFunc func(ctx context.Context) error

// UniformSettle waits a duration drawn by draw from [lo, hi).
func UniformSettle(lo, hi time.Duration, draw func(lo, hi time.Duration) time.Duration) SettleFunc {
	return func(ctx context.Context) error {
		return navigate.TimerSleep(ctx, draw(lo, hi))
	}
}

// Interactive extracts from rendered pages.
type Interactive struct {
	page      Page
	extractor *extract.Extractor
	family    urlnorm.Family
	policy    navigate.Policy
	settle    SettleFunc
	logger    *zap.Logger
}

// NewInteractive builds the interactive strategy over page. A nil settle
// skips the post-navigation wait.
func NewInteractive(page Page, extractor *extract.Extractor, family urlnorm.Family, policy navigate.Policy, settle SettleFunc, logger *zap.Logger) *Interactive {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("strategy", post.StrategyInteractive.String()))
	if settle == nil {
		settle = func(context.Context) error { return nil }
	}
	return &Interactive{
		page:      page,
		extractor: extractor,
		family:    family,
		policy:    observedPolicy(policy, post.StrategyInteractive, logger),
		settle:    settle,
		logger:    logger,
	}
}

// Kind implements Strategy.
func (s *Interactive) Kind() post.Strategy {
	return post.StrategyInteractive
}

// Run implements Strategy.
func (s *Interactive) Run(ctx context.Context, urls []string) ([]post.PartialRecord, error) {
	return runBatch(ctx, post.StrategyInteractive, urls, s.family.MirrorOf, s.extractOne, s.logger)
}

func (s *Interactive) extractOne(ctx context.Context, target, key string) (post.PartialRecord, bool) {
	res := navigate.Run(ctx, s.policy, target, func(ctx context.Context) (headless.Response, error) {
		return s.page.Navigate(ctx, target)
	})
	if !res.OK() {
		return s.errorRecord(key, post.ErrorText(res.Err)), true
	}
	if err := s.settle(ctx); err != nil {
		return s.errorRecord(key, post.ErrorText(err)), false
	}
	doc, err := extract.Parse([]byte(res.Value.HTML))
	if err != nil {
		return s.errorRecord(key, post.ErrTextExtraction), true
	}
	rec := s.extractor.Extract(doc, key)
	return rec, rec.Error != nil
}

func (s *Interactive) errorRecord(key, reason string) post.PartialRecord {
	return errorRecord(post.StrategyInteractive, key, s.extractor.ScrapedAt(), reason)
}
