package strategy

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"github.com/sivamaran/reddit-scraper/internal/extract"
	collyfetcher "github.com/sivamaran/reddit-scraper/internal/fetcher/colly"
	"github.com/sivamaran/reddit-scraper/internal/navigate"
	"github.com/sivamaran/reddit-scraper/internal/post"
	"github.com/sivamaran/reddit-scraper/internal/urlnorm"
)

// Getter is a one-shot static fetcher. *collyfetcher.Fetcher satisfies it.
type Getter interface {
	Get(ctx context.Context, rawURL string) (collyfetcher.Response, error)
}

// Passive extracts from statically served markup.
type Passive struct {
	getter    Getter
	extractor *extract.Extractor
	family    urlnorm.Family
	policy    navigate.Policy
	logger    *zap.Logger
}

// NewPassive builds the passive strategy over getter.
func NewPassive(getter Getter, extractor *extract.Extractor, family urlnorm.Family, policy navigate.Policy, logger *zap.Logger) *Passive {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("strategy", post.StrategyPassive.String()))
	return &Passive{
		getter:    getter,
		extractor: extractor,
		family:    family,
		policy:    observedPolicy(policy, post.StrategyPassive, logger),
		logger:    logger,
	}
}

// Kind implements Strategy.
func (s *Passive) Kind() post.Strategy {
	return post.StrategyPassive
}

// Run implements Strategy.
func (s *Passive) Run(ctx context.Context, urls []string) ([]post.PartialRecord, error) {
	return runBatch(ctx, post.StrategyPassive, urls, s.family.MirrorOf, s.extractOne, s.logger)
}

// extractOne asks for the mirror when the fetch errors, the status is not
// 200, the final host left the platform, or nothing could be extracted.
func (s *Passive) extractOne(ctx context.Context, target, key string) (post.PartialRecord, bool) {
	res := navigate.Run(ctx, s.policy, target, func(ctx context.Context) (collyfetcher.Response, error) {
		return s.getter.Get(ctx, target)
	})
	if !res.OK() {
		return s.errorRecord(key, post.ErrorText(res.Err)), true
	}
	resp := res.Value
	if resp.Status != http.StatusOK {
		return s.errorRecord(key, fmt.Sprintf("unexpected status %d", resp.Status)), true
	}
	if !s.onPlatform(resp.FinalURL, target) {
		return s.errorRecord(key, fmt.Sprintf("redirected off platform to %s", resp.FinalURL)), true
	}
	doc, err := extract.Parse(resp.Body)
	if err != nil {
		return s.errorRecord(key, post.ErrTextExtraction), true
	}
	rec := s.extractor.Extract(doc, key)
	return rec, rec.Error != nil
}

// onPlatform reports whether finalURL is an acceptable landing page for a
// request to target: either inside the family or on the requested host.
func (s *Passive) onPlatform(finalURL, target string) bool {
	if finalURL == "" {
		return true
	}
	final, err := url.Parse(finalURL)
	if err != nil {
		return false
	}
	if s.family.Contains(final.Host) {
		return true
	}
	requested, err := url.Parse(target)
	return err == nil && final.Host == requested.Host
}

func (s *Passive) errorRecord(key, reason string) post.PartialRecord {
	return errorRecord(post.StrategyPassive, key, s.extractor.ScrapedAt(), reason)
}
