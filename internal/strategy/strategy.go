// Package strategy runs one extraction strategy over a batch of URLs. Each
// strategy owns its fetch handle, retries navigation through the shared
// policy and falls back to the mirror host once when the first pass fails.
package strategy

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/sivamaran/reddit-scraper/internal/metrics"
	"github.com/sivamaran/reddit-scraper/internal/navigate"
	"github.com/sivamaran/reddit-scraper/internal/post"
)

// Strategy extracts one PartialRecord per URL.
type Strategy interface {
	Kind() post.Strategy
	Run(ctx context.Context, urls []string) ([]post.PartialRecord, error)
}

// extractOne produces the record for one key URL, trying target first.
type extractOne func(ctx context.Context, target, key string) (post.PartialRecord, bool)

// runBatch walks urls sequentially. Per-URL failures are data; only caller
// cancellation stops the walk and is returned alongside the records so far.
func runBatch(ctx context.Context, kind post.Strategy, urls []string, mirrorOf func(string) string, one extractOne, logger *zap.Logger) ([]post.PartialRecord, error) {
	records := make([]post.PartialRecord, 0, len(urls))
	for _, u := range urls {
		if err := ctx.Err(); err != nil {
			return records, fmt.Errorf("%s strategy: %w", kind, err)
		}
		rec, retry := one(ctx, u, u)
		if retry && ctx.Err() == nil {
			if mirror := mirrorOf(u); mirror != u {
				metrics.ObserveMirrorFallback(kind.String())
				logger.Info("retrying on mirror host",
					zap.String("url", u),
					zap.String("mirror", mirror),
					zap.String("reason", post.Deref(rec.Error)),
				)
				rec, _ = one(ctx, mirror, u)
			}
		}
		if err := ctx.Err(); err != nil {
			return records, fmt.Errorf("%s strategy: %w", kind, err)
		}
		outcome := metrics.OutcomeOK
		if rec.Error != nil {
			outcome = metrics.OutcomeError
			logger.Warn("extraction failed", zap.String("url", u), zap.String("error", post.Deref(rec.Error)))
		} else {
			logger.Debug("extracted", zap.String("url", u), zap.String("title", post.Deref(rec.Title)))
		}
		metrics.ObserveRecord(kind.String(), outcome)
		records = append(records, rec)
	}
	return records, nil
}

// errorRecord is the record for a URL whose fetch failed outright.
func errorRecord(kind post.Strategy, key string, scrapedAt int64, reason string) post.PartialRecord {
	return post.PartialRecord{
		URL:           key,
		Strategy:      kind,
		ExternalLinks: []string{},
		Emails:        []string{},
		Phones:        []string{},
		ScrapedAt:     scrapedAt,
		Error:         post.String(reason),
	}
}

// observedPolicy reports every navigation transition to the logger and the
// attempt counter.
func observedPolicy(p navigate.Policy, kind post.Strategy, logger *zap.Logger) navigate.Policy {
	inner := p.Observe
	p.Observe = func(tr navigate.Transition) {
		if inner != nil {
			inner(tr)
		}
		switch tr.To {
		case navigate.StateSuccess, navigate.StateTimedOut, navigate.StateOtherError:
			metrics.ObserveNavigation(kind.String(), tr.To.String())
		case navigate.StateBackoff:
			logger.Warn("navigation retry scheduled",
				zap.String("url", tr.Target),
				zap.Int("attempt", tr.Attempt+1),
				zap.Duration("delay", tr.Delay),
				zap.Error(tr.Err),
			)
		case navigate.StateFailed:
			logger.Warn("navigation failed", zap.String("url", tr.Target), zap.Int("attempts", tr.Attempt+1), zap.Error(tr.Err))
		}
	}
	return p
}
