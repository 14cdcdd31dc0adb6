// Package memory provides an in-process document store for development and
// tests.
package memory

import (
	"context"
	"sync"

	"github.com/sivamaran/reddit-scraper/internal/hash/sha256"
	"github.com/sivamaran/reddit-scraper/internal/metrics"
	"github.com/sivamaran/reddit-scraper/internal/post"
	"github.com/sivamaran/reddit-scraper/internal/store"
)

// Driver names the store in metrics and logs.
const Driver = "memory"

// Store keeps documents in a map keyed by url.
type Store struct {
	mu      sync.RWMutex
	docs    map[string]post.Document
	digests map[string]string
}

// New constructs an empty Store.
func New() *Store {
	return &Store{
		docs:    make(map[string]post.Document),
		digests: make(map[string]string),
	}
}

// Upsert implements store.Upserter.
func (s *Store) Upsert(ctx context.Context, docs []post.Document) (store.Result, error) {
	if err := ctx.Err(); err != nil {
		metrics.ObserveUpsert(Driver, metrics.OutcomeError, len(docs))
		return store.Result{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var res store.Result
	for _, d := range store.Latest(docs) {
		_, digest, err := sha256.Encode(d)
		if err != nil {
			metrics.ObserveUpsert(Driver, metrics.OutcomeError, len(docs))
			return res, err
		}
		if prev, ok := s.digests[d.URL]; ok {
			res.Matched++
			if prev != digest {
				res.Modified++
			}
		} else {
			res.Upserted++
		}
		s.docs[d.URL] = d
		s.digests[d.URL] = digest
	}
	metrics.ObserveUpsert(Driver, metrics.OutcomeOK, res.Total())
	return res, nil
}

// Get returns the stored document for url.
func (s *Store) Get(url string) (post.Document, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.docs[url]
	return d, ok
}

// Len reports how many urls are stored.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

// Driver implements store.Upserter.
func (s *Store) Driver() string { return Driver }

// Close implements store.Upserter.
func (s *Store) Close() error { return nil }
