package store

import (
	"context"

	"github.com/sivamaran/reddit-scraper/internal/post"
)

// Result reports what a bulk upsert touched.
type Result struct {
	// Matched counts documents whose url already existed.
	Matched int
	// Modified counts matched documents whose content changed.
	Modified int
	// Upserted counts documents inserted for the first time.
	Upserted int
}

// Total is the number of documents written.
func (r Result) Total() int { return r.Matched + r.Upserted }

// Upserter persists documents keyed by url. Writing the same batch twice
// leaves one document per url.
type Upserter interface {
	Upsert(ctx context.Context, docs []post.Document) (Result, error)
	Driver() string
	Close() error
}

// Latest keeps the last document per url, preserving first-seen order, so a
// batch never writes the same key twice. Documents without a url are dropped.
func Latest(docs []post.Document) []post.Document {
	index := make(map[string]int, len(docs))
	out := make([]post.Document, 0, len(docs))
	for _, d := range docs {
		if d.URL == "" {
			continue
		}
		if i, ok := index[d.URL]; ok {
			out[i] = d
			continue
		}
		index[d.URL] = len(out)
		out = append(out, d)
	}
	return out
}

// Pinger is implemented by stores that can report their backend's health.
type Pinger interface {
	Ping(ctx context.Context) error
}
