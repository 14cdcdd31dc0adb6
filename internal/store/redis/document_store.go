// Package redis caches extracted documents as JSON values keyed by url.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/sivamaran/reddit-scraper/internal/hash/sha256"
	"github.com/sivamaran/reddit-scraper/internal/metrics"
	"github.com/sivamaran/reddit-scraper/internal/post"
	"github.com/sivamaran/reddit-scraper/internal/store"
)

// Driver names the store in metrics and logs.
const Driver = "redis"

// DefaultKeyPrefix is used when Config.KeyPrefix is empty.
const DefaultKeyPrefix = "reddit:post:"

// Config controls the Redis connection and key layout.
type Config struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
	// TTL of zero keeps documents forever.
	TTL time.Duration
}

type client interface {
	Get(ctx context.Context, key string) *goredis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *goredis.StatusCmd
	Ping(ctx context.Context) *goredis.StatusCmd
	Close() error
}

// DocumentStore writes documents with SET, overwriting any previous value and
// refreshing its TTL.
type DocumentStore struct {
	client client
	prefix string
	ttl    time.Duration
}

// New connects a DocumentStore to the configured Redis.
func New(cfg Config) (*DocumentStore, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("store.redis.addr is required")
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return NewWithClient(rdb, cfg), nil
}

// NewWithClient wraps an existing client (primarily for testing).
func NewWithClient(c client, cfg Config) *DocumentStore {
	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &DocumentStore{client: c, prefix: prefix, ttl: cfg.TTL}
}

// Key returns the Redis key holding url's document.
func (s *DocumentStore) Key(url string) string {
	return s.prefix + url
}

// Upsert implements store.Upserter.
func (s *DocumentStore) Upsert(ctx context.Context, docs []post.Document) (res store.Result, err error) {
	docs = store.Latest(docs)
	if len(docs) == 0 {
		return store.Result{}, nil
	}
	defer func() {
		outcome := metrics.OutcomeOK
		if err != nil {
			outcome = metrics.OutcomeError
		}
		metrics.ObserveUpsert(Driver, outcome, len(docs))
	}()

	for _, d := range docs {
		key := s.Key(d.URL)
		prev, getErr := s.client.Get(ctx, key).Bytes()
		found := true
		switch {
		case errors.Is(getErr, goredis.Nil):
			found = false
		case getErr != nil:
			return res, fmt.Errorf("get document %s: %w", d.URL, getErr)
		}
		body, digest, encodeErr := sha256.Encode(d)
		if encodeErr != nil {
			return res, encodeErr
		}
		if err := s.client.Set(ctx, key, body, s.ttl).Err(); err != nil {
			return res, fmt.Errorf("set document %s: %w", d.URL, err)
		}
		if !found {
			res.Upserted++
			continue
		}
		res.Matched++
		if sha256.Sum(prev) != digest {
			res.Modified++
		}
	}
	return res, nil
}

// Ping checks the client can reach Redis.
func (s *DocumentStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}
	return nil
}

// Driver implements store.Upserter.
func (s *DocumentStore) Driver() string { return Driver }

// Close releases the client.
func (s *DocumentStore) Close() error {
	return s.client.Close()
}
