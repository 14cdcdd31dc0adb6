// Package postgres persists extracted documents in a Postgres table keyed by
// url.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sivamaran/reddit-scraper/internal/hash/sha256"
	"github.com/sivamaran/reddit-scraper/internal/metrics"
	"github.com/sivamaran/reddit-scraper/internal/post"
	"github.com/sivamaran/reddit-scraper/internal/store"
)

// Driver names the store in metrics and logs.
const Driver = "postgres"

// DefaultTable is used when Config.Table is empty.
const DefaultTable = "reddit_posts"

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Config controls the Postgres connection pool used for documents.
type Config struct {
	DSN             string
	Table           string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type pool interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Begin(context.Context) (pgx.Tx, error)
	Ping(context.Context) error
	Close()
}

// DocumentStore upserts documents into Postgres.
type DocumentStore struct {
	pool  pool
	table string
}

// New creates a Postgres-backed DocumentStore using the provided config.
func New(ctx context.Context, cfg Config) (*DocumentStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("store.postgres.dsn is required")
	}
	table, err := tableName(cfg.Table)
	if err != nil {
		return nil, err
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	p, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &DocumentStore{pool: p, table: table}, nil
}

// NewWithPool constructs a store from an existing pool (primarily for testing).
func NewWithPool(p pool, table string) (*DocumentStore, error) {
	if p == nil {
		return nil, fmt.Errorf("pool is required")
	}
	name, err := tableName(table)
	if err != nil {
		return nil, err
	}
	return &DocumentStore{pool: p, table: name}, nil
}

func tableName(table string) (string, error) {
	if table == "" {
		table = DefaultTable
	}
	if !validTableName.MatchString(table) {
		return "", fmt.Errorf("invalid table name %q", table)
	}
	return table, nil
}

// EnsureSchema creates the documents table when it does not exist. The url
// primary key is the upsert conflict target.
func (s *DocumentStore) EnsureSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
	url          TEXT PRIMARY KEY,
	platform     TEXT NOT NULL,
	document     JSONB NOT NULL,
	error        TEXT,
	content_hash TEXT NOT NULL,
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
)`, s.table)
	if _, err := s.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("create documents table: %w", err)
	}
	return nil
}

// Upsert writes docs in one transaction. Rows whose content_hash is unchanged
// are left alone and return nothing; xmax is zero only on rows the statement
// inserted, which separates new urls from modified ones.
func (s *DocumentStore) Upsert(ctx context.Context, docs []post.Document) (res store.Result, err error) {
	if s == nil || s.pool == nil {
		return store.Result{}, fmt.Errorf("document store is not configured")
	}
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

	query := fmt.Sprintf(`
INSERT INTO %[1]s (url, platform, document, error, content_hash, updated_at)
VALUES ($1, $2, $3, $4, $5, now())
ON CONFLICT (url) DO UPDATE SET
	platform = EXCLUDED.platform,
	document = EXCLUDED.document,
	error = EXCLUDED.error,
	content_hash = EXCLUDED.content_hash,
	updated_at = EXCLUDED.updated_at
WHERE %[1]s.content_hash IS DISTINCT FROM EXCLUDED.content_hash
RETURNING (xmax = 0) AS inserted`, s.table)

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return store.Result{}, fmt.Errorf("begin upsert: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	for _, d := range docs {
		body, digest, encodeErr := sha256.Encode(d)
		if encodeErr != nil {
			return store.Result{}, encodeErr
		}
		var inserted bool
		scanErr := tx.QueryRow(ctx, query, d.URL, d.Platform, body, d.Error, digest).Scan(&inserted)
		switch {
		case errors.Is(scanErr, pgx.ErrNoRows):
			res.Matched++
		case scanErr != nil:
			return store.Result{}, fmt.Errorf("upsert document %s: %w", d.URL, scanErr)
		case inserted:
			res.Upserted++
		default:
			res.Matched++
			res.Modified++
		}
	}
	if commitErr := tx.Commit(ctx); commitErr != nil {
		return store.Result{}, fmt.Errorf("commit upsert: %w", commitErr)
	}
	return res, nil
}

// Ping checks the pool can reach Postgres.
func (s *DocumentStore) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping postgres: %w", err)
	}
	return nil
}

// Driver implements store.Upserter.
func (s *DocumentStore) Driver() string { return Driver }

// Close releases the underlying pool resources.
func (s *DocumentStore) Close() error {
	if s == nil || s.pool == nil {
		return nil
	}
	s.pool.Close()
	return nil
}
