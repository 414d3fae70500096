package ledger

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/edtools/canvas-crawler/internal/crawler"
)

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// PostgresConfig controls the connection pool used for ledger rows.
type PostgresConfig struct {
	DSN             string
	Table           string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type execCloser interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Close()
}

// PostgresStore writes artifact rows into Postgres.
type PostgresStore struct {
	pool  execCloser
	table string
}

// NewPostgres creates a Postgres-backed ledger using the provided config.
func NewPostgres(ctx context.Context, cfg PostgresConfig) (*PostgresStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("ledger.dsn is required")
	}
	table := cfg.Table
	if table == "" {
		table = "crawl_artifacts"
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
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
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &PostgresStore{pool: pool, table: table}, nil
}

// NewPostgresWithPool constructs a store from an existing pool (primarily for
// testing).
func NewPostgresWithPool(pool execCloser, table string) (*PostgresStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if table == "" {
		table = "crawl_artifacts"
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &PostgresStore{pool: pool, table: table}, nil
}

// Close releases the underlying pool resources.
func (s *PostgresStore) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// RecordArtifact inserts one artifact row.
func (s *PostgresStore) RecordArtifact(ctx context.Context, entry crawler.ArtifactEntry) error {
	if s == nil || s.pool == nil {
		return fmt.Errorf("ledger is not configured")
	}
	if entry.RunID == "" {
		return fmt.Errorf("run id is required")
	}

	query := fmt.Sprintf(`
INSERT INTO %s (
	run_id,
	content_type,
	item_id,
	title,
	url,
	file_path,
	depth,
	locked,
	retrieved_at
) VALUES (
	$1,$2,$3,$4,$5,$6,$7,$8,$9
)`, s.table)

	args := []any{
		entry.RunID,
		entry.ContentType,
		fmt.Sprint(entry.ItemID),
		entry.Title,
		entry.URL,
		entry.FilePath,
		entry.Depth,
		entry.Locked,
		entry.RetrievedAt,
	}
	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("insert artifact row: %w", err)
	}
	return nil
}
