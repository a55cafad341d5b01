package postgres

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed migrations/001_users.up.sql
var schema string

// Config controls the connection pool. Zero values keep the pgxpool defaults.
type Config struct {
	URL             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
	QueryTimeout    time.Duration
}

// Store keeps principals in the users table. The refresh digest is the
// users.refresh_token column, so Store is also a session store.
type Store struct {
	pool         *pgxpool.Pool
	queryTimeout time.Duration
}

// New connects to PostgreSQL and pings it before returning.
func New(ctx context.Context, cfg Config) (*Store, error) {
	const op = "store.postgres.New"

	pcfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("%s: parse config: %w", op, err)
	}
	if cfg.MaxConns > 0 {
		pcfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		pcfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		pcfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.MaxConnIdleTime > 0 {
		pcfg.MaxConnIdleTime = cfg.MaxConnIdleTime
	}

	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	hctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(hctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%s: ping: %w", op, err)
	}

	return &Store{pool: pool, queryTimeout: cfg.QueryTimeout}, nil
}

// Migrate creates the users table and its unique indexes if they are missing.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("store.postgres.Migrate: %w", err)
	}
	return nil
}

// Close closes the pool.
func (s *Store) Close() {
	s.pool.Close()
}

// Ping reports the round-trip time of a pool ping.
func (s *Store) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if err := s.pool.Ping(ctx); err != nil {
		return 0, fmt.Errorf("store.postgres.Ping: %w", err)
	}
	return time.Since(start), nil
}

func (s *Store) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.queryTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.queryTimeout)
}
