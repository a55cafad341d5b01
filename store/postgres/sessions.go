package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrEthical07/goSession/session"
	"github.com/jackc/pgx/v5"
)

var (
	_ session.Store  = (*Store)(nil)
	_ session.Pinger = (*Store)(nil)
)

// An empty value is stored as NULL, so "no session" compares equal to "".
const (
	qRefreshGet = `
SELECT refresh_token FROM users WHERE id = $1;
`
	qRefreshSet = `
UPDATE users SET refresh_token = NULLIF($2, '') WHERE id = $1;
`
	qRefreshSwap = `
UPDATE users SET refresh_token = NULLIF($3, '')
WHERE id = $1 AND refresh_token IS NOT DISTINCT FROM NULLIF($2, '');
`
)

func (s *Store) Get(ctx context.Context, principalID string) (string, bool, error) {
	const op = "store.postgres.Get"

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var v *string
	err := s.pool.QueryRow(ctx, qRefreshGet, principalID).Scan(&v)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("%s: %w: %w", op, session.ErrUnavailable, err)
	}
	if v == nil || *v == "" {
		return "", false, nil
	}
	return *v, true, nil
}

// Set overwrites the refresh value. Writes for unknown principals affect no rows.
func (s *Store) Set(ctx context.Context, principalID, value string) error {
	const op = "store.postgres.Set"

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if _, err := s.pool.Exec(ctx, qRefreshSet, principalID, value); err != nil {
		return fmt.Errorf("%s: %w: %w", op, session.ErrUnavailable, err)
	}
	return nil
}

func (s *Store) CompareAndSwap(ctx context.Context, principalID, expected, next string) (bool, error) {
	const op = "store.postgres.CompareAndSwap"

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	tag, err := s.pool.Exec(ctx, qRefreshSwap, principalID, expected, next)
	if err != nil {
		return false, fmt.Errorf("%s: %w: %w", op, session.ErrUnavailable, err)
	}
	return tag.RowsAffected() == 1, nil
}
