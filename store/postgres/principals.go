package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	goSession "github.com/MrEthical07/goSession"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var _ goSession.PrincipalStore = (*Store)(nil)

const (
	principalColumns = `id, username, email, full_name, password_hash, avatar_uri, cover_uri,
       COALESCE(refresh_token, ''), created_at, updated_at`

	qPrincipalInsert = `
INSERT INTO users (id, username, email, full_name, password_hash, avatar_uri, cover_uri)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING ` + principalColumns + `;
`
	qPrincipalByID = `
SELECT ` + principalColumns + `
FROM users
WHERE id = $1;
`
	qPrincipalByIdentifier = `
SELECT ` + principalColumns + `
FROM users
WHERE username = $1 OR email = $1
LIMIT 1;
`
	qPrincipalExists = `
SELECT EXISTS (SELECT 1 FROM users WHERE username = $1 OR email = $2);
`
	qPasswordUpdate = `
UPDATE users SET password_hash = $2, updated_at = now()
WHERE id = $1;
`
)

func scanPrincipal(row pgx.Row) (goSession.Principal, error) {
	var p goSession.Principal
	err := row.Scan(
		&p.ID,
		&p.Username,
		&p.Email,
		&p.FullName,
		&p.PasswordHash,
		&p.AvatarURI,
		&p.CoverURI,
		&p.RefreshToken,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	return p, err
}

// mapError translates driver errors into the engine's sentinels.
func mapError(op string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, goSession.ErrPrincipalNotFound)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		return fmt.Errorf("%s: %w", op, goSession.ErrDuplicatePrincipal)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func (s *Store) Create(ctx context.Context, p goSession.Principal) (goSession.Principal, error) {
	const op = "store.postgres.Create"

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	row := s.pool.QueryRow(ctx, qPrincipalInsert,
		p.ID,
		p.Username,
		p.Email,
		p.FullName,
		p.PasswordHash,
		p.AvatarURI,
		p.CoverURI,
	)
	created, err := scanPrincipal(row)
	if err != nil {
		return goSession.Principal{}, mapError(op, err)
	}
	return created, nil
}

func (s *Store) FindByID(ctx context.Context, id string) (goSession.Principal, error) {
	const op = "store.postgres.FindByID"

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	p, err := scanPrincipal(s.pool.QueryRow(ctx, qPrincipalByID, id))
	if err != nil {
		return goSession.Principal{}, mapError(op, err)
	}
	return p, nil
}

func (s *Store) FindByIdentifier(ctx context.Context, identifier string) (goSession.Principal, error) {
	const op = "store.postgres.FindByIdentifier"

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	p, err := scanPrincipal(s.pool.QueryRow(ctx, qPrincipalByIdentifier, strings.ToLower(identifier)))
	if err != nil {
		return goSession.Principal{}, mapError(op, err)
	}
	return p, nil
}

func (s *Store) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	const op = "store.postgres.ExistsByUsernameOrEmail"

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var exists bool
	if err := s.pool.QueryRow(ctx, qPrincipalExists, username, email).Scan(&exists); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return exists, nil
}

func (s *Store) UpdatePasswordHash(ctx context.Context, id, hash string) error {
	const op = "store.postgres.UpdatePasswordHash"

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	tag, err := s.pool.Exec(ctx, qPasswordUpdate, id, hash)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, goSession.ErrPrincipalNotFound)
	}
	return nil
}

// fieldColumn returns the users column backing field.
func fieldColumn(field goSession.ProfileField) (string, bool) {
	switch field {
	case goSession.FieldFullName:
		return "full_name", true
	case goSession.FieldEmail:
		return "email", true
	case goSession.FieldAvatarURI:
		return "avatar_uri", true
	case goSession.FieldCoverURI:
		return "cover_uri", true
	default:
		return "", false
	}
}

func (s *Store) UpdateField(ctx context.Context, id string, field goSession.ProfileField, value string) (goSession.Principal, error) {
	const op = "store.postgres.UpdateField"

	column, ok := fieldColumn(field)
	if !ok {
		return goSession.Principal{}, fmt.Errorf("%s: unknown field %s: %w", op, field, goSession.ErrInvalidField)
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	// column comes from the fixed set above, never from input.
	q := `UPDATE users SET ` + column + ` = $2, updated_at = now() WHERE id = $1 RETURNING ` + principalColumns
	p, err := scanPrincipal(s.pool.QueryRow(ctx, q, id, value))
	if err != nil {
		return goSession.Principal{}, mapError(op, err)
	}
	return p, nil
}
