package flows

import (
	"context"

	"github.com/MrEthical07/goSession/jwt"
	"github.com/MrEthical07/goSession/session"
)

// TokenCodec is satisfied by *jwt.Codec.
type TokenCodec interface {
	Issue(kind jwt.Kind, principalID string) (string, error)
	Verify(kind jwt.Kind, token string) (string, error)
}

// Credentials is the flow-local view of a principal record.
type Credentials struct {
	PrincipalID  string
	PasswordHash string
}

// Deps groups flow dependency sets. The engine builds this once at Build time.
type Deps[P any] struct {
	Login   LoginDeps[P]
	Refresh RefreshDeps
	Logout  LogoutDeps
	Secret  SecretDeps
}

// LogoutDeps captures logout dependencies.
type LogoutDeps struct {
	Sessions session.Store
}

// RunLogout clears the stored refresh value. Clearing an absent value succeeds.
func RunLogout(ctx context.Context, principalID string, deps LogoutDeps) error {
	return deps.Sessions.Set(ctx, principalID, "")
}

type pair struct {
	access  string
	refresh string
}

func issuePair(codec TokenCodec, principalID string) (pair, error) {
	access, err := codec.Issue(jwt.KindAccess, principalID)
	if err != nil {
		return pair{}, err
	}
	refresh, err := codec.Issue(jwt.KindRefresh, principalID)
	if err != nil {
		return pair{}, err
	}
	return pair{access: access, refresh: refresh}, nil
}
