package flows

import (
	"context"
	"errors"
	"strings"

	"github.com/MrEthical07/goSession/session"
)

// LoginFailureKind classifies login failures for root-level mapping.
type LoginFailureKind int

const (
	LoginFailureNone LoginFailureKind = iota
	LoginFailureMissingCredentials
	LoginFailureNotFound
	LoginFailureLookup
	LoginFailureInvalidCredentials
	LoginFailureIssue
	LoginFailurePersist
)

// LoginResult carries the issued pair and the matched principal, or failure metadata.
type LoginResult[P any] struct {
	Failure      LoginFailureKind
	Err          error
	Principal    P
	PrincipalID  string
	AccessToken  string
	RefreshToken string
}

// LoginDeps captures login dependencies.
type LoginDeps[P any] struct {
	FindByIdentifier func(context.Context, string) (P, error)
	CredentialsOf    func(P) Credentials
	// NotFound is the sentinel FindByIdentifier wraps for a missing record.
	NotFound     error
	VerifySecret func(secret, encodedHash string) (bool, error)
	Codec        TokenCodec
	Sessions     session.Store
}

// RunLogin authenticates identifier/secret and stores the digest of a freshly
// issued refresh token, overwriting any previous one. The store is written
// exactly once, and only on success.
func RunLogin[P any](ctx context.Context, identifier, secret string, deps LoginDeps[P]) LoginResult[P] {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || secret == "" {
		return LoginResult[P]{Failure: LoginFailureMissingCredentials}
	}

	principal, err := deps.FindByIdentifier(ctx, identifier)
	if err != nil {
		if deps.NotFound != nil && errors.Is(err, deps.NotFound) {
			return LoginResult[P]{Failure: LoginFailureNotFound, Err: err}
		}
		return LoginResult[P]{Failure: LoginFailureLookup, Err: err}
	}
	creds := deps.CredentialsOf(principal)

	ok, err := deps.VerifySecret(secret, creds.PasswordHash)
	if err != nil || !ok {
		return LoginResult[P]{
			Failure:     LoginFailureInvalidCredentials,
			Err:         err,
			PrincipalID: creds.PrincipalID,
		}
	}

	issued, err := issuePair(deps.Codec, creds.PrincipalID)
	if err != nil {
		return LoginResult[P]{Failure: LoginFailureIssue, Err: err, PrincipalID: creds.PrincipalID}
	}

	if err := deps.Sessions.Set(ctx, creds.PrincipalID, session.Digest(issued.refresh)); err != nil {
		return LoginResult[P]{Failure: LoginFailurePersist, Err: err, PrincipalID: creds.PrincipalID}
	}

	return LoginResult[P]{
		Principal:    principal,
		PrincipalID:  creds.PrincipalID,
		AccessToken:  issued.access,
		RefreshToken: issued.refresh,
	}
}
