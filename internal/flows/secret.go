package flows

import (
	"context"
	"errors"
)

// SecretFailureKind classifies change-secret failures.
type SecretFailureKind int

const (
	SecretFailureNone SecretFailureKind = iota
	SecretFailureMissing
	SecretFailureNotFound
	SecretFailureLookup
	SecretFailureInvalidOld
	SecretFailureReuse
	SecretFailurePolicy
	SecretFailurePersist
)

// SecretResult reports the outcome of RunChangeSecret.
type SecretResult struct {
	Failure SecretFailureKind
	Err     error
}

// SecretDeps captures change-secret dependencies.
type SecretDeps struct {
	FindByID     func(context.Context, string) (Credentials, error)
	NotFound     error
	VerifySecret func(secret, encodedHash string) (bool, error)
	HashSecret   func(secret string) (string, error)
	UpdateHash   func(ctx context.Context, principalID, encodedHash string) error
}

// RunChangeSecret replaces the stored hash after verifying oldSecret. The
// stored refresh value is not touched, so existing sessions stay valid.
func RunChangeSecret(ctx context.Context, principalID, oldSecret, newSecret string, deps SecretDeps) SecretResult {
	if principalID == "" || oldSecret == "" || newSecret == "" {
		return SecretResult{Failure: SecretFailureMissing}
	}

	creds, err := deps.FindByID(ctx, principalID)
	if err != nil {
		if deps.NotFound != nil && errors.Is(err, deps.NotFound) {
			return SecretResult{Failure: SecretFailureNotFound, Err: err}
		}
		return SecretResult{Failure: SecretFailureLookup, Err: err}
	}

	ok, err := deps.VerifySecret(oldSecret, creds.PasswordHash)
	if err != nil || !ok {
		return SecretResult{Failure: SecretFailureInvalidOld, Err: err}
	}
	if oldSecret == newSecret {
		return SecretResult{Failure: SecretFailureReuse}
	}

	hash, err := deps.HashSecret(newSecret)
	if err != nil {
		return SecretResult{Failure: SecretFailurePolicy, Err: err}
	}
	if err := deps.UpdateHash(ctx, principalID, hash); err != nil {
		return SecretResult{Failure: SecretFailurePersist, Err: err}
	}
	return SecretResult{}
}
