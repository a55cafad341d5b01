package flows

import (
	"context"
	"errors"

	"github.com/MrEthical07/goSession/jwt"
	"github.com/MrEthical07/goSession/session"
)

// RefreshFailureKind classifies refresh flow failures for root-level mapping.
type RefreshFailureKind int

const (
	RefreshFailureNone RefreshFailureKind = iota
	RefreshFailureMissingToken
	RefreshFailureDecode
	RefreshFailureNotFound
	RefreshFailureLookup
	RefreshFailureStoreRead
	RefreshFailureReuse
	RefreshFailureIssue
	RefreshFailureRotate
)

// Reuse reasons reported in RefreshResult.ReuseReason.
const (
	ReuseNoSession = "no_active_session"
	ReuseMismatch  = "token_mismatch"
	ReuseLostRace  = "lost_rotation_race"
)

// RefreshResult carries either the rotated pair or failure metadata.
type RefreshResult struct {
	Failure      RefreshFailureKind
	Err          error
	PrincipalID  string
	ReuseReason  string
	AccessToken  string
	RefreshToken string
}

// RefreshDeps captures refresh flow dependencies.
type RefreshDeps struct {
	Codec TokenCodec
	// Exists returns nil when the principal record is present.
	Exists   func(context.Context, string) error
	NotFound error
	Sessions session.Store
}

// RunRefresh rotates the refresh token for the principal it was issued to.
//
// The presented token must be the one whose digest is stored. The swap to the
// new digest is a single compare-and-swap, so of two concurrent calls with the
// same token exactly one succeeds. Rejections never mutate the store.
func RunRefresh(ctx context.Context, presented string, deps RefreshDeps) RefreshResult {
	if presented == "" {
		return RefreshResult{Failure: RefreshFailureMissingToken}
	}

	principalID, err := deps.Codec.Verify(jwt.KindRefresh, presented)
	if err != nil {
		return RefreshResult{Failure: RefreshFailureDecode, Err: err}
	}

	if err := deps.Exists(ctx, principalID); err != nil {
		if deps.NotFound != nil && errors.Is(err, deps.NotFound) {
			return RefreshResult{Failure: RefreshFailureNotFound, Err: err, PrincipalID: principalID}
		}
		return RefreshResult{Failure: RefreshFailureLookup, Err: err, PrincipalID: principalID}
	}

	presentedDigest := session.Digest(presented)
	stored, ok, err := deps.Sessions.Get(ctx, principalID)
	if err != nil {
		return RefreshResult{Failure: RefreshFailureStoreRead, Err: err, PrincipalID: principalID}
	}
	if !ok {
		return RefreshResult{Failure: RefreshFailureReuse, PrincipalID: principalID, ReuseReason: ReuseNoSession}
	}
	if !session.Equal(stored, presentedDigest) {
		return RefreshResult{Failure: RefreshFailureReuse, PrincipalID: principalID, ReuseReason: ReuseMismatch}
	}

	issued, err := issuePair(deps.Codec, principalID)
	if err != nil {
		return RefreshResult{Failure: RefreshFailureIssue, Err: err, PrincipalID: principalID}
	}

	swapped, err := deps.Sessions.CompareAndSwap(ctx, principalID, presentedDigest, session.Digest(issued.refresh))
	if err != nil {
		return RefreshResult{Failure: RefreshFailureRotate, Err: err, PrincipalID: principalID}
	}
	if !swapped {
		return RefreshResult{Failure: RefreshFailureReuse, PrincipalID: principalID, ReuseReason: ReuseLostRace}
	}

	return RefreshResult{
		PrincipalID:  principalID,
		AccessToken:  issued.access,
		RefreshToken: issued.refresh,
	}
}
