package session

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"time"
)

// ErrUnavailable wraps every infrastructure failure reported by a Store.
var ErrUnavailable = errors.New("session store unavailable")

// Store reads and writes the refresh-token value held for a principal.
type Store interface {
	// Get returns the stored value, or ok=false when none is held.
	Get(ctx context.Context, principalID string) (value string, ok bool, err error)
	// Set overwrites the stored value. An empty value clears it.
	Set(ctx context.Context, principalID, value string) error
	// CompareAndSwap replaces the stored value with next only if it currently
	// equals expected. swapped=false with a nil error means the comparison lost.
	CompareAndSwap(ctx context.Context, principalID, expected, next string) (swapped bool, err error)
}

// Digest returns the value stored in place of a refresh token.
func Digest(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// Equal compares two stored values in constant time.
func Equal(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// Pinger is implemented by stores that can report backend availability.
type Pinger interface {
	Ping(ctx context.Context) (time.Duration, error)
}
