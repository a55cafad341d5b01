package jwt

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Kind selects the signing configuration used for a token.
type Kind uint8

const (
	// KindAccess is a short-lived, stateless credential.
	KindAccess Kind = iota + 1
	// KindRefresh is a long-lived credential that is only valid while it is the
	// one stored for its principal.
	KindRefresh
)

// String returns the claim value written into the "typ" claim.
func (k Kind) String() string {
	switch k {
	case KindAccess:
		return "access"
	case KindRefresh:
		return "refresh"
	default:
		return "unknown"
	}
}

var (
	// ErrExpired is returned when the token expiry is not after the current time.
	ErrExpired = errors.New("token expired")
	// ErrInvalidSignature is returned when the signature does not verify under
	// the key configured for the requested kind.
	ErrInvalidSignature = errors.New("token signature invalid")
	// ErrMalformed is returned for anything that cannot be decoded as a token
	// of the requested kind.
	ErrMalformed = errors.New("token malformed")
)

// KeyConfig is the signing configuration of one token kind.
type KeyConfig struct {
	SigningKey []byte
	TTL        time.Duration
}

// Config defines a Codec. It is consumed once by NewCodec and never read again.
type Config struct {
	Access  KeyConfig
	Refresh KeyConfig
	Issuer  string
	Leeway  time.Duration
	// Now overrides the clock. Nil means time.Now.
	Now func() time.Time
}

// Claims is the payload carried by every token the codec issues.
type Claims struct {
	Type string `json:"typ"`
	jwt.RegisteredClaims
}

// Codec signs and verifies tokens. A Codec is immutable after construction and
// safe for concurrent use.
type Codec struct {
	access  KeyConfig
	refresh KeyConfig
	issuer  string
	leeway  time.Duration
	now     func() time.Time
}

// NewCodec validates cfg and returns a Codec.
//
// A zero TTL is accepted and yields tokens that are already expired when
// issued. Engine configuration rejects zero TTLs before reaching this point.
func NewCodec(cfg Config) (*Codec, error) {
	if len(cfg.Access.SigningKey) == 0 {
		return nil, errors.New("access signing key is required")
	}
	if len(cfg.Refresh.SigningKey) == 0 {
		return nil, errors.New("refresh signing key is required")
	}
	if bytes.Equal(cfg.Access.SigningKey, cfg.Refresh.SigningKey) {
		return nil, errors.New("access and refresh signing keys must differ")
	}
	if cfg.Access.TTL < 0 || cfg.Refresh.TTL < 0 {
		return nil, errors.New("invalid TTL configuration")
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Codec{
		access:  copyKey(cfg.Access),
		refresh: copyKey(cfg.Refresh),
		issuer:  strings.TrimSpace(cfg.Issuer),
		leeway:  cfg.Leeway,
		now:     now,
	}, nil
}

// Issue signs a token of the given kind for principalID, valid from now until
// now plus the TTL configured for kind.
func (c *Codec) Issue(kind Kind, principalID string) (string, error) {
	key, err := c.keyFor(kind)
	if err != nil {
		return "", err
	}
	if principalID == "" {
		return "", errors.New("principal id is required")
	}

	now := c.now()
	claims := Claims{
		Type: kind.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   principalID,
			Issuer:    c.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(key.TTL)),
			// jti keeps two tokens issued within the same second distinct.
			ID: uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key.SigningKey)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", kind, err)
	}
	return signed, nil
}

// Verify checks tokenStr against the configuration for kind and returns the
// principal it was issued to.
//
// The signature is checked before any claim. A token that fails both checks,
// such as an expired token whose payload was altered, is reported as
// ErrInvalidSignature, and ErrExpired is only returned for tokens signed with
// the key for kind.
func (c *Codec) Verify(kind Kind, tokenStr string) (string, error) {
	claims, err := c.Parse(kind, tokenStr)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

// Parse is Verify returning the full claim set.
func (c *Codec) Parse(kind Kind, tokenStr string) (*Claims, error) {
	key, err := c.keyFor(kind)
	if err != nil {
		return nil, ErrMalformed
	}

	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	}
	if c.leeway > 0 {
		options = append(options, jwt.WithLeeway(c.leeway))
	}
	if c.issuer != "" {
		options = append(options, jwt.WithIssuer(c.issuer))
	}

	parser := jwt.NewParser(options...)
	token, err := parser.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return key.SigningKey, nil
	})
	if err != nil {
		return nil, classify(err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrMalformed
	}
	if claims.Type != kind.String() || claims.Subject == "" {
		return nil, ErrMalformed
	}
	return claims, nil
}

// TTL reports the lifetime configured for kind.
func (c *Codec) TTL(kind Kind) time.Duration {
	key, err := c.keyFor(kind)
	if err != nil {
		return 0
	}
	return key.TTL
}

func (c *Codec) keyFor(kind Kind) (KeyConfig, error) {
	switch kind {
	case KindAccess:
		return c.access, nil
	case KindRefresh:
		return c.refresh, nil
	default:
		return KeyConfig{}, fmt.Errorf("unknown token kind %d", kind)
	}
}

// classify maps parser failures onto the three verification outcomes.
func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return ErrInvalidSignature
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpired
	default:
		return ErrMalformed
	}
}

func copyKey(k KeyConfig) KeyConfig {
	return KeyConfig{SigningKey: append([]byte(nil), k.SigningKey...), TTL: k.TTL}
}
