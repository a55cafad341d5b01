package password

import (
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/argon2"
)

const (
	minMemoryKB    uint32 = 8 * 1024
	minTimeCost    uint32 = 1
	minParallelism uint8  = 1
	minSaltLength  uint32 = 16
	minKeyLength   uint32 = 16

	// MinPasswordBytes is the shortest secret Hash accepts.
	MinPasswordBytes = 10
	// DefaultMaxPasswordBytes bounds hashing cost when Config.MaxPasswordBytes is zero.
	DefaultMaxPasswordBytes = 1024
)

var (
	// ErrPasswordTooShort is returned by Hash for secrets under MinPasswordBytes.
	ErrPasswordTooShort = errors.New("password must be at least 10 bytes")
	// ErrPasswordTooLong is returned by Hash and Verify for secrets over the configured maximum.
	ErrPasswordTooLong = errors.New("password exceeds maximum length")
	// ErrInvalidHash is returned when a stored hash cannot be parsed.
	ErrInvalidHash = errors.New("invalid password hash")
)

// Hasher is the credential verifier consumed by the session engine.
type Hasher interface {
	Hash(password string) (string, error)
	Verify(password, encodedHash string) (bool, error)
}

// Config holds Argon2id cost parameters.
type Config struct {
	Memory           uint32
	Time             uint32
	Parallelism      uint8
	SaltLength       uint32
	KeyLength        uint32
	MaxPasswordBytes int
}

// DefaultConfig returns parameters suitable for interactive logins.
func DefaultConfig() Config {
	return Config{
		Memory:      64 * 1024,
		Time:        3,
		Parallelism: 2,
		SaltLength:  16,
		KeyLength:   32,
	}
}

// Argon2 hashes secrets with Argon2id and encodes them as PHC strings.
type Argon2 struct {
	config Config
}

var _ Hasher = (*Argon2)(nil)

// NewArgon2 validates cfg and returns a hasher.
func NewArgon2(cfg Config) (*Argon2, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if cfg.MaxPasswordBytes == 0 {
		cfg.MaxPasswordBytes = DefaultMaxPasswordBytes
	}
	return &Argon2{config: cfg}, nil
}

// Hash returns the PHC encoding of password under a fresh random salt.
// Bytes are hashed exactly as given; no Unicode normalization is applied.
func (a *Argon2) Hash(password string) (string, error) {
	if len(password) < MinPasswordBytes {
		return "", ErrPasswordTooShort
	}
	if len(password) > a.config.MaxPasswordBytes {
		return "", ErrPasswordTooLong
	}

	salt := make([]byte, a.config.SaltLength)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", fmt.Errorf("read salt: %w", err)
	}

	key := argon2.IDKey([]byte(password), salt, a.config.Time, a.config.Memory, a.config.Parallelism, a.config.KeyLength)

	return encodePHC(phc{
		memory:      a.config.Memory,
		time:        a.config.Time,
		parallelism: a.config.Parallelism,
		salt:        salt,
		hash:        key,
	}), nil
}

// Verify reports whether password matches encodedHash. A mismatch is (false, nil);
// an error means the stored hash or input could not be evaluated at all.
func (a *Argon2) Verify(password string, encodedHash string) (bool, error) {
	if len(password) > a.config.MaxPasswordBytes {
		return false, ErrPasswordTooLong
	}

	parsed, err := decodePHC(encodedHash)
	if err != nil {
		return false, err
	}

	computed := argon2.IDKey([]byte(password), parsed.salt, parsed.time, parsed.memory, parsed.parallelism, uint32(len(parsed.hash)))
	return subtle.ConstantTimeCompare(computed, parsed.hash) == 1, nil
}

// NeedsUpgrade reports whether encodedHash was produced with weaker parameters
// than the hasher is configured with.
func (a *Argon2) NeedsUpgrade(encodedHash string) (bool, error) {
	parsed, err := decodePHC(encodedHash)
	if err != nil {
		return false, err
	}

	return a.config.Memory > parsed.memory ||
		a.config.Time > parsed.time ||
		a.config.Parallelism > parsed.parallelism ||
		a.config.KeyLength != uint32(len(parsed.hash)), nil
}

func (c Config) validate() error {
	switch {
	case c.Memory < minMemoryKB:
		return errors.New("password memory must be >= 8192 KB")
	case c.Time < minTimeCost:
		return errors.New("password time must be >= 1")
	case c.Parallelism < minParallelism:
		return errors.New("password parallelism must be >= 1")
	case c.SaltLength < minSaltLength:
		return errors.New("password salt length must be >= 16")
	case c.KeyLength < minKeyLength:
		return errors.New("password key length must be >= 16")
	case c.MaxPasswordBytes < 0:
		return errors.New("password max bytes must not be negative")
	case c.MaxPasswordBytes > 0 && c.MaxPasswordBytes < MinPasswordBytes:
		return errors.New("password max bytes must be >= 10")
	}
	return nil
}
