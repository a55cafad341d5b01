package goSession

import (
	"bytes"
	"errors"
	"strings"
	"time"

	"github.com/MrEthical07/goSession/password"
)

// MinSigningKeyBytes is the shortest HMAC key Config.Validate accepts.
const MinSigningKeyBytes = 32

// Config is the immutable engine configuration. Build it once at process
// start, pass it to [Builder.WithConfig], and do not mutate it afterwards;
// the builder keeps its own copy.
type Config struct {
	Tokens   TokensConfig
	Password PasswordConfig
	Session  SessionConfig
	Audit    AuditConfig
	Metrics  MetricsConfig
	Media    MediaConfig
}

/*
====================================
TOKENS CONFIG
====================================
*/

// TokensConfig holds the two independent signing configurations. Keys have
// no defaults; a Config without them fails Validate.
type TokensConfig struct {
	AccessSigningKey  []byte
	AccessTTL         time.Duration
	RefreshSigningKey []byte
	RefreshTTL        time.Duration
	Issuer            string
	Leeway            time.Duration
}

/*
====================================
PASSWORD CONFIG
====================================
*/

// PasswordConfig holds Argon2id cost parameters.
type PasswordConfig struct {
	Memory           uint32
	Time             uint32
	Parallelism      uint8
	SaltLength       uint32
	KeyLength        uint32
	MaxPasswordBytes int
}

func (p PasswordConfig) argon2() password.Config {
	return password.Config{
		Memory:           p.Memory,
		Time:             p.Time,
		Parallelism:      p.Parallelism,
		SaltLength:       p.SaltLength,
		KeyLength:        p.KeyLength,
		MaxPasswordBytes: p.MaxPasswordBytes,
	}
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig configures the Redis session store when one is attached with
// [Builder.WithRedis].
type SessionConfig struct {
	RedisPrefix string
}

/*
====================================
AUDIT CONFIG
====================================
*/

// AuditConfig configures the asynchronous audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

/*
====================================
METRICS CONFIG
====================================
*/

// MetricsConfig toggles in-process counters and the refresh latency histogram.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

/*
====================================
MEDIA CONFIG
====================================
*/

// MediaConfig bounds uploads accepted by Register, UpdateAvatar, and UpdateCover.
type MediaConfig struct {
	MaxAssetBytes int64
}

/*
====================================
DEFAULTS
====================================
*/

// DefaultConfig returns a Config with every non-secret field populated.
// Signing keys are left empty on purpose and must be supplied.
func DefaultConfig() Config {
	pw := password.DefaultConfig()
	return Config{
		Tokens: TokensConfig{
			AccessTTL:  15 * time.Minute,
			RefreshTTL: 10 * 24 * time.Hour,
			Issuer:     "gosession",
		},
		Password: PasswordConfig{
			Memory:      pw.Memory,
			Time:        pw.Time,
			Parallelism: pw.Parallelism,
			SaltLength:  pw.SaltLength,
			KeyLength:   pw.KeyLength,
		},
		Session: SessionConfig{
			RedisPrefix: "gs",
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
		Media: MediaConfig{
			MaxAssetBytes: 10 << 20,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Tokens.AccessSigningKey = cloneBytes(cfg.Tokens.AccessSigningKey)
	out.Tokens.RefreshSigningKey = cloneBytes(cfg.Tokens.RefreshSigningKey)
	return out
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	return append([]byte(nil), b...)
}

/*
====================================
VALIDATION
====================================
*/

// Validate reports the first configuration problem found.
func (c *Config) Validate() error {
	// Tokens
	if len(c.Tokens.AccessSigningKey) == 0 {
		return errors.New("Tokens AccessSigningKey is required")
	}
	if len(c.Tokens.RefreshSigningKey) == 0 {
		return errors.New("Tokens RefreshSigningKey is required")
	}
	if len(c.Tokens.AccessSigningKey) < MinSigningKeyBytes || len(c.Tokens.RefreshSigningKey) < MinSigningKeyBytes {
		return errors.New("Tokens signing keys must be at least 32 bytes")
	}
	if bytes.Equal(c.Tokens.AccessSigningKey, c.Tokens.RefreshSigningKey) {
		return errors.New("Tokens access and refresh signing keys must differ")
	}
	if c.Tokens.AccessTTL <= 0 {
		return errors.New("Tokens AccessTTL must be > 0")
	}
	if c.Tokens.RefreshTTL <= 0 {
		return errors.New("Tokens RefreshTTL must be > 0")
	}
	if c.Tokens.AccessTTL >= c.Tokens.RefreshTTL {
		return errors.New("Tokens AccessTTL must be shorter than RefreshTTL")
	}
	if c.Tokens.Leeway < 0 || c.Tokens.Leeway > 2*time.Minute {
		return errors.New("Tokens Leeway must be within [0, 2m]")
	}
	if strings.TrimSpace(c.Tokens.Issuer) == "" {
		return errors.New("Tokens Issuer is required")
	}

	// Password
	if c.Password.Memory < 8*1024 {
		return errors.New("Password Memory must be >= 8192 KB")
	}
	if c.Password.Time < 1 {
		return errors.New("Password Time must be >= 1")
	}
	if c.Password.Parallelism < 1 {
		return errors.New("Password Parallelism must be >= 1")
	}
	if c.Password.SaltLength < 16 {
		return errors.New("Password SaltLength must be >= 16")
	}
	if c.Password.KeyLength < 16 {
		return errors.New("Password KeyLength must be >= 16")
	}
	if c.Password.MaxPasswordBytes != 0 && c.Password.MaxPasswordBytes < password.MinPasswordBytes {
		return errors.New("Password MaxPasswordBytes must be 0 or >= 10")
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when enabled")
	}

	// Media
	if c.Media.MaxAssetBytes < 0 {
		return errors.New("Media MaxAssetBytes must be >= 0")
	}

	return nil
}
