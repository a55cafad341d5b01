package goSession

import (
	"errors"
	"time"

	"github.com/MrEthical07/goSession/internal/audit"
	"github.com/MrEthical07/goSession/jwt"
	"github.com/MrEthical07/goSession/password"
	"github.com/MrEthical07/goSession/session"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Builder assembles an [Engine]. Configure it during initialization and call
// Build once.
type Builder struct {
	config Config
	redis  redis.UniversalClient

	principals PrincipalStore
	sessions   session.Store
	media      MediaStore
	logger     *zap.Logger
	auditSink  AuditSink
	now        func() time.Time

	built bool
}

// New returns a Builder seeded with [DefaultConfig]. The default config has
// no signing keys, so WithConfig is always required.
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithPrincipalStore sets the record store. If it also implements
// session.Store and no session store is configured, it doubles as the
// session store.
func (b *Builder) WithPrincipalStore(s PrincipalStore) *Builder {
	b.principals = s
	return b
}

func (b *Builder) WithSessionStore(s session.Store) *Builder {
	b.sessions = s
	return b
}

// WithRedis keeps refresh token digests in Redis instead of on the principal
// record. It is ignored when WithSessionStore is also used.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithMediaStore sets the uploader used by Register, UpdateAvatar, and
// UpdateCover. Without one those operations fail with ErrAssetUploadFailed.
func (b *Builder) WithMediaStore(m MediaStore) *Builder {
	b.media = m
	return b
}

func (b *Builder) WithLogger(l *zap.Logger) *Builder {
	b.logger = l
	return b
}

// WithAuditSink sets the sink audit events are dispatched to. It has no
// effect unless Config.Audit.Enabled is set.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

func (b *Builder) withClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

// Build validates the configuration and returns a ready Engine. It fails
// when signing keys or TTLs are missing, or when no principal or session
// store is available.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if b.principals == nil {
		return nil, errors.New("principal store required")
	}

	// -------- SESSION STORE --------
	sessions := b.sessions
	if sessions == nil && b.redis != nil {
		sessions = session.NewRedisStore(b.redis, cfg.Session.RedisPrefix, cfg.Tokens.RefreshTTL)
	}
	if sessions == nil {
		if s, ok := b.principals.(session.Store); ok {
			sessions = s
		}
	}
	if sessions == nil {
		return nil, errors.New("session store required: use WithSessionStore, WithRedis, or a principal store that implements session.Store")
	}

	// -------- TOKEN CODEC --------
	codec, err := jwt.NewCodec(jwt.Config{
		Access: jwt.KeyConfig{
			SigningKey: cfg.Tokens.AccessSigningKey,
			TTL:        cfg.Tokens.AccessTTL,
		},
		Refresh: jwt.KeyConfig{
			SigningKey: cfg.Tokens.RefreshSigningKey,
			TTL:        cfg.Tokens.RefreshTTL,
		},
		Issuer: cfg.Tokens.Issuer,
		Leeway: cfg.Tokens.Leeway,
		Now:    b.now,
	})
	if err != nil {
		return nil, err
	}

	hasher, err := password.NewArgon2(cfg.Password.argon2())
	if err != nil {
		return nil, err
	}

	logger := b.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	engine := &Engine{
		config:     cfg,
		codec:      codec,
		hasher:     hasher,
		principals: b.principals,
		sessions:   sessions,
		media:      b.media,
		validate:   newValidator(),
		logger:     logger.With(zap.String("component", "gosession")),
		metrics:    NewMetrics(cfg.Metrics),
		audit: audit.NewDispatcher(audit.Config{
			Enabled:    cfg.Audit.Enabled,
			BufferSize: cfg.Audit.BufferSize,
			DropIfFull: cfg.Audit.DropIfFull,
		}, b.auditSink),
	}
	engine.flows = engine.buildFlowDeps()

	b.built = true

	return engine, nil
}
