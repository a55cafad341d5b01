package goSession

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/MrEthical07/goSession/session"
)

// HealthStatus is an on-demand backend health result.
type HealthStatus struct {
	SessionStoreAvailable bool          `json:"sessionStoreAvailable"`
	SessionStoreLatency   time.Duration `json:"sessionStoreLatency"`
}

// Health pings the session store. Stores that cannot be pinged are reported
// available with zero latency.
func (e *Engine) Health(ctx context.Context) HealthStatus {
	if !e.ready() {
		return HealthStatus{}
	}
	p, ok := e.sessions.(session.Pinger)
	if !ok {
		return HealthStatus{SessionStoreAvailable: true}
	}

	latency, err := p.Ping(ctx)
	return HealthStatus{
		SessionStoreAvailable: err == nil,
		SessionStoreLatency:   latency,
	}
}

// HasActiveSession reports whether principalID currently holds a refresh
// token. It never exposes the stored value.
func (e *Engine) HasActiveSession(ctx context.Context, principalID string) (bool, error) {
	if !e.ready() {
		return false, ErrEngineNotReady
	}
	if strings.TrimSpace(principalID) == "" {
		return false, ErrMissingFields
	}
	_, ok, err := e.sessions.Get(ctx, principalID)
	if err != nil {
		return false, e.storeFailure(ctx, "has_active_session", err)
	}
	return ok, nil
}

// SecurityReport summarizes the security-relevant configuration without
// exposing key material.
type SecurityReport struct {
	SigningAlgorithm string
	AccessTTL        time.Duration
	RefreshTTL       time.Duration
	Issuer           string
	Leeway           time.Duration
	SessionStore     string
	RefreshRotation  bool
	ReuseDetection   bool
	AuditEnabled     bool
	MetricsEnabled   bool
	MaxAssetBytes    int64
	Argon2           PasswordConfigReport
}

type PasswordConfigReport struct {
	Memory      uint32
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

func (e *Engine) SecurityReport() SecurityReport {
	if e == nil {
		return SecurityReport{}
	}

	return SecurityReport{
		SigningAlgorithm: "HS256",
		AccessTTL:        e.config.Tokens.AccessTTL,
		RefreshTTL:       e.config.Tokens.RefreshTTL,
		Issuer:           e.config.Tokens.Issuer,
		Leeway:           e.config.Tokens.Leeway,
		SessionStore:     fmt.Sprintf("%T", e.sessions),
		RefreshRotation:  true,
		ReuseDetection:   true,
		AuditEnabled:     e.config.Audit.Enabled,
		MetricsEnabled:   e.config.Metrics.Enabled,
		MaxAssetBytes:    e.config.Media.MaxAssetBytes,
		Argon2: PasswordConfigReport{
			Memory:      e.config.Password.Memory,
			Time:        e.config.Password.Time,
			Parallelism: e.config.Password.Parallelism,
			SaltLength:  e.config.Password.SaltLength,
			KeyLength:   e.config.Password.KeyLength,
		},
	}
}
