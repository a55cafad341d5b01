package goSession

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrEthical07/goSession/internal/audit"
	"github.com/MrEthical07/goSession/internal/flows"
	"github.com/MrEthical07/goSession/jwt"
	"github.com/MrEthical07/goSession/password"
	"github.com/MrEthical07/goSession/session"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// Engine is the session manager. It authenticates principals, issues and
// rotates token pairs, and keeps exactly one valid refresh token per
// principal in its session store.
//
// An Engine is built once with [Builder] and is safe for concurrent use.
// Its configuration cannot change after Build.
type Engine struct {
	config     Config
	codec      *jwt.Codec
	hasher     password.Hasher
	principals PrincipalStore
	sessions   session.Store
	media      MediaStore
	validate   *validator.Validate
	logger     *zap.Logger
	audit      *audit.Dispatcher
	metrics    *Metrics
	flows      flows.Deps[Principal]
}

// Close drains pending audit events and closes the audit sink if it holds
// a connection. The Engine must not be used afterwards.
func (e *Engine) Close() error {
	if e == nil {
		return nil
	}
	err := e.audit.Close()
	if e.logger != nil {
		_ = e.logger.Sync()
	}
	return err
}

// AuditDropped reports how many audit events were dropped under backpressure.
func (e *Engine) AuditDropped() uint64 {
	if e == nil {
		return 0
	}
	return e.audit.Dropped()
}

// AuditDelivered reports how many audit events reached the sink.
func (e *Engine) AuditDelivered() uint64 {
	if e == nil {
		return 0
	}
	return e.audit.Delivered()
}

// MetricsSnapshot returns a copy of the engine counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) ready() bool {
	return e != nil && e.codec != nil && e.principals != nil && e.sessions != nil && e.hasher != nil
}

// log returns the engine logger annotated with the request id in ctx.
func (e *Engine) log(ctx context.Context) *zap.Logger {
	if id := requestIDFromContext(ctx); id != "" {
		return e.logger.With(zap.String("request_id", id))
	}
	return e.logger
}

// VerifyAccess checks an access token and returns the principal id it was
// issued to. Every codec failure is reported as ErrInvalidAccessToken
// wrapping the codec error.
func (e *Engine) VerifyAccess(ctx context.Context, accessToken string) (string, error) {
	if !e.ready() {
		return "", ErrEngineNotReady
	}
	if accessToken == "" {
		e.metricInc(MetricAccessVerifyFailure)
		return "", ErrInvalidAccessToken
	}
	principalID, err := e.codec.Verify(jwt.KindAccess, accessToken)
	if err != nil {
		e.metricInc(MetricAccessVerifyFailure)
		e.emitAudit(ctx, auditEventAccessVerifyFailure, false, "", ErrInvalidAccessToken, reason(codecReason(err)))
		return "", fmt.Errorf("%w: %w", ErrInvalidAccessToken, err)
	}
	return principalID, nil
}

// storeFailure wraps a principal or session store error as a dependency
// failure unless it already carries a domain sentinel.
func (e *Engine) storeFailure(ctx context.Context, op string, err error) error {
	if errors.Is(err, ErrPrincipalNotFound) || errors.Is(err, ErrDuplicatePrincipal) {
		return err
	}
	e.metricInc(MetricStoreUnavailable)
	e.log(ctx).Error("store call failed", zap.String("op", op), zap.Error(err))
	return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
}

func codecReason(err error) string {
	switch {
	case errors.Is(err, jwt.ErrExpired):
		return "expired"
	case errors.Is(err, jwt.ErrInvalidSignature):
		return "invalid_signature"
	default:
		return "malformed"
	}
}

func (e *Engine) buildFlowDeps() flows.Deps[Principal] {
	return flows.Deps[Principal]{
		Login: flows.LoginDeps[Principal]{
			FindByIdentifier: e.principals.FindByIdentifier,
			CredentialsOf: func(p Principal) flows.Credentials {
				return flows.Credentials{PrincipalID: p.ID, PasswordHash: p.PasswordHash}
			},
			NotFound:     ErrPrincipalNotFound,
			VerifySecret: e.hasher.Verify,
			Codec:        e.codec,
			Sessions:     e.sessions,
		},
		Refresh: flows.RefreshDeps{
			Codec: e.codec,
			Exists: func(ctx context.Context, id string) error {
				_, err := e.principals.FindByID(ctx, id)
				return err
			},
			NotFound: ErrPrincipalNotFound,
			Sessions: e.sessions,
		},
		Logout: flows.LogoutDeps{
			Sessions: e.sessions,
		},
		Secret: flows.SecretDeps{
			FindByID: func(ctx context.Context, id string) (flows.Credentials, error) {
				p, err := e.principals.FindByID(ctx, id)
				if err != nil {
					return flows.Credentials{}, err
				}
				return flows.Credentials{PrincipalID: p.ID, PasswordHash: p.PasswordHash}, nil
			},
			NotFound:     ErrPrincipalNotFound,
			VerifySecret: e.hasher.Verify,
			HashSecret:   e.hasher.Hash,
			UpdateHash:   e.principals.UpdatePasswordHash,
		},
	}
}
