package goSession

import (
	"context"
	"fmt"
	"time"

	"github.com/MrEthical07/goSession/internal/flows"
	"go.uber.org/zap"
)

// Refresh rotates presented into a new token pair.
//
// presented must be the refresh token currently stored for its principal.
// Any other token, including one that was valid before the last rotation,
// fails with ErrTokenReuseDetected and leaves the stored token as it was.
// When two calls race with the same token, exactly one wins.
func (e *Engine) Refresh(ctx context.Context, presented string) (SessionPair, error) {
	if !e.ready() {
		return SessionPair{}, ErrEngineNotReady
	}

	var start time.Time
	if e.metrics.LatencyEnabled() {
		start = time.Now()
	}

	res := flows.RunRefresh(ctx, presented, e.flows.Refresh)

	if !start.IsZero() {
		e.metrics.Observe(MetricRefreshLatency, time.Since(start))
	}

	if res.Failure != flows.RefreshFailureNone {
		return SessionPair{}, e.refreshFailed(ctx, res)
	}

	e.metricInc(MetricRefreshSuccess)
	e.emitAudit(ctx, auditEventRefreshSuccess, true, res.PrincipalID, nil, nil)

	return SessionPair{
		AccessToken:  res.AccessToken,
		RefreshToken: res.RefreshToken,
	}, nil
}

func (e *Engine) refreshFailed(ctx context.Context, res flows.RefreshResult) error {
	if res.Failure == flows.RefreshFailureReuse {
		e.metricInc(MetricRefreshReuseDetected)
		e.log(ctx).Warn("refresh token reuse detected",
			zap.String("principal_id", res.PrincipalID),
			zap.String("reason", res.ReuseReason),
			zap.String("ip", clientIPFromContext(ctx)),
		)
		e.emitAudit(ctx, auditEventRefreshReuseDetected, false, res.PrincipalID, ErrTokenReuseDetected, reason(res.ReuseReason))
		return ErrTokenReuseDetected
	}

	e.metricInc(MetricRefreshFailure)

	var err error
	var why string
	switch res.Failure {
	case flows.RefreshFailureMissingToken:
		err, why = ErrMissingToken, "missing_token"
	case flows.RefreshFailureDecode:
		err, why = fmt.Errorf("%w: %w", ErrInvalidRefreshToken, res.Err), codecReason(res.Err)
	case flows.RefreshFailureNotFound:
		err, why = ErrPrincipalNotFound, "principal_not_found"
	case flows.RefreshFailureLookup:
		err, why = e.storeFailure(ctx, "refresh.find", res.Err), "lookup_failed"
	case flows.RefreshFailureStoreRead:
		err, why = e.storeFailure(ctx, "refresh.get", res.Err), "store_read_failed"
	case flows.RefreshFailureRotate:
		err, why = e.storeFailure(ctx, "refresh.swap", res.Err), "rotate_failed"
	case flows.RefreshFailureIssue:
		e.log(ctx).Error("token issue failed", zap.String("principal_id", res.PrincipalID), zap.Error(res.Err))
		err, why = res.Err, "issue_failed"
	default:
		err, why = ErrEngineNotReady, "unknown"
	}

	e.emitAudit(ctx, auditEventRefreshFailure, false, res.PrincipalID, err, reason(why))
	return err
}
