package goSession

import (
	"context"
	"strings"

	"github.com/MrEthical07/goSession/internal/flows"
	"go.uber.org/zap"
)

// Login authenticates identifier (username, case-insensitive, or email) and
// secret. On success it issues a fresh token pair and replaces the stored
// refresh token with a single store write.
func (e *Engine) Login(ctx context.Context, identifier, secret string) (LoginResult, error) {
	if !e.ready() {
		return LoginResult{}, ErrEngineNotReady
	}

	res := flows.RunLogin(ctx, strings.ToLower(identifier), secret, e.flows.Login)
	if res.Failure != flows.LoginFailureNone {
		err := e.mapLoginFailure(ctx, res)
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, res.PrincipalID, err, nil)
		return LoginResult{}, err
	}

	e.metricInc(MetricLoginSuccess)
	e.emitAudit(ctx, auditEventLoginSuccess, true, res.PrincipalID, nil, nil)

	return LoginResult{
		SessionPair: SessionPair{
			AccessToken:  res.AccessToken,
			RefreshToken: res.RefreshToken,
		},
		Profile: res.Principal.Profile(),
	}, nil
}

func (e *Engine) mapLoginFailure(ctx context.Context, res flows.LoginResult[Principal]) error {
	switch res.Failure {
	case flows.LoginFailureMissingCredentials:
		return ErrMissingCredentials
	case flows.LoginFailureNotFound:
		return ErrPrincipalNotFound
	case flows.LoginFailureInvalidCredentials:
		if res.Err != nil {
			// A stored hash that cannot be parsed is an operator problem,
			// but the caller still only learns the credentials were wrong.
			e.log(ctx).Error("password verification failed", zap.String("principal_id", res.PrincipalID), zap.Error(res.Err))
		}
		return ErrInvalidCredentials
	case flows.LoginFailureIssue:
		e.log(ctx).Error("token issue failed", zap.String("principal_id", res.PrincipalID), zap.Error(res.Err))
		return res.Err
	case flows.LoginFailureLookup:
		return e.storeFailure(ctx, "login.find", res.Err)
	case flows.LoginFailurePersist:
		return e.storeFailure(ctx, "login.persist", res.Err)
	default:
		return ErrEngineNotReady
	}
}

// Logout clears the stored refresh token for principalID. Logging out a
// principal with no active session succeeds.
func (e *Engine) Logout(ctx context.Context, principalID string) error {
	if !e.ready() {
		return ErrEngineNotReady
	}
	if strings.TrimSpace(principalID) == "" {
		return ErrMissingFields
	}

	if err := flows.RunLogout(ctx, principalID, e.flows.Logout); err != nil {
		return e.storeFailure(ctx, "logout", err)
	}

	e.metricInc(MetricLogout)
	e.emitAudit(ctx, auditEventLogout, true, principalID, nil, nil)
	return nil
}
