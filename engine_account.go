package goSession

import (
	"context"
	"fmt"
	"strings"

	"github.com/MrEthical07/goSession/internal/flows"
	"go.uber.org/zap"
)

// ChangeSecret replaces the principal's password hash after verifying
// oldSecret. The stored refresh token is left alone, so sessions opened
// before the change stay valid until Logout.
func (e *Engine) ChangeSecret(ctx context.Context, principalID, oldSecret, newSecret string) error {
	if !e.ready() {
		return ErrEngineNotReady
	}

	res := flows.RunChangeSecret(ctx, principalID, oldSecret, newSecret, e.flows.Secret)
	if res.Failure == flows.SecretFailureNone {
		e.metricInc(MetricPasswordChangeSuccess)
		e.emitAudit(ctx, auditEventChangeSecretSuccess, true, principalID, nil, nil)
		return nil
	}

	var err error
	switch res.Failure {
	case flows.SecretFailureMissing:
		err = ErrMissingCredentials
	case flows.SecretFailureNotFound:
		err = ErrPrincipalNotFound
	case flows.SecretFailureLookup:
		err = e.storeFailure(ctx, "change_secret.find", res.Err)
	case flows.SecretFailureInvalidOld:
		e.metricInc(MetricPasswordChangeInvalidOld)
		if res.Err != nil {
			e.log(ctx).Error("password verification failed", zap.String("principal_id", principalID), zap.Error(res.Err))
		}
		err = ErrInvalidCredentials
	case flows.SecretFailureReuse:
		e.metricInc(MetricPasswordChangeReuseRejected)
		err = ErrPasswordReuse
	case flows.SecretFailurePolicy:
		err = fmt.Errorf("%w: %w", ErrPasswordPolicy, res.Err)
	case flows.SecretFailurePersist:
		err = e.storeFailure(ctx, "change_secret.update", res.Err)
	default:
		err = ErrEngineNotReady
	}

	e.emitAudit(ctx, auditEventChangeSecretFailure, false, principalID, err, nil)
	return err
}

// UpdateProfileField sets a single profile attribute and returns the updated
// profile. Token state is not touched.
func (e *Engine) UpdateProfileField(ctx context.Context, principalID string, field ProfileField, value string) (Profile, error) {
	if !e.ready() {
		return Profile{}, ErrEngineNotReady
	}
	if strings.TrimSpace(principalID) == "" {
		return Profile{}, ErrMissingFields
	}

	value = strings.TrimSpace(value)
	if value == "" {
		return Profile{}, e.profileUpdateFailed(ctx, principalID, field, ErrMissingField)
	}
	if err := e.validateField(field, value); err != nil {
		return Profile{}, e.profileUpdateFailed(ctx, principalID, field, err)
	}
	if field == FieldEmail {
		value = strings.ToLower(value)
	}

	p, err := e.principals.UpdateField(ctx, principalID, field, value)
	if err != nil {
		return Profile{}, e.profileUpdateFailed(ctx, principalID, field, e.storeFailure(ctx, "update_field", err))
	}

	e.metricInc(MetricProfileUpdate)
	e.emitAudit(ctx, auditEventProfileUpdate, true, principalID, nil, func() map[string]string {
		return map[string]string{"field": field.String()}
	})
	return p.Profile(), nil
}

func (e *Engine) profileUpdateFailed(ctx context.Context, principalID string, field ProfileField, err error) error {
	e.emitAudit(ctx, auditEventProfileUpdateFailure, false, principalID, err, func() map[string]string {
		return map[string]string{"field": field.String()}
	})
	return err
}

// UpdateAvatar uploads asset and points the principal's avatar at it.
func (e *Engine) UpdateAvatar(ctx context.Context, principalID string, asset *MediaAsset) (Profile, error) {
	return e.replaceAsset(ctx, principalID, AssetAvatar, FieldAvatarURI, asset)
}

// UpdateCover uploads asset and points the principal's cover image at it.
func (e *Engine) UpdateCover(ctx context.Context, principalID string, asset *MediaAsset) (Profile, error) {
	return e.replaceAsset(ctx, principalID, AssetCover, FieldCoverURI, asset)
}

func (e *Engine) replaceAsset(ctx context.Context, principalID string, kind AssetKind, field ProfileField, asset *MediaAsset) (Profile, error) {
	if !e.ready() {
		return Profile{}, ErrEngineNotReady
	}
	if err := e.checkAsset(asset); err != nil {
		return Profile{}, e.profileUpdateFailed(ctx, principalID, field, err)
	}
	if _, err := e.CurrentProfile(ctx, principalID); err != nil {
		return Profile{}, err
	}

	uri, err := e.upload(ctx, principalID, kind, *asset)
	if err != nil {
		return Profile{}, e.profileUpdateFailed(ctx, principalID, field, err)
	}
	return e.UpdateProfileField(ctx, principalID, field, uri)
}

// CurrentProfile returns the sanitized profile of principalID.
func (e *Engine) CurrentProfile(ctx context.Context, principalID string) (Profile, error) {
	if !e.ready() {
		return Profile{}, ErrEngineNotReady
	}
	if strings.TrimSpace(principalID) == "" {
		return Profile{}, ErrMissingFields
	}
	p, err := e.principals.FindByID(ctx, principalID)
	if err != nil {
		return Profile{}, e.storeFailure(ctx, "current_profile", err)
	}
	return p.Profile(), nil
}
