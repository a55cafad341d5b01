package goSession

import (
	"context"
	"errors"
	"time"
)

const (
	auditEventRegisterSuccess      = "register_success"
	auditEventRegisterFailure      = "register_failure"
	auditEventLoginSuccess         = "login_success"
	auditEventLoginFailure         = "login_failure"
	auditEventRefreshSuccess       = "refresh_success"
	auditEventRefreshFailure       = "refresh_failure"
	auditEventRefreshReuseDetected = "refresh_reuse_detected"
	auditEventLogout               = "logout"
	auditEventChangeSecretSuccess  = "change_secret_success"
	auditEventChangeSecretFailure  = "change_secret_failure"
	auditEventProfileUpdate        = "profile_update"
	auditEventProfileUpdateFailure = "profile_update_failure"
	auditEventAccessVerifyFailure  = "access_verify_failure"
)

// AuditErrorCode is the stable error label written to AuditEvent.Error.
// Sinks can compare AuditEvent.Error against these values.
type AuditErrorCode string

// Audit error codes.
const (
	AuditErrMissingInput       AuditErrorCode = "missing_input"
	AuditErrInvalidInput       AuditErrorCode = "invalid_input"
	AuditErrInvalidCredentials AuditErrorCode = "invalid_credentials"
	AuditErrInvalidToken       AuditErrorCode = "invalid_token"
	AuditErrRefreshReuse       AuditErrorCode = "refresh_reuse"
	AuditErrPrincipalNotFound  AuditErrorCode = "principal_not_found"
	AuditErrDuplicate          AuditErrorCode = "duplicate"
	AuditErrPasswordPolicy     AuditErrorCode = "password_policy"
	AuditErrPasswordReuse      AuditErrorCode = "password_reuse"
	AuditErrUploadFailed       AuditErrorCode = "upload_failed"
	AuditErrUnavailable        AuditErrorCode = "backend_unavailable"
	AuditErrInternal           AuditErrorCode = "internal_error"
)

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	principalID string,
	err error,
	metadataBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := AuditEvent{
		Timestamp:   time.Now().UTC(),
		EventType:   eventType,
		PrincipalID: principalID,
		IP:          clientIPFromContext(ctx),
		UserAgent:   userAgentFromContext(ctx),
		Success:     success,
		Metadata:    metadata,
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	e.audit.Emit(ctx, event)
}

func reason(r string) func() map[string]string {
	return func() map[string]string {
		return map[string]string{"reason": r}
	}
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrMissingFields),
		errors.Is(err, ErrMissingRequiredAsset),
		errors.Is(err, ErrMissingCredentials),
		errors.Is(err, ErrMissingToken),
		errors.Is(err, ErrMissingField):
		return AuditErrMissingInput
	case errors.Is(err, ErrInvalidField):
		return AuditErrInvalidInput
	case errors.Is(err, ErrInvalidCredentials):
		return AuditErrInvalidCredentials
	case errors.Is(err, ErrTokenReuseDetected):
		return AuditErrRefreshReuse
	case errors.Is(err, ErrInvalidRefreshToken),
		errors.Is(err, ErrInvalidAccessToken):
		return AuditErrInvalidToken
	case errors.Is(err, ErrPrincipalNotFound):
		return AuditErrPrincipalNotFound
	case errors.Is(err, ErrDuplicatePrincipal):
		return AuditErrDuplicate
	case errors.Is(err, ErrPasswordPolicy):
		return AuditErrPasswordPolicy
	case errors.Is(err, ErrPasswordReuse):
		return AuditErrPasswordReuse
	case errors.Is(err, ErrAssetUploadFailed):
		return AuditErrUploadFailed
	case errors.Is(err, ErrStoreUnavailable):
		return AuditErrUnavailable
	default:
		return AuditErrInternal
	}
}
