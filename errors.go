package goSession

import (
	"errors"
	"net/http"
)

// Validation failures: the caller supplied missing or unusable input.
var (
	// ErrMissingFields is returned by Register when a required text field is empty after trimming.
	ErrMissingFields = errors.New("all fields are required")
	// ErrMissingRequiredAsset is returned when the primary media asset is absent.
	ErrMissingRequiredAsset = errors.New("avatar file is required")
	// ErrMissingCredentials is returned by Login and ChangeSecret for empty identifiers or secrets.
	ErrMissingCredentials = errors.New("identifier and password are required")
	// ErrMissingToken is returned by Refresh when no refresh token is presented.
	ErrMissingToken = errors.New("refresh token is required")
	// ErrMissingField is returned by profile updates with an empty value.
	ErrMissingField = errors.New("field value is required")
	// ErrInvalidField is returned for unknown profile fields or values that fail format checks.
	ErrInvalidField = errors.New("invalid field value")
	// ErrPasswordPolicy is returned when a new secret violates length bounds.
	ErrPasswordPolicy = errors.New("password policy violation")
	// ErrPasswordReuse is returned when the new secret equals the current one.
	ErrPasswordReuse = errors.New("new password must be different from current password")
)

// Authentication failures.
var (
	// ErrInvalidCredentials is returned when the secret does not verify.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidRefreshToken wraps every codec failure on the refresh path.
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	// ErrTokenReuseDetected is returned when a refresh token is not the one
	// currently stored for its principal.
	ErrTokenReuseDetected = errors.New("refresh token reuse detected")
	// ErrInvalidAccessToken wraps every codec failure on the access path.
	ErrInvalidAccessToken = errors.New("invalid access token")
)

var (
	// ErrDuplicatePrincipal is returned when the username or email is taken.
	ErrDuplicatePrincipal = errors.New("username or email already exists")
	// ErrPrincipalNotFound is returned when no record matches.
	ErrPrincipalNotFound = errors.New("principal not found")
)

// Dependency failures: not the caller's fault.
var (
	// ErrStoreUnavailable wraps principal and session store failures.
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrAssetUploadFailed wraps media store failures.
	ErrAssetUploadFailed = errors.New("asset upload failed")
	// ErrEngineNotReady is returned by a zero or partially built Engine.
	ErrEngineNotReady = errors.New("engine not ready")
)

// ErrorKind is the coarse category of an engine error.
type ErrorKind uint8

const (
	KindUnknown ErrorKind = iota
	KindValidation
	KindAuthentication
	KindConflict
	KindNotFound
	KindDependency
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuthentication:
		return "authentication"
	case KindConflict:
		return "conflict"
	case KindNotFound:
		return "not_found"
	case KindDependency:
		return "dependency"
	default:
		return "unknown"
	}
}

var errorKinds = []struct {
	err  error
	kind ErrorKind
}{
	{ErrMissingFields, KindValidation},
	{ErrMissingRequiredAsset, KindValidation},
	{ErrMissingCredentials, KindValidation},
	{ErrMissingToken, KindValidation},
	{ErrMissingField, KindValidation},
	{ErrInvalidField, KindValidation},
	{ErrPasswordPolicy, KindValidation},
	{ErrPasswordReuse, KindValidation},
	{ErrInvalidCredentials, KindAuthentication},
	{ErrInvalidRefreshToken, KindAuthentication},
	{ErrTokenReuseDetected, KindAuthentication},
	{ErrInvalidAccessToken, KindAuthentication},
	{ErrDuplicatePrincipal, KindConflict},
	{ErrPrincipalNotFound, KindNotFound},
	{ErrStoreUnavailable, KindDependency},
	{ErrAssetUploadFailed, KindDependency},
	{ErrEngineNotReady, KindDependency},
}

// KindOf classifies err by the first sentinel it wraps.
func KindOf(err error) ErrorKind {
	if err == nil {
		return KindUnknown
	}
	for _, ek := range errorKinds {
		if errors.Is(err, ek.err) {
			return ek.kind
		}
	}
	return KindUnknown
}

// HTTPStatus maps err to the status code a transport should answer with.
// Unclassified errors map to 500.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindAuthentication:
		return http.StatusUnauthorized
	case KindConflict:
		return http.StatusConflict
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage returns text safe to show a client for err: the message of
// the first sentinel it wraps, or a generic message for dependency and
// unclassified failures, whose causes may carry infrastructure detail.
func PublicMessage(err error) string {
	if err == nil {
		return ""
	}
	for _, ek := range errorKinds {
		if ek.kind == KindDependency {
			continue
		}
		if errors.Is(err, ek.err) {
			return ek.err.Error()
		}
	}
	return "something went wrong"
}
