package goSession

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Register creates a principal after validating its fields and uploading its
// media. The duplicate check runs before any upload, and a failed avatar
// upload leaves no record behind. The returned profile carries neither the
// password hash nor the stored refresh token.
func (e *Engine) Register(ctx context.Context, req RegisterRequest) (Profile, error) {
	if !e.ready() {
		return Profile{}, ErrEngineNotReady
	}

	in := registerInput{
		Username: strings.ToLower(strings.TrimSpace(req.Username)),
		Email:    strings.ToLower(strings.TrimSpace(req.Email)),
		FullName: strings.TrimSpace(req.FullName),
	}
	if in.Username == "" || in.Email == "" || in.FullName == "" || strings.TrimSpace(req.Password) == "" {
		return Profile{}, e.registerFailed(ctx, ErrMissingFields, "missing_fields")
	}
	if err := e.validateRegister(in); err != nil {
		return Profile{}, e.registerFailed(ctx, err, "invalid_field")
	}
	if err := e.checkAsset(req.Avatar); err != nil {
		return Profile{}, e.registerFailed(ctx, err, "avatar")
	}
	hasCover := !req.Cover.empty()
	if hasCover {
		if err := e.checkAsset(req.Cover); err != nil {
			return Profile{}, e.registerFailed(ctx, err, "cover")
		}
	}

	exists, err := e.principals.ExistsByUsernameOrEmail(ctx, in.Username, in.Email)
	if err != nil {
		return Profile{}, e.registerFailed(ctx, e.storeFailure(ctx, "register.exists", err), "lookup_failed")
	}
	if exists {
		e.metricInc(MetricRegisterDuplicate)
		return Profile{}, e.registerFailed(ctx, ErrDuplicatePrincipal, "duplicate")
	}

	hash, err := e.hasher.Hash(req.Password)
	if err != nil {
		return Profile{}, e.registerFailed(ctx, fmt.Errorf("%w: %w", ErrPasswordPolicy, err), "password_policy")
	}

	id := uuid.NewString()

	avatarURI, err := e.upload(ctx, id, AssetAvatar, *req.Avatar)
	if err != nil {
		return Profile{}, e.registerFailed(ctx, err, "avatar_upload")
	}
	var coverURI string
	if hasCover {
		coverURI, err = e.upload(ctx, id, AssetCover, *req.Cover)
		if err != nil {
			return Profile{}, e.registerFailed(ctx, err, "cover_upload")
		}
	}

	now := time.Now().UTC()
	created, err := e.principals.Create(ctx, Principal{
		ID:           id,
		Username:     in.Username,
		Email:        in.Email,
		FullName:     in.FullName,
		PasswordHash: hash,
		AvatarURI:    avatarURI,
		CoverURI:     coverURI,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		if errors.Is(err, ErrDuplicatePrincipal) {
			e.metricInc(MetricRegisterDuplicate)
			return Profile{}, e.registerFailed(ctx, ErrDuplicatePrincipal, "duplicate")
		}
		return Profile{}, e.registerFailed(ctx, e.storeFailure(ctx, "register.create", err), "create_failed")
	}

	e.metricInc(MetricRegisterSuccess)
	e.emitAudit(ctx, auditEventRegisterSuccess, true, created.ID, nil, nil)

	return created.Profile(), nil
}

func (e *Engine) registerFailed(ctx context.Context, err error, why string) error {
	e.metricInc(MetricRegisterFailure)
	e.emitAudit(ctx, auditEventRegisterFailure, false, "", err, reason(why))
	return err
}

func (e *Engine) upload(ctx context.Context, principalID string, kind AssetKind, asset MediaAsset) (string, error) {
	if e.media == nil {
		e.metricInc(MetricAssetUploadFailure)
		return "", fmt.Errorf("%w: no media store configured", ErrAssetUploadFailed)
	}
	uri, err := e.media.Upload(ctx, principalID, kind, asset)
	if err == nil && uri == "" {
		err = errors.New("media store returned an empty uri")
	}
	if err != nil {
		e.metricInc(MetricAssetUploadFailure)
		e.log(ctx).Error("asset upload failed",
			zap.String("principal_id", principalID),
			zap.String("kind", string(kind)),
			zap.Error(err),
		)
		return "", fmt.Errorf("%w: %w", ErrAssetUploadFailed, err)
	}
	return uri, nil
}
