package goSession

import (
	"context"
	"io"
	"time"
)

// Principal is the identity record owned by a [PrincipalStore].
//
// RefreshToken holds the value last written through the session store, which
// is a digest of the current refresh token, never the token itself. It is
// mutated only by Login, Refresh, and Logout.
type Principal struct {
	ID           string
	Username     string
	Email        string
	FullName     string
	PasswordHash string
	AvatarURI    string
	CoverURI     string
	RefreshToken string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Profile returns the sanitized view of p.
func (p Principal) Profile() Profile {
	return Profile{
		ID:        p.ID,
		Username:  p.Username,
		Email:     p.Email,
		FullName:  p.FullName,
		AvatarURI: p.AvatarURI,
		CoverURI:  p.CoverURI,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

// Profile is a Principal without its password hash or stored refresh token.
// It is the only principal shape the engine returns to callers.
type Profile struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	FullName  string    `json:"fullName"`
	AvatarURI string    `json:"avatar"`
	CoverURI  string    `json:"coverImage"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// SessionPair is the access and refresh token pair returned by Login and
// Refresh. The two tokens are signed independently.
type SessionPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// LoginResult is returned by [Engine.Login].
type LoginResult struct {
	SessionPair
	Profile Profile `json:"user"`
}

// MediaAsset is a binary upload handed to a [MediaStore].
type MediaAsset struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

func (a *MediaAsset) empty() bool {
	return a == nil || a.Body == nil || a.Size == 0
}

// AssetKind names the profile slot an asset is uploaded for.
type AssetKind string

const (
	AssetAvatar AssetKind = "avatars"
	AssetCover  AssetKind = "covers"
)

// RegisterRequest carries the fields accepted by [Engine.Register]. Cover is optional.
type RegisterRequest struct {
	Username string
	Email    string
	FullName string
	Password string
	Avatar   *MediaAsset
	Cover    *MediaAsset
}

// ProfileField identifies a single mutable profile attribute.
type ProfileField uint8

const (
	FieldFullName ProfileField = iota + 1
	FieldEmail
	FieldAvatarURI
	FieldCoverURI
)

func (f ProfileField) String() string {
	switch f {
	case FieldFullName:
		return "full_name"
	case FieldEmail:
		return "email"
	case FieldAvatarURI:
		return "avatar_uri"
	case FieldCoverURI:
		return "cover_uri"
	default:
		return "unknown"
	}
}

// PrincipalStore persists principal records.
//
// Implementations report a missing record with an error wrapping
// [ErrPrincipalNotFound] and a unique-key violation with one wrapping
// [ErrDuplicatePrincipal]. Any other error is treated as a store failure.
type PrincipalStore interface {
	Create(ctx context.Context, p Principal) (Principal, error)
	FindByID(ctx context.Context, id string) (Principal, error)
	// FindByIdentifier matches the lower-cased username or the email.
	FindByIdentifier(ctx context.Context, identifier string) (Principal, error)
	ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error)
	UpdatePasswordHash(ctx context.Context, id, hash string) error
	UpdateField(ctx context.Context, id string, field ProfileField, value string) (Principal, error)
}

// MediaStore uploads binary assets and returns a URI that can be stored on
// the principal record.
type MediaStore interface {
	Upload(ctx context.Context, principalID string, kind AssetKind, asset MediaAsset) (string, error)
}
