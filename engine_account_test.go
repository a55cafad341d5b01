package goSession

import (
	"context"
	"errors"
	"testing"

	"github.com/MrEthical07/goSession/session"
)

func TestChangeSecretKeepsRefreshToken(t *testing.T) {
	te := newTestEngine(t)
	ctx := context.Background()
	p := registerAlice(t, te)
	res, err := te.Login(ctx, "alice", testPassword)
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}

	if err := te.ChangeSecret(ctx, p.ID, testPassword, "brand-new-pw-456"); err != nil {
		t.Fatalf("change secret failed: %v", err)
	}
	if te.principals.stored(p.ID) != session.Digest(res.RefreshToken) {
		t.Fatal("change secret must not touch the stored refresh token")
	}
	if _, err := te.Refresh(ctx, res.RefreshToken); err != nil {
		t.Fatalf("existing session must survive change secret: %v", err)
	}

	if _, err := te.Login(ctx, "alice", testPassword); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("old password must stop working, got %v", err)
	}
	if _, err := te.Login(ctx, "alice", "brand-new-pw-456"); err != nil {
		t.Fatalf("new password must work: %v", err)
	}
}

func TestChangeSecretFailures(t *testing.T) {
	te := newTestEngine(t)
	ctx := context.Background()
	p := registerAlice(t, te)

	tests := []struct {
		name          string
		id, old, next string
		want          error
	}{
		{"missing input", p.ID, "", "brand-new-pw-456", ErrMissingCredentials},
		{"unknown principal", "nope", testPassword, "brand-new-pw-456", ErrPrincipalNotFound},
		{"wrong old", p.ID, "wrong-pw-123", "brand-new-pw-456", ErrInvalidCredentials},
		{"reuse", p.ID, testPassword, testPassword, ErrPasswordReuse},
		{"too short", p.ID, testPassword, "short", ErrPasswordPolicy},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if err := te.ChangeSecret(ctx, tc.id, tc.old, tc.next); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}

	snap := te.MetricsSnapshot()
	if snap.Counters[MetricPasswordChangeInvalidOld] != 1 || snap.Counters[MetricPasswordChangeReuseRejected] != 1 {
		t.Fatalf("unexpected change-secret counters %v", snap.Counters)
	}
}

func TestUpdateProfileField(t *testing.T) {
	te := newTestEngine(t)
	ctx := context.Background()
	p := registerAlice(t, te)
	res, err := te.Login(ctx, "alice", testPassword)
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}

	updated, err := te.UpdateProfileField(ctx, p.ID, FieldFullName, "  Alice Liddell ")
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.FullName != "Alice Liddell" {
		t.Fatalf("unexpected full name %q", updated.FullName)
	}

	updated, err = te.UpdateProfileField(ctx, p.ID, FieldEmail, "Alice@Example.com")
	if err != nil {
		t.Fatalf("update email failed: %v", err)
	}
	if updated.Email != "alice@example.com" {
		t.Fatalf("unexpected email %q", updated.Email)
	}

	if te.principals.stored(p.ID) != session.Digest(res.RefreshToken) {
		t.Fatal("profile updates must not touch token state")
	}

	if _, err := te.UpdateProfileField(ctx, p.ID, FieldFullName, "   "); !errors.Is(err, ErrMissingField) {
		t.Fatalf("expected ErrMissingField, got %v", err)
	}
	if _, err := te.UpdateProfileField(ctx, p.ID, FieldEmail, "nope"); !errors.Is(err, ErrInvalidField) {
		t.Fatalf("expected ErrInvalidField, got %v", err)
	}
	if _, err := te.UpdateProfileField(ctx, p.ID, ProfileField(99), "x"); !errors.Is(err, ErrInvalidField) {
		t.Fatalf("expected ErrInvalidField for unknown field, got %v", err)
	}
	if _, err := te.UpdateProfileField(ctx, "missing", FieldFullName, "Bob"); !errors.Is(err, ErrPrincipalNotFound) {
		t.Fatalf("expected ErrPrincipalNotFound, got %v", err)
	}
}

func TestUpdateAvatarAndCover(t *testing.T) {
	te := newTestEngine(t)
	ctx := context.Background()
	p := registerAlice(t, te)

	updated, err := te.UpdateAvatar(ctx, p.ID, testAsset("new.png"))
	if err != nil {
		t.Fatalf("update avatar failed: %v", err)
	}
	if updated.AvatarURI == p.AvatarURI {
		t.Fatal("avatar uri must change")
	}

	updated, err = te.UpdateCover(ctx, p.ID, testAsset("cover.png"))
	if err != nil {
		t.Fatalf("update cover failed: %v", err)
	}
	if updated.CoverURI == "" {
		t.Fatal("cover uri must be set")
	}

	if _, err := te.UpdateAvatar(ctx, p.ID, nil); !errors.Is(err, ErrMissingRequiredAsset) {
		t.Fatalf("expected ErrMissingRequiredAsset, got %v", err)
	}

	te.media.failOn = AssetAvatar
	if _, err := te.UpdateAvatar(ctx, p.ID, testAsset("x.png")); !errors.Is(err, ErrAssetUploadFailed) {
		t.Fatalf("expected ErrAssetUploadFailed, got %v", err)
	}
}

func TestCurrentProfile(t *testing.T) {
	te := newTestEngine(t)
	p := registerAlice(t, te)

	got, err := te.CurrentProfile(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("current profile failed: %v", err)
	}
	if got != p {
		t.Fatalf("expected %+v, got %+v", p, got)
	}
	if _, err := te.CurrentProfile(context.Background(), "missing"); !errors.Is(err, ErrPrincipalNotFound) {
		t.Fatalf("expected ErrPrincipalNotFound, got %v", err)
	}
}

func TestPrincipalLookupFailureIsDependency(t *testing.T) {
	te := newTestEngine(t)
	registerAlice(t, te)
	te.principals.failFind = errors.New("connection reset")

	_, err := te.Login(context.Background(), "alice", testPassword)
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
}
