package goSession

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestRegisterReturnsSanitizedProfile(t *testing.T) {
	te := newTestEngine(t)
	req := aliceRequest()
	req.Username = "  Alice "
	req.Cover = testAsset("cover.png")

	p, err := te.Register(context.Background(), req)
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if p.Username != "alice" {
		t.Fatalf("expected lower-cased username, got %q", p.Username)
	}
	if !strings.Contains(p.AvatarURI, "/avatars/"+p.ID+"/") || !strings.Contains(p.CoverURI, "/covers/"+p.ID+"/") {
		t.Fatalf("unexpected asset uris %q %q", p.AvatarURI, p.CoverURI)
	}

	stored, err := te.principals.FindByID(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	if stored.PasswordHash == "" || stored.PasswordHash == testPassword {
		t.Fatal("password must be stored hashed")
	}
	if stored.RefreshToken != "" {
		t.Fatal("register must not open a session")
	}
}

func TestRegisterWithoutCoverLeavesItEmpty(t *testing.T) {
	te := newTestEngine(t)
	p := registerAlice(t, te)
	if p.CoverURI != "" {
		t.Fatalf("expected empty cover, got %q", p.CoverURI)
	}
	if te.media.count() != 1 {
		t.Fatalf("expected one upload, got %d", te.media.count())
	}
}

func TestRegisterValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*RegisterRequest)
		want   error
	}{
		{"blank username", func(r *RegisterRequest) { r.Username = "   " }, ErrMissingFields},
		{"blank email", func(r *RegisterRequest) { r.Email = "" }, ErrMissingFields},
		{"blank full name", func(r *RegisterRequest) { r.FullName = "\t" }, ErrMissingFields},
		{"blank password", func(r *RegisterRequest) { r.Password = "  " }, ErrMissingFields},
		{"bad email", func(r *RegisterRequest) { r.Email = "not-an-email" }, ErrInvalidField},
		{"username with at", func(r *RegisterRequest) { r.Username = "al@ce" }, ErrInvalidField},
		{"missing avatar", func(r *RegisterRequest) { r.Avatar = nil }, ErrMissingRequiredAsset},
		{"empty avatar", func(r *RegisterRequest) { r.Avatar = &MediaAsset{Filename: "a.png"} }, ErrMissingRequiredAsset},
		{"short password", func(r *RegisterRequest) { r.Password = "short" }, ErrPasswordPolicy},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			te := newTestEngine(t)
			req := aliceRequest()
			tc.mutate(&req)

			_, err := te.Register(context.Background(), req)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			if te.media.count() != 0 {
				t.Fatal("rejected registration must not upload")
			}
			if _, err := te.principals.FindByIdentifier(context.Background(), "alice"); !errors.Is(err, ErrPrincipalNotFound) {
				t.Fatal("rejected registration must not create a record")
			}
		})
	}
}

func TestRegisterDuplicateCheckedBeforeUpload(t *testing.T) {
	te := newTestEngine(t)
	registerAlice(t, te)

	req := aliceRequest()
	req.Username = "alice2"
	_, err := te.Register(context.Background(), req)
	if !errors.Is(err, ErrDuplicatePrincipal) {
		t.Fatalf("expected ErrDuplicatePrincipal, got %v", err)
	}
	if te.media.count() != 1 {
		t.Fatalf("duplicate registration must not upload, uploads=%d", te.media.count())
	}
	if got := te.MetricsSnapshot().Counters[MetricRegisterDuplicate]; got != 1 {
		t.Fatalf("expected duplicate metric 1, got %d", got)
	}
}

func TestRegisterAvatarUploadFailureCreatesNothing(t *testing.T) {
	te := newTestEngine(t)
	te.media.failOn = AssetAvatar

	_, err := te.Register(context.Background(), aliceRequest())
	if !errors.Is(err, ErrAssetUploadFailed) {
		t.Fatalf("expected ErrAssetUploadFailed, got %v", err)
	}
	if KindOf(err) != KindDependency {
		t.Fatalf("expected dependency kind, got %s", KindOf(err))
	}
	if _, err := te.Login(context.Background(), "alice", testPassword); !errors.Is(err, ErrPrincipalNotFound) {
		t.Fatalf("expected no record after failed upload, got %v", err)
	}
}

func TestRegisterCoverUploadFailure(t *testing.T) {
	te := newTestEngine(t)
	te.media.failOn = AssetCover
	req := aliceRequest()
	req.Cover = testAsset("cover.png")

	if _, err := te.Register(context.Background(), req); !errors.Is(err, ErrAssetUploadFailed) {
		t.Fatalf("expected ErrAssetUploadFailed, got %v", err)
	}
}

func TestRegisterWithoutMediaStore(t *testing.T) {
	te := newTestEngine(t, func(b *Builder) { b.WithMediaStore(nil) })
	if _, err := te.Register(context.Background(), aliceRequest()); !errors.Is(err, ErrAssetUploadFailed) {
		t.Fatalf("expected ErrAssetUploadFailed, got %v", err)
	}
}

func TestRegisterAssetTooLarge(t *testing.T) {
	cfg := testConfig()
	cfg.Media.MaxAssetBytes = 4
	te := newTestEngine(t, func(b *Builder) { b.WithConfig(cfg) })

	if _, err := te.Register(context.Background(), aliceRequest()); !errors.Is(err, ErrInvalidField) {
		t.Fatalf("expected ErrInvalidField, got %v", err)
	}
}
