package middleware_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/middleware"
	"github.com/MrEthical07/goSession/store/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubMedia struct{}

func (stubMedia) Upload(_ context.Context, id string, kind goSession.AssetKind, _ goSession.MediaAsset) (string, error) {
	return "https://cdn.test/" + string(kind) + "/" + id, nil
}

type fixture struct {
	engine *goSession.Engine
	store  *memory.Store
	id     string
	access string
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	cfg := goSession.DefaultConfig()
	cfg.Tokens.AccessSigningKey = bytes.Repeat([]byte("a"), goSession.MinSigningKeyBytes)
	cfg.Tokens.RefreshSigningKey = bytes.Repeat([]byte("r"), goSession.MinSigningKeyBytes)
	cfg.Password.Memory = 8 * 1024
	cfg.Password.Time = 1
	cfg.Password.Parallelism = 1

	store := memory.New()
	engine, err := goSession.New().
		WithConfig(cfg).
		WithPrincipalStore(store).
		WithMediaStore(stubMedia{}).
		Build()
	require.NoError(t, err)
	t.Cleanup(func() { _ = engine.Close() })

	ctx := context.Background()
	profile, err := engine.Register(ctx, goSession.RegisterRequest{
		Username: "alice",
		Email:    "alice@example.com",
		FullName: "Alice",
		Password: "correct-pw-123",
		Avatar:   &goSession.MediaAsset{Filename: "a.png", Size: 1, Body: strings.NewReader("x")},
	})
	require.NoError(t, err)
	login, err := engine.Login(ctx, "alice", "correct-pw-123")
	require.NoError(t, err)

	return fixture{engine: engine, store: store, id: profile.ID, access: login.AccessToken}
}

func echoPrincipal(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := middleware.PrincipalFromContext(r.Context())
		require.True(t, ok)
		_, _ = w.Write([]byte(id))
	})
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, false, body["success"])
	return body
}

func TestGuardAcceptsBearerAndCookie(t *testing.T) {
	f := newFixture(t)
	h := middleware.Guard(f.engine)(echoPrincipal(t))

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+f.access)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, f.id, rec.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(&http.Cookie{Name: middleware.AccessTokenCookie, Value: f.access})
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, f.id, rec.Body.String())
}

func TestGuardRejects(t *testing.T) {
	f := newFixture(t)
	reached := false
	h := middleware.Guard(f.engine)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { reached = true }))

	cases := map[string]func(*http.Request){
		"no credentials": func(*http.Request) {},
		"basic scheme":   func(r *http.Request) { r.Header.Set("Authorization", "Basic abc") },
		"empty bearer":   func(r *http.Request) { r.Header.Set("Authorization", "Bearer ") },
		"garbage token":  func(r *http.Request) { r.Header.Set("Authorization", "Bearer not.a.jwt") },
		"tampered token": func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+f.access+"x") },
		"header wins over cookie": func(r *http.Request) {
			r.Header.Set("Authorization", "Bearer nope")
			r.AddCookie(&http.Cookie{Name: middleware.AccessTokenCookie, Value: f.access})
		},
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			mutate(req)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			body := decodeError(t, rec)
			assert.EqualValues(t, http.StatusUnauthorized, body["statusCode"])
		})
	}
	assert.False(t, reached)
}

func TestGuardNilEngine(t *testing.T) {
	h := middleware.Guard(nil)(http.NotFoundHandler())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireProfile(t *testing.T) {
	f := newFixture(t)
	h := middleware.RequireProfile(f.engine)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := middleware.ProfileFromContext(r.Context())
		require.True(t, ok)
		_, _ = w.Write([]byte(p.Username))
	}))

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+f.access)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alice", rec.Body.String())
}

func TestRequireProfileRejectsUnknownPrincipal(t *testing.T) {
	f := newFixture(t)
	h := middleware.RequireProfile(f.engine)(http.NotFoundHandler())

	other := newFixture(t)
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	// Same signing keys, so the token verifies but names a principal this store lacks.
	req.Header.Set("Authorization", "Bearer "+other.access)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	decodeError(t, rec)
}
