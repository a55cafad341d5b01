package goSession

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MrEthical07/goSession/session"
)

const testPassword = "correct-pw-123"

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Tokens.AccessSigningKey = bytes.Repeat([]byte("a"), MinSigningKeyBytes)
	cfg.Tokens.RefreshSigningKey = bytes.Repeat([]byte("r"), MinSigningKeyBytes)
	cfg.Password.Memory = 8 * 1024
	cfg.Password.Time = 1
	cfg.Password.Parallelism = 1
	return cfg
}

// fakePrincipals is an in-memory PrincipalStore that also keeps the refresh
// digest on the record, like the database-backed stores do.
type fakePrincipals struct {
	mu   sync.Mutex
	byID map[string]Principal

	sets     atomic.Int64
	failGet  error
	failSet  error
	failFind error
}

var (
	_ PrincipalStore = (*fakePrincipals)(nil)
	_ session.Store  = (*fakePrincipals)(nil)
)

func newFakePrincipals() *fakePrincipals {
	return &fakePrincipals{byID: map[string]Principal{}}
}

func (f *fakePrincipals) Create(_ context.Context, p Principal) (Principal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.byID {
		if existing.Username == p.Username || existing.Email == p.Email {
			return Principal{}, ErrDuplicatePrincipal
		}
	}
	f.byID[p.ID] = p
	return p, nil
}

func (f *fakePrincipals) FindByID(_ context.Context, id string) (Principal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFind != nil {
		return Principal{}, f.failFind
	}
	p, ok := f.byID[id]
	if !ok {
		return Principal{}, ErrPrincipalNotFound
	}
	return p, nil
}

func (f *fakePrincipals) FindByIdentifier(_ context.Context, identifier string) (Principal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFind != nil {
		return Principal{}, f.failFind
	}
	for _, p := range f.byID {
		if p.Username == identifier || p.Email == identifier {
			return p, nil
		}
	}
	return Principal{}, ErrPrincipalNotFound
}

func (f *fakePrincipals) ExistsByUsernameOrEmail(_ context.Context, username, email string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.byID {
		if p.Username == username || p.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakePrincipals) UpdatePasswordHash(_ context.Context, id, hash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.byID[id]
	if !ok {
		return ErrPrincipalNotFound
	}
	p.PasswordHash = hash
	f.byID[id] = p
	return nil
}

func (f *fakePrincipals) UpdateField(_ context.Context, id string, field ProfileField, value string) (Principal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.byID[id]
	if !ok {
		return Principal{}, ErrPrincipalNotFound
	}
	switch field {
	case FieldFullName:
		p.FullName = value
	case FieldEmail:
		p.Email = value
	case FieldAvatarURI:
		p.AvatarURI = value
	case FieldCoverURI:
		p.CoverURI = value
	default:
		return Principal{}, fmt.Errorf("unknown field %d", field)
	}
	p.UpdatedAt = time.Now().UTC()
	f.byID[id] = p
	return p, nil
}

func (f *fakePrincipals) Get(_ context.Context, id string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failGet != nil {
		return "", false, f.failGet
	}
	p, ok := f.byID[id]
	if !ok || p.RefreshToken == "" {
		return "", false, nil
	}
	return p.RefreshToken, true, nil
}

func (f *fakePrincipals) Set(_ context.Context, id, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSet != nil {
		return f.failSet
	}
	f.sets.Add(1)
	p, ok := f.byID[id]
	if !ok {
		return nil
	}
	p.RefreshToken = value
	f.byID[id] = p
	return nil
}

func (f *fakePrincipals) CompareAndSwap(_ context.Context, id, expected, next string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.byID[id]
	if !ok || p.RefreshToken != expected {
		return false, nil
	}
	p.RefreshToken = next
	f.byID[id] = p
	return true, nil
}

func (f *fakePrincipals) stored(id string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.byID[id].RefreshToken
}

func (f *fakePrincipals) delete(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.byID, id)
}

type fakeMedia struct {
	mu      sync.Mutex
	uploads []string
	failOn  AssetKind
}

func (m *fakeMedia) Upload(_ context.Context, principalID string, kind AssetKind, asset MediaAsset) (string, error) {
	if kind == m.failOn {
		return "", errors.New("bucket unreachable")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	uri := "https://media.test/" + string(kind) + "/" + principalID + "/" + asset.Filename
	m.uploads = append(m.uploads, uri)
	return uri, nil
}

func (m *fakeMedia) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.uploads)
}

func testAsset(name string) *MediaAsset {
	body := "\x89PNG fake image bytes"
	return &MediaAsset{
		Filename:    name,
		ContentType: "image/png",
		Size:        int64(len(body)),
		Body:        strings.NewReader(body),
	}
}

func aliceRequest() RegisterRequest {
	return RegisterRequest{
		Username: "alice",
		Email:    "a@x.com",
		FullName: "Alice",
		Password: testPassword,
		Avatar:   testAsset("alice.png"),
	}
}

type testEngine struct {
	*Engine
	principals *fakePrincipals
	media      *fakeMedia
}

func newTestEngine(t testing.TB, opts ...func(*Builder)) testEngine {
	t.Helper()

	principals := newFakePrincipals()
	media := &fakeMedia{}
	b := New().
		WithConfig(testConfig()).
		WithPrincipalStore(principals).
		WithMediaStore(media)
	for _, opt := range opts {
		opt(b)
	}

	engine, err := b.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(func() { _ = engine.Close() })

	return testEngine{Engine: engine, principals: principals, media: media}
}

func registerAlice(t testing.TB, te testEngine) Profile {
	t.Helper()
	p, err := te.Register(context.Background(), aliceRequest())
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	return p
}
