package flows

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MrEthical07/goSession/jwt"
	"github.com/MrEthical07/goSession/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errNotFound = errors.New("not found")

type mapStore struct {
	mu     sync.Mutex
	values map[string]string
	writes int
	err    error
}

func newMapStore() *mapStore { return &mapStore{values: map[string]string{}} }

func (s *mapStore) Get(_ context.Context, id string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return "", false, s.err
	}
	v, ok := s.values[id]
	return v, ok && v != "", nil
}

func (s *mapStore) Set(_ context.Context, id, v string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.writes++
	if v == "" {
		delete(s.values, id)
		return nil
	}
	s.values[id] = v
	return nil
}

func (s *mapStore) CompareAndSwap(_ context.Context, id, expected, next string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return false, s.err
	}
	if s.values[id] != expected {
		return false, nil
	}
	s.writes++
	s.values[id] = next
	return true, nil
}

type user struct {
	id   string
	name string
	hash string
}

func newCodec(t *testing.T) *jwt.Codec {
	t.Helper()
	c, err := jwt.NewCodec(jwt.Config{
		Access:  jwt.KeyConfig{SigningKey: []byte("flows-access-key-flows-access-key"), TTL: time.Minute},
		Refresh: jwt.KeyConfig{SigningKey: []byte("flows-refresh-key-flows-refresh-k"), TTL: time.Hour},
	})
	require.NoError(t, err)
	return c
}

func plainVerify(secret, hash string) (bool, error) { return "hash:"+secret == hash, nil }

func loginDeps(t *testing.T, store session.Store, users map[string]user) LoginDeps[user] {
	return LoginDeps[user]{
		FindByIdentifier: func(_ context.Context, ident string) (user, error) {
			u, ok := users[ident]
			if !ok {
				return user{}, errNotFound
			}
			return u, nil
		},
		CredentialsOf: func(u user) Credentials { return Credentials{PrincipalID: u.id, PasswordHash: u.hash} },
		NotFound:      errNotFound,
		VerifySecret:  plainVerify,
		Codec:         newCodec(t),
		Sessions:      store,
	}
}

func refreshDeps(codec TokenCodec, store session.Store, users map[string]user) RefreshDeps {
	return RefreshDeps{
		Codec: codec,
		Exists: func(_ context.Context, id string) error {
			for _, u := range users {
				if u.id == id {
					return nil
				}
			}
			return errNotFound
		},
		NotFound: errNotFound,
		Sessions: store,
	}
}

func TestRunLoginOutcomes(t *testing.T) {
	users := map[string]user{"alice": {id: "p-1", name: "alice", hash: "hash:correct-pw"}}
	store := newMapStore()
	deps := loginDeps(t, store, users)
	ctx := context.Background()

	assert.Equal(t, LoginFailureMissingCredentials, RunLogin(ctx, "  ", "x", deps).Failure)
	assert.Equal(t, LoginFailureMissingCredentials, RunLogin(ctx, "alice", "", deps).Failure)
	assert.Equal(t, LoginFailureNotFound, RunLogin(ctx, "bob", "correct-pw", deps).Failure)
	assert.Equal(t, LoginFailureInvalidCredentials, RunLogin(ctx, "alice", "wrong-pw", deps).Failure)
	assert.Zero(t, store.writes, "failed logins must not write")

	res := RunLogin(ctx, " alice ", "correct-pw", deps)
	require.Equal(t, LoginFailureNone, res.Failure)
	assert.Equal(t, "p-1", res.PrincipalID)
	assert.Equal(t, "alice", res.Principal.name)
	assert.Equal(t, 1, store.writes)
	assert.Equal(t, session.Digest(res.RefreshToken), store.values["p-1"])
}

func TestRunLoginLookupAndPersistFailures(t *testing.T) {
	users := map[string]user{"alice": {id: "p-1", hash: "hash:correct-pw"}}
	store := newMapStore()
	deps := loginDeps(t, store, users)
	ctx := context.Background()

	boom := errors.New("db down")
	deps.FindByIdentifier = func(context.Context, string) (user, error) { return user{}, boom }
	res := RunLogin(ctx, "alice", "correct-pw", deps)
	assert.Equal(t, LoginFailureLookup, res.Failure)
	assert.ErrorIs(t, res.Err, boom)

	deps = loginDeps(t, store, users)
	store.err = boom
	res = RunLogin(ctx, "alice", "correct-pw", deps)
	assert.Equal(t, LoginFailurePersist, res.Failure)
}

func TestRunRefreshRotation(t *testing.T) {
	users := map[string]user{"alice": {id: "p-1", hash: "hash:correct-pw"}}
	store := newMapStore()
	ld := loginDeps(t, store, users)
	rd := refreshDeps(ld.Codec, store, users)
	ctx := context.Background()

	login := RunLogin(ctx, "alice", "correct-pw", ld)
	require.Equal(t, LoginFailureNone, login.Failure)

	first := RunRefresh(ctx, login.RefreshToken, rd)
	require.Equal(t, RefreshFailureNone, first.Failure)
	assert.NotEqual(t, login.RefreshToken, first.RefreshToken)
	assert.Equal(t, session.Digest(first.RefreshToken), store.values["p-1"])

	replay := RunRefresh(ctx, login.RefreshToken, rd)
	assert.Equal(t, RefreshFailureReuse, replay.Failure)
	assert.Equal(t, ReuseMismatch, replay.ReuseReason)
	assert.Equal(t, session.Digest(first.RefreshToken), store.values["p-1"], "rejection must not mutate")

	second := RunRefresh(ctx, first.RefreshToken, rd)
	assert.Equal(t, RefreshFailureNone, second.Failure)
}

func TestRunRefreshFailures(t *testing.T) {
	users := map[string]user{"alice": {id: "p-1", hash: "hash:correct-pw"}}
	store := newMapStore()
	codec := newCodec(t)
	rd := refreshDeps(codec, store, users)
	ctx := context.Background()

	assert.Equal(t, RefreshFailureMissingToken, RunRefresh(ctx, "", rd).Failure)

	res := RunRefresh(ctx, "garbage", rd)
	assert.Equal(t, RefreshFailureDecode, res.Failure)
	assert.ErrorIs(t, res.Err, jwt.ErrMalformed)

	access, _ := codec.Issue(jwt.KindAccess, "p-1")
	assert.Equal(t, RefreshFailureDecode, RunRefresh(ctx, access, rd).Failure)

	ghost, _ := codec.Issue(jwt.KindRefresh, "p-404")
	assert.Equal(t, RefreshFailureNotFound, RunRefresh(ctx, ghost, rd).Failure)

	valid, _ := codec.Issue(jwt.KindRefresh, "p-1")
	res = RunRefresh(ctx, valid, rd)
	assert.Equal(t, RefreshFailureReuse, res.Failure)
	assert.Equal(t, ReuseNoSession, res.ReuseReason)

	store.err = errors.New("redis down")
	assert.Equal(t, RefreshFailureStoreRead, RunRefresh(ctx, valid, rd).Failure)
}

func TestRunRefreshConcurrentSingleWinner(t *testing.T) {
	users := map[string]user{"alice": {id: "p-1", hash: "hash:correct-pw"}}
	store := newMapStore()
	ld := loginDeps(t, store, users)
	rd := refreshDeps(ld.Codec, store, users)
	ctx := context.Background()

	login := RunLogin(ctx, "alice", "correct-pw", ld)
	require.Equal(t, LoginFailureNone, login.Failure)

	const workers = 16
	var success, reuse atomic.Int32
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			switch RunRefresh(ctx, login.RefreshToken, rd).Failure {
			case RefreshFailureNone:
				success.Add(1)
			case RefreshFailureReuse:
				reuse.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.EqualValues(t, 1, success.Load())
	assert.EqualValues(t, workers-1, reuse.Load())
}

func TestRunLogoutIdempotent(t *testing.T) {
	store := newMapStore()
	store.values["p-1"] = "digest"
	deps := LogoutDeps{Sessions: store}

	require.NoError(t, RunLogout(context.Background(), "p-1", deps))
	require.NoError(t, RunLogout(context.Background(), "p-1", deps))
	_, ok := store.values["p-1"]
	assert.False(t, ok)
}

func TestRunChangeSecret(t *testing.T) {
	hash := "hash:correct-pw"
	var updated string
	deps := SecretDeps{
		FindByID: func(_ context.Context, id string) (Credentials, error) {
			if id != "p-1" {
				return Credentials{}, errNotFound
			}
			return Credentials{PrincipalID: id, PasswordHash: hash}, nil
		},
		NotFound:     errNotFound,
		VerifySecret: plainVerify,
		HashSecret: func(s string) (string, error) {
			if len(s) < 10 {
				return "", errors.New("too short")
			}
			return "hash:" + s, nil
		},
		UpdateHash: func(_ context.Context, _ string, h string) error { updated = h; return nil },
	}
	ctx := context.Background()

	assert.Equal(t, SecretFailureMissing, RunChangeSecret(ctx, "p-1", "", "new-secret-1", deps).Failure)
	assert.Equal(t, SecretFailureNotFound, RunChangeSecret(ctx, "p-2", "correct-pw", "new-secret-1", deps).Failure)
	assert.Equal(t, SecretFailureInvalidOld, RunChangeSecret(ctx, "p-1", "wrong-pw", "new-secret-1", deps).Failure)
	assert.Equal(t, SecretFailureReuse, RunChangeSecret(ctx, "p-1", "correct-pw", "correct-pw", deps).Failure)
	assert.Equal(t, SecretFailurePolicy, RunChangeSecret(ctx, "p-1", "correct-pw", "short", deps).Failure)
	assert.Empty(t, updated)

	assert.Equal(t, SecretFailureNone, RunChangeSecret(ctx, "p-1", "correct-pw", "new-secret-1", deps).Failure)
	assert.Equal(t, "hash:new-secret-1", updated)
}
