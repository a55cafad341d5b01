package memory

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	goSession "github.com/MrEthical07/goSession"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func alice() goSession.Principal {
	return goSession.Principal{
		ID:           "p-1",
		Username:     "alice",
		Email:        "alice@example.com",
		FullName:     "Alice Liddell",
		PasswordHash: "$argon2id$stub",
	}
}

func TestCreateAndFind(t *testing.T) {
	ctx := context.Background()
	s := New()

	created, err := s.Create(ctx, alice())
	require.NoError(t, err)
	assert.False(t, created.CreatedAt.IsZero())
	assert.Equal(t, created.CreatedAt, created.UpdatedAt)

	byUser, err := s.FindByIdentifier(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "p-1", byUser.ID)

	byEmail, err := s.FindByIdentifier(ctx, "ALICE@example.com")
	require.NoError(t, err)
	assert.Equal(t, "p-1", byEmail.ID)

	_, err = s.FindByID(ctx, "missing")
	assert.ErrorIs(t, err, goSession.ErrPrincipalNotFound)
	_, err = s.FindByIdentifier(ctx, "bob")
	assert.ErrorIs(t, err, goSession.ErrPrincipalNotFound)
}

func TestCreateKeepsCallerTimestamps(t *testing.T) {
	ctx := context.Background()
	s := New()

	created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	updated := created.Add(time.Hour)
	p := alice()
	p.CreatedAt, p.UpdatedAt = created, updated

	got, err := s.Create(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, created, got.CreatedAt)
	assert.Equal(t, updated, got.UpdatedAt)

	stored, err := s.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, created, stored.CreatedAt)
	assert.Equal(t, updated, stored.UpdatedAt)

	bob := goSession.Principal{ID: "p-2", Username: "bob", Email: "bob@example.com", CreatedAt: created}
	got, err = s.Create(ctx, bob)
	require.NoError(t, err)
	assert.Equal(t, created, got.CreatedAt)
	assert.Equal(t, created, got.UpdatedAt, "a zero UpdatedAt starts at CreatedAt")
}

func TestCreateRejectsDuplicates(t *testing.T) {
	ctx := context.Background()
	s := New()
	_, err := s.Create(ctx, alice())
	require.NoError(t, err)

	sameName := alice()
	sameName.ID, sameName.Email = "p-2", "other@example.com"
	_, err = s.Create(ctx, sameName)
	assert.ErrorIs(t, err, goSession.ErrDuplicatePrincipal)

	sameEmail := alice()
	sameEmail.ID, sameEmail.Username = "p-3", "other"
	_, err = s.Create(ctx, sameEmail)
	assert.ErrorIs(t, err, goSession.ErrDuplicatePrincipal)

	exists, err := s.ExistsByUsernameOrEmail(ctx, "nobody", "alice@example.com")
	require.NoError(t, err)
	assert.True(t, exists)
	exists, err = s.ExistsByUsernameOrEmail(ctx, "nobody", "nobody@example.com")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.Equal(t, 1, s.Len())
}

func TestUpdateFieldReindexesEmail(t *testing.T) {
	ctx := context.Background()
	s := New()
	_, err := s.Create(ctx, alice())
	require.NoError(t, err)

	updated, err := s.UpdateField(ctx, "p-1", goSession.FieldEmail, "wonder@example.com")
	require.NoError(t, err)
	assert.Equal(t, "wonder@example.com", updated.Email)

	_, err = s.FindByIdentifier(ctx, "alice@example.com")
	assert.ErrorIs(t, err, goSession.ErrPrincipalNotFound)
	found, err := s.FindByIdentifier(ctx, "wonder@example.com")
	require.NoError(t, err)
	assert.Equal(t, "p-1", found.ID)

	bob := goSession.Principal{ID: "p-2", Username: "bob", Email: "bob@example.com"}
	_, err = s.Create(ctx, bob)
	require.NoError(t, err)
	_, err = s.UpdateField(ctx, "p-2", goSession.FieldEmail, "wonder@example.com")
	assert.ErrorIs(t, err, goSession.ErrDuplicatePrincipal)

	_, err = s.UpdateField(ctx, "p-1", goSession.ProfileField(99), "x")
	assert.ErrorIs(t, err, goSession.ErrInvalidField)
	_, err = s.UpdateField(ctx, "missing", goSession.FieldFullName, "x")
	assert.ErrorIs(t, err, goSession.ErrPrincipalNotFound)
}

func TestUpdatePasswordHash(t *testing.T) {
	ctx := context.Background()
	s := New()
	_, err := s.Create(ctx, alice())
	require.NoError(t, err)

	require.NoError(t, s.UpdatePasswordHash(ctx, "p-1", "$argon2id$next"))
	p, err := s.FindByID(ctx, "p-1")
	require.NoError(t, err)
	assert.Equal(t, "$argon2id$next", p.PasswordHash)

	assert.ErrorIs(t, s.UpdatePasswordHash(ctx, "missing", "h"), goSession.ErrPrincipalNotFound)
}

func TestSessionValueLivesOnRecord(t *testing.T) {
	ctx := context.Background()
	s := New()
	_, err := s.Create(ctx, alice())
	require.NoError(t, err)

	_, ok, err := s.Get(ctx, "p-1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, "p-1", "d1"))
	p, _ := s.FindByID(ctx, "p-1")
	assert.Equal(t, "d1", p.RefreshToken)

	swapped, err := s.CompareAndSwap(ctx, "p-1", "stale", "d2")
	require.NoError(t, err)
	assert.False(t, swapped)
	v, _, _ := s.Get(ctx, "p-1")
	assert.Equal(t, "d1", v)

	swapped, err = s.CompareAndSwap(ctx, "p-1", "d1", "d2")
	require.NoError(t, err)
	assert.True(t, swapped)

	require.NoError(t, s.Set(ctx, "p-1", ""))
	_, ok, _ = s.Get(ctx, "p-1")
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, "missing", "d"))
	swapped, err = s.CompareAndSwap(ctx, "missing", "", "d")
	require.NoError(t, err)
	assert.False(t, swapped)
}

func TestCompareAndSwapSingleWinner(t *testing.T) {
	ctx := context.Background()
	s := New()
	_, err := s.Create(ctx, alice())
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, "p-1", "current"))

	const workers = 32
	var (
		wins  atomic.Int64
		wg    sync.WaitGroup
		start = make(chan struct{})
	)
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func(n int) {
			defer wg.Done()
			<-start
			ok, err := s.CompareAndSwap(ctx, "p-1", "current", string(rune('a'+n%26)))
			assert.NoError(t, err)
			if ok {
				wins.Add(1)
			}
		}(i)
	}
	close(start)
	wg.Wait()

	assert.EqualValues(t, 1, wins.Load())
}

func TestPing(t *testing.T) {
	d, err := New().Ping(context.Background())
	require.NoError(t, err)
	assert.Zero(t, d)
}
