package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/session"
)

// Store keeps principals in a map. The refresh value lives on the record,
// so a single Store serves as both the principal store and the session store.
type Store struct {
	mu         sync.RWMutex
	byID       map[string]goSession.Principal
	byUsername map[string]string
	byEmail    map[string]string
	now        func() time.Time
}

var (
	_ goSession.PrincipalStore = (*Store)(nil)
	_ session.Store            = (*Store)(nil)
	_ session.Pinger           = (*Store)(nil)
)

// New returns an empty Store.
func New() *Store {
	return &Store{
		byID:       make(map[string]goSession.Principal),
		byUsername: make(map[string]string),
		byEmail:    make(map[string]string),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Create stores p. Zero CreatedAt and UpdatedAt are set to the current time.
func (s *Store) Create(_ context.Context, p goSession.Principal) (goSession.Principal, error) {
	const op = "store.memory.Create"

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[p.ID]; ok {
		return goSession.Principal{}, fmt.Errorf("%s: %w", op, goSession.ErrDuplicatePrincipal)
	}
	if _, ok := s.byUsername[p.Username]; ok {
		return goSession.Principal{}, fmt.Errorf("%s: %w", op, goSession.ErrDuplicatePrincipal)
	}
	if _, ok := s.byEmail[p.Email]; ok {
		return goSession.Principal{}, fmt.Errorf("%s: %w", op, goSession.ErrDuplicatePrincipal)
	}

	now := s.now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = p.CreatedAt
	}
	s.byID[p.ID] = p
	s.byUsername[p.Username] = p.ID
	s.byEmail[p.Email] = p.ID
	return p, nil
}

func (s *Store) FindByID(_ context.Context, id string) (goSession.Principal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.byID[id]
	if !ok {
		return goSession.Principal{}, fmt.Errorf("store.memory.FindByID: %w", goSession.ErrPrincipalNotFound)
	}
	return p, nil
}

func (s *Store) FindByIdentifier(_ context.Context, identifier string) (goSession.Principal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	key := strings.ToLower(identifier)
	id, ok := s.byUsername[key]
	if !ok {
		id, ok = s.byEmail[key]
	}
	if !ok {
		return goSession.Principal{}, fmt.Errorf("store.memory.FindByIdentifier: %w", goSession.ErrPrincipalNotFound)
	}
	return s.byID[id], nil
}

func (s *Store) ExistsByUsernameOrEmail(_ context.Context, username, email string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, u := s.byUsername[username]
	_, e := s.byEmail[email]
	return u || e, nil
}

func (s *Store) UpdatePasswordHash(_ context.Context, id, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.byID[id]
	if !ok {
		return fmt.Errorf("store.memory.UpdatePasswordHash: %w", goSession.ErrPrincipalNotFound)
	}
	p.PasswordHash = hash
	p.UpdatedAt = s.now()
	s.byID[id] = p
	return nil
}

func (s *Store) UpdateField(_ context.Context, id string, field goSession.ProfileField, value string) (goSession.Principal, error) {
	const op = "store.memory.UpdateField"

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.byID[id]
	if !ok {
		return goSession.Principal{}, fmt.Errorf("%s: %w", op, goSession.ErrPrincipalNotFound)
	}

	switch field {
	case goSession.FieldFullName:
		p.FullName = value
	case goSession.FieldEmail:
		if owner, taken := s.byEmail[value]; taken && owner != id {
			return goSession.Principal{}, fmt.Errorf("%s: %w", op, goSession.ErrDuplicatePrincipal)
		}
		delete(s.byEmail, p.Email)
		s.byEmail[value] = id
		p.Email = value
	case goSession.FieldAvatarURI:
		p.AvatarURI = value
	case goSession.FieldCoverURI:
		p.CoverURI = value
	default:
		return goSession.Principal{}, fmt.Errorf("%s: unknown field %s: %w", op, field, goSession.ErrInvalidField)
	}

	p.UpdatedAt = s.now()
	s.byID[id] = p
	return p, nil
}

// Get returns the refresh value held on the principal record.
func (s *Store) Get(_ context.Context, principalID string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.byID[principalID]
	if !ok || p.RefreshToken == "" {
		return "", false, nil
	}
	return p.RefreshToken, true, nil
}

// Set overwrites the refresh value. Writes for unknown principals are dropped.
func (s *Store) Set(_ context.Context, principalID, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.byID[principalID]
	if !ok {
		return nil
	}
	p.RefreshToken = value
	s.byID[principalID] = p
	return nil
}

func (s *Store) CompareAndSwap(_ context.Context, principalID, expected, next string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.byID[principalID]
	if !ok || !session.Equal(p.RefreshToken, expected) {
		return false, nil
	}
	p.RefreshToken = next
	s.byID[principalID] = p
	return true, nil
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) (time.Duration, error) {
	return 0, nil
}

// Len reports the number of stored principals.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}
