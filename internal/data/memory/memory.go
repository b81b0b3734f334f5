package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Atanda1/dca-experiment/internal/core"
	"github.com/Atanda1/dca-experiment/internal/data"
)

const sessionTTL = time.Hour

// Store is an in-process stand-in for the hosted data service, used for
// local development and tests. It issues throwaway tokens and applies the
// same per-user row scoping the real service enforces.
type Store struct {
	mu       sync.Mutex
	users    map[string]account // keyed by email
	sessions map[string]session // keyed by access token
	refresh  map[string]string  // refresh token -> user id
	items    []core.Investment
}

type account struct {
	user     core.User
	password string
}

type session struct {
	userID    string
	expiresAt time.Time
}

// Ensure interface conformance
var _ data.Service = (*Store)(nil)

func New() *Store {
	return &Store{
		users:    make(map[string]account),
		sessions: make(map[string]session),
		refresh:  make(map[string]string),
	}
}

// SeedUser registers an account the memory backend will accept sign-ins
// for. Returns the generated user ID.
func (s *Store) SeedUser(email, password string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.NewString()
	s.users[email] = account{
		user:     core.User{ID: id, Email: email},
		password: password,
	}
	return id
}

// SeedInvestment inserts a row directly, bypassing auth. For tests.
func (s *Store) SeedInvestment(inv core.Investment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if inv.ID == "" {
		inv.ID = uuid.NewString()
	}
	s.items = append(s.items, inv)
}

func (s *Store) SignIn(_ context.Context, email, password string) (core.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acct, ok := s.users[email]
	if !ok || acct.password != password {
		return core.Session{}, data.ErrInvalidCredentials
	}
	return s.issueSession(acct.user), nil
}

func (s *Store) RefreshSession(_ context.Context, refreshToken string) (core.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	userID, ok := s.refresh[refreshToken]
	if !ok {
		return core.Session{}, data.ErrSessionExpired
	}
	// refresh tokens are single use, like the real service
	delete(s.refresh, refreshToken)
	for _, acct := range s.users {
		if acct.user.ID == userID {
			return s.issueSession(acct.user), nil
		}
	}
	return core.Session{}, data.ErrSessionExpired
}

func (s *Store) SignOut(_ context.Context, accessToken string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, accessToken)
	return nil
}

func (s *Store) ListInvestments(_ context.Context, sess core.Session, userID string) ([]core.Investment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.authorize(sess, userID); err != nil {
		return nil, err
	}
	out := make([]core.Investment, 0)
	for _, inv := range s.items {
		if inv.UserID == userID {
			out = append(out, inv)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date.Time) {
			return out[i].Date.After(out[j].Date.Time)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Store) InsertInvestment(_ context.Context, sess core.Session, n core.NewInvestment) (core.Investment, error) {
	if err := n.Validate(); err != nil {
		return core.Investment{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.authorize(sess, n.UserID); err != nil {
		return core.Investment{}, err
	}
	now := time.Now()
	inv := core.Investment{
		ID:        uuid.NewString(),
		UserID:    n.UserID,
		Amount:    n.Amount,
		Category:  n.Category,
		Date:      n.Date,
		Notes:     n.Notes,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.items = append(s.items, inv)
	return inv, nil
}

func (s *Store) DeleteInvestment(_ context.Context, sess core.Session, id, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.authorize(sess, userID); err != nil {
		return err
	}
	for i, inv := range s.items {
		if inv.ID == id && inv.UserID == userID {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: investment %s", data.ErrNotFound, id)
}

// authorize mirrors the hosted service's row-level rule: the session must
// be live and belong to the user whose rows are being touched.
func (s *Store) authorize(sess core.Session, userID string) error {
	stored, ok := s.sessions[sess.AccessToken]
	if !ok || time.Now().After(stored.expiresAt) {
		return data.ErrSessionExpired
	}
	if stored.userID != userID {
		return data.ErrSessionExpired
	}
	return nil
}

func (s *Store) issueSession(user core.User) core.Session {
	access := uuid.NewString()
	refreshTok := uuid.NewString()
	expires := time.Now().Add(sessionTTL)
	s.sessions[access] = session{userID: user.ID, expiresAt: expires}
	s.refresh[refreshTok] = user.ID
	return core.Session{
		AccessToken:  access,
		RefreshToken: refreshTok,
		TokenType:    "bearer",
		ExpiresAt:    expires,
		User:         user,
	}
}
