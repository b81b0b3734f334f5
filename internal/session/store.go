// Package session holds the single source of truth for "who is logged
// in". The store is constructed once at process root and handed to every
// component that needs it; there is no ambient global.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Atanda1/dca-experiment/internal/core"
	"github.com/Atanda1/dca-experiment/internal/data"
	"github.com/Atanda1/dca-experiment/internal/localstate"
	"github.com/Atanda1/dca-experiment/internal/log"
)

// EventType names an auth-state change.
type EventType string

const (
	// EventInitialSession is the result of the startup reconcile with the
	// remote service. Its payload wins over any restored snapshot, even
	// when it is nil.
	EventInitialSession EventType = "initial_session"
	EventSignedIn       EventType = "signed_in"
	EventSignedOut      EventType = "signed_out"
	EventTokenRefreshed EventType = "token_refreshed"
)

// Event is one auth-state change. Session is nil when the change leaves
// the store signed out.
type Event struct {
	Type    EventType
	Session *core.Session
}

// Listener receives auth-state events in emission order.
type Listener func(Event)

// Store owns the current Session/User pair. Mutation happens only through
// applied events; reads may come from any goroutine.
type Store struct {
	auth          data.AuthService
	state         *localstate.Store
	logger        *log.Logger
	refreshMargin time.Duration

	// emitMu serializes event application so listeners observe changes in
	// a single total order.
	emitMu sync.Mutex

	mu        sync.RWMutex
	session   *core.Session
	listeners []registration
	nextID    int

	refreshKick chan struct{}
}

type registration struct {
	id int
	fn Listener
}

// Config wires a Store's collaborators.
type Config struct {
	Auth          data.AuthService
	State         *localstate.Store
	Logger        *log.Logger
	RefreshMargin time.Duration
}

// New builds the store and synchronously restores the persisted session
// snapshot, so the first render after a restart does not flash a
// logged-out state. Call Start to reconcile with the remote service.
func New(cfg Config) *Store {
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	margin := cfg.RefreshMargin
	if margin <= 0 {
		margin = 60 * time.Second
	}
	s := &Store{
		auth:          cfg.Auth,
		state:         cfg.State,
		logger:        logger.WithComponent(log.ComponentSession),
		refreshMargin: margin,
		refreshKick:   make(chan struct{}, 1),
	}

	if restored, ok := loadSnapshot(context.Background(), cfg.State); ok {
		s.session = restored
		s.logger.Info("Restored session snapshot",
			log.FieldUserID, restored.User.ID,
			"expires_at", restored.ExpiresAt)
	}

	return s
}

// Start launches the asynchronous reconcile with the remote service and
// the token refresh loop. Both stop when ctx is cancelled; cancelling ctx
// is the guaranteed cleanup path for the store's background work.
func (s *Store) Start(ctx context.Context) {
	go s.reconcile(ctx)
	go s.refreshLoop(ctx)
}

// CurrentSession returns a copy of the session, if any.
func (s *Store) CurrentSession() (core.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.session == nil {
		return core.Session{}, false
	}
	return *s.session, true
}

// CurrentUser returns the identity derived from the session, if any.
func (s *Store) CurrentUser() (core.User, bool) {
	sess, ok := s.CurrentSession()
	if !ok {
		return core.User{}, false
	}
	return sess.User, true
}

// SignIn exchanges credentials with the remote service and applies the
// resulting signed-in event.
func (s *Store) SignIn(ctx context.Context, email, password string) error {
	sess, err := s.auth.SignIn(ctx, email, password)
	if err != nil {
		return err
	}
	s.apply(ctx, Event{Type: EventSignedIn, Session: &sess})
	return nil
}

// SignOut requests remote invalidation. The local session is NOT cleared
// synchronously: clearing happens when the resulting signed-out event is
// applied, and callers must not assume the session is gone on return.
func (s *Store) SignOut(ctx context.Context) error {
	sess, ok := s.CurrentSession()
	if !ok {
		return nil
	}
	if err := s.auth.SignOut(ctx, sess.AccessToken); err != nil {
		return err
	}
	s.apply(ctx, Event{Type: EventSignedOut})
	return nil
}

// Subscribe registers a listener for auth-state events and returns its
// unsubscribe func. Unsubscribing twice is harmless.
func (s *Store) Subscribe(fn Listener) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners = append(s.listeners, registration{id: id, fn: fn})
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, reg := range s.listeners {
			if reg.id == id {
				s.listeners = append(s.listeners[:i], s.listeners[i+1:]...)
				return
			}
		}
	}
}

// reconcile asks the remote service for the real session state. Its
// result always replaces the restored snapshot: a dead refresh token
// clears the optimistic restore.
func (s *Store) reconcile(ctx context.Context) {
	restored, ok := s.CurrentSession()
	if !ok || restored.RefreshToken == "" {
		s.apply(ctx, Event{Type: EventInitialSession})
		return
	}

	sess, err := s.auth.RefreshSession(ctx, restored.RefreshToken)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		s.logger.WarnContext(ctx, "Session reconcile failed, treating as signed out",
			log.FieldOperation, log.OpRefresh, log.FieldError, err)
		s.apply(ctx, Event{Type: EventInitialSession})
		return
	}

	s.apply(ctx, Event{Type: EventInitialSession, Session: &sess})
}

// refreshLoop keeps the session's tokens fresh, refreshing refreshMargin
// before expiry. A change of session re-arms the timer via refreshKick.
func (s *Store) refreshLoop(ctx context.Context) {
	const retryDelay = 15 * time.Second

	timer := time.NewTimer(time.Hour)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		armed := false
		if sess, ok := s.CurrentSession(); ok && sess.RefreshToken != "" && !sess.ExpiresAt.IsZero() {
			wait := time.Until(sess.ExpiresAt.Add(-s.refreshMargin))
			if wait < 0 {
				wait = 0
			}
			timer.Reset(wait)
			armed = true
		}

		select {
		case <-ctx.Done():
			return
		case <-s.refreshKick:
			if armed && !timer.Stop() {
				<-timer.C
			}
			continue
		case <-timer.C:
			if err := s.refresh(ctx); err != nil && ctx.Err() == nil {
				if errors.Is(err, data.ErrSessionExpired) || errors.Is(err, data.ErrInvalidCredentials) {
					s.logger.WarnContext(ctx, "Refresh token rejected, signing out",
						log.FieldOperation, log.OpRefresh, log.FieldError, err)
					s.apply(ctx, Event{Type: EventSignedOut})
					continue
				}
				s.logger.WarnContext(ctx, "Session refresh failed, will retry",
					log.FieldOperation, log.OpRefresh, log.FieldError, err)
				select {
				case <-ctx.Done():
					return
				case <-time.After(retryDelay):
				}
			}
		}
	}
}

func (s *Store) refresh(ctx context.Context) error {
	sess, ok := s.CurrentSession()
	if !ok || sess.RefreshToken == "" {
		return nil
	}
	next, err := s.auth.RefreshSession(ctx, sess.RefreshToken)
	if err != nil {
		return err
	}
	s.apply(ctx, Event{Type: EventTokenRefreshed, Session: &next})
	return nil
}

// apply atomically replaces the Session/User pair, persists the new
// snapshot best-effort, and notifies subscribers. emitMu guarantees
// listeners see events in a single order; the state lock is released
// before listeners run so they may read the store freely.
func (s *Store) apply(ctx context.Context, e Event) {
	s.emitMu.Lock()
	defer s.emitMu.Unlock()

	s.mu.Lock()
	if e.Session != nil {
		copied := *e.Session
		s.session = &copied
	} else {
		s.session = nil
	}
	regs := make([]registration, len(s.listeners))
	copy(regs, s.listeners)
	s.mu.Unlock()

	if err := saveSnapshot(ctx, s.state, e.Session); err != nil {
		// snapshot persistence is best-effort; the session itself is fine
		s.logger.WarnContext(ctx, "Failed to persist session snapshot",
			log.FieldOperation, log.OpPersist, log.FieldError, err)
	}

	s.logger.DebugContext(ctx, "Auth state changed",
		log.FieldEventType, string(e.Type),
		"signed_in", e.Session != nil)

	for _, reg := range regs {
		reg.fn(e)
	}

	// re-arm the refresh timer for the new session
	select {
	case s.refreshKick <- struct{}{}:
	default:
	}
}
