package session

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Atanda1/dca-experiment/internal/core"
	"github.com/Atanda1/dca-experiment/internal/localstate"
)

// SnapshotKey is the app_state key holding the serialized session.
const SnapshotKey = "auth.session"

// snapshot is the persisted form of a session. It exists so a restart can
// show a signed-in UI before the asynchronous reconcile with the remote
// service completes.
type snapshot struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	TokenType    string    `json:"token_type"`
	ExpiresAt    time.Time `json:"expires_at"`
	UserID       string    `json:"user_id"`
	Email        string    `json:"email"`
}

func snapshotOf(s core.Session) snapshot {
	return snapshot{
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		TokenType:    s.TokenType,
		ExpiresAt:    s.ExpiresAt,
		UserID:       s.User.ID,
		Email:        s.User.Email,
	}
}

func (sn snapshot) toSession() core.Session {
	return core.Session{
		AccessToken:  sn.AccessToken,
		RefreshToken: sn.RefreshToken,
		TokenType:    sn.TokenType,
		ExpiresAt:    sn.ExpiresAt,
		User:         core.User{ID: sn.UserID, Email: sn.Email},
	}
}

// loadSnapshot reads the persisted session. Any failure, including a
// snapshot that no longer parses, yields (nil, false): startup must never
// be blocked by a bad snapshot.
func loadSnapshot(ctx context.Context, state *localstate.Store) (*core.Session, bool) {
	if state == nil {
		return nil, false
	}
	raw, ok, err := state.Get(ctx, SnapshotKey)
	if err != nil || !ok {
		return nil, false
	}
	var sn snapshot
	if err := json.Unmarshal(raw, &sn); err != nil {
		return nil, false
	}
	if sn.AccessToken == "" {
		return nil, false
	}
	sess := sn.toSession()
	return &sess, true
}

// saveSnapshot persists the session, or removes the snapshot when sess is
// nil. Best-effort: the caller logs failures and moves on.
func saveSnapshot(ctx context.Context, state *localstate.Store, sess *core.Session) error {
	if state == nil {
		return nil
	}
	if sess == nil {
		return state.Delete(ctx, SnapshotKey)
	}
	raw, err := json.Marshal(snapshotOf(*sess))
	if err != nil {
		return err
	}
	return state.Put(ctx, SnapshotKey, raw)
}
