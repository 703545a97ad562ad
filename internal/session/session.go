// Package session holds the process-wide authenticated identity: an opaque
// access token plus the cached user snapshot. Token and user are always
// written, read and cleared together.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/wisekey/langcenter/internal/logger"
	"github.com/wisekey/langcenter/internal/model"
)

var (
	// ErrIncomplete is returned by Set when the token or the user is missing.
	ErrIncomplete = errors.New("session requires both a token and a user")
)

// Session is an authenticated identity. IssuedAt records when the client
// stored it.
type Session struct {
	Token    string            `json:"accessToken"`
	User     model.UserSummary `json:"user"`
	IssuedAt time.Time         `json:"issuedAt"`
}

// Role is shorthand for the cached user's role.
func (s *Session) Role() model.Role {
	if s == nil {
		return model.RoleUnknown
	}
	return s.User.Role
}

func (s *Session) clone() *Session {
	c := *s
	c.User.Roles = append([]string(nil), s.User.Roles...)
	if c.User.Roles == nil {
		c.User.Roles = []string{}
	}
	return &c
}

// storedUser is the serialized form of the "user" key.
type storedUser struct {
	model.UserSummary
	IssuedAt time.Time `json:"issuedAt,omitempty"`
}

// Store is the single authority for who is logged in. It is safe for
// concurrent use; concurrent writers resolve as last write wins.
type Store struct {
	mu      sync.RWMutex
	current *Session
	storage Storage
	log     zerolog.Logger
	now     func() time.Time
}

// NewStore creates an anonymous Store backed by storage. Call Load to
// restore a persisted session.
func NewStore(storage Storage, log zerolog.Logger) *Store {
	return &Store{
		storage: storage,
		log:     logger.Component(log, "session"),
		now:     time.Now,
	}
}

// Load initializes the Store from durable storage. A partial or corrupt
// record is purged and the Store stays anonymous.
func (s *Store) Load(ctx context.Context) error {
	rec, err := s.storage.Load(ctx)
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = nil

	if rec.Empty() {
		return nil
	}

	sess, err := decodeRecord(rec)
	if err != nil {
		s.log.Warn().Err(err).Msg("Discarding incomplete stored session")
		if err := s.storage.Remove(ctx); err != nil {
			return fmt.Errorf("purge session: %w", err)
		}
		return nil
	}

	s.current = sess
	s.log.Debug().Str("username", sess.User.Username).Msg("Session restored")
	return nil
}

// Set persists token and user together and makes them current. When the
// write fails the previous session stays in effect.
func (s *Store) Set(ctx context.Context, token string, user model.UserSummary) (*Session, error) {
	if token == "" || user.IsZero() {
		return nil, ErrIncomplete
	}

	sess := (&Session{Token: token, User: user, IssuedAt: s.now().UTC()}).clone()
	rec, err := encodeRecord(sess)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.storage.Save(ctx, rec); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	s.current = sess
	return sess.clone(), nil
}

// Get returns a copy of the current session, or nil when anonymous.
func (s *Store) Get() *Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil
	}
	return s.current.clone()
}

// Token returns the current access token, or "" when anonymous.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return ""
	}
	return s.current.Token
}

// Clear removes the session. Clearing an anonymous Store is a no-op on
// memory but still purges storage.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clearLocked(ctx)
}

// ClearIfToken clears the session only while token is still current.
// Among concurrent callers holding the same token exactly one gets true.
func (s *Store) ClearIfToken(ctx context.Context, token string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil || token == "" || s.current.Token != token {
		return false, nil
	}
	if err := s.clearLocked(ctx); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store) clearLocked(ctx context.Context) error {
	// Memory goes first so a storage failure still ends the session in-process.
	s.current = nil
	if err := s.storage.Remove(ctx); err != nil {
		return fmt.Errorf("remove session: %w", err)
	}
	return nil
}

func encodeRecord(sess *Session) (Record, error) {
	user, err := json.Marshal(storedUser{UserSummary: sess.User, IssuedAt: sess.IssuedAt})
	if err != nil {
		return Record{}, fmt.Errorf("encode user: %w", err)
	}
	return Record{AccessToken: sess.Token, User: user}, nil
}

func decodeRecord(rec Record) (*Session, error) {
	if !rec.Complete() {
		return nil, errors.New("token and user must both be present")
	}
	var u storedUser
	if err := json.Unmarshal(rec.User, &u); err != nil {
		return nil, fmt.Errorf("decode user: %w", err)
	}
	if u.UserSummary.IsZero() {
		return nil, errors.New("stored user is empty")
	}
	if u.Roles == nil {
		u.Roles = []string{}
	}
	return &Session{Token: rec.AccessToken, User: u.UserSummary, IssuedAt: u.IssuedAt}, nil
}
