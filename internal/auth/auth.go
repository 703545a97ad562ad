// Package auth turns credentials into a session and back. It is the only
// place that creates a session; the HTTP client may only clear one.
package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/wisekey/langcenter/internal/apierr"
	"github.com/wisekey/langcenter/internal/logger"
	"github.com/wisekey/langcenter/internal/model"
	"github.com/wisekey/langcenter/internal/service"
	"github.com/wisekey/langcenter/internal/session"
	"github.com/wisekey/langcenter/internal/validator"
)

// ErrNotLoggedIn is returned by calls that need a session when there is none.
var ErrNotLoggedIn = errors.New("not logged in")

type Service struct {
	api   service.AuthAPI
	users service.UserService
	store *session.Store
	log   zerolog.Logger
}

func NewService(api service.AuthAPI, users service.UserService, store *session.Store, log zerolog.Logger) *Service {
	return &Service{
		api:   api,
		users: users,
		store: store,
		log:   logger.Component(log, "auth"),
	}
}

// ─── Login / Logout ────────────────────────────────────────────────────

// Login authenticates and replaces the current session. On any failure the
// previous session, if any, is left as it was.
func (s *Service) Login(ctx context.Context, username, password string) (*session.Session, error) {
	req := model.LoginRequest{Username: username, Password: password}
	if fields := validator.Struct(req); fields != nil {
		return nil, apierr.Validation(fields)
	}

	resp, err := s.api.Login(ctx, req)
	if err != nil {
		s.log.Debug().Err(err).Str("username", username).Msg("Login failed")
		return nil, err
	}

	sess, err := s.store.Set(ctx, resp.AccessToken, model.NewUserSummary(resp))
	if err != nil {
		return nil, fmt.Errorf("start session: %w", err)
	}
	s.log.Info().
		Int64("user_id", sess.User.ID).
		Str("role", sess.Role().String()).
		Msg("Logged in")
	return sess, nil
}

// Logout ends the local session. The backend keeps no session state, so
// nothing is sent.
func (s *Service) Logout(ctx context.Context) error {
	if err := s.store.Clear(ctx); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	s.log.Info().Msg("Logged out")
	return nil
}

// Register creates a student account. It does not log in.
func (s *Service) Register(ctx context.Context, in model.RegisterInput) (*model.User, error) {
	if fields := validator.Struct(in); fields != nil {
		// ConfirmPassword has no wire name.
		if msg, ok := fields["ConfirmPassword"]; ok {
			delete(fields, "ConfirmPassword")
			fields["confirmPassword"] = msg
		}
		return nil, apierr.Validation(fields)
	}
	u, err := s.api.Register(ctx, in.Request())
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("username", u.Username).Msg("Registered")
	return u, nil
}

// ─── Current user ──────────────────────────────────────────────────────

// Current returns the current session, or nil when anonymous.
func (s *Service) Current() *session.Session {
	return s.store.Get()
}

func (s *Service) IsAdmin() bool   { return IsAdmin(s.store.Get()) }
func (s *Service) IsTeacher() bool { return IsTeacher(s.store.Get()) }
func (s *Service) IsStudent() bool { return IsStudent(s.store.Get()) }

// UpdateProfile saves the caller's profile and refreshes the cached user so
// the session reflects the new name and email.
func (s *Service) UpdateProfile(ctx context.Context, in model.ProfileInput) (*model.User, error) {
	sess := s.store.Get()
	if sess == nil {
		return nil, ErrNotLoggedIn
	}
	if fields := validator.Struct(in); fields != nil {
		return nil, apierr.Validation(fields)
	}

	u, err := s.users.UpdateProfile(ctx, in)
	if err != nil {
		return nil, err
	}

	cached := sess.User
	cached.FirstName = u.FirstName
	cached.LastName = u.LastName
	cached.Email = u.Email
	cached.Phone = u.Phone
	if _, err := s.store.Set(ctx, sess.Token, cached); err != nil {
		return nil, fmt.Errorf("refresh session: %w", err)
	}
	return u, nil
}

// ─── Role predicates ───────────────────────────────────────────────────

func IsAdmin(sess *session.Session) bool   { return hasRole(sess, model.RoleAdmin) }
func IsTeacher(sess *session.Session) bool { return hasRole(sess, model.RoleTeacher) }
func IsStudent(sess *session.Session) bool { return hasRole(sess, model.RoleStudent) }

func hasRole(sess *session.Session, r model.Role) bool {
	return sess != nil && sess.Role() == r
}
