package fixture

import (
	"context"
	"strings"

	"github.com/wisekey/langcenter/internal/apierr"
	"github.com/wisekey/langcenter/internal/model"
	"github.com/wisekey/langcenter/internal/response"
	"golang.org/x/crypto/bcrypt"
)

type authAPI struct{ b *Backend }

func (a authAPI) Login(ctx context.Context, req model.LoginRequest) (*model.LoginResponse, error) {
	if err := check(req); err != nil {
		return nil, err
	}

	b := a.b
	b.mu.RLock()
	var found *userRecord
	for _, u := range b.users {
		if u.Username == req.Username {
			cp := *u
			found = &cp
			break
		}
	}
	b.mu.RUnlock()

	// Hash comparison runs outside the lock; the copy is enough.
	if found == nil || bcrypt.CompareHashAndPassword(found.passwordHash, []byte(req.Password)) != nil {
		b.log.Debug().Str("username", req.Username).Msg("Login rejected")
		return nil, apierr.New(apierr.ErrInvalidCredentials, response.ErrInvalidCredentials, "")
	}
	if found.Status != model.UserActive {
		return nil, apierr.New(apierr.ErrInvalidCredentials, response.ErrAccountInactive, "")
	}

	summary := found.Summary()
	tok, err := b.tokens.Issue(summary)
	if err != nil {
		return nil, err
	}

	return &model.LoginResponse{
		AccessToken: tok,
		TokenType:   "Bearer",
		ID:          found.ID,
		Username:    found.Username,
		Email:       found.Email,
		FullName:    found.FullName(),
		Phone:       found.Phone,
		Roles:       summary.Roles,
	}, nil
}

// Register creates an active student account. It does not log in.
func (a authAPI) Register(ctx context.Context, req model.RegisterRequest) (*model.User, error) {
	if err := check(req); err != nil {
		return nil, err
	}

	hash, err := a.b.hash(req.Password)
	if err != nil {
		return nil, err
	}
	first, last := model.SplitFullName(req.FullName)

	b := a.b
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.uniqueUserLocked(0, req.Username, req.Email); err != nil {
		return nil, err
	}

	now := b.now().UTC()
	u := &userRecord{
		User: model.User{
			ID:        b.allocID("user"),
			Username:  req.Username,
			FirstName: first,
			LastName:  last,
			Email:     req.Email,
			Phone:     req.Phone,
			Role:      model.RoleStudent,
			Status:    model.UserActive,
			CreatedAt: now,
			UpdatedAt: now,
		},
		passwordHash: hash,
	}
	b.users[u.ID] = u
	b.log.Info().Int64("user_id", u.ID).Str("username", u.Username).Msg("User registered")

	out := u.User
	return &out, nil
}

// uniqueUserLocked rejects a username or email already used by a user
// other than self.
func (b *Backend) uniqueUserLocked(self int64, username, email string) error {
	for _, u := range b.users {
		if u.ID == self {
			continue
		}
		if u.Username == username {
			e := apierr.Conflict("Username already exists.")
			e.Fields = map[string]string{"username": "username already exists"}
			return e
		}
		if email != "" && strings.EqualFold(u.Email, email) {
			e := apierr.Conflict("Email already in use.")
			e.Fields = map[string]string{"email": "email already in use"}
			return e
		}
	}
	return nil
}
