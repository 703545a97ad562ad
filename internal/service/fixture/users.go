package fixture

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/wisekey/langcenter/internal/apierr"
	"github.com/wisekey/langcenter/internal/model"
	"github.com/wisekey/langcenter/internal/response"
	"golang.org/x/crypto/bcrypt"
)

type users struct{ b *Backend }

func (s users) filter(ctx context.Context, keep func(*userRecord) bool) ([]model.User, error) {
	b := s.b
	ctx = b.authenticate(ctx)
	b.mu.RLock()
	defer b.mu.RUnlock()

	if _, err := b.callerLocked(ctx, adminTeacher); err != nil {
		return nil, err
	}
	recs := sortedValues(b.users, keep)
	out := make([]model.User, len(recs))
	for i := range recs {
		out[i] = recs[i].User
	}
	return out, nil
}

func (s users) List(ctx context.Context) ([]model.User, error) {
	return s.filter(ctx, nil)
}

func (s users) ListByRole(ctx context.Context, role model.Role) ([]model.User, error) {
	if role == model.RoleUnknown {
		return nil, invalid("role", "role is invalid")
	}
	return s.filter(ctx, func(u *userRecord) bool { return u.Role == role })
}

func (s users) Search(ctx context.Context, query string) ([]model.User, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	return s.filter(ctx, func(u *userRecord) bool {
		return q == "" || contains(u.Username, q) || contains(u.FullName(), q) || contains(u.Email, q)
	})
}

func (s users) Get(ctx context.Context, id int64) (*model.User, error) {
	b := s.b
	ctx = b.authenticate(ctx)
	b.mu.RLock()
	defer b.mu.RUnlock()

	caller, err := b.callerLocked(ctx, anyone)
	if err != nil {
		return nil, err
	}
	if !staff(caller) && caller.ID != id {
		return nil, errForbidden()
	}
	u, ok := b.users[id]
	if !ok {
		return nil, apierr.NotFound("user", id)
	}
	out := u.User
	return &out, nil
}

func (s users) Create(ctx context.Context, in model.UserInput) (*model.User, error) {
	ctx = s.b.authenticate(ctx)
	if err := check(in); err != nil {
		return nil, err
	}
	if in.Password == "" {
		return nil, invalid("password", "password is a required field")
	}
	hash, err := s.b.hash(in.Password)
	if err != nil {
		return nil, err
	}

	b := s.b
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, err := b.callerLocked(ctx, adminOnly); err != nil {
		return nil, err
	}
	if err := b.uniqueUserLocked(0, in.Username, in.Email); err != nil {
		return nil, err
	}

	now := b.now().UTC()
	u := &userRecord{
		User:         model.User{ID: b.allocID("user"), Status: model.UserActive, CreatedAt: now},
		passwordHash: hash,
	}
	applyUser(&u.User, in, now)
	b.users[u.ID] = u
	out := u.User
	return &out, nil
}

func (s users) Update(ctx context.Context, id int64, in model.UserInput) (*model.User, error) {
	ctx = s.b.authenticate(ctx)
	if err := check(in); err != nil {
		return nil, err
	}
	var hash []byte
	if in.Password != "" {
		var err error
		if hash, err = s.b.hash(in.Password); err != nil {
			return nil, err
		}
	}

	b := s.b
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, err := b.callerLocked(ctx, adminOnly); err != nil {
		return nil, err
	}
	u, ok := b.users[id]
	if !ok {
		return nil, apierr.NotFound("user", id)
	}
	if err := b.uniqueUserLocked(id, in.Username, in.Email); err != nil {
		return nil, err
	}

	applyUser(&u.User, in, b.now().UTC())
	if hash != nil {
		u.passwordHash = hash
	}
	out := u.User
	return &out, nil
}

func (s users) Delete(ctx context.Context, id int64) error {
	b := s.b
	ctx = b.authenticate(ctx)
	b.mu.Lock()
	defer b.mu.Unlock()

	caller, err := b.callerLocked(ctx, adminOnly)
	if err != nil {
		return err
	}
	if _, ok := b.users[id]; !ok {
		return apierr.NotFound("user", id)
	}
	if caller.ID == id {
		return invalid("id", "you cannot delete your own account")
	}
	for _, c := range b.classes {
		if c.TeacherID != nil && *c.TeacherID == id {
			return coded(response.ErrDependencyExists, "User still teaches a class.")
		}
	}
	for _, e := range b.enrollments {
		if e.StudentID == id {
			return coded(response.ErrDependencyExists, "User still has enrollments.")
		}
	}
	delete(b.users, id)
	return nil
}

func (s users) Activate(ctx context.Context, id int64) (*model.User, error) {
	return s.setStatus(ctx, id, model.UserActive)
}

func (s users) Deactivate(ctx context.Context, id int64) (*model.User, error) {
	return s.setStatus(ctx, id, model.UserInactive)
}

func (s users) setStatus(ctx context.Context, id int64, status model.UserStatus) (*model.User, error) {
	b := s.b
	ctx = b.authenticate(ctx)
	b.mu.Lock()
	defer b.mu.Unlock()

	caller, err := b.callerLocked(ctx, adminOnly)
	if err != nil {
		return nil, err
	}
	u, ok := b.users[id]
	if !ok {
		return nil, apierr.NotFound("user", id)
	}
	if caller.ID == id && status == model.UserInactive {
		return nil, invalid("id", "you cannot deactivate your own account")
	}
	u.Status = status
	u.UpdatedAt = b.now().UTC()
	out := u.User
	return &out, nil
}

// ResetPassword replaces the password with a random one and returns it.
func (s users) ResetPassword(ctx context.Context, id int64) (*model.PasswordReset, error) {
	ctx = s.b.authenticate(ctx)
	password := strings.ReplaceAll(uuid.NewString(), "-", "")[:10]
	hash, err := s.b.hash(password)
	if err != nil {
		return nil, err
	}

	b := s.b
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, err := b.callerLocked(ctx, adminOnly); err != nil {
		return nil, err
	}
	u, ok := b.users[id]
	if !ok {
		return nil, apierr.NotFound("user", id)
	}
	u.passwordHash = hash
	u.UpdatedAt = b.now().UTC()
	return &model.PasswordReset{Message: "Password reset successfully", NewPassword: password}, nil
}

func (s users) ChangePassword(ctx context.Context, in model.ChangePasswordInput) error {
	ctx = s.b.authenticate(ctx)
	if err := check(in); err != nil {
		return err
	}

	b := s.b
	b.mu.RLock()
	caller, err := b.callerLocked(ctx, anyone)
	var current []byte
	if err == nil {
		current = caller.passwordHash
	}
	b.mu.RUnlock()
	if err != nil {
		return err
	}

	if bcrypt.CompareHashAndPassword(current, []byte(in.OldPassword)) != nil {
		return invalid("oldPassword", "current password is incorrect")
	}
	hash, err := b.hash(in.NewPassword)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if u, ok := b.users[caller.ID]; ok {
		u.passwordHash = hash
		u.UpdatedAt = b.now().UTC()
	}
	return nil
}

func (s users) Profile(ctx context.Context) (*model.User, error) {
	b := s.b
	ctx = b.authenticate(ctx)
	b.mu.RLock()
	defer b.mu.RUnlock()

	caller, err := b.callerLocked(ctx, anyone)
	if err != nil {
		return nil, err
	}
	out := caller.User
	return &out, nil
}

func (s users) UpdateProfile(ctx context.Context, in model.ProfileInput) (*model.User, error) {
	ctx = s.b.authenticate(ctx)
	if err := check(in); err != nil {
		return nil, err
	}
	b := s.b
	b.mu.Lock()
	defer b.mu.Unlock()

	caller, err := b.callerLocked(ctx, anyone)
	if err != nil {
		return nil, err
	}
	if err := b.uniqueUserLocked(caller.ID, caller.Username, in.Email); err != nil {
		return nil, err
	}

	caller.FirstName = in.FirstName
	caller.LastName = in.LastName
	caller.Email = in.Email
	caller.Phone = in.Phone
	caller.UpdatedAt = b.now().UTC()
	out := caller.User
	return &out, nil
}

func applyUser(u *model.User, in model.UserInput, now time.Time) {
	u.Username = in.Username
	u.FirstName = in.FirstName
	u.LastName = in.LastName
	u.Email = in.Email
	u.Phone = in.Phone
	u.Role = in.Role
	if in.Status != "" {
		u.Status = in.Status
	}
	u.UpdatedAt = now
}
