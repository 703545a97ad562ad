package model

import (
	"strings"
	"time"
)

// UserSummary is the identity snapshot cached with a session.
// Role always equals the first entry of Roles.
type UserSummary struct {
	ID        int64    `json:"id"`
	Username  string   `json:"username"`
	FirstName string   `json:"firstName"`
	LastName  string   `json:"lastName"`
	Email     string   `json:"email"`
	Phone     string   `json:"phone,omitempty"`
	Role      Role     `json:"role"`
	Roles     []string `json:"roles"`
}

// FullName joins first and last name.
func (u UserSummary) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// IsZero reports whether u carries no identity.
func (u UserSummary) IsZero() bool {
	return u.ID == 0 && u.Username == ""
}

// LoginRequest is the credential payload for POST /auth/login.
type LoginRequest struct {
	Username string `json:"username" binding:"required,max=50"`
	Password string `json:"password" binding:"required,max=128"`
}

// LoginResponse is what the backend returns after a successful login.
type LoginResponse struct {
	AccessToken string   `json:"accessToken"`
	TokenType   string   `json:"tokenType,omitempty"`
	ID          int64    `json:"id"`
	Username    string   `json:"username"`
	Email       string   `json:"email"`
	FullName    string   `json:"fullName"`
	Phone       string   `json:"phone,omitempty"`
	Roles       []string `json:"roles"`
}

// NewUserSummary derives the cached identity from a login response.
func NewUserSummary(resp *LoginResponse) UserSummary {
	first, last := SplitFullName(resp.FullName)
	roles := append([]string(nil), resp.Roles...)
	if roles == nil {
		roles = []string{}
	}
	var role Role
	if len(roles) > 0 {
		role = ParseRole(roles[0])
	}
	return UserSummary{
		ID:        resp.ID,
		Username:  resp.Username,
		FirstName: first,
		LastName:  last,
		Email:     resp.Email,
		Phone:     resp.Phone,
		Role:      role,
		Roles:     roles,
	}
}

// SplitFullName splits at the first run of whitespace:
// "Nguyễn Giáo Viên" → ("Nguyễn", "Giáo Viên").
func SplitFullName(full string) (first, last string) {
	full = strings.TrimSpace(full)
	i := strings.IndexAny(full, " \t")
	if i < 0 {
		return full, ""
	}
	return full[:i], strings.TrimSpace(full[i+1:])
}

// User is the account entity managed by admins.
type User struct {
	ID        int64      `json:"id"`
	Username  string     `json:"username"`
	FirstName string     `json:"firstName"`
	LastName  string     `json:"lastName"`
	Email     string     `json:"email"`
	Phone     string     `json:"phone,omitempty"`
	Role      Role       `json:"role"`
	Status    UserStatus `json:"status"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

func (u User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// Summary converts u into the session snapshot form.
func (u User) Summary() UserSummary {
	roles := []string{}
	if u.Role != RoleUnknown {
		roles = append(roles, u.Role.String())
	}
	return UserSummary{
		ID:        u.ID,
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Phone:     u.Phone,
		Role:      u.Role,
		Roles:     roles,
	}
}

// UserInput is the admin payload for creating or updating a user.
// Password is required on create and optional on update.
type UserInput struct {
	Username  string     `json:"username" binding:"required,min=3,max=50"`
	Password  string     `json:"password,omitempty" binding:"omitempty,min=6,max=128"`
	FirstName string     `json:"firstName" binding:"required,max=50"`
	LastName  string     `json:"lastName" binding:"max=50"`
	Email     string     `json:"email" binding:"required,email,max=255"`
	Phone     string     `json:"phone,omitempty" binding:"omitempty,max=20"`
	Role      Role       `json:"role" binding:"required"`
	Status    UserStatus `json:"status,omitempty" binding:"omitempty,oneof=ACTIVE INACTIVE"`
}

// RegisterInput is the self-registration form. ConfirmPassword is checked
// locally and never sent.
type RegisterInput struct {
	Username        string `json:"username" binding:"required,min=3,max=50"`
	Password        string `json:"password" binding:"required,min=6,max=128"`
	ConfirmPassword string `json:"-" binding:"required,eqfield=Password"`
	FullName        string `json:"fullName" binding:"required,max=100"`
	Email           string `json:"email" binding:"required,email,max=255"`
	Phone           string `json:"phone,omitempty" binding:"omitempty,max=20"`
}

// Request strips the form down to the wire payload.
func (in RegisterInput) Request() RegisterRequest {
	return RegisterRequest{
		Username: in.Username,
		Password: in.Password,
		FullName: in.FullName,
		Email:    in.Email,
		Phone:    in.Phone,
	}
}

// RegisterRequest is the payload for POST /auth/register.
type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=50"`
	Password string `json:"password" binding:"required,min=6,max=128"`
	FullName string `json:"fullName" binding:"required,max=100"`
	Email    string `json:"email" binding:"required,email,max=255"`
	Phone    string `json:"phone,omitempty" binding:"omitempty,max=20"`
}

// ProfileInput is what a user may change about themselves.
type ProfileInput struct {
	FirstName string `json:"firstName" binding:"required,max=50"`
	LastName  string `json:"lastName" binding:"max=50"`
	Email     string `json:"email" binding:"required,email,max=255"`
	Phone     string `json:"phone,omitempty" binding:"omitempty,max=20"`
}

// ChangePasswordInput is the payload for PUT /users/change-password.
type ChangePasswordInput struct {
	OldPassword string `json:"oldPassword" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required,min=6,max=128"`
}

// PasswordReset is returned when an admin resets a user's password.
type PasswordReset struct {
	Message     string `json:"message"`
	NewPassword string `json:"newPassword"`
}
