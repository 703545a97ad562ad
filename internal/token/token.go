// Package token issues and verifies the HS256 access tokens handed out by
// the fixture backend and the mock API.
package token

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/wisekey/langcenter/internal/model"
)

// ErrInvalid is returned for any token that fails verification.
var ErrInvalid = errors.New("invalid token")

// Claims extends JWT standard claims with the caller's identity.
type Claims struct {
	jwt.RegisteredClaims
	UserID   int64    `json:"user_id"`
	Username string   `json:"username"`
	Roles    []string `json:"roles"`
}

// Role returns the primary role carried by the token.
func (c *Claims) Role() model.Role {
	if len(c.Roles) == 0 {
		return model.RoleUnknown
	}
	return model.ParseRole(c.Roles[0])
}

// Issuer signs and validates tokens with a shared secret.
type Issuer struct {
	secret []byte
	expiry time.Duration
	now    func() time.Time
}

// NewIssuer creates an Issuer. A non-positive expiry defaults to 24h.
func NewIssuer(secret string, expiry time.Duration) *Issuer {
	if expiry <= 0 {
		expiry = 24 * time.Hour
	}
	return &Issuer{secret: []byte(secret), expiry: expiry, now: time.Now}
}

// Issue creates a signed token for user.
func (i *Issuer) Issue(user model.UserSummary) (string, error) {
	now := i.now()

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   strconv.FormatInt(user.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.expiry)),
		},
		UserID:   user.ID,
		Username: user.Username,
		Roles:    append([]string(nil), user.Roles...),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Validate parses and verifies tokenStr. Every failure wraps ErrInvalid.
func (i *Issuer) Validate(tokenStr string) (*Claims, error) {
	tok, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return i.secret, nil
	}, jwt.WithTimeFunc(i.now))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	claims, ok := tok.Claims.(*Claims)
	if !ok || !tok.Valid || claims.UserID <= 0 {
		return nil, ErrInvalid
	}
	return claims, nil
}
