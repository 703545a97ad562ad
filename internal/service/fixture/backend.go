// Package fixture is an in-memory backend honoring the same contract as the
// REST API: the same validation, authorization and error codes. It backs
// USE_MOCK mode in the client and the handlers of the mock API server.
package fixture

import (
	"cmp"
	"context"
	"fmt"
	"maps"
	"math"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/wisekey/langcenter/internal/apierr"
	"github.com/wisekey/langcenter/internal/logger"
	"github.com/wisekey/langcenter/internal/model"
	"github.com/wisekey/langcenter/internal/response"
	"github.com/wisekey/langcenter/internal/service"
	"github.com/wisekey/langcenter/internal/token"
	"github.com/wisekey/langcenter/internal/validator"
	"golang.org/x/crypto/bcrypt"
)

type userRecord struct {
	model.User
	passwordHash []byte
}

// Backend owns the fixture data set. All methods are safe for concurrent use.
type Backend struct {
	mu          sync.RWMutex
	users       map[int64]*userRecord
	courses     map[int64]*model.Course
	classes     map[int64]*model.Class
	enrollments map[int64]*model.Enrollment
	grades      map[int64]*model.Grade
	attendance  map[int64]*model.AttendanceRecord
	nextID      map[string]int64

	tokens         *token.Issuer
	tokenSource    func() string
	onUnauthorized UnauthorizedFunc
	bcryptCost     int
	now            func() time.Time
	log            zerolog.Logger
}

// UnauthorizedFunc receives the bearer token a call was rejected for. It
// runs without the backend lock held.
type UnauthorizedFunc func(ctx context.Context, token string)

// Option configures a Backend.
type Option func(*Backend)

// WithTokenSource resolves the caller from a bearer token when the context
// carries no caller. In-process clients pass the session store's Token.
func WithTokenSource(fn func() string) Option {
	return func(b *Backend) { b.tokenSource = fn }
}

// WithUnauthorizedHook sets the hook fired when a token from the token
// source is rejected.
func WithUnauthorizedHook(fn UnauthorizedFunc) Option {
	return func(b *Backend) { b.onUnauthorized = fn }
}

// WithBcryptCost overrides the password hashing cost.
func WithBcryptCost(cost int) Option {
	return func(b *Backend) { b.bcryptCost = cost }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(b *Backend) { b.now = now }
}

// New creates a Backend seeded with the demo data set.
func New(tokens *token.Issuer, log zerolog.Logger, opts ...Option) (*Backend, error) {
	b := &Backend{
		users:       make(map[int64]*userRecord),
		courses:     make(map[int64]*model.Course),
		classes:     make(map[int64]*model.Class),
		enrollments: make(map[int64]*model.Enrollment),
		grades:      make(map[int64]*model.Grade),
		attendance:  make(map[int64]*model.AttendanceRecord),
		nextID:      make(map[string]int64),
		tokens:      tokens,
		bcryptCost:  bcrypt.DefaultCost,
		now:         time.Now,
		log:         logger.Component(log, "fixture"),
	}
	for _, opt := range opts {
		opt(b)
	}
	if err := b.seed(); err != nil {
		return nil, fmt.Errorf("seed fixtures: %w", err)
	}
	return b, nil
}

// Services exposes the Backend through the service facades.
func (b *Backend) Services() *service.Services {
	return &service.Services{
		Auth:        authAPI{b},
		Courses:     courses{b},
		Classes:     classes{b},
		Users:       users{b},
		Enrollments: enrollments{b},
		Grades:      grades{b},
		Attendance:  attendance{b},
		Dashboard:   dashboard{b},
	}
}

// ─── Identity ──────────────────────────────────────────────────────────

var (
	anyone       = model.Roles()
	adminOnly    = model.Roles(model.RoleAdmin)
	adminTeacher = model.Roles(model.RoleAdmin, model.RoleTeacher)
)

func errUnauthorized() error {
	return apierr.New(apierr.ErrUnauthorized, response.ErrTokenInvalid, "")
}

func errForbidden() error {
	return apierr.New(apierr.ErrForbidden, response.ErrForbidden, "")
}

type authFailureKey struct{}

// authenticate resolves the token source into a caller before any lock is
// taken. A rejection fires the unauthorized hook with the rejected token and
// is carried in the returned context for callerLocked to report.
func (b *Backend) authenticate(ctx context.Context) context.Context {
	if _, ok := service.CallerFrom(ctx); ok || b.tokenSource == nil {
		return ctx
	}

	raw := b.tokenSource()
	var failure error
	if raw == "" {
		failure = apierr.New(apierr.ErrUnauthorized, response.ErrTokenRequired, "")
	} else if id, err := b.resolve(raw); err != nil {
		failure = err
	} else {
		return service.WithCaller(ctx, id)
	}

	b.log.Debug().Err(failure).Msg("Token rejected")
	if b.onUnauthorized != nil {
		b.onUnauthorized(ctx, raw)
	}
	return context.WithValue(ctx, authFailureKey{}, failure)
}

// resolve maps a bearer token to an active user.
func (b *Backend) resolve(raw string) (int64, error) {
	claims, err := b.tokens.Validate(raw)
	if err != nil {
		return 0, errUnauthorized()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	u, found := b.users[claims.UserID]
	if !found || u.Status != model.UserActive {
		return 0, errUnauthorized()
	}
	return u.ID, nil
}

// callerLocked authorizes the caller established by authenticate or by the
// request context. An empty role set admits every authenticated, active
// user. Callers hold b.mu.
func (b *Backend) callerLocked(ctx context.Context, allowed model.RoleSet) (*userRecord, error) {
	if failure, ok := ctx.Value(authFailureKey{}).(error); ok {
		return nil, failure
	}
	id, ok := service.CallerFrom(ctx)
	if !ok {
		return nil, apierr.New(apierr.ErrUnauthorized, response.ErrTokenRequired, "")
	}

	u, found := b.users[id]
	if !found || u.Status != model.UserActive {
		return nil, errUnauthorized()
	}
	if !allowed.Empty() && !allowed.Has(u.Role) {
		return nil, errForbidden()
	}
	return u, nil
}

// staff reports whether u may see any student's records.
func staff(u *userRecord) bool {
	return u.Role == model.RoleAdmin || u.Role == model.RoleTeacher
}

// mayTeach reports whether u may write grades or attendance for class c.
func mayTeach(u *userRecord, c *model.Class) bool {
	if u.Role == model.RoleAdmin {
		return true
	}
	return u.Role == model.RoleTeacher && c.TeacherID != nil && *c.TeacherID == u.ID
}

// ─── Helpers ───────────────────────────────────────────────────────────

func (b *Backend) allocID(kind string) int64 {
	b.nextID[kind]++
	return b.nextID[kind]
}

func (b *Backend) hash(password string) ([]byte, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), b.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	return h, nil
}

func check(v any) error {
	if fields := validator.Struct(v); fields != nil {
		return apierr.Validation(fields)
	}
	return nil
}

func invalid(field, message string) error {
	e := apierr.Validation(map[string]string{field: message})
	e.Message = message
	return e
}

func coded(code response.ErrCode, message string) error {
	return apierr.New(apierr.ErrValidation, code, message)
}

// sortedValues copies map values ordered by id.
func sortedValues[V any](m map[int64]*V, keep func(*V) bool) []V {
	ids := slices.Sorted(maps.Keys(m))
	out := make([]V, 0, len(ids))
	for _, id := range ids {
		if keep == nil || keep(m[id]) {
			out = append(out, *m[id])
		}
	}
	return out
}

func contains(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), needle)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func byNewest(a, b model.Enrollment) int {
	if c := b.EnrolledAt.Compare(a.EnrolledAt); c != 0 {
		return c
	}
	return cmp.Compare(b.ID, a.ID)
}
