package app

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/wisekey/langcenter/internal/apierr"
	"github.com/wisekey/langcenter/internal/config"
	"github.com/wisekey/langcenter/internal/model"
	"golang.org/x/crypto/bcrypt"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		APIBaseURL:     "http://127.0.0.1:1",
		HTTPTimeout:    2 * time.Second,
		SessionBackend: config.SessionBackendMemory,
		SessionFile:    filepath.Join(t.TempDir(), "session.json"),
		JWTSecret:      "test-secret",
		JWTExpiry:      time.Hour,
		BcryptCost:     bcrypt.MinCost,
	}
}

func TestMockModeLoginAndNavigate(t *testing.T) {
	cfg := testConfig(t)
	cfg.UseMock = true
	ctx := context.Background()

	a, err := New(ctx, cfg, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()

	if _, err := a.Auth.Login(ctx, "teacher", "teacher123"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if got := a.Nav.Navigate("/admin/dashboard"); got != "/teacher/dashboard" {
		t.Errorf("Navigate = %q", got)
	}

	classes, err := a.Services.Classes.ListByTeacher(ctx, a.Store.Get().User.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(classes) == 0 {
		t.Error("teacher has no classes")
	}
}

func TestFileSessionSurvivesRestart(t *testing.T) {
	cfg := testConfig(t)
	cfg.UseMock = true
	cfg.SessionBackend = config.SessionBackendFile
	ctx := context.Background()

	first, err := New(ctx, cfg, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := first.Auth.Login(ctx, "student", "student123"); err != nil {
		t.Fatal(err)
	}
	first.Close()

	second, err := New(ctx, cfg, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	defer second.Close()

	sess := second.Auth.Current()
	if sess == nil || sess.Role() != model.RoleStudent {
		t.Fatalf("restored session = %+v", sess)
	}
	// The fixture token is a signed JWT, so a new process accepts it.
	if _, err := second.Services.Enrollments.ListByStudent(ctx, sess.User.ID); err != nil {
		t.Errorf("restored token rejected: %v", err)
	}
}

func TestMockModeRevokedTokenForcesLogin(t *testing.T) {
	cfg := testConfig(t)
	cfg.UseMock = true
	ctx := context.Background()

	a, err := New(ctx, cfg, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()

	user := model.UserSummary{ID: 1, Username: "admin", Role: model.RoleAdmin, Roles: []string{"ROLE_ADMIN"}}
	if _, err := a.Store.Set(ctx, "not-a-jwt", user); err != nil {
		t.Fatal(err)
	}
	a.Nav.Navigate("/admin/users")

	if _, err := a.Services.Users.List(ctx); !errors.Is(err, apierr.ErrUnauthorized) {
		t.Fatalf("err = %v", err)
	}
	if a.Store.Get() != nil {
		t.Error("session survived a rejected token")
	}
	if a.Nav.Current() != "/login" {
		t.Errorf("Current = %q", a.Nav.Current())
	}
}

func TestMockModeStaleRejectionKeepsNewSession(t *testing.T) {
	cfg := testConfig(t)
	cfg.UseMock = true
	ctx := context.Background()

	a, err := New(ctx, cfg, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()

	if _, err := a.Auth.Login(ctx, "teacher", "teacher123"); err != nil {
		t.Fatal(err)
	}
	a.Nav.Navigate("/teacher/dashboard")

	// A rejection of an older token arrives after the new login.
	a.unauthorized(ctx, "not-a-jwt")

	sess := a.Store.Get()
	if sess == nil || sess.Role() != model.RoleTeacher {
		t.Fatalf("session = %+v", sess)
	}
	if a.Nav.Current() != "/teacher/dashboard" {
		t.Errorf("Current = %q", a.Nav.Current())
	}
}

func TestRemoteModeUnauthorizedForcesLogin(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"expired"}`))
	}))
	defer srv.Close()

	cfg := testConfig(t)
	cfg.APIBaseURL = srv.URL
	ctx := context.Background()

	a, err := New(ctx, cfg, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()

	user := model.UserSummary{ID: 3, Username: "student", Role: model.RoleStudent, Roles: []string{"ROLE_STUDENT"}}
	if _, err := a.Store.Set(ctx, "tok", user); err != nil {
		t.Fatal(err)
	}
	a.Nav.Navigate("/student/courses")

	_, err = a.Services.Courses.List(ctx)
	if !errors.Is(err, apierr.ErrUnauthorized) {
		t.Fatalf("err = %v", err)
	}
	if a.Store.Get() != nil {
		t.Error("session not cleared")
	}
	if a.Nav.Current() != "/login" {
		t.Errorf("Current = %q", a.Nav.Current())
	}
}

func TestUnknownSessionBackend(t *testing.T) {
	cfg := testConfig(t)
	cfg.SessionBackend = "floppy"
	if _, err := New(context.Background(), cfg, zerolog.Nop()); err == nil {
		t.Error("expected an error")
	}
}
