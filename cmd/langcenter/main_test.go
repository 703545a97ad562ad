package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
)

// mockEnv points the CLI at the built-in sample data with a session file
// private to the test.
func mockEnv(t *testing.T) {
	t.Helper()
	t.Setenv("USE_MOCK", "true")
	t.Setenv("SESSION_BACKEND", "file")
	t.Setenv("SESSION_FILE", filepath.Join(t.TempDir(), "session.json"))
	t.Setenv("BCRYPT_COST", "4")
	t.Setenv("JWT_SECRET", "cli-test-secret")
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("LOG_FORMAT", "json")
}

func runCLI(t *testing.T, args ...string) (code int, stdout, stderr string) {
	t.Helper()
	var out, errOut bytes.Buffer
	code = run(args, &out, &errOut)
	return code, out.String(), errOut.String()
}

func TestLoginWhoamiLogout(t *testing.T) {
	mockEnv(t)

	code, out, errOut := runCLI(t, "login", "-u", "admin", "-p", "admin123")
	if code != 0 {
		t.Fatalf("login exit %d: %s", code, errOut)
	}
	if !strings.Contains(out, "Logged in as Admin User") || !strings.Contains(out, "/admin/dashboard") {
		t.Errorf("login output = %q", out)
	}

	// The session file carries the login into the next process.
	code, out, _ = runCLI(t, "whoami")
	if code != 0 || !strings.Contains(out, "admin@wisekey.com") {
		t.Errorf("whoami exit %d: %q", code, out)
	}

	code, out, _ = runCLI(t, "dashboard")
	if code != 0 || !strings.Contains(out, "Students") {
		t.Errorf("dashboard exit %d: %q", code, out)
	}

	if code, _, errOut = runCLI(t, "logout"); code != 0 {
		t.Fatalf("logout exit %d: %s", code, errOut)
	}
	code, _, errOut = runCLI(t, "whoami")
	if code != 1 || !strings.Contains(errOut, "not logged in") {
		t.Errorf("whoami after logout exit %d: %q", code, errOut)
	}
}

func TestLoginRejected(t *testing.T) {
	mockEnv(t)

	code, _, errOut := runCLI(t, "login", "-u", "admin", "-p", "wrong-password")
	if code != 1 {
		t.Errorf("exit = %d", code)
	}
	if !strings.HasPrefix(errOut, "error:") {
		t.Errorf("stderr = %q", errOut)
	}
}

func TestUsageErrors(t *testing.T) {
	mockEnv(t)

	tests := [][]string{
		{},
		{"bogus"},
		{"open"},
		{"enroll", "abc"},
		{"courses", "-nope"},
	}
	for _, args := range tests {
		if code, _, _ := runCLI(t, args...); code != 2 {
			t.Errorf("%v: exit %d, want 2", args, code)
		}
	}
}

func TestOpenFollowsGuard(t *testing.T) {
	mockEnv(t)

	if _, out, _ := runCLI(t, "open", "/admin/dashboard"); strings.TrimSpace(out) != "/login" {
		t.Errorf("anonymous open = %q", out)
	}

	if code, _, errOut := runCLI(t, "login", "-u", "teacher", "-p", "teacher123"); code != 0 {
		t.Fatal(errOut)
	}
	if _, out, _ := runCLI(t, "open", "/admin/dashboard"); strings.TrimSpace(out) != "/teacher/dashboard" {
		t.Errorf("teacher open = %q", out)
	}
	if _, out, _ := runCLI(t, "open", "/no/such/page"); strings.TrimSpace(out) != "/404" {
		t.Errorf("unknown open = %q", out)
	}
}

func TestStudentBrowsesAndEnrolls(t *testing.T) {
	mockEnv(t)

	if code, _, errOut := runCLI(t, "login", "-u", "student", "-p", "student123"); code != 0 {
		t.Fatal(errOut)
	}

	code, out, _ := runCLI(t, "courses", "-q", "toeic")
	if code != 0 || !strings.Contains(out, "TOEIC-450") {
		t.Errorf("courses exit %d: %q", code, out)
	}

	code, out, errOut := runCLI(t, "enroll", "2")
	if code != 0 || !strings.Contains(out, "Enrolled in") {
		t.Errorf("enroll exit %d: %q %q", code, out, errOut)
	}

	code, _, errOut = runCLI(t, "enroll", "1")
	if code != 1 || !strings.Contains(errOut, "error:") {
		t.Errorf("duplicate enroll exit %d: %q", code, errOut)
	}
}

func TestTeacherTakesAttendance(t *testing.T) {
	mockEnv(t)

	if code, _, errOut := runCLI(t, "login", "-u", "teacher", "-p", "teacher123"); code != 0 {
		t.Fatal(errOut)
	}

	code, out, errOut := runCLI(t, "attendance", "-class", "1", "-date", "2024-03-04", "3=present", "5=absent")
	if code != 0 {
		t.Fatalf("attendance exit %d: %s", code, errOut)
	}
	if !strings.Contains(out, "PRESENT") || !strings.Contains(out, "ABSENT") {
		t.Errorf("attendance output = %q", out)
	}

	code, _, errOut = runCLI(t, "attendance", "-class", "1", "-date", "2024-03-04", "3=late")
	if code != 1 {
		t.Errorf("bad status exit %d: %q", code, errOut)
	}
}

func TestParseEntry(t *testing.T) {
	e, err := parseEntry("12=excused")
	if err != nil {
		t.Fatal(err)
	}
	if e.StudentID != 12 || e.Status != "EXCUSED" {
		t.Errorf("entry = %+v", e)
	}

	for _, bad := range []string{"12", "x=PRESENT", "0=PRESENT"} {
		if _, err := parseEntry(bad); err == nil {
			t.Errorf("parseEntry(%q) succeeded", bad)
		}
	}
}
