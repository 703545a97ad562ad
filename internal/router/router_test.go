package router

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/wisekey/langcenter/internal/apierr"
	"github.com/wisekey/langcenter/internal/auth"
	"github.com/wisekey/langcenter/internal/client"
	"github.com/wisekey/langcenter/internal/config"
	"github.com/wisekey/langcenter/internal/model"
	"github.com/wisekey/langcenter/internal/response"
	"github.com/wisekey/langcenter/internal/service"
	"github.com/wisekey/langcenter/internal/service/fixture"
	"github.com/wisekey/langcenter/internal/service/remote"
	"github.com/wisekey/langcenter/internal/session"
	"github.com/wisekey/langcenter/internal/token"
	"github.com/wisekey/langcenter/internal/validator"
	"golang.org/x/crypto/bcrypt"
)

type harness struct {
	base  string
	store *session.Store
	svc   *service.Services
	auth  *auth.Service
	kicks *atomic.Int32
}

func newEngine(t *testing.T) *gin.Engine {
	t.Helper()
	validator.Setup()

	issuer := token.NewIssuer("test-secret", time.Hour)
	backend, err := fixture.New(issuer, zerolog.Nop(), fixture.WithBcryptCost(bcrypt.MinCost))
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	cfg := &config.Config{GinMode: gin.TestMode}
	return SetupRouter(ctx, issuer, NewHandlers(backend.Services()), cfg)
}

// newHarness serves the fixture through the router and talks to it with the
// real HTTP client.
func newHarness(t *testing.T) *harness {
	t.Helper()
	srv := httptest.NewServer(newEngine(t))
	t.Cleanup(srv.Close)

	h := &harness{
		base:  srv.URL + "/api",
		store: session.NewStore(session.NewMemoryStorage(), zerolog.Nop()),
		kicks: new(atomic.Int32),
	}
	c := client.New(srv.URL+"/api", 5*time.Second, h.store, zerolog.Nop(),
		client.WithUnauthorizedHook(func(context.Context) { h.kicks.Add(1) }))
	h.svc = remote.New(c)
	h.auth = auth.NewService(h.svc.Auth, h.svc.Users, h.store, zerolog.Nop())
	return h
}

func (h *harness) login(t *testing.T, username, password string) *session.Session {
	t.Helper()
	sess, err := h.auth.Login(context.Background(), username, password)
	if err != nil {
		t.Fatalf("Login(%s): %v", username, err)
	}
	return sess
}

func TestHealth(t *testing.T) {
	engine := newEngine(t)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var env struct {
		Data map[string]string `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatal(err)
	}
	if env.Data["status"] != "ok" {
		t.Errorf("body = %s", w.Body.String())
	}
}

func TestUnknownRoute(t *testing.T) {
	engine := newEngine(t)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/nowhere", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d", w.Code)
	}
}

func TestAPIResponsesAreNotCached(t *testing.T) {
	engine := newEngine(t)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/courses", nil))

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401 without a token", w.Code)
	}
	if got := w.Header().Get("Cache-Control"); got != "no-store" {
		t.Errorf("Cache-Control = %q", got)
	}
}

func TestLoginAndBrowseOverHTTP(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	sess := h.login(t, "admin", "admin123")
	if sess.Role() != model.RoleAdmin {
		t.Errorf("role = %v", sess.Role())
	}

	courses, err := h.svc.Courses.ListActive(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(courses) == 0 {
		t.Fatal("no active courses")
	}
	course, err := h.svc.Courses.Get(ctx, courses[0].ID)
	if err != nil {
		t.Fatal(err)
	}
	if course.Code != courses[0].Code {
		t.Errorf("Get = %+v", course)
	}

	classes, err := h.svc.Classes.ListByCourse(ctx, course.ID)
	if err != nil {
		t.Fatal(err)
	}
	for _, c := range classes {
		if c.CourseID != course.ID {
			t.Errorf("class %d belongs to course %d", c.ID, c.CourseID)
		}
	}

	dash, err := h.svc.Dashboard.Admin(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if dash.TotalCourses == 0 {
		t.Errorf("dashboard = %+v", dash)
	}
}

func TestWrongPasswordIsInvalidCredentials(t *testing.T) {
	h := newHarness(t)

	_, err := h.auth.Login(context.Background(), "admin", "nope-nope")
	if !errors.Is(err, apierr.ErrInvalidCredentials) {
		t.Fatalf("err = %v, want invalid credentials", err)
	}
	if h.kicks.Load() != 0 {
		t.Error("a failed login must not fire the unauthorized hook")
	}
	if h.store.Get() != nil {
		t.Error("no session expected")
	}
}

func TestStudentCannotWriteCourses(t *testing.T) {
	h := newHarness(t)
	h.login(t, "student", "student123")

	_, err := h.svc.Courses.Create(context.Background(), model.CourseInput{
		Code: "NEW-1", Name: "New", DurationHours: 10, Level: model.LevelBeginner,
	})
	if !errors.Is(err, apierr.ErrForbidden) {
		t.Fatalf("err = %v, want forbidden", err)
	}
	if h.store.Get() == nil {
		t.Error("forbidden must keep the session")
	}
}

func TestClassFullTravelsOverHTTP(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	sess := h.login(t, "student", "student123")
	// Class 2 has one seat left.
	if _, err := h.svc.Enrollments.Create(ctx, model.EnrollmentInput{StudentID: sess.User.ID, ClassID: 2}); err != nil {
		t.Fatalf("last seat: %v", err)
	}

	if _, err := h.auth.Register(ctx, model.RegisterInput{
		Username: "latecomer", Password: "secret1", ConfirmPassword: "secret1",
		FullName: "Late Comer", Email: "late@example.com",
	}); err != nil {
		t.Fatal(err)
	}
	late := h.login(t, "latecomer", "secret1")

	_, err := h.svc.Enrollments.Create(ctx, model.EnrollmentInput{StudentID: late.User.ID, ClassID: 2})
	if !errors.Is(err, apierr.ErrValidation) || apierr.CodeOf(err) != response.ErrClassFull {
		t.Fatalf("err = %v (code %q), want CLASS_FULL", err, apierr.CodeOf(err))
	}
}

func TestRejectedTokenEndsSession(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	sess := h.login(t, "teacher", "teacher123")
	if _, err := h.store.Set(ctx, "forged-token", sess.User); err != nil {
		t.Fatal(err)
	}

	_, err := h.svc.Classes.List(ctx)
	if !errors.Is(err, apierr.ErrUnauthorized) {
		t.Fatalf("err = %v, want unauthorized", err)
	}
	if h.store.Get() != nil {
		t.Error("session should be cleared")
	}
	if got := h.kicks.Load(); got != 1 {
		t.Errorf("hook fired %d times", got)
	}
}

func TestTeacherTakesAttendanceInBulk(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	sess := h.login(t, "teacher", "teacher123")

	classes, err := h.svc.Classes.ListByTeacher(ctx, sess.User.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(classes) == 0 {
		t.Fatal("teacher has no classes")
	}
	students, err := h.svc.Classes.Students(ctx, classes[0].ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(students) == 0 {
		t.Fatal("first class has no students")
	}

	sheet := model.AttendanceSheet{ClassID: classes[0].ID, Date: "2024-03-04"}
	for _, s := range students {
		sheet.Entries = append(sheet.Entries, model.AttendanceEntry{StudentID: s.ID, Status: model.AttendancePresent})
	}
	records, err := h.svc.Attendance.Take(ctx, sheet)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != len(students) {
		t.Errorf("records = %d, want %d", len(records), len(students))
	}

	got, err := h.svc.Attendance.ListByDate(ctx, classes[0].ID, "2024-03-04")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != len(students) {
		t.Errorf("ListByDate = %d records", len(got))
	}
}

func TestBatchAndSingleWritesShareCollection(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	sess := h.login(t, "teacher", "teacher123")

	classes, err := h.svc.Classes.ListByTeacher(ctx, sess.User.ID)
	if err != nil || len(classes) == 0 {
		t.Fatalf("classes = %v, %v", classes, err)
	}
	class := classes[0]
	students, err := h.svc.Classes.Students(ctx, class.ID)
	if err != nil || len(students) == 0 {
		t.Fatalf("students = %v, %v", students, err)
	}
	student := students[0].ID

	grades, err := h.svc.Grades.Save(ctx, []model.GradeInput{
		{ClassID: class.ID, StudentID: student, Midterm: 8, Final: 8, Attendance: 8},
	})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if len(grades) != 1 || grades[0].StudentID != student {
		t.Errorf("grades = %+v", grades)
	}

	rec, err := h.svc.Attendance.Create(ctx, model.AttendanceInput{
		ClassID: class.ID, StudentID: student, Date: "2024-03-05", Status: model.AttendanceExcused,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if rec.Status != model.AttendanceExcused {
		t.Errorf("record = %+v", rec)
	}

	// A batch spanning two dates is not one roll call.
	body := fmt.Sprintf(`{"records":[
		{"classId":%[1]d,"studentId":%[2]d,"date":"2024-03-06","status":"PRESENT"},
		{"classId":%[1]d,"studentId":%[2]d,"date":"2024-03-07","status":"PRESENT"}]}`, class.ID, student)
	req, _ := http.NewRequest(http.MethodPost, h.base+"/attendance", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+h.store.Token())
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("mixed dates: status = %d", resp.StatusCode)
	}
	got, err := h.svc.Attendance.ListByDate(ctx, class.ID, "2024-03-06")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("rejected batch stored %d records", len(got))
	}
}
