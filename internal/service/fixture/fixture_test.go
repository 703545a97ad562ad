package fixture

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/wisekey/langcenter/internal/apierr"
	"github.com/wisekey/langcenter/internal/model"
	"github.com/wisekey/langcenter/internal/response"
	"github.com/wisekey/langcenter/internal/service"
	"github.com/wisekey/langcenter/internal/token"
	"golang.org/x/crypto/bcrypt"
)

const (
	adminID    int64 = 1
	teacherID  int64 = 2
	studentID  int64 = 3
	teacher2ID int64 = 4
	student2ID int64 = 5
)

func newBackend(t *testing.T, opts ...Option) (*Backend, *service.Services) {
	t.Helper()
	opts = append([]Option{WithBcryptCost(bcrypt.MinCost)}, opts...)
	b, err := New(token.NewIssuer("test-secret", time.Hour), zerolog.Nop(), opts...)
	if err != nil {
		t.Fatal(err)
	}
	return b, b.Services()
}

func as(id int64) context.Context {
	return service.WithCaller(context.Background(), id)
}

func TestLoginFixtureAdmin(t *testing.T) {
	_, svc := newBackend(t)

	resp, err := svc.Auth.Login(context.Background(), model.LoginRequest{Username: "admin", Password: "admin123"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if resp.AccessToken == "" {
		t.Error("missing token")
	}
	if len(resp.Roles) == 0 || resp.Roles[0] != "ROLE_ADMIN" {
		t.Errorf("roles = %v", resp.Roles)
	}
	if resp.FullName != "Admin User" {
		t.Errorf("FullName = %q", resp.FullName)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	_, svc := newBackend(t)

	_, err := svc.Auth.Login(context.Background(), model.LoginRequest{Username: "admin", Password: "wrong"})
	if !errors.Is(err, apierr.ErrInvalidCredentials) {
		t.Errorf("err = %v, want invalid credentials", err)
	}
	_, err = svc.Auth.Login(context.Background(), model.LoginRequest{Username: "ghost", Password: "x"})
	if !errors.Is(err, apierr.ErrInvalidCredentials) {
		t.Errorf("unknown user: err = %v", err)
	}
}

func TestLoginInactiveAccount(t *testing.T) {
	_, svc := newBackend(t)
	if _, err := svc.Users.Deactivate(as(adminID), student2ID); err != nil {
		t.Fatal(err)
	}
	_, err := svc.Auth.Login(context.Background(), model.LoginRequest{Username: "student2", Password: "student123"})
	if !errors.Is(err, apierr.ErrInvalidCredentials) || apierr.CodeOf(err) != response.ErrAccountInactive {
		t.Errorf("err = %v (code %q)", err, apierr.CodeOf(err))
	}
}

func TestRegisterRejectsDuplicateUsername(t *testing.T) {
	_, svc := newBackend(t)
	ctx := context.Background()

	req := model.RegisterRequest{Username: "newbie", Password: "secret1", FullName: "New Bie", Email: "newbie@example.com"}
	u, err := svc.Auth.Register(ctx, req)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if u.Role != model.RoleStudent || u.FirstName != "New" || u.LastName != "Bie" {
		t.Errorf("user = %+v", u)
	}

	req.Email = "other@example.com"
	if _, err := svc.Auth.Register(ctx, req); !errors.Is(err, apierr.ErrValidation) {
		t.Errorf("duplicate: err = %v", err)
	}

	bad := model.RegisterRequest{Username: "x1", Password: "secret1", FullName: "X", Email: "not-an-email"}
	if _, err := svc.Auth.Register(ctx, bad); !errors.Is(err, apierr.ErrValidation) {
		t.Errorf("invalid email: err = %v", err)
	}

	if _, err := svc.Auth.Login(ctx, model.LoginRequest{Username: "newbie", Password: "secret1"}); err != nil {
		t.Errorf("registered user cannot log in: %v", err)
	}
}

func TestCallerFromTokenSource(t *testing.T) {
	var tok string
	_, svc := newBackend(t, WithTokenSource(func() string { return tok }))
	ctx := context.Background()

	if _, err := svc.Courses.List(ctx); !errors.Is(err, apierr.ErrUnauthorized) {
		t.Errorf("anonymous: err = %v", err)
	}

	resp, err := svc.Auth.Login(ctx, model.LoginRequest{Username: "student", Password: "student123"})
	if err != nil {
		t.Fatal(err)
	}
	tok = resp.AccessToken

	if _, err := svc.Courses.List(ctx); err != nil {
		t.Errorf("authenticated list: %v", err)
	}

	tok = "forged"
	if _, err := svc.Courses.List(ctx); !errors.Is(err, apierr.ErrUnauthorized) {
		t.Errorf("forged token: err = %v", err)
	}
}

func TestUnauthorizedHookGetsRejectedToken(t *testing.T) {
	var (
		tok      string
		rejected []string
		svc      *service.Services
	)
	_, svc = newBackend(t,
		WithTokenSource(func() string { return tok }),
		WithUnauthorizedHook(func(_ context.Context, token string) {
			rejected = append(rejected, token)
			// The backend lock is free while the hook runs.
			if _, err := svc.Courses.List(as(adminID)); err != nil {
				t.Errorf("list from hook: %v", err)
			}
		}),
	)
	ctx := context.Background()
	in := model.CourseInput{Code: "HOOK-1", Name: "Hook", DurationHours: 10, Level: model.LevelBeginner}

	tok = "forged"
	if _, err := svc.Courses.Create(ctx, in); !errors.Is(err, apierr.ErrUnauthorized) {
		t.Fatalf("forged create: err = %v", err)
	}
	if len(rejected) != 1 || rejected[0] != "forged" {
		t.Fatalf("rejected = %q", rejected)
	}

	resp, err := svc.Auth.Login(ctx, model.LoginRequest{Username: "student2", Password: "student123"})
	if err != nil {
		t.Fatal(err)
	}
	tok = resp.AccessToken
	if _, err := svc.Courses.List(ctx); err != nil {
		t.Fatalf("valid token: %v", err)
	}
	if len(rejected) != 1 {
		t.Errorf("valid token fired the hook: %q", rejected)
	}

	// A deactivated account's token is rejected like a forged one.
	if _, err := svc.Users.Deactivate(as(adminID), student2ID); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Courses.List(ctx); !errors.Is(err, apierr.ErrUnauthorized) {
		t.Errorf("inactive: err = %v", err)
	}
	if len(rejected) != 2 || rejected[1] != resp.AccessToken {
		t.Errorf("rejected = %q", rejected)
	}

	// An explicit caller bypasses the token source.
	tok = "forged"
	if _, err := svc.Courses.List(as(studentID)); err != nil {
		t.Errorf("context caller: %v", err)
	}
	if len(rejected) != 2 {
		t.Errorf("context caller fired the hook: %q", rejected)
	}
}

func TestRoleEnforcement(t *testing.T) {
	_, svc := newBackend(t)
	in := model.CourseInput{Code: "KIDS-1", Name: "Kids English", DurationHours: 40, Level: model.LevelBeginner}

	if _, err := svc.Courses.Create(as(studentID), in); !errors.Is(err, apierr.ErrForbidden) {
		t.Errorf("student create course: err = %v", err)
	}
	if _, err := svc.Courses.Create(as(teacherID), in); !errors.Is(err, apierr.ErrForbidden) {
		t.Errorf("teacher create course: err = %v", err)
	}
	c, err := svc.Courses.Create(as(adminID), in)
	if err != nil {
		t.Fatalf("admin create course: %v", err)
	}
	if !c.Active {
		t.Error("new course should default to active")
	}
	if _, err := svc.Grades.ListByStudent(as(studentID), student2ID); !errors.Is(err, apierr.ErrForbidden) {
		t.Errorf("student reading other grades: err = %v", err)
	}
}

func TestCourseCRUD(t *testing.T) {
	_, svc := newBackend(t)
	ctx := as(adminID)

	c, err := svc.Courses.Create(ctx, model.CourseInput{Code: "KIDS-1", Name: "Kids", DurationHours: 40, Level: model.LevelBeginner})
	if err != nil {
		t.Fatal(err)
	}
	if c.ID != 6 {
		t.Errorf("ID = %d, want 6", c.ID)
	}

	inactive := false
	updated, err := svc.Courses.Update(ctx, c.ID, model.CourseInput{Code: "KIDS-1", Name: "Kids English", DurationHours: 48, Level: model.LevelBeginner, Active: &inactive})
	if err != nil {
		t.Fatal(err)
	}
	if updated.Name != "Kids English" || updated.Active {
		t.Errorf("updated = %+v", updated)
	}

	active, _ := svc.Courses.ListActive(ctx)
	for _, a := range active {
		if a.ID == c.ID {
			t.Error("inactive course listed as active")
		}
	}

	found, _ := svc.Courses.Search(ctx, "kids")
	if len(found) != 1 {
		t.Errorf("search = %+v", found)
	}

	if _, err := svc.Courses.Create(ctx, model.CourseInput{Code: "kids-1", Name: "Dup", DurationHours: 1, Level: model.LevelBeginner}); !errors.Is(err, apierr.ErrValidation) {
		t.Errorf("duplicate code: err = %v", err)
	}

	if err := svc.Courses.Delete(ctx, 1); apierr.CodeOf(err) != response.ErrDependencyExists {
		t.Errorf("delete course with classes: err = %v", err)
	}
	if err := svc.Courses.Delete(ctx, c.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Courses.Get(ctx, c.ID); !errors.Is(err, apierr.ErrNotFound) {
		t.Errorf("deleted course: err = %v", err)
	}
}

func TestClassViewFillsNames(t *testing.T) {
	_, svc := newBackend(t)
	c, err := svc.Classes.Get(as(studentID), 2)
	if err != nil {
		t.Fatal(err)
	}
	if c.CourseName != "TOEIC 450+" || c.TeacherName != "Nguyễn Giáo Viên" {
		t.Errorf("class = %+v", c)
	}
	if c.CurrentStudents != 19 || c.MaxStudents != 20 {
		t.Errorf("headcount = %d/%d", c.CurrentStudents, c.MaxStudents)
	}
}

func TestEnrollFullClassRejected(t *testing.T) {
	_, svc := newBackend(t)

	// Class 2 is at 19/20; student takes the last seat.
	if _, err := svc.Enrollments.Create(as(studentID), model.EnrollmentInput{StudentID: studentID, ClassID: 2}); err != nil {
		t.Fatalf("last seat: %v", err)
	}
	c, _ := svc.Classes.Get(as(adminID), 2)
	if !c.Full() {
		t.Fatalf("class should be full: %d/%d", c.CurrentStudents, c.MaxStudents)
	}

	u, err := svc.Auth.Register(context.Background(), model.RegisterRequest{Username: "late", Password: "secret1", FullName: "Late Comer", Email: "late@example.com"})
	if err != nil {
		t.Fatal(err)
	}
	_, err = svc.Enrollments.Create(as(adminID), model.EnrollmentInput{StudentID: u.ID, ClassID: 2})
	if !errors.Is(err, apierr.ErrValidation) || apierr.CodeOf(err) != response.ErrClassFull {
		t.Errorf("err = %v (code %q), want CLASS_FULL", err, apierr.CodeOf(err))
	}

	c, _ = svc.Classes.Get(as(adminID), 2)
	if c.CurrentStudents != c.MaxStudents {
		t.Errorf("headcount changed: %d/%d", c.CurrentStudents, c.MaxStudents)
	}
}

func TestEnrollConcurrentLastSeat(t *testing.T) {
	_, svc := newBackend(t)
	ctx := context.Background()

	var ids []int64
	for _, name := range []string{"a1", "a2", "a3", "a4", "a5", "a6"} {
		u, err := svc.Auth.Register(ctx, model.RegisterRequest{Username: name + "xx", Password: "secret1", FullName: name, Email: name + "@example.com"})
		if err != nil {
			t.Fatal(err)
		}
		ids = append(ids, u.ID)
	}

	var wg sync.WaitGroup
	results := make(chan error, len(ids))
	for _, id := range ids {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Enrollments.Create(as(adminID), model.EnrollmentInput{StudentID: id, ClassID: 2})
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var ok, full int
	for err := range results {
		switch {
		case err == nil:
			ok++
		case apierr.CodeOf(err) == response.ErrClassFull:
			full++
		default:
			t.Errorf("unexpected err: %v", err)
		}
	}
	if ok != 1 || full != len(ids)-1 {
		t.Errorf("ok=%d full=%d, want exactly one seat taken", ok, full)
	}
}

func TestEnrollClosedAndDuplicate(t *testing.T) {
	_, svc := newBackend(t)

	if _, err := svc.Classes.SetStatus(as(adminID), 4, model.ClassClosed); err != nil {
		t.Fatal(err)
	}
	_, err := svc.Enrollments.Create(as(studentID), model.EnrollmentInput{StudentID: studentID, ClassID: 4})
	if apierr.CodeOf(err) != response.ErrClassClosed {
		t.Errorf("closed: err = %v", err)
	}

	_, err = svc.Enrollments.Create(as(studentID), model.EnrollmentInput{StudentID: studentID, ClassID: 1})
	if apierr.CodeOf(err) != response.ErrConflict {
		t.Errorf("duplicate: err = %v", err)
	}

	_, err = svc.Enrollments.Create(as(studentID), model.EnrollmentInput{StudentID: student2ID, ClassID: 3})
	if !errors.Is(err, apierr.ErrForbidden) {
		t.Errorf("enrolling someone else: err = %v", err)
	}
}

func TestCancelEnrollmentFreesSeat(t *testing.T) {
	_, svc := newBackend(t)

	e, err := svc.Enrollments.Create(as(studentID), model.EnrollmentInput{StudentID: studentID, ClassID: 2})
	if err != nil {
		t.Fatal(err)
	}
	if ok, _ := svc.Enrollments.IsEnrolled(as(studentID), studentID, 2); !ok {
		t.Error("IsEnrolled should be true")
	}
	if err := svc.Enrollments.Delete(as(student2ID), e.ID); !errors.Is(err, apierr.ErrForbidden) {
		t.Errorf("cancel someone else's enrollment: err = %v", err)
	}
	if err := svc.Enrollments.Delete(as(studentID), e.ID); err != nil {
		t.Fatal(err)
	}
	c, _ := svc.Classes.Get(as(adminID), 2)
	if c.CurrentStudents != 19 {
		t.Errorf("CurrentStudents = %d, want 19", c.CurrentStudents)
	}
}

func TestGradeSaveUpserts(t *testing.T) {
	_, svc := newBackend(t)
	ctx := as(teacherID)

	sheet := []model.GradeInput{
		{ClassID: 1, StudentID: studentID, Midterm: 9, Final: 8, Attendance: 10},
		{ClassID: 1, StudentID: student2ID, Midterm: 8, Final: 7, Attendance: 9},
	}
	saved, err := svc.Grades.Save(ctx, sheet)
	if err != nil {
		t.Fatal(err)
	}
	if len(saved) != 2 || saved[0].Total != 8.7 || saved[1].Total != 7.7 {
		t.Errorf("saved = %+v", saved)
	}

	// Same keys again: overwritten, not duplicated.
	if _, err := svc.Grades.Save(ctx, sheet); err != nil {
		t.Fatal(err)
	}
	list, _ := svc.Grades.ListByClass(ctx, 1)
	if len(list) != 2 {
		t.Errorf("class 1 has %d grades, want 2", len(list))
	}

	g, err := svc.Grades.ForStudentInClass(as(studentID), studentID, 1)
	if err != nil || g.Total != 8.7 {
		t.Errorf("ForStudentInClass = %+v, %v", g, err)
	}
}

func TestGradeSaveIsAllOrNothing(t *testing.T) {
	_, svc := newBackend(t)
	ctx := as(teacherID)

	before, _ := svc.Grades.ListByClass(ctx, 1)
	_, err := svc.Grades.Save(ctx, []model.GradeInput{
		{ClassID: 1, StudentID: studentID, Midterm: 1, Final: 1, Attendance: 1},
		{ClassID: 2, StudentID: studentID, Midterm: 5, Final: 5, Attendance: 5}, // not enrolled in class 2
	})
	if apierr.CodeOf(err) != response.ErrNotEnrolled {
		t.Fatalf("err = %v, want NOT_ENROLLED", err)
	}
	after, _ := svc.Grades.ListByClass(ctx, 1)
	if after[0].Total != before[0].Total {
		t.Error("a rejected sheet must not write any row")
	}
}

func TestGradeWriteRequiresClassTeacher(t *testing.T) {
	_, svc := newBackend(t)
	_, err := svc.Grades.Save(as(teacher2ID), []model.GradeInput{
		{ClassID: 1, StudentID: studentID, Midterm: 1, Final: 1, Attendance: 1},
	})
	if !errors.Is(err, apierr.ErrForbidden) {
		t.Errorf("err = %v, want forbidden", err)
	}
}

func TestAttendanceTakeAndSummary(t *testing.T) {
	_, svc := newBackend(t)
	ctx := as(teacherID)

	sheet := model.AttendanceSheet{
		ClassID: 1,
		Date:    "2024-01-19",
		Entries: []model.AttendanceEntry{
			{StudentID: studentID, Status: model.AttendanceAbsent},
			{StudentID: student2ID, Status: model.AttendancePresent},
		},
	}
	if _, err := svc.Attendance.Take(ctx, sheet); err != nil {
		t.Fatal(err)
	}
	sheet.Entries[0].Status = model.AttendancePresent
	if _, err := svc.Attendance.Take(ctx, sheet); err != nil {
		t.Fatal(err)
	}

	day, err := svc.Attendance.ListByDate(ctx, 1, "2024-01-19")
	if err != nil {
		t.Fatal(err)
	}
	if len(day) != 2 {
		t.Errorf("records on date = %d, want 2", len(day))
	}

	sum, err := svc.Attendance.Summary(as(studentID), studentID, 1)
	if err != nil {
		t.Fatal(err)
	}
	if sum.Total != 3 || sum.Present != 3 || sum.Rate != 100 {
		t.Errorf("summary = %+v", sum)
	}

	if _, err := svc.Attendance.ListByDate(ctx, 1, "19/01/2024"); !errors.Is(err, apierr.ErrValidation) {
		t.Errorf("bad date: err = %v", err)
	}
}

func TestDashboards(t *testing.T) {
	_, svc := newBackend(t, WithClock(func() time.Time {
		return time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	}))

	admin, err := svc.Dashboard.Admin(as(adminID))
	if err != nil {
		t.Fatal(err)
	}
	if admin.TotalStudents != 2 || admin.TotalTeachers != 2 || admin.TotalCourses != 5 || admin.TotalClasses != 4 {
		t.Errorf("admin = %+v", admin)
	}
	// 28/30 and 19/20 are at or above 90%.
	if len(admin.ClassesNearCapacity) != 2 {
		t.Errorf("near capacity = %+v", admin.ClassesNearCapacity)
	}
	if _, err := svc.Dashboard.Admin(as(teacherID)); !errors.Is(err, apierr.ErrForbidden) {
		t.Errorf("teacher on admin dashboard: err = %v", err)
	}

	teacher, err := svc.Dashboard.Teacher(as(teacherID), teacherID)
	if err != nil {
		t.Fatal(err)
	}
	if teacher.TotalClasses != 4 || teacher.TotalStudents != 28+19+15+12 {
		t.Errorf("teacher = %+v", teacher)
	}

	student, err := svc.Dashboard.Student(as(studentID), studentID)
	if err != nil {
		t.Fatal(err)
	}
	// Class 3 ended 2024-03-20.
	if student.EnrolledClasses != 2 || student.CompletedClasses != 1 {
		t.Errorf("student = %+v", student)
	}
	if student.AverageGrade != 7.7 {
		t.Errorf("AverageGrade = %v", student.AverageGrade)
	}
}

func TestUserAdministration(t *testing.T) {
	_, svc := newBackend(t)
	ctx := as(adminID)

	u, err := svc.Users.Create(ctx, model.UserInput{
		Username: "teacher3", Password: "secret1", FirstName: "Hoa", LastName: "Nguyen",
		Email: "teacher3@wisekey.com", Role: model.RoleTeacher,
	})
	if err != nil {
		t.Fatal(err)
	}
	if u.Status != model.UserActive {
		t.Errorf("Status = %q", u.Status)
	}

	teachers, _ := svc.Users.ListByRole(ctx, model.RoleTeacher)
	if len(teachers) != 3 {
		t.Errorf("teachers = %d, want 3", len(teachers))
	}

	reset, err := svc.Users.ResetPassword(ctx, u.ID)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Auth.Login(context.Background(), model.LoginRequest{Username: "teacher3", Password: reset.NewPassword}); err != nil {
		t.Errorf("login with reset password: %v", err)
	}

	if _, err := svc.Users.Create(ctx, model.UserInput{Username: "nopass", FirstName: "N", Email: "n@x.com", Role: model.RoleStudent}); !errors.Is(err, apierr.ErrValidation) {
		t.Errorf("create without password: err = %v", err)
	}
	if err := svc.Users.Delete(ctx, teacherID); apierr.CodeOf(err) != response.ErrDependencyExists {
		t.Errorf("delete teacher with classes: err = %v", err)
	}
}

func TestProfileAndChangePassword(t *testing.T) {
	_, svc := newBackend(t)
	ctx := as(studentID)

	p, err := svc.Users.Profile(ctx)
	if err != nil || p.Username != "student" {
		t.Fatalf("Profile = %+v, %v", p, err)
	}

	updated, err := svc.Users.UpdateProfile(ctx, model.ProfileInput{FirstName: "Trần", LastName: "Văn", Email: "tran@wisekey.com"})
	if err != nil {
		t.Fatal(err)
	}
	if updated.LastName != "Văn" || updated.Email != "tran@wisekey.com" {
		t.Errorf("updated = %+v", updated)
	}

	if _, err := svc.Users.UpdateProfile(ctx, model.ProfileInput{FirstName: "T", Email: "admin@wisekey.com"}); !errors.Is(err, apierr.ErrValidation) {
		t.Errorf("email collision: err = %v", err)
	}

	if err := svc.Users.ChangePassword(ctx, model.ChangePasswordInput{OldPassword: "nope", NewPassword: "newpass1"}); !errors.Is(err, apierr.ErrValidation) {
		t.Errorf("wrong old password: err = %v", err)
	}
	if err := svc.Users.ChangePassword(ctx, model.ChangePasswordInput{OldPassword: "student123", NewPassword: "newpass1"}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Auth.Login(context.Background(), model.LoginRequest{Username: "student", Password: "newpass1"}); err != nil {
		t.Errorf("login with new password: %v", err)
	}
}
