package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/wisekey/langcenter/internal/apierr"
	"github.com/wisekey/langcenter/internal/client"
	"github.com/wisekey/langcenter/internal/model"
	"github.com/wisekey/langcenter/internal/service"
	"github.com/wisekey/langcenter/internal/validator"
)

// New returns every facade backed by c.
func New(c *client.Client) *service.Services {
	return &service.Services{
		Auth:        &Auth{c: c},
		Courses:     &Courses{resource[model.Course, model.CourseInput]{c, "/courses"}},
		Classes:     &Classes{resource[model.Class, model.ClassInput]{c, "/classes"}},
		Users:       &Users{resource[model.User, model.UserInput]{c, "/users"}},
		Enrollments: &Enrollments{resource[model.Enrollment, model.EnrollmentInput]{c, "/enrollments"}},
		Grades:      &Grades{resource[model.Grade, model.GradeInput]{c, "/grades"}},
		Attendance:  &Attendance{resource[model.AttendanceRecord, model.AttendanceInput]{c, "/attendance"}},
		Dashboard:   &Dashboard{c: c},
	}
}

func id(v int64) string {
	return strconv.FormatInt(v, 10)
}

// ─── Auth ──────────────────────────────────────────────────────────────

type Auth struct {
	c *client.Client
}

func (a *Auth) Login(ctx context.Context, req model.LoginRequest) (*model.LoginResponse, error) {
	if err := check(req); err != nil {
		return nil, err
	}
	var out model.LoginResponse
	if err := a.c.Post(ctx, "/auth/login", req, &out, client.Public()); err != nil {
		return nil, err
	}
	if out.AccessToken == "" {
		return nil, apierr.New(apierr.ErrServer, "", "login response carried no access token")
	}
	return &out, nil
}

func (a *Auth) Register(ctx context.Context, req model.RegisterRequest) (*model.User, error) {
	if err := check(req); err != nil {
		return nil, err
	}
	var out model.User
	if err := a.c.Post(ctx, "/auth/register", req, &out, client.Public()); err != nil {
		return nil, err
	}
	return &out, nil
}

// ─── Courses ───────────────────────────────────────────────────────────

type Courses struct {
	resource[model.Course, model.CourseInput]
}

func (s *Courses) ListActive(ctx context.Context) ([]model.Course, error) {
	return list[model.Course](ctx, s.c, "/courses/active")
}

func (s *Courses) Search(ctx context.Context, query string) ([]model.Course, error) {
	return list[model.Course](ctx, s.c, "/courses/search", client.Query("q", query))
}

// ─── Classes ───────────────────────────────────────────────────────────

type Classes struct {
	resource[model.Class, model.ClassInput]
}

func (s *Classes) ListByCourse(ctx context.Context, courseID int64) ([]model.Class, error) {
	return list[model.Class](ctx, s.c, "/classes/course/"+id(courseID))
}

func (s *Classes) ListByTeacher(ctx context.Context, teacherID int64) ([]model.Class, error) {
	return list[model.Class](ctx, s.c, "/classes/teacher/"+id(teacherID))
}

func (s *Classes) ListAvailable(ctx context.Context) ([]model.Class, error) {
	return list[model.Class](ctx, s.c, "/classes/available")
}

func (s *Classes) Students(ctx context.Context, classID int64) ([]model.User, error) {
	return list[model.User](ctx, s.c, "/classes/"+id(classID)+"/students")
}

func (s *Classes) AssignTeacher(ctx context.Context, classID, teacherID int64) (*model.Class, error) {
	in := model.AssignTeacherInput{TeacherID: teacherID}
	if err := check(in); err != nil {
		return nil, err
	}
	var out model.Class
	if err := s.c.Put(ctx, "/classes/"+id(classID)+"/teacher", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Classes) SetStatus(ctx context.Context, classID int64, status model.ClassStatus) (*model.Class, error) {
	in := model.ClassStatusInput{Status: status}
	if err := check(in); err != nil {
		return nil, err
	}
	var out model.Class
	if err := s.c.Put(ctx, "/classes/"+id(classID)+"/status", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ─── Users ─────────────────────────────────────────────────────────────

type Users struct {
	resource[model.User, model.UserInput]
}

func (s *Users) ListByRole(ctx context.Context, role model.Role) ([]model.User, error) {
	if role == model.RoleUnknown {
		return nil, apierr.Validation(map[string]string{"role": "role is invalid"})
	}
	return list[model.User](ctx, s.c, "/users/role/"+role.String())
}

func (s *Users) Search(ctx context.Context, query string) ([]model.User, error) {
	return list[model.User](ctx, s.c, "/users/search", client.Query("q", query))
}

func (s *Users) Activate(ctx context.Context, userID int64) (*model.User, error) {
	return s.put(ctx, userID, "activate")
}

func (s *Users) Deactivate(ctx context.Context, userID int64) (*model.User, error) {
	return s.put(ctx, userID, "deactivate")
}

func (s *Users) put(ctx context.Context, userID int64, action string) (*model.User, error) {
	var out model.User
	if err := s.c.Put(ctx, fmt.Sprintf("/users/%d/%s", userID, action), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Users) ResetPassword(ctx context.Context, userID int64) (*model.PasswordReset, error) {
	var out model.PasswordReset
	if err := s.c.Put(ctx, fmt.Sprintf("/users/%d/reset-password", userID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Users) ChangePassword(ctx context.Context, in model.ChangePasswordInput) error {
	if err := check(in); err != nil {
		return err
	}
	return s.c.Put(ctx, "/users/change-password", in, nil)
}

func (s *Users) Profile(ctx context.Context) (*model.User, error) {
	return one[model.User](ctx, s.c, "/users/profile")
}

func (s *Users) UpdateProfile(ctx context.Context, in model.ProfileInput) (*model.User, error) {
	if err := check(in); err != nil {
		return nil, err
	}
	var out model.User
	if err := s.c.Put(ctx, "/users/profile", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ─── Enrollments ───────────────────────────────────────────────────────

type Enrollments struct {
	resource[model.Enrollment, model.EnrollmentInput]
}

func (s *Enrollments) ListByStudent(ctx context.Context, studentID int64) ([]model.Enrollment, error) {
	return list[model.Enrollment](ctx, s.c, "/enrollments/student/"+id(studentID))
}

func (s *Enrollments) ListByClass(ctx context.Context, classID int64) ([]model.Enrollment, error) {
	return list[model.Enrollment](ctx, s.c, "/enrollments/class/"+id(classID))
}

// IsEnrolled accepts either a bare boolean or an EnrollmentCheck object.
func (s *Enrollments) IsEnrolled(ctx context.Context, studentID, classID int64) (bool, error) {
	var raw json.RawMessage
	err := s.c.Get(ctx, "/enrollments/check", &raw,
		client.Query("studentId", id(studentID)),
		client.Query("classId", id(classID)),
	)
	if err != nil {
		return false, err
	}

	var flag bool
	if json.Unmarshal(raw, &flag) == nil {
		return flag, nil
	}
	var result model.EnrollmentCheck
	if err := json.Unmarshal(raw, &result); err != nil {
		return false, apierr.New(apierr.ErrServer, "", "unexpected enrollment check response")
	}
	return result.Enrolled, nil
}

// ─── Grades ────────────────────────────────────────────────────────────

type Grades struct {
	resource[model.Grade, model.GradeInput]
}

func (s *Grades) ListByClass(ctx context.Context, classID int64) ([]model.Grade, error) {
	return list[model.Grade](ctx, s.c, "/grades/class/"+id(classID))
}

func (s *Grades) ListByStudent(ctx context.Context, studentID int64) ([]model.Grade, error) {
	return list[model.Grade](ctx, s.c, "/grades/student/"+id(studentID))
}

func (s *Grades) ForStudentInClass(ctx context.Context, studentID, classID int64) (*model.Grade, error) {
	return one[model.Grade](ctx, s.c, fmt.Sprintf("/grades/student/%d/class/%d", studentID, classID))
}

func (s *Grades) Save(ctx context.Context, sheet []model.GradeInput) ([]model.Grade, error) {
	if len(sheet) == 0 {
		return nil, apierr.Validation(map[string]string{"grades": "at least one grade is required"})
	}
	if fields := validator.Slice(sheet); fields != nil {
		return nil, apierr.Validation(fields)
	}
	var out []model.Grade
	if err := s.c.Post(ctx, "/grades", model.GradeBatch{Records: sheet}, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []model.Grade{}
	}
	return out, nil
}

// ─── Attendance ────────────────────────────────────────────────────────

type Attendance struct {
	resource[model.AttendanceRecord, model.AttendanceInput]
}

func (s *Attendance) ListByClass(ctx context.Context, classID int64) ([]model.AttendanceRecord, error) {
	return list[model.AttendanceRecord](ctx, s.c, "/attendance/class/"+id(classID))
}

func (s *Attendance) ListByStudent(ctx context.Context, studentID int64) ([]model.AttendanceRecord, error) {
	return list[model.AttendanceRecord](ctx, s.c, "/attendance/student/"+id(studentID))
}

func (s *Attendance) ListByDate(ctx context.Context, classID int64, date string) ([]model.AttendanceRecord, error) {
	if _, err := time.Parse(time.DateOnly, date); err != nil {
		return nil, apierr.Validation(map[string]string{"date": "date must be in YYYY-MM-DD format"})
	}
	return list[model.AttendanceRecord](ctx, s.c, fmt.Sprintf("/attendance/class/%d/date/%s", classID, date))
}

func (s *Attendance) Take(ctx context.Context, sheet model.AttendanceSheet) ([]model.AttendanceRecord, error) {
	if err := check(sheet); err != nil {
		return nil, err
	}
	var out []model.AttendanceRecord
	if err := s.c.Post(ctx, "/attendance", model.AttendanceBatch{Records: sheet.Records()}, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []model.AttendanceRecord{}
	}
	return out, nil
}

func (s *Attendance) Summary(ctx context.Context, studentID, classID int64) (*model.AttendanceSummary, error) {
	return one[model.AttendanceSummary](ctx, s.c, "/attendance/summary",
		client.Query("studentId", id(studentID)),
		client.Query("classId", id(classID)),
	)
}

// ─── Dashboard ─────────────────────────────────────────────────────────

type Dashboard struct {
	c *client.Client
}

func (d *Dashboard) Admin(ctx context.Context) (*model.AdminDashboard, error) {
	return one[model.AdminDashboard](ctx, d.c, "/dashboard/admin")
}

func (d *Dashboard) Teacher(ctx context.Context, teacherID int64) (*model.TeacherDashboard, error) {
	return one[model.TeacherDashboard](ctx, d.c, "/dashboard/teacher/"+id(teacherID))
}

func (d *Dashboard) Student(ctx context.Context, studentID int64) (*model.StudentDashboard, error) {
	return one[model.StudentDashboard](ctx, d.c, "/dashboard/student/"+id(studentID))
}
