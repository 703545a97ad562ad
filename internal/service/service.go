// Package service declares one facade per backend resource. Two
// implementations exist: remote (HTTP) and fixture (in-memory). The choice
// is made once, at construction.
package service

import (
	"context"

	"github.com/wisekey/langcenter/internal/model"
)

// Resource is the uniform CRUD contract shared by every facade.
type Resource[T, In any] interface {
	List(ctx context.Context) ([]T, error)
	Get(ctx context.Context, id int64) (*T, error)
	Create(ctx context.Context, in In) (*T, error)
	Update(ctx context.Context, id int64, in In) (*T, error)
	Delete(ctx context.Context, id int64) error
}

// AuthAPI exchanges credentials with the backend. It never touches the
// local session; internal/auth does that.
type AuthAPI interface {
	Login(ctx context.Context, req model.LoginRequest) (*model.LoginResponse, error)
	Register(ctx context.Context, req model.RegisterRequest) (*model.User, error)
}

type CourseService interface {
	Resource[model.Course, model.CourseInput]
	ListActive(ctx context.Context) ([]model.Course, error)
	Search(ctx context.Context, query string) ([]model.Course, error)
}

type ClassService interface {
	Resource[model.Class, model.ClassInput]
	ListByCourse(ctx context.Context, courseID int64) ([]model.Class, error)
	ListByTeacher(ctx context.Context, teacherID int64) ([]model.Class, error)
	// ListAvailable returns open classes that still have seats.
	ListAvailable(ctx context.Context) ([]model.Class, error)
	Students(ctx context.Context, classID int64) ([]model.User, error)
	AssignTeacher(ctx context.Context, classID, teacherID int64) (*model.Class, error)
	SetStatus(ctx context.Context, classID int64, status model.ClassStatus) (*model.Class, error)
}

type UserService interface {
	Resource[model.User, model.UserInput]
	ListByRole(ctx context.Context, role model.Role) ([]model.User, error)
	Search(ctx context.Context, query string) ([]model.User, error)
	Activate(ctx context.Context, id int64) (*model.User, error)
	Deactivate(ctx context.Context, id int64) (*model.User, error)
	ResetPassword(ctx context.Context, id int64) (*model.PasswordReset, error)

	// The calls below act on the caller's own account.
	ChangePassword(ctx context.Context, in model.ChangePasswordInput) error
	Profile(ctx context.Context) (*model.User, error)
	UpdateProfile(ctx context.Context, in model.ProfileInput) (*model.User, error)
}

// EnrollmentService rejects enrollment into a full or closed class and
// duplicate enrollments, whatever the caller's UI allowed.
type EnrollmentService interface {
	Resource[model.Enrollment, model.EnrollmentInput]
	ListByStudent(ctx context.Context, studentID int64) ([]model.Enrollment, error)
	ListByClass(ctx context.Context, classID int64) ([]model.Enrollment, error)
	IsEnrolled(ctx context.Context, studentID, classID int64) (bool, error)
}

type GradeService interface {
	Resource[model.Grade, model.GradeInput]
	ListByClass(ctx context.Context, classID int64) ([]model.Grade, error)
	ListByStudent(ctx context.Context, studentID int64) ([]model.Grade, error)
	ForStudentInClass(ctx context.Context, studentID, classID int64) (*model.Grade, error)
	// Save upserts a grade sheet by (classId, studentId) in one call.
	Save(ctx context.Context, sheet []model.GradeInput) ([]model.Grade, error)
}

type AttendanceService interface {
	Resource[model.AttendanceRecord, model.AttendanceInput]
	ListByClass(ctx context.Context, classID int64) ([]model.AttendanceRecord, error)
	ListByStudent(ctx context.Context, studentID int64) ([]model.AttendanceRecord, error)
	ListByDate(ctx context.Context, classID int64, date string) ([]model.AttendanceRecord, error)
	// Take upserts a roll call by (classId, studentId, date) in one call.
	Take(ctx context.Context, sheet model.AttendanceSheet) ([]model.AttendanceRecord, error)
	Summary(ctx context.Context, studentID, classID int64) (*model.AttendanceSummary, error)
}

type DashboardService interface {
	Admin(ctx context.Context) (*model.AdminDashboard, error)
	Teacher(ctx context.Context, teacherID int64) (*model.TeacherDashboard, error)
	Student(ctx context.Context, studentID int64) (*model.StudentDashboard, error)
}

// Services bundles one implementation of every facade.
type Services struct {
	Auth        AuthAPI
	Courses     CourseService
	Classes     ClassService
	Users       UserService
	Enrollments EnrollmentService
	Grades      GradeService
	Attendance  AttendanceService
	Dashboard   DashboardService
}
