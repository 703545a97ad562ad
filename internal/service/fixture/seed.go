package fixture

import (
	"time"

	"github.com/wisekey/langcenter/internal/model"
)

type seedUser struct {
	id                 int64
	username, password string
	first, last        string
	email, phone       string
	role               model.Role
}

var seedUsers = []seedUser{
	{1, "admin", "admin123", "Admin", "User", "admin@wisekey.com", "0123456789", model.RoleAdmin},
	{2, "teacher", "teacher123", "Nguyễn", "Giáo Viên", "teacher@wisekey.com", "0987654321", model.RoleTeacher},
	{3, "student", "student123", "Trần", "Học Viên", "student@wisekey.com", "0123456780", model.RoleStudent},
	{4, "teacher2", "teacher123", "Lê", "Văn Giáo Viên", "teacher2@wisekey.com", "0912345678", model.RoleTeacher},
	{5, "student2", "student123", "Phạm", "Thị Học Sinh", "student2@wisekey.com", "0909123456", model.RoleStudent},
}

var seedCourses = []model.Course{
	{ID: 1, Code: "IELTS-CB", Name: "IELTS Cơ Bản", Description: "IELTS for beginners, target band 5.0-6.0", Price: 5000000, DurationHours: 120, Level: model.LevelBeginner, Active: true},
	{ID: 2, Code: "TOEIC-450", Name: "TOEIC 450+", Description: "TOEIC preparation, target 450-550", Price: 4500000, DurationHours: 100, Level: model.LevelBeginner, Active: true},
	{ID: 3, Code: "ENG-CONV", Name: "Tiếng Anh Giao Tiếp", Description: "Everyday English conversation", Price: 3500000, DurationHours: 80, Level: model.LevelIntermediate, Active: true},
	{ID: 4, Code: "IELTS-NC", Name: "IELTS Nâng Cao", Description: "Advanced IELTS, target band 7.0+", Price: 7000000, DurationHours: 150, Level: model.LevelAdvanced, Active: true},
	{ID: 5, Code: "BIZ-ENG", Name: "Business English", Description: "English for business professionals", Price: 6000000, DurationHours: 100, Level: model.LevelAdvanced, Active: true},
}

// Seeded headcounts include students who are not fixture users.
var seedClasses = []model.Class{
	{ID: 1, Code: "IELTS-CB01", Name: "IELTS-CB01", CourseID: 1, MaxStudents: 30, CurrentStudents: 28, Schedule: "Mon, Wed, Fri 18:00-20:00", StartDate: "2024-01-15", EndDate: "2024-04-15", Status: model.ClassOpen},
	{ID: 2, Code: "TOEIC-01", Name: "TOEIC-01", CourseID: 2, MaxStudents: 20, CurrentStudents: 19, Schedule: "Tue, Thu, Sat 19:00-21:00", StartDate: "2024-02-01", EndDate: "2024-04-30", Status: model.ClassOpen},
	{ID: 3, Code: "GD-TN-01", Name: "GD-TN-01", CourseID: 3, MaxStudents: 25, CurrentStudents: 15, Schedule: "Mon, Wed 17:30-19:30", StartDate: "2024-01-20", EndDate: "2024-03-20", Status: model.ClassOpen},
	{ID: 4, Code: "IELTS-NC01", Name: "IELTS-NC01", CourseID: 4, MaxStudents: 25, CurrentStudents: 12, Schedule: "Tue, Thu 18:30-20:30", StartDate: "2024-02-15", EndDate: "2024-06-15", Status: model.ClassOpen},
}

// seedEnrollments are (student, class) pairs already counted in the
// seeded headcounts.
var seedEnrollments = [][2]int64{{3, 1}, {3, 3}, {5, 1}, {5, 2}}

func (b *Backend) seed() error {
	now := b.now().UTC()

	for _, su := range seedUsers {
		hash, err := b.hash(su.password)
		if err != nil {
			return err
		}
		b.users[su.id] = &userRecord{
			User: model.User{
				ID:        su.id,
				Username:  su.username,
				FirstName: su.first,
				LastName:  su.last,
				Email:     su.email,
				Phone:     su.phone,
				Role:      su.role,
				Status:    model.UserActive,
				CreatedAt: now,
				UpdatedAt: now,
			},
			passwordHash: hash,
		}
		b.nextID["user"] = max(b.nextID["user"], su.id)
	}

	for _, c := range seedCourses {
		b.courses[c.ID] = &c
		b.nextID["course"] = max(b.nextID["course"], c.ID)
	}

	teacherID := int64(2)
	for _, c := range seedClasses {
		tid := teacherID
		c.TeacherID = &tid
		b.classes[c.ID] = &c
		b.nextID["class"] = max(b.nextID["class"], c.ID)
	}

	for i, pair := range seedEnrollments {
		id := b.allocID("enrollment")
		b.enrollments[id] = &model.Enrollment{
			ID:          id,
			StudentID:   pair[0],
			ClassID:     pair[1],
			EnrolledAt:  now.Add(-time.Duration(len(seedEnrollments)-i) * 24 * time.Hour),
			Cancellable: true,
		}
	}

	for _, g := range []model.Grade{
		{ClassID: 1, StudentID: 3, Midterm: 8, Final: 7, Attendance: 9, Comments: "Good progress"},
		{ClassID: 1, StudentID: 5, Midterm: 6.5, Final: 7.5, Attendance: 8},
	} {
		g.ID = b.allocID("grade")
		g.GradedAt = now
		g.Recompute()
		b.grades[g.ID] = &g
	}

	for _, a := range []model.AttendanceRecord{
		{ClassID: 1, StudentID: 3, Date: "2024-01-15", Status: model.AttendancePresent},
		{ClassID: 1, StudentID: 5, Date: "2024-01-15", Status: model.AttendanceAbsent},
		{ClassID: 1, StudentID: 3, Date: "2024-01-17", Status: model.AttendancePresent},
		{ClassID: 1, StudentID: 5, Date: "2024-01-17", Status: model.AttendanceExcused, Notes: "Sick leave"},
	} {
		a.ID = b.allocID("attendance")
		b.attendance[a.ID] = &a
	}

	b.log.Debug().
		Int("users", len(b.users)).
		Int("courses", len(b.courses)).
		Int("classes", len(b.classes)).
		Msg("Fixtures seeded")
	return nil
}
