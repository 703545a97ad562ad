package fixture

import (
	"cmp"
	"context"
	"maps"
	"slices"

	"github.com/wisekey/langcenter/internal/model"
)

// Admin dashboard tuning.
const (
	recentEnrollmentLimit = 5
	nearCapacityRatio     = 0.9
)

type dashboard struct{ b *Backend }

func (s dashboard) Admin(ctx context.Context) (*model.AdminDashboard, error) {
	b := s.b
	ctx = b.authenticate(ctx)
	b.mu.RLock()
	defer b.mu.RUnlock()

	if _, err := b.callerLocked(ctx, adminOnly); err != nil {
		return nil, err
	}

	d := &model.AdminDashboard{
		RecentEnrollments:   []model.Enrollment{},
		ClassesNearCapacity: []model.CapacityStatus{},
	}
	for _, u := range b.users {
		switch u.Role {
		case model.RoleStudent:
			d.TotalStudents++
		case model.RoleTeacher:
			d.TotalTeachers++
		}
	}
	for _, c := range b.courses {
		d.TotalCourses++
		if c.Active {
			d.ActiveCourses++
		}
	}
	for _, id := range slices.Sorted(maps.Keys(b.classes)) {
		c := b.classes[id]
		d.TotalClasses++
		if c.Status == model.ClassOpen {
			d.ActiveClasses++
		}
		if c.MaxStudents > 0 && float64(c.CurrentStudents)/float64(c.MaxStudents) >= nearCapacityRatio {
			view := b.classViewLocked(c)
			d.ClassesNearCapacity = append(d.ClassesNearCapacity, model.CapacityStatus{
				ID:              c.ID,
				ClassName:       view.Name,
				CourseName:      view.CourseName,
				CurrentStudents: c.CurrentStudents,
				MaxStudents:     c.MaxStudents,
			})
		}
	}

	recent := b.enrollmentsLocked(nil)
	slices.SortFunc(recent, byNewest)
	if len(recent) > recentEnrollmentLimit {
		recent = recent[:recentEnrollmentLimit]
	}
	d.RecentEnrollments = append(d.RecentEnrollments, recent...)
	return d, nil
}

func (s dashboard) Teacher(ctx context.Context, teacherID int64) (*model.TeacherDashboard, error) {
	b := s.b
	ctx = b.authenticate(ctx)
	b.mu.RLock()
	defer b.mu.RUnlock()

	caller, err := b.callerLocked(ctx, adminTeacher)
	if err != nil {
		return nil, err
	}
	if caller.Role != model.RoleAdmin && caller.ID != teacherID {
		return nil, errForbidden()
	}

	d := &model.TeacherDashboard{Classes: []model.Class{}}
	for _, c := range sortedValues(b.classes, func(c *model.Class) bool {
		return c.TeacherID != nil && *c.TeacherID == teacherID
	}) {
		d.Classes = append(d.Classes, b.classViewLocked(&c))
		d.TotalClasses++
		d.TotalStudents += c.CurrentStudents
	}
	return d, nil
}

func (s dashboard) Student(ctx context.Context, studentID int64) (*model.StudentDashboard, error) {
	b := s.b
	ctx = b.authenticate(ctx)
	b.mu.RLock()
	defer b.mu.RUnlock()

	caller, err := b.callerLocked(ctx, anyone)
	if err != nil {
		return nil, err
	}
	if !staff(caller) && caller.ID != studentID {
		return nil, errForbidden()
	}

	today := b.now().UTC().Format("2006-01-02")
	d := &model.StudentDashboard{}
	for _, e := range b.enrollments {
		if e.StudentID != studentID {
			continue
		}
		d.EnrolledClasses++
		if c, ok := b.classes[e.ClassID]; ok && c.EndDate != "" && c.EndDate < today {
			d.CompletedClasses++
		}
	}

	d.Grades = b.gradesLocked(func(g *model.Grade) bool { return g.StudentID == studentID })
	slices.SortFunc(d.Grades, func(x, y model.Grade) int { return cmp.Compare(x.ClassID, y.ClassID) })
	if len(d.Grades) > 0 {
		var sum float64
		for _, g := range d.Grades {
			sum += g.Total
		}
		d.AverageGrade = round2(sum / float64(len(d.Grades)))
	}
	return d, nil
}
