package fixture

import (
	"context"
	"strings"

	"github.com/wisekey/langcenter/internal/apierr"
	"github.com/wisekey/langcenter/internal/model"
	"github.com/wisekey/langcenter/internal/response"
)

type classes struct{ b *Backend }

// classViewLocked copies c and fills the display names.
func (b *Backend) classViewLocked(c *model.Class) model.Class {
	out := *c
	out.CourseName = ""
	out.TeacherName = ""
	if course, ok := b.courses[c.CourseID]; ok {
		out.CourseName = course.Name
	}
	if c.TeacherID != nil {
		tid := *c.TeacherID
		out.TeacherID = &tid
		if t, ok := b.users[tid]; ok {
			out.TeacherName = t.FullName()
		}
	}
	return out
}

func (s classes) filter(ctx context.Context, keep func(*model.Class) bool) ([]model.Class, error) {
	b := s.b
	ctx = b.authenticate(ctx)
	b.mu.RLock()
	defer b.mu.RUnlock()

	if _, err := b.callerLocked(ctx, anyone); err != nil {
		return nil, err
	}
	out := sortedValues(b.classes, keep)
	for i := range out {
		out[i] = b.classViewLocked(&out[i])
	}
	return out, nil
}

func (s classes) List(ctx context.Context) ([]model.Class, error) {
	return s.filter(ctx, nil)
}

func (s classes) ListByCourse(ctx context.Context, courseID int64) ([]model.Class, error) {
	return s.filter(ctx, func(c *model.Class) bool { return c.CourseID == courseID })
}

func (s classes) ListByTeacher(ctx context.Context, teacherID int64) ([]model.Class, error) {
	return s.filter(ctx, func(c *model.Class) bool { return c.TeacherID != nil && *c.TeacherID == teacherID })
}

func (s classes) ListAvailable(ctx context.Context) ([]model.Class, error) {
	return s.filter(ctx, func(c *model.Class) bool { return c.Available() })
}

func (s classes) Get(ctx context.Context, id int64) (*model.Class, error) {
	b := s.b
	ctx = b.authenticate(ctx)
	b.mu.RLock()
	defer b.mu.RUnlock()

	if _, err := b.callerLocked(ctx, anyone); err != nil {
		return nil, err
	}
	c, ok := b.classes[id]
	if !ok {
		return nil, apierr.NotFound("class", id)
	}
	out := b.classViewLocked(c)
	return &out, nil
}

// Students lists the users enrolled in a class.
func (s classes) Students(ctx context.Context, classID int64) ([]model.User, error) {
	b := s.b
	ctx = b.authenticate(ctx)
	b.mu.RLock()
	defer b.mu.RUnlock()

	if _, err := b.callerLocked(ctx, adminTeacher); err != nil {
		return nil, err
	}
	if _, ok := b.classes[classID]; !ok {
		return nil, apierr.NotFound("class", classID)
	}

	enrolled := make(map[int64]bool)
	for _, e := range b.enrollments {
		if e.ClassID == classID {
			enrolled[e.StudentID] = true
		}
	}
	out := make([]model.User, 0, len(enrolled))
	for _, u := range sortedValues(b.users, func(u *userRecord) bool { return enrolled[u.ID] }) {
		out = append(out, u.User)
	}
	return out, nil
}

func (s classes) Create(ctx context.Context, in model.ClassInput) (*model.Class, error) {
	ctx = s.b.authenticate(ctx)
	if err := check(in); err != nil {
		return nil, err
	}
	b := s.b
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, err := b.callerLocked(ctx, adminOnly); err != nil {
		return nil, err
	}
	if err := b.checkClassLocked(0, in); err != nil {
		return nil, err
	}

	c := &model.Class{ID: b.allocID("class"), Status: model.ClassOpen}
	applyClass(c, in)
	b.classes[c.ID] = c
	out := b.classViewLocked(c)
	return &out, nil
}

func (s classes) Update(ctx context.Context, id int64, in model.ClassInput) (*model.Class, error) {
	ctx = s.b.authenticate(ctx)
	if err := check(in); err != nil {
		return nil, err
	}
	b := s.b
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, err := b.callerLocked(ctx, adminOnly); err != nil {
		return nil, err
	}
	c, ok := b.classes[id]
	if !ok {
		return nil, apierr.NotFound("class", id)
	}
	if err := b.checkClassLocked(id, in); err != nil {
		return nil, err
	}
	if in.MaxStudents < c.CurrentStudents {
		return nil, invalid("maxStudents", "maxStudents cannot be below the current number of students")
	}

	applyClass(c, in)
	out := b.classViewLocked(c)
	return &out, nil
}

func (s classes) Delete(ctx context.Context, id int64) error {
	b := s.b
	ctx = b.authenticate(ctx)
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, err := b.callerLocked(ctx, adminOnly); err != nil {
		return err
	}
	if _, ok := b.classes[id]; !ok {
		return apierr.NotFound("class", id)
	}
	for _, e := range b.enrollments {
		if e.ClassID == id {
			return coded(response.ErrDependencyExists, "Class still has enrolled students.")
		}
	}
	delete(b.classes, id)
	return nil
}

func (s classes) AssignTeacher(ctx context.Context, classID, teacherID int64) (*model.Class, error) {
	b := s.b
	ctx = b.authenticate(ctx)
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, err := b.callerLocked(ctx, adminOnly); err != nil {
		return nil, err
	}
	c, ok := b.classes[classID]
	if !ok {
		return nil, apierr.NotFound("class", classID)
	}
	if err := b.checkTeacherLocked(teacherID); err != nil {
		return nil, err
	}
	c.TeacherID = &teacherID
	out := b.classViewLocked(c)
	return &out, nil
}

func (s classes) SetStatus(ctx context.Context, classID int64, status model.ClassStatus) (*model.Class, error) {
	ctx = s.b.authenticate(ctx)
	if err := check(model.ClassStatusInput{Status: status}); err != nil {
		return nil, err
	}
	b := s.b
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, err := b.callerLocked(ctx, adminOnly); err != nil {
		return nil, err
	}
	c, ok := b.classes[classID]
	if !ok {
		return nil, apierr.NotFound("class", classID)
	}
	c.Status = status
	out := b.classViewLocked(c)
	return &out, nil
}

func applyClass(c *model.Class, in model.ClassInput) {
	c.Code = in.Code
	c.Name = in.Name
	c.CourseID = in.CourseID
	c.MaxStudents = in.MaxStudents
	c.Schedule = in.Schedule
	c.StartDate = in.StartDate
	c.EndDate = in.EndDate
	if in.TeacherID != nil {
		tid := *in.TeacherID
		c.TeacherID = &tid
	} else {
		c.TeacherID = nil
	}
	if in.Status != "" {
		c.Status = in.Status
	}
}

// checkClassLocked enforces the cross-entity rules of a class payload.
func (b *Backend) checkClassLocked(self int64, in model.ClassInput) error {
	if _, ok := b.courses[in.CourseID]; !ok {
		return invalid("courseId", "course does not exist")
	}
	if in.TeacherID != nil {
		if err := b.checkTeacherLocked(*in.TeacherID); err != nil {
			return err
		}
	}
	// Dates are validated as YYYY-MM-DD, so string order is date order.
	if in.EndDate < in.StartDate {
		return invalid("endDate", "endDate must not be before startDate")
	}
	for _, c := range b.classes {
		if c.ID != self && strings.EqualFold(c.Code, in.Code) {
			e := apierr.Conflict("Class code already exists.")
			e.Fields = map[string]string{"code": "code already exists"}
			return e
		}
	}
	return nil
}

func (b *Backend) checkTeacherLocked(id int64) error {
	t, ok := b.users[id]
	if !ok || t.Role != model.RoleTeacher {
		return invalid("teacherId", "teacher does not exist")
	}
	return nil
}
