package fixture

import (
	"context"

	"github.com/wisekey/langcenter/internal/apierr"
	"github.com/wisekey/langcenter/internal/model"
	"github.com/wisekey/langcenter/internal/response"
)

type enrollments struct{ b *Backend }

func (b *Backend) enrollmentViewLocked(e *model.Enrollment) model.Enrollment {
	out := *e
	if u, ok := b.users[e.StudentID]; ok {
		out.StudentName = u.FullName()
	}
	if c, ok := b.classes[e.ClassID]; ok {
		out.ClassName = c.Name
		if course, ok := b.courses[c.CourseID]; ok {
			out.CourseName = course.Name
		}
	}
	return out
}

func (b *Backend) enrollmentsLocked(keep func(*model.Enrollment) bool) []model.Enrollment {
	out := sortedValues(b.enrollments, keep)
	for i := range out {
		out[i] = b.enrollmentViewLocked(&out[i])
	}
	return out
}

func (s enrollments) List(ctx context.Context) ([]model.Enrollment, error) {
	b := s.b
	ctx = b.authenticate(ctx)
	b.mu.RLock()
	defer b.mu.RUnlock()

	if _, err := b.callerLocked(ctx, adminTeacher); err != nil {
		return nil, err
	}
	return b.enrollmentsLocked(nil), nil
}

func (s enrollments) ListByStudent(ctx context.Context, studentID int64) ([]model.Enrollment, error) {
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
	return b.enrollmentsLocked(func(e *model.Enrollment) bool { return e.StudentID == studentID }), nil
}

func (s enrollments) ListByClass(ctx context.Context, classID int64) ([]model.Enrollment, error) {
	b := s.b
	ctx = b.authenticate(ctx)
	b.mu.RLock()
	defer b.mu.RUnlock()

	if _, err := b.callerLocked(ctx, adminTeacher); err != nil {
		return nil, err
	}
	return b.enrollmentsLocked(func(e *model.Enrollment) bool { return e.ClassID == classID }), nil
}

func (s enrollments) IsEnrolled(ctx context.Context, studentID, classID int64) (bool, error) {
	b := s.b
	ctx = b.authenticate(ctx)
	b.mu.RLock()
	defer b.mu.RUnlock()

	caller, err := b.callerLocked(ctx, anyone)
	if err != nil {
		return false, err
	}
	if !staff(caller) && caller.ID != studentID {
		return false, errForbidden()
	}
	return b.findEnrollmentLocked(studentID, classID) != nil, nil
}

func (s enrollments) Get(ctx context.Context, id int64) (*model.Enrollment, error) {
	b := s.b
	ctx = b.authenticate(ctx)
	b.mu.RLock()
	defer b.mu.RUnlock()

	caller, err := b.callerLocked(ctx, anyone)
	if err != nil {
		return nil, err
	}
	e, ok := b.enrollments[id]
	if !ok {
		return nil, apierr.NotFound("enrollment", id)
	}
	if !staff(caller) && caller.ID != e.StudentID {
		return nil, errForbidden()
	}
	out := b.enrollmentViewLocked(e)
	return &out, nil
}

// Create enrolls a student. Students may only enroll themselves.
func (s enrollments) Create(ctx context.Context, in model.EnrollmentInput) (*model.Enrollment, error) {
	ctx = s.b.authenticate(ctx)
	if err := check(in); err != nil {
		return nil, err
	}
	b := s.b
	b.mu.Lock()
	defer b.mu.Unlock()

	caller, err := b.callerLocked(ctx, anyone)
	if err != nil {
		return nil, err
	}
	if caller.Role == model.RoleStudent && caller.ID != in.StudentID {
		return nil, errForbidden()
	}
	class, err := b.admitLocked(in.StudentID, in.ClassID)
	if err != nil {
		return nil, err
	}

	e := &model.Enrollment{
		ID:          b.allocID("enrollment"),
		StudentID:   in.StudentID,
		ClassID:     in.ClassID,
		EnrolledAt:  b.now().UTC(),
		Cancellable: true,
	}
	b.enrollments[e.ID] = e
	class.CurrentStudents++

	b.log.Info().
		Int64("student_id", e.StudentID).
		Int64("class_id", e.ClassID).
		Int("current", class.CurrentStudents).
		Int("max", class.MaxStudents).
		Msg("Student enrolled")

	out := b.enrollmentViewLocked(e)
	return &out, nil
}

// Update moves an enrollment to another student or class. The target class
// is checked like a new enrollment.
func (s enrollments) Update(ctx context.Context, id int64, in model.EnrollmentInput) (*model.Enrollment, error) {
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
	e, ok := b.enrollments[id]
	if !ok {
		return nil, apierr.NotFound("enrollment", id)
	}
	if e.StudentID == in.StudentID && e.ClassID == in.ClassID {
		out := b.enrollmentViewLocked(e)
		return &out, nil
	}

	if e.ClassID == in.ClassID {
		// Same seat, different student: capacity is unchanged.
		student, ok := b.users[in.StudentID]
		if !ok || student.Role != model.RoleStudent {
			return nil, invalid("studentId", "student does not exist")
		}
		if b.findEnrollmentLocked(in.StudentID, in.ClassID) != nil {
			return nil, apierr.Conflict("The student is already enrolled in this class.")
		}
	} else {
		target, err := b.admitLocked(in.StudentID, in.ClassID)
		if err != nil {
			return nil, err
		}
		if old, ok := b.classes[e.ClassID]; ok && old.CurrentStudents > 0 {
			old.CurrentStudents--
		}
		target.CurrentStudents++
	}
	e.StudentID = in.StudentID
	e.ClassID = in.ClassID

	out := b.enrollmentViewLocked(e)
	return &out, nil
}

// Delete cancels an enrollment. Students may cancel only their own.
func (s enrollments) Delete(ctx context.Context, id int64) error {
	b := s.b
	ctx = b.authenticate(ctx)
	b.mu.Lock()
	defer b.mu.Unlock()

	caller, err := b.callerLocked(ctx, anyone)
	if err != nil {
		return err
	}
	e, ok := b.enrollments[id]
	if !ok {
		return apierr.NotFound("enrollment", id)
	}
	switch {
	case caller.Role == model.RoleAdmin:
	case caller.Role == model.RoleStudent && caller.ID == e.StudentID:
	default:
		return errForbidden()
	}
	if !e.Cancellable {
		return coded(response.ErrValidation, "This enrollment can no longer be cancelled.")
	}

	if c, ok := b.classes[e.ClassID]; ok && c.CurrentStudents > 0 {
		c.CurrentStudents--
	}
	delete(b.enrollments, id)
	return nil
}

// admitLocked checks that studentID may join classID and returns the class.
func (b *Backend) admitLocked(studentID, classID int64) (*model.Class, error) {
	student, ok := b.users[studentID]
	if !ok || student.Role != model.RoleStudent {
		return nil, invalid("studentId", "student does not exist")
	}
	class, ok := b.classes[classID]
	if !ok {
		return nil, apierr.NotFound("class", classID)
	}
	if b.findEnrollmentLocked(studentID, classID) != nil {
		return nil, apierr.Conflict("The student is already enrolled in this class.")
	}
	if class.Status != model.ClassOpen {
		return nil, coded(response.ErrClassClosed, "")
	}
	if class.Full() {
		return nil, coded(response.ErrClassFull, "")
	}
	return class, nil
}

func (b *Backend) findEnrollmentLocked(studentID, classID int64) *model.Enrollment {
	for _, e := range b.enrollments {
		if e.StudentID == studentID && e.ClassID == classID {
			return e
		}
	}
	return nil
}
