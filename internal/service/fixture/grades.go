package fixture

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/wisekey/langcenter/internal/apierr"
	"github.com/wisekey/langcenter/internal/model"
	"github.com/wisekey/langcenter/internal/response"
	"github.com/wisekey/langcenter/internal/validator"
)

type grades struct{ b *Backend }

func (b *Backend) gradeViewLocked(g *model.Grade) model.Grade {
	out := *g
	if u, ok := b.users[g.StudentID]; ok {
		out.StudentName = u.FullName()
	}
	if c, ok := b.classes[g.ClassID]; ok {
		out.ClassName = c.Name
	}
	return out
}

func (b *Backend) gradesLocked(keep func(*model.Grade) bool) []model.Grade {
	out := sortedValues(b.grades, keep)
	for i := range out {
		out[i] = b.gradeViewLocked(&out[i])
	}
	return out
}

func (s grades) List(ctx context.Context) ([]model.Grade, error) {
	b := s.b
	ctx = b.authenticate(ctx)
	b.mu.RLock()
	defer b.mu.RUnlock()

	if _, err := b.callerLocked(ctx, adminTeacher); err != nil {
		return nil, err
	}
	return b.gradesLocked(nil), nil
}

func (s grades) ListByClass(ctx context.Context, classID int64) ([]model.Grade, error) {
	b := s.b
	ctx = b.authenticate(ctx)
	b.mu.RLock()
	defer b.mu.RUnlock()

	if _, err := b.callerLocked(ctx, adminTeacher); err != nil {
		return nil, err
	}
	return b.gradesLocked(func(g *model.Grade) bool { return g.ClassID == classID }), nil
}

func (s grades) ListByStudent(ctx context.Context, studentID int64) ([]model.Grade, error) {
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
	return b.gradesLocked(func(g *model.Grade) bool { return g.StudentID == studentID }), nil
}

func (s grades) ForStudentInClass(ctx context.Context, studentID, classID int64) (*model.Grade, error) {
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
	g := b.findGradeLocked(classID, studentID)
	if g == nil {
		return nil, apierr.New(apierr.ErrNotFound, response.ErrNotFound,
			fmt.Sprintf("no grade for student %d in class %d", studentID, classID))
	}
	out := b.gradeViewLocked(g)
	return &out, nil
}

func (s grades) Get(ctx context.Context, id int64) (*model.Grade, error) {
	b := s.b
	ctx = b.authenticate(ctx)
	b.mu.RLock()
	defer b.mu.RUnlock()

	caller, err := b.callerLocked(ctx, anyone)
	if err != nil {
		return nil, err
	}
	g, ok := b.grades[id]
	if !ok {
		return nil, apierr.NotFound("grade", id)
	}
	if !staff(caller) && caller.ID != g.StudentID {
		return nil, errForbidden()
	}
	out := b.gradeViewLocked(g)
	return &out, nil
}

func (s grades) Create(ctx context.Context, in model.GradeInput) (*model.Grade, error) {
	ctx = s.b.authenticate(ctx)
	if err := check(in); err != nil {
		return nil, err
	}
	b := s.b
	b.mu.Lock()
	defer b.mu.Unlock()

	caller, err := b.callerLocked(ctx, adminTeacher)
	if err != nil {
		return nil, err
	}
	if err := b.checkGradeLocked(caller, in); err != nil {
		return nil, err
	}
	if b.findGradeLocked(in.ClassID, in.StudentID) != nil {
		return nil, apierr.Conflict("A grade already exists for this student in this class.")
	}

	g := b.putGradeLocked(in)
	out := b.gradeViewLocked(g)
	return &out, nil
}

func (s grades) Update(ctx context.Context, id int64, in model.GradeInput) (*model.Grade, error) {
	ctx = s.b.authenticate(ctx)
	if err := check(in); err != nil {
		return nil, err
	}
	b := s.b
	b.mu.Lock()
	defer b.mu.Unlock()

	caller, err := b.callerLocked(ctx, adminTeacher)
	if err != nil {
		return nil, err
	}
	g, ok := b.grades[id]
	if !ok {
		return nil, apierr.NotFound("grade", id)
	}
	if err := b.checkGradeLocked(caller, in); err != nil {
		return nil, err
	}
	if other := b.findGradeLocked(in.ClassID, in.StudentID); other != nil && other.ID != id {
		return nil, apierr.Conflict("A grade already exists for this student in this class.")
	}

	applyGrade(g, in)
	g.GradedAt = b.now().UTC()
	out := b.gradeViewLocked(g)
	return &out, nil
}

func (s grades) Delete(ctx context.Context, id int64) error {
	b := s.b
	ctx = b.authenticate(ctx)
	b.mu.Lock()
	defer b.mu.Unlock()

	caller, err := b.callerLocked(ctx, adminTeacher)
	if err != nil {
		return err
	}
	g, ok := b.grades[id]
	if !ok {
		return apierr.NotFound("grade", id)
	}
	if c, ok := b.classes[g.ClassID]; ok && !mayTeach(caller, c) {
		return errForbidden()
	}
	delete(b.grades, id)
	return nil
}

// Save upserts the whole sheet or nothing.
func (s grades) Save(ctx context.Context, sheet []model.GradeInput) ([]model.Grade, error) {
	ctx = s.b.authenticate(ctx)
	if len(sheet) == 0 {
		return nil, invalid("grades", "at least one grade is required")
	}
	if fields := validator.Slice(sheet); fields != nil {
		return nil, apierr.Validation(fields)
	}

	b := s.b
	b.mu.Lock()
	defer b.mu.Unlock()

	caller, err := b.callerLocked(ctx, adminTeacher)
	if err != nil {
		return nil, err
	}
	for i, in := range sheet {
		if err := b.checkGradeLocked(caller, in); err != nil {
			return nil, rowError(i, err)
		}
	}

	out := make([]model.Grade, 0, len(sheet))
	for _, in := range sheet {
		out = append(out, b.gradeViewLocked(b.putGradeLocked(in)))
	}
	b.log.Info().Int("rows", len(out)).Int64("by", caller.ID).Msg("Grade sheet saved")
	return out, nil
}

// putGradeLocked inserts or overwrites the grade keyed by (class, student).
func (b *Backend) putGradeLocked(in model.GradeInput) *model.Grade {
	g := b.findGradeLocked(in.ClassID, in.StudentID)
	if g == nil {
		g = &model.Grade{ID: b.allocID("grade")}
		b.grades[g.ID] = g
	}
	applyGrade(g, in)
	g.GradedAt = b.now().UTC()
	return g
}

func applyGrade(g *model.Grade, in model.GradeInput) {
	g.ClassID = in.ClassID
	g.StudentID = in.StudentID
	g.Midterm = in.Midterm
	g.Final = in.Final
	g.Attendance = in.Attendance
	g.Comments = in.Comments
	g.Recompute()
}

func (b *Backend) checkGradeLocked(caller *userRecord, in model.GradeInput) error {
	c, ok := b.classes[in.ClassID]
	if !ok {
		return apierr.NotFound("class", in.ClassID)
	}
	if !mayTeach(caller, c) {
		return errForbidden()
	}
	if b.findEnrollmentLocked(in.StudentID, in.ClassID) == nil {
		return coded(response.ErrNotEnrolled, "")
	}
	return nil
}

func (b *Backend) findGradeLocked(classID, studentID int64) *model.Grade {
	for _, g := range b.grades {
		if g.ClassID == classID && g.StudentID == studentID {
			return g
		}
	}
	return nil
}

// rowError prefixes a validation message with the failing row index.
func rowError(i int, err error) error {
	var e *apierr.Error
	if !errors.As(err, &e) || e.Kind != apierr.ErrValidation {
		return err
	}
	cp := *e
	cp.Message = "row " + strconv.Itoa(i) + ": " + apierr.Message(e)
	return &cp
}
