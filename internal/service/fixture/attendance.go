package fixture

import (
	"context"
	"time"

	"github.com/wisekey/langcenter/internal/apierr"
	"github.com/wisekey/langcenter/internal/model"
	"github.com/wisekey/langcenter/internal/response"
)

type attendance struct{ b *Backend }

func (b *Backend) attendanceViewLocked(a *model.AttendanceRecord) model.AttendanceRecord {
	out := *a
	if u, ok := b.users[a.StudentID]; ok {
		out.StudentName = u.FullName()
	}
	return out
}

func (b *Backend) attendanceLocked(keep func(*model.AttendanceRecord) bool) []model.AttendanceRecord {
	out := sortedValues(b.attendance, keep)
	for i := range out {
		out[i] = b.attendanceViewLocked(&out[i])
	}
	return out
}

func (s attendance) List(ctx context.Context) ([]model.AttendanceRecord, error) {
	b := s.b
	ctx = b.authenticate(ctx)
	b.mu.RLock()
	defer b.mu.RUnlock()

	if _, err := b.callerLocked(ctx, adminTeacher); err != nil {
		return nil, err
	}
	return b.attendanceLocked(nil), nil
}

func (s attendance) ListByClass(ctx context.Context, classID int64) ([]model.AttendanceRecord, error) {
	b := s.b
	ctx = b.authenticate(ctx)
	b.mu.RLock()
	defer b.mu.RUnlock()

	if _, err := b.callerLocked(ctx, adminTeacher); err != nil {
		return nil, err
	}
	return b.attendanceLocked(func(a *model.AttendanceRecord) bool { return a.ClassID == classID }), nil
}

func (s attendance) ListByStudent(ctx context.Context, studentID int64) ([]model.AttendanceRecord, error) {
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
	return b.attendanceLocked(func(a *model.AttendanceRecord) bool { return a.StudentID == studentID }), nil
}

func (s attendance) ListByDate(ctx context.Context, classID int64, date string) ([]model.AttendanceRecord, error) {
	ctx = s.b.authenticate(ctx)
	if _, err := time.Parse(time.DateOnly, date); err != nil {
		return nil, invalid("date", "date must be in YYYY-MM-DD format")
	}
	b := s.b
	b.mu.RLock()
	defer b.mu.RUnlock()

	if _, err := b.callerLocked(ctx, adminTeacher); err != nil {
		return nil, err
	}
	return b.attendanceLocked(func(a *model.AttendanceRecord) bool {
		return a.ClassID == classID && a.Date == date
	}), nil
}

func (s attendance) Summary(ctx context.Context, studentID, classID int64) (*model.AttendanceSummary, error) {
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
	records := sortedValues(b.attendance, func(a *model.AttendanceRecord) bool {
		return a.StudentID == studentID && a.ClassID == classID
	})
	sum := model.SummarizeAttendance(studentID, classID, records)
	return &sum, nil
}

func (s attendance) Get(ctx context.Context, id int64) (*model.AttendanceRecord, error) {
	b := s.b
	ctx = b.authenticate(ctx)
	b.mu.RLock()
	defer b.mu.RUnlock()

	caller, err := b.callerLocked(ctx, anyone)
	if err != nil {
		return nil, err
	}
	a, ok := b.attendance[id]
	if !ok {
		return nil, apierr.NotFound("attendance record", id)
	}
	if !staff(caller) && caller.ID != a.StudentID {
		return nil, errForbidden()
	}
	out := b.attendanceViewLocked(a)
	return &out, nil
}

func (s attendance) Create(ctx context.Context, in model.AttendanceInput) (*model.AttendanceRecord, error) {
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
	entry := model.AttendanceEntry{StudentID: in.StudentID, Status: in.Status, Notes: in.Notes}
	if err := b.checkAttendanceLocked(caller, in.ClassID, entry); err != nil {
		return nil, err
	}
	if b.findAttendanceLocked(in.ClassID, in.StudentID, in.Date) != nil {
		return nil, apierr.Conflict("Attendance already recorded for this student on this date.")
	}

	a := b.putAttendanceLocked(in.ClassID, in.Date, entry)
	out := b.attendanceViewLocked(a)
	return &out, nil
}

func (s attendance) Update(ctx context.Context, id int64, in model.AttendanceInput) (*model.AttendanceRecord, error) {
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
	a, ok := b.attendance[id]
	if !ok {
		return nil, apierr.NotFound("attendance record", id)
	}
	entry := model.AttendanceEntry{StudentID: in.StudentID, Status: in.Status, Notes: in.Notes}
	if err := b.checkAttendanceLocked(caller, in.ClassID, entry); err != nil {
		return nil, err
	}
	if other := b.findAttendanceLocked(in.ClassID, in.StudentID, in.Date); other != nil && other.ID != id {
		return nil, apierr.Conflict("Attendance already recorded for this student on this date.")
	}

	a.ClassID = in.ClassID
	a.StudentID = in.StudentID
	a.Date = in.Date
	a.Status = in.Status
	a.Notes = in.Notes
	out := b.attendanceViewLocked(a)
	return &out, nil
}

func (s attendance) Delete(ctx context.Context, id int64) error {
	b := s.b
	ctx = b.authenticate(ctx)
	b.mu.Lock()
	defer b.mu.Unlock()

	caller, err := b.callerLocked(ctx, adminTeacher)
	if err != nil {
		return err
	}
	a, ok := b.attendance[id]
	if !ok {
		return apierr.NotFound("attendance record", id)
	}
	if c, ok := b.classes[a.ClassID]; ok && !mayTeach(caller, c) {
		return errForbidden()
	}
	delete(b.attendance, id)
	return nil
}

// Take records a whole roll call or nothing.
func (s attendance) Take(ctx context.Context, sheet model.AttendanceSheet) ([]model.AttendanceRecord, error) {
	ctx = s.b.authenticate(ctx)
	if err := check(sheet); err != nil {
		return nil, err
	}
	b := s.b
	b.mu.Lock()
	defer b.mu.Unlock()

	caller, err := b.callerLocked(ctx, adminTeacher)
	if err != nil {
		return nil, err
	}
	seen := make(map[int64]bool, len(sheet.Entries))
	for i, entry := range sheet.Entries {
		if seen[entry.StudentID] {
			return nil, rowError(i, invalid("studentId", "student listed twice"))
		}
		seen[entry.StudentID] = true
		if err := b.checkAttendanceLocked(caller, sheet.ClassID, entry); err != nil {
			return nil, rowError(i, err)
		}
	}

	out := make([]model.AttendanceRecord, 0, len(sheet.Entries))
	for _, entry := range sheet.Entries {
		out = append(out, b.attendanceViewLocked(b.putAttendanceLocked(sheet.ClassID, sheet.Date, entry)))
	}
	b.log.Info().
		Int64("class_id", sheet.ClassID).
		Str("date", sheet.Date).
		Int("rows", len(out)).
		Msg("Attendance taken")
	return out, nil
}

// putAttendanceLocked inserts or overwrites the record keyed by
// (class, student, date).
func (b *Backend) putAttendanceLocked(classID int64, date string, entry model.AttendanceEntry) *model.AttendanceRecord {
	a := b.findAttendanceLocked(classID, entry.StudentID, date)
	if a == nil {
		a = &model.AttendanceRecord{ID: b.allocID("attendance"), ClassID: classID, StudentID: entry.StudentID, Date: date}
		b.attendance[a.ID] = a
	}
	a.Status = entry.Status
	a.Notes = entry.Notes
	return a
}

func (b *Backend) checkAttendanceLocked(caller *userRecord, classID int64, entry model.AttendanceEntry) error {
	c, ok := b.classes[classID]
	if !ok {
		return apierr.NotFound("class", classID)
	}
	if !mayTeach(caller, c) {
		return errForbidden()
	}
	if b.findEnrollmentLocked(entry.StudentID, classID) == nil {
		return coded(response.ErrNotEnrolled, "")
	}
	return nil
}

func (b *Backend) findAttendanceLocked(classID, studentID int64, date string) *model.AttendanceRecord {
	for _, a := range b.attendance {
		if a.ClassID == classID && a.StudentID == studentID && a.Date == date {
			return a
		}
	}
	return nil
}
