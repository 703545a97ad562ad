package model

import "math"

// AttendanceRecord is keyed by (classId, studentId, date).
type AttendanceRecord struct {
	ID          int64            `json:"id"`
	ClassID     int64            `json:"classId"`
	StudentID   int64            `json:"studentId"`
	StudentName string           `json:"studentName,omitempty"`
	Date        string           `json:"date"`
	Status      AttendanceStatus `json:"status"`
	Notes       string           `json:"notes,omitempty"`
}

// AttendanceInput is a single record payload.
type AttendanceInput struct {
	ClassID   int64            `json:"classId" binding:"required,gt=0"`
	StudentID int64            `json:"studentId" binding:"required,gt=0"`
	Date      string           `json:"date" binding:"required,datetime=2006-01-02"`
	Status    AttendanceStatus `json:"status" binding:"required,oneof=PRESENT ABSENT EXCUSED"`
	Notes     string           `json:"notes,omitempty" binding:"max=500"`
}

// AttendanceEntry is one student's line in a roll call.
type AttendanceEntry struct {
	StudentID int64            `json:"studentId" binding:"required,gt=0"`
	Status    AttendanceStatus `json:"status" binding:"required,oneof=PRESENT ABSENT EXCUSED"`
	Notes     string           `json:"notes,omitempty" binding:"max=500"`
}

// AttendanceSheet is a whole roll call for one class session.
type AttendanceSheet struct {
	ClassID int64             `json:"classId" binding:"required,gt=0"`
	Date    string            `json:"date" binding:"required,datetime=2006-01-02"`
	Entries []AttendanceEntry `json:"entries" binding:"required,min=1,dive"`
}

// AttendanceBatch is the wire body of a roll call upsert.
type AttendanceBatch struct {
	Records []AttendanceInput `json:"records"`
}

// Records flattens the sheet into one record per entry.
func (s AttendanceSheet) Records() []AttendanceInput {
	out := make([]AttendanceInput, 0, len(s.Entries))
	for _, e := range s.Entries {
		out = append(out, AttendanceInput{
			ClassID:   s.ClassID,
			StudentID: e.StudentID,
			Date:      s.Date,
			Status:    e.Status,
			Notes:     e.Notes,
		})
	}
	return out
}

// SheetOf groups records into one sheet. It reports false when the records
// span more than one class or date.
func SheetOf(records []AttendanceInput) (AttendanceSheet, bool) {
	var s AttendanceSheet
	for i, r := range records {
		if i == 0 {
			s.ClassID, s.Date = r.ClassID, r.Date
		} else if r.ClassID != s.ClassID || r.Date != s.Date {
			return AttendanceSheet{}, false
		}
		s.Entries = append(s.Entries, AttendanceEntry{StudentID: r.StudentID, Status: r.Status, Notes: r.Notes})
	}
	return s, true
}

// AttendanceSummary aggregates one student's records in one class.
type AttendanceSummary struct {
	StudentID int64   `json:"studentId"`
	ClassID   int64   `json:"classId"`
	Present   int     `json:"present"`
	Absent    int     `json:"absent"`
	Excused   int     `json:"excused"`
	Total     int     `json:"total"`
	Rate      float64 `json:"rate"`
}

// SummarizeAttendance counts the records belonging to (studentID, classID).
// Rate is the present share in percent, rounded to two decimals.
func SummarizeAttendance(studentID, classID int64, records []AttendanceRecord) AttendanceSummary {
	s := AttendanceSummary{StudentID: studentID, ClassID: classID}
	for _, r := range records {
		if r.StudentID != studentID || r.ClassID != classID {
			continue
		}
		s.Total++
		switch r.Status {
		case AttendancePresent:
			s.Present++
		case AttendanceAbsent:
			s.Absent++
		case AttendanceExcused:
			s.Excused++
		}
	}
	if s.Total > 0 {
		s.Rate = math.Round(float64(s.Present)/float64(s.Total)*10000) / 100
	}
	return s
}
