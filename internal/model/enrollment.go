package model

import "time"

// Enrollment links a student to a class.
type Enrollment struct {
	ID          int64     `json:"id"`
	StudentID   int64     `json:"studentId"`
	StudentName string    `json:"studentName,omitempty"`
	ClassID     int64     `json:"classId"`
	ClassName   string    `json:"className,omitempty"`
	CourseName  string    `json:"courseName,omitempty"`
	EnrolledAt  time.Time `json:"enrolledAt"`
	Cancellable bool      `json:"cancellable"`
}

// EnrollmentInput is the payload for enrolling a student.
type EnrollmentInput struct {
	StudentID int64 `json:"studentId" binding:"required,gt=0"`
	ClassID   int64 `json:"classId" binding:"required,gt=0"`
}

// EnrollmentCheck is returned by GET /enrollments/check.
type EnrollmentCheck struct {
	StudentID int64 `json:"studentId"`
	ClassID   int64 `json:"classId"`
	Enrolled  bool  `json:"enrolled"`
}
