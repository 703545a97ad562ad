package model

import (
	"math"
	"time"
)

// Component weights of the grade total.
const (
	MidtermWeight    = 0.3
	FinalWeight      = 0.5
	AttendanceWeight = 0.2
)

// Grade is one student's scores in one class. Total is derived.
type Grade struct {
	ID          int64     `json:"id"`
	ClassID     int64     `json:"classId"`
	ClassName   string    `json:"className,omitempty"`
	StudentID   int64     `json:"studentId"`
	StudentName string    `json:"studentName,omitempty"`
	Midterm     float64   `json:"midterm"`
	Final       float64   `json:"final"`
	Attendance  float64   `json:"attendance"`
	Total       float64   `json:"total"`
	Comments    string    `json:"comments,omitempty"`
	GradedAt    time.Time `json:"gradedAt"`
}

// GradeTotal is the weighted score rounded to two decimals.
func GradeTotal(midterm, final, attendance float64) float64 {
	raw := midterm*MidtermWeight + final*FinalWeight + attendance*AttendanceWeight
	return math.Round(raw*100) / 100
}

// Recompute refreshes Total from the component scores.
func (g *Grade) Recompute() {
	g.Total = GradeTotal(g.Midterm, g.Final, g.Attendance)
}

// GradeInput is one row of a grade sheet, keyed by (classId, studentId).
type GradeInput struct {
	ClassID    int64   `json:"classId" binding:"required,gt=0"`
	StudentID  int64   `json:"studentId" binding:"required,gt=0"`
	Midterm    float64 `json:"midterm" binding:"gte=0,lte=10"`
	Final      float64 `json:"final" binding:"gte=0,lte=10"`
	Attendance float64 `json:"attendance" binding:"gte=0,lte=10"`
	Comments   string  `json:"comments,omitempty" binding:"max=500"`
}

// GradeBatch is the wire body of a grade sheet upsert.
type GradeBatch struct {
	Records []GradeInput `json:"records"`
}
