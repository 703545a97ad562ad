package model

// Class is a scheduled section of a course.
type Class struct {
	ID              int64       `json:"id"`
	Code            string      `json:"code"`
	Name            string      `json:"name"`
	CourseID        int64       `json:"courseId"`
	CourseName      string      `json:"courseName,omitempty"`
	TeacherID       *int64      `json:"teacherId,omitempty"`
	TeacherName     string      `json:"teacherName,omitempty"`
	MaxStudents     int         `json:"maxStudents"`
	CurrentStudents int         `json:"currentStudents"`
	Schedule        string      `json:"schedule"`
	StartDate       string      `json:"startDate"`
	EndDate         string      `json:"endDate"`
	Status          ClassStatus `json:"status"`
}

// Full reports whether the class reached capacity. Callers use it to gate
// the enroll action; the backend enforces it regardless.
func (c Class) Full() bool {
	return c.CurrentStudents >= c.MaxStudents
}

// Available reports whether a new enrollment could be accepted.
func (c Class) Available() bool {
	return c.Status == ClassOpen && !c.Full()
}

// ClassInput is the payload for creating or updating a class.
type ClassInput struct {
	Code        string      `json:"code" binding:"required,max=20"`
	Name        string      `json:"name" binding:"required,max=100"`
	CourseID    int64       `json:"courseId" binding:"required,gt=0"`
	TeacherID   *int64      `json:"teacherId,omitempty" binding:"omitempty,gt=0"`
	MaxStudents int         `json:"maxStudents" binding:"required,gt=0,lte=500"`
	Schedule    string      `json:"schedule" binding:"max=200"`
	StartDate   string      `json:"startDate" binding:"required,datetime=2006-01-02"`
	EndDate     string      `json:"endDate" binding:"required,datetime=2006-01-02"`
	Status      ClassStatus `json:"status,omitempty" binding:"omitempty,oneof=OPEN CLOSED"`
}

// AssignTeacherInput is the payload for PUT /classes/:id/teacher.
type AssignTeacherInput struct {
	TeacherID int64 `json:"teacherId" binding:"required,gt=0"`
}

// ClassStatusInput is the payload for PUT /classes/:id/status.
type ClassStatusInput struct {
	Status ClassStatus `json:"status" binding:"required,oneof=OPEN CLOSED"`
}
