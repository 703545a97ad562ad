package model

// AdminDashboard backs GET /dashboard/admin.
type AdminDashboard struct {
	TotalStudents       int              `json:"totalStudents"`
	TotalTeachers       int              `json:"totalTeachers"`
	TotalCourses        int              `json:"totalCourses"`
	ActiveCourses       int              `json:"activeCourses"`
	TotalClasses        int              `json:"totalClasses"`
	ActiveClasses       int              `json:"activeClasses"`
	RecentEnrollments   []Enrollment     `json:"recentEnrollments"`
	ClassesNearCapacity []CapacityStatus `json:"classesNearCapacity"`
}

// CapacityStatus is a class listed on the admin dashboard as almost full.
type CapacityStatus struct {
	ID              int64  `json:"id"`
	ClassName       string `json:"className"`
	CourseName      string `json:"courseName"`
	CurrentStudents int    `json:"currentStudents"`
	MaxStudents     int    `json:"maxStudents"`
}

// TeacherDashboard backs GET /dashboard/teacher/:id.
type TeacherDashboard struct {
	TotalClasses  int     `json:"totalClasses"`
	TotalStudents int     `json:"totalStudents"`
	Classes       []Class `json:"classes"`
}

// StudentDashboard backs GET /dashboard/student/:id.
type StudentDashboard struct {
	EnrolledClasses  int     `json:"enrolledClasses"`
	CompletedClasses int     `json:"completedClasses"`
	AverageGrade     float64 `json:"averageGrade"`
	Grades           []Grade `json:"grades"`
}
