package model

// Course is a sellable program (e.g. "IELTS Foundation").
type Course struct {
	ID            int64   `json:"id"`
	Code          string  `json:"code"`
	Name          string  `json:"name"`
	Description   string  `json:"description"`
	Price         float64 `json:"price"`
	DurationHours int     `json:"durationHours"`
	Level         Level   `json:"level"`
	Active        bool    `json:"active"`
	TotalClasses  int     `json:"totalClasses"`
}

// CourseInput is the payload for creating or updating a course.
// A nil Active means "active" on create and "unchanged" on update.
type CourseInput struct {
	Code          string  `json:"code" binding:"required,max=20"`
	Name          string  `json:"name" binding:"required,max=100"`
	Description   string  `json:"description" binding:"max=1000"`
	Price         float64 `json:"price" binding:"gte=0"`
	DurationHours int     `json:"durationHours" binding:"required,gt=0"`
	Level         Level   `json:"level" binding:"required,oneof=BEGINNER INTERMEDIATE ADVANCED"`
	Active        *bool   `json:"active,omitempty"`
}
