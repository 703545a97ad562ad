package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wisekey/langcenter/internal/model"
	"github.com/wisekey/langcenter/internal/service"
)

// EnrollmentHandler handles student enrollments.
type EnrollmentHandler struct {
	crud[model.Enrollment, model.EnrollmentInput]
	enrollments service.EnrollmentService
}

// NewEnrollmentHandler creates a new EnrollmentHandler.
func NewEnrollmentHandler(enrollments service.EnrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{
		crud:        crud[model.Enrollment, model.EnrollmentInput]{enrollments},
		enrollments: enrollments,
	}
}

// ListByStudent godoc
// GET /api/enrollments/student/:id
func (h *EnrollmentHandler) ListByStudent(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	items, err := h.enrollments.ListByStudent(c.Request.Context(), id)
	reply(c, http.StatusOK, items, err)
}

// ListByClass godoc
// GET /api/enrollments/class/:id
func (h *EnrollmentHandler) ListByClass(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	items, err := h.enrollments.ListByClass(c.Request.Context(), id)
	reply(c, http.StatusOK, items, err)
}

// Check godoc
// GET /api/enrollments/check?studentId=&classId=
func (h *EnrollmentHandler) Check(c *gin.Context) {
	studentID, ok := queryID(c, "studentId")
	if !ok {
		return
	}
	classID, ok := queryID(c, "classId")
	if !ok {
		return
	}
	enrolled, err := h.enrollments.IsEnrolled(c.Request.Context(), studentID, classID)
	reply(c, http.StatusOK, model.EnrollmentCheck{StudentID: studentID, ClassID: classID, Enrolled: enrolled}, err)
}
