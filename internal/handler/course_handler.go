package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wisekey/langcenter/internal/model"
	"github.com/wisekey/langcenter/internal/service"
)

// CourseHandler handles the course catalog.
type CourseHandler struct {
	crud[model.Course, model.CourseInput]
	courses service.CourseService
}

// NewCourseHandler creates a new CourseHandler.
func NewCourseHandler(courses service.CourseService) *CourseHandler {
	return &CourseHandler{crud: crud[model.Course, model.CourseInput]{courses}, courses: courses}
}

// ListActive godoc
// GET /api/courses/active
func (h *CourseHandler) ListActive(c *gin.Context) {
	courses, err := h.courses.ListActive(c.Request.Context())
	reply(c, http.StatusOK, courses, err)
}

// Search godoc
// GET /api/courses/search?q=
// Matches code, name and description case-insensitively.
func (h *CourseHandler) Search(c *gin.Context) {
	courses, err := h.courses.Search(c.Request.Context(), c.Query("q"))
	reply(c, http.StatusOK, courses, err)
}
