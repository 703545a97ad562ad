package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wisekey/langcenter/internal/model"
	"github.com/wisekey/langcenter/internal/service"
)

// ClassHandler handles classes and their rosters.
type ClassHandler struct {
	crud[model.Class, model.ClassInput]
	classes service.ClassService
}

// NewClassHandler creates a new ClassHandler.
func NewClassHandler(classes service.ClassService) *ClassHandler {
	return &ClassHandler{crud: crud[model.Class, model.ClassInput]{classes}, classes: classes}
}

// ListByCourse godoc
// GET /api/classes/course/:id
func (h *ClassHandler) ListByCourse(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	classes, err := h.classes.ListByCourse(c.Request.Context(), id)
	reply(c, http.StatusOK, classes, err)
}

// ListByTeacher godoc
// GET /api/classes/teacher/:id
func (h *ClassHandler) ListByTeacher(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	classes, err := h.classes.ListByTeacher(c.Request.Context(), id)
	reply(c, http.StatusOK, classes, err)
}

// ListAvailable godoc
// GET /api/classes/available
// Lists open classes that still have seats.
func (h *ClassHandler) ListAvailable(c *gin.Context) {
	classes, err := h.classes.ListAvailable(c.Request.Context())
	reply(c, http.StatusOK, classes, err)
}

// Students godoc
// GET /api/classes/:id/students
func (h *ClassHandler) Students(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	users, err := h.classes.Students(c.Request.Context(), id)
	reply(c, http.StatusOK, users, err)
}

// AssignTeacher godoc
// PUT /api/classes/:id/teacher
func (h *ClassHandler) AssignTeacher(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var in model.AssignTeacherInput
	if !bind(c, &in) {
		return
	}
	class, err := h.classes.AssignTeacher(c.Request.Context(), id, in.TeacherID)
	reply(c, http.StatusOK, class, err)
}

// SetStatus godoc
// PUT /api/classes/:id/status
func (h *ClassHandler) SetStatus(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var in model.ClassStatusInput
	if !bind(c, &in) {
		return
	}
	class, err := h.classes.SetStatus(c.Request.Context(), id, in.Status)
	reply(c, http.StatusOK, class, err)
}
