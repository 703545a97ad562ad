package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wisekey/langcenter/internal/model"
	"github.com/wisekey/langcenter/internal/response"
	"github.com/wisekey/langcenter/internal/service"
	"github.com/wisekey/langcenter/internal/validator"
)

// GradeHandler handles grade entry and transcripts.
type GradeHandler struct {
	crud[model.Grade, model.GradeInput]
	grades service.GradeService
}

// NewGradeHandler creates a new GradeHandler.
func NewGradeHandler(grades service.GradeService) *GradeHandler {
	return &GradeHandler{crud: crud[model.Grade, model.GradeInput]{grades}, grades: grades}
}

// ListByClass godoc
// GET /api/grades/class/:id
func (h *GradeHandler) ListByClass(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	grades, err := h.grades.ListByClass(c.Request.Context(), id)
	reply(c, http.StatusOK, grades, err)
}

// ListByStudent godoc
// GET /api/grades/student/:id
func (h *GradeHandler) ListByStudent(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	grades, err := h.grades.ListByStudent(c.Request.Context(), id)
	reply(c, http.StatusOK, grades, err)
}

// ForStudentInClass godoc
// GET /api/grades/student/:id/class/:classId
func (h *GradeHandler) ForStudentInClass(c *gin.Context) {
	studentID, ok := paramID(c, "id")
	if !ok {
		return
	}
	classID, ok := paramID(c, "classId")
	if !ok {
		return
	}
	g, err := h.grades.ForStudentInClass(c.Request.Context(), studentID, classID)
	reply(c, http.StatusOK, g, err)
}

// Create godoc
// POST /api/grades
// A body carrying a records array is a grade sheet, upserted by
// (classId, studentId) all or nothing. Any other body creates one grade.
func (h *GradeHandler) Create(c *gin.Context) {
	raw, ok := readBody(c)
	if !ok {
		return
	}
	records, ok := recordsOf(raw)
	if !ok {
		h.crud.Create(c)
		return
	}
	var sheet []model.GradeInput
	if err := json.Unmarshal(records, &sheet); err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
		return
	}
	if fields := validator.Slice(sheet); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	grades, err := h.grades.Save(c.Request.Context(), sheet)
	reply(c, http.StatusOK, grades, err)
}
