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

// AttendanceHandler handles roll calls and attendance summaries.
type AttendanceHandler struct {
	crud[model.AttendanceRecord, model.AttendanceInput]
	attendance service.AttendanceService
}

// NewAttendanceHandler creates a new AttendanceHandler.
func NewAttendanceHandler(attendance service.AttendanceService) *AttendanceHandler {
	return &AttendanceHandler{
		crud:       crud[model.AttendanceRecord, model.AttendanceInput]{attendance},
		attendance: attendance,
	}
}

// ListByClass godoc
// GET /api/attendance/class/:id
func (h *AttendanceHandler) ListByClass(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	records, err := h.attendance.ListByClass(c.Request.Context(), id)
	reply(c, http.StatusOK, records, err)
}

// ListByStudent godoc
// GET /api/attendance/student/:id
func (h *AttendanceHandler) ListByStudent(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	records, err := h.attendance.ListByStudent(c.Request.Context(), id)
	reply(c, http.StatusOK, records, err)
}

// ListByDate godoc
// GET /api/attendance/class/:id/date/:date
func (h *AttendanceHandler) ListByDate(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	records, err := h.attendance.ListByDate(c.Request.Context(), id, c.Param("date"))
	reply(c, http.StatusOK, records, err)
}

// Create godoc
// POST /api/attendance
// A body carrying a records array is a roll call for one class and date,
// upserted by (classId, studentId, date) all or nothing. Any other body
// creates one record.
func (h *AttendanceHandler) Create(c *gin.Context) {
	raw, ok := readBody(c)
	if !ok {
		return
	}
	records, ok := recordsOf(raw)
	if !ok {
		h.crud.Create(c)
		return
	}
	var batch []model.AttendanceInput
	if err := json.Unmarshal(records, &batch); err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
		return
	}
	if fields := validator.Slice(batch); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	sheet, ok := model.SheetOf(batch)
	if !ok {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation,
			map[string]string{"records": "records must share one classId and date"})
		return
	}
	out, err := h.attendance.Take(c.Request.Context(), sheet)
	reply(c, http.StatusOK, out, err)
}

// Summary godoc
// GET /api/attendance/summary?studentId=&classId=
func (h *AttendanceHandler) Summary(c *gin.Context) {
	studentID, ok := queryID(c, "studentId")
	if !ok {
		return
	}
	classID, ok := queryID(c, "classId")
	if !ok {
		return
	}
	sum, err := h.attendance.Summary(c.Request.Context(), studentID, classID)
	reply(c, http.StatusOK, sum, err)
}
