package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wisekey/langcenter/internal/service"
)

// DashboardHandler serves the per-role landing statistics.
type DashboardHandler struct {
	dashboard service.DashboardService
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(dashboard service.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard}
}

// Admin godoc
// GET /api/dashboard/admin
func (h *DashboardHandler) Admin(c *gin.Context) {
	d, err := h.dashboard.Admin(c.Request.Context())
	reply(c, http.StatusOK, d, err)
}

// Teacher godoc
// GET /api/dashboard/teacher/:id
func (h *DashboardHandler) Teacher(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	d, err := h.dashboard.Teacher(c.Request.Context(), id)
	reply(c, http.StatusOK, d, err)
}

// Student godoc
// GET /api/dashboard/student/:id
func (h *DashboardHandler) Student(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	d, err := h.dashboard.Student(c.Request.Context(), id)
	reply(c, http.StatusOK, d, err)
}
