package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wisekey/langcenter/internal/model"
	"github.com/wisekey/langcenter/internal/response"
	"github.com/wisekey/langcenter/internal/service"
)

// UserHandler handles account administration and the caller's own profile.
type UserHandler struct {
	crud[model.User, model.UserInput]
	users service.UserService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(users service.UserService) *UserHandler {
	return &UserHandler{crud: crud[model.User, model.UserInput]{users}, users: users}
}

// ListByRole godoc
// GET /api/users/role/:role
// Accepts ROLE_ADMIN, ROLE_TEACHER or ROLE_STUDENT.
func (h *UserHandler) ListByRole(c *gin.Context) {
	role := model.ParseRole(c.Param("role"))
	if role == model.RoleUnknown {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation,
			map[string]string{"role": "role must be one of ROLE_ADMIN ROLE_TEACHER ROLE_STUDENT"})
		return
	}
	users, err := h.users.ListByRole(c.Request.Context(), role)
	reply(c, http.StatusOK, users, err)
}

// Search godoc
// GET /api/users/search?q=
func (h *UserHandler) Search(c *gin.Context) {
	users, err := h.users.Search(c.Request.Context(), c.Query("q"))
	reply(c, http.StatusOK, users, err)
}

// Activate godoc
// PUT /api/users/:id/activate
func (h *UserHandler) Activate(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	u, err := h.users.Activate(c.Request.Context(), id)
	reply(c, http.StatusOK, u, err)
}

// Deactivate godoc
// PUT /api/users/:id/deactivate
func (h *UserHandler) Deactivate(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	u, err := h.users.Deactivate(c.Request.Context(), id)
	reply(c, http.StatusOK, u, err)
}

// ResetPassword godoc
// PUT /api/users/:id/reset-password
// Returns the generated password once.
func (h *UserHandler) ResetPassword(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	reset, err := h.users.ResetPassword(c.Request.Context(), id)
	reply(c, http.StatusOK, reset, err)
}

// ChangePassword godoc
// PUT /api/users/change-password
func (h *UserHandler) ChangePassword(c *gin.Context) {
	var in model.ChangePasswordInput
	if !bind(c, &in) {
		return
	}
	if err := h.users.ChangePassword(c.Request.Context(), in); err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "Password changed."})
}

// Profile godoc
// GET /api/users/profile
func (h *UserHandler) Profile(c *gin.Context) {
	u, err := h.users.Profile(c.Request.Context())
	reply(c, http.StatusOK, u, err)
}

// UpdateProfile godoc
// PUT /api/users/profile
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	var in model.ProfileInput
	if !bind(c, &in) {
		return
	}
	u, err := h.users.UpdateProfile(c.Request.Context(), in)
	reply(c, http.StatusOK, u, err)
}
