package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wisekey/langcenter/internal/model"
	"github.com/wisekey/langcenter/internal/service"
)

// AuthHandler handles the public authentication endpoints.
type AuthHandler struct {
	auth service.AuthAPI
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(auth service.AuthAPI) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// Login godoc
// POST /api/auth/login
// Exchanges credentials for a bearer token and the user's identity.
func (h *AuthHandler) Login(c *gin.Context) {
	var req model.LoginRequest
	if !bind(c, &req) {
		return
	}
	resp, err := h.auth.Login(c.Request.Context(), req)
	reply(c, http.StatusOK, resp, err)
}

// Register godoc
// POST /api/auth/register
// Creates a student account. The caller still has to log in.
func (h *AuthHandler) Register(c *gin.Context) {
	var req model.RegisterRequest
	if !bind(c, &req) {
		return
	}
	u, err := h.auth.Register(c.Request.Context(), req)
	reply(c, http.StatusCreated, u, err)
}
