package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/alumni-survey-api/internal/service"
	"github.com/noah-isme/alumni-survey-api/pkg/response"
)

type authService interface {
	Login(ctx context.Context, req service.LoginRequest) (*service.LoginResponse, error)
	ValidateToken(token string) (*service.TokenValidation, error)
}

// AuthHandler wires HTTP endpoints to the auth service.
type AuthHandler struct {
	service authService
}

// NewAuthHandler creates a new handler.
func NewAuthHandler(svc authService) *AuthHandler {
	return &AuthHandler{service: svc}
}

// Login godoc
// @Summary Authenticate an account
// @Description Checks username and password for the given user_type and issues a session token
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body service.LoginRequest true "Login payload"
// @Success 200 {object} service.LoginResponse
// @Failure 400 {object} response.ErrorBody
// @Failure 401 {object} response.ErrorBody
// @Failure 429 {object} response.ErrorBody
// @Router /login/ [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req service.LoginRequest
	if err := bindBody(c, &req, "invalid login payload"); err != nil {
		response.Error(c, err)
		return
	}

	res, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res)
}

// ValidateToken godoc
// @Summary Introspect a session token
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body map[string]string true "Token"
// @Success 200 {object} service.TokenValidation
// @Failure 400 {object} response.ErrorBody
// @Router /token/validate/ [post]
func (h *AuthHandler) ValidateToken(c *gin.Context) {
	var payload struct {
		Token string `json:"token"`
	}
	if err := bindBody(c, &payload, "invalid token payload"); err != nil {
		response.Error(c, err)
		return
	}

	res, err := h.service.ValidateToken(payload.Token)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res)
}
