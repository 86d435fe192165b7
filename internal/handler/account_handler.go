package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/alumni-survey-api/internal/models"
	"github.com/noah-isme/alumni-survey-api/internal/service"
	"github.com/noah-isme/alumni-survey-api/pkg/response"
)

type adminService interface {
	List(ctx context.Context) ([]models.Admin, error)
	Get(ctx context.Context, id int64) (*models.Admin, error)
	Create(ctx context.Context, req service.CreateAdminRequest) (*models.Admin, error)
	Update(ctx context.Context, id int64, req service.UpdateAdminRequest) (*models.Admin, error)
	Delete(ctx context.Context, id int64) error
}

type alumniService interface {
	List(ctx context.Context) ([]models.Alumni, error)
	Get(ctx context.Context, id int64) (*models.Alumni, error)
	Create(ctx context.Context, req service.CreateAlumniRequest) (*models.Alumni, error)
	Update(ctx context.Context, id int64, req service.UpdateAlumniRequest) (*models.Alumni, error)
	Delete(ctx context.Context, id int64) error
	ChangePassword(ctx context.Context, id int64, req service.ChangePasswordRequest) error
	RecordConsent(ctx context.Context, req service.ConsentRequest) error
}

// AdminHandler exposes admin account endpoints.
type AdminHandler struct {
	service adminService
}

// NewAdminHandler constructs an admin handler.
func NewAdminHandler(svc adminService) *AdminHandler {
	return &AdminHandler{service: svc}
}

// List godoc
// @Summary List admins
// @Tags Admins
// @Produce json
// @Success 200 {array} models.Admin
// @Router /admins/ [get]
func (h *AdminHandler) List(c *gin.Context) {
	admins, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, admins)
}

// Create godoc
// @Summary Create admin
// @Tags Admins
// @Accept json
// @Produce json
// @Param payload body service.CreateAdminRequest true "Admin payload"
// @Success 201 {object} models.Admin
// @Failure 400 {object} response.ErrorBody
// @Router /admins/ [post]
func (h *AdminHandler) Create(c *gin.Context) {
	var req service.CreateAdminRequest
	if err := bindBody(c, &req, "invalid admin payload"); err != nil {
		response.Error(c, err)
		return
	}
	admin, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, admin)
}

// Get godoc
// @Summary Get admin
// @Tags Admins
// @Produce json
// @Param id path int true "Admin ID"
// @Success 200 {object} models.Admin
// @Failure 404 {object} response.ErrorBody
// @Router /admins/{id}/ [get]
func (h *AdminHandler) Get(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	admin, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, admin)
}

// Update godoc
// @Summary Update admin
// @Tags Admins
// @Accept json
// @Produce json
// @Param id path int true "Admin ID"
// @Param payload body service.UpdateAdminRequest true "Admin payload"
// @Success 200 {object} models.Admin
// @Failure 400 {object} response.ErrorBody
// @Failure 404 {object} response.ErrorBody
// @Router /admins/{id}/ [patch]
func (h *AdminHandler) Update(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.UpdateAdminRequest
	if err := bindBody(c, &req, "invalid admin payload"); err != nil {
		response.Error(c, err)
		return
	}
	admin, err := h.service.Update(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, admin)
}

// Delete godoc
// @Summary Delete admin
// @Tags Admins
// @Param id path int true "Admin ID"
// @Success 204
// @Failure 404 {object} response.ErrorBody
// @Router /admins/{id}/ [delete]
func (h *AdminHandler) Delete(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// AlumniHandler exposes alumni account endpoints.
type AlumniHandler struct {
	service alumniService
}

// NewAlumniHandler constructs an alumni handler.
func NewAlumniHandler(svc alumniService) *AlumniHandler {
	return &AlumniHandler{service: svc}
}

// List godoc
// @Summary List alumni
// @Tags Alumni
// @Produce json
// @Success 200 {array} models.Alumni
// @Router /alumni/ [get]
func (h *AlumniHandler) List(c *gin.Context) {
	alumni, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, alumni)
}

// Create godoc
// @Summary Register alumni
// @Tags Alumni
// @Accept json
// @Produce json
// @Param payload body service.CreateAlumniRequest true "Alumni payload"
// @Success 201 {object} models.Alumni
// @Failure 400 {object} response.ErrorBody
// @Router /alumni/ [post]
func (h *AlumniHandler) Create(c *gin.Context) {
	var req service.CreateAlumniRequest
	if err := bindBody(c, &req, "invalid alumni payload"); err != nil {
		response.Error(c, err)
		return
	}
	alumni, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, alumni)
}

// Get godoc
// @Summary Get alumni
// @Tags Alumni
// @Produce json
// @Param id path int true "Alumni ID"
// @Success 200 {object} models.Alumni
// @Failure 404 {object} response.ErrorBody
// @Router /alumni/{id}/ [get]
func (h *AlumniHandler) Get(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	alumni, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, alumni)
}

// Update godoc
// @Summary Update alumni
// @Tags Alumni
// @Accept json
// @Produce json
// @Param id path int true "Alumni ID"
// @Param payload body service.UpdateAlumniRequest true "Alumni payload"
// @Success 200 {object} models.Alumni
// @Failure 400 {object} response.ErrorBody
// @Router /alumni/{id}/ [patch]
func (h *AlumniHandler) Update(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.UpdateAlumniRequest
	if err := bindBody(c, &req, "invalid alumni payload"); err != nil {
		response.Error(c, err)
		return
	}
	alumni, err := h.service.Update(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, alumni)
}

// Delete godoc
// @Summary Delete alumni
// @Tags Alumni
// @Param id path int true "Alumni ID"
// @Success 204
// @Router /alumni/{id}/ [delete]
func (h *AlumniHandler) Delete(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ChangePassword godoc
// @Summary Change alumni password
// @Tags Alumni
// @Accept json
// @Produce json
// @Param id path int true "Alumni ID"
// @Param payload body service.ChangePasswordRequest true "Passwords"
// @Success 200 {object} map[string]string
// @Failure 400 {object} response.ErrorBody
// @Router /alumni/{id}/change_password/ [post]
func (h *AlumniHandler) ChangePassword(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.ChangePasswordRequest
	if err := bindBody(c, &req, "invalid password payload"); err != nil {
		response.Error(c, err)
		return
	}
	if err := h.service.ChangePassword(c.Request.Context(), id, req); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"detail": "Password changed successfully"})
}

// Consent godoc
// @Summary Record data privacy consent
// @Tags Alumni
// @Accept json
// @Produce json
// @Param payload body service.ConsentRequest true "Consent"
// @Success 200 {object} map[string]string
// @Failure 400 {object} response.ErrorBody
// @Failure 404 {object} response.ErrorBody
// @Router /alumni/consent/ [post]
func (h *AlumniHandler) Consent(c *gin.Context) {
	var req service.ConsentRequest
	if err := bindBody(c, &req, "invalid consent payload"); err != nil {
		response.Error(c, err)
		return
	}
	if err := h.service.RecordConsent(c.Request.Context(), req); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"detail": "Consent recorded"})
}
