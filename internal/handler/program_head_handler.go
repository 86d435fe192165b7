package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/alumni-survey-api/internal/authz"
	"github.com/noah-isme/alumni-survey-api/internal/models"
	"github.com/noah-isme/alumni-survey-api/internal/service"
	"github.com/noah-isme/alumni-survey-api/pkg/response"
)

type programHeadService interface {
	List(ctx context.Context) ([]models.ProgramHead, error)
	Get(ctx context.Context, id int64) (*models.ProgramHead, error)
	Create(ctx context.Context, ac *authz.Context, req service.CreateProgramHeadRequest) (*service.ProgramHeadCreated, error)
	Update(ctx context.Context, id int64, req service.UpdateProgramHeadRequest) (*models.ProgramHead, error)
	Delete(ctx context.Context, ac *authz.Context, id int64) error
}

type programService interface {
	List(ctx context.Context) ([]models.Program, error)
	Create(ctx context.Context, req service.CreateProgramRequest) (*models.Program, error)
}

// ProgramHeadHandler exposes program head signup and moderation.
type ProgramHeadHandler struct {
	service programHeadService
}

// NewProgramHeadHandler constructs a program head handler.
func NewProgramHeadHandler(svc programHeadService) *ProgramHeadHandler {
	return &ProgramHeadHandler{service: svc}
}

// List godoc
// @Summary List program heads
// @Tags ProgramHeads
// @Produce json
// @Success 200 {array} models.ProgramHead
// @Router /program-heads/ [get]
func (h *ProgramHeadHandler) List(c *gin.Context) {
	heads, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, heads)
}

// Create godoc
// @Summary Program head signup
// @Description Creates a pending program head. The legacy mirror is written best-effort; failures surface as legacy_insert_warning.
// @Tags ProgramHeads
// @Accept json
// @Produce json
// @Param payload body service.CreateProgramHeadRequest true "Signup payload"
// @Success 201 {object} service.ProgramHeadCreated
// @Failure 400 {object} response.ErrorBody
// @Router /program-heads/ [post]
func (h *ProgramHeadHandler) Create(c *gin.Context) {
	var req service.CreateProgramHeadRequest
	if err := bindBody(c, &req, "invalid program head payload"); err != nil {
		response.Error(c, err)
		return
	}
	created, err := h.service.Create(c.Request.Context(), actorFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, created)
}

// Get godoc
// @Summary Get program head
// @Tags ProgramHeads
// @Produce json
// @Param id path int true "Program head ID"
// @Success 200 {object} models.ProgramHead
// @Failure 404 {object} response.ErrorBody
// @Router /program-heads/{id}/ [get]
func (h *ProgramHeadHandler) Get(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	head, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, head)
}

// Update godoc
// @Summary Update program head
// @Description Partial update, typically status moderation (pending, approved, rejected).
// @Tags ProgramHeads
// @Accept json
// @Produce json
// @Param id path int true "Program head ID"
// @Param payload body service.UpdateProgramHeadRequest true "Update payload"
// @Success 200 {object} models.ProgramHead
// @Failure 400 {object} response.ErrorBody
// @Router /program-heads/{id}/ [patch]
func (h *ProgramHeadHandler) Update(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.UpdateProgramHeadRequest
	if err := bindBody(c, &req, "invalid program head payload"); err != nil {
		response.Error(c, err)
		return
	}
	head, err := h.service.Update(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, head)
}

// Delete godoc
// @Summary Delete program head
// @Tags ProgramHeads
// @Param id path int true "Program head ID"
// @Success 204
// @Failure 403 {object} response.ErrorBody
// @Router /program-heads/{id}/ [delete]
func (h *ProgramHeadHandler) Delete(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.service.Delete(c.Request.Context(), actorFromContext(c), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ProgramHandler exposes academic programs.
type ProgramHandler struct {
	service programService
}

// NewProgramHandler constructs a program handler.
func NewProgramHandler(svc programService) *ProgramHandler {
	return &ProgramHandler{service: svc}
}

// List godoc
// @Summary List programs
// @Tags Programs
// @Produce json
// @Success 200 {array} models.Program
// @Router /programs/ [get]
func (h *ProgramHandler) List(c *gin.Context) {
	programs, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, programs)
}

// Create godoc
// @Summary Create program
// @Tags Programs
// @Accept json
// @Produce json
// @Param payload body service.CreateProgramRequest true "Program payload"
// @Success 201 {object} models.Program
// @Failure 400 {object} response.ErrorBody
// @Router /programs/ [post]
func (h *ProgramHandler) Create(c *gin.Context) {
	var req service.CreateProgramRequest
	if err := bindBody(c, &req, "invalid program payload"); err != nil {
		response.Error(c, err)
		return
	}
	program, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, program)
}
