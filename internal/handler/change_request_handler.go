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

type changeRequestService interface {
	List(ctx context.Context) ([]models.SurveyChangeRequest, error)
	Create(ctx context.Context, ac *authz.Context, input service.ChangeRequestInput) (*models.SurveyChangeRequest, error)
	UpdateStatus(ctx context.Context, ac *authz.Context, id int64, input service.ChangeRequestStatusInput) (*models.SurveyChangeRequest, error)
}

// ChangeRequestHandler exposes survey change requests.
type ChangeRequestHandler struct {
	service changeRequestService
}

// NewChangeRequestHandler constructs a change request handler.
func NewChangeRequestHandler(svc changeRequestService) *ChangeRequestHandler {
	return &ChangeRequestHandler{service: svc}
}

// List godoc
// @Summary List survey change requests
// @Tags ChangeRequests
// @Produce json
// @Success 200 {array} models.SurveyChangeRequest
// @Router /survey-change-requests/ [get]
func (h *ChangeRequestHandler) List(c *gin.Context) {
	requests, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, requests)
}

// Create godoc
// @Summary File a survey change request
// @Description An alumni token decides attribution. Naming another alumni requires admin.
// @Tags ChangeRequests
// @Accept json
// @Produce json
// @Param payload body service.ChangeRequestInput true "Change request"
// @Success 201 {object} models.SurveyChangeRequest
// @Failure 403 {object} response.ErrorBody
// @Router /survey-change-requests/ [post]
func (h *ChangeRequestHandler) Create(c *gin.Context) {
	var input service.ChangeRequestInput
	if err := bindBody(c, &input, "invalid change request payload"); err != nil {
		response.Error(c, err)
		return
	}
	request, err := h.service.Create(c.Request.Context(), actorFromContext(c), input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, request)
}

// UpdateStatus godoc
// @Summary Review a survey change request
// @Tags ChangeRequests
// @Accept json
// @Produce json
// @Param id path int true "Change request ID"
// @Param payload body service.ChangeRequestStatusInput true "New status"
// @Success 200 {object} models.SurveyChangeRequest
// @Failure 403 {object} response.ErrorBody
// @Router /survey-change-requests/{id}/ [patch]
func (h *ChangeRequestHandler) UpdateStatus(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var input service.ChangeRequestStatusInput
	if err := bindBody(c, &input, "invalid change request payload"); err != nil {
		response.Error(c, err)
		return
	}
	request, err := h.service.UpdateStatus(c.Request.Context(), actorFromContext(c), id, input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, request)
}
