package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/alumni-survey-api/internal/models"
	"github.com/noah-isme/alumni-survey-api/pkg/response"
)

type mirrorService interface {
	ListOutbox(ctx context.Context, filter models.MirrorOutboxFilter) ([]models.MirrorOutboxEntry, error)
}

// MirrorHandler lets operators inspect the legacy mirror outbox.
type MirrorHandler struct {
	service mirrorService
}

// NewMirrorHandler constructs a mirror handler.
func NewMirrorHandler(svc mirrorService) *MirrorHandler {
	return &MirrorHandler{service: svc}
}

// Outbox godoc
// @Summary List legacy mirror outbox entries
// @Tags LegacyMirror
// @Produce json
// @Param status query string false "pending, done or failed"
// @Param limit query int false "Maximum rows"
// @Success 200 {array} models.MirrorOutboxEntry
// @Failure 403 {object} response.ErrorBody
// @Security BearerAuth
// @Router /legacy-mirror/outbox/ [get]
func (h *MirrorHandler) Outbox(c *gin.Context) {
	filter := models.MirrorOutboxFilter{Status: strings.ToLower(strings.TrimSpace(c.Query("status")))}
	if limit := queryInt(c, "limit"); limit != nil && *limit > 0 {
		filter.Limit = *limit
	}
	entries, err := h.service.ListOutbox(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries)
}
