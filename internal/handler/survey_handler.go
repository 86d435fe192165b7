package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/alumni-survey-api/internal/authz"
	"github.com/noah-isme/alumni-survey-api/internal/middleware"
	"github.com/noah-isme/alumni-survey-api/internal/models"
	"github.com/noah-isme/alumni-survey-api/internal/service"
	"github.com/noah-isme/alumni-survey-api/pkg/response"
)

type surveyService interface {
	List(ctx context.Context, filter models.SurveyFilter) ([]models.AlumniSurvey, error)
	Get(ctx context.Context, id int64) (*models.AlumniSurvey, error)
	Create(ctx context.Context, input service.SurveyInput) (*models.AlumniSurvey, error)
	Update(ctx context.Context, ac *authz.Context, id int64, input service.SurveyInput) (*models.AlumniSurvey, error)
	Delete(ctx context.Context, ac *authz.Context, id int64, bodyAlumniID *int64) error
}

type aggregateService interface {
	Aggregate(ctx context.Context, filter models.AggregateFilter) (*models.SurveyAggregates, bool, error)
}

type exportService interface {
	Export(ctx context.Context, format string, filter models.AggregateFilter) (*service.ExportFile, error)
}

// SurveyHandler exposes alumni surveys, their aggregates and exports.
type SurveyHandler struct {
	surveys    surveyService
	aggregates aggregateService
	exports    exportService
}

// NewSurveyHandler constructs a survey handler.
func NewSurveyHandler(surveys surveyService, aggregates aggregateService, exports exportService) *SurveyHandler {
	return &SurveyHandler{surveys: surveys, aggregates: aggregates, exports: exports}
}

func aggregateFilter(c *gin.Context) models.AggregateFilter {
	return models.AggregateFilter{Year: queryInt(c, "year"), Program: strings.TrimSpace(c.Query("program"))}
}

// List godoc
// @Summary List alumni surveys
// @Description Newest first. Non-numeric alumni, year and limit values are ignored.
// @Tags Surveys
// @Produce json
// @Param alumni query int false "Alumni ID"
// @Param year query int false "Graduation year"
// @Param program query string false "Program substring"
// @Param limit query int false "Maximum rows"
// @Success 200 {array} models.AlumniSurvey
// @Router /alumni-surveys/ [get]
func (h *SurveyHandler) List(c *gin.Context) {
	filter := models.SurveyFilter{
		AlumniID: queryInt64(c, "alumni"),
		Year:     queryInt(c, "year"),
		Program:  strings.TrimSpace(c.Query("program")),
	}
	if limit := queryInt(c, "limit"); limit != nil && *limit > 0 {
		filter.Limit = *limit
	}

	surveys, err := h.surveys.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, surveys)
}

// Create godoc
// @Summary Submit an alumni survey
// @Tags Surveys
// @Accept json
// @Produce json
// @Param payload body service.SurveyInput true "Survey payload"
// @Success 201 {object} models.AlumniSurvey
// @Failure 400 {object} response.ErrorBody
// @Router /alumni-surveys/ [post]
func (h *SurveyHandler) Create(c *gin.Context) {
	var input service.SurveyInput
	if err := bindBody(c, &input, "invalid survey payload"); err != nil {
		response.Error(c, err)
		return
	}
	survey, err := h.surveys.Create(c.Request.Context(), input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, survey)
}

// Get godoc
// @Summary Get alumni survey
// @Tags Surveys
// @Produce json
// @Param id path int true "Survey ID"
// @Success 200 {object} models.AlumniSurvey
// @Failure 404 {object} response.ErrorBody
// @Router /alumni-surveys/{id}/ [get]
func (h *SurveyHandler) Get(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	survey, err := h.surveys.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, survey)
}

// Update godoc
// @Summary Update alumni survey
// @Description Allowed for the owning alumni token, an admin, or a body naming the linked alumni.
// @Tags Surveys
// @Accept json
// @Produce json
// @Param id path int true "Survey ID"
// @Param payload body service.SurveyInput true "Partial survey"
// @Success 200 {object} models.AlumniSurvey
// @Failure 403 {object} response.ErrorBody
// @Router /alumni-surveys/{id}/ [patch]
func (h *SurveyHandler) Update(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var input service.SurveyInput
	if err := bindBody(c, &input, "invalid survey payload"); err != nil {
		response.Error(c, err)
		return
	}
	survey, err := h.surveys.Update(c.Request.Context(), actorFromContext(c), id, input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, survey)
}

// Delete godoc
// @Summary Delete alumni survey
// @Tags Surveys
// @Param id path int true "Survey ID"
// @Success 204
// @Failure 403 {object} response.ErrorBody
// @Router /alumni-surveys/{id}/ [delete]
func (h *SurveyHandler) Delete(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var body struct {
		Alumni service.OptionalID `json:"alumni"`
	}
	_ = bindBody(c, &body, "")

	if err := h.surveys.Delete(c.Request.Context(), actorFromContext(c), id, body.Alumni.Ptr()); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Aggregates godoc
// @Summary Survey aggregates
// @Description Histograms over the filtered surveys. Non-numeric years are ignored.
// @Tags Surveys
// @Produce json
// @Param year query int false "Graduation year"
// @Param program query string false "Program substring"
// @Success 200 {object} models.SurveyAggregates
// @Failure 500 {object} response.ErrorBody
// @Router /survey-aggregates/ [get]
func (h *SurveyHandler) Aggregates(c *gin.Context) {
	summary, hit, err := h.aggregates.Aggregate(c.Request.Context(), aggregateFilter(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, summary)
}

// Export godoc
// @Summary Export surveys
// @Description Download the filtered surveys as CSV (default) or PDF with aggregate tables.
// @Tags Surveys
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv or pdf"
// @Param year query int false "Graduation year"
// @Param program query string false "Program substring"
// @Success 200 {file} file
// @Failure 400 {object} response.ErrorBody
// @Router /survey-exports/ [get]
func (h *SurveyHandler) Export(c *gin.Context) {
	file, err := h.exports.Export(c.Request.Context(), c.Query("format"), aggregateFilter(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.File(c, file.Filename, file.ContentType, file.Body)
}
