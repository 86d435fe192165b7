package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/alumni-survey-api/internal/models"
	"github.com/noah-isme/alumni-survey-api/pkg/export"
	appErrors "github.com/noah-isme/alumni-survey-api/pkg/errors"
)

// Export formats.
const (
	ExportFormatCSV = "csv"
	ExportFormatPDF = "pdf"
)

var surveyExportHeaders = []string{
	"id", "alumni", "last_name", "first_name", "middle_name", "year_graduated", "course_program",
	"email", "mobile_number", "current_job_position", "company_affiliation", "employed_after_graduation",
	"employment_source", "jobs_related_to_experience", "has_been_promoted", "work_performance_rating",
	"has_own_business", "job_difficulties", "created_at",
}

type surveyLister interface {
	List(ctx context.Context, filter models.SurveyFilter) ([]models.AlumniSurvey, error)
}

type surveyAggregator interface {
	Aggregate(ctx context.Context, filter models.AggregateFilter) (*models.SurveyAggregates, bool, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string, sections []export.Section) ([]byte, error)
}

// ExportFile is a rendered survey export.
type ExportFile struct {
	Filename    string
	ContentType string
	Body        []byte
}

// ExportService renders filtered surveys as CSV or PDF.
type ExportService struct {
	surveys    surveyLister
	aggregates surveyAggregator
	csv        csvRenderer
	pdf        pdfRenderer
	logger     *zap.Logger
	now        func() time.Time
}

// NewExportService constructs an ExportService. Nil renderers fall back to the
// pkg/export implementations.
func NewExportService(surveys surveyLister, aggregates surveyAggregator, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{surveys: surveys, aggregates: aggregates, csv: csv, pdf: pdf, logger: logger, now: time.Now}
}

// Export renders the surveys matching filter. The PDF variant leads with the
// aggregate histograms.
func (s *ExportService) Export(ctx context.Context, format string, filter models.AggregateFilter) (*ExportFile, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = ExportFormatCSV
	}
	if format != ExportFormatCSV && format != ExportFormatPDF {
		return nil, fieldError("format", "Must be one of: csv pdf.")
	}

	surveys, err := s.surveys.List(ctx, models.SurveyFilter{Year: filter.Year, Program: filter.Program})
	if err != nil {
		return nil, internalError(err, "failed to load surveys for export")
	}
	dataset := surveyDataset(surveys)

	var body []byte
	contentType := "text/csv; charset=utf-8"
	switch format {
	case ExportFormatCSV:
		body, err = s.csv.Render(dataset)
	case ExportFormatPDF:
		contentType = "application/pdf"
		var summary *models.SurveyAggregates
		summary, _, err = s.aggregates.Aggregate(ctx, filter)
		if err != nil {
			return nil, err
		}
		body, err = s.pdf.Render(dataset, exportTitle(filter), aggregateSections(summary))
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}

	filename := fmt.Sprintf("alumni_surveys_%s.%s", s.now().UTC().Format("20060102_150405"), format)
	s.logger.Info("survey export rendered", zap.String("format", format), zap.Int("rows", len(surveys)))
	return &ExportFile{Filename: filename, ContentType: contentType, Body: body}, nil
}

func exportTitle(filter models.AggregateFilter) string {
	title := "Alumni surveys"
	if filter.Year != nil {
		title += fmt.Sprintf(" - class of %d", *filter.Year)
	}
	if p := strings.TrimSpace(filter.Program); p != "" {
		title += " - " + p
	}
	return title
}

func surveyDataset(surveys []models.AlumniSurvey) export.Dataset {
	rows := make([]map[string]string, 0, len(surveys))
	for _, sv := range surveys {
		alumni := ""
		if sv.AlumniID != nil {
			alumni = strconv.FormatInt(*sv.AlumniID, 10)
		}
		business := ""
		if sv.HasOwnBusiness != nil {
			business = *sv.HasOwnBusiness
		}
		rows = append(rows, map[string]string{
			"id":                         strconv.FormatInt(sv.ID, 10),
			"alumni":                     alumni,
			"last_name":                  sv.LastName,
			"first_name":                 sv.FirstName,
			"middle_name":                sv.MiddleName,
			"year_graduated":             sv.YearGraduated,
			"course_program":             sv.CourseProgram,
			"email":                      sv.Email,
			"mobile_number":              sv.MobileNumber,
			"current_job_position":       sv.CurrentJobPosition,
			"company_affiliation":        sv.CompanyAffiliation,
			"employed_after_graduation":  sv.EmployedAfterGraduation,
			"employment_source":          sv.EmploymentSource,
			"jobs_related_to_experience": sv.JobsRelatedToExperience,
			"has_been_promoted":          sv.HasBeenPromoted,
			"work_performance_rating":    sv.WorkPerformanceRating,
			"has_own_business":           business,
			"job_difficulties":           strings.Join(sv.JobDifficulties, "; "),
			"created_at":                 sv.CreatedAt.Format(time.RFC3339),
		})
	}
	return export.Dataset{Headers: surveyExportHeaders, Rows: rows}
}

func aggregateSections(summary *models.SurveyAggregates) []export.Section {
	if summary == nil {
		return nil
	}
	return []export.Section{
		{Title: fmt.Sprintf("Employed after graduation (%d of %d surveys)", summary.Count, summary.TotalCount), Counts: summary.Employed},
		{Title: "Employment source", Counts: summary.Sources},
		{Title: "Work performance", Counts: summary.Performance},
		{Title: "Programs", Counts: summary.Programs},
		{Title: "Promoted", Counts: summary.Promoted},
		{Title: "Job related to experience", Counts: summary.JobsRelated},
		{Title: "Own business", Counts: summary.HasOwnBusiness},
		{Title: "Job difficulties", Counts: summary.JobDifficulties},
	}
}
