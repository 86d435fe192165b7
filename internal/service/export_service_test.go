package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/alumni-survey-api/internal/models"
	"github.com/noah-isme/alumni-survey-api/pkg/export"
	appErrors "github.com/noah-isme/alumni-survey-api/pkg/errors"
)

type recordingPDF struct {
	title    string
	sections []export.Section
	rows     int
}

func (r *recordingPDF) Render(data export.Dataset, title string, sections []export.Section) ([]byte, error) {
	r.title, r.sections, r.rows = title, sections, len(data.Rows)
	return []byte("%PDF-1.3"), nil
}

func newExportServiceForTest(t *testing.T, pdf pdfRenderer) (*ExportService, *memorySurveyRepo) {
	t.Helper()
	repo := newMemorySurveyRepo()
	seedSurveys(t, repo,
		`{"alumni": 5, "last_name": "Cruz", "first_name": "Ana", "year_graduated": "2023", "course_program": "BSCS",
		  "employed_after_graduation": "Yes", "has_own_business": "yes", "job_difficulties": ["low pay", "far commute"]}`,
		`{"last_name": "=cmd", "first_name": "Ben", "year_graduated": "2022", "course_program": "BSN"}`,
	)
	svc := NewExportService(NewSurveyService(repo, nil, nil, nil), NewAggregateService(repo, nil, nil, nil), zap.NewNop(), nil, pdf)
	svc.now = func() time.Time { return time.Date(2024, time.March, 5, 8, 30, 0, 0, time.UTC) }
	return svc, repo
}

func TestExportCSVDefaultsAndRows(t *testing.T) {
	svc, _ := newExportServiceForTest(t, nil)

	file, err := svc.Export(context.Background(), "", models.AggregateFilter{})
	require.NoError(t, err)
	assert.Equal(t, "alumni_surveys_20240305_083000.csv", file.Filename)
	assert.Equal(t, "text/csv; charset=utf-8", file.ContentType)

	records, err := csv.NewReader(bytes.NewReader(file.Body)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, surveyExportHeaders, records[0])
	assert.Equal(t, "Ben", records[1][3])
	assert.Equal(t, "'=cmd", records[1][2])
	assert.Equal(t, "5", records[2][1])
	assert.Equal(t, "low pay; far commute", records[2][17])
}

func TestExportFiltersByYear(t *testing.T) {
	svc, _ := newExportServiceForTest(t, nil)
	year := 2023

	file, err := svc.Export(context.Background(), "CSV", models.AggregateFilter{Year: &year})
	require.NoError(t, err)
	records, err := csv.NewReader(bytes.NewReader(file.Body)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "Cruz", records[1][2])
}

func TestExportPDFCarriesAggregateSections(t *testing.T) {
	pdf := &recordingPDF{}
	svc, _ := newExportServiceForTest(t, pdf)
	year := 2023

	file, err := svc.Export(context.Background(), "pdf", models.AggregateFilter{Year: &year, Program: "BSCS"})
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", file.ContentType)
	assert.Equal(t, "alumni_surveys_20240305_083000.pdf", file.Filename)
	assert.Equal(t, "Alumni surveys - class of 2023 - BSCS", pdf.title)
	assert.Equal(t, 1, pdf.rows)
	require.NotEmpty(t, pdf.sections)
	assert.Equal(t, "Employed after graduation (1 of 2 surveys)", pdf.sections[0].Title)
	assert.Equal(t, map[string]int{"low pay": 1, "far commute": 1}, pdf.sections[len(pdf.sections)-1].Counts)
}

func TestExportRealPDF(t *testing.T) {
	svc, _ := newExportServiceForTest(t, nil)

	file, err := svc.Export(context.Background(), "pdf", models.AggregateFilter{})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(file.Body, []byte("%PDF")))
}

func TestExportRejectsUnknownFormat(t *testing.T) {
	svc, _ := newExportServiceForTest(t, nil)

	_, err := svc.Export(context.Background(), "xlsx", models.AggregateFilter{})
	appErr := appErrors.FromError(err)
	assert.Equal(t, http.StatusBadRequest, appErr.Status)
	assert.Contains(t, appErr.Details, "format")
}
