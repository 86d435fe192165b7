package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/alumni-survey-api/internal/authz"
	"github.com/noah-isme/alumni-survey-api/internal/models"
	"github.com/noah-isme/alumni-survey-api/internal/service"
	appErrors "github.com/noah-isme/alumni-survey-api/pkg/errors"
)

type fakeSurveySrv struct {
	filter       models.SurveyFilter
	deleteAlumni *int64
	deleteCalled bool
}

func (f *fakeSurveySrv) List(ctx context.Context, filter models.SurveyFilter) ([]models.AlumniSurvey, error) {
	f.filter = filter
	return []models.AlumniSurvey{}, nil
}

func (f *fakeSurveySrv) Get(ctx context.Context, id int64) (*models.AlumniSurvey, error) {
	return &models.AlumniSurvey{ID: id}, nil
}

func (f *fakeSurveySrv) Create(ctx context.Context, input service.SurveyInput) (*models.AlumniSurvey, error) {
	return &models.AlumniSurvey{ID: 1}, nil
}

func (f *fakeSurveySrv) Update(ctx context.Context, ac *authz.Context, id int64, input service.SurveyInput) (*models.AlumniSurvey, error) {
	return &models.AlumniSurvey{ID: id}, nil
}

func (f *fakeSurveySrv) Delete(ctx context.Context, ac *authz.Context, id int64, bodyAlumniID *int64) error {
	f.deleteCalled = true
	f.deleteAlumni = bodyAlumniID
	return nil
}

type fakeAggregateSrv struct {
	hit    bool
	err    error
	filter models.AggregateFilter
}

func (f *fakeAggregateSrv) Aggregate(ctx context.Context, filter models.AggregateFilter) (*models.SurveyAggregates, bool, error) {
	f.filter = filter
	if f.err != nil {
		return nil, false, f.err
	}
	return &models.SurveyAggregates{Employed: models.Histogram{"Yes": 2}, Count: 2, TotalCount: 2}, f.hit, nil
}

type fakeExportSrv struct {
	format string
	filter models.AggregateFilter
}

func (f *fakeExportSrv) Export(ctx context.Context, format string, filter models.AggregateFilter) (*service.ExportFile, error) {
	f.format, f.filter = format, filter
	if format == "xlsx" {
		return nil, appErrors.WithDetails(appErrors.ErrValidation, "unsupported export format", map[string]interface{}{"format": "Use csv or pdf."})
	}
	return &service.ExportFile{Filename: "alumni_surveys_20240305_083000.csv", ContentType: "text/csv; charset=utf-8", Body: []byte("id\n1\n")}, nil
}

func TestSurveyHandlerListParsesQuery(t *testing.T) {
	srv := &fakeSurveySrv{}
	h := NewSurveyHandler(srv, &fakeAggregateSrv{}, &fakeExportSrv{})

	c, rec := newTestContext(http.MethodGet, "/alumni-surveys/?alumni=5&year=abc&program=%20BSCS%20&limit=10", "", nil, nil)
	h.List(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, srv.filter.AlumniID)
	assert.Equal(t, int64(5), *srv.filter.AlumniID)
	assert.Nil(t, srv.filter.Year)
	assert.Equal(t, "BSCS", srv.filter.Program)
	assert.Equal(t, 10, srv.filter.Limit)
}

func TestSurveyHandlerAggregatesReportsCacheHit(t *testing.T) {
	aggregates := &fakeAggregateSrv{hit: true}
	h := NewSurveyHandler(&fakeSurveySrv{}, aggregates, &fakeExportSrv{})

	c, rec := newTestContext(http.MethodGet, "/survey-aggregates/?year=2023&program=BSN", "", nil, nil)
	h.Aggregates(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "HIT", rec.Header().Get("X-Cache"))
	assert.NotContains(t, rec.Body.String(), `"data"`)
	require.NotNil(t, aggregates.filter.Year)
	assert.Equal(t, 2023, *aggregates.filter.Year)
	assert.Equal(t, "BSN", aggregates.filter.Program)

	aggregates.hit = false
	c, rec = newTestContext(http.MethodGet, "/survey-aggregates/?year=twenty", "", nil, nil)
	h.Aggregates(c)
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	assert.Nil(t, aggregates.filter.Year)
}

func TestSurveyHandlerAggregatesFailure(t *testing.T) {
	h := NewSurveyHandler(&fakeSurveySrv{}, &fakeAggregateSrv{err: appErrors.Clone(appErrors.ErrInternal, "Failed to compute aggregates.")}, &fakeExportSrv{})

	c, rec := newTestContext(http.MethodGet, "/survey-aggregates/", "", nil, nil)
	h.Aggregates(c)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestSurveyHandlerExportHeaders(t *testing.T) {
	exports := &fakeExportSrv{}
	h := NewSurveyHandler(&fakeSurveySrv{}, &fakeAggregateSrv{}, exports)

	c, rec := newTestContext(http.MethodGet, "/survey-exports/?format=csv&year=2022", "", nil, nil)
	h.Export(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="alumni_surveys_20240305_083000.csv"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "id\n1\n", rec.Body.String())
	assert.Equal(t, "csv", exports.format)
	require.NotNil(t, exports.filter.Year)
	assert.Equal(t, 2022, *exports.filter.Year)

	c, rec = newTestContext(http.MethodGet, "/survey-exports/?format=xlsx", "", nil, nil)
	h.Export(c)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeError(t, rec).Details, "format")
}

func TestSurveyHandlerDeleteReadsBodyAlumni(t *testing.T) {
	srv := &fakeSurveySrv{}
	h := NewSurveyHandler(srv, &fakeAggregateSrv{}, &fakeExportSrv{})

	c, rec := newTestContext(http.MethodDelete, "/alumni-surveys/3/", `{"alumni": "5"}`, nil, idParam("3"))
	h.Delete(c)
	c.Writer.WriteHeaderNow()
	assert.Equal(t, http.StatusNoContent, rec.Code)
	require.NotNil(t, srv.deleteAlumni)
	assert.Equal(t, int64(5), *srv.deleteAlumni)

	c, rec = newTestContext(http.MethodDelete, "/alumni-surveys/3/", "", nil, idParam("3"))
	h.Delete(c)
	c.Writer.WriteHeaderNow()
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Nil(t, srv.deleteAlumni)
}
