package service

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/alumni-survey-api/internal/models"
	appErrors "github.com/noah-isme/alumni-survey-api/pkg/errors"
)

func seedSurveys(t *testing.T, repo *memorySurveyRepo, raws ...string) {
	t.Helper()
	svc := NewSurveyService(repo, nil, nil, nil)
	for _, raw := range raws {
		_, err := svc.Create(context.Background(), decodeSurveyInput(t, raw))
		require.NoError(t, err)
	}
}

func TestAggregateHistograms(t *testing.T) {
	repo := newMemorySurveyRepo()
	seedSurveys(t, repo,
		`{"last_name": "A", "first_name": "A", "year_graduated": "2023", "course_program": "BSCS",
		  "employed_after_graduation": "Yes", "employment_source": "Job fair", "work_performance_rating": "Excellent",
		  "has_been_promoted": "Yes", "jobs_related_to_experience": "Yes", "has_own_business": true,
		  "job_difficulties": ["low pay", "far commute"]}`,
		`{"last_name": "B", "first_name": "B", "year_graduated": "2023", "course_program": "BSN",
		  "employed_after_graduation": "No", "has_own_business": "no"}`,
		`{"last_name": "C", "first_name": "C", "year_graduated": "2022", "course_program": "BSCS",
		  "employed_after_graduation": "Yes", "job_difficulties": "low pay"}`,
	)
	svc := NewAggregateService(repo, nil, nil, nil)

	summary, hit, err := svc.Aggregate(context.Background(), models.AggregateFilter{})
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 3, summary.Count)
	assert.Equal(t, 3, summary.TotalCount)
	assert.Equal(t, models.Histogram{"Yes": 2, "No": 1}, summary.Employed)
	assert.Equal(t, models.Histogram{"Job fair": 1, models.LabelUnknown: 2}, summary.Sources)
	assert.Equal(t, models.Histogram{"Excellent": 1, models.LabelUnrated: 2}, summary.Performance)
	assert.Equal(t, models.Histogram{"BSCS": 2, "BSN": 1}, summary.Programs)
	assert.Equal(t, models.Histogram{"low pay": 2, "far commute": 1}, summary.JobDifficulties)
	assert.Equal(t, models.Histogram{models.LabelYes: 1, models.LabelNo: 2}, summary.HasOwnBusiness)
	assert.Equal(t, summary.HasOwnBusiness, summary.SelfEmployment)
	assert.Equal(t, 3, summary.SurveysThisMonth)

	year := 2023
	summary, _, err = svc.Aggregate(context.Background(), models.AggregateFilter{Year: &year})
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Count)
	assert.Equal(t, 3, summary.TotalCount)

	employed := 0
	for _, n := range summary.Employed {
		employed += n
	}
	assert.Equal(t, summary.Count, employed)
}

func TestAggregateEmptySetKeepsBusinessLabels(t *testing.T) {
	svc := NewAggregateService(newMemorySurveyRepo(), nil, nil, nil)

	summary, _, err := svc.Aggregate(context.Background(), models.AggregateFilter{Program: "nothing"})
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Count)
	assert.Empty(t, summary.Employed)
	assert.Equal(t, models.Histogram{models.LabelYes: 0, models.LabelNo: 0}, summary.HasOwnBusiness)
}

func TestAggregateFallsBackToAffiliationWithoutBusinessColumn(t *testing.T) {
	repo := newMemorySurveyRepo()
	seedSurveys(t, repo,
		`{"last_name": "A", "first_name": "A", "company_affiliation": "Own shop", "has_own_business": "no"}`,
		`{"last_name": "B", "first_name": "B"}`,
	)
	repo.noBusinessColumn = true
	svc := NewAggregateService(repo, nil, nil, nil)

	summary, _, err := svc.Aggregate(context.Background(), models.AggregateFilter{})
	require.NoError(t, err)
	assert.Equal(t, models.Histogram{models.LabelYes: 1, models.LabelNo: 1}, summary.HasOwnBusiness)
	assert.Equal(t, 2, repo.aggCalls)
}

func TestAggregateSurveysThisMonthUsesLocalMonthBounds(t *testing.T) {
	repo := newMemorySurveyRepo()
	svc := NewAggregateService(repo, nil, nil, nil)
	svc.now = func() time.Time { return time.Date(2024, time.February, 17, 10, 0, 0, 0, time.UTC) }
	repo.surveys = append(repo.surveys,
		&models.AlumniSurvey{ID: 1, CreatedAt: time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC)},
		&models.AlumniSurvey{ID: 2, CreatedAt: time.Date(2024, time.January, 31, 23, 59, 0, 0, time.UTC)},
		&models.AlumniSurvey{ID: 3, CreatedAt: time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)},
	)

	summary, _, err := svc.Aggregate(context.Background(), models.AggregateFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.SurveysThisMonth)
	assert.Equal(t, time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC), repo.countFrom)
	assert.Equal(t, time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC), repo.countTo)
}

func TestAggregateFailureIsInternal(t *testing.T) {
	repo := newMemorySurveyRepo()
	repo.aggErr = errors.New("connection refused")
	svc := NewAggregateService(repo, nil, nil, nil)

	_, _, err := svc.Aggregate(context.Background(), models.AggregateFilter{})
	appErr := appErrors.FromError(err)
	assert.Equal(t, http.StatusInternalServerError, appErr.Status)
	assert.Equal(t, aggregatesFailure, appErr.Message)
}

func TestAggregateCacheIsInvalidatedBySurveyWrites(t *testing.T) {
	cache, _ := newRedisCache(t)
	repo := newMemorySurveyRepo()
	surveys := NewSurveyService(repo, cache, nil, nil)
	svc := NewAggregateService(repo, cache, nil, nil)
	ctx := context.Background()

	_, err := surveys.Create(ctx, decodeSurveyInput(t, `{"last_name": "A", "first_name": "A", "employed_after_graduation": "Yes"}`))
	require.NoError(t, err)

	summary, hit, err := svc.Aggregate(ctx, models.AggregateFilter{})
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 1, summary.Count)

	summary, hit, err = svc.Aggregate(ctx, models.AggregateFilter{})
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 1, summary.Count)
	assert.Equal(t, 1, repo.aggCalls)

	_, err = surveys.Create(ctx, decodeSurveyInput(t, `{"last_name": "B", "first_name": "B", "employed_after_graduation": "No"}`))
	require.NoError(t, err)

	summary, hit, err = svc.Aggregate(ctx, models.AggregateFilter{})
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 2, summary.Count)
	assert.Equal(t, models.Histogram{"Yes": 1, "No": 1}, summary.Employed)
}

func TestAggregatesCacheKeyNormalisesProgram(t *testing.T) {
	year := 2023
	assert.Equal(t, "survey-aggregates:2023:bscs", aggregatesCacheKey(models.AggregateFilter{Year: &year, Program: " BSCS "}))
	assert.Equal(t, "survey-aggregates:all:", aggregatesCacheKey(models.AggregateFilter{}))
}
