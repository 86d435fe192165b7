package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/alumni-survey-api/internal/models"
	"github.com/noah-isme/alumni-survey-api/internal/repository"
)

const aggregatesFailure = "Failed to compute aggregates"

type aggregateRepository interface {
	AggregateRows(ctx context.Context, filter models.AggregateFilter, includeBusiness bool) ([]models.SurveyAggregateRow, error)
	Count(ctx context.Context) (int, error)
	CountCreatedBetween(ctx context.Context, from, to time.Time) (int, error)
}

// AggregateService computes dashboard histograms over alumni surveys.
type AggregateService struct {
	repo    aggregateRepository
	cache   *CacheService
	metrics *MetricsService
	logger  *zap.Logger
	now     func() time.Time
}

// NewAggregateService constructs the aggregate service. cache and metrics may be nil.
func NewAggregateService(repo aggregateRepository, cache *CacheService, metrics *MetricsService, logger *zap.Logger) *AggregateService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AggregateService{repo: repo, cache: cache, metrics: metrics, logger: logger, now: time.Now}
}

// Aggregate returns the histograms for the filtered surveys and whether they
// were served from cache.
func (s *AggregateService) Aggregate(ctx context.Context, filter models.AggregateFilter) (*models.SurveyAggregates, bool, error) {
	var result models.SurveyAggregates
	hit, err := s.cache.Remember(ctx, aggregatesCacheKey(filter), &result, func() error {
		computed, err := s.compute(ctx, filter)
		if err != nil {
			return err
		}
		result = *computed
		return nil
	})
	if err != nil {
		s.logger.Error("survey aggregation failed", zap.Error(err))
		return nil, false, internalError(err, aggregatesFailure)
	}
	return &result, hit, nil
}

func aggregatesCacheKey(filter models.AggregateFilter) string {
	year := "all"
	if filter.Year != nil {
		year = fmt.Sprint(*filter.Year)
	}
	return fmt.Sprintf("survey-aggregates:%s:%s", year, strings.ToLower(strings.TrimSpace(filter.Program)))
}

func (s *AggregateService) compute(ctx context.Context, filter models.AggregateFilter) (*models.SurveyAggregates, error) {
	start := time.Now()
	includeBusiness := true
	rows, err := s.repo.AggregateRows(ctx, filter, includeBusiness)
	if err != nil && repository.IsUndefinedColumn(err) {
		s.logger.Warn("has_own_business unreadable, inferring self-employment from company affiliation", zap.Error(err))
		includeBusiness = false
		rows, err = s.repo.AggregateRows(ctx, filter, includeBusiness)
	}
	if err != nil {
		return nil, fmt.Errorf("load aggregate rows: %w", err)
	}

	total, err := s.repo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count surveys: %w", err)
	}
	s.metrics.ObserveDBQuery("survey_aggregates", time.Since(start))

	result := summarize(rows, includeBusiness)
	result.TotalCount = total
	result.SurveysThisMonth = s.surveysThisMonth(ctx)
	return result, nil
}

// surveysThisMonth counts surveys created in the current server-local month.
// It reports zero rather than failing the whole summary.
func (s *AggregateService) surveysThisMonth(ctx context.Context) int {
	now := s.now()
	from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	count, err := s.repo.CountCreatedBetween(ctx, from, from.AddDate(0, 1, 0))
	if err != nil {
		s.logger.Warn("monthly survey count failed", zap.Error(err))
		return 0
	}
	return count
}

// summarize builds every histogram in one pass over rows.
func summarize(rows []models.SurveyAggregateRow, includeBusiness bool) *models.SurveyAggregates {
	out := &models.SurveyAggregates{
		Employed:        models.Histogram{},
		Sources:         models.Histogram{},
		Performance:     models.Histogram{},
		Programs:        models.Histogram{},
		Promoted:        models.Histogram{},
		JobsRelated:     models.Histogram{},
		JobDifficulties: models.Histogram{},
		HasOwnBusiness:  models.Histogram{models.LabelYes: 0, models.LabelNo: 0},
		Count:           len(rows),
	}

	for _, row := range rows {
		out.Employed[labelOr(row.EmployedAfterGraduation, models.LabelUnknown)]++
		out.Sources[labelOr(row.EmploymentSource, models.LabelUnknown)]++
		out.Performance[labelOr(row.WorkPerformanceRating, models.LabelUnrated)]++
		out.Programs[labelOr(row.CourseProgram, models.LabelUnknown)]++
		out.Promoted[labelOr(row.HasBeenPromoted, models.LabelUnknown)]++
		out.JobsRelated[labelOr(row.JobsRelatedToExperience, models.LabelUnknown)]++

		for _, tag := range row.JobDifficulties {
			if tag = strings.TrimSpace(tag); tag != "" {
				out.JobDifficulties[tag]++
			}
		}

		selfEmployed := strings.TrimSpace(row.CompanyAffiliation) != ""
		if includeBusiness {
			selfEmployed = row.HasOwnBusiness != nil && truthy(*row.HasOwnBusiness)
		}
		if selfEmployed {
			out.HasOwnBusiness[models.LabelYes]++
		} else {
			out.HasOwnBusiness[models.LabelNo]++
		}
	}

	out.SelfEmployment = models.Histogram{}
	for label, n := range out.HasOwnBusiness {
		out.SelfEmployment[label] = n
	}
	return out
}

func labelOr(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

func truthy(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "yes", "y", "true", "t", "1":
		return true
	}
	return false
}
