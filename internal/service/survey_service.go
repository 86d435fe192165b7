package service

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/alumni-survey-api/internal/authz"
	"github.com/noah-isme/alumni-survey-api/internal/models"
	appErrors "github.com/noah-isme/alumni-survey-api/pkg/errors"
)

const aggregatesCachePattern = "survey-aggregates:*"

type surveyRepository interface {
	List(ctx context.Context, filter models.SurveyFilter) ([]models.AlumniSurvey, error)
	FindByID(ctx context.Context, id int64) (*models.AlumniSurvey, error)
	Create(ctx context.Context, survey *models.AlumniSurvey) error
	Update(ctx context.Context, survey *models.AlumniSurvey, replaceRecords bool) error
	Delete(ctx context.Context, id int64) error
}

// OptionalID is a loosely typed alumni reference. Clients send a number, a
// numeric string or null.
type OptionalID struct {
	Set     bool
	Value   *int64
	Invalid bool
}

// UnmarshalJSON implements json.Unmarshaler.
func (o *OptionalID) UnmarshalJSON(data []byte) error {
	o.Set = true
	o.Value, o.Invalid = nil, false
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		return nil
	}

	var raw interface{}
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return err
	}
	var text string
	switch v := raw.(type) {
	case float64:
		text = strconv.FormatFloat(v, 'f', -1, 64)
	case string:
		text = strings.TrimSpace(v)
		if text == "" {
			return nil
		}
	default:
		o.Invalid = true
		return nil
	}
	id, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		o.Invalid = true
		return nil
	}
	o.Value = &id
	return nil
}

// Ptr returns the parsed id, or nil when absent or unparseable.
func (o OptionalID) Ptr() *int64 {
	if o.Invalid {
		return nil
	}
	return o.Value
}

// BusinessFlag normalises has_own_business input to "yes", "no" or null.
type BusinessFlag struct {
	Set     bool
	Value   *string
	Invalid bool
}

// UnmarshalJSON implements json.Unmarshaler.
func (b *BusinessFlag) UnmarshalJSON(data []byte) error {
	b.Set = true
	b.Value, b.Invalid = nil, false

	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	yes, no := "yes", "no"
	switch v := raw.(type) {
	case nil:
	case bool:
		if v {
			b.Value = &yes
		} else {
			b.Value = &no
		}
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "yes", "y", "true", "1":
			b.Value = &yes
		case "no", "n", "false", "0":
			b.Value = &no
		default:
			b.Invalid = true
		}
	default:
		b.Invalid = true
	}
	return nil
}

// EmploymentRecordInput is one employment history entry in a survey payload.
type EmploymentRecordInput struct {
	CompanyName        string `json:"company_name" validate:"max=255"`
	DateEmployed       string `json:"date_employed" validate:"max=32"`
	PositionAndStatus  string `json:"position_and_status" validate:"max=255"`
	MonthlySalaryRange string `json:"monthly_salary_range" validate:"max=64"`
}

// SurveyInput carries a survey create or partial update. Absent fields are nil.
// self_employment is accepted for compatibility and discarded.
type SurveyInput struct {
	Alumni                   OptionalID               `json:"alumni"`
	LastName                 *string                  `json:"last_name" validate:"omitempty,max=255"`
	FirstName                *string                  `json:"first_name" validate:"omitempty,max=255"`
	MiddleName               *string                  `json:"middle_name" validate:"omitempty,max=255"`
	YearGraduated            *string                  `json:"year_graduated" validate:"omitempty,max=8"`
	CourseProgram            *string                  `json:"course_program" validate:"omitempty,max=255"`
	StudentNumber            *string                  `json:"student_number" validate:"omitempty,max=100"`
	BirthYear                *string                  `json:"birth_year" validate:"omitempty,max=6"`
	BirthMonth               *string                  `json:"birth_month" validate:"omitempty,max=16"`
	BirthDay                 *string                  `json:"birth_day" validate:"omitempty,max=4"`
	Age                      *int                     `json:"age" validate:"omitempty,min=0"`
	Gender                   *string                  `json:"gender" validate:"omitempty,max=20"`
	HomeAddress              *string                  `json:"home_address"`
	TelephoneNumber          *string                  `json:"telephone_number" validate:"omitempty,max=50"`
	MobileNumber             *string                  `json:"mobile_number" validate:"omitempty,max=50"`
	Email                    *string                  `json:"email" validate:"omitempty,email,max=254"`
	CurrentJobPosition       *string                  `json:"current_job_position" validate:"omitempty,max=255"`
	CompanyAffiliation       *string                  `json:"company_affiliation" validate:"omitempty,max=255"`
	CompanyAddress           *string                  `json:"company_address"`
	ApproximateMonthlySalary *string                  `json:"approximate_monthly_salary" validate:"omitempty,max=64"`
	EmployedAfterGraduation  *string                  `json:"employed_after_graduation" validate:"omitempty,max=16"`
	JobDifficulties          *models.StringList       `json:"job_difficulties"`
	EmploymentSource         *string                  `json:"employment_source" validate:"omitempty,max=255"`
	JobsRelatedToExperience  *string                  `json:"jobs_related_to_experience" validate:"omitempty,max=16"`
	ImprovementSuggestions   *string                  `json:"improvement_suggestions"`
	HasBeenPromoted          *string                  `json:"has_been_promoted" validate:"omitempty,max=16"`
	WorkPerformanceRating    *string                  `json:"work_performance_rating" validate:"omitempty,max=64"`
	HasOwnBusiness           BusinessFlag             `json:"has_own_business"`
	EmploymentRecords        *[]EmploymentRecordInput `json:"employment_records" validate:"omitempty,dive"`
	SelfEmployment           []map[string]interface{} `json:"self_employment"`
}

// SurveyService manages alumni surveys.
type SurveyService struct {
	repo      surveyRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSurveyService constructs the survey service. cache may be nil.
func NewSurveyService(repo surveyRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *SurveyService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SurveyService{repo: repo, cache: cache, validator: validate, logger: logger}
}

// List returns surveys newest first.
func (s *SurveyService) List(ctx context.Context, filter models.SurveyFilter) ([]models.AlumniSurvey, error) {
	surveys, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, internalError(err, "failed to list surveys")
	}
	return surveys, nil
}

// Get returns one survey with its employment records.
func (s *SurveyService) Get(ctx context.Context, id int64) (*models.AlumniSurvey, error) {
	survey, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound("survey not found")
		}
		return nil, internalError(err, "failed to load survey")
	}
	return survey, nil
}

// Create stores a new survey and its employment records.
func (s *SurveyService) Create(ctx context.Context, input SurveyInput) (*models.AlumniSurvey, error) {
	if err := s.checkInput(input); err != nil {
		return nil, err
	}
	details := map[string]interface{}{}
	if input.LastName == nil || strings.TrimSpace(*input.LastName) == "" {
		details["last_name"] = []string{"This field is required."}
	}
	if input.FirstName == nil || strings.TrimSpace(*input.FirstName) == "" {
		details["first_name"] = []string{"This field is required."}
	}
	if len(details) > 0 {
		return nil, appErrors.WithDetails(appErrors.ErrValidation, "Validation failed", details)
	}

	survey := &models.AlumniSurvey{JobDifficulties: models.StringList{}}
	applySurveyInput(survey, input)
	if err := s.repo.Create(ctx, survey); err != nil {
		return nil, internalError(err, "failed to create survey")
	}
	s.invalidateAggregates(ctx)
	s.logger.Info("survey submitted", zap.Int64("survey_id", survey.ID))
	return survey, nil
}

// Update applies a partial update after the ownership guard passes. Employment
// records are replaced wholesale when the payload carries them.
func (s *SurveyService) Update(ctx context.Context, ac *authz.Context, id int64, input SurveyInput) (*models.AlumniSurvey, error) {
	survey, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authz.CanUpdateSurvey(ac, survey, input.Alumni.Ptr()); err != nil {
		return nil, err
	}
	if err := s.checkInput(input); err != nil {
		return nil, err
	}

	applySurveyInput(survey, input)
	if err := s.repo.Update(ctx, survey, input.EmploymentRecords != nil); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound("survey not found")
		}
		return nil, internalError(err, "failed to update survey")
	}
	s.invalidateAggregates(ctx)
	return survey, nil
}

// Delete removes a survey under the same ownership rule as Update.
func (s *SurveyService) Delete(ctx context.Context, ac *authz.Context, id int64, bodyAlumniID *int64) error {
	survey, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := authz.CanUpdateSurvey(ac, survey, bodyAlumniID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return notFound("survey not found")
		}
		return internalError(err, "failed to delete survey")
	}
	s.invalidateAggregates(ctx)
	return nil
}

func (s *SurveyService) checkInput(input SurveyInput) error {
	if input.HasOwnBusiness.Invalid {
		return fieldError("has_own_business", "Invalid value for has_own_business")
	}
	if input.Alumni.Invalid {
		return fieldError("alumni", "Incorrect type. Expected pk value.")
	}
	if err := s.validator.Struct(input); err != nil {
		return validationError(err, "Validation failed")
	}
	return nil
}

func (s *SurveyService) invalidateAggregates(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, aggregatesCachePattern); err != nil {
		s.logger.Warn("survey aggregates cache not invalidated", zap.Error(err))
	}
}

func applySurveyInput(survey *models.AlumniSurvey, in SurveyInput) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	if in.Alumni.Set {
		survey.AlumniID = in.Alumni.Value
	}
	set(&survey.LastName, in.LastName)
	set(&survey.FirstName, in.FirstName)
	set(&survey.MiddleName, in.MiddleName)
	set(&survey.YearGraduated, in.YearGraduated)
	set(&survey.CourseProgram, in.CourseProgram)
	set(&survey.StudentNumber, in.StudentNumber)
	set(&survey.BirthYear, in.BirthYear)
	set(&survey.BirthMonth, in.BirthMonth)
	set(&survey.BirthDay, in.BirthDay)
	if in.Age != nil {
		survey.Age = in.Age
	}
	set(&survey.Gender, in.Gender)
	set(&survey.HomeAddress, in.HomeAddress)
	set(&survey.TelephoneNumber, in.TelephoneNumber)
	set(&survey.MobileNumber, in.MobileNumber)
	set(&survey.Email, in.Email)
	set(&survey.CurrentJobPosition, in.CurrentJobPosition)
	set(&survey.CompanyAffiliation, in.CompanyAffiliation)
	set(&survey.CompanyAddress, in.CompanyAddress)
	set(&survey.ApproximateMonthlySalary, in.ApproximateMonthlySalary)
	set(&survey.EmployedAfterGraduation, in.EmployedAfterGraduation)
	if in.JobDifficulties != nil {
		survey.JobDifficulties = *in.JobDifficulties
	}
	set(&survey.EmploymentSource, in.EmploymentSource)
	set(&survey.JobsRelatedToExperience, in.JobsRelatedToExperience)
	set(&survey.ImprovementSuggestions, in.ImprovementSuggestions)
	set(&survey.HasBeenPromoted, in.HasBeenPromoted)
	set(&survey.WorkPerformanceRating, in.WorkPerformanceRating)
	if in.HasOwnBusiness.Set {
		survey.HasOwnBusiness = in.HasOwnBusiness.Value
	}
	if in.EmploymentRecords != nil {
		records := make([]models.EmploymentRecord, 0, len(*in.EmploymentRecords))
		for _, rec := range *in.EmploymentRecords {
			records = append(records, models.EmploymentRecord{
				CompanyName:        rec.CompanyName,
				DateEmployed:       rec.DateEmployed,
				PositionAndStatus:  rec.PositionAndStatus,
				MonthlySalaryRange: rec.MonthlySalaryRange,
			})
		}
		survey.EmploymentRecords = records
	}
	if survey.EmploymentRecords == nil {
		survey.EmploymentRecords = []models.EmploymentRecord{}
	}
}
