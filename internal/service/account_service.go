package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/alumni-survey-api/internal/models"
	appErrors "github.com/noah-isme/alumni-survey-api/pkg/errors"
)

const (
	minGraduationYear = 1950
	minPasswordLength = 8
)

type adminRepository interface {
	List(ctx context.Context) ([]models.Admin, error)
	FindByID(ctx context.Context, id int64) (*models.Admin, error)
	Create(ctx context.Context, admin *models.Admin) error
	Update(ctx context.Context, admin *models.Admin) error
	Delete(ctx context.Context, id int64) error
}

type alumniRepository interface {
	List(ctx context.Context) ([]models.Alumni, error)
	FindByID(ctx context.Context, id int64) (*models.Alumni, error)
	Create(ctx context.Context, alumni *models.Alumni) error
	Update(ctx context.Context, alumni *models.Alumni) error
	UpdatePassword(ctx context.Context, id int64, password string) error
	RecordConsent(ctx context.Context, id int64, consented bool, at time.Time) error
	Delete(ctx context.Context, id int64) error
}

// CreateAdminRequest holds payload for creating admins.
type CreateAdminRequest struct {
	Username string `json:"username" validate:"required,max=150"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,max=128"`
	FullName string `json:"full_name" validate:"max=255"`
}

// UpdateAdminRequest holds a partial admin update.
type UpdateAdminRequest struct {
	Username *string `json:"username" validate:"omitempty,min=1,max=150"`
	Email    *string `json:"email" validate:"omitempty,email"`
	Password *string `json:"password" validate:"omitempty,min=1,max=128"`
	FullName *string `json:"full_name" validate:"omitempty,max=255"`
}

// CreateAlumniRequest holds payload for registering alumni.
type CreateAlumniRequest struct {
	Username      string `json:"username" validate:"required,max=150"`
	Email         string `json:"email" validate:"required,email"`
	Password      string `json:"password" validate:"required,max=128"`
	FullName      string `json:"full_name" validate:"max=255"`
	ProgramCourse string `json:"program_course" validate:"max=255"`
	YearGraduated *int   `json:"year_graduated"`
}

// UpdateAlumniRequest holds a partial alumni update.
type UpdateAlumniRequest struct {
	Username      *string `json:"username" validate:"omitempty,min=1,max=150"`
	Email         *string `json:"email" validate:"omitempty,email"`
	Password      *string `json:"password" validate:"omitempty,min=1,max=128"`
	FullName      *string `json:"full_name" validate:"omitempty,max=255"`
	ProgramCourse *string `json:"program_course" validate:"omitempty,max=255"`
	YearGraduated *int    `json:"year_graduated"`
}

// ChangePasswordRequest replaces an alumni password after checking the current one.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// ConsentRequest records an alumni's data privacy consent.
type ConsentRequest struct {
	UserID  *int64 `json:"user_id"`
	Consent *bool  `json:"consent"`
}

// AdminService handles admin account use-cases.
type AdminService struct {
	repo      adminRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAdminService constructs the admin service.
func NewAdminService(repo adminRepository, validate *validator.Validate, logger *zap.Logger) *AdminService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdminService{repo: repo, validator: validate, logger: logger}
}

// List returns every admin.
func (s *AdminService) List(ctx context.Context) ([]models.Admin, error) {
	admins, err := s.repo.List(ctx)
	if err != nil {
		return nil, internalError(err, "failed to list admins")
	}
	return admins, nil
}

// Get returns a single admin.
func (s *AdminService) Get(ctx context.Context, id int64) (*models.Admin, error) {
	admin, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound("admin not found")
		}
		return nil, internalError(err, "failed to load admin")
	}
	return admin, nil
}

// Create registers a new admin.
func (s *AdminService) Create(ctx context.Context, req CreateAdminRequest) (*models.Admin, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid admin payload")
	}
	admin := &models.Admin{
		Username: strings.TrimSpace(req.Username),
		Email:    strings.TrimSpace(req.Email),
		Password: req.Password,
		FullName: req.FullName,
	}
	if err := s.repo.Create(ctx, admin); err != nil {
		if conflict, ok := conflictError(err, "admin"); ok {
			return nil, conflict
		}
		return nil, internalError(err, "failed to create admin")
	}
	return admin, nil
}

// Update applies a partial update to an admin.
func (s *AdminService) Update(ctx context.Context, id int64, req UpdateAdminRequest) (*models.Admin, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid admin payload")
	}
	admin, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Username != nil {
		admin.Username = strings.TrimSpace(*req.Username)
	}
	if req.Email != nil {
		admin.Email = strings.TrimSpace(*req.Email)
	}
	if req.Password != nil {
		admin.Password = *req.Password
	}
	if req.FullName != nil {
		admin.FullName = *req.FullName
	}
	if err := s.repo.Update(ctx, admin); err != nil {
		if conflict, ok := conflictError(err, "admin"); ok {
			return nil, conflict
		}
		return nil, internalError(err, "failed to update admin")
	}
	return admin, nil
}

// Delete removes an admin.
func (s *AdminService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return notFound("admin not found")
		}
		return internalError(err, "failed to delete admin")
	}
	return nil
}

// AlumniService handles alumni account use-cases.
type AlumniService struct {
	repo      alumniRepository
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewAlumniService constructs the alumni service.
func NewAlumniService(repo alumniRepository, validate *validator.Validate, logger *zap.Logger) *AlumniService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AlumniService{repo: repo, validator: validate, logger: logger, now: time.Now}
}

func (s *AlumniService) checkGraduationYear(year *int) error {
	if year == nil {
		return fieldError("year_graduated", "Year graduated is required")
	}
	current := s.now().Year()
	if *year < minGraduationYear || *year > current {
		return fieldError("year_graduated", fmt.Sprintf("Year graduated must be between %d and %d", minGraduationYear, current))
	}
	return nil
}

// List returns every alumni.
func (s *AlumniService) List(ctx context.Context) ([]models.Alumni, error) {
	alumni, err := s.repo.List(ctx)
	if err != nil {
		return nil, internalError(err, "failed to list alumni")
	}
	return alumni, nil
}

// Get returns a single alumni.
func (s *AlumniService) Get(ctx context.Context, id int64) (*models.Alumni, error) {
	alumni, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound("Alumni not found")
		}
		return nil, internalError(err, "failed to load alumni")
	}
	return alumni, nil
}

// Create registers a new alumni. The graduation year is mandatory.
func (s *AlumniService) Create(ctx context.Context, req CreateAlumniRequest) (*models.Alumni, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid alumni payload")
	}
	if err := s.checkGraduationYear(req.YearGraduated); err != nil {
		return nil, err
	}
	alumni := &models.Alumni{
		Username:      strings.TrimSpace(req.Username),
		Email:         strings.TrimSpace(req.Email),
		Password:      req.Password,
		FullName:      req.FullName,
		ProgramCourse: req.ProgramCourse,
		YearGraduated: req.YearGraduated,
	}
	if err := s.repo.Create(ctx, alumni); err != nil {
		if conflict, ok := conflictError(err, "alumni"); ok {
			return nil, conflict
		}
		return nil, internalError(err, "failed to create alumni")
	}
	return alumni, nil
}

// Update applies a partial update to an alumni.
func (s *AlumniService) Update(ctx context.Context, id int64, req UpdateAlumniRequest) (*models.Alumni, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid alumni payload")
	}
	if req.YearGraduated != nil {
		if err := s.checkGraduationYear(req.YearGraduated); err != nil {
			return nil, err
		}
	}
	alumni, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Username != nil {
		alumni.Username = strings.TrimSpace(*req.Username)
	}
	if req.Email != nil {
		alumni.Email = strings.TrimSpace(*req.Email)
	}
	if req.Password != nil {
		alumni.Password = *req.Password
	}
	if req.FullName != nil {
		alumni.FullName = *req.FullName
	}
	if req.ProgramCourse != nil {
		alumni.ProgramCourse = *req.ProgramCourse
	}
	if req.YearGraduated != nil {
		alumni.YearGraduated = req.YearGraduated
	}
	if err := s.repo.Update(ctx, alumni); err != nil {
		if conflict, ok := conflictError(err, "alumni"); ok {
			return nil, conflict
		}
		return nil, internalError(err, "failed to update alumni")
	}
	return alumni, nil
}

// Delete removes an alumni. Linked surveys keep existing without the link.
func (s *AlumniService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return notFound("Alumni not found")
		}
		return internalError(err, "failed to delete alumni")
	}
	return nil
}

// ChangePassword replaces the password when current matches the stored one.
func (s *AlumniService) ChangePassword(ctx context.Context, id int64, req ChangePasswordRequest) error {
	if req.CurrentPassword == "" || req.NewPassword == "" {
		return appErrors.Clone(appErrors.ErrValidation, "Missing current_password or new_password")
	}
	if len(req.NewPassword) < minPasswordLength {
		return fieldError("new_password", fmt.Sprintf("New password must be at least %d characters", minPasswordLength))
	}

	alumni, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if alumni.Password != req.CurrentPassword {
		return fieldError("current_password", "Current password is incorrect")
	}

	if err := s.repo.UpdatePassword(ctx, id, req.NewPassword); err != nil {
		return internalError(err, "Failed to change password")
	}
	s.logger.Info("alumni password changed", zap.Int64("alumni_id", id))
	return nil
}

// RecordConsent stores the consent decision of an alumni.
func (s *AlumniService) RecordConsent(ctx context.Context, req ConsentRequest) error {
	if req.UserID == nil || *req.UserID == 0 || req.Consent == nil {
		return appErrors.Clone(appErrors.ErrValidation, "Missing user_id or consent")
	}
	if err := s.repo.RecordConsent(ctx, *req.UserID, *req.Consent, s.now().UTC()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return notFound("Alumni not found")
		}
		return internalError(err, "failed to record consent")
	}
	return nil
}
