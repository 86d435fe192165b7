package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/alumni-survey-api/internal/models"
	"github.com/noah-isme/alumni-survey-api/internal/repository"
	appErrors "github.com/noah-isme/alumni-survey-api/pkg/errors"
)

const defaultProgramStatus = "active"

type programRepository interface {
	List(ctx context.Context) ([]models.Program, error)
	Create(ctx context.Context, program *models.Program) error
}

// CreateProgramRequest holds payload for creating programs.
type CreateProgramRequest struct {
	ProgramName string `json:"program_name" validate:"required,max=255"`
	ProgramHead *int64 `json:"program_head"`
	Status      string `json:"status" validate:"omitempty,max=20"`
}

// ProgramService manages academic programs.
type ProgramService struct {
	repo      programRepository
	heads     programHeadFinder
	validator *validator.Validate
	logger    *zap.Logger
}

// NewProgramService constructs the program service.
func NewProgramService(repo programRepository, heads programHeadFinder, validate *validator.Validate, logger *zap.Logger) *ProgramService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProgramService{repo: repo, heads: heads, validator: validate, logger: logger}
}

// List returns every program. A missing programs table yields an empty list.
func (s *ProgramService) List(ctx context.Context) ([]models.Program, error) {
	programs, err := s.repo.List(ctx)
	if err != nil {
		if repository.IsUndefinedTable(err) {
			s.logger.Warn("programs table missing, returning empty list", zap.Error(err))
			return []models.Program{}, nil
		}
		return nil, internalError(err, "failed to list programs")
	}
	return programs, nil
}

// Create adds a program owned by an existing program head, copying its faculty.
func (s *ProgramService) Create(ctx context.Context, req CreateProgramRequest) (*models.Program, error) {
	if req.ProgramHead == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "Selected program head does not exist")
	}
	head, err := s.heads.FindByID(ctx, *req.ProgramHead)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "Selected program head does not exist")
		}
		return nil, internalError(err, "failed to load program head")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "Validation failed")
	}

	status := strings.TrimSpace(req.Status)
	if status == "" {
		status = defaultProgramStatus
	}
	program := &models.Program{
		ProgramName:   strings.TrimSpace(req.ProgramName),
		ProgramHeadID: &head.ID,
		Faculty:       head.Faculty,
		Status:        status,
	}
	if err := s.repo.Create(ctx, program); err != nil {
		return nil, internalError(err, "failed to create program")
	}
	name := head.Name + " " + head.Surname
	program.ProgramHeadName = &name
	return program, nil
}
