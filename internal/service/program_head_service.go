package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/alumni-survey-api/internal/authz"
	"github.com/noah-isme/alumni-survey-api/internal/models"
	appErrors "github.com/noah-isme/alumni-survey-api/pkg/errors"
)

const legacyInsertWarning = "Failed to persist to legacy users_programhead table."

type programHeadRepository interface {
	List(ctx context.Context) ([]models.ProgramHead, error)
	FindByID(ctx context.Context, id int64) (*models.ProgramHead, error)
	FindConflicts(ctx context.Context, username, email string, excludeID int64) ([]string, error)
	Create(ctx context.Context, head *models.ProgramHead, outbox *models.MirrorOutboxEntry) error
	Update(ctx context.Context, head *models.ProgramHead) error
	Delete(ctx context.Context, id int64, outbox *models.MirrorOutboxEntry) error
}

type legacyMirror interface {
	Enabled() bool
	SyncCreated(ctx context.Context, head *models.ProgramHead, entry *models.MirrorOutboxEntry) error
	SyncDeleted(ctx context.Context, entry *models.MirrorOutboxEntry)
}

// CreateProgramHeadRequest holds the program head signup payload.
type CreateProgramHeadRequest struct {
	Username string `json:"username" validate:"required,max=150"`
	Name     string `json:"name" validate:"required,max=255"`
	Surname  string `json:"surname" validate:"required,max=255"`
	MI       string `json:"mi" validate:"max=1"`
	Gender   string `json:"gender" validate:"max=10"`
	Contact  string `json:"contact" validate:"max=20"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Faculty  string `json:"faculty" validate:"max=100"`
	Program  string `json:"program" validate:"max=100"`
	Status   string `json:"status" validate:"omitempty,oneof=pending approved rejected"`
	Password string `json:"password" validate:"required,max=128"`
}

// UpdateProgramHeadRequest holds a partial program head update.
type UpdateProgramHeadRequest struct {
	Username *string `json:"username" validate:"omitempty,min=1,max=150"`
	Name     *string `json:"name" validate:"omitempty,min=1,max=255"`
	Surname  *string `json:"surname" validate:"omitempty,min=1,max=255"`
	MI       *string `json:"mi" validate:"omitempty,max=1"`
	Gender   *string `json:"gender" validate:"omitempty,max=10"`
	Contact  *string `json:"contact" validate:"omitempty,max=20"`
	Email    *string `json:"email" validate:"omitempty,email,max=254"`
	Faculty  *string `json:"faculty" validate:"omitempty,max=100"`
	Program  *string `json:"program" validate:"omitempty,max=100"`
	Status   *string `json:"status" validate:"omitempty,oneof=pending approved rejected"`
	Password *string `json:"password" validate:"omitempty,min=1,max=128"`
}

// ProgramHeadCreated is the signup result. LegacyInsertWarning is set when the
// legacy mirror could not be written.
type ProgramHeadCreated struct {
	*models.ProgramHead
	LegacyInsertWarning string `json:"legacy_insert_warning,omitempty"`
}

// ProgramHeadService handles program head signup and moderation.
type ProgramHeadService struct {
	repo      programHeadRepository
	mirror    legacyMirror
	validator *validator.Validate
	logger    *zap.Logger
}

// NewProgramHeadService constructs the program head service.
func NewProgramHeadService(repo programHeadRepository, mirror legacyMirror, validate *validator.Validate, logger *zap.Logger) *ProgramHeadService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProgramHeadService{repo: repo, mirror: mirror, validator: validate, logger: logger}
}

// List returns every program head.
func (s *ProgramHeadService) List(ctx context.Context) ([]models.ProgramHead, error) {
	heads, err := s.repo.List(ctx)
	if err != nil {
		return nil, internalError(err, "failed to list program heads")
	}
	return heads, nil
}

// Get returns a single program head.
func (s *ProgramHeadService) Get(ctx context.Context, id int64) (*models.ProgramHead, error) {
	head, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound("program head not found")
		}
		return nil, internalError(err, "failed to load program head")
	}
	return head, nil
}

// Create signs a program head up. Accounts start pending unless an admin sets
// the status explicitly. The legacy mirror is written after commit and its
// failure only adds a warning to the result.
func (s *ProgramHeadService) Create(ctx context.Context, ac *authz.Context, req CreateProgramHeadRequest) (*ProgramHeadCreated, error) {
	details := map[string]interface{}{}
	var fieldErrs validator.ValidationErrors
	if err := s.validator.Struct(req); err != nil {
		if !errors.As(err, &fieldErrs) {
			return nil, validationError(err, "")
		}
		for _, fe := range fieldErrs {
			details[fe.Field()] = []string{fieldMessage(fe)}
		}
	}

	conflicts, err := s.repo.FindConflicts(ctx, strings.TrimSpace(req.Username), strings.TrimSpace(req.Email), 0)
	if err != nil {
		return nil, internalError(err, "failed to validate program head")
	}
	addConflictDetails(details, conflicts)
	if err := signupValidationError(details); err != nil {
		return nil, err
	}

	status := models.ProgramHeadPending
	if req.Status != "" && ac.IsAdmin() {
		status = req.Status
	}

	head := &models.ProgramHead{
		Username: strings.TrimSpace(req.Username),
		Name:     req.Name,
		Surname:  req.Surname,
		MI:       req.MI,
		Gender:   req.Gender,
		Contact:  req.Contact,
		Email:    strings.TrimSpace(req.Email),
		Faculty:  req.Faculty,
		Program:  req.Program,
		Status:   status,
		Password: req.Password,
	}

	var outbox *models.MirrorOutboxEntry
	if s.mirror != nil && s.mirror.Enabled() {
		outbox = &models.MirrorOutboxEntry{Operation: models.MirrorOpUpsert}
	}
	if err := s.repo.Create(ctx, head, outbox); err != nil {
		if conflict, ok := conflictError(err, "program head"); ok {
			return nil, conflict
		}
		return nil, internalError(err, "Server error while processing signup. Please try again later.")
	}

	result := &ProgramHeadCreated{ProgramHead: head}
	if outbox != nil {
		if err := s.mirror.SyncCreated(ctx, head, outbox); err != nil {
			result.LegacyInsertWarning = legacyInsertWarning
		}
	}

	s.logger.Info("program head signed up", zap.Int64("program_head_id", head.ID), zap.String("status", head.Status))
	return result, nil
}

func addConflictDetails(details map[string]interface{}, conflicts []string) {
	for _, field := range conflicts {
		details[field] = []string{"program head with this " + field + " already exists."}
	}
}

func signupValidationError(details map[string]interface{}) error {
	if len(details) == 0 {
		return nil
	}
	_, username := details["username"]
	_, email := details["email"]
	if username || email {
		return appErrors.WithDetails(appErrors.ErrValidation, "Username or email already exists.", details)
	}
	return appErrors.WithDetails(appErrors.ErrValidation, "Validation failed", details)
}

// Update applies a partial update. Any field may change, including status.
func (s *ProgramHeadService) Update(ctx context.Context, id int64, req UpdateProgramHeadRequest) (*models.ProgramHead, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "Validation failed")
	}
	head, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Username != nil || req.Email != nil {
		username, email := head.Username, head.Email
		if req.Username != nil {
			username = strings.TrimSpace(*req.Username)
		}
		if req.Email != nil {
			email = strings.TrimSpace(*req.Email)
		}
		conflicts, err := s.repo.FindConflicts(ctx, username, email, id)
		if err != nil {
			return nil, internalError(err, "failed to validate program head")
		}
		details := map[string]interface{}{}
		addConflictDetails(details, conflicts)
		if err := signupValidationError(details); err != nil {
			return nil, err
		}
		head.Username, head.Email = username, email
	}

	applyProgramHeadPatch(head, req)
	if err := s.repo.Update(ctx, head); err != nil {
		if conflict, ok := conflictError(err, "program head"); ok {
			return nil, conflict
		}
		return nil, internalError(err, "failed to update program head")
	}
	return head, nil
}

func applyProgramHeadPatch(head *models.ProgramHead, req UpdateProgramHeadRequest) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&head.Name, req.Name)
	set(&head.Surname, req.Surname)
	set(&head.MI, req.MI)
	set(&head.Gender, req.Gender)
	set(&head.Contact, req.Contact)
	set(&head.Faculty, req.Faculty)
	set(&head.Program, req.Program)
	set(&head.Status, req.Status)
	set(&head.Password, req.Password)
}

// Delete removes a program head after the delete guard passes. Linked programs
// are unlinked and the legacy mirror row is removed best-effort.
func (s *ProgramHeadService) Delete(ctx context.Context, ac *authz.Context, id int64) error {
	if err := authz.CanDeleteProgramHead(ac); err != nil {
		return err
	}
	head, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	var outbox *models.MirrorOutboxEntry
	if s.mirror != nil && s.mirror.Enabled() {
		outbox = &models.MirrorOutboxEntry{Operation: models.MirrorOpDelete, Username: head.Username}
	}
	if err := s.repo.Delete(ctx, id, outbox); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return notFound("program head not found")
		}
		return internalError(err, "failed to delete program head")
	}

	if outbox != nil {
		s.mirror.SyncDeleted(ctx, outbox)
	}
	s.logger.Info("program head deleted", zap.Int64("program_head_id", id), zap.String("username", head.Username))
	return nil
}
