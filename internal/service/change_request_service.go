package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/alumni-survey-api/internal/authz"
	"github.com/noah-isme/alumni-survey-api/internal/models"
	appErrors "github.com/noah-isme/alumni-survey-api/pkg/errors"
)

type changeRequestRepository interface {
	List(ctx context.Context) ([]models.SurveyChangeRequest, error)
	FindByID(ctx context.Context, id int64) (*models.SurveyChangeRequest, error)
	Create(ctx context.Context, request *models.SurveyChangeRequest) error
	UpdateStatus(ctx context.Context, id int64, status string) error
}

// ChangeRequestInput is the payload for filing a change request.
type ChangeRequestInput struct {
	Alumni  OptionalID `json:"alumni"`
	Message string     `json:"message"`
}

// ChangeRequestStatusInput moves a change request through review.
type ChangeRequestStatusInput struct {
	Status string `json:"status"`
}

var errChangeRequestReviewForbidden = appErrors.Clone(appErrors.ErrForbidden, "Only admins can review change requests.")

// ChangeRequestService files and reviews survey change requests.
type ChangeRequestService struct {
	repo   changeRequestRepository
	logger *zap.Logger
}

// NewChangeRequestService constructs the change request service.
func NewChangeRequestService(repo changeRequestRepository, logger *zap.Logger) *ChangeRequestService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChangeRequestService{repo: repo, logger: logger}
}

// List returns change requests newest first.
func (s *ChangeRequestService) List(ctx context.Context) ([]models.SurveyChangeRequest, error) {
	requests, err := s.repo.List(ctx)
	if err != nil {
		return nil, internalError(err, "failed to list change requests")
	}
	return requests, nil
}

// Create files a change request. An alumni token always decides attribution;
// naming another alumni in the body requires admin.
func (s *ChangeRequestService) Create(ctx context.Context, ac *authz.Context, input ChangeRequestInput) (*models.SurveyChangeRequest, error) {
	alumniID, err := authz.ResolveChangeRequestAlumni(ac, input.Alumni.Ptr())
	if err != nil {
		return nil, err
	}
	if _, verified := ac.Verified(authz.RoleAlumni); !verified && input.Alumni.Invalid {
		return nil, fieldError("alumni", "Incorrect type. Expected pk value.")
	}

	message := strings.TrimSpace(input.Message)
	if message == "" {
		return nil, appErrors.WithDetails(appErrors.ErrValidation, "Validation failed", map[string]interface{}{
			"message": []string{"This field is required."},
		})
	}

	request := &models.SurveyChangeRequest{
		AlumniID: alumniID,
		Message:  input.Message,
		Status:   models.ChangeRequestPending,
	}
	if err := s.repo.Create(ctx, request); err != nil {
		return nil, internalError(err, "failed to create change request")
	}
	s.logger.Info("survey change request filed", zap.Int64("change_request_id", request.ID))
	return request, nil
}

// UpdateStatus moves a request to pending, reviewed or actioned. Admin only.
func (s *ChangeRequestService) UpdateStatus(ctx context.Context, ac *authz.Context, id int64, input ChangeRequestStatusInput) (*models.SurveyChangeRequest, error) {
	if !ac.IsAdmin() {
		return nil, errChangeRequestReviewForbidden
	}
	status := strings.ToLower(strings.TrimSpace(input.Status))
	if !models.ValidChangeRequestStatus(status) {
		return nil, fieldError("status", "Must be one of: pending reviewed actioned.")
	}

	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound("change request not found")
		}
		return nil, internalError(err, "failed to update change request")
	}
	request, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, internalError(err, "failed to load change request")
	}
	return request, nil
}
