package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/alumni-survey-api/internal/models"
)

type notificationRepository interface {
	List(ctx context.Context) ([]models.Notification, error)
	FindByID(ctx context.Context, id int64) (*models.Notification, error)
	Create(ctx context.Context, notification *models.Notification) error
	Delete(ctx context.Context, id int64) error
}

// CreateNotificationRequest holds payload for creating notifications.
type CreateNotificationRequest struct {
	Title   string         `json:"title" validate:"required,max=255"`
	Message string         `json:"message"`
	Payload models.RawJSON `json:"payload"`
}

// NotificationService manages admin notifications.
type NotificationService struct {
	repo      notificationRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewNotificationService constructs the notification service.
func NewNotificationService(repo notificationRepository, validate *validator.Validate, logger *zap.Logger) *NotificationService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{repo: repo, validator: validate, logger: logger}
}

// List returns notifications newest first.
func (s *NotificationService) List(ctx context.Context) ([]models.Notification, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, internalError(err, "failed to list notifications")
	}
	return items, nil
}

// Get returns a single notification.
func (s *NotificationService) Get(ctx context.Context, id int64) (*models.Notification, error) {
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound("notification not found")
		}
		return nil, internalError(err, "failed to load notification")
	}
	return item, nil
}

// Create stores a notification.
func (s *NotificationService) Create(ctx context.Context, req CreateNotificationRequest) (*models.Notification, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "Validation failed")
	}
	item := &models.Notification{Title: req.Title, Message: req.Message, Payload: req.Payload}
	if err := s.repo.Create(ctx, item); err != nil {
		return nil, internalError(err, "failed to create notification")
	}
	return item, nil
}

// Delete removes a notification.
func (s *NotificationService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return notFound("notification not found")
		}
		return internalError(err, "failed to delete notification")
	}
	return nil
}
