package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/alumni-survey-api/internal/models"
)

const changeRequestColumns = `id, alumni_id, message, status, created_at`

// ChangeRequestRepository persists survey change requests.
type ChangeRequestRepository struct {
	db *sqlx.DB
}

// NewChangeRequestRepository creates a new ChangeRequestRepository.
func NewChangeRequestRepository(db *sqlx.DB) *ChangeRequestRepository {
	return &ChangeRequestRepository{db: db}
}

// List returns change requests newest first.
func (r *ChangeRequestRepository) List(ctx context.Context) ([]models.SurveyChangeRequest, error) {
	requests := []models.SurveyChangeRequest{}
	query := `SELECT ` + changeRequestColumns + ` FROM survey_change_requests ORDER BY created_at DESC, id DESC`
	if err := r.db.SelectContext(ctx, &requests, query); err != nil {
		return nil, fmt.Errorf("list change requests: %w", err)
	}
	return requests, nil
}

// FindByID returns a change request by id.
func (r *ChangeRequestRepository) FindByID(ctx context.Context, id int64) (*models.SurveyChangeRequest, error) {
	var request models.SurveyChangeRequest
	if err := r.db.GetContext(ctx, &request, `SELECT `+changeRequestColumns+` FROM survey_change_requests WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find change request: %w", err)
	}
	return &request, nil
}

// Create inserts a change request.
func (r *ChangeRequestRepository) Create(ctx context.Context, request *models.SurveyChangeRequest) error {
	const query = `INSERT INTO survey_change_requests (alumni_id, message, status) VALUES ($1, $2, $3) RETURNING id, created_at`
	if err := r.db.QueryRowxContext(ctx, query, request.AlumniID, request.Message, request.Status).Scan(&request.ID, &request.CreatedAt); err != nil {
		return fmt.Errorf("create change request: %w", err)
	}
	return nil
}

// UpdateStatus moves a change request to a new status.
func (r *ChangeRequestRepository) UpdateStatus(ctx context.Context, id int64, status string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE survey_change_requests SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("update change request status: %w", err)
	}
	return requireAffected(res)
}
