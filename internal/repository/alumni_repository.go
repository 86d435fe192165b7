package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/alumni-survey-api/internal/models"
)

const alumniColumns = `id, username, email, password, full_name, program_course, year_graduated, consented_at, created_at`

// AlumniRepository provides database access for alumni accounts.
type AlumniRepository struct {
	db *sqlx.DB
}

// NewAlumniRepository creates a new AlumniRepository.
func NewAlumniRepository(db *sqlx.DB) *AlumniRepository {
	return &AlumniRepository{db: db}
}

// List returns every alumni ordered by id.
func (r *AlumniRepository) List(ctx context.Context) ([]models.Alumni, error) {
	alumni := []models.Alumni{}
	if err := r.db.SelectContext(ctx, &alumni, `SELECT `+alumniColumns+` FROM alumni ORDER BY id`); err != nil {
		return nil, fmt.Errorf("list alumni: %w", err)
	}
	return alumni, nil
}

// FindByID returns an alumni by id.
func (r *AlumniRepository) FindByID(ctx context.Context, id int64) (*models.Alumni, error) {
	var alumni models.Alumni
	if err := r.db.GetContext(ctx, &alumni, `SELECT `+alumniColumns+` FROM alumni WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find alumni by id: %w", err)
	}
	return &alumni, nil
}

// FindByUsername returns an alumni by username.
func (r *AlumniRepository) FindByUsername(ctx context.Context, username string) (*models.Alumni, error) {
	var alumni models.Alumni
	if err := r.db.GetContext(ctx, &alumni, `SELECT `+alumniColumns+` FROM alumni WHERE username = $1 LIMIT 1`, username); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find alumni by username: %w", err)
	}
	return &alumni, nil
}

// Create inserts an alumni and fills in generated columns.
func (r *AlumniRepository) Create(ctx context.Context, alumni *models.Alumni) error {
	const query = `INSERT INTO alumni (username, email, password, full_name, program_course, year_graduated)
        VALUES ($1, $2, $3, $4, $5, $6) RETURNING id, created_at`
	row := r.db.QueryRowxContext(ctx, query, alumni.Username, alumni.Email, alumni.Password, alumni.FullName, alumni.ProgramCourse, alumni.YearGraduated)
	if err := row.Scan(&alumni.ID, &alumni.CreatedAt); err != nil {
		return fmt.Errorf("create alumni: %w", err)
	}
	return nil
}

// Update persists mutable alumni fields.
func (r *AlumniRepository) Update(ctx context.Context, alumni *models.Alumni) error {
	const query = `UPDATE alumni SET username = :username, email = :email, password = :password, full_name = :full_name,
        program_course = :program_course, year_graduated = :year_graduated WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, alumni); err != nil {
		return fmt.Errorf("update alumni: %w", err)
	}
	return nil
}

// UpdatePassword replaces the stored password.
func (r *AlumniRepository) UpdatePassword(ctx context.Context, id int64, password string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE alumni SET password = $2 WHERE id = $1`, id, password)
	if err != nil {
		return fmt.Errorf("update alumni password: %w", err)
	}
	return requireAffected(res)
}

// RecordConsent stamps or clears the data privacy consent of an alumni.
func (r *AlumniRepository) RecordConsent(ctx context.Context, id int64, consented bool, at time.Time) error {
	var value *time.Time
	if consented {
		value = &at
	}
	res, err := r.db.ExecContext(ctx, `UPDATE alumni SET consented_at = $2 WHERE id = $1`, id, value)
	if err != nil {
		return fmt.Errorf("record alumni consent: %w", err)
	}
	return requireAffected(res)
}

// Delete removes an alumni. Linked surveys keep their rows with a NULL link.
func (r *AlumniRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM alumni WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete alumni: %w", err)
	}
	return requireAffected(res)
}
