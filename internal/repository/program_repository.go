package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/alumni-survey-api/internal/models"
)

// ProgramRepository provides database access for academic programs.
type ProgramRepository struct {
	db *sqlx.DB
}

// NewProgramRepository creates a new ProgramRepository.
func NewProgramRepository(db *sqlx.DB) *ProgramRepository {
	return &ProgramRepository{db: db}
}

// List returns programs with the owning head's display name.
func (r *ProgramRepository) List(ctx context.Context) ([]models.Program, error) {
	const query = `SELECT p.id, p.program_name, p.program_head_id, p.faculty, p.status, p.created_at, p.updated_at,
        CASE WHEN ph.id IS NULL THEN NULL ELSE ph.name || ' ' || ph.surname END AS program_head_name
        FROM programs p LEFT JOIN program_heads ph ON ph.id = p.program_head_id
        ORDER BY p.program_name`
	programs := []models.Program{}
	if err := r.db.SelectContext(ctx, &programs, query); err != nil {
		return nil, fmt.Errorf("list programs: %w", err)
	}
	return programs, nil
}

// Create inserts a program and fills in generated columns.
func (r *ProgramRepository) Create(ctx context.Context, program *models.Program) error {
	const query = `INSERT INTO programs (program_name, program_head_id, faculty, status)
        VALUES ($1, $2, $3, $4) RETURNING id, created_at, updated_at`
	row := r.db.QueryRowxContext(ctx, query, program.ProgramName, program.ProgramHeadID, program.Faculty, program.Status)
	if err := row.Scan(&program.ID, &program.CreatedAt, &program.UpdatedAt); err != nil {
		return fmt.Errorf("create program: %w", err)
	}
	return nil
}
