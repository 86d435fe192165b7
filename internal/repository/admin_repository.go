package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/alumni-survey-api/internal/models"
)

const adminColumns = `id, username, email, password, full_name, created_at`

// AdminRepository provides database access for admin accounts.
type AdminRepository struct {
	db *sqlx.DB
}

// NewAdminRepository creates a new AdminRepository.
func NewAdminRepository(db *sqlx.DB) *AdminRepository {
	return &AdminRepository{db: db}
}

// List returns every admin ordered by id.
func (r *AdminRepository) List(ctx context.Context) ([]models.Admin, error) {
	admins := []models.Admin{}
	if err := r.db.SelectContext(ctx, &admins, `SELECT `+adminColumns+` FROM admins ORDER BY id`); err != nil {
		return nil, fmt.Errorf("list admins: %w", err)
	}
	return admins, nil
}

// FindByID returns an admin by id.
func (r *AdminRepository) FindByID(ctx context.Context, id int64) (*models.Admin, error) {
	var admin models.Admin
	if err := r.db.GetContext(ctx, &admin, `SELECT `+adminColumns+` FROM admins WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find admin by id: %w", err)
	}
	return &admin, nil
}

// FindByUsername returns an admin by username.
func (r *AdminRepository) FindByUsername(ctx context.Context, username string) (*models.Admin, error) {
	var admin models.Admin
	if err := r.db.GetContext(ctx, &admin, `SELECT `+adminColumns+` FROM admins WHERE username = $1 LIMIT 1`, username); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find admin by username: %w", err)
	}
	return &admin, nil
}

// Create inserts an admin and fills in generated columns.
func (r *AdminRepository) Create(ctx context.Context, admin *models.Admin) error {
	const query = `INSERT INTO admins (username, email, password, full_name) VALUES ($1, $2, $3, $4) RETURNING id, created_at`
	if err := r.db.QueryRowxContext(ctx, query, admin.Username, admin.Email, admin.Password, admin.FullName).Scan(&admin.ID, &admin.CreatedAt); err != nil {
		return fmt.Errorf("create admin: %w", err)
	}
	return nil
}

// Update persists mutable admin fields.
func (r *AdminRepository) Update(ctx context.Context, admin *models.Admin) error {
	const query = `UPDATE admins SET username = :username, email = :email, password = :password, full_name = :full_name WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, admin); err != nil {
		return fmt.Errorf("update admin: %w", err)
	}
	return nil
}

// Delete removes an admin.
func (r *AdminRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM admins WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete admin: %w", err)
	}
	return requireAffected(res)
}

// requireAffected maps a zero-row mutation to sql.ErrNoRows.
func requireAffected(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
