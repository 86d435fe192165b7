package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/alumni-survey-api/internal/models"
)

const programHeadColumns = `id, username, name, surname, mi, gender, contact, email, faculty, program, status, password, created_at`

// ProgramHeadRepository provides database access for program head accounts.
type ProgramHeadRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// NewProgramHeadRepository creates a new ProgramHeadRepository.
func NewProgramHeadRepository(db *sqlx.DB, logger *zap.Logger) *ProgramHeadRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProgramHeadRepository{db: db, logger: logger}
}

// List returns every program head ordered by id.
func (r *ProgramHeadRepository) List(ctx context.Context) ([]models.ProgramHead, error) {
	heads := []models.ProgramHead{}
	if err := r.db.SelectContext(ctx, &heads, `SELECT `+programHeadColumns+` FROM program_heads ORDER BY id`); err != nil {
		return nil, fmt.Errorf("list program heads: %w", err)
	}
	return heads, nil
}

// FindByID returns a program head by id.
func (r *ProgramHeadRepository) FindByID(ctx context.Context, id int64) (*models.ProgramHead, error) {
	var head models.ProgramHead
	if err := r.db.GetContext(ctx, &head, `SELECT `+programHeadColumns+` FROM program_heads WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find program head by id: %w", err)
	}
	return &head, nil
}

// FindByUsername returns a program head by username.
func (r *ProgramHeadRepository) FindByUsername(ctx context.Context, username string) (*models.ProgramHead, error) {
	var head models.ProgramHead
	if err := r.db.GetContext(ctx, &head, `SELECT `+programHeadColumns+` FROM program_heads WHERE username = $1 LIMIT 1`, username); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find program head by username: %w", err)
	}
	return &head, nil
}

// FindConflicts lists which of username and email already belong to another program head.
func (r *ProgramHeadRepository) FindConflicts(ctx context.Context, username, email string, excludeID int64) ([]string, error) {
	const query = `SELECT username = $1 AS username_taken, email = $2 AS email_taken
        FROM program_heads WHERE (username = $1 OR email = $2) AND id <> $3`
	var rows []struct {
		UsernameTaken bool `db:"username_taken"`
		EmailTaken    bool `db:"email_taken"`
	}
	if err := r.db.SelectContext(ctx, &rows, query, username, email, excludeID); err != nil {
		return nil, fmt.Errorf("find program head conflicts: %w", err)
	}

	var usernameTaken, emailTaken bool
	for _, row := range rows {
		usernameTaken = usernameTaken || row.UsernameTaken
		emailTaken = emailTaken || row.EmailTaken
	}
	var fields []string
	if usernameTaken {
		fields = append(fields, "username")
	}
	if emailTaken {
		fields = append(fields, "email")
	}
	return fields, nil
}

// Create inserts a program head. When outbox is non-nil a mirror upsert entry is
// written in the same transaction.
func (r *ProgramHeadRepository) Create(ctx context.Context, head *models.ProgramHead, outbox *models.MirrorOutboxEntry) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}

	const query = `INSERT INTO program_heads (username, name, surname, mi, gender, contact, email, faculty, program, status, password)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11) RETURNING id, created_at`
	row := tx.QueryRowxContext(ctx, query, head.Username, head.Name, head.Surname, head.MI, head.Gender, head.Contact,
		head.Email, head.Faculty, head.Program, head.Status, head.Password)
	if err := row.Scan(&head.ID, &head.CreatedAt); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("create program head: %w", err)
	}

	if outbox != nil {
		outbox.ProgramHeadID = head.ID
		outbox.Username = head.Username
		if err := insertOutbox(ctx, tx, outbox); err != nil {
			tx.Rollback() //nolint:errcheck
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit program head: %w", err)
	}
	return nil
}

// Update persists mutable program head fields.
func (r *ProgramHeadRepository) Update(ctx context.Context, head *models.ProgramHead) error {
	const query = `UPDATE program_heads SET username = :username, name = :name, surname = :surname, mi = :mi, gender = :gender,
        contact = :contact, email = :email, faculty = :faculty, program = :program, status = :status, password = :password
        WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, head); err != nil {
		return fmt.Errorf("update program head: %w", err)
	}
	return nil
}

// Delete unlinks the head's programs and removes the row. When the programs
// table is missing the row is deleted directly. A non-nil outbox entry is
// written in the same transaction as the delete.
func (r *ProgramHeadRepository) Delete(ctx context.Context, id int64, outbox *models.MirrorOutboxEntry) error {
	err := r.delete(ctx, id, outbox, true)
	if err != nil && IsUndefinedTable(err) {
		r.logger.Warn("programs table missing, deleting program head directly", zap.Int64("program_head_id", id), zap.Error(err))
		err = r.delete(ctx, id, outbox, false)
	}
	return err
}

func (r *ProgramHeadRepository) delete(ctx context.Context, id int64, outbox *models.MirrorOutboxEntry, unlinkPrograms bool) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}

	if unlinkPrograms {
		if _, err := tx.ExecContext(ctx, `UPDATE programs SET program_head_id = NULL, updated_at = NOW() WHERE program_head_id = $1`, id); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("unlink programs: %w", err)
		}
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM program_heads WHERE id = $1`, id)
	if err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("delete program head: %w", err)
	}
	if err := requireAffected(res); err != nil {
		tx.Rollback() //nolint:errcheck
		return err
	}

	if outbox != nil {
		outbox.ProgramHeadID = id
		if err := insertOutbox(ctx, tx, outbox); err != nil {
			tx.Rollback() //nolint:errcheck
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit program head delete: %w", err)
	}
	return nil
}
