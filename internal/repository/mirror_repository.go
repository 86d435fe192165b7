package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/alumni-survey-api/internal/models"
)

const (
	mirrorTable   = "users_programhead"
	outboxColumns = `id, program_head_id, username, operation, status, attempts, last_error, created_at, updated_at`
)

// MirrorRepository manages the legacy users_programhead table and the outbox
// that tracks changes still to be applied to it.
type MirrorRepository struct {
	db *sqlx.DB
}

// NewMirrorRepository creates a new MirrorRepository.
func NewMirrorRepository(db *sqlx.DB) *MirrorRepository {
	return &MirrorRepository{db: db}
}

func insertOutbox(ctx context.Context, exec sqlx.ExecerContext, entry *models.MirrorOutboxEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Status == "" {
		entry.Status = models.MirrorStatusPending
	}
	now := time.Now().UTC()
	entry.CreatedAt = now
	entry.UpdatedAt = now

	const query = `INSERT INTO mirror_outbox (id, program_head_id, username, operation, status, attempts, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, 0, $6, $7)`
	if _, err := exec.ExecContext(ctx, query, entry.ID, entry.ProgramHeadID, entry.Username, entry.Operation, entry.Status, entry.CreatedAt, entry.UpdatedAt); err != nil {
		return fmt.Errorf("insert mirror outbox entry: %w", err)
	}
	return nil
}

// ListOutbox returns outbox entries, newest first.
func (r *MirrorRepository) ListOutbox(ctx context.Context, filter models.MirrorOutboxFilter) ([]models.MirrorOutboxEntry, error) {
	query := `SELECT ` + outboxColumns + ` FROM mirror_outbox`
	var args []interface{}
	if filter.Status != "" {
		query += ` WHERE status = $1`
		args = append(args, filter.Status)
	}
	limit := filter.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT %d`, limit)

	entries := []models.MirrorOutboxEntry{}
	if err := r.db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, fmt.Errorf("list mirror outbox: %w", err)
	}
	return entries, nil
}

// FindOutbox returns one outbox entry.
func (r *MirrorRepository) FindOutbox(ctx context.Context, id string) (*models.MirrorOutboxEntry, error) {
	var entry models.MirrorOutboxEntry
	if err := r.db.GetContext(ctx, &entry, `SELECT `+outboxColumns+` FROM mirror_outbox WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find mirror outbox entry: %w", err)
	}
	return &entry, nil
}

// ListPending returns pending entries last touched before cutoff, oldest first.
func (r *MirrorRepository) ListPending(ctx context.Context, cutoff time.Time, limit int) ([]models.MirrorOutboxEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `SELECT ` + outboxColumns + ` FROM mirror_outbox WHERE status = $1 AND updated_at < $2 ORDER BY created_at LIMIT $3`
	entries := []models.MirrorOutboxEntry{}
	if err := r.db.SelectContext(ctx, &entries, query, models.MirrorStatusPending, cutoff, limit); err != nil {
		return nil, fmt.Errorf("list pending mirror outbox: %w", err)
	}
	return entries, nil
}

// MarkDone flags an entry as applied.
func (r *MirrorRepository) MarkDone(ctx context.Context, id string) error {
	const query = `UPDATE mirror_outbox SET status = $2, attempts = attempts + 1, last_error = NULL, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, models.MirrorStatusDone, time.Now().UTC()); err != nil {
		return fmt.Errorf("mark mirror outbox done: %w", err)
	}
	return nil
}

// RecordFailure counts a failed attempt. Final failures leave the pending state.
func (r *MirrorRepository) RecordFailure(ctx context.Context, id, lastError string, final bool) error {
	status := models.MirrorStatusPending
	if final {
		status = models.MirrorStatusFailed
	}
	const query = `UPDATE mirror_outbox SET status = $2, attempts = attempts + 1, last_error = $3, updated_at = $4 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status, lastError, time.Now().UTC()); err != nil {
		return fmt.Errorf("record mirror outbox failure: %w", err)
	}
	return nil
}

// EnsureMirrorTable creates the legacy table when it does not exist yet.
func (r *MirrorRepository) EnsureMirrorTable(ctx context.Context) error {
	const ddl = `CREATE TABLE IF NOT EXISTS users_programhead (
        id SERIAL PRIMARY KEY,
        username VARCHAR(150) UNIQUE,
        email VARCHAR(254) UNIQUE,
        password VARCHAR(128),
        created_at TIMESTAMPTZ
    )`
	if _, err := r.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("ensure legacy mirror table: %w", err)
	}
	return nil
}

// MirrorColumns returns the columns the legacy table currently has.
func (r *MirrorRepository) MirrorColumns(ctx context.Context) (map[string]bool, error) {
	const query = `SELECT column_name FROM information_schema.columns WHERE table_schema = current_schema() AND table_name = $1`
	var names []string
	if err := r.db.SelectContext(ctx, &names, query, mirrorTable); err != nil {
		return nil, fmt.Errorf("probe legacy mirror columns: %w", err)
	}
	columns := make(map[string]bool, len(names))
	for _, name := range names {
		columns[strings.ToLower(name)] = true
	}
	return columns, nil
}

// MirrorRowExists reports whether a legacy row for username is already present.
func (r *MirrorRepository) MirrorRowExists(ctx context.Context, username string) (bool, error) {
	var exists bool
	if err := r.db.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM users_programhead WHERE username = $1)`, username); err != nil {
		return false, fmt.Errorf("check legacy mirror row: %w", err)
	}
	return exists, nil
}

// InsertMirrorRow writes one legacy row with the given column values.
func (r *MirrorRepository) InsertMirrorRow(ctx context.Context, columns []string, values []interface{}) error {
	if len(columns) == 0 || len(columns) != len(values) {
		return fmt.Errorf("insert legacy mirror row: %d columns for %d values", len(columns), len(values))
	}
	quoted := make([]string, len(columns))
	placeholders := make([]string, len(columns))
	for i, column := range columns {
		quoted[i] = pq.QuoteIdentifier(column)
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	query := fmt.Sprintf(`INSERT INTO users_programhead (%s) VALUES (%s) ON CONFLICT DO NOTHING`,
		strings.Join(quoted, ", "), strings.Join(placeholders, ", "))
	if _, err := r.db.ExecContext(ctx, query, values...); err != nil {
		return fmt.Errorf("insert legacy mirror row: %w", err)
	}
	return nil
}

// DeleteMirrorRow removes the legacy row by username, or by id when the username is unknown.
func (r *MirrorRepository) DeleteMirrorRow(ctx context.Context, username string, id int64) error {
	var err error
	if username != "" {
		_, err = r.db.ExecContext(ctx, `DELETE FROM users_programhead WHERE username = $1`, username)
	} else {
		_, err = r.db.ExecContext(ctx, `DELETE FROM users_programhead WHERE id = $1`, id)
	}
	if err != nil {
		return fmt.Errorf("delete legacy mirror row: %w", err)
	}
	return nil
}
