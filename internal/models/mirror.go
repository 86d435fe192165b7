package models

import "time"

// Mirror outbox operations and states.
const (
	MirrorOpUpsert = "upsert"
	MirrorOpDelete = "delete"

	MirrorStatusPending = "pending"
	MirrorStatusDone    = "done"
	MirrorStatusFailed  = "failed"
)

// MirrorOutboxEntry records a pending change to the legacy users_programhead table.
type MirrorOutboxEntry struct {
	ID            string    `db:"id" json:"id"`
	ProgramHeadID int64     `db:"program_head_id" json:"program_head_id"`
	Username      string    `db:"username" json:"username"`
	Operation     string    `db:"operation" json:"operation"`
	Status        string    `db:"status" json:"status"`
	Attempts      int       `db:"attempts" json:"attempts"`
	LastError     *string   `db:"last_error" json:"last_error,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// MirrorOutboxFilter narrows outbox listings.
type MirrorOutboxFilter struct {
	Status string
	Limit  int
}
