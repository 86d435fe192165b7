package models

import "time"

// Program head approval states.
const (
	ProgramHeadPending  = "pending"
	ProgramHeadApproved = "approved"
	ProgramHeadRejected = "rejected"
)

// Admin is a staff account.
type Admin struct {
	ID        int64     `db:"id" json:"id"`
	Username  string    `db:"username" json:"username"`
	Email     string    `db:"email" json:"email"`
	Password  string    `db:"password" json:"-"`
	FullName  string    `db:"full_name" json:"full_name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Alumni is a graduate account.
type Alumni struct {
	ID            int64      `db:"id" json:"id"`
	Username      string     `db:"username" json:"username"`
	Email         string     `db:"email" json:"email"`
	Password      string     `db:"password" json:"-"`
	FullName      string     `db:"full_name" json:"full_name"`
	ProgramCourse string     `db:"program_course" json:"program_course"`
	YearGraduated *int       `db:"year_graduated" json:"year_graduated"`
	ConsentedAt   *time.Time `db:"consented_at" json:"consented_at,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
}

// ProgramHead is a faculty account that signs up pending admin approval.
type ProgramHead struct {
	ID        int64     `db:"id" json:"id"`
	Username  string    `db:"username" json:"username"`
	Name      string    `db:"name" json:"name"`
	Surname   string    `db:"surname" json:"surname"`
	MI        string    `db:"mi" json:"mi"`
	Gender    string    `db:"gender" json:"gender"`
	Contact   string    `db:"contact" json:"contact"`
	Email     string    `db:"email" json:"email"`
	Faculty   string    `db:"faculty" json:"faculty"`
	Program   string    `db:"program" json:"program"`
	Status    string    `db:"status" json:"status"`
	Password  string    `db:"password" json:"-"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// ValidProgramHeadStatus reports whether status is a known approval state.
func ValidProgramHeadStatus(status string) bool {
	switch status {
	case ProgramHeadPending, ProgramHeadApproved, ProgramHeadRejected:
		return true
	}
	return false
}

// Program is an academic program optionally owned by a program head.
type Program struct {
	ID              int64     `db:"id" json:"id"`
	ProgramName     string    `db:"program_name" json:"program_name"`
	ProgramHeadID   *int64    `db:"program_head_id" json:"program_head"`
	Faculty         string    `db:"faculty" json:"faculty"`
	Status          string    `db:"status" json:"status"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
	ProgramHeadName *string   `db:"program_head_name" json:"program_head_name"`
}
