package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/alumni-survey-api/internal/models"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxdb := sqlx.NewDb(db, "sqlmock")
	return sqlxdb, mock, func() {
		db.Close()
	}
}

func TestProgramHeadCreateWritesOutboxInSameTransaction(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewProgramHeadRepository(db, zap.NewNop())

	now := time.Now()
	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO program_heads").
		WithArgs("jdoe", "John", "Doe", "Q", "male", "0917", "jdoe@example.com", "Engineering", "BSCS", "pending", "secret123").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(7), now))
	mock.ExpectExec("INSERT INTO mirror_outbox").
		WithArgs(sqlmock.AnyArg(), int64(7), "jdoe", models.MirrorOpUpsert, models.MirrorStatusPending, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	head := &models.ProgramHead{
		Username: "jdoe", Name: "John", Surname: "Doe", MI: "Q", Gender: "male", Contact: "0917",
		Email: "jdoe@example.com", Faculty: "Engineering", Program: "BSCS", Status: "pending", Password: "secret123",
	}
	outbox := &models.MirrorOutboxEntry{Operation: models.MirrorOpUpsert}
	require.NoError(t, repo.Create(context.Background(), head, outbox))

	assert.Equal(t, int64(7), head.ID)
	assert.Equal(t, int64(7), outbox.ProgramHeadID)
	assert.Equal(t, "jdoe", outbox.Username)
	assert.NotEmpty(t, outbox.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProgramHeadCreateRollsBackWhenOutboxFails(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewProgramHeadRepository(db, zap.NewNop())

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO program_heads").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(3), time.Now()))
	mock.ExpectExec("INSERT INTO mirror_outbox").WillReturnError(sql.ErrConnDone)
	mock.ExpectRollback()

	err := repo.Create(context.Background(), &models.ProgramHead{Username: "x"}, &models.MirrorOutboxEntry{Operation: models.MirrorOpUpsert})
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProgramHeadDeleteFallsBackWhenProgramsTableMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewProgramHeadRepository(db, zap.NewNop())

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE programs SET program_head_id = NULL").
		WithArgs(int64(9)).
		WillReturnError(&pq.Error{Code: "42P01", Message: `relation "programs" does not exist`})
	mock.ExpectRollback()
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM program_heads WHERE id = $1")).
		WithArgs(int64(9)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO mirror_outbox").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	outbox := &models.MirrorOutboxEntry{Operation: models.MirrorOpDelete, Username: "jdoe"}
	require.NoError(t, repo.Delete(context.Background(), 9, outbox))
	assert.Equal(t, int64(9), outbox.ProgramHeadID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProgramHeadDeleteMissingRow(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewProgramHeadRepository(db, zap.NewNop())

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE programs").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DELETE FROM program_heads").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.Delete(context.Background(), 42, nil)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProgramHeadFindConflicts(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewProgramHeadRepository(db, zap.NewNop())

	mock.ExpectQuery("FROM program_heads WHERE \\(username = \\$1 OR email = \\$2\\) AND id <> \\$3").
		WithArgs("jdoe", "jdoe@example.com", int64(0)).
		WillReturnRows(sqlmock.NewRows([]string{"username_taken", "email_taken"}).
			AddRow(true, false).
			AddRow(false, true))

	fields, err := repo.FindConflicts(context.Background(), "jdoe", "jdoe@example.com", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"username", "email"}, fields)
	assert.NoError(t, mock.ExpectationsWereMet())
}
