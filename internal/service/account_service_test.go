package service

import (
	"context"
	"database/sql"
	"net/http"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/alumni-survey-api/internal/models"
	appErrors "github.com/noah-isme/alumni-survey-api/pkg/errors"
)

type fakeAlumniRepo struct {
	alumni    map[int64]*models.Alumni
	nextID    int64
	createErr error
}

func newFakeAlumniRepo() *fakeAlumniRepo {
	return &fakeAlumniRepo{alumni: map[int64]*models.Alumni{}, nextID: 1}
}

func (f *fakeAlumniRepo) List(ctx context.Context) ([]models.Alumni, error) {
	out := []models.Alumni{}
	for _, a := range f.alumni {
		out = append(out, *a)
	}
	return out, nil
}

func (f *fakeAlumniRepo) FindByID(ctx context.Context, id int64) (*models.Alumni, error) {
	a, ok := f.alumni[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *a
	return &clone, nil
}

func (f *fakeAlumniRepo) Create(ctx context.Context, alumni *models.Alumni) error {
	if f.createErr != nil {
		return f.createErr
	}
	alumni.ID = f.nextID
	f.nextID++
	clone := *alumni
	f.alumni[alumni.ID] = &clone
	return nil
}

func (f *fakeAlumniRepo) Update(ctx context.Context, alumni *models.Alumni) error {
	if _, ok := f.alumni[alumni.ID]; !ok {
		return sql.ErrNoRows
	}
	clone := *alumni
	f.alumni[alumni.ID] = &clone
	return nil
}

func (f *fakeAlumniRepo) UpdatePassword(ctx context.Context, id int64, password string) error {
	a, ok := f.alumni[id]
	if !ok {
		return sql.ErrNoRows
	}
	a.Password = password
	return nil
}

func (f *fakeAlumniRepo) RecordConsent(ctx context.Context, id int64, consented bool, at time.Time) error {
	a, ok := f.alumni[id]
	if !ok {
		return sql.ErrNoRows
	}
	if consented {
		a.ConsentedAt = &at
	} else {
		a.ConsentedAt = nil
	}
	return nil
}

func (f *fakeAlumniRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := f.alumni[id]; !ok {
		return sql.ErrNoRows
	}
	delete(f.alumni, id)
	return nil
}

func newAlumniServiceForTest(repo *fakeAlumniRepo) *AlumniService {
	svc := NewAlumniService(repo, nil, nil)
	svc.now = func() time.Time { return time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC) }
	return svc
}

func intPtr(v int) *int { return &v }

func TestAlumniCreateChecksGraduationYear(t *testing.T) {
	svc := newAlumniServiceForTest(newFakeAlumniRepo())
	req := CreateAlumniRequest{Username: "ana", Email: "ana@x.com", Password: "secret"}

	_, err := svc.Create(context.Background(), req)
	appErr := appErrors.FromError(err)
	assert.Equal(t, http.StatusBadRequest, appErr.Status)
	assert.Equal(t, "Year graduated is required", appErr.Message)

	req.YearGraduated = intPtr(2025)
	_, err = svc.Create(context.Background(), req)
	assert.Equal(t, "Year graduated must be between 1950 and 2024", appErrors.FromError(err).Message)

	req.YearGraduated = intPtr(1949)
	_, err = svc.Create(context.Background(), req)
	assert.Equal(t, http.StatusBadRequest, appErrors.FromError(err).Status)

	req.YearGraduated = intPtr(2024)
	created, err := svc.Create(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, int64(1), created.ID)
}

func TestAlumniCreateMapsDuplicateUsername(t *testing.T) {
	repo := newFakeAlumniRepo()
	repo.createErr = &pq.Error{Code: "23505", Constraint: "alumni_username_key"}
	svc := newAlumniServiceForTest(repo)

	_, err := svc.Create(context.Background(), CreateAlumniRequest{Username: "ana", Email: "ana@x.com", Password: "secret", YearGraduated: intPtr(2020)})
	appErr := appErrors.FromError(err)
	assert.Equal(t, http.StatusBadRequest, appErr.Status)
	assert.Contains(t, appErr.Details, "username")
}

func TestAlumniChangePassword(t *testing.T) {
	repo := newFakeAlumniRepo()
	svc := newAlumniServiceForTest(repo)
	created, err := svc.Create(context.Background(), CreateAlumniRequest{Username: "ana", Email: "ana@x.com", Password: "secret", YearGraduated: intPtr(2020)})
	require.NoError(t, err)

	err = svc.ChangePassword(context.Background(), created.ID, ChangePasswordRequest{CurrentPassword: "secret"})
	assert.Equal(t, "Missing current_password or new_password", appErrors.FromError(err).Message)

	err = svc.ChangePassword(context.Background(), created.ID, ChangePasswordRequest{CurrentPassword: "secret", NewPassword: "short"})
	assert.Equal(t, "New password must be at least 8 characters", appErrors.FromError(err).Message)

	err = svc.ChangePassword(context.Background(), created.ID, ChangePasswordRequest{CurrentPassword: "wrong", NewPassword: "longenough"})
	assert.Equal(t, "Current password is incorrect", appErrors.FromError(err).Message)

	err = svc.ChangePassword(context.Background(), 99, ChangePasswordRequest{CurrentPassword: "secret", NewPassword: "longenough"})
	assert.ErrorIs(t, err, appErrors.ErrNotFound)

	require.NoError(t, svc.ChangePassword(context.Background(), created.ID, ChangePasswordRequest{CurrentPassword: "secret", NewPassword: "longenough"}))
	assert.Equal(t, "longenough", repo.alumni[created.ID].Password)
}

func TestAlumniRecordConsent(t *testing.T) {
	repo := newFakeAlumniRepo()
	svc := newAlumniServiceForTest(repo)
	created, err := svc.Create(context.Background(), CreateAlumniRequest{Username: "ana", Email: "ana@x.com", Password: "secret", YearGraduated: intPtr(2020)})
	require.NoError(t, err)
	yes := true

	err = svc.RecordConsent(context.Background(), ConsentRequest{UserID: &created.ID})
	assert.Equal(t, "Missing user_id or consent", appErrors.FromError(err).Message)

	missing := int64(99)
	err = svc.RecordConsent(context.Background(), ConsentRequest{UserID: &missing, Consent: &yes})
	assert.ErrorIs(t, err, appErrors.ErrNotFound)

	require.NoError(t, svc.RecordConsent(context.Background(), ConsentRequest{UserID: &created.ID, Consent: &yes}))
	require.NotNil(t, repo.alumni[created.ID].ConsentedAt)
}

func TestAlumniUpdateAndDelete(t *testing.T) {
	repo := newFakeAlumniRepo()
	svc := newAlumniServiceForTest(repo)
	created, err := svc.Create(context.Background(), CreateAlumniRequest{Username: "ana", Email: "ana@x.com", Password: "secret", YearGraduated: intPtr(2020)})
	require.NoError(t, err)

	program := "BSCS"
	updated, err := svc.Update(context.Background(), created.ID, UpdateAlumniRequest{ProgramCourse: &program})
	require.NoError(t, err)
	assert.Equal(t, "BSCS", updated.ProgramCourse)
	assert.Equal(t, 2020, *updated.YearGraduated)

	bad := "nope"
	_, err = svc.Update(context.Background(), created.ID, UpdateAlumniRequest{Email: &bad})
	assert.Contains(t, appErrors.FromError(err).Details, "email")

	require.NoError(t, svc.Delete(context.Background(), created.ID))
	assert.ErrorIs(t, svc.Delete(context.Background(), created.ID), appErrors.ErrNotFound)
}
