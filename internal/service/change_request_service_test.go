package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/alumni-survey-api/internal/authz"
	"github.com/noah-isme/alumni-survey-api/internal/models"
	appErrors "github.com/noah-isme/alumni-survey-api/pkg/errors"
)

type fakeChangeRequestRepo struct {
	requests map[int64]*models.SurveyChangeRequest
	nextID   int64
}

func newFakeChangeRequestRepo() *fakeChangeRequestRepo {
	return &fakeChangeRequestRepo{requests: map[int64]*models.SurveyChangeRequest{}, nextID: 1}
}

func (f *fakeChangeRequestRepo) List(ctx context.Context) ([]models.SurveyChangeRequest, error) {
	out := []models.SurveyChangeRequest{}
	for _, r := range f.requests {
		out = append(out, *r)
	}
	return out, nil
}

func (f *fakeChangeRequestRepo) FindByID(ctx context.Context, id int64) (*models.SurveyChangeRequest, error) {
	r, ok := f.requests[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *r
	return &clone, nil
}

func (f *fakeChangeRequestRepo) Create(ctx context.Context, request *models.SurveyChangeRequest) error {
	request.ID = f.nextID
	f.nextID++
	clone := *request
	f.requests[request.ID] = &clone
	return nil
}

func (f *fakeChangeRequestRepo) UpdateStatus(ctx context.Context, id int64, status string) error {
	r, ok := f.requests[id]
	if !ok {
		return sql.ErrNoRows
	}
	r.Status = status
	return nil
}

func decodeChangeRequest(t *testing.T, raw string) ChangeRequestInput {
	t.Helper()
	var in ChangeRequestInput
	require.NoError(t, json.Unmarshal([]byte(raw), &in))
	return in
}

func TestChangeRequestAttribution(t *testing.T) {
	svc := NewChangeRequestService(newFakeChangeRequestRepo(), nil)
	ctx := context.Background()

	req, err := svc.Create(ctx, alumniToken(7), decodeChangeRequest(t, `{"alumni": 5, "message": "fix my name"}`))
	require.NoError(t, err)
	assert.Equal(t, int64(7), *req.AlumniID)
	assert.Equal(t, models.ChangeRequestPending, req.Status)

	_, err = svc.Create(ctx, authz.Anonymous(), decodeChangeRequest(t, `{"alumni": 5, "message": "fix my name"}`))
	assert.ErrorIs(t, err, appErrors.ErrForbidden)

	req, err = svc.Create(ctx, adminContext(), decodeChangeRequest(t, `{"alumni": "5", "message": "fix their name"}`))
	require.NoError(t, err)
	assert.Equal(t, int64(5), *req.AlumniID)

	req, err = svc.Create(ctx, authz.Anonymous(), decodeChangeRequest(t, `{"message": "general feedback"}`))
	require.NoError(t, err)
	assert.Nil(t, req.AlumniID)
}

func TestChangeRequestValidation(t *testing.T) {
	svc := NewChangeRequestService(newFakeChangeRequestRepo(), nil)

	_, err := svc.Create(context.Background(), alumniToken(7), decodeChangeRequest(t, `{"message": "  "}`))
	appErr := appErrors.FromError(err)
	assert.Equal(t, http.StatusBadRequest, appErr.Status)
	assert.Contains(t, appErr.Details, "message")

	_, err = svc.Create(context.Background(), adminContext(), decodeChangeRequest(t, `{"alumni": "abc", "message": "x"}`))
	assert.Contains(t, appErrors.FromError(err).Details, "alumni")
}

func TestChangeRequestStatusIsAdminOnly(t *testing.T) {
	repo := newFakeChangeRequestRepo()
	svc := NewChangeRequestService(repo, nil)
	created, err := svc.Create(context.Background(), alumniToken(7), decodeChangeRequest(t, `{"message": "fix my name"}`))
	require.NoError(t, err)

	_, err = svc.UpdateStatus(context.Background(), alumniToken(7), created.ID, ChangeRequestStatusInput{Status: "actioned"})
	assert.ErrorIs(t, err, appErrors.ErrForbidden)

	_, err = svc.UpdateStatus(context.Background(), adminContext(), created.ID, ChangeRequestStatusInput{Status: "closed"})
	assert.Contains(t, appErrors.FromError(err).Details, "status")

	updated, err := svc.UpdateStatus(context.Background(), adminContext(), created.ID, ChangeRequestStatusInput{Status: " Reviewed "})
	require.NoError(t, err)
	assert.Equal(t, models.ChangeRequestReviewed, updated.Status)

	_, err = svc.UpdateStatus(context.Background(), adminContext(), 99, ChangeRequestStatusInput{Status: "actioned"})
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}
