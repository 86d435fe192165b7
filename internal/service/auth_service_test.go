package service

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/alumni-survey-api/internal/authz"
	"github.com/noah-isme/alumni-survey-api/internal/models"
	appErrors "github.com/noah-isme/alumni-survey-api/pkg/errors"
)

type stubAdminLookup struct {
	admins map[string]*models.Admin
	err    error
}

func (s stubAdminLookup) FindByUsername(ctx context.Context, username string) (*models.Admin, error) {
	if s.err != nil {
		return nil, s.err
	}
	if a, ok := s.admins[username]; ok {
		return a, nil
	}
	return nil, sql.ErrNoRows
}

type stubAlumniLookup struct {
	alumni map[string]*models.Alumni
}

func (s stubAlumniLookup) FindByUsername(ctx context.Context, username string) (*models.Alumni, error) {
	if a, ok := s.alumni[username]; ok {
		return a, nil
	}
	return nil, sql.ErrNoRows
}

type stubProgramHeadLookup struct {
	heads map[string]*models.ProgramHead
}

func (s stubProgramHeadLookup) FindByUsername(ctx context.Context, username string) (*models.ProgramHead, error) {
	if h, ok := s.heads[username]; ok {
		return h, nil
	}
	return nil, sql.ErrNoRows
}

func newAuthServiceForTest(t *testing.T) (*AuthService, *TokenService) {
	t.Helper()
	tokens, err := NewTokenService(TokenConfig{Secret: "test-secret"})
	require.NoError(t, err)

	consented := time.Now()
	svc := NewAuthService(
		stubAdminLookup{admins: map[string]*models.Admin{"root": {ID: 1, Username: "root", Password: "rootpass"}}},
		stubAlumniLookup{alumni: map[string]*models.Alumni{
			"ana": {ID: 5, Username: "ana", Password: "secret"},
			"ben": {ID: 7, Username: "ben", Password: "secret", ConsentedAt: &consented},
		}},
		stubProgramHeadLookup{heads: map[string]*models.ProgramHead{"ph1": {ID: 3, Username: "ph1", Password: "phpass", Status: models.ProgramHeadPending}}},
		tokens,
		zap.NewNop(),
	)
	return svc, tokens
}

func TestAuthServiceLoginAlumni(t *testing.T) {
	svc, tokens := newAuthServiceForTest(t)

	resp, err := svc.Login(context.Background(), LoginRequest{Username: "ana", Password: "secret", UserType: "alumni"})
	require.NoError(t, err)
	assert.Equal(t, int64(5), resp.ID)
	assert.Equal(t, "alumni", resp.UserType)
	assert.True(t, resp.FirstLogin)
	assert.Nil(t, resp.Status)
	assert.NotEmpty(t, resp.Token)
	assert.Greater(t, resp.TokenExpiresAt, time.Now().Unix())

	identity, status := tokens.Validate(resp.Token)
	require.Equal(t, authz.TokenValid, status)
	assert.Equal(t, authz.RoleAlumni, identity.Role)
}

func TestAuthServiceLoginAfterConsentIsNotFirstLogin(t *testing.T) {
	svc, _ := newAuthServiceForTest(t)

	resp, err := svc.Login(context.Background(), LoginRequest{Username: "ben", Password: "secret", UserType: "alumni"})
	require.NoError(t, err)
	assert.False(t, resp.FirstLogin)
}

func TestAuthServiceLoginProgramHeadReportsStatus(t *testing.T) {
	svc, tokens := newAuthServiceForTest(t)

	resp, err := svc.Login(context.Background(), LoginRequest{Username: "ph1", Password: "phpass", UserType: "programhead"})
	require.NoError(t, err)
	require.NotNil(t, resp.Status)
	assert.Equal(t, models.ProgramHeadPending, *resp.Status)
	assert.Equal(t, "programhead", resp.UserType)

	identity, status := tokens.Validate(resp.Token)
	require.Equal(t, authz.TokenValid, status)
	assert.Equal(t, authz.RoleProgramHead, identity.Role)
	assert.Equal(t, "programhead", identity.UserType)

	validation, err := svc.ValidateToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, resp.UserType, validation.Payload.UserType)
}

func TestAuthServiceLoginFailures(t *testing.T) {
	svc, _ := newAuthServiceForTest(t)

	_, err := svc.Login(context.Background(), LoginRequest{Username: "root", Password: "rootpass", UserType: "teacher"})
	assert.Equal(t, http.StatusBadRequest, appErrors.FromError(err).Status)

	_, err = svc.Login(context.Background(), LoginRequest{Username: "root", Password: "wrong", UserType: "admin"})
	assert.ErrorIs(t, err, appErrors.ErrInvalidCredentials)

	_, err = svc.Login(context.Background(), LoginRequest{Username: "nobody", Password: "x", UserType: "admin"})
	assert.ErrorIs(t, err, appErrors.ErrInvalidCredentials)
}

func TestAuthServiceLoginLookupErrorIsInternal(t *testing.T) {
	tokens, err := NewTokenService(TokenConfig{Secret: "test-secret"})
	require.NoError(t, err)
	svc := NewAuthService(stubAdminLookup{err: errors.New("db down")}, stubAlumniLookup{}, stubProgramHeadLookup{}, tokens, nil)

	_, err = svc.Login(context.Background(), LoginRequest{Username: "root", Password: "rootpass", UserType: "admin"})
	assert.Equal(t, http.StatusInternalServerError, appErrors.FromError(err).Status)
}

func TestAuthServiceValidateToken(t *testing.T) {
	svc, tokens := newAuthServiceForTest(t)
	token, _, err := tokens.Issue(1, "root", "admin")
	require.NoError(t, err)

	result, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.True(t, result.Valid)
	assert.Equal(t, int64(1), result.Payload.ID)

	result, err = svc.ValidateToken(token + "x")
	require.NoError(t, err)
	assert.False(t, result.Valid)
	assert.Equal(t, "invalid", result.Reason)

	_, err = svc.ValidateToken("")
	appErr := appErrors.FromError(err)
	assert.Equal(t, http.StatusBadRequest, appErr.Status)
	assert.Equal(t, "missing_token", appErr.Details["reason"])
}
