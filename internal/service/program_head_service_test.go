package service

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/alumni-survey-api/internal/authz"
	"github.com/noah-isme/alumni-survey-api/internal/models"
	appErrors "github.com/noah-isme/alumni-survey-api/pkg/errors"
)

type fakeProgramHeadRepo struct {
	heads     map[int64]*models.ProgramHead
	nextID    int64
	createErr error
	outboxes  []*models.MirrorOutboxEntry
	deleted   []int64
}

func newFakeProgramHeadRepo() *fakeProgramHeadRepo {
	return &fakeProgramHeadRepo{heads: map[int64]*models.ProgramHead{}, nextID: 1}
}

func (f *fakeProgramHeadRepo) List(ctx context.Context) ([]models.ProgramHead, error) {
	out := make([]models.ProgramHead, 0, len(f.heads))
	for _, h := range f.heads {
		out = append(out, *h)
	}
	return out, nil
}

func (f *fakeProgramHeadRepo) FindByID(ctx context.Context, id int64) (*models.ProgramHead, error) {
	h, ok := f.heads[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *h
	return &clone, nil
}

func (f *fakeProgramHeadRepo) FindConflicts(ctx context.Context, username, email string, excludeID int64) ([]string, error) {
	var conflicts []string
	for id, h := range f.heads {
		if id == excludeID {
			continue
		}
		if h.Username == username {
			conflicts = append(conflicts, "username")
		}
		if h.Email == email {
			conflicts = append(conflicts, "email")
		}
	}
	return conflicts, nil
}

func (f *fakeProgramHeadRepo) Create(ctx context.Context, head *models.ProgramHead, outbox *models.MirrorOutboxEntry) error {
	if f.createErr != nil {
		return f.createErr
	}
	head.ID = f.nextID
	f.nextID++
	clone := *head
	f.heads[head.ID] = &clone
	if outbox != nil {
		outbox.ID = "outbox-1"
		outbox.ProgramHeadID = head.ID
		outbox.Username = head.Username
		outbox.Status = models.MirrorStatusPending
		f.outboxes = append(f.outboxes, outbox)
	}
	return nil
}

func (f *fakeProgramHeadRepo) Update(ctx context.Context, head *models.ProgramHead) error {
	if _, ok := f.heads[head.ID]; !ok {
		return sql.ErrNoRows
	}
	clone := *head
	f.heads[head.ID] = &clone
	return nil
}

func (f *fakeProgramHeadRepo) Delete(ctx context.Context, id int64, outbox *models.MirrorOutboxEntry) error {
	if _, ok := f.heads[id]; !ok {
		return sql.ErrNoRows
	}
	delete(f.heads, id)
	f.deleted = append(f.deleted, id)
	if outbox != nil {
		outbox.ID = "outbox-del"
		outbox.ProgramHeadID = id
		f.outboxes = append(f.outboxes, outbox)
	}
	return nil
}

type fakeLegacyMirror struct {
	enabled bool
	syncErr error
	created []*models.ProgramHead
	deleted []*models.MirrorOutboxEntry
}

func (m *fakeLegacyMirror) Enabled() bool { return m.enabled }

func (m *fakeLegacyMirror) SyncCreated(ctx context.Context, head *models.ProgramHead, entry *models.MirrorOutboxEntry) error {
	m.created = append(m.created, head)
	return m.syncErr
}

func (m *fakeLegacyMirror) SyncDeleted(ctx context.Context, entry *models.MirrorOutboxEntry) {
	m.deleted = append(m.deleted, entry)
}

func signupRequest(username, email string) CreateProgramHeadRequest {
	return CreateProgramHeadRequest{
		Username: username,
		Name:     "Maria",
		Surname:  "Santos",
		Email:    email,
		Faculty:  "Engineering",
		Program:  "BSCS",
		Password: "secret",
	}
}

func adminContext() *authz.Context {
	return &authz.Context{Identity: &authz.Identity{ID: 1, Username: "root", Role: authz.RoleAdmin}, TokenStatus: authz.TokenValid}
}

func programHeadContext() *authz.Context {
	return &authz.Context{ActingRole: "program head"}
}

func TestProgramHeadSignupDefaultsToPending(t *testing.T) {
	repo := newFakeProgramHeadRepo()
	mirror := &fakeLegacyMirror{enabled: true}
	svc := NewProgramHeadService(repo, mirror, nil, zap.NewNop())

	created, err := svc.Create(context.Background(), authz.Anonymous(), signupRequest("ph1", "ph1@x.com"))
	require.NoError(t, err)
	assert.Equal(t, models.ProgramHeadPending, created.Status)
	assert.Empty(t, created.LegacyInsertWarning)
	require.Len(t, repo.outboxes, 1)
	assert.Equal(t, models.MirrorOpUpsert, repo.outboxes[0].Operation)
	require.Len(t, mirror.created, 1)
}

func TestProgramHeadSignupIgnoresSelfApproval(t *testing.T) {
	svc := NewProgramHeadService(newFakeProgramHeadRepo(), &fakeLegacyMirror{}, nil, nil)
	req := signupRequest("ph1", "ph1@x.com")
	req.Status = models.ProgramHeadApproved

	created, err := svc.Create(context.Background(), &authz.Context{ActingRole: "admin"}, req)
	require.NoError(t, err)
	assert.Equal(t, models.ProgramHeadPending, created.Status)

	req = signupRequest("ph2", "ph2@x.com")
	req.Status = models.ProgramHeadApproved
	created, err = svc.Create(context.Background(), adminContext(), req)
	require.NoError(t, err)
	assert.Equal(t, models.ProgramHeadApproved, created.Status)
}

func TestProgramHeadSignupDuplicateReportsBothFields(t *testing.T) {
	repo := newFakeProgramHeadRepo()
	svc := NewProgramHeadService(repo, &fakeLegacyMirror{}, nil, nil)
	_, err := svc.Create(context.Background(), authz.Anonymous(), signupRequest("ph1", "ph1@x.com"))
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), authz.Anonymous(), signupRequest("ph1", "ph1@x.com"))
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, http.StatusBadRequest, appErr.Status)
	assert.Equal(t, "Username or email already exists.", appErr.Message)
	assert.Contains(t, appErr.Details, "username")
	assert.Contains(t, appErr.Details, "email")
}

func TestProgramHeadSignupRaceMapsUniqueViolation(t *testing.T) {
	repo := newFakeProgramHeadRepo()
	repo.createErr = &pq.Error{Code: "23505", Constraint: "program_heads_email_key"}
	svc := NewProgramHeadService(repo, &fakeLegacyMirror{}, nil, nil)

	_, err := svc.Create(context.Background(), authz.Anonymous(), signupRequest("ph1", "ph1@x.com"))
	appErr := appErrors.FromError(err)
	assert.Equal(t, http.StatusBadRequest, appErr.Status)
	assert.Contains(t, appErr.Details, "email")
}

func TestProgramHeadSignupStoreFailureIsInternal(t *testing.T) {
	repo := newFakeProgramHeadRepo()
	repo.createErr = errors.New("connection reset")
	svc := NewProgramHeadService(repo, &fakeLegacyMirror{}, nil, nil)

	_, err := svc.Create(context.Background(), authz.Anonymous(), signupRequest("ph1", "ph1@x.com"))
	assert.Equal(t, http.StatusInternalServerError, appErrors.FromError(err).Status)
}

func TestProgramHeadSignupMirrorFailureOnlyWarns(t *testing.T) {
	repo := newFakeProgramHeadRepo()
	mirror := &fakeLegacyMirror{enabled: true, syncErr: errors.New("permission denied for table users_programhead")}
	svc := NewProgramHeadService(repo, mirror, nil, nil)

	created, err := svc.Create(context.Background(), authz.Anonymous(), signupRequest("ph1", "ph1@x.com"))
	require.NoError(t, err)
	assert.Equal(t, legacyInsertWarning, created.LegacyInsertWarning)
	assert.Len(t, repo.heads, 1)
}

func TestProgramHeadSignupValidation(t *testing.T) {
	svc := NewProgramHeadService(newFakeProgramHeadRepo(), &fakeLegacyMirror{}, nil, nil)
	req := signupRequest("ph1", "not-an-email")
	req.Name = ""

	_, err := svc.Create(context.Background(), authz.Anonymous(), req)
	appErr := appErrors.FromError(err)
	assert.Equal(t, http.StatusBadRequest, appErr.Status)
	assert.Contains(t, appErr.Details, "email")
	assert.Contains(t, appErr.Details, "name")
}

func TestProgramHeadStatusModeration(t *testing.T) {
	repo := newFakeProgramHeadRepo()
	svc := NewProgramHeadService(repo, &fakeLegacyMirror{}, nil, nil)
	created, err := svc.Create(context.Background(), authz.Anonymous(), signupRequest("ph1", "ph1@x.com"))
	require.NoError(t, err)

	approved := models.ProgramHeadApproved
	head, err := svc.Update(context.Background(), created.ID, UpdateProgramHeadRequest{Status: &approved})
	require.NoError(t, err)
	assert.Equal(t, models.ProgramHeadApproved, head.Status)

	// Program head updates carry no field restriction.
	pending := models.ProgramHeadPending
	head, err = svc.Update(context.Background(), created.ID, UpdateProgramHeadRequest{Status: &pending})
	require.NoError(t, err)
	assert.Equal(t, models.ProgramHeadPending, repo.heads[created.ID].Status)

	bogus := "archived"
	_, err = svc.Update(context.Background(), created.ID, UpdateProgramHeadRequest{Status: &bogus})
	assert.Equal(t, http.StatusBadRequest, appErrors.FromError(err).Status)
	assert.Equal(t, models.ProgramHeadPending, head.Status)
}

func TestProgramHeadUpdateRejectsTakenEmail(t *testing.T) {
	repo := newFakeProgramHeadRepo()
	svc := NewProgramHeadService(repo, &fakeLegacyMirror{}, nil, nil)
	first, err := svc.Create(context.Background(), authz.Anonymous(), signupRequest("ph1", "ph1@x.com"))
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), authz.Anonymous(), signupRequest("ph2", "ph2@x.com"))
	require.NoError(t, err)

	taken := "ph2@x.com"
	_, err = svc.Update(context.Background(), first.ID, UpdateProgramHeadRequest{Email: &taken})
	appErr := appErrors.FromError(err)
	assert.Equal(t, http.StatusBadRequest, appErr.Status)
	assert.Contains(t, appErr.Details, "email")
}

func TestProgramHeadDeleteGuardAndMirror(t *testing.T) {
	repo := newFakeProgramHeadRepo()
	mirror := &fakeLegacyMirror{enabled: true}
	svc := NewProgramHeadService(repo, mirror, nil, nil)
	created, err := svc.Create(context.Background(), authz.Anonymous(), signupRequest("ph1", "ph1@x.com"))
	require.NoError(t, err)

	err = svc.Delete(context.Background(), programHeadContext(), created.ID)
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
	assert.Len(t, repo.heads, 1)

	require.NoError(t, svc.Delete(context.Background(), adminContext(), created.ID))
	assert.Empty(t, repo.heads)
	require.Len(t, mirror.deleted, 1)
	assert.Equal(t, "ph1", mirror.deleted[0].Username)
	assert.Equal(t, models.MirrorOpDelete, mirror.deleted[0].Operation)

	err = svc.Delete(context.Background(), adminContext(), created.ID)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}
