package service

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/alumni-survey-api/internal/models"
	"github.com/noah-isme/alumni-survey-api/internal/repository"
	"github.com/noah-isme/alumni-survey-api/pkg/jobs"
	applog "github.com/noah-isme/alumni-survey-api/pkg/logger"
)

const (
	mirrorReconcileBatch = 100

	mirrorResultSuccess   = "success"
	mirrorResultFailure   = "failure"
	mirrorResultExhausted = "exhausted"
)

// mirrorCandidateColumns are copied into users_programhead when the column exists there.
var mirrorCandidateColumns = []string{"username", "name", "surname", "mi", "gender", "contact", "email", "faculty", "program", "status", "password", "created_at"}

var mirrorMinimalColumns = []string{"username", "email", "password"}

type mirrorRepository interface {
	ListOutbox(ctx context.Context, filter models.MirrorOutboxFilter) ([]models.MirrorOutboxEntry, error)
	FindOutbox(ctx context.Context, id string) (*models.MirrorOutboxEntry, error)
	ListPending(ctx context.Context, cutoff time.Time, limit int) ([]models.MirrorOutboxEntry, error)
	MarkDone(ctx context.Context, id string) error
	RecordFailure(ctx context.Context, id, lastError string, final bool) error
	EnsureMirrorTable(ctx context.Context) error
	MirrorColumns(ctx context.Context) (map[string]bool, error)
	MirrorRowExists(ctx context.Context, username string) (bool, error)
	InsertMirrorRow(ctx context.Context, columns []string, values []interface{}) error
	DeleteMirrorRow(ctx context.Context, username string, id int64) error
}

type programHeadFinder interface {
	FindByID(ctx context.Context, id int64) (*models.ProgramHead, error)
}

// MirrorConfig tunes the legacy mirror synchronizer.
type MirrorConfig struct {
	Enabled           bool
	Workers           int
	MaxRetries        int
	RetryDelay        time.Duration
	ReconcileInterval time.Duration
}

// MirrorService keeps the legacy users_programhead table in step with program
// heads. Every change is recorded in the outbox together with the primary write,
// applied right after commit and retried in the background until it succeeds or
// runs out of attempts. The mirror never decides the outcome of a request.
type MirrorService struct {
	repo    mirrorRepository
	heads   programHeadFinder
	metrics *MetricsService
	logger  *zap.Logger
	cfg     MirrorConfig
	queue   *jobs.Queue
	now     func() time.Time

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewMirrorService constructs the synchronizer. Call Start to run background retries.
func NewMirrorService(repo mirrorRepository, heads programHeadFinder, metrics *MetricsService, cfg MirrorConfig, logger *zap.Logger) *MirrorService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 5 * time.Second
	}
	if cfg.ReconcileInterval <= 0 {
		cfg.ReconcileInterval = 5 * time.Minute
	}
	s := &MirrorService{repo: repo, heads: heads, metrics: metrics, logger: logger, cfg: cfg, now: time.Now}
	s.queue = jobs.NewQueue("legacy-mirror", s.handleJob, jobs.QueueConfig{
		Workers:     cfg.Workers,
		MaxRetries:  cfg.MaxRetries,
		RetryDelay:  cfg.RetryDelay,
		Logger:      logger,
		OnExhausted: s.onExhausted,
	})
	return s
}

// Enabled reports whether program head changes should be mirrored.
func (s *MirrorService) Enabled() bool {
	return s != nil && s.cfg.Enabled
}

// Start runs the retry workers and the reconciliation ticker until Stop or ctx ends.
func (s *MirrorService) Start(ctx context.Context) {
	if !s.Enabled() {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.queue.Start(runCtx)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.reconcileLoop(runCtx)
	}()
}

// Stop halts the ticker and drains the workers.
func (s *MirrorService) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	s.wg.Wait()
	s.queue.Stop()
}

func (s *MirrorService) reconcileLoop(ctx context.Context) {
	if _, err := s.Reconcile(ctx); err != nil {
		s.logger.Warn("initial mirror reconciliation failed", zap.Error(err))
	}

	ticker := time.NewTicker(s.cfg.ReconcileInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.Reconcile(ctx); err != nil {
				s.logger.Warn("mirror reconciliation failed", zap.Error(err))
			}
		}
	}
}

// Reconcile enqueues pending outbox entries that have not been touched for a
// retry delay. It returns how many entries were newly queued.
func (s *MirrorService) Reconcile(ctx context.Context) (int, error) {
	entries, err := s.repo.ListPending(ctx, s.now().UTC().Add(-s.cfg.RetryDelay), mirrorReconcileBatch)
	if err != nil {
		return 0, err
	}
	queued := 0
	for i := range entries {
		if s.enqueue(entries[i].ID, entries[i].Operation) {
			queued++
		}
	}
	if queued > 0 {
		s.logger.Info("queued pending mirror entries", zap.Int("count", queued))
	}
	return queued, nil
}

// SyncCreated mirrors a freshly committed program head. On failure the entry is
// left pending for background retry and the error is returned so the caller can
// surface a warning.
func (s *MirrorService) SyncCreated(ctx context.Context, head *models.ProgramHead, entry *models.MirrorOutboxEntry) error {
	if !s.Enabled() || entry == nil {
		return nil
	}
	err := s.applyUpsert(ctx, head)
	s.settleInline(ctx, entry, err)
	return err
}

// SyncDeleted removes the mirror row of a deleted program head. Failures are
// logged and left to background retry.
func (s *MirrorService) SyncDeleted(ctx context.Context, entry *models.MirrorOutboxEntry) {
	if !s.Enabled() || entry == nil {
		return
	}
	s.settleInline(ctx, entry, s.applyDelete(ctx, entry))
}

func (s *MirrorService) settleInline(ctx context.Context, entry *models.MirrorOutboxEntry, syncErr error) {
	logger := applog.FromContext(s.logger, ctx).With(zap.String("outbox_id", entry.ID), zap.String("operation", entry.Operation), zap.String("username", entry.Username))
	if syncErr == nil {
		s.metrics.RecordMirrorSync(entry.Operation, mirrorResultSuccess)
		if err := s.repo.MarkDone(ctx, entry.ID); err != nil {
			logger.Warn("failed to mark mirror entry done", zap.Error(err))
		}
		return
	}

	s.metrics.RecordMirrorSync(entry.Operation, mirrorResultFailure)
	logger.Warn("legacy mirror sync failed, scheduling retry", zap.Error(syncErr))
	if err := s.repo.RecordFailure(ctx, entry.ID, syncErr.Error(), false); err != nil {
		logger.Warn("failed to record mirror failure", zap.Error(err))
	}
	s.enqueue(entry.ID, entry.Operation)
}

func (s *MirrorService) enqueue(id, operation string) bool {
	queued, err := s.queue.Enqueue(jobs.Job{ID: id, Type: operation, Key: id, Payload: id})
	if err != nil {
		s.logger.Debug("mirror retry not queued", zap.String("outbox_id", id), zap.Error(err))
		return false
	}
	s.metrics.SetMirrorPending(s.queue.Pending())
	return queued
}

func (s *MirrorService) handleJob(ctx context.Context, job jobs.Job) error {
	defer s.metrics.SetMirrorPending(s.queue.Pending())

	id, _ := job.Payload.(string)
	entry, err := s.repo.FindOutbox(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		return err
	}
	if entry.Status != models.MirrorStatusPending {
		return nil
	}

	if err := s.Process(ctx, entry); err != nil {
		final := job.Attempt >= s.cfg.MaxRetries
		if recErr := s.repo.RecordFailure(ctx, entry.ID, err.Error(), final); recErr != nil {
			s.logger.Warn("failed to record mirror failure", zap.String("outbox_id", entry.ID), zap.Error(recErr))
		}
		s.metrics.RecordMirrorSync(entry.Operation, mirrorResultFailure)
		return err
	}
	s.metrics.RecordMirrorSync(entry.Operation, mirrorResultSuccess)
	return nil
}

func (s *MirrorService) onExhausted(job jobs.Job, err error) {
	s.metrics.RecordMirrorSync(job.Type, mirrorResultExhausted)
	s.logger.Error("legacy mirror entry failed permanently", zap.String("outbox_id", job.ID), zap.Int("attempts", job.Attempt), zap.Error(err))
}

// Process applies one outbox entry to the mirror table and marks it done.
func (s *MirrorService) Process(ctx context.Context, entry *models.MirrorOutboxEntry) error {
	var err error
	switch entry.Operation {
	case models.MirrorOpUpsert:
		var head *models.ProgramHead
		head, err = s.heads.FindByID(ctx, entry.ProgramHeadID)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			// Deleted before the mirror caught up; the delete entry cleans up.
			err = nil
		case err == nil:
			err = s.applyUpsert(ctx, head)
		}
	case models.MirrorOpDelete:
		err = s.applyDelete(ctx, entry)
	default:
		s.logger.Warn("unknown mirror operation", zap.String("outbox_id", entry.ID), zap.String("operation", entry.Operation))
	}
	if err != nil {
		return err
	}
	return s.repo.MarkDone(ctx, entry.ID)
}

func (s *MirrorService) applyUpsert(ctx context.Context, head *models.ProgramHead) error {
	if err := s.repo.EnsureMirrorTable(ctx); err != nil {
		return err
	}
	available, err := s.repo.MirrorColumns(ctx)
	if err != nil {
		return err
	}
	exists, err := s.repo.MirrorRowExists(ctx, head.Username)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	columns, values := mirrorRow(head, available, s.now().UTC())
	return s.repo.InsertMirrorRow(ctx, columns, values)
}

func (s *MirrorService) applyDelete(ctx context.Context, entry *models.MirrorOutboxEntry) error {
	err := s.repo.DeleteMirrorRow(ctx, entry.Username, entry.ProgramHeadID)
	if err != nil && repository.IsUndefinedTable(err) {
		return nil
	}
	return err
}

// mirrorRow picks the candidate columns present in the mirror table, falling
// back to the minimal credential columns when none match.
func mirrorRow(head *models.ProgramHead, available map[string]bool, now time.Time) ([]string, []interface{}) {
	var columns []string
	for _, column := range mirrorCandidateColumns {
		if available[column] {
			columns = append(columns, column)
		}
	}
	if len(columns) == 0 {
		columns = mirrorMinimalColumns
	}

	values := make([]interface{}, len(columns))
	for i, column := range columns {
		values[i] = mirrorValue(head, column, now)
	}
	return columns, values
}

func mirrorValue(head *models.ProgramHead, column string, now time.Time) interface{} {
	switch column {
	case "username":
		return head.Username
	case "name":
		return head.Name
	case "surname":
		return head.Surname
	case "mi":
		return head.MI
	case "gender":
		return head.Gender
	case "contact":
		return head.Contact
	case "email":
		return head.Email
	case "faculty":
		return head.Faculty
	case "program":
		return head.Program
	case "status":
		return head.Status
	case "password":
		return head.Password
	case "created_at":
		return now
	}
	return nil
}

// ListOutbox exposes outbox entries for operators.
func (s *MirrorService) ListOutbox(ctx context.Context, filter models.MirrorOutboxFilter) ([]models.MirrorOutboxEntry, error) {
	entries, err := s.repo.ListOutbox(ctx, filter)
	if err != nil {
		return nil, internalError(err, "failed to list mirror outbox")
	}
	return entries, nil
}
