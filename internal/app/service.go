// Package app is the service layer: it owns transactions, per-case locks,
// metrics and logging around the engine.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"gestor/internal/domain"
	"gestor/internal/engine"
	"gestor/internal/locks"
	"gestor/internal/logging"
	"gestor/internal/metrics"
	"gestor/internal/templates"
)

type Service struct {
	DB      *sql.DB
	Engine  engine.Engine
	Locker  locks.Locker
	LockTTL time.Duration
	Metrics *metrics.Metrics
	Log     *log.Logger
}

// NewService wires a service with an in-process locker, fresh metrics and a
// silent logger. Callers replace the fields they care about.
func NewService(db *sql.DB) *Service {
	return &Service{
		DB:      db,
		Engine:  engine.New(),
		Locker:  locks.NewLocal(),
		LockTTL: 10 * time.Second,
		Metrics: metrics.New(),
		Log:     logging.Discard(),
	}
}

func (s *Service) now() time.Time {
	if s.Engine.Now != nil {
		return s.Engine.Now().UTC()
	}
	return time.Now().UTC()
}

// withTx runs fn in one transaction, committing only if fn succeeds.
func (s *Service) withTx(ctx context.Context, op string, fn func(tx *sql.Tx) error) error {
	start := time.Now()
	defer func() {
		s.Metrics.TxDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	}()
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin %s: %w", op, err)
	}
	defer tx.Rollback()
	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit %s: %w", op, err)
	}
	return nil
}

func (s *Service) lockCase(ctx context.Context, caseID int64) (locks.UnlockFunc, error) {
	if s.Locker == nil {
		return locks.Noop{}.Lock(ctx, "", 0)
	}
	return s.Locker.Lock(ctx, "case:"+strconv.FormatInt(caseID, 10), s.LockTTL)
}

func (s *Service) ApplyTransition(ctx context.Context, req engine.TransitionRequest) (engine.TransitionResult, error) {
	unlock, err := s.lockCase(ctx, req.CaseID)
	if err != nil {
		return engine.TransitionResult{}, err
	}
	defer s.release(unlock, req.CaseID)

	var res engine.TransitionResult
	err = s.withTx(ctx, "transition", func(tx *sql.Tx) error {
		var err error
		res, err = s.Engine.ApplyTransition(ctx, tx, req)
		return err
	})
	s.observeTransition(req, res, err)
	if err != nil {
		return engine.TransitionResult{}, err
	}
	return res, nil
}

func (s *Service) observeTransition(req engine.TransitionRequest, res engine.TransitionResult, err error) {
	outcome := Outcome(err)
	s.Metrics.Transitions.WithLabelValues(strconv.FormatInt(req.TargetStateID, 10), outcome).Inc()
	if err != nil {
		s.Log.Warn("transition rejected", "case_id", req.CaseID, "to", req.TargetStateID, "outcome", outcome, "err", err)
		return
	}
	from := "none"
	if res.From != nil {
		from = strconv.FormatInt(*res.From, 10)
	}
	s.Log.Info("transition applied", "case_id", req.CaseID, "from", from, "to", req.TargetStateID, "event_id", res.Event.ID)
}

func (s *Service) release(unlock locks.UnlockFunc, caseID int64) {
	// the request context may already be cancelled
	if err := unlock(context.Background()); err != nil {
		s.Log.Error("release case lock", "case_id", caseID, "err", err)
	}
}

// Outcome maps an engine error to its metrics label.
func Outcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeApplied
	case errors.Is(err, domain.ErrInvalidTransition):
		return metrics.OutcomeInvalid
	case errors.Is(err, domain.ErrCommentRequired):
		return metrics.OutcomeCommentRequired
	case errors.Is(err, domain.ErrNotFound):
		return metrics.OutcomeNotFound
	case errors.Is(err, domain.ErrConcurrentTransition):
		return metrics.OutcomeConflict
	default:
		return metrics.OutcomeError
	}
}

func (s *Service) RecordComment(ctx context.Context, req engine.CommentRequest) (domain.Event, error) {
	var ev domain.Event
	err := s.withTx(ctx, "comment", func(tx *sql.Tx) error {
		var err error
		ev, err = s.Engine.RecordComment(ctx, tx, req)
		return err
	})
	if err != nil {
		return domain.Event{}, err
	}
	s.Metrics.Comments.Inc()
	s.Log.Debug("comment recorded", "case_id", req.CaseID, "event_id", ev.ID)
	return ev, nil
}

func (s *Service) CaseDetail(ctx context.Context, code string) (domain.CaseDetail, error) {
	return s.Engine.CaseDetail(ctx, s.DB, code)
}

func (s *Service) Timeline(ctx context.Context, caseID int64) ([]domain.TimelineEntry, error) {
	if _, err := s.Engine.Repo.GetCase(ctx, s.DB, caseID); err != nil {
		return nil, err
	}
	return s.Engine.Timeline().List(ctx, s.DB, caseID)
}

func (s *Service) ListStates(ctx context.Context) ([]domain.State, error) {
	return s.Engine.Catalog.ListStates(ctx, s.DB)
}

func (s *Service) ListTemplates(ctx context.Context) ([]domain.CommentTemplate, error) {
	return s.Engine.Templates.ListTemplates(ctx, s.DB)
}

// ResolveTemplate previews which template a move into stateID would use.
func (s *Service) ResolveTemplate(ctx context.Context, caseType *string, stateID int64) (templates.Resolution, error) {
	if _, err := s.Engine.Repo.GetState(ctx, s.DB, stateID); err != nil {
		return templates.Resolution{}, err
	}
	return s.Engine.Templates.Resolve(ctx, s.DB, caseType, stateID)
}

func (s *Service) ListUsers(ctx context.Context) ([]domain.User, error) {
	return s.Engine.Repo.ListUsers(ctx, s.DB)
}

func (s *Service) CreateUser(ctx context.Context, u domain.User) (domain.User, error) {
	if strings.TrimSpace(u.Name) == "" {
		return domain.User{}, ErrNameRequired
	}
	var out domain.User
	err := s.withTx(ctx, "user.create", func(tx *sql.Tx) error {
		var err error
		out, err = s.Engine.Repo.InsertUser(ctx, tx, u)
		return err
	})
	return out, err
}
