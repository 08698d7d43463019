// Package engine validates and applies case state transitions and records
// timeline events. Callers own the transaction: every write method takes the
// tx it must run in and never commits.
package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gestor/internal/catalog"
	"gestor/internal/domain"
	"gestor/internal/repo"
	"gestor/internal/templates"
	"gestor/internal/timeline"
)

type Engine struct {
	Repo      repo.Repo
	Catalog   catalog.Catalog
	Templates templates.Resolver
	Now       func() time.Time
}

func New() Engine {
	r := repo.Repo{}
	return Engine{
		Repo:      r,
		Catalog:   catalog.New(r),
		Templates: templates.New(r),
		Now:       time.Now,
	}
}

func (e Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

// Timeline returns the event log bound to the engine clock.
func (e Engine) Timeline() timeline.Log {
	return timeline.Log{Repo: e.Repo, Now: e.now}
}

type TransitionRequest struct {
	CaseID        int64
	TargetStateID int64
	UserID        *int64
	Comment       *string
}

type TransitionResult struct {
	Case     domain.Case
	From     *int64
	Event    domain.Event
	Template *domain.CommentTemplate
}

// ApplyTransition moves a case to req.TargetStateID. A case with no state may
// take any existing state; otherwise the edge must exist. When the resolved
// template requires a comment, a blank comment is rejected. The event and the
// state change are written through tx; on error the caller must roll back.
func (e Engine) ApplyTransition(ctx context.Context, tx repo.Querier, req TransitionRequest) (TransitionResult, error) {
	c, err := e.Repo.GetCase(ctx, tx, req.CaseID)
	if err != nil {
		return TransitionResult{}, err
	}
	from := c.StateID
	if from != nil {
		ok, err := e.Catalog.IsTransitionAllowed(ctx, tx, *from, req.TargetStateID)
		if err != nil {
			return TransitionResult{}, fmt.Errorf("check edge: %w", err)
		}
		if !ok {
			return TransitionResult{}, domain.InvalidTransitionError{CaseID: c.ID, From: *from, To: req.TargetStateID}
		}
	} else if _, err := e.Repo.GetState(ctx, tx, req.TargetStateID); err != nil {
		return TransitionResult{}, err
	}
	if req.UserID != nil {
		if _, err := e.Repo.GetUser(ctx, tx, *req.UserID); err != nil {
			return TransitionResult{}, err
		}
	}

	res, err := e.Templates.Resolve(ctx, tx, c.Type, req.TargetStateID)
	if err != nil {
		return TransitionResult{}, fmt.Errorf("resolve template: %w", err)
	}
	if res.CommentRequired && isBlank(req.Comment) {
		return TransitionResult{}, domain.CommentRequiredError{CaseID: c.ID, StateID: req.TargetStateID, TemplateID: res.Template.ID}
	}

	target := req.TargetStateID
	ev, err := e.Timeline().Append(ctx, tx, domain.Event{
		CaseID:  c.ID,
		UserID:  req.UserID,
		Comment: req.Comment,
		StateID: &target,
	})
	if err != nil {
		return TransitionResult{}, fmt.Errorf("append event: %w", err)
	}
	moved, err := e.Repo.UpdateCaseState(ctx, tx, c.ID, from, target)
	if err != nil {
		return TransitionResult{}, fmt.Errorf("update case state: %w", err)
	}
	if !moved {
		return TransitionResult{}, domain.ErrConcurrentTransition
	}
	c.StateID = &target
	return TransitionResult{Case: c, From: from, Event: ev, Template: res.Template}, nil
}

type CommentRequest struct {
	CaseID  int64
	UserID  *int64
	Comment string
}

// RecordComment appends a plain comment. The case state is untouched and no
// transition rule applies.
func (e Engine) RecordComment(ctx context.Context, tx repo.Querier, req CommentRequest) (domain.Event, error) {
	if strings.TrimSpace(req.Comment) == "" {
		return domain.Event{}, domain.ErrEmptyComment
	}
	if _, err := e.Repo.GetCase(ctx, tx, req.CaseID); err != nil {
		return domain.Event{}, err
	}
	if req.UserID != nil {
		if _, err := e.Repo.GetUser(ctx, tx, *req.UserID); err != nil {
			return domain.Event{}, err
		}
	}
	comment := req.Comment
	ev, err := e.Timeline().Append(ctx, tx, domain.Event{CaseID: req.CaseID, UserID: req.UserID, Comment: &comment})
	if err != nil {
		return domain.Event{}, fmt.Errorf("append event: %w", err)
	}
	return ev, nil
}

func isBlank(s *string) bool {
	return s == nil || strings.TrimSpace(*s) == ""
}
