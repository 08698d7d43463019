package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound             = errors.New("not found")
	ErrInvalidTransition    = errors.New("invalid transition")
	ErrCommentRequired      = errors.New("comment required")
	ErrEmptyComment         = errors.New("comment is required")
	ErrConcurrentTransition = errors.New("case state changed concurrently")
)

// NotFoundError reports a case, user or state reference that does not resolve.
type NotFoundError struct {
	Kind string
	ID   any
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s %v not found", e.Kind, e.ID)
}

func (e NotFoundError) Is(target error) bool { return target == ErrNotFound }

// InvalidTransitionError reports a missing edge in the state graph.
type InvalidTransitionError struct {
	CaseID int64
	From   int64
	To     int64
}

func (e InvalidTransitionError) Error() string {
	return fmt.Sprintf("transition %d -> %d not allowed for case %d", e.From, e.To, e.CaseID)
}

func (e InvalidTransitionError) Is(target error) bool { return target == ErrInvalidTransition }

// CommentRequiredError reports a required template with a blank comment.
type CommentRequiredError struct {
	CaseID     int64
	StateID    int64
	TemplateID int64
}

func (e CommentRequiredError) Error() string {
	return fmt.Sprintf("comment required to move case %d to state %d (template %d)", e.CaseID, e.StateID, e.TemplateID)
}

func (e CommentRequiredError) Is(target error) bool { return target == ErrCommentRequired }
