// Package templates picks the comment template that applies to a move into a
// given state for a given case type.
package templates

import (
	"context"

	"gestor/internal/domain"
	"gestor/internal/repo"
)

type Resolution struct {
	Template        *domain.CommentTemplate
	CommentRequired bool
}

type Resolver struct {
	Repo repo.Repo
}

func New(r repo.Repo) Resolver {
	return Resolver{Repo: r}
}

// Resolve returns the template for (caseType, stateID). A template whose type
// equals caseType wins over the wildcard; among several of the same kind the
// lowest id wins. A nil caseType only matches the wildcard.
func (r Resolver) Resolve(ctx context.Context, q repo.Querier, caseType *string, stateID int64) (Resolution, error) {
	candidates, err := r.Repo.ListTemplatesForState(ctx, q, stateID)
	if err != nil {
		return Resolution{}, err
	}
	tpl := pick(candidates, caseType)
	if tpl == nil {
		return Resolution{}, nil
	}
	return Resolution{Template: tpl, CommentRequired: tpl.Required}, nil
}

// pick expects candidates in ascending id order.
func pick(candidates []domain.CommentTemplate, caseType *string) *domain.CommentTemplate {
	var wildcard *domain.CommentTemplate
	for i := range candidates {
		t := &candidates[i]
		switch {
		case t.CaseType == nil:
			if wildcard == nil {
				wildcard = t
			}
		case caseType != nil && *t.CaseType == *caseType:
			return t
		}
	}
	return wildcard
}

func (r Resolver) ListTemplates(ctx context.Context, q repo.Querier) ([]domain.CommentTemplate, error) {
	return r.Repo.ListTemplates(ctx, q)
}
