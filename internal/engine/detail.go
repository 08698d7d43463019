package engine

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"gestor/internal/domain"
	"gestor/internal/repo"
	"gestor/internal/timeline"
)

// FindCase resolves a case code: digits are an id, anything else is matched
// as a case-insensitive substring of the name. With several name matches the
// one returned is whichever the database yields first.
func (e Engine) FindCase(ctx context.Context, q repo.Querier, code string) (domain.Case, error) {
	code = strings.TrimSpace(code)
	if id, err := strconv.ParseInt(code, 10, 64); err == nil {
		return e.Repo.GetCase(ctx, q, id)
	}
	return e.Repo.FindCaseByNameSubstring(ctx, q, code)
}

// CaseDetail assembles a case with its state, responsible user and timeline.
func (e Engine) CaseDetail(ctx context.Context, q repo.Querier, code string) (domain.CaseDetail, error) {
	c, err := e.FindCase(ctx, q, code)
	if err != nil {
		return domain.CaseDetail{}, err
	}
	names, err := e.Catalog.StateNames(ctx, q)
	if err != nil {
		return domain.CaseDetail{}, err
	}
	d := domain.CaseDetail{
		ID:            c.ID,
		Name:          c.Name,
		Description:   c.Description,
		StateID:       c.StateID,
		Type:          c.Type,
		ResponsibleID: c.ResponsibleID,
		CreatedAt:     domain.FormatTimestamp(c.CreatedAt),
	}
	if c.StateID != nil {
		if n, ok := names[*c.StateID]; ok {
			d.StateName = &n
		}
	}
	if c.ResponsibleID != nil {
		u, err := e.Repo.GetUser(ctx, q, *c.ResponsibleID)
		switch {
		case err == nil:
			d.ResponsibleName = &u.Name
		case !errors.Is(err, domain.ErrNotFound):
			return domain.CaseDetail{}, err
		}
	}
	evs, err := e.Repo.ListEventsForCase(ctx, q, c.ID)
	if err != nil {
		return domain.CaseDetail{}, err
	}
	d.Timeline = timeline.Entries(evs, names)
	return d, nil
}
