// Package catalog exposes the state catalog and its directed transition
// graph. It reads the store on every call.
package catalog

import (
	"context"

	"gestor/internal/domain"
	"gestor/internal/repo"
)

type Catalog struct {
	Repo repo.Repo
}

func New(r repo.Repo) Catalog {
	return Catalog{Repo: r}
}

// ListStates returns the catalog by display order with the outgoing edges of
// each state filled in.
func (c Catalog) ListStates(ctx context.Context, q repo.Querier) ([]domain.State, error) {
	states, err := c.Repo.ListStates(ctx, q)
	if err != nil {
		return nil, err
	}
	edges, err := c.Repo.ListAllEdges(ctx, q)
	if err != nil {
		return nil, err
	}
	next := map[int64][]int64{}
	for _, e := range edges {
		next[e.FromStateID] = append(next[e.FromStateID], e.ToStateID)
	}
	for i := range states {
		states[i].AllowedNext = next[states[i].ID]
		if states[i].AllowedNext == nil {
			states[i].AllowedNext = []int64{}
		}
	}
	return states, nil
}

// IsTransitionAllowed reports whether the edge from -> to exists. A state is
// not implicitly reachable from itself.
func (c Catalog) IsTransitionAllowed(ctx context.Context, q repo.Querier, from, to int64) (bool, error) {
	return c.Repo.EdgeExists(ctx, q, from, to)
}

func (c Catalog) GetState(ctx context.Context, q repo.Querier, id int64) (domain.State, error) {
	s, err := c.Repo.GetState(ctx, q, id)
	if err != nil {
		return s, err
	}
	s.AllowedNext, err = c.Repo.ListTransitionEdges(ctx, q, id)
	if s.AllowedNext == nil {
		s.AllowedNext = []int64{}
	}
	return s, err
}

func (c Catalog) StateNames(ctx context.Context, q repo.Querier) (map[int64]string, error) {
	states, err := c.Repo.ListStates(ctx, q)
	if err != nil {
		return nil, err
	}
	names := make(map[int64]string, len(states))
	for _, s := range states {
		names[s.ID] = s.Name
	}
	return names, nil
}
