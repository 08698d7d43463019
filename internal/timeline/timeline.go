// Package timeline is the append-only event log of a case.
package timeline

import (
	"context"
	"sort"
	"time"

	"gestor/internal/domain"
	"gestor/internal/repo"
)

type Log struct {
	Repo repo.Repo
	Now  func() time.Time
}

func New(r repo.Repo) Log {
	return Log{Repo: r, Now: time.Now}
}

func (l Log) now() time.Time {
	if l.Now != nil {
		return l.Now()
	}
	return time.Now()
}

// Append stamps e with the server clock and stores it. Any CreatedAt set by
// the caller is overwritten.
func (l Log) Append(ctx context.Context, q repo.Querier, e domain.Event) (domain.Event, error) {
	// truncate to what the storage layout keeps so the returned value matches a re-read
	e.CreatedAt = l.now().UTC().Truncate(time.Microsecond)
	return l.Repo.InsertEvent(ctx, q, e)
}

// List returns the case's events oldest first, ties broken by id, each with
// the name of the state it recorded.
func (l Log) List(ctx context.Context, q repo.Querier, caseID int64) ([]domain.TimelineEntry, error) {
	evs, err := l.Repo.ListEventsForCase(ctx, q, caseID)
	if err != nil {
		return nil, err
	}
	states, err := l.Repo.ListStates(ctx, q)
	if err != nil {
		return nil, err
	}
	names := make(map[int64]string, len(states))
	for _, s := range states {
		names[s.ID] = s.Name
	}
	return Entries(evs, names), nil
}

// Entries orders evs and converts them to timeline entries. Rows written by
// other tools may use other timestamp layouts, so order is re-established on
// parsed times rather than trusted from storage.
func Entries(evs []domain.Event, stateNames map[int64]string) []domain.TimelineEntry {
	sorted := make([]domain.Event, len(evs))
	copy(sorted, evs)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
	out := make([]domain.TimelineEntry, 0, len(sorted))
	for _, e := range sorted {
		entry := domain.TimelineEntry{
			ID:        e.ID,
			Timestamp: domain.FormatTimestamp(e.CreatedAt),
			Comment:   e.Comment,
			UserID:    e.UserID,
			StateID:   e.StateID,
		}
		if e.StateID != nil {
			if name, ok := stateNames[*e.StateID]; ok {
				entry.StateName = &name
			}
		}
		out = append(out, entry)
	}
	return out
}
