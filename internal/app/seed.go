package app

import (
	"context"
	"database/sql"
	"fmt"

	"gestor/internal/config"
	"gestor/internal/domain"
)

type SeedStats struct {
	States      int `json:"states"`
	Transitions int `json:"transitions"`
	Templates   int `json:"templates"`
	Users       int `json:"users"`
}

// SeedCatalog upserts the configured catalog. Existing rows are refreshed;
// nothing is removed, so cases keep pointing at valid states.
func (s *Service) SeedCatalog(ctx context.Context, cat config.Catalog) (SeedStats, error) {
	if err := cat.Validate(); err != nil {
		return SeedStats{}, err
	}
	var stats SeedStats
	now := domain.FormatTimestamp(s.now())
	err := s.withTx(ctx, "seed", func(tx *sql.Tx) error {
		r := s.Engine.Repo
		for _, st := range cat.States {
			if err := r.UpsertState(ctx, tx, domain.State{ID: st.ID, Name: st.Name, Order: st.Order, IsTerminal: st.Terminal}); err != nil {
				return fmt.Errorf("seed state %d: %w", st.ID, err)
			}
			stats.States++
		}
		for _, t := range cat.Transitions {
			if err := r.InsertEdge(ctx, tx, t); err != nil {
				return fmt.Errorf("seed transition %d -> %d: %w", t.FromStateID, t.ToStateID, err)
			}
			stats.Transitions++
		}
		for _, t := range cat.Templates {
			tpl := domain.CommentTemplate{
				StateID:      t.State,
				Title:        t.Title,
				Body:         t.Template,
				Required:     t.Required,
				CaseType:     optional(t.Type),
				RolesAllowed: optional(t.RolesAllowed),
			}
			if _, err := r.UpsertTemplate(ctx, tx, tpl, now); err != nil {
				return fmt.Errorf("seed template for state %d: %w", t.State, err)
			}
			stats.Templates++
		}
		for _, u := range cat.Users {
			if err := r.UpsertUser(ctx, tx, domain.User{ID: u.ID, Name: u.Name, Email: optional(u.Email)}); err != nil {
				return fmt.Errorf("seed user %d: %w", u.ID, err)
			}
			stats.Users++
		}
		return nil
	})
	if err != nil {
		return SeedStats{}, err
	}
	s.Log.Info("catalog seeded", "states", stats.States, "transitions", stats.Transitions, "templates", stats.Templates, "users", stats.Users)
	return stats, nil
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
