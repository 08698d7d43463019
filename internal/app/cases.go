package app

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"gestor/internal/domain"
	"gestor/internal/engine"
)

var ErrNameRequired = errors.New("nombre is required")

type CreateCaseRequest struct {
	Name          string
	Description   *string
	Type          *string
	ResponsibleID *int64
	// StateID, when set, is applied as the first transition so the timeline
	// starts with it.
	StateID *int64
	UserID  *int64
	Comment *string
}

// CreateCase inserts a case and optionally moves it into its first state in
// the same transaction.
func (s *Service) CreateCase(ctx context.Context, req CreateCaseRequest) (domain.Case, error) {
	if strings.TrimSpace(req.Name) == "" {
		return domain.Case{}, ErrNameRequired
	}
	var out domain.Case
	err := s.withTx(ctx, "case.create", func(tx *sql.Tx) error {
		if err := s.checkUser(ctx, tx, req.ResponsibleID); err != nil {
			return err
		}
		c, err := s.Engine.Repo.InsertCase(ctx, tx, domain.Case{
			Name:          strings.TrimSpace(req.Name),
			Description:   req.Description,
			Type:          req.Type,
			ResponsibleID: req.ResponsibleID,
			CreatedAt:     s.now(),
		})
		if err != nil {
			return err
		}
		out = c
		if req.StateID == nil {
			return nil
		}
		res, err := s.Engine.ApplyTransition(ctx, tx, engine.TransitionRequest{
			CaseID:        c.ID,
			TargetStateID: *req.StateID,
			UserID:        req.UserID,
			Comment:       req.Comment,
		})
		if err != nil {
			return err
		}
		out = res.Case
		return nil
	})
	if err != nil {
		return domain.Case{}, err
	}
	s.Log.Info("case created", "case_id", out.ID, "name", out.Name)
	return out, nil
}

type UpdateCaseRequest struct {
	ID            int64
	Name          string
	Description   *string
	Type          *string
	ResponsibleID *int64
}

// UpdateCase rewrites metadata only; the state moves through transitions.
func (s *Service) UpdateCase(ctx context.Context, req UpdateCaseRequest) (domain.Case, error) {
	if strings.TrimSpace(req.Name) == "" {
		return domain.Case{}, ErrNameRequired
	}
	var out domain.Case
	err := s.withTx(ctx, "case.update", func(tx *sql.Tx) error {
		c, err := s.Engine.Repo.GetCase(ctx, tx, req.ID)
		if err != nil {
			return err
		}
		if err := s.checkUser(ctx, tx, req.ResponsibleID); err != nil {
			return err
		}
		c.Name = strings.TrimSpace(req.Name)
		c.Description = req.Description
		c.Type = req.Type
		c.ResponsibleID = req.ResponsibleID
		if err := s.Engine.Repo.UpdateCase(ctx, tx, c); err != nil {
			return err
		}
		out = c
		return nil
	})
	return out, err
}

func (s *Service) DeleteCase(ctx context.Context, id int64) error {
	err := s.withTx(ctx, "case.delete", func(tx *sql.Tx) error {
		return s.Engine.Repo.DeleteCase(ctx, tx, id)
	})
	if err == nil {
		s.Log.Info("case deleted", "case_id", id)
	}
	return err
}

func (s *Service) ListCases(ctx context.Context) ([]domain.Case, error) {
	return s.Engine.Repo.ListCases(ctx, s.DB)
}

func (s *Service) checkUser(ctx context.Context, tx *sql.Tx, id *int64) error {
	if id == nil {
		return nil
	}
	_, err := s.Engine.Repo.GetUser(ctx, tx, *id)
	return err
}
