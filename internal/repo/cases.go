package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"gestor/internal/domain"
)

const caseColumns = `id,nombre,descripcion,tipo,estado_id,responsable_id,fecha_creacion`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCase(row rowScanner) (domain.Case, error) {
	var (
		c           domain.Case
		desc, tipo  sql.NullString
		state, resp sql.NullInt64
		createdAt   string
	)
	if err := row.Scan(&c.ID, &c.Name, &desc, &tipo, &state, &resp, &createdAt); err != nil {
		return c, err
	}
	c.Description = stringPtr(desc)
	c.Type = stringPtr(tipo)
	c.StateID = int64Ptr(state)
	c.ResponsibleID = int64Ptr(resp)
	ts, err := domain.ParseTimestamp(createdAt)
	if err != nil {
		return c, fmt.Errorf("case %d fecha_creacion: %w", c.ID, err)
	}
	c.CreatedAt = ts
	return c, nil
}

func (r Repo) GetCase(ctx context.Context, q Querier, id int64) (domain.Case, error) {
	c, err := scanCase(q.QueryRowContext(ctx, `SELECT `+caseColumns+` FROM gestion WHERE id=?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return c, domain.NotFoundError{Kind: "case", ID: id}
	}
	return c, err
}

// FindCaseByNameSubstring returns the lowest-id case whose name contains
// pattern, ignoring case (Unicode). Needs a connection from db.Open, which
// provides unicode_lower.
func (r Repo) FindCaseByNameSubstring(ctx context.Context, q Querier, pattern string) (domain.Case, error) {
	c, err := scanCase(q.QueryRowContext(ctx, `SELECT `+caseColumns+` FROM gestion WHERE unicode_lower(nombre) LIKE ? ESCAPE '\' ORDER BY id LIMIT 1`,
		likeContains(strings.ToLower(pattern))))
	if errors.Is(err, sql.ErrNoRows) {
		return c, domain.NotFoundError{Kind: "case", ID: pattern}
	}
	return c, err
}

func (r Repo) ListCases(ctx context.Context, q Querier) ([]domain.Case, error) {
	rows, err := q.QueryContext(ctx, `SELECT `+caseColumns+` FROM gestion ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Case
	for rows.Next() {
		c, err := scanCase(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, c)
	}
	return res, rows.Err()
}

func (r Repo) InsertCase(ctx context.Context, q Querier, c domain.Case) (domain.Case, error) {
	res, err := q.ExecContext(ctx, `INSERT INTO gestion(nombre,descripcion,tipo,estado_id,responsable_id,fecha_creacion) VALUES (?,?,?,?,?,?)`,
		c.Name, nullableStringPtr(c.Description), nullableStringPtr(c.Type), nullableInt64Ptr(c.StateID), nullableInt64Ptr(c.ResponsibleID),
		domain.FormatTimestamp(c.CreatedAt))
	if err != nil {
		return c, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return c, err
	}
	c.ID = id
	return c, nil
}

// UpdateCase rewrites case metadata. The state is owned by the transition
// engine and is not touched here.
func (r Repo) UpdateCase(ctx context.Context, q Querier, c domain.Case) error {
	res, err := q.ExecContext(ctx, `UPDATE gestion SET nombre=?, descripcion=?, tipo=?, responsable_id=? WHERE id=?`,
		c.Name, nullableStringPtr(c.Description), nullableStringPtr(c.Type), nullableInt64Ptr(c.ResponsibleID), c.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.NotFoundError{Kind: "case", ID: c.ID}
	}
	return nil
}

func (r Repo) DeleteCase(ctx context.Context, q Querier, id int64) error {
	res, err := q.ExecContext(ctx, `DELETE FROM gestion WHERE id=?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.NotFoundError{Kind: "case", ID: id}
	}
	return nil
}

// UpdateCaseState moves a case to newState only if it is still in
// expectedState (nil meaning no state). It returns false when the guard did
// not match.
func (r Repo) UpdateCaseState(ctx context.Context, q Querier, caseID int64, expectedState *int64, newState int64) (bool, error) {
	res, err := q.ExecContext(ctx, `UPDATE gestion SET estado_id=? WHERE id=? AND estado_id IS ?`,
		newState, caseID, nullableInt64Ptr(expectedState))
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
