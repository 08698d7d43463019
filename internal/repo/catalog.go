package repo

import (
	"context"
	"database/sql"
	"errors"

	"gestor/internal/domain"
)

func (r Repo) GetState(ctx context.Context, q Querier, id int64) (domain.State, error) {
	var s domain.State
	err := q.QueryRowContext(ctx, `SELECT id,nombre,orden,is_terminal FROM catalogo_estado WHERE id=?`, id).
		Scan(&s.ID, &s.Name, &s.Order, &s.IsTerminal)
	if errors.Is(err, sql.ErrNoRows) {
		return s, domain.NotFoundError{Kind: "state", ID: id}
	}
	return s, err
}

// ListStates returns states by display order; AllowedNext is left empty.
func (r Repo) ListStates(ctx context.Context, q Querier) ([]domain.State, error) {
	rows, err := q.QueryContext(ctx, `SELECT id,nombre,orden,is_terminal FROM catalogo_estado ORDER BY orden ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.State
	for rows.Next() {
		var s domain.State
		if err := rows.Scan(&s.ID, &s.Name, &s.Order, &s.IsTerminal); err != nil {
			return nil, err
		}
		res = append(res, s)
	}
	return res, rows.Err()
}

func (r Repo) ListTransitionEdges(ctx context.Context, q Querier, fromStateID int64) ([]int64, error) {
	rows, err := q.QueryContext(ctx, `SELECT to_estado_id FROM estado_transiciones WHERE from_estado_id=? ORDER BY to_estado_id`, fromStateID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		res = append(res, id)
	}
	return res, rows.Err()
}

// ListAllEdges returns the whole graph.
func (r Repo) ListAllEdges(ctx context.Context, q Querier) ([]domain.Transition, error) {
	rows, err := q.QueryContext(ctx, `SELECT from_estado_id,to_estado_id FROM estado_transiciones ORDER BY from_estado_id, to_estado_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Transition
	for rows.Next() {
		var t domain.Transition
		if err := rows.Scan(&t.FromStateID, &t.ToStateID); err != nil {
			return nil, err
		}
		res = append(res, t)
	}
	return res, rows.Err()
}

func (r Repo) EdgeExists(ctx context.Context, q Querier, from, to int64) (bool, error) {
	var n int
	err := q.QueryRowContext(ctx, `SELECT 1 FROM estado_transiciones WHERE from_estado_id=? AND to_estado_id=?`, from, to).Scan(&n)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

const templateColumns = `id,tipo_gestion,estado_id,titulo,template,required,roles_allowed`

func scanTemplate(row rowScanner) (domain.CommentTemplate, error) {
	var (
		t           domain.CommentTemplate
		tipo, roles sql.NullString
	)
	if err := row.Scan(&t.ID, &tipo, &t.StateID, &t.Title, &t.Body, &t.Required, &roles); err != nil {
		return t, err
	}
	t.CaseType = stringPtr(tipo)
	t.RolesAllowed = stringPtr(roles)
	return t, nil
}

func (r Repo) ListTemplates(ctx context.Context, q Querier) ([]domain.CommentTemplate, error) {
	return r.queryTemplates(ctx, q, `SELECT `+templateColumns+` FROM comentario_plantilla ORDER BY id`)
}

func (r Repo) ListTemplatesForState(ctx context.Context, q Querier, stateID int64) ([]domain.CommentTemplate, error) {
	return r.queryTemplates(ctx, q, `SELECT `+templateColumns+` FROM comentario_plantilla WHERE estado_id=? ORDER BY id`, stateID)
}

func (r Repo) queryTemplates(ctx context.Context, q Querier, query string, args ...any) ([]domain.CommentTemplate, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.CommentTemplate
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, t)
	}
	return res, rows.Err()
}

// UpsertState inserts or refreshes a catalog state.
func (r Repo) UpsertState(ctx context.Context, q Querier, s domain.State) error {
	_, err := q.ExecContext(ctx, `INSERT INTO catalogo_estado(id,nombre,orden,is_terminal) VALUES (?,?,?,?)
ON CONFLICT(id) DO UPDATE SET nombre=excluded.nombre, orden=excluded.orden, is_terminal=excluded.is_terminal`,
		s.ID, s.Name, s.Order, s.IsTerminal)
	return err
}

func (r Repo) InsertEdge(ctx context.Context, q Querier, t domain.Transition) error {
	_, err := q.ExecContext(ctx, `INSERT OR IGNORE INTO estado_transiciones(from_estado_id,to_estado_id) VALUES (?,?)`, t.FromStateID, t.ToStateID)
	return err
}

// UpsertTemplate keys on (state, case type) and returns the template id.
func (r Repo) UpsertTemplate(ctx context.Context, q Querier, t domain.CommentTemplate, now string) (int64, error) {
	var id int64
	err := q.QueryRowContext(ctx, `SELECT id FROM comentario_plantilla WHERE estado_id=? AND tipo_gestion IS ?`,
		t.StateID, nullableStringPtr(t.CaseType)).Scan(&id)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		res, err := q.ExecContext(ctx, `INSERT INTO comentario_plantilla(tipo_gestion,estado_id,titulo,template,required,roles_allowed,created_at,updated_at)
VALUES (?,?,?,?,?,?,?,?)`,
			nullableStringPtr(t.CaseType), t.StateID, t.Title, t.Body, t.Required, nullableStringPtr(t.RolesAllowed), now, now)
		if err != nil {
			return 0, err
		}
		return res.LastInsertId()
	case err != nil:
		return 0, err
	}
	_, err = q.ExecContext(ctx, `UPDATE comentario_plantilla SET titulo=?, template=?, required=?, roles_allowed=?, updated_at=? WHERE id=?`,
		t.Title, t.Body, t.Required, nullableStringPtr(t.RolesAllowed), now, id)
	return id, err
}
