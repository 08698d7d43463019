package repo

import (
	"context"
	"database/sql"
	"fmt"

	"gestor/internal/domain"
)

// InsertEvent appends an event row. CreatedAt is stored in the fixed-width
// UTC layout so lexical order on fecha matches time order.
func (r Repo) InsertEvent(ctx context.Context, q Querier, e domain.Event) (domain.Event, error) {
	res, err := q.ExecContext(ctx, `INSERT INTO evento(gestion_id,usuario_id,fecha,comentario,estado_id) VALUES (?,?,?,?,?)`,
		e.CaseID, nullableInt64Ptr(e.UserID), domain.FormatTimestamp(e.CreatedAt), nullableStringPtr(e.Comment), nullableInt64Ptr(e.StateID))
	if err != nil {
		return e, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return e, err
	}
	e.ID = id
	return e, nil
}

func (r Repo) ListEventsForCase(ctx context.Context, q Querier, caseID int64) ([]domain.Event, error) {
	rows, err := q.QueryContext(ctx, `SELECT id,gestion_id,usuario_id,fecha,comentario,estado_id FROM evento
WHERE gestion_id=? ORDER BY fecha ASC, id ASC`, caseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Event
	for rows.Next() {
		var (
			e           domain.Event
			user, state sql.NullInt64
			fecha       string
			comment     sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.CaseID, &user, &fecha, &comment, &state); err != nil {
			return nil, err
		}
		ts, err := domain.ParseTimestamp(fecha)
		if err != nil {
			return nil, fmt.Errorf("event %d fecha: %w", e.ID, err)
		}
		e.CreatedAt = ts
		e.UserID = int64Ptr(user)
		e.StateID = int64Ptr(state)
		e.Comment = stringPtr(comment)
		res = append(res, e)
	}
	return res, rows.Err()
}

// CountEventsForCase is used by callers that only need to know whether a case
// has history.
func (r Repo) CountEventsForCase(ctx context.Context, q Querier, caseID int64) (int, error) {
	var n int
	err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM evento WHERE gestion_id=?`, caseID).Scan(&n)
	return n, err
}
