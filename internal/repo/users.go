package repo

import (
	"context"
	"database/sql"
	"errors"

	"gestor/internal/domain"
)

func (r Repo) GetUser(ctx context.Context, q Querier, id int64) (domain.User, error) {
	var (
		u     domain.User
		email sql.NullString
	)
	err := q.QueryRowContext(ctx, `SELECT id,nombre,correo FROM usuario WHERE id=?`, id).Scan(&u.ID, &u.Name, &email)
	if errors.Is(err, sql.ErrNoRows) {
		return u, domain.NotFoundError{Kind: "user", ID: id}
	}
	u.Email = stringPtr(email)
	return u, err
}

func (r Repo) ListUsers(ctx context.Context, q Querier) ([]domain.User, error) {
	rows, err := q.QueryContext(ctx, `SELECT id,nombre,correo FROM usuario ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.User
	for rows.Next() {
		var (
			u     domain.User
			email sql.NullString
		)
		if err := rows.Scan(&u.ID, &u.Name, &email); err != nil {
			return nil, err
		}
		u.Email = stringPtr(email)
		res = append(res, u)
	}
	return res, rows.Err()
}

// InsertUser assigns the id when u.ID is zero.
func (r Repo) InsertUser(ctx context.Context, q Querier, u domain.User) (domain.User, error) {
	var id any
	if u.ID != 0 {
		id = u.ID
	}
	res, err := q.ExecContext(ctx, `INSERT INTO usuario(id,nombre,correo) VALUES (?,?,?)`, id, u.Name, nullableStringPtr(u.Email))
	if err != nil {
		return u, err
	}
	if u.ID == 0 {
		if u.ID, err = res.LastInsertId(); err != nil {
			return u, err
		}
	}
	return u, nil
}

func (r Repo) UpsertUser(ctx context.Context, q Querier, u domain.User) error {
	_, err := q.ExecContext(ctx, `INSERT INTO usuario(id,nombre,correo) VALUES (?,?,?)
ON CONFLICT(id) DO UPDATE SET nombre=excluded.nombre, correo=excluded.correo`, u.ID, u.Name, nullableStringPtr(u.Email))
	return err
}
