package repo

import (
	"context"
	"database/sql"
	"strings"

	"gestor/internal/domain"
)

// Querier is satisfied by *sql.DB and *sql.Tx. Every storage call takes one so
// callers decide the transactional scope.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Repo is the relational storage collaborator. It is stateless; every call
// runs on the Querier it is given.
type Repo struct{}

var ErrNotFound = domain.ErrNotFound

func nullableStringPtr(v *string) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullableInt64Ptr(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func int64Ptr(ni sql.NullInt64) *int64 {
	if !ni.Valid {
		return nil
	}
	v := ni.Int64
	return &v
}

// likeContains builds a LIKE pattern matching s anywhere, with LIKE wildcards
// in s escaped by backslash.
func likeContains(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}
