package repotest

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// nopQuerier satisfies database.Querier for code paths that carry a
// connection the fake repositories never use.
type nopQuerier struct{}

func (nopQuerier) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}

func (nopQuerier) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, nil
}

func (nopQuerier) QueryRow(context.Context, string, ...any) pgx.Row {
	return nil
}
