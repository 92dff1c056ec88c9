package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"paintball2go-backend/internal/domain"
	"paintball2go-backend/internal/domain/ports/repository"
)

// Shared query helpers. Repositories route every statement through these so
// the tx-or-pool resolution lives in one place.

func execSQL(ctx context.Context, pool *pgxpool.Pool, tx repository.Tx, sql string, args ...interface{}) (pgconn.CommandTag, error) {
	ex, err := getExecutor(pool, tx)
	if err != nil {
		return nil, err
	}
	return ex.Exec(ctx, sql, args...)
}

func queryRows(ctx context.Context, pool *pgxpool.Pool, tx repository.Tx, sql string, args ...interface{}) (pgx.Rows, error) {
	ex, err := getExecutor(pool, tx)
	if err != nil {
		return nil, err
	}
	return ex.Query(ctx, sql, args...)
}

func pickRow(ctx context.Context, pool *pgxpool.Pool, tx repository.Tx, sql string, args ...interface{}) (pgx.Row, error) {
	ex, err := getExecutor(pool, tx)
	if err != nil {
		return nil, err
	}
	return ex.QueryRow(ctx, sql, args...), nil
}

// mapSaveErr folds a write error into the domain taxonomy. Unique-constraint
// violations surface as the caller-provided conflict error.
func mapSaveErr(err error, onConflict error) error {
	if err == nil {
		return nil
	}
	switch err {
	case domain.ErrInvalidArgument, domain.ErrInvalidExecContext:
		return err
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return onConflict
	}
	return domain.ErrOperationFailed
}
