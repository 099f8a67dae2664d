package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/freshmart/grocery-api/internal/database"
)

func sqlxGet(ctx context.Context, db *database.Database, dest interface{}, query string, args ...interface{}) error {
	return sqlx.GetContext(ctx, ext(ctx, db), dest, query, args...)
}

func sqlxSelect(ctx context.Context, db *database.Database, dest interface{}, query string, args ...interface{}) error {
	return sqlx.SelectContext(ctx, ext(ctx, db), dest, query, args...)
}

// requireRowsAffected maps a zero-row update or delete to ErrNotFound.
func requireRowsAffected(result sql.Result) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}
