package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/freshmart/grocery-api/internal/database"
	"github.com/freshmart/grocery-api/pkg/logger"
)

type txKey struct{}

// TxManager runs a function inside a database transaction. The transaction
// travels in the context, so every repository call made within fn joins it
// automatically.
type TxManager struct {
	db     *database.Database
	logger logger.Logger
}

// NewTxManager creates a TxManager.
func NewTxManager(db *database.Database, logger logger.Logger) *TxManager {
	return &TxManager{db: db, logger: logger}
}

// WithTransaction begins a transaction, runs fn with it in the context, and
// commits, rolling back if fn returns an error.
func (m *TxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	tx, err := m.db.DB.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			m.logger.Error("Failed to rollback transaction", "error", rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: failed to commit transaction: %v", ErrDatabase, err)
	}
	return nil
}

// ext resolves the active transaction from the context, falling back to the
// connection pool.
func ext(ctx context.Context, db *database.Database) sqlx.ExtContext {
	if tx, ok := ctx.Value(txKey{}).(*sqlx.Tx); ok {
		return tx
	}
	return db.DB
}
