package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/freshmart/grocery-api/internal/database"
	"github.com/freshmart/grocery-api/internal/models"
	"github.com/freshmart/grocery-api/pkg/logger"
)

// OutboxRepository handles database operations for outbox messages.
type OutboxRepository struct {
	db     *database.Database
	logger logger.Logger
}

// NewOutboxRepository creates an OutboxRepository.
func NewOutboxRepository(db *database.Database, logger logger.Logger) *OutboxRepository {
	return &OutboxRepository{db: db, logger: logger}
}

// Create inserts an outbox message. Called inside the same transaction as
// the domain write it describes.
func (r *OutboxRepository) Create(ctx context.Context, message *models.OutboxMessage) error {
	query := `
		INSERT INTO outbox_messages (aggregate_type, aggregate_id, event_type, payload, created_at, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	err := ext(ctx, r.db).QueryRowxContext(
		ctx,
		query,
		message.AggregateType,
		message.AggregateID,
		message.EventType,
		message.Payload,
		message.CreatedAt,
		message.Status,
	).Scan(&message.ID)

	if err != nil {
		r.logger.Error("Failed to create outbox message", "error", err)
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return nil
}

// GetPendingMessages retrieves pending messages, oldest first.
func (r *OutboxRepository) GetPendingMessages(ctx context.Context, limit int) ([]*models.OutboxMessage, error) {
	query := outboxSelect + `
		WHERE status = $1
		ORDER BY created_at ASC
		LIMIT $2
	`

	var messages []*models.OutboxMessage
	if err := sqlxSelect(ctx, r.db, &messages, query, models.OutboxStatusPending, limit); err != nil {
		r.logger.Error("Failed to get pending outbox messages", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return messages, nil
}

// GetFailedMessages retrieves messages that exhausted their attempts.
func (r *OutboxRepository) GetFailedMessages(ctx context.Context, limit int) ([]*models.OutboxMessage, error) {
	query := outboxSelect + `
		WHERE status = $1
		ORDER BY created_at ASC
		LIMIT $2
	`

	var messages []*models.OutboxMessage
	if err := sqlxSelect(ctx, r.db, &messages, query, models.OutboxStatusFailed, limit); err != nil {
		r.logger.Error("Failed to get failed outbox messages", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return messages, nil
}

// GetMessage retrieves a message by ID.
func (r *OutboxRepository) GetMessage(ctx context.Context, id int64) (*models.OutboxMessage, error) {
	query := outboxSelect + ` WHERE id = $1`

	var message models.OutboxMessage
	if err := sqlxGet(ctx, r.db, &message, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		r.logger.Error("Failed to get outbox message", "error", err, "messageID", id)
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return &message, nil
}

// MarkAsProcessing claims a message and counts the attempt.
func (r *OutboxRepository) MarkAsProcessing(ctx context.Context, id int64) error {
	query := `
		UPDATE outbox_messages
		SET status = $1, processing_attempts = processing_attempts + 1
		WHERE id = $2
	`
	return r.exec(ctx, query, models.OutboxStatusProcessing, id)
}

// MarkAsPending returns a message to the queue for another attempt.
func (r *OutboxRepository) MarkAsPending(ctx context.Context, id int64) error {
	return r.exec(ctx, `UPDATE outbox_messages SET status = $1 WHERE id = $2`, models.OutboxStatusPending, id)
}

// MarkAsCompleted records successful dispatch.
func (r *OutboxRepository) MarkAsCompleted(ctx context.Context, id int64) error {
	query := `
		UPDATE outbox_messages
		SET status = $1, processed_at = $2
		WHERE id = $3
	`
	return r.exec(ctx, query, models.OutboxStatusCompleted, models.Now(), id)
}

// MarkAsFailed parks a message after its attempts are exhausted.
func (r *OutboxRepository) MarkAsFailed(ctx context.Context, id int64, errorMessage string) error {
	query := `
		UPDATE outbox_messages
		SET status = $1, last_error = $2
		WHERE id = $3
	`
	return r.exec(ctx, query, models.OutboxStatusFailed, errorMessage, id)
}

// Requeue returns a failed message to pending with a fresh attempt budget.
func (r *OutboxRepository) Requeue(ctx context.Context, id int64) error {
	query := `
		UPDATE outbox_messages
		SET status = $1, processing_attempts = 0, last_error = NULL
		WHERE id = $2 AND status = $3
	`

	result, err := ext(ctx, r.db).ExecContext(ctx, query, models.OutboxStatusPending, id, models.OutboxStatusFailed)
	if err != nil {
		r.logger.Error("Failed to requeue outbox message", "error", err, "messageID", id)
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return requireRowsAffected(result)
}

func (r *OutboxRepository) exec(ctx context.Context, query string, args ...interface{}) error {
	if _, err := ext(ctx, r.db).ExecContext(ctx, query, args...); err != nil {
		r.logger.Error("Outbox update failed", "error", err)
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}
	return nil
}

const outboxSelect = `
	SELECT id, aggregate_type, aggregate_id, event_type, payload,
	       created_at, processed_at, processing_attempts, last_error, status
	FROM outbox_messages`
