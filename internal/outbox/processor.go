package outbox

import (
	"context"
	"sync"
	"time"

	"github.com/freshmart/grocery-api/internal/models"
	"github.com/freshmart/grocery-api/pkg/logger"
)

// MessageHandler publishes or otherwise acts on a single outbox message.
type MessageHandler interface {
	Handle(ctx context.Context, msg *models.OutboxMessage) error
}

// MessageStore is the slice of the outbox repository the processor needs.
type MessageStore interface {
	GetPendingMessages(ctx context.Context, limit int) ([]*models.OutboxMessage, error)
	MarkAsProcessing(ctx context.Context, id int64) error
	MarkAsPending(ctx context.Context, id int64) error
	MarkAsCompleted(ctx context.Context, id int64) error
	MarkAsFailed(ctx context.Context, id int64, reason string) error
}

// Processor polls the outbox table and dispatches pending messages to the
// handler registered for their event type. Messages with no handler are
// failed immediately; handler errors are retried until maxRetries, then
// parked as failed for manual requeueing.
type Processor struct {
	store        MessageStore
	handlers     map[string]MessageHandler
	pollInterval time.Duration
	batchSize    int
	maxRetries   int
	logger       logger.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Config tunes the processor loop.
type Config struct {
	PollInterval time.Duration
	BatchSize    int
	MaxRetries   int
}

// NewProcessor creates a stopped Processor.
func NewProcessor(store MessageStore, cfg Config, logger logger.Logger) *Processor {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 2 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 20
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 5
	}
	return &Processor{
		store:        store,
		handlers:     make(map[string]MessageHandler),
		pollInterval: cfg.PollInterval,
		batchSize:    cfg.BatchSize,
		maxRetries:   cfg.MaxRetries,
		logger:       logger,
	}
}

// RegisterHandler binds a handler to an event type. Not safe to call after Start.
func (p *Processor) RegisterHandler(eventType string, handler MessageHandler) {
	p.handlers[eventType] = handler
}

// Start launches the polling loop in a background goroutine.
func (p *Processor) Start(ctx context.Context) {
	ctx, p.cancel = context.WithCancel(ctx)
	p.wg.Add(1)
	go p.run(ctx)
	p.logger.Info("Outbox processor started", "pollInterval", p.pollInterval.String())
}

// Stop halts the loop and waits for the in-flight batch to finish.
func (p *Processor) Stop() {
	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()
	p.logger.Info("Outbox processor stopped")
}

func (p *Processor) run(ctx context.Context) {
	defer p.wg.Done()

	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.processBatch(ctx)
		}
	}
}

func (p *Processor) processBatch(ctx context.Context) {
	messages, err := p.store.GetPendingMessages(ctx, p.batchSize)
	if err != nil {
		p.logger.Error("Failed to fetch pending outbox messages", "error", err)
		return
	}

	for _, msg := range messages {
		if ctx.Err() != nil {
			return
		}
		p.processMessage(ctx, msg)
	}
}

func (p *Processor) processMessage(ctx context.Context, msg *models.OutboxMessage) {
	handler, ok := p.handlers[msg.EventType]
	if !ok {
		p.logger.Error("No handler registered for event type", "eventType", msg.EventType, "messageID", msg.ID)
		if err := p.store.MarkAsFailed(ctx, msg.ID, "no handler registered for event type "+msg.EventType); err != nil {
			p.logger.Error("Failed to mark outbox message as failed", "messageID", msg.ID, "error", err)
		}
		return
	}

	if err := p.store.MarkAsProcessing(ctx, msg.ID); err != nil {
		p.logger.Error("Failed to claim outbox message", "messageID", msg.ID, "error", err)
		return
	}

	if err := handler.Handle(ctx, msg); err != nil {
		p.logger.Warn("Outbox handler failed",
			"messageID", msg.ID,
			"eventType", msg.EventType,
			"attempts", msg.ProcessingAttempts+1,
			"error", err)

		// The attempt counter was incremented by MarkAsProcessing.
		if msg.ProcessingAttempts+1 >= p.maxRetries {
			if err := p.store.MarkAsFailed(ctx, msg.ID, err.Error()); err != nil {
				p.logger.Error("Failed to park outbox message", "messageID", msg.ID, "error", err)
			}
			return
		}
		if err := p.store.MarkAsPending(ctx, msg.ID); err != nil {
			p.logger.Error("Failed to requeue outbox message", "messageID", msg.ID, "error", err)
		}
		return
	}

	if err := p.store.MarkAsCompleted(ctx, msg.ID); err != nil {
		p.logger.Error("Failed to complete outbox message", "messageID", msg.ID, "error", err)
		return
	}

	p.logger.Debug("Outbox message published", "messageID", msg.ID, "eventType", msg.EventType)
}
