package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/hms-api/internal/model"
)

func (r *outboxRepository) Create(ctx context.Context, event *model.OutboxEvent) error {
	query := `
		INSERT INTO outbox_events (id, event_type, payload, status, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	event.ID = uuid.New()
	event.Status = model.OutboxStatusPending
	event.CreatedAt = time.Now()

	if _, err := r.GetDB().ExecContext(ctx, query,
		event.ID, event.EventType, event.Payload, event.Status, event.CreatedAt,
	); err != nil {
		return fmt.Errorf("failed to create outbox event: %w", err)
	}
	return nil
}

// GetPendingEventsWithLock claims a batch of pending events. SKIP LOCKED lets
// multiple workers poll the same table without contending.
func (r *outboxRepository) GetPendingEventsWithLock(ctx context.Context, limit int) ([]*model.OutboxEvent, error) {
	query := `
		SELECT id, event_type, payload, status, error, retry_at, created_at, processed_at
		FROM outbox_events
		WHERE status = 'pending'
		  AND (retry_at IS NULL OR retry_at <= NOW())
		ORDER BY created_at ASC
		LIMIT $1
		FOR UPDATE SKIP LOCKED
	`
	var events []*model.OutboxEvent
	if err := r.GetDB().SelectContext(ctx, &events, query, limit); err != nil {
		return nil, fmt.Errorf("failed to get pending events: %w", err)
	}
	return events, nil
}

func (r *outboxRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.OutboxStatus, errMsg *string, retryAt *time.Time) error {
	query := `
		UPDATE outbox_events
		SET status = $1, error = $2, retry_at = $3,
			processed_at = CASE WHEN $1 = 'processed' THEN NOW() ELSE processed_at END
		WHERE id = $4
	`
	result, err := r.GetDB().ExecContext(ctx, query, status, errMsg, retryAt, id)
	if err != nil {
		return fmt.Errorf("failed to update outbox event: %w", err)
	}
	return requireRow(result, "outbox event")
}
