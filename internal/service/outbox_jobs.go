package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Ruthachere/e-commerce-shop/internal/outbox"
)

// saveOutboxJob wraps a notification job in the event envelope and stores it
// through the outbox repository inside the caller's transaction.
func saveOutboxJob(
	ctx context.Context,
	tx pgx.Tx,
	outboxRepo outbox.Repository,
	topic, eventType, aggregateType string,
	aggregateID int64,
	payload any,
) error {
	wrapper := map[string]any{
		"event":   eventType,
		"payload": payload,
	}

	wrapperBytes, err := json.Marshal(wrapper)
	if err != nil {
		return fmt.Errorf("failed to marshal job payload: %w", err)
	}

	return outboxRepo.Save(ctx, tx, &outbox.Event{
		AggregateType: aggregateType,
		AggregateID:   fmt.Sprintf("%d", aggregateID),
		EventType:     eventType,
		Payload:       wrapperBytes,
		Topic:         topic,
	})
}
