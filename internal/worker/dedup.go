package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/Ruthachere/e-commerce-shop/pkg/mylogger"
)

// Deduper runs an action at most once per event. A replayed event id is
// acknowledged without running the action again.
type Deduper interface {
	Process(ctx context.Context, eventID int64, action func() error) error
}

type pgDeduper struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewDeduper(pool *pgxpool.Pool, logger *zap.Logger) Deduper {
	return &pgDeduper{pool: pool, logger: logger}
}

// Process claims the event id in processed_events and runs the action inside
// the same transaction boundary, so a crash before commit releases the claim
// and the event is retried on redelivery.
func (d *pgDeduper) Process(ctx context.Context, eventID int64, action func() error) error {
	span := trace.SpanFromContext(ctx)

	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return err
	}

	defer func() {
		cleanupCtx := context.WithoutCancel(ctx)

		err = tx.Rollback(cleanupCtx)
		if err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			mylogger.Error(
				cleanupCtx,
				d.logger,
				"Error rolling back transaction",
				zap.Error(err),
			)
		}
	}()

	query := `
		INSERT INTO processed_events (event_id)
		VALUES ($1)
	`

	_, err = tx.Exec(ctx, query, eventID)
	if err != nil {
		var pgError *pgconn.PgError
		if errors.As(err, &pgError) && pgError.Code == "23505" {
			mylogger.Info(
				ctx,
				d.logger,
				"Event already processed, skipping",
				zap.Int64("event_id", eventID),
			)

			return nil
		}

		span.RecordError(err)
		return err
	}

	done := false
	for i := 0; i < 3; i++ {
		err = action()
		if err == nil {
			done = true
			break
		}

		if i < 2 {
			time.Sleep(500 * time.Millisecond)
		}
	}

	if !done {
		mylogger.Error(ctx, d.logger, "Action failed after retries", zap.Error(err))

		return fmt.Errorf("failed to process event %d: %w", eventID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		span.RecordError(err)

		mylogger.Error(
			ctx,
			d.logger,
			"Failed to commit transaction",
			zap.Error(err),
		)

		return fmt.Errorf("failed to process event %d: %w", eventID, err)
	}

	return nil
}
