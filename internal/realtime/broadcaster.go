// Package realtime pushes domain events to connected subscribers over Redis
// pub/sub. Delivery is fire-and-forget: nothing here may fail a committed
// transaction.
package realtime

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Ruthachere/e-commerce-shop/pkg/mylogger"
)

type Broadcaster interface {
	Publish(ctx context.Context, event string, payload any)
}

type redisBroadcaster struct {
	client *redis.Client
	logger *zap.Logger
}

func NewRedisBroadcaster(client *redis.Client, logger *zap.Logger) Broadcaster {
	return &redisBroadcaster{
		client: client,
		logger: logger,
	}
}

func (b *redisBroadcaster) Publish(ctx context.Context, event string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		mylogger.Warn(
			ctx,
			b.logger,
			"Failed to marshal realtime event",
			zap.String("event", event),
			zap.Error(err),
		)
		return
	}

	if err := b.client.Publish(ctx, event, data).Err(); err != nil {
		mylogger.Warn(
			ctx,
			b.logger,
			"Failed to publish realtime event",
			zap.String("event", event),
			zap.Error(err),
		)
	}
}

// NopBroadcaster discards every event. Used where no realtime channel is wired.
type NopBroadcaster struct{}

func (NopBroadcaster) Publish(context.Context, string, any) {}
