package realtime

import (
	"context"
	"testing"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Publish must never propagate failures: a dead Redis cannot fail a committed
// transaction.
func TestPublishSwallowsRedisErrors(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "localhost:1"})
	b := NewRedisBroadcaster(client, zap.NewNop())

	b.Publish(context.Background(), "orderCreated", map[string]any{"order_id": 1})
}

func TestPublishSwallowsMarshalErrors(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "localhost:1"})
	b := NewRedisBroadcaster(client, zap.NewNop())

	// channels are not JSON-serializable
	b.Publish(context.Background(), "orderCreated", make(chan int))
}

func TestNopBroadcaster(t *testing.T) {
	NopBroadcaster{}.Publish(context.Background(), "anything", nil)
}
