package redisclient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrQueueEmpty is returned by Dequeue when the poll timeout elapses with no
// message. Callers just poll again.
var ErrQueueEmpty = errors.New("trigger queue empty")

// TriggerQueue is the transport that carries solicitation ids from the API
// (submit/reprocess) to the allocation worker. A Redis list gives at-least-once
// delivery; the consumer is idempotent, so duplicates are harmless.
type TriggerQueue interface {
	Enqueue(ctx context.Context, solicitationID uuid.UUID) error
	Dequeue(ctx context.Context, timeout time.Duration) (uuid.UUID, error)
}

type redisTriggerQueue struct {
	client *redis.Client
	key    string
}

func NewRedisTriggerQueue(client *redis.Client, key string) TriggerQueue {
	return &redisTriggerQueue{
		client: client,
		key:    key,
	}
}

func (q *redisTriggerQueue) Enqueue(ctx context.Context, solicitationID uuid.UUID) error {
	if err := q.client.LPush(ctx, q.key, solicitationID.String()).Err(); err != nil {
		return fmt.Errorf("enqueue trigger: %w", err)
	}
	return nil
}

func (q *redisTriggerQueue) Dequeue(ctx context.Context, timeout time.Duration) (uuid.UUID, error) {
	vals, err := q.client.BRPop(ctx, timeout, q.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return uuid.Nil, ErrQueueEmpty
		}
		return uuid.Nil, fmt.Errorf("dequeue trigger: %w", err)
	}

	// BRPOP returns [key, value]
	if len(vals) != 2 {
		return uuid.Nil, fmt.Errorf("dequeue trigger: unexpected reply length %d", len(vals))
	}

	id, err := uuid.Parse(vals[1])
	if err != nil {
		return uuid.Nil, fmt.Errorf("dequeue trigger: bad solicitation id %q: %w", vals[1], err)
	}

	return id, nil
}
