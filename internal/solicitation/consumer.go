package solicitation

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	redisclient "github.com/medbook/appointment-booking/internal/redis"
)

// Processor is what the consumer drives; satisfied by *Service.
type Processor interface {
	Process(ctx context.Context, id uuid.UUID) (*Solicitation, error)
	Reprocess(ctx context.Context, id uuid.UUID) error
}

// Consumer pulls trigger messages off the queue and runs the state machine.
// One consumer handles one message at a time; run more worker processes for
// parallelism across solicitation ids.
type Consumer struct {
	queue       redisclient.TriggerQueue
	svc         Processor
	pollTimeout time.Duration
	log         zerolog.Logger
}

func NewConsumer(queue redisclient.TriggerQueue, svc Processor, pollTimeout time.Duration, log zerolog.Logger) *Consumer {
	return &Consumer{
		queue:       queue,
		svc:         svc,
		pollTimeout: pollTimeout,
		log:         log,
	}
}

// Run blocks until ctx is cancelled.
func (c *Consumer) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		id, err := c.queue.Dequeue(ctx, c.pollTimeout)
		if err != nil {
			if errors.Is(err, redisclient.ErrQueueEmpty) {
				continue
			}
			if ctx.Err() != nil {
				return
			}
			c.log.Error().Err(err).Msg("trigger dequeue failed")
			time.Sleep(time.Second)
			continue
		}

		c.handle(ctx, id)
	}
}

func (c *Consumer) handle(ctx context.Context, id uuid.UUID) {
	sol, err := c.svc.Process(ctx, id)
	if err == nil {
		c.log.Info().
			Str("solicitation_id", id.String()).
			Str("status", string(sol.Status)).
			Msg("trigger processed")
		return
	}

	c.log.Error().
		Err(err).
		Str("solicitation_id", id.String()).
		Msg("trigger processing failed, reprocessing")

	if err := c.svc.Reprocess(ctx, id); err != nil {
		// The solicitation may be stuck in PROCESSING now; the periodic
		// sweep picks it up.
		c.log.Error().
			Err(err).
			Str("solicitation_id", id.String()).
			Msg("reprocess failed")
	}
}
