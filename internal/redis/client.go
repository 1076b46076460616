package redisclient

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Options carries the connection settings resolved by the config layer. Zero
// values fall back to defaults sized for the booking workload: short per-op
// timeouts because lock and queue calls sit on the request path.
type Options struct {
	Addr      string
	Username  string
	Password  string
	PoolSize  int
	OpTimeout time.Duration
}

func (o Options) withDefaults() Options {
	if o.PoolSize <= 0 {
		o.PoolSize = 10
	}
	if o.OpTimeout <= 0 {
		o.OpTimeout = 2 * time.Second
	}
	return o
}

// NewRedisClient connects the client backing the day locks and the trigger
// queue, verifying connectivity before returning it.
func NewRedisClient(opts Options) (*redis.Client, error) {
	opts = opts.withDefaults()

	rdb := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Username:     opts.Username,
		Password:     opts.Password,
		DB:           0,
		ReadTimeout:  opts.OpTimeout,
		WriteTimeout: opts.OpTimeout,
		PoolSize:     opts.PoolSize,
		MinIdleConns: 1,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return rdb, nil
}
