// Package storeconn builds the Redis client connection used by this
// module's cmd binaries, with startup connectivity retried through an
// exponential backoff. Backoff here is strictly an ambient, outside-the-core
// concern: no Queue or Broker operation retries internally.
package storeconn

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/redis/go-redis/v9"
)

// Connect parses redisURL and blocks until a PING succeeds, ctx is done, or
// 30 seconds of retrying have elapsed, retrying with exponential backoff in
// between attempts.
func Connect(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = 200 * time.Millisecond
	expo.MaxInterval = 5 * time.Second
	expo.MaxElapsedTime = 30 * time.Second

	bo := backoff.WithContext(expo, ctx)
	op := func() error {
		if err := client.Ping(ctx).Err(); err != nil {
			slog.Warn("redis not yet reachable, retrying", slog.Any("error", err))
			return err
		}
		return nil
	}

	if err := backoff.Retry(op, bo); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return client, nil
}
