// Package inspector provides read-only visibility into a queue's in-flight
// list. Unlike a sweeper that reaps or requeues stuck work, Sweep only
// reports what it finds — recovery policy for entries left in
// queue:ack:{name} by a crashed worker is an out-of-scope concern (see I2).
package inspector

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/durablequeue/lro/internal/adapter/observability"
	"github.com/redis/go-redis/v9"
)

// StaleEntry describes one id observed in a queue's in-flight list whose
// dequeue timestamp is older than the caller's maxAge threshold.
type StaleEntry struct {
	OperationID string
	DequeueTS   int64 // nanoseconds since epoch; 0 if never dequeued
	Age         time.Duration
}

// Sweep lists queue:ack:{name} and returns every entry whose dequeue_ts
// predates now-maxAge. It never mutates the store: no LREM, no HSET, no
// status transition. It is safe to call repeatedly and concurrently with
// normal Queue traffic.
func Sweep(ctx context.Context, client *redis.Client, queue string, maxAge time.Duration) ([]StaleEntry, error) {
	tracer := otel.Tracer("lro.inspector")
	ctx, span := tracer.Start(ctx, "inspector.Sweep")
	defer span.End()
	span.SetAttributes(
		attribute.String("queue", queue),
		attribute.Float64("max_age_seconds", maxAge.Seconds()),
	)

	inflightKey := "queue:ack:" + queue
	ids, err := client.LRange(ctx, inflightKey, 0, -1).Result()
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("list in-flight entries for queue %s: %w", queue, err)
	}

	observability.SetInflightDepth(queue, int64(len(ids)))

	now := time.Now()
	var stale []StaleEntry
	for _, id := range ids {
		dequeueTSStr, err := client.HGet(ctx, "operation:"+id, "dequeue_ts").Result()
		if err != nil && err != redis.Nil {
			span.RecordError(err)
			return nil, fmt.Errorf("read dequeue_ts for operation %s: %w", id, err)
		}

		var dequeueTS int64
		if dequeueTSStr != "" {
			dequeueTS, _ = strconv.ParseInt(dequeueTSStr, 10, 64)
		}

		var age time.Duration
		if dequeueTS > 0 {
			age = now.Sub(time.Unix(0, dequeueTS))
		}
		if age >= maxAge {
			stale = append(stale, StaleEntry{OperationID: id, DequeueTS: dequeueTS, Age: age})
		}
	}

	span.SetAttributes(attribute.Int("stale_count", len(stale)))
	return stale, nil
}
