package inspector

import (
	"context"
	"fmt"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestSweepFindsOnlyEntriesOlderThanMaxAge(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	defer mr.Close()
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	ctx := context.Background()
	const queue = "my-queue"

	stale := time.Now().Add(-time.Hour).UnixNano()
	fresh := time.Now().UnixNano()

	seed(t, ctx, client, queue, "stale-1", stale)
	seed(t, ctx, client, queue, "fresh-1", fresh)

	entries, err := Sweep(ctx, client, queue, 10*time.Minute)
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected exactly one stale entry, got %d: %+v", len(entries), entries)
	}
	if entries[0].OperationID != "stale-1" {
		t.Fatalf("expected stale-1, got %s", entries[0].OperationID)
	}
}

func TestSweepNeverMutatesTheInFlightList(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	defer mr.Close()
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	ctx := context.Background()
	const queue = "my-queue"
	seed(t, ctx, client, queue, "stale-1", time.Now().Add(-time.Hour).UnixNano())

	if _, err := Sweep(ctx, client, queue, time.Minute); err != nil {
		t.Fatalf("sweep failed: %v", err)
	}

	depth, err := client.LLen(ctx, "queue:ack:"+queue).Result()
	if err != nil {
		t.Fatalf("llen failed: %v", err)
	}
	if depth != 1 {
		t.Fatalf("expected sweep to leave the in-flight list untouched, depth=%d", depth)
	}
}

func TestSweepOnEmptyQueueReturnsNoEntries(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	defer mr.Close()
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	entries, err := Sweep(context.Background(), client, "empty-queue", time.Minute)
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected no entries, got %d", len(entries))
	}
}

func seed(t *testing.T, ctx context.Context, client *redis.Client, queue, id string, dequeueTS int64) {
	t.Helper()
	if err := client.LPush(ctx, "queue:ack:"+queue, id).Err(); err != nil {
		t.Fatalf("lpush failed: %v", err)
	}
	if err := client.HSet(ctx, "operation:"+id, map[string]string{
		"dequeue_ts": fmt.Sprintf("%d", dequeueTS),
	}).Err(); err != nil {
		t.Fatalf("hset failed: %v", err)
	}
}
