// Package main provides the producer-facing entry point: a one-shot CLI
// that enqueues a single EchoTask and prints its operation id.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/durablequeue/lro/internal/adapter/observability"
	"github.com/durablequeue/lro/internal/adapter/storeconn"
	"github.com/durablequeue/lro/internal/audit"
	"github.com/durablequeue/lro/internal/config"
	"github.com/durablequeue/lro/internal/events"
	"github.com/durablequeue/lro/internal/lro"
	"github.com/durablequeue/lro/internal/ratelimiter"
	"github.com/durablequeue/lro/internal/tasks"
)

func main() {
	message := flag.String("message", "hello", "message for the example echo task")
	userID := flag.String("user", "cli", "user id attached to the enqueued operation")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", slog.Any("error", err))
		os.Exit(1)
	}

	logger := observability.SetupLogger(cfg)
	slog.SetDefault(logger)
	observability.InitMetrics()

	ctx := context.Background()

	client, err := storeconn.Connect(ctx, cfg.RedisURL)
	if err != nil {
		slog.Error("redis connection failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer client.Close()

	var opts []lro.Option[tasks.EchoTask]

	if cfg.EventsEnabled() {
		publisher, err := events.NewKafkaPublisher(cfg.KafkaBrokers)
		if err != nil {
			slog.Warn("event publisher init failed, continuing without it", slog.Any("error", err))
		} else {
			defer publisher.Close()
			opts = append(opts, lro.WithEventPublisher[tasks.EchoTask](publisher))
		}
	}

	if cfg.AuditEnabled() {
		pool, err := audit.NewPool(ctx, cfg.AuditDBURL)
		if err != nil {
			slog.Warn("audit sink init failed, continuing without it", slog.Any("error", err))
		} else {
			defer pool.Close()
			opts = append(opts, lro.WithAuditSink[tasks.EchoTask](audit.NewPostgresSink(pool)))
		}
	}

	queue := lro.NewQueue[tasks.EchoTask](client, cfg.QueueName, lro.NewJSONCodec[tasks.EchoTask](), opts...)

	var brokerOpts []lro.BrokerOption[tasks.EchoTask]
	if cfg.RateLimitPerMin > 0 {
		buckets := map[string]ratelimiter.BucketConfig{
			cfg.QueueName: ratelimiter.NewBucketConfigFromPerMinute(cfg.RateLimitPerMin),
		}
		limiter := ratelimiter.NewRedisLuaLimiter(client, nil, buckets)
		brokerOpts = append(brokerOpts, lro.WithRateLimiter[tasks.EchoTask](limiter))
	}

	broker := lro.NewBroker(queue, brokerOpts...)

	lctx := lro.NewContext("lro-broker-cli", *userID)
	op, err := broker.Enqueue(ctx, tasks.EchoTask{Message: *message}, lctx)
	if err != nil {
		slog.Error("enqueue failed", slog.Any("error", err))
		os.Exit(1)
	}

	fmt.Println(op.OperationID)
}
