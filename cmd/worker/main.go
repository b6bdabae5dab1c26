// Package main provides the worker application entry point: it pulls
// EchoTask operations from a queue, reverses the message, and completes
// the operation with the result.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/durablequeue/lro/internal/adapter/observability"
	"github.com/durablequeue/lro/internal/adapter/storeconn"
	"github.com/durablequeue/lro/internal/audit"
	"github.com/durablequeue/lro/internal/config"
	"github.com/durablequeue/lro/internal/events"
	"github.com/durablequeue/lro/internal/inspector"
	"github.com/durablequeue/lro/internal/lro"
	"github.com/durablequeue/lro/internal/tasks"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", slog.Any("error", err))
		os.Exit(1)
	}

	logger := observability.SetupLogger(cfg)
	slog.SetDefault(logger)

	observability.InitMetrics()
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		addr := fmt.Sprintf(":%d", cfg.MetricsPort)
		if err := http.ListenAndServe(addr, mux); err != nil {
			slog.Error("worker metrics server error", slog.Any("error", err))
		}
	}()

	shutdownTracer, err := observability.SetupTracing(cfg)
	if err != nil {
		slog.Error("failed to setup tracing", slog.Any("error", err))
	}
	defer func() {
		if shutdownTracer != nil {
			_ = shutdownTracer(context.Background())
		}
	}()

	slog.Info("starting worker", slog.String("env", cfg.AppEnv), slog.String("queue", cfg.QueueName))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

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
	lctx := lro.NewContext("lro-worker", "")

	go runInspector(ctx, client, cfg.QueueName)

	slog.Info("worker started, polling for operations")
	for {
		select {
		case <-ctx.Done():
			slog.Info("worker stopped")
			return
		default:
		}

		msg, err := queue.Pull(ctx, lctx)
		if err != nil {
			slog.Error("pull failed", slog.Any("error", err))
			time.Sleep(time.Second)
			continue
		}
		if msg == nil {
			time.Sleep(200 * time.Millisecond)
			continue
		}

		processEcho(ctx, queue, msg, lctx)
	}
}

func processEcho(ctx context.Context, queue *lro.Queue[tasks.EchoTask], msg *lro.Message[tasks.EchoTask], lctx lro.Context) {
	if err := queue.Ack(ctx, msg.AckID, lctx); err != nil {
		slog.Error("ack failed", slog.String("ack_id", msg.AckID), slog.Any("error", err))
		return
	}

	result := tasks.EchoResult{Reversed: reverse(msg.Data.Message)}
	b, err := json.Marshal(result)
	outcome := lro.Outcome{Result: b}
	if err != nil {
		outcome = lro.Outcome{StatusErr: &lro.StatusError{Code: 13, Message: err.Error()}}
	}

	if err := queue.Complete(ctx, msg.AckID, outcome, lctx); err != nil {
		slog.Error("complete failed", slog.String("ack_id", msg.AckID), slog.Any("error", err))
	}
}

func reverse(s string) string {
	r := []rune(s)
	for i, j := 0, len(r)-1; i < j; i, j = i+1, j-1 {
		r[i], r[j] = r[j], r[i]
	}
	return string(r)
}

// runInspector periodically sweeps the queue's in-flight list and surfaces
// entries stuck well past a normal processing time. It never mutates the
// store; the operator decides what to do about what it reports.
func runInspector(ctx context.Context, client *redis.Client, queueName string) {
	const maxAge = 10 * time.Minute
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stale, err := inspector.Sweep(ctx, client, queueName, maxAge)
			if err != nil {
				slog.Warn("inspector sweep failed", slog.Any("error", err))
				continue
			}
			if len(stale) > 0 {
				slog.Warn("stale in-flight operations observed", slog.Int("count", len(stale)), slog.String("queue", queueName))
			}
		}
	}
}
