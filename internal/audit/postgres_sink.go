// Package audit mirrors terminal operations to Postgres for retention and
// analytics outside this module's purge-free store model. Mirroring is
// best-effort: a failure here never affects the Queue call that triggered
// it (see lro.Queue.Complete).
package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/exaring/otelpgx"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/durablequeue/lro/internal/lro"
)

// NewPool creates a pgx connection pool from dsn, traced with OpenTelemetry.
func NewPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	cfg.MaxConns = 10
	cfg.MaxConnIdleTime = 5 * time.Minute
	cfg.ConnConfig.Tracer = otelpgx.NewTracer(
		otelpgx.WithTrimSQLInSpanName(),
	)

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := otelpgx.RecordStats(pool); err != nil {
		slog.Warn("failed to record pgx stats", slog.Any("error", err))
	}
	return pool, nil
}

// PostgresSink implements lro.AuditSink by upserting a row per operation id
// into audit_operations. Intermediate (non-terminal) states are never
// mirrored — Queue.Complete is the only caller.
type PostgresSink struct {
	pool *pgxpool.Pool
}

// NewPostgresSink constructs a sink over an already-configured pool.
func NewPostgresSink(pool *pgxpool.Pool) *PostgresSink {
	return &PostgresSink{pool: pool}
}

// Mirror upserts record's terminal projection, keyed by operation_id.
func (s *PostgresSink) Mirror(ctx context.Context, record lro.OperationRecord) error {
	if s == nil || s.pool == nil {
		return nil
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO audit_operations (operation_id, queue, task_type, status, done, user_id, publish_ts, end_ts)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (operation_id) DO UPDATE SET
		   status = EXCLUDED.status,
		   done = EXCLUDED.done,
		   end_ts = EXCLUDED.end_ts`,
		record.OperationID,
		record.Queue,
		record.TaskType,
		string(record.Status),
		record.Done,
		record.UserID,
		time.Unix(0, record.PublishTS),
		time.Unix(0, record.EndTS),
	)
	return err
}
