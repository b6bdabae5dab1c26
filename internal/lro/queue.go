// Package lro implements the durable, at-least-once long-running-operation
// task queue over a Redis-shaped store: the queue protocol, the
// OperationRecord lifecycle, and the broker facade that front it. See
// SPEC_FULL.md for the full component breakdown.
package lro

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/durablequeue/lro/internal/adapter/observability"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Task is implemented by every payload type a Queue can carry. TypeName
// must be a stable, implementation-declared name for the payload schema —
// renaming it breaks I4 (pulls against a differently-typed consumer fail
// closed rather than silently decoding the wrong shape).
type Task interface {
	TypeName() string
}

// Message is what a successful pull returns: the in-flight id a worker must
// later ack, paired with the decoded task payload.
type Message[T Task] struct {
	AckID string
	Data  T
}

// EventPublisher is a best-effort, fire-and-forget sink for operation
// lifecycle notifications. A Publish failure is logged and never returned
// to a Queue caller — it sits outside every atomic pipeline in this file.
type EventPublisher interface {
	Publish(ctx context.Context, evt OperationEvent) error
}

// AuditSink mirrors terminal OperationRecords somewhere durable for
// retention/analytics outside this package's purge-free model. Like
// EventPublisher, failures here never affect the caller of complete.
type AuditSink interface {
	Mirror(ctx context.Context, record OperationRecord) error
}

// OperationEvent is a non-durable stream notification of a lifecycle
// transition, distinct from the durable OperationRecord.
type OperationEvent struct {
	OperationID string
	Queue       string
	Event       string // "offered" | "pulled" | "acked" | "completed"
	TS          int64
}

func readyKey(name string) string { return "queue:" + name }
func inflightKey(name string) string { return "queue:ack:" + name }
func operationKey(id string) string { return "operation:" + id }

// Queue is the redis-backed implementation of the offer/pull/ack/complete/
// read primitives. Every operation is a single pipelined transaction (two,
// for pull — see Pull) so the invariants in SPEC_FULL.md §3 hold under
// arbitrary interleavings of concurrent callers.
type Queue[T Task] struct {
	client *redis.Client
	name   string
	codec  Codec[T]

	publisher EventPublisher
	audit     AuditSink
}

// Option configures optional, nil-safe ambient concerns on a Queue.
type Option[T Task] func(*Queue[T])

// WithEventPublisher attaches a best-effort lifecycle event publisher.
func WithEventPublisher[T Task](p EventPublisher) Option[T] {
	return func(q *Queue[T]) { q.publisher = p }
}

// WithAuditSink attaches a best-effort terminal-record mirror.
func WithAuditSink[T Task](s AuditSink) Option[T] {
	return func(q *Queue[T]) { q.audit = s }
}

// NewQueue constructs a Queue bound to one Redis client, queue name, and
// codec. codec is typically lro.NewJSONCodec[T]().
func NewQueue[T Task](client *redis.Client, name string, codec Codec[T], opts ...Option[T]) *Queue[T] {
	q := &Queue[T]{client: client, name: name, codec: codec}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

func nowNanos() int64 { return time.Now().UnixNano() }

// Offer encodes item, assigns it a fresh id, and atomically pushes the id
// onto the ready list while writing its OperationRecord. See §4.3.1.
func (q *Queue[T]) Offer(ctx context.Context, item T, lctx Context) (string, error) {
	var buf bytes.Buffer
	if err := q.codec.Encode(item, &buf); err != nil {
		return "", codecErr(err)
	}
	task := buf.String()

	id := uuid.New().String()
	publishTS := nowNanos()

	record := OperationRecord{
		OperationID: id,
		Queue:       q.name,
		TaskType:    item.TypeName(),
		Task:        task,
		Status:      StatusNew,
		UserID:      lctx.UserID(),
		PublishTS:   publishTS,
	}

	_, err := q.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, readyKey(q.name), id)
		pipe.HSet(ctx, operationKey(id), record.fieldMap())
		return nil
	})
	if err != nil {
		return "", storeErr(err)
	}

	observability.RecordOffer(q.name, item.TypeName())
	q.publishEvent(ctx, id, "offered")
	return id, nil
}

// Pull performs the reliable hand-off: atomically move one id from the tail
// of the ready list to the head of the in-flight list, then stamp and read
// back its record. See §4.3.2.
func (q *Queue[T]) Pull(ctx context.Context, lctx Context) (*Message[T], error) {
	id, err := q.client.LMove(ctx, readyKey(q.name), inflightKey(q.name), "RIGHT", "LEFT").Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, storeErr(err)
	}

	var getCmd *redis.MapStringStringCmd
	_, err = q.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, operationKey(id), map[string]string{
			"dequeue_system_id": lctx.SystemID(),
			"dequeue_ts":        fmt.Sprintf("%d", nowNanos()),
			"dequeue_user_id":   lctx.UserID(),
		})
		getCmd = pipe.HGetAll(ctx, operationKey(id))
		return nil
	})
	if err != nil {
		return nil, storeErr(err)
	}
	hash := getCmd.Val()

	var zero T
	wantType := zero.TypeName()
	gotType := hash["task_type"]
	if gotType != wantType {
		// The id is intentionally left in queue:ack:{name}; a correctly
		// typed consumer (or an operator) handles it out of band.
		return nil, invalidTaskTypeErr(wantType, gotType)
	}

	data, ok := q.codec.Decode([]byte(hash["task"]))
	if !ok {
		return nil, internalErr("Failed to decode task")
	}

	observability.RecordPull(q.name, gotType)
	q.publishEvent(ctx, id, "pulled")
	return &Message[T]{AckID: id, Data: data}, nil
}

// Ack confirms a worker accepted responsibility for ackID, removing it from
// the in-flight list. It does not mark the operation done — completion is a
// distinct step. See §4.3.3.
func (q *Queue[T]) Ack(ctx context.Context, ackID string, lctx Context) error {
	queueName, err := q.client.HGet(ctx, operationKey(ackID), "queue").Result()
	if err != nil && err != redis.Nil {
		return storeErr(err)
	}
	if err == redis.Nil || queueName == "" {
		return notFoundErr(fmt.Sprintf("missing operation queue info for ack_id = %s", ackID))
	}

	_, err = q.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, operationKey(ackID), map[string]string{
			"ack_system_id": lctx.SystemID(),
			"ack_ts":        fmt.Sprintf("%d", nowNanos()),
			"ack_user_id":   lctx.UserID(),
		})
		pipe.LRem(ctx, inflightKey(queueName), -1, ackID)
		return nil
	})
	if err != nil {
		return storeErr(err)
	}

	observability.RecordAck(q.name)
	q.publishEvent(ctx, ackID, "acked")
	return nil
}

// Outcome is the Ok(M) | Err(E) result a worker passes to Complete.
type Outcome struct {
	Result    []byte // mutually exclusive with StatusErr
	StatusErr *StatusError
}

// StatusError is the language-neutral error envelope persisted when a task
// fails: {code, message, details}.
type StatusError struct {
	Code    int32  `json:"code"`
	Message string `json:"message"`
	Details []byte `json:"details,omitempty"`
}

// encodeStatus renders a StatusError as the JSON blob stored in the
// record's error field. Marshaling a fixed, known-good struct never fails
// in practice; a failure here degrades to an empty error field rather than
// panicking.
func encodeStatus(e StatusError) []byte {
	b, err := json.Marshal(e)
	if err != nil {
		return nil
	}
	return b
}

// Complete records a terminal outcome for id: done=true, status=Terminated,
// and exactly one of result/error. Complete is idempotent on the field
// level; callers SHOULD call it at most once per id. See §4.3.4.
func (q *Queue[T]) Complete(ctx context.Context, id string, outcome Outcome, _ Context) error {
	fields := map[string]string{
		"done":   "true",
		"status": string(StatusTerminated),
		"end_ts": fmt.Sprintf("%d", nowNanos()),
	}
	if outcome.StatusErr != nil {
		fields["error"] = string(encodeStatus(*outcome.StatusErr))
	} else {
		fields["result"] = string(outcome.Result)
	}

	_, err := q.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, operationKey(id), fields)
		return nil
	})
	if err != nil {
		return storeErr(err)
	}

	outcomeLabel := "ok"
	if outcome.StatusErr != nil {
		outcomeLabel = "error"
	}
	observability.RecordComplete(q.name, outcomeLabel, -1)
	q.publishEvent(ctx, id, "completed")
	q.mirrorAudit(ctx, id)
	return nil
}

// Read returns the full projected OperationRecord for id. It never fails on
// a partial or missing record — missing fields decode to their zero value
// and done defaults to false. See §4.3.5.
func (q *Queue[T]) Read(ctx context.Context, id string) (OperationRecord, error) {
	hash, err := q.client.HGetAll(ctx, operationKey(id)).Result()
	if err != nil {
		return OperationRecord{}, storeErr(err)
	}
	return operationRecordFromHash(hash), nil
}

func (q *Queue[T]) publishEvent(ctx context.Context, id, event string) {
	if q.publisher == nil {
		return
	}
	evt := OperationEvent{OperationID: id, Queue: q.name, Event: event, TS: nowNanos()}
	if err := q.publisher.Publish(ctx, evt); err != nil {
		slog.Warn("lro: failed to publish operation event", slog.String("operation_id", id), slog.String("event", event), slog.Any("error", err))
	}
}

func (q *Queue[T]) mirrorAudit(ctx context.Context, id string) {
	if q.audit == nil {
		return
	}
	record, err := q.Read(ctx, id)
	if err != nil {
		slog.Warn("lro: failed to read record for audit mirror", slog.String("operation_id", id), slog.Any("error", err))
		return
	}
	if err := q.audit.Mirror(ctx, record); err != nil {
		slog.Warn("lro: failed to mirror operation to audit sink", slog.String("operation_id", id), slog.Any("error", err))
	}
}
