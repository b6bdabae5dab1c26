package lro

import (
	"strconv"
)

// Status is the lifecycle state of an OperationRecord. Offer writes New and
// Complete writes Terminated; Pull records dequeue_* fields but leaves the
// status unchanged, so StatusDequeued is never written by this package.
type Status string

const (
	StatusNew        Status = "New"
	StatusDequeued   Status = "Dequeued"
	StatusTerminated Status = "Terminated"
)

// OperationRecord is the canonical durable entity for one long-running
// operation, keyed by "operation:{id}" in the store. It is created once by
// offer and mutated only by pull, ack, and complete; this package never
// deletes it (retention is an external concern).
type OperationRecord struct {
	OperationID string
	Queue       string
	TaskType    string
	Task        string // codec-encoded payload, stored as a string alongside the other fields
	Status      Status

	UserID    string
	PublishTS int64 // nanoseconds since epoch

	DequeueSystemID string
	DequeueUserID   string
	DequeueTS       int64

	AckSystemID string
	AckUserID   string
	AckTS       int64

	Done   bool
	EndTS  int64
	Result []byte // exactly one of Result/Error is set once Done is true
	Error  []byte
}

// fieldMap renders the record as the string-valued hash fields the store
// layout (§6) prescribes: timestamps as decimal ASCII nanoseconds, booleans
// as the literal strings "true"/"false". Only non-zero-valued fields that
// the caller intends to set should be included by callers building partial
// hset_multiple payloads; this method is used for the full offer() write.
func (r OperationRecord) fieldMap() map[string]string {
	return map[string]string{
		"operation_id": r.OperationID,
		"queue":        r.Queue,
		"task_type":    r.TaskType,
		"task":         r.Task,
		"status":       string(r.Status),
		"user_id":      r.UserID,
		"publish_ts":   strconv.FormatInt(r.PublishTS, 10),
	}
}

// operationRecordFromHash decodes a Redis HGETALL result into an
// OperationRecord. Missing fields decode to their zero value; this never
// fails on a partial record (read() must not raise, per §4.3.5).
func operationRecordFromHash(h map[string]string) OperationRecord {
	r := OperationRecord{
		OperationID:     h["operation_id"],
		Queue:           h["queue"],
		TaskType:        h["task_type"],
		Task:            h["task"],
		Status:          Status(h["status"]),
		UserID:          h["user_id"],
		PublishTS:       parseTS(h["publish_ts"]),
		DequeueSystemID: h["dequeue_system_id"],
		DequeueUserID:   h["dequeue_user_id"],
		DequeueTS:       parseTS(h["dequeue_ts"]),
		AckSystemID:     h["ack_system_id"],
		AckUserID:       h["ack_user_id"],
		AckTS:           parseTS(h["ack_ts"]),
		Done:            h["done"] == "true",
		EndTS:           parseTS(h["end_ts"]),
	}
	if v, ok := h["result"]; ok {
		r.Result = []byte(v)
	}
	if v, ok := h["error"]; ok {
		r.Error = []byte(v)
	}
	return r
}

func parseTS(s string) int64 {
	if s == "" {
		return 0
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return v
}

// Timestamp is the {seconds, nanos} split the wire form uses, matching the
// store's decimal-ASCII-nanoseconds convention divided by 1e9.
type Timestamp struct {
	Seconds int64
	Nanos   int32
}

func timestampFromNanos(ns int64) *Timestamp {
	if ns == 0 {
		return nil
	}
	return &Timestamp{Seconds: ns / 1_000_000_000, Nanos: int32(ns % 1_000_000_000)}
}

// Metadata is the fixed projection of task identity carried on the wire form.
type Metadata struct {
	TaskType string
	Task     string
	UserID   string
	Queue    string
	Status   Status
}

// Operation is the externally visible projection of an OperationRecord, the
// shape an Operations RPC's Get returns (§3 wire form).
type Operation struct {
	OperationID string
	Metadata    Metadata
	Done        bool
	Error       []byte
	Response    []byte
	CreationTS  *Timestamp
	StartTS     *Timestamp
	EndTS       *Timestamp
}

// ToOperation projects the durable record into its wire form. Timestamps
// missing from the record surface as nil rather than a zeroed Timestamp.
func (r OperationRecord) ToOperation() Operation {
	return Operation{
		OperationID: r.OperationID,
		Metadata: Metadata{
			TaskType: r.TaskType,
			Task:     r.Task,
			UserID:   r.UserID,
			Queue:    r.Queue,
			Status:   r.Status,
		},
		Done:       r.Done,
		Error:      r.Error,
		Response:   r.Result,
		CreationTS: timestampFromNanos(r.PublishTS),
		StartTS:    timestampFromNanos(r.DequeueTS),
		EndTS:      timestampFromNanos(r.EndTS),
	}
}
