// Package op defines the operation model for the offline queue: the
// Operation struct, its status and priority enums, per-operation options,
// and the typed handler registry used by workers to replay operations.
package op

import (
	"encoding/json"
	"time"

	"github.com/xraph/opqueue/id"
)

// Status represents the lifecycle state of an operation.
type Status string

const (
	// StatusPending means the operation is waiting to be picked up.
	StatusPending Status = "pending"
	// StatusProcessing means a worker is currently replaying the operation.
	StatusProcessing Status = "processing"
	// StatusCompleted means the operation was replayed successfully.
	StatusCompleted Status = "completed"
	// StatusFailed means the last replay attempt failed; the operation
	// stays in the active queue until retried or dead-lettered.
	StatusFailed Status = "failed"
	// StatusDeadLetter means the operation exhausted its retry budget and
	// was moved to the dead-letter store.
	StatusDeadLetter Status = "dead_letter"
)

// Priority determines queue ordering. Within a tier, earlier-enqueued
// operations are returned first.
type Priority string

const (
	// PriorityHigh operations are consumed before all others.
	PriorityHigh Priority = "high"
	// PriorityNormal is the default tier.
	PriorityNormal Priority = "normal"
	// PriorityLow operations are consumed last.
	PriorityLow Priority = "low"
)

// Rank returns the sort rank for the priority: lower ranks order first.
// Unknown values rank as normal.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityLow:
		return 2
	default:
		return 1
	}
}

// DefaultMaxRetries is the retry budget applied when an operation does
// not set its own.
const DefaultMaxRetries = 3

// Operation is a unit of deferred work waiting to be replayed.
type Operation struct {
	ID          id.OperationID  `json:"id"`
	Type        string          `json:"type"`
	Payload     json.RawMessage `json:"payload,omitempty"`
	Priority    Priority        `json:"priority"`
	Status      Status          `json:"status"`
	RetryCount  int             `json:"retry_count"`
	MaxRetries  int             `json:"max_retries"`
	LastError   string          `json:"last_error,omitempty"`
	Timeout     time.Duration   `json:"timeout,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	LastRetryAt *time.Time      `json:"last_retry_at,omitempty"`

	// Seq is assigned at enqueue time and breaks insertion-order ties
	// within a priority tier (creation timestamps can collide).
	Seq uint64 `json:"seq"`
}

// Clone returns a deep copy so callers can mutate without racing with
// the queue's internal state.
func (o *Operation) Clone() *Operation {
	cp := *o
	if o.LastRetryAt != nil {
		t := *o.LastRetryAt
		cp.LastRetryAt = &t
	}
	if o.Payload != nil {
		cp.Payload = append(json.RawMessage(nil), o.Payload...)
	}
	return &cp
}

// Less reports whether o orders before other for consumption purposes:
// priority-major, insertion-order-minor.
func (o *Operation) Less(other *Operation) bool {
	if r1, r2 := o.Priority.Rank(), other.Priority.Rank(); r1 != r2 {
		return r1 < r2
	}
	return o.Seq < other.Seq
}
