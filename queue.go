package opqueue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/xraph/opqueue/backoff"
	"github.com/xraph/opqueue/ext"
	"github.com/xraph/opqueue/id"
	"github.com/xraph/opqueue/op"
	"github.com/xraph/opqueue/store"
)

// Stats holds operation counts by status. Total covers the active queue
// only; DeadLetter is tracked separately.
type Stats struct {
	Total      int
	Pending    int
	Processing int
	Completed  int
	Failed     int
	DeadLetter int
}

// Queue is a durable, priority-ordered queue of deferred operations.
//
// The in-memory list is the source of truth; every mutation writes a
// best-effort snapshot to the configured store. Safe for concurrent use.
// Construct one per process in the composition root and pass it to
// workers — there is no package-level singleton.
type Queue struct {
	cfg        Config
	st         store.Store
	strategy   backoff.Strategy
	extensions *ext.Registry
	logger     *slog.Logger
	now        func() time.Time

	mu     sync.Mutex
	active []*op.Operation
	dead   []*op.Operation
	seq    uint64

	janitorMu   sync.Mutex
	janitorStop chan struct{}
	janitorWG   sync.WaitGroup
}

// New creates a Queue backed by the given snapshot store.
// Call Load to restore persisted state before use.
func New(st store.Store, opts ...Option) (*Queue, error) {
	if st == nil {
		return nil, ErrNoStore
	}

	q := &Queue{
		cfg:      DefaultConfig(),
		st:       st,
		strategy: backoff.Default(),
		logger:   slog.Default(),
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		if err := opt(q); err != nil {
			return nil, err
		}
	}
	if q.extensions == nil {
		q.extensions = ext.NewRegistry(q.logger)
	}
	return q, nil
}

// Logger returns the queue's logger.
func (q *Queue) Logger() *slog.Logger { return q.logger }

// Extensions returns the queue's extension registry.
func (q *Queue) Extensions() *ext.Registry { return q.extensions }

// Config returns a copy of the queue's configuration.
func (q *Queue) Config() Config { return q.cfg }

// Load restores both snapshots from the store. Load failures are logged
// and treated as "start empty" — a corrupt or missing snapshot must not
// prevent the queue from operating.
func (q *Queue) Load(ctx context.Context) {
	active, err := q.st.LoadActive(ctx)
	if err != nil {
		q.logger.Warn("failed to load active snapshot, starting empty",
			slog.String("error", err.Error()))
		active = nil
	}

	dead, err := q.st.LoadDeadLetter(ctx)
	if err != nil {
		q.logger.Warn("failed to load dead-letter snapshot, starting empty",
			slog.String("error", err.Error()))
		dead = nil
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	q.active = active
	q.dead = dead
	q.sortLocked()

	// Resume the sequence counter past everything restored.
	for _, o := range q.active {
		if o.Seq >= q.seq {
			q.seq = o.Seq + 1
		}
	}
	for _, o := range q.dead {
		if o.Seq >= q.seq {
			q.seq = o.Seq + 1
		}
	}

	q.logger.Info("queue loaded",
		slog.Int("active", len(q.active)),
		slog.Int("dead_letter", len(q.dead)),
	)
}

// Enqueue adds a new operation and returns its generated ID.
//
// When the queue is at capacity it first sweeps completed entries older
// than the retention threshold to make room; if that frees nothing,
// Enqueue fails with ErrQueueFull.
func (q *Queue) Enqueue(ctx context.Context, opType string, payload json.RawMessage, opts ...op.Option) (id.OperationID, error) {
	options := op.DefaultOptions()
	options.MaxRetries = q.cfg.MaxRetries
	for _, opt := range opts {
		opt(&options)
	}

	now := q.now()
	o := &op.Operation{
		ID:         id.NewOperationID(),
		Type:       opType,
		Payload:    payload,
		Priority:   options.Priority,
		Status:     op.StatusPending,
		MaxRetries: options.MaxRetries,
		Timeout:    options.Timeout,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	q.mu.Lock()
	if len(q.active) >= q.cfg.MaxQueueSize {
		// Opportunistic sweep of stale completed entries before rejecting.
		removed := q.removeCompletedLocked(now.Add(-q.cfg.CompletedRetention))
		if removed > 0 {
			q.logger.Info("swept completed operations to make room",
				slog.Int("removed", removed))
		}
		if len(q.active) >= q.cfg.MaxQueueSize {
			q.mu.Unlock()
			return id.Nil, fmt.Errorf("%w: %d operations", ErrQueueFull, q.cfg.MaxQueueSize)
		}
	}

	o.Seq = q.seq
	q.seq++
	q.active = append(q.active, o)
	q.sortLocked()
	snapshot := q.activeSnapshotLocked()
	q.mu.Unlock()

	q.saveActive(ctx, snapshot)
	q.extensions.EmitOperationEnqueued(ctx, o.Clone())

	return o.ID, nil
}

// Enqueue marshals a typed payload and enqueues it on q.
func Enqueue[T any](ctx context.Context, q *Queue, opType string, payload T, opts ...op.Option) (id.OperationID, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return id.Nil, fmt.Errorf("marshal payload for operation %q: %w", opType, err)
	}
	return q.Enqueue(ctx, opType, data, opts...)
}

// Dequeue removes the operation with the given ID from the active queue
// and returns it, or nil if it is not present. Absence is an expected
// condition (already processed or removed), not an error.
func (q *Queue) Dequeue(ctx context.Context, opID id.OperationID) *op.Operation {
	q.mu.Lock()
	idx := q.indexLocked(opID)
	if idx < 0 {
		q.mu.Unlock()
		return nil
	}
	removed := q.active[idx]
	q.active = removeAt(q.active, idx)
	snapshot := q.activeSnapshotLocked()
	q.mu.Unlock()

	q.saveActive(ctx, snapshot)
	return removed
}

// Get returns a copy of the operation with the given ID. Read-only.
func (q *Queue) Get(opID id.OperationID) (*op.Operation, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if idx := q.indexLocked(opID); idx >= 0 {
		return q.active[idx].Clone(), true
	}
	return nil, false
}

// UpdateStatus transitions the operation to the given status, recording
// errMsg as the last error when non-empty. Unknown IDs are a logged
// no-op.
//
// A transition to StatusFailed with the retry budget exhausted instead
// force-moves the operation to the dead-letter store.
func (q *Queue) UpdateStatus(ctx context.Context, opID id.OperationID, status op.Status, errMsg string) {
	q.mu.Lock()
	idx := q.indexLocked(opID)
	if idx < 0 {
		q.mu.Unlock()
		q.logger.Warn("status update for unknown operation",
			slog.String("op_id", opID.String()),
			slog.String("status", string(status)),
		)
		return
	}

	o := q.active[idx]
	if errMsg != "" {
		o.LastError = errMsg
	}

	if status == op.StatusFailed && o.RetryCount >= o.MaxRetries {
		q.deadLetterLocked(ctx, idx)
		return
	}

	o.Status = status
	o.UpdatedAt = q.now()
	snapshot := q.activeSnapshotLocked()
	q.mu.Unlock()

	q.saveActive(ctx, snapshot)
}

// IncrementRetry bumps the retry counter, resets the operation to
// pending, stamps the retry time, and returns the backoff delay before
// the next attempt. Fails with ErrOperationNotFound for unknown IDs.
//
// Calling it on an operation whose budget is already exhausted
// dead-letters the operation and returns a zero delay.
func (q *Queue) IncrementRetry(ctx context.Context, opID id.OperationID) (time.Duration, error) {
	q.mu.Lock()
	idx := q.indexLocked(opID)
	if idx < 0 {
		q.mu.Unlock()
		return 0, fmt.Errorf("%w: %s", ErrOperationNotFound, opID.String())
	}

	o := q.active[idx]
	if o.RetryCount >= o.MaxRetries {
		q.deadLetterLocked(ctx, idx)
		return 0, nil
	}

	o.RetryCount++
	o.Status = op.StatusPending
	now := q.now()
	o.LastRetryAt = &now
	o.UpdatedAt = now
	delay := q.strategy.Delay(o.RetryCount)
	snapshot := q.activeSnapshotLocked()
	q.mu.Unlock()

	q.saveActive(ctx, snapshot)
	return delay, nil
}

// ReadyForRetry reports whether the operation may be attempted now:
// pending, and either never retried or past the backoff delay implied
// by its current retry count.
func (q *Queue) ReadyForRetry(o *op.Operation) bool {
	if o.Status != op.StatusPending {
		return false
	}
	if o.LastRetryAt == nil {
		return true
	}
	return q.now().Sub(*o.LastRetryAt) >= q.strategy.Delay(o.RetryCount)
}

// Pending returns copies of all pending operations in consumption order
// (priority-major, insertion-order-minor).
func (q *Queue) Pending() []*op.Operation {
	q.mu.Lock()
	defer q.mu.Unlock()

	result := make([]*op.Operation, 0, len(q.active))
	for _, o := range q.active {
		if o.Status == op.StatusPending {
			result = append(result, o.Clone())
		}
	}
	return result
}

// Ready returns the subset of Pending whose backoff delay has elapsed —
// the list a worker should actually attempt next.
func (q *Queue) Ready() []*op.Operation {
	q.mu.Lock()
	defer q.mu.Unlock()

	var result []*op.Operation
	for _, o := range q.active {
		if q.ReadyForRetry(o) {
			result = append(result, o.Clone())
		}
	}
	return result
}

// ClaimReady atomically claims the first ready operation by moving it to
// processing, and returns a copy. Returns nil when nothing is ready.
func (q *Queue) ClaimReady(ctx context.Context) *op.Operation {
	q.mu.Lock()
	for _, o := range q.active {
		if !q.ReadyForRetry(o) {
			continue
		}
		o.Status = op.StatusProcessing
		o.UpdatedAt = q.now()
		claimed := o.Clone()
		snapshot := q.activeSnapshotLocked()
		q.mu.Unlock()

		q.saveActive(ctx, snapshot)
		return claimed
	}
	q.mu.Unlock()
	return nil
}

// Stats returns operation counts by status.
func (q *Queue) Stats() Stats {
	q.mu.Lock()
	defer q.mu.Unlock()

	s := Stats{
		Total:      len(q.active),
		DeadLetter: len(q.dead),
	}
	for _, o := range q.active {
		switch o.Status {
		case op.StatusPending:
			s.Pending++
		case op.StatusProcessing:
			s.Processing++
		case op.StatusCompleted:
			s.Completed++
		case op.StatusFailed:
			s.Failed++
		}
	}
	return s
}

// DeadLetter returns the dead-letter entries, read through from the
// store so an external inspection sees the durable copy. On read failure
// it logs and falls back to the in-memory list.
func (q *Queue) DeadLetter(ctx context.Context) []*op.Operation {
	ops, err := q.st.LoadDeadLetter(ctx)
	if err == nil {
		return ops
	}
	q.logger.Warn("failed to read dead-letter snapshot, serving in-memory copy",
		slog.String("error", err.Error()))

	q.mu.Lock()
	defer q.mu.Unlock()
	result := make([]*op.Operation, 0, len(q.dead))
	for _, o := range q.dead {
		result = append(result, o.Clone())
	}
	return result
}

// RequeueFromDeadLetter moves a dead-letter entry back into the active
// queue with a fresh retry budget. Returns false when the ID is not in
// the dead-letter store, or when the active queue has no room even
// after sweeping stale completed entries.
func (q *Queue) RequeueFromDeadLetter(ctx context.Context, opID id.OperationID) bool {
	q.mu.Lock()

	idx := -1
	for i, o := range q.dead {
		if o.ID.String() == opID.String() {
			idx = i
			break
		}
	}
	if idx < 0 {
		q.mu.Unlock()
		return false
	}

	if len(q.active) >= q.cfg.MaxQueueSize {
		q.removeCompletedLocked(q.now().Add(-q.cfg.CompletedRetention))
		if len(q.active) >= q.cfg.MaxQueueSize {
			q.mu.Unlock()
			q.logger.Warn("cannot requeue dead-letter entry, active queue at capacity",
				slog.String("op_id", opID.String()))
			return false
		}
	}

	o := q.dead[idx]
	q.dead = removeAt(q.dead, idx)

	o.Status = op.StatusPending
	o.RetryCount = 0
	o.LastError = ""
	o.LastRetryAt = nil
	o.UpdatedAt = q.now()
	o.Seq = q.seq
	q.seq++

	q.active = append(q.active, o)
	q.sortLocked()
	activeSnap := q.activeSnapshotLocked()
	deadSnap := q.deadSnapshotLocked()
	requeued := o.Clone()
	q.mu.Unlock()

	q.saveActive(ctx, activeSnap)
	q.saveDead(ctx, deadSnap)
	q.extensions.EmitOperationRequeued(ctx, requeued)

	q.logger.Info("dead-letter operation requeued",
		slog.String("op_id", opID.String()),
		slog.String("op_type", requeued.Type),
	)
	return true
}

// ClearCompleted removes every completed operation and returns the
// count removed.
func (q *Queue) ClearCompleted(ctx context.Context) int {
	q.mu.Lock()
	removed := q.removeCompletedLocked(q.now().Add(time.Second))
	snapshot := q.activeSnapshotLocked()
	q.mu.Unlock()

	if removed > 0 {
		q.saveActive(ctx, snapshot)
	}
	return removed
}

// Clear drops all active operations and deletes the persisted active
// record entirely (rather than writing an empty document).
func (q *Queue) Clear(ctx context.Context) {
	q.mu.Lock()
	q.active = nil
	q.mu.Unlock()

	if err := q.st.DeleteActive(ctx); err != nil {
		q.logger.Error("failed to delete active record",
			slog.String("error", err.Error()))
	}
}

// ──────────────────────────────────────────────────
// Janitor
// ──────────────────────────────────────────────────

// StartJanitor launches the recurring cleanup of old completed
// operations. Starting an already-running janitor is a no-op.
func (q *Queue) StartJanitor() {
	q.janitorMu.Lock()
	defer q.janitorMu.Unlock()

	if q.janitorStop != nil {
		return
	}
	q.janitorStop = make(chan struct{})
	stop := q.janitorStop

	q.janitorWG.Add(1)
	go func() {
		defer q.janitorWG.Done()

		ticker := time.NewTicker(q.cfg.CleanupInterval)
		defer ticker.Stop()

		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				q.sweep(context.Background())
			}
		}
	}()

	q.logger.Info("janitor started",
		slog.Duration("interval", q.cfg.CleanupInterval),
		slog.Duration("retention", q.cfg.CompletedRetention),
	)
}

// StopJanitor stops the cleanup timer and waits for any in-flight sweep.
// Stopping a stopped janitor is a no-op.
func (q *Queue) StopJanitor() {
	q.janitorMu.Lock()
	if q.janitorStop == nil {
		q.janitorMu.Unlock()
		return
	}
	close(q.janitorStop)
	q.janitorStop = nil
	q.janitorMu.Unlock()

	q.janitorWG.Wait()
}

// sweep removes completed operations older than the retention threshold.
func (q *Queue) sweep(ctx context.Context) {
	q.mu.Lock()
	removed := q.removeCompletedLocked(q.now().Add(-q.cfg.CompletedRetention))
	snapshot := q.activeSnapshotLocked()
	q.mu.Unlock()

	if removed > 0 {
		q.saveActive(ctx, snapshot)
		q.logger.Info("janitor removed completed operations",
			slog.Int("removed", removed))
	}
}

// Close stops the janitor, performs a final flush of both snapshots,
// and notifies Shutdown extensions. Call on graceful shutdown.
func (q *Queue) Close(ctx context.Context) {
	q.StopJanitor()

	q.mu.Lock()
	activeSnap := q.activeSnapshotLocked()
	deadSnap := q.deadSnapshotLocked()
	q.mu.Unlock()

	q.saveActive(ctx, activeSnap)
	q.saveDead(ctx, deadSnap)
	q.extensions.EmitShutdown(ctx)
}

// ──────────────────────────────────────────────────
// Internals
// ──────────────────────────────────────────────────

// deadLetterLocked moves active[idx] to the dead-letter store, evicting
// the oldest entries past the ceiling. Takes over q.mu: the caller must
// hold it; it is released before persistence.
func (q *Queue) deadLetterLocked(ctx context.Context, idx int) {
	o := q.active[idx]
	q.active = removeAt(q.active, idx)

	o.Status = op.StatusDeadLetter
	o.UpdatedAt = q.now()
	q.dead = append(q.dead, o)

	evicted := 0
	for len(q.dead) > q.cfg.MaxDeadLetterSize {
		q.dead[0] = nil
		q.dead = q.dead[1:]
		evicted++
	}

	activeSnap := q.activeSnapshotLocked()
	deadSnap := q.deadSnapshotLocked()
	moved := o.Clone()
	q.mu.Unlock()

	q.saveActive(ctx, activeSnap)
	q.saveDead(ctx, deadSnap)
	q.extensions.EmitOperationDeadLettered(ctx, moved)

	q.logger.Warn("operation moved to dead letter after exhausting retries",
		slog.String("op_id", moved.ID.String()),
		slog.String("op_type", moved.Type),
		slog.Int("retry_count", moved.RetryCount),
		slog.Int("evicted", evicted),
		slog.String("error", moved.LastError),
	)
}

// removeCompletedLocked drops completed operations whose last update is
// before the cutoff and returns the count removed.
func (q *Queue) removeCompletedLocked(cutoff time.Time) int {
	kept := q.active[:0]
	removed := 0
	for _, o := range q.active {
		if o.Status == op.StatusCompleted && o.UpdatedAt.Before(cutoff) {
			removed++
			continue
		}
		kept = append(kept, o)
	}
	// Nil out the truncated tail so the backing array does not keep the
	// removed operations (and their payloads) alive.
	for i := len(kept); i < len(q.active); i++ {
		q.active[i] = nil
	}
	q.active = kept
	return removed
}

// removeAt deletes ops[idx] preserving order and nils the vacated tail
// slot so the backing array does not keep the removed operation alive.
func removeAt(ops []*op.Operation, idx int) []*op.Operation {
	copy(ops[idx:], ops[idx+1:])
	ops[len(ops)-1] = nil
	return ops[:len(ops)-1]
}

func (q *Queue) indexLocked(opID id.OperationID) int {
	key := opID.String()
	for i, o := range q.active {
		if o.ID.String() == key {
			return i
		}
	}
	return -1
}

func (q *Queue) sortLocked() {
	sort.SliceStable(q.active, func(i, k int) bool {
		return q.active[i].Less(q.active[k])
	})
}

func (q *Queue) activeSnapshotLocked() []*op.Operation {
	snap := make([]*op.Operation, len(q.active))
	for i, o := range q.active {
		snap[i] = o.Clone()
	}
	return snap
}

func (q *Queue) deadSnapshotLocked() []*op.Operation {
	snap := make([]*op.Operation, len(q.dead))
	for i, o := range q.dead {
		snap[i] = o.Clone()
	}
	return snap
}

// saveActive writes the active snapshot. Best-effort: failures are
// logged, never returned — the in-memory state stays authoritative and
// the next successful write reconciles the durable copy.
func (q *Queue) saveActive(ctx context.Context, snapshot []*op.Operation) {
	if err := q.st.SaveActive(ctx, snapshot); err != nil {
		q.logger.Error("failed to persist active queue",
			slog.Int("operations", len(snapshot)),
			slog.String("error", err.Error()),
		)
	}
}

// saveDead writes the dead-letter snapshot, same best-effort policy.
func (q *Queue) saveDead(ctx context.Context, snapshot []*op.Operation) {
	if err := q.st.SaveDeadLetter(ctx, snapshot); err != nil {
		q.logger.Error("failed to persist dead-letter queue",
			slog.Int("operations", len(snapshot)),
			slog.String("error", err.Error()),
		)
	}
}
