package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/xraph/opqueue"
	"github.com/xraph/opqueue/id"
)

const (
	defaultPoolSize     = 4
	defaultPollInterval = 250 * time.Millisecond
)

// Pool runs a fixed number of goroutines that claim ready operations
// from a queue and execute them. Workers sleep for the poll interval
// when nothing is ready.
type Pool struct {
	queue    *opqueue.Queue
	exec     *Executor
	size     int
	interval time.Duration
	logger   *slog.Logger

	mu   sync.Mutex
	stop chan struct{}
	wg   sync.WaitGroup
}

// PoolOption configures a Pool.
type PoolOption func(*Pool)

// WithSize sets the number of worker goroutines.
func WithSize(n int) PoolOption {
	return func(p *Pool) {
		if n > 0 {
			p.size = n
		}
	}
}

// WithPollInterval sets how long an idle worker sleeps between claim
// attempts.
func WithPollInterval(d time.Duration) PoolOption {
	return func(p *Pool) {
		if d > 0 {
			p.interval = d
		}
	}
}

// NewPool creates a Pool draining q through exec.
func NewPool(q *opqueue.Queue, exec *Executor, opts ...PoolOption) *Pool {
	p := &Pool{
		queue:    q,
		exec:     exec,
		size:     defaultPoolSize,
		interval: defaultPollInterval,
		logger:   q.Logger(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start launches the worker goroutines. Starting a running pool is a
// no-op.
func (p *Pool) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stop != nil {
		return
	}
	p.stop = make(chan struct{})
	stop := p.stop

	for range p.size {
		workerID := id.NewWorkerID()
		p.wg.Add(1)
		go p.run(ctx, workerID, stop)
	}

	p.logger.Info("worker pool started",
		slog.Int("workers", p.size),
		slog.Duration("poll_interval", p.interval),
	)
}

// Stop signals all workers and waits for in-flight executions to
// finish. Stopping a stopped pool is a no-op.
func (p *Pool) Stop() {
	p.mu.Lock()
	if p.stop == nil {
		p.mu.Unlock()
		return
	}
	close(p.stop)
	p.stop = nil
	p.mu.Unlock()

	p.wg.Wait()
	p.logger.Info("worker pool stopped")
}

func (p *Pool) run(ctx context.Context, workerID id.WorkerID, stop chan struct{}) {
	defer p.wg.Done()

	logger := p.logger.With(slog.String("worker_id", workerID.String()))
	logger.Debug("worker started")

	for {
		select {
		case <-stop:
			logger.Debug("worker stopping")
			return
		case <-ctx.Done():
			logger.Debug("worker context cancelled")
			return
		default:
		}

		o := p.queue.ClaimReady(ctx)
		if o == nil {
			select {
			case <-stop:
				return
			case <-ctx.Done():
				return
			case <-time.After(p.interval):
			}
			continue
		}

		// Errors are settled by the executor (retry or dead-letter); the
		// worker loop only moves on to the next claim.
		_ = p.exec.Execute(ctx, o)
	}
}
