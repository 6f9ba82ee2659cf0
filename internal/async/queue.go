// Package async runs analysis requests on a bounded worker pool so HTTP
// handlers can accept work without waiting on the model.
package async

import (
	"context"
	"sync"
	"time"

	"log/slog"

	"github.com/famcart/receipt-analyzer/constants"
	"github.com/famcart/receipt-analyzer/internal/entity"
)

// Runner is the piece of the analysis service the queue needs.
type Runner interface {
	Run(ctx context.Context, req entity.AnalysisRequest) error
}

type Queue interface {
	Enqueue(ctx context.Context, req entity.AnalysisRequest) error
	Shutdown(ctx context.Context)
}

type AnalysisQueue struct {
	runner  Runner
	logger  *slog.Logger
	workers int
	timeout time.Duration

	ch   chan entity.AnalysisRequest
	wg   sync.WaitGroup
	once sync.Once

	// done releases senders blocked on a full channel during shutdown;
	// senders tracks them so ch is only closed once no send is in flight.
	done    chan struct{}
	senders sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

type Option func(*AnalysisQueue)

func WithWorkers(n int) Option {
	return func(q *AnalysisQueue) {
		if n > 0 {
			q.workers = n
		}
	}
}
func WithQueueSize(n int) Option {
	return func(q *AnalysisQueue) {
		if n > 0 {
			q.ch = make(chan entity.AnalysisRequest, n)
		}
	}
}
func WithRunTimeout(d time.Duration) Option {
	return func(q *AnalysisQueue) {
		if d > 0 {
			q.timeout = d
		}
	}
}

func NewAnalysisQueue(runner Runner, logger *slog.Logger, opts ...Option) *AnalysisQueue {
	q := &AnalysisQueue{
		runner:  runner,
		logger:  logger,
		workers: 4,
		timeout: 3 * time.Minute,
		ch:      make(chan entity.AnalysisRequest, 256),
		done:    make(chan struct{}),
	}
	for _, o := range opts {
		o(q)
	}
	q.start()
	return q
}

func (q *AnalysisQueue) start() {
	q.once.Do(func() {
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go func(workerID int) {
				defer q.wg.Done()
				q.logger.Info("worker started", "worker_id", workerID)

				for req := range q.ch {
					ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
					err := q.runner.Run(ctx, req)
					cancel()

					if err != nil {
						q.logger.Error("analysis failed", "worker_id", workerID, "family_id", req.FamilyID, "status", string(constants.RunStatusFailed), "error", err)
					} else {
						q.logger.Info("analysis completed", "worker_id", workerID, "family_id", req.FamilyID, "status", string(constants.RunStatusDone))
					}
				}

				q.logger.Info("worker stopped", "worker_id", workerID)
			}(i + 1)
		}
	})
}

func (q *AnalysisQueue) Enqueue(_ context.Context, req entity.AnalysisRequest) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		q.logger.Warn("cannot enqueue: queue is shutting down", "family_id", req.FamilyID)
		return nil
	}
	q.senders.Add(1)
	q.mu.Unlock()
	defer q.senders.Done()

	select {
	case q.ch <- req:
		q.logger.Info("queued analysis request", "family_id", req.FamilyID, "status", string(constants.RunStatusQueued))
		return nil
	default:
	}

	// Full channel: block outside the mutex so Shutdown stays reachable.
	q.logger.Warn("queue full, applying backpressure", "family_id", req.FamilyID)
	select {
	case q.ch <- req:
		q.logger.Info("queued analysis request", "family_id", req.FamilyID, "status", string(constants.RunStatusQueued))
	case <-q.done:
		q.logger.Warn("cannot enqueue: queue is shutting down", "family_id", req.FamilyID)
	}
	return nil
}

func (q *AnalysisQueue) Shutdown(ctx context.Context) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.done)
	q.mu.Unlock()

	// Release any sender blocked on a full channel, then close it so the
	// workers drain and stop.
	q.senders.Wait()
	close(q.ch)

	drained := make(chan struct{})
	go func() { defer close(drained); q.wg.Wait() }()

	select {
	case <-ctx.Done():
		q.logger.Warn("shutdown interrupted by context")
	case <-drained:
		q.logger.Info("queue drained, shutdown complete")
	}
}
