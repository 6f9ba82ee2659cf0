package async

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/famcart/receipt-analyzer/internal/entity"
)

type recordingRunner struct {
	mu   sync.Mutex
	runs []entity.AnalysisRequest
	done chan struct{}
}

func (r *recordingRunner) Run(_ context.Context, req entity.AnalysisRequest) error {
	r.mu.Lock()
	r.runs = append(r.runs, req)
	r.mu.Unlock()
	if r.done != nil {
		r.done <- struct{}{}
	}
	return nil
}

func TestQueueRunsEnqueuedRequests(t *testing.T) {
	runner := &recordingRunner{done: make(chan struct{}, 2)}
	q := NewAnalysisQueue(runner, slog.New(slog.DiscardHandler), WithWorkers(2), WithQueueSize(8))

	require.NoError(t, q.Enqueue(context.Background(), entity.AnalysisRequest{FamilyID: "fam-1"}))
	require.NoError(t, q.Enqueue(context.Background(), entity.AnalysisRequest{FamilyID: "fam-2"}))

	for i := 0; i < 2; i++ {
		select {
		case <-runner.done:
		case <-time.After(2 * time.Second):
			t.Fatal("enqueued request was never run")
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	q.Shutdown(ctx)

	runner.mu.Lock()
	defer runner.mu.Unlock()
	families := map[string]bool{}
	for _, req := range runner.runs {
		families[req.FamilyID] = true
	}
	assert.True(t, families["fam-1"])
	assert.True(t, families["fam-2"])
}

func TestQueueEnqueueAfterShutdownIsDropped(t *testing.T) {
	runner := &recordingRunner{}
	q := NewAnalysisQueue(runner, slog.New(slog.DiscardHandler), WithWorkers(1))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	q.Shutdown(ctx)

	require.NoError(t, q.Enqueue(context.Background(), entity.AnalysisRequest{FamilyID: "fam-1"}))

	runner.mu.Lock()
	defer runner.mu.Unlock()
	assert.Empty(t, runner.runs)
}

type gatedRunner struct {
	release chan struct{}
	mu      sync.Mutex
	runs    int
}

func (r *gatedRunner) Run(_ context.Context, _ entity.AnalysisRequest) error {
	<-r.release
	r.mu.Lock()
	r.runs++
	r.mu.Unlock()
	return nil
}

func TestQueueShutdownReleasesBlockedEnqueue(t *testing.T) {
	runner := &gatedRunner{release: make(chan struct{})}
	q := NewAnalysisQueue(runner, slog.New(slog.DiscardHandler), WithWorkers(1), WithQueueSize(1))

	// First request is taken by the worker (which then parks in Run), the
	// second fills the buffer, so the third blocks in Enqueue.
	require.NoError(t, q.Enqueue(context.Background(), entity.AnalysisRequest{FamilyID: "fam-1"}))
	require.NoError(t, q.Enqueue(context.Background(), entity.AnalysisRequest{FamilyID: "fam-2"}))

	enqueueDone := make(chan struct{})
	go func() {
		_ = q.Enqueue(context.Background(), entity.AnalysisRequest{FamilyID: "fam-3"})
		close(enqueueDone)
	}()
	time.Sleep(50 * time.Millisecond)

	shutdownDone := make(chan struct{})
	go func() {
		q.Shutdown(context.Background())
		close(shutdownDone)
	}()

	// Shutdown must release the blocked sender even while the worker is busy.
	select {
	case <-enqueueDone:
	case <-time.After(2 * time.Second):
		t.Fatal("Enqueue stayed blocked during shutdown")
	}

	close(runner.release)
	select {
	case <-shutdownDone:
	case <-time.After(2 * time.Second):
		t.Fatal("Shutdown never completed")
	}

	runner.mu.Lock()
	defer runner.mu.Unlock()
	assert.Equal(t, 2, runner.runs)
}

func TestQueueShutdownDrainsPendingWork(t *testing.T) {
	runner := &recordingRunner{}
	q := NewAnalysisQueue(runner, slog.New(slog.DiscardHandler), WithWorkers(1), WithQueueSize(16))

	for i := 0; i < 5; i++ {
		require.NoError(t, q.Enqueue(context.Background(), entity.AnalysisRequest{FamilyID: "fam-1"}))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	q.Shutdown(ctx)

	runner.mu.Lock()
	defer runner.mu.Unlock()
	assert.Len(t, runner.runs, 5)
}
