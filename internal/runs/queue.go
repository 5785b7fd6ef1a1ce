package runs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/magalhaesnegocios/renda-pro/internal/pipeline"
)

// Handler processes one queued run. It receives the run and the uploaded
// files, and returns the completed run fields (summary, report) by
// mutating the passed run before returning, or an error to mark the run
// failed. Failed runs are never retried: every extraction call costs
// money, and a retry must be an explicit decision by the user.
type Handler func(ctx context.Context, run *Run, files []pipeline.File) error

type queued struct {
	id    string
	files []pipeline.File
}

// Queue serializes analysis runs through a single worker goroutine, so the
// extraction backend sees at most one request at a time regardless of how
// many uploads arrive concurrently. Suitable for a single-instance
// deployment; the store it feeds is in-memory anyway.
type Queue struct {
	runChan   chan queued
	closeChan chan struct{}
	wg        sync.WaitGroup
	mu        sync.RWMutex
	store     *Store
	closed    bool
}

// NewQueue creates an in-memory run queue. bufferSize determines how many
// runs can wait before Enqueue blocks.
func NewQueue(bufferSize int, store *Store) *Queue {
	return &Queue{
		runChan:   make(chan queued, bufferSize),
		closeChan: make(chan struct{}),
		store:     store,
	}
}

// Enqueue registers a pending run for the uploaded files and hands it to
// the worker. It returns the run ID; the caller reads all further state
// through the store, so it never shares run memory with the worker.
func (q *Queue) Enqueue(ctx context.Context, files []pipeline.File) (string, error) {
	q.mu.RLock()
	closed := q.closed
	q.mu.RUnlock()
	if closed {
		return "", fmt.Errorf("queue is closed")
	}

	run := &Run{
		ID:         uuid.NewString(),
		Status:     StatusPending,
		CreatedAt:  time.Now(),
		FilesTotal: len(files),
	}
	if err := q.store.Save(run); err != nil {
		return "", fmt.Errorf("failed to save run: %w", err)
	}

	// The send happens without holding the lock, so Stop can always
	// acquire it and close closeChan to unblock a full buffer.
	select {
	case q.runChan <- queued{id: run.ID, files: files}:
		return run.ID, nil
	case <-ctx.Done():
		return "", ctx.Err()
	case <-q.closeChan:
		return "", fmt.Errorf("queue is closed")
	}
}

// Start launches the single worker. It returns immediately; processing
// continues until the context is cancelled or the queue is stopped.
func (q *Queue) Start(ctx context.Context, handler Handler) error {
	q.mu.RLock()
	if q.closed {
		q.mu.RUnlock()
		return fmt.Errorf("queue is closed")
	}
	q.mu.RUnlock()

	q.wg.Add(1)
	go q.worker(ctx, handler)
	return nil
}

func (q *Queue) worker(ctx context.Context, handler Handler) {
	defer q.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-q.closeChan:
			return
		case item := <-q.runChan:
			q.process(ctx, item, handler)
		}
	}
}

func (q *Queue) process(ctx context.Context, item queued, handler Handler) {
	// The worker operates on its own copy from the store, never on memory
	// an HTTP handler still holds.
	run, err := q.store.Get(item.id)
	if err != nil {
		return
	}

	run.Status = StatusRunning
	now := time.Now()
	run.StartedAt = &now
	_ = q.store.Save(run)

	err = handler(ctx, run, item.files)

	finished := time.Now()
	run.FinishedAt = &finished

	// Progress updates went through the store while the handler ran; carry
	// them over so the final save doesn't roll them back.
	if cur, getErr := q.store.Get(run.ID); getErr == nil {
		run.FilesDone = cur.FilesDone
	}

	if err != nil {
		run.Status = StatusFailed
		run.Error = err.Error()
	} else {
		run.Status = StatusCompleted
		run.Error = ""
		run.FilesDone = run.FilesTotal
	}
	_ = q.store.Save(run)
}

// Stop shuts the queue down and waits for an in-flight run to finish, up
// to the context deadline.
func (q *Queue) Stop(ctx context.Context) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	close(q.closeChan)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
