// Package taskqueue provides a bounded worker pool with backpressure.
// Submissions beyond the queue capacity fail fast instead of blocking the
// caller, and Shutdown drains queued work within a deadline.
package taskqueue

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"
)

var (
	// ErrQueueFull is returned when the queue has no room for another task.
	ErrQueueFull = errors.New("task queue is full")
	// ErrShutdown is returned for submissions after Shutdown started.
	ErrShutdown = errors.New("task queue is shut down")
)

// Task is a unit of work. The context is the pool's run context; it is
// cancelled only when a Shutdown deadline expires, so draining tasks normally
// run to completion.
type Task func(ctx context.Context)

// Pool runs tasks on a fixed number of workers fed from a bounded queue.
type Pool struct {
	tasks   chan Task
	wg      sync.WaitGroup
	runCtx  context.Context
	cancel  context.CancelFunc
	log     zerolog.Logger
	mu      sync.RWMutex
	closed  bool
	workers int
}

// New starts a pool with the given worker count and queue capacity.
func New(workers, queueSize int, log zerolog.Logger) *Pool {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	p := &Pool{
		tasks:   make(chan Task, queueSize),
		runCtx:  ctx,
		cancel:  cancel,
		log:     log.With().Str("component", "taskqueue").Logger(),
		workers: workers,
	}
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
	p.log.Info().Int("workers", workers).Int("queueSize", queueSize).Msg("worker pool started")
	return p
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()
	for task := range p.tasks {
		task(p.runCtx)
	}
	p.log.Debug().Int("worker", id).Msg("worker stopped")
}

// Submit enqueues a task without blocking. Returns ErrQueueFull when the
// queue is at capacity and ErrShutdown after Shutdown has started.
func (p *Pool) Submit(task Task) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrShutdown
	}
	select {
	case p.tasks <- task:
		return nil
	default:
		return ErrQueueFull
	}
}

// Pending returns the number of queued tasks not yet picked up by a worker.
func (p *Pool) Pending() int {
	return len(p.tasks)
}

// Shutdown stops accepting work and waits for queued and running tasks to
// finish. When ctx expires first, the run context handed to tasks is
// cancelled and the context error returned. Safe to call more than once.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.tasks)
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.log.Info().Msg("worker pool drained")
		return nil
	case <-ctx.Done():
		p.log.Warn().Msg("shutdown deadline reached, cancelling running tasks")
		p.cancel()
		<-done
		return ctx.Err()
	}
}
