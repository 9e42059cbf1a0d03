package taskqueue

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPool_RunsSubmittedTasks(t *testing.T) {
	pool := New(2, 8, zerolog.Nop())
	defer pool.Shutdown(context.Background())

	var counter int32
	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		err := pool.Submit(func(context.Context) {
			defer wg.Done()
			atomic.AddInt32(&counter, 1)
		})
		require.NoError(t, err)
	}
	wg.Wait()
	assert.Equal(t, int32(5), atomic.LoadInt32(&counter))
}

func TestPool_QueueFull(t *testing.T) {
	pool := New(1, 1, zerolog.Nop())
	defer pool.Shutdown(context.Background())

	block := make(chan struct{})
	started := make(chan struct{})
	require.NoError(t, pool.Submit(func(context.Context) {
		close(started)
		<-block
	}))
	<-started

	// One slot in the queue, then it must reject.
	require.NoError(t, pool.Submit(func(context.Context) {}))
	err := pool.Submit(func(context.Context) {})
	assert.ErrorIs(t, err, ErrQueueFull)

	close(block)
}

func TestPool_ShutdownDrainsQueuedTasks(t *testing.T) {
	pool := New(1, 8, zerolog.Nop())

	var counter int32
	for i := 0; i < 4; i++ {
		require.NoError(t, pool.Submit(func(context.Context) {
			time.Sleep(10 * time.Millisecond)
			atomic.AddInt32(&counter, 1)
		}))
	}

	require.NoError(t, pool.Shutdown(context.Background()))
	assert.Equal(t, int32(4), atomic.LoadInt32(&counter))
}

func TestPool_SubmitAfterShutdown(t *testing.T) {
	pool := New(1, 1, zerolog.Nop())
	require.NoError(t, pool.Shutdown(context.Background()))

	err := pool.Submit(func(context.Context) {})
	assert.ErrorIs(t, err, ErrShutdown)
}

func TestPool_ShutdownDeadlineCancelsTasks(t *testing.T) {
	pool := New(1, 1, zerolog.Nop())

	taskDone := make(chan struct{})
	require.NoError(t, pool.Submit(func(ctx context.Context) {
		defer close(taskDone)
		<-ctx.Done()
	}))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := pool.Shutdown(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	select {
	case <-taskDone:
	case <-time.After(time.Second):
		t.Fatal("task was not cancelled after the shutdown deadline")
	}
}

func TestPool_ShutdownTwice(t *testing.T) {
	pool := New(1, 1, zerolog.Nop())
	require.NoError(t, pool.Shutdown(context.Background()))
	require.NoError(t, pool.Shutdown(context.Background()))
}
