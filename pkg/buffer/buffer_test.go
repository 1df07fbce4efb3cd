package buffer

import (
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeki-aitech/vda5050-client/errors"
	"github.com/zeki-aitech/vda5050-client/metric"
)

func TestQueue_FIFOOrder(t *testing.T) {
	q, err := NewQueue[int]()
	require.NoError(t, err)
	defer q.Close()

	for i := 1; i <= 5; i++ {
		require.NoError(t, q.Enqueue(i))
	}

	assert.Equal(t, 5, q.Size())

	for i := 1; i <= 5; i++ {
		v, ok := q.TryDequeue()
		require.True(t, ok)
		assert.Equal(t, i, v)
	}

	assert.True(t, q.IsEmpty())
}

func TestQueue_TryDequeueEmpty(t *testing.T) {
	q, err := NewQueue[string]()
	require.NoError(t, err)
	defer q.Close()

	v, ok := q.TryDequeue()
	assert.False(t, ok)
	assert.Equal(t, "", v)
}

func TestQueue_DequeueBlocksUntilEnqueue(t *testing.T) {
	q, err := NewQueue[int]()
	require.NoError(t, err)
	defer q.Close()

	got := make(chan int, 1)
	go func() {
		if v, ok := q.Dequeue(); ok {
			got <- v
		}
	}()

	select {
	case v := <-got:
		t.Fatalf("Dequeue returned %d before any enqueue", v)
	case <-time.After(50 * time.Millisecond):
	}

	require.NoError(t, q.Enqueue(7))

	select {
	case v := <-got:
		assert.Equal(t, 7, v)
	case <-time.After(time.Second):
		t.Fatal("Dequeue did not wake after enqueue")
	}
}

func TestQueue_CloseWakesBlockedDequeue(t *testing.T) {
	q, err := NewQueue[int]()
	require.NoError(t, err)

	done := make(chan bool, 1)
	go func() {
		_, ok := q.Dequeue()
		done <- ok
	}()

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, q.Close())

	select {
	case ok := <-done:
		assert.False(t, ok, "Dequeue should report closed")
	case <-time.After(time.Second):
		t.Fatal("Dequeue did not wake after close")
	}
}

func TestQueue_CloseDropsPending(t *testing.T) {
	var dropped []int
	q, err := NewQueue[int](WithDropCallback[int](func(item int) {
		dropped = append(dropped, item)
	}))
	require.NoError(t, err)

	for i := 1; i <= 3; i++ {
		require.NoError(t, q.Enqueue(i))
	}

	require.NoError(t, q.Close())

	assert.Equal(t, []int{1, 2, 3}, dropped)
	assert.Equal(t, int64(3), q.Stats().Drops())

	_, ok := q.Dequeue()
	assert.False(t, ok)
	_, ok = q.TryDequeue()
	assert.False(t, ok)
}

func TestQueue_EnqueueAfterClose(t *testing.T) {
	q, err := NewQueue[int]()
	require.NoError(t, err)
	require.NoError(t, q.Close())

	err = q.Enqueue(1)
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))
	assert.ErrorIs(t, err, errors.ErrClientClosed)
}

func TestQueue_CloseTwice(t *testing.T) {
	q, err := NewQueue[int]()
	require.NoError(t, err)

	require.NoError(t, q.Close())
	require.NoError(t, q.Close())
}

func TestQueue_Clear(t *testing.T) {
	var dropped []int
	q, err := NewQueue[int](WithDropCallback[int](func(item int) {
		dropped = append(dropped, item)
	}))
	require.NoError(t, err)
	defer q.Close()

	for i := 1; i <= 4; i++ {
		require.NoError(t, q.Enqueue(i))
	}

	q.Clear()

	assert.Equal(t, 0, q.Size())
	assert.Equal(t, []int{1, 2, 3, 4}, dropped)
	assert.Equal(t, int64(4), q.Stats().Drops())

	// The queue stays usable after Clear.
	require.NoError(t, q.Enqueue(5))
	v, ok := q.TryDequeue()
	require.True(t, ok)
	assert.Equal(t, 5, v)
}

func TestQueue_CompactionKeepsOrder(t *testing.T) {
	q, err := NewQueue[int](WithInitialCapacity[int](8))
	require.NoError(t, err)
	defer q.Close()

	// Push the head index well past the compaction threshold with
	// interleaved enqueues and dequeues.
	next := 0
	for i := 0; i < 100; i++ {
		require.NoError(t, q.Enqueue(i))
	}
	for i := 0; i < 70; i++ {
		v, ok := q.TryDequeue()
		require.True(t, ok)
		require.Equal(t, next, v)
		next++
	}
	for i := 100; i < 150; i++ {
		require.NoError(t, q.Enqueue(i))
	}
	for {
		v, ok := q.TryDequeue()
		if !ok {
			break
		}
		require.Equal(t, next, v)
		next++
	}

	assert.Equal(t, 150, next)
}

func TestQueue_Statistics(t *testing.T) {
	q, err := NewQueue[int]()
	require.NoError(t, err)
	defer q.Close()

	for i := 0; i < 3; i++ {
		require.NoError(t, q.Enqueue(i))
	}
	_, _ = q.TryDequeue()

	stats := q.Stats()
	assert.Equal(t, int64(3), stats.Enqueues())
	assert.Equal(t, int64(1), stats.Dequeues())
	assert.Equal(t, int64(2), stats.Depth())
	assert.Equal(t, int64(3), stats.MaxDepth())
	assert.Equal(t, 0.0, stats.DropRate())
	assert.Greater(t, stats.Throughput(), 0.0)

	summary := stats.Summary()
	assert.Equal(t, int64(3), summary.Enqueues)
	assert.Equal(t, int64(2), summary.Depth)
	assert.Equal(t, int64(3), summary.MaxDepth)

	stats.Reset()
	assert.Equal(t, int64(0), stats.Enqueues())
	assert.Equal(t, int64(0), stats.MaxDepth())
}

func TestQueue_ConcurrentProducers(t *testing.T) {
	q, err := NewQueue[int]()
	require.NoError(t, err)

	const producers = 8
	const perProducer = 200

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				assert.NoError(t, q.Enqueue(p*perProducer+i))
			}
		}(p)
	}

	done := make(chan int)
	go func() {
		seen := 0
		for seen < producers*perProducer {
			if _, ok := q.Dequeue(); !ok {
				break
			}
			seen++
		}
		done <- seen
	}()

	wg.Wait()

	select {
	case seen := <-done:
		assert.Equal(t, producers*perProducer, seen)
	case <-time.After(5 * time.Second):
		t.Fatal("consumer did not drain the queue")
	}

	require.NoError(t, q.Close())
	assert.Equal(t, int64(producers*perProducer), q.Stats().Enqueues())
	assert.Equal(t, int64(producers*perProducer), q.Stats().Dequeues())
}

func TestQueue_WithMetrics(t *testing.T) {
	registry := metric.NewRegistry()

	q, err := NewQueue[int](WithMetrics[int](registry, "inbound"))
	require.NoError(t, err)
	defer q.Close()

	require.NoError(t, q.Enqueue(1))
	require.NoError(t, q.Enqueue(2))
	_, ok := q.TryDequeue()
	require.True(t, ok)

	assert.Equal(t, 2.0, testutil.ToFloat64(q.metrics.enqueues))
	assert.Equal(t, 1.0, testutil.ToFloat64(q.metrics.dequeues))
	assert.Equal(t, 1.0, testutil.ToFloat64(q.metrics.depth))

	// A second queue under the same prefix conflicts in the registry.
	_, err = NewQueue[int](WithMetrics[int](registry, "inbound"))
	assert.Error(t, err)
}

func TestQueue_WithInitialCapacity(t *testing.T) {
	q, err := NewQueue[int](WithInitialCapacity[int](64))
	require.NoError(t, err)
	defer q.Close()

	assert.GreaterOrEqual(t, cap(q.items), 64)
	assert.Equal(t, 0, q.Size())
}
