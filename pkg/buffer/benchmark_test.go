package buffer

import (
	"fmt"
	"testing"
)

// BenchmarkQueueEnqueue measures enqueue cost as the backing slice grows.
func BenchmarkQueueEnqueue(b *testing.B) {
	for _, size := range []int{16, 1024} {
		b.Run(fmt.Sprintf("InitialCapacity_%d", size), func(b *testing.B) {
			q, err := NewQueue[int](WithInitialCapacity[int](size))
			if err != nil {
				b.Fatal(err)
			}
			defer q.Close()

			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				_ = q.Enqueue(i)
			}
		})
	}
}

// BenchmarkQueueEnqueueDequeue measures a paired enqueue/dequeue cycle,
// which keeps the queue near-empty the way the dispatch loop does.
func BenchmarkQueueEnqueueDequeue(b *testing.B) {
	q, err := NewQueue[int]()
	if err != nil {
		b.Fatal(err)
	}
	defer q.Close()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = q.Enqueue(i)
		_, _ = q.TryDequeue()
	}
}

// BenchmarkQueueConcurrentProducers measures contended enqueue with a
// single consumer draining.
func BenchmarkQueueConcurrentProducers(b *testing.B) {
	q, err := NewQueue[int]()
	if err != nil {
		b.Fatal(err)
	}

	drained := make(chan struct{})
	go func() {
		defer close(drained)
		for {
			if _, ok := q.Dequeue(); !ok {
				return
			}
		}
	}()

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			_ = q.Enqueue(i)
			i++
		}
	})
	b.StopTimer()

	_ = q.Close()
	<-drained
}
