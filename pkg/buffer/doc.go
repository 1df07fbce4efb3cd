// Package buffer provides a generic, thread-safe unbounded FIFO queue with
// built-in statistics and optional Prometheus metrics.
//
// # Overview
//
// The queue decouples producers from a single consumer loop: Enqueue never
// blocks (the backing slice grows as needed), while Dequeue blocks until an
// item arrives or the queue is closed. This fits dispatch paths where the
// producer is a transport callback that must not stall.
//
//	q, err := buffer.NewQueue[*Event]()
//	if err != nil {
//	    return err
//	}
//
//	// Producer side
//	_ = q.Enqueue(msg)
//
//	// Consumer loop
//	for {
//	    item, ok := q.Dequeue()
//	    if !ok {
//	        return // queue closed
//	    }
//	    handle(item)
//	}
//
// # Close Semantics
//
// Close drops any pending items rather than draining them: blocked Dequeue
// callers wake up and return false, later Enqueue calls fail with an
// invalid-class error, and the dropped items are counted in statistics and
// passed to the drop callback if one was configured. Closing twice is a
// no-op.
//
// # Statistics and Metrics
//
// Statistics are always collected and available via Stats() with no
// external dependencies. Prometheus export is enabled separately:
//
//	q, err := buffer.NewQueue[[]byte](
//	    buffer.WithMetrics[[]byte](registry, "inbound"),
//	)
//
// Both track independently so statistics keep working in deployments
// without a metrics registry.
//
// # Thread Safety
//
// All operations are safe for concurrent use. Multiple producers may
// enqueue concurrently; multiple consumers may dequeue concurrently,
// though the dispatch path this package backs runs a single consumer.
package buffer
