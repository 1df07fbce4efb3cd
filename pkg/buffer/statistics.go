package buffer

import (
	"sync"
	"sync/atomic"
	"time"
)

// Statistics tracks queue activity.
type Statistics struct {
	// Atomic counters for thread-safe updates
	enqueues int64
	dequeues int64
	drops    int64

	// Protected by mutex
	mu        sync.RWMutex
	startTime time.Time
	depth     int64
	maxDepth  int64
}

// NewStatistics creates a new statistics tracker.
func NewStatistics() *Statistics {
	return &Statistics{
		startTime: time.Now(),
	}
}

// Enqueue records a queue enqueue operation.
func (s *Statistics) Enqueue() {
	atomic.AddInt64(&s.enqueues, 1)
}

// Dequeue records a queue dequeue operation.
func (s *Statistics) Dequeue() {
	atomic.AddInt64(&s.dequeues, 1)
}

// DropN records n items dropped by Clear or Close.
func (s *Statistics) DropN(n int64) {
	atomic.AddInt64(&s.drops, n)
}

// UpdateDepth updates the current queue depth.
func (s *Statistics) UpdateDepth(depth int64) {
	s.mu.Lock()
	s.depth = depth
	if depth > s.maxDepth {
		s.maxDepth = depth
	}
	s.mu.Unlock()
}

// Enqueues returns the total number of enqueue operations.
func (s *Statistics) Enqueues() int64 {
	return atomic.LoadInt64(&s.enqueues)
}

// Dequeues returns the total number of dequeue operations.
func (s *Statistics) Dequeues() int64 {
	return atomic.LoadInt64(&s.dequeues)
}

// Drops returns the total number of dropped items.
func (s *Statistics) Drops() int64 {
	return atomic.LoadInt64(&s.drops)
}

// Depth returns the current queue depth.
func (s *Statistics) Depth() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.depth
}

// MaxDepth returns the deepest the queue has been.
func (s *Statistics) MaxDepth() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.maxDepth
}

// Throughput returns the average number of enqueues per second.
func (s *Statistics) Throughput() float64 {
	s.mu.RLock()
	elapsed := time.Since(s.startTime)
	s.mu.RUnlock()

	if elapsed == 0 {
		return 0.0
	}

	return float64(s.Enqueues()) / elapsed.Seconds()
}

// DropRate returns the fraction of enqueued items that were dropped
// (0.0 to 1.0).
func (s *Statistics) DropRate() float64 {
	enqueues := s.Enqueues()
	if enqueues == 0 {
		return 0.0
	}

	return float64(s.Drops()) / float64(enqueues)
}

// Uptime returns how long the queue has been running.
func (s *Statistics) Uptime() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return time.Since(s.startTime)
}

// Reset resets all statistics to zero.
func (s *Statistics) Reset() {
	atomic.StoreInt64(&s.enqueues, 0)
	atomic.StoreInt64(&s.dequeues, 0)
	atomic.StoreInt64(&s.drops, 0)

	s.mu.Lock()
	s.startTime = time.Now()
	s.depth = 0
	s.maxDepth = 0
	s.mu.Unlock()
}

// StatsSummary is a snapshot of all statistics.
type StatsSummary struct {
	Enqueues   int64         `json:"enqueues"`
	Dequeues   int64         `json:"dequeues"`
	Drops      int64         `json:"drops"`
	Depth      int64         `json:"depth"`
	MaxDepth   int64         `json:"max_depth"`
	Throughput float64       `json:"throughput"`
	DropRate   float64       `json:"drop_rate"`
	Uptime     time.Duration `json:"uptime"`
}

// Summary returns a snapshot of all statistics.
func (s *Statistics) Summary() StatsSummary {
	return StatsSummary{
		Enqueues:   s.Enqueues(),
		Dequeues:   s.Dequeues(),
		Drops:      s.Drops(),
		Depth:      s.Depth(),
		MaxDepth:   s.MaxDepth(),
		Throughput: s.Throughput(),
		DropRate:   s.DropRate(),
		Uptime:     s.Uptime(),
	}
}
