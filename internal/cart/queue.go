package cart

import (
	"context"
	"log"
	"sync"
	"time"
)

const writeTimeout = 10 * time.Second

type job struct {
	key  string
	desc string
	run  func(ctx context.Context) error
}

// syncQueue runs remote writes in enqueue order per key, one goroutine per
// busy key. Different keys proceed independently. Each job is retried up to
// attempts times with linear backoff; report sees the final outcome.
type syncQueue struct {
	attempts int
	backoff  time.Duration
	report   func(j job, err error)

	mu       sync.Mutex
	pending  map[string][]job
	active   map[string]bool
	inflight int
	idle     chan struct{}
}

func newSyncQueue(attempts int, backoff time.Duration, report func(job, error)) *syncQueue {
	if attempts < 1 {
		attempts = 1
	}
	idle := make(chan struct{})
	close(idle)
	return &syncQueue{
		attempts: attempts,
		backoff:  backoff,
		report:   report,
		pending:  make(map[string][]job),
		active:   make(map[string]bool),
		idle:     idle,
	}
}

func (q *syncQueue) enqueue(key, desc string, run func(ctx context.Context) error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.inflight == 0 {
		q.idle = make(chan struct{})
	}
	q.inflight++
	q.pending[key] = append(q.pending[key], job{key: key, desc: desc, run: run})
	if !q.active[key] {
		q.active[key] = true
		go q.drain(key)
	}
}

func (q *syncQueue) drain(key string) {
	for {
		q.mu.Lock()
		jobs := q.pending[key]
		if len(jobs) == 0 {
			delete(q.pending, key)
			delete(q.active, key)
			q.mu.Unlock()
			return
		}
		j := jobs[0]
		q.pending[key] = jobs[1:]
		q.mu.Unlock()

		err := q.runWithRetry(j)
		if q.report != nil {
			q.report(j, err)
		}

		q.mu.Lock()
		q.inflight--
		if q.inflight == 0 {
			close(q.idle)
		}
		q.mu.Unlock()
	}
}

func (q *syncQueue) runWithRetry(j job) error {
	var err error
	for attempt := 1; attempt <= q.attempts; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		err = j.run(ctx)
		cancel()
		if err == nil {
			return nil
		}
		if attempt < q.attempts {
			log.Printf("[cart] WARN: %s failed (attempt %d/%d): %v", j.desc, attempt, q.attempts, err)
			time.Sleep(q.backoff * time.Duration(attempt))
		}
	}
	return err
}

// busy reports whether any write is queued or running.
func (q *syncQueue) busy() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.inflight > 0
}

func (q *syncQueue) pendingCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.inflight
}

// flush blocks until the queue is empty or ctx is done.
func (q *syncQueue) flush(ctx context.Context) error {
	q.mu.Lock()
	idle := q.idle
	q.mu.Unlock()
	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
