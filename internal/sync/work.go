package sync

import (
	gosync "sync"

	"github.com/ledgerkeep/ledgerkeep/internal/state"
)

// workQueue is a thread-safe FIFO of applied local actions awaiting
// outbound delivery.
//
// Unbounded, so the engine-loop hook never blocks and never spills work
// onto ad-hoc goroutines that could reorder mutations or outlive Close.
//
// The signal channel is buffered size 1 and coalesces wake-ups, same as
// the engine's action queue.
type workQueue struct {
	mu      gosync.Mutex
	actions []state.Action
	closed  bool
	signal  chan struct{}
}

func newWorkQueue() *workQueue {
	return &workQueue{
		actions: make([]state.Action, 0, 16),
		signal:  make(chan struct{}, 1),
	}
}

// Enqueue adds an action to the back of the queue. Safe from any
// goroutine. Returns false if the queue is closed.
func (q *workQueue) Enqueue(a state.Action) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}
	q.actions = append(q.actions, a)

	select {
	case q.signal <- struct{}{}:
	default:
	}
	return true
}

// TryDequeue attempts to dequeue without blocking.
func (q *workQueue) TryDequeue() (state.Action, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.actions) == 0 {
		return state.Action{}, false
	}
	a := q.actions[0]
	q.actions[0] = state.Action{}
	if len(q.actions) == 1 {
		q.actions = q.actions[:0]
	} else {
		q.actions = q.actions[1:]
	}
	return a, true
}

// Wait returns a channel that signals when actions may be available.
func (q *workQueue) Wait() <-chan struct{} {
	return q.signal
}

func (q *workQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.actions)
}

func (q *workQueue) IsClosed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

// Close rejects further enqueues and wakes any blocked waiter.
func (q *workQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	close(q.signal)
}
