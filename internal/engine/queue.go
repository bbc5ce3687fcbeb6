package engine

import (
	"sync"

	"github.com/ledgerkeep/ledgerkeep/internal/state"
)

// actionQueue is a thread-safe FIFO queue of actions awaiting the reducer.
//
// The queue is unbounded so async producers (sync engine, timers, remote
// event receipt) never block on the local mutation path.
//
// The queue uses a channel for signaling to enable context-aware waiting
// in the Run loop.
type actionQueue struct {
	mu      sync.Mutex
	actions []state.Action
	closed  bool
	signal  chan struct{} // buffered size 1; coalesces multiple signals
}

func newActionQueue() *actionQueue {
	return &actionQueue{
		actions: make([]state.Action, 0, 64),
		signal:  make(chan struct{}, 1),
	}
}

// Enqueue adds an action to the back of the queue.
// Safe from any goroutine. Returns false if the queue is closed.
func (q *actionQueue) Enqueue(a state.Action) bool {
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
func (q *actionQueue) TryDequeue() (state.Action, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.actions) == 0 {
		return state.Action{}, false
	}
	a := q.actions[0]

	// Nil out the slot so the action's payload pointers can be collected
	// before the underlying array is reallocated.
	q.actions[0] = state.Action{}
	if len(q.actions) == 1 {
		q.actions = q.actions[:0]
	} else {
		q.actions = q.actions[1:]
	}
	return a, true
}

// Wait returns a channel that signals when actions may be available.
func (q *actionQueue) Wait() <-chan struct{} {
	return q.signal
}

func (q *actionQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.actions)
}

func (q *actionQueue) IsClosed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

// Close signals that no more actions will be enqueued.
// Wakes any blocked waiters by closing the signal channel.
func (q *actionQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	close(q.signal)
}
