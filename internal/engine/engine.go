package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/ledgerkeep/ledgerkeep/internal/obs"
	"github.com/ledgerkeep/ledgerkeep/internal/state"
)

// Persister saves the aggregate state after each applied action. The
// SQLite store implements it; tests use in-memory fakes.
type Persister interface {
	Save(ctx context.Context, s *state.State) error
}

// Applied describes one action the reducer accepted, stamped with its
// logical sequence number.
type Applied struct {
	Seq    int64
	Action state.Action
}

// Engine is the single-writer loop owning the aggregate state.
//
// All mutations happen in the Run loop goroutine. External callers use
// Dispatch() to submit actions; async work (remote calls, queue drains,
// timers) communicates back into the system only by dispatching further
// actions, never by touching the state.
//
// Thread-safety model:
//   - Dispatch(): safe from any goroutine
//   - Run(): must be called from exactly one goroutine
//   - Snapshot(): safe from any goroutine (returns a deep copy)
type Engine struct {
	mu    sync.RWMutex
	st    *state.State
	queue *actionQueue
	clock *Clock

	persist Persister
	hooks   []func(Applied)
	now     func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithNow overrides the timestamp source for dispatched actions.
// Tests use a deterministic clock so audit trails compare exactly.
func WithNow(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithClock resumes the logical clock from a persisted position.
func WithClock(c *Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// New creates an engine owning the given state. persist may be nil when
// durability is handled elsewhere (tests, one-shot CLI commands).
func New(st *state.State, persist Persister, opts ...Option) *Engine {
	e := &Engine{
		st:      st,
		queue:   newActionQueue(),
		clock:   NewClock(),
		persist: persist,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// OnApplied registers a hook observing applied actions. Hooks run
// synchronously on the Run goroutine and must not block; the sync engine
// hands the action off to its own goroutine immediately.
//
// Register before calling Run.
func (e *Engine) OnApplied(fn func(Applied)) {
	e.hooks = append(e.hooks, fn)
}

// Dispatch submits an action for sequential application. Locally created
// records without an id get one here, before anything observes the
// action. Safe from any goroutine; never blocks on I/O. Returns false
// once the engine stopped.
func (e *Engine) Dispatch(a state.Action) bool {
	a = state.EnsureIDs(a)
	if a.At.IsZero() {
		a.At = e.now()
	}
	return e.queue.Enqueue(a)
}

// Run processes dispatched actions in FIFO order until the context ends
// or Stop is called. Must be called from exactly one goroutine.
func (e *Engine) Run(ctx context.Context) error {
	slog.Info("engine starting", "tenant", e.st.TenantID)

	for {
		a, ok := e.queue.TryDequeue()
		if ok {
			e.apply(ctx, a)
			continue
		}

		select {
		case <-ctx.Done():
			slog.Info("engine stopping: context cancelled")
			e.queue.Close()
			return ctx.Err()

		case <-e.queue.Wait():
			// Signal received - loop back to TryDequeue. The signal
			// channel closes when the queue closes, so this case fires
			// immediately after Stop. A stale coalesced signal can also
			// fire with the queue already drained; only a closed empty
			// queue stops the loop.
			if e.queue.IsClosed() && e.queue.Len() == 0 {
				slog.Info("engine stopping: queue closed")
				return nil
			}
		}
	}
}

// Stop gracefully shuts down the engine. Closes the action queue, which
// causes Run to return after draining.
func (e *Engine) Stop() {
	e.queue.Close()
}

func (e *Engine) apply(ctx context.Context, a state.Action) {
	e.mu.Lock()
	applied := state.Apply(e.st, a)
	e.mu.Unlock()

	if !applied {
		slog.Debug("action rejected", "kind", a.Kind, "origin", a.Origin.String())
		return
	}

	seq := e.clock.Next()
	obs.ActionsApplied.WithLabelValues(string(a.Kind), a.Origin.String()).Inc()

	if e.persist != nil {
		if err := e.persist.Save(ctx, e.st); err != nil {
			// Log and continue: durability catches up on the next apply,
			// and stopping the loop would lose the in-memory state too.
			slog.Error("snapshot persist failed", "err", err, "seq", seq)
		}
	}

	ev := Applied{Seq: seq, Action: a}
	for _, fn := range e.hooks {
		fn(ev)
	}
}

// Snapshot returns a deep copy of the current state.
func (e *Engine) Snapshot() *state.State {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.st.Clone()
}

// QueueLen reports the number of actions awaiting application.
func (e *Engine) QueueLen() int {
	return e.queue.Len()
}
