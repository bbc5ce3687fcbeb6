// Package sync orchestrates the offline-first synchronization engine:
// outbound delivery of local mutations (direct when online, queued to the
// outbox when not), full-snapshot reconciliation, and inbound real-time
// event application.
//
// Nothing here touches the aggregate state. Inbound changes become
// remote-origin actions dispatched into the engine loop; outbound work
// reads immutable snapshots. The local mutation path never waits on a
// remote call.
package sync

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/ledgerkeep/ledgerkeep/internal/domain"
	"github.com/ledgerkeep/ledgerkeep/internal/obs"
	"github.com/ledgerkeep/ledgerkeep/internal/outbox"
	"github.com/ledgerkeep/ledgerkeep/internal/remote"
	"github.com/ledgerkeep/ledgerkeep/internal/state"
)

// DefaultDebounce is the window that coalesces real-time event bursts
// into a single reconciliation.
const DefaultDebounce = 400 * time.Millisecond

// Dispatcher is the slice of the engine loop the sync engine needs.
type Dispatcher interface {
	Dispatch(a state.Action) bool
	Snapshot() *state.State
}

// Notifier surfaces non-blocking user notices (the one-per-session auth
// warning). The CLI logs them; a UI shell would toast them.
type Notifier func(msg string)

// Engine drives the three sync protocols. Construct with New, register
// HandleApplied as an engine hook, then Start.
type Engine struct {
	dispatcher Dispatcher
	queue      *outbox.Queue
	svc        remote.Service

	userID string

	// mu guards tenantID (rebound by SwitchTenant while workers read it)
	// and warned (the once-per-session auth notice, re-armed on re-auth).
	mu       sync.Mutex
	tenantID string
	warned   bool

	online   atomic.Bool
	authHold atomic.Bool
	notify   Notifier

	debounce time.Duration
	limiter  *rate.Limiter

	work   *workQueue
	wg     sync.WaitGroup
	cancel context.CancelFunc
}

// Option configures the sync engine.
type Option func(*Engine)

// WithDebounce overrides the real-time coalescing window.
func WithDebounce(d time.Duration) Option {
	return func(e *Engine) { e.debounce = d }
}

// WithReplayLimit caps the outbox drain rate in items per second.
func WithReplayLimit(perSecond float64) Option {
	return func(e *Engine) { e.limiter = rate.NewLimiter(rate.Limit(perSecond), 1) }
}

// WithNotifier installs the user-notice sink.
func WithNotifier(n Notifier) Option {
	return func(e *Engine) { e.notify = n }
}

// New wires a sync engine for one tenant session.
func New(dispatcher Dispatcher, queue *outbox.Queue, svc remote.Service, tenantID, userID string, opts ...Option) *Engine {
	e := &Engine{
		dispatcher: dispatcher,
		queue:      queue,
		svc:        svc,
		tenantID:   tenantID,
		userID:     userID,
		debounce:   DefaultDebounce,
		limiter:    rate.NewLimiter(rate.Limit(20), 5),
		notify:     func(msg string) { slog.Warn(msg) },
		work:       newWorkQueue(),
	}
	e.online.Store(true)
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Start launches the outbound worker and, when a channel is given, the
// real-time consumer. Stop with the returned context's cancel via Close.
func (e *Engine) Start(ctx context.Context, ch remote.Channel) {
	ctx, e.cancel = context.WithCancel(ctx)

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		e.outboundLoop(ctx)
	}()

	if ch != nil {
		e.wg.Add(1)
		go func() {
			defer e.wg.Done()
			e.consumeEvents(ctx, ch)
		}()
	}
}

// Close stops the workers and waits for them.
func (e *Engine) Close() {
	e.work.Close()
	if e.cancel != nil {
		e.cancel()
	}
	e.wg.Wait()
}

// HandleApplied is the engine-loop hook. It must not block: the applied
// action lands on the unbounded work queue and the loop moves on.
func (e *Engine) HandleApplied(a state.Action) {
	if a.Origin != state.OriginLocal {
		return
	}
	e.work.Enqueue(a)
}

// tenant returns the session's current tenant id.
func (e *Engine) tenant() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tenantID
}

// SetOnline flips connectivity. Coming back online triggers a resync:
// drain the outbox, then reconcile.
func (e *Engine) SetOnline(ctx context.Context, online bool) {
	was := e.online.Swap(online)
	if online && !was {
		slog.Info("connectivity restored, resyncing")
		go func() {
			if err := e.Drain(ctx); err != nil {
				slog.Error("outbox drain failed", "err", err)
			}
			if err := e.Reconcile(ctx); err != nil {
				slog.Error("reconciliation failed", "err", err)
			}
		}()
	}
}

// Reauthenticated clears the auth suspension after a token refresh and
// resumes replay. The session warning re-arms for the next expiry.
func (e *Engine) Reauthenticated(ctx context.Context) {
	e.authHold.Store(false)
	e.mu.Lock()
	e.warned = false
	e.mu.Unlock()
	go func() {
		if err := e.Drain(ctx); err != nil {
			slog.Error("outbox drain failed", "err", err)
		}
	}()
}

// SwitchTenant clears every cached collection, rebinds the session, and
// loads the new tenant's snapshot. The reset dispatch precedes any fetch
// so stale data can never leak across tenants.
func (e *Engine) SwitchTenant(ctx context.Context, tenantID string) error {
	e.mu.Lock()
	e.tenantID = tenantID
	e.mu.Unlock()
	e.dispatcher.Dispatch(state.Action{Kind: state.TenantReset, Actor: e.userID, Tenant: tenantID})
	return e.Reconcile(ctx)
}

// outboundLoop delivers applied local mutations: direct remote call when
// online, outbox when not.
func (e *Engine) outboundLoop(ctx context.Context) {
	for {
		a, ok := e.work.TryDequeue()
		if ok {
			// Mutations derive from the current snapshot, not the state
			// at dispatch time: last-write-wins means the latest stored
			// content is always the right thing to send.
			muts := mutationsOf(e.dispatcher.Snapshot(), a)
			for _, m := range muts {
				e.deliverOrQueue(ctx, m, e.userID)
			}
			if len(muts) > 0 {
				e.updateQueueDepth(ctx)
			}
			continue
		}

		select {
		case <-ctx.Done():
			return
		case <-e.work.Wait():
			// A stale coalesced signal can fire with the queue already
			// drained; only a closed empty queue ends the loop.
			if e.work.IsClosed() && e.work.Len() == 0 {
				return
			}
		}
	}
}

func (e *Engine) deliverOrQueue(ctx context.Context, m mutation, userID string) {
	if e.online.Load() && !e.authHold.Load() {
		err := e.deliver(ctx, m)
		if err == nil {
			// Anything still queued for this entity is superseded by the
			// delivered content.
			if _, err := e.queue.RemoveByEntity(ctx, e.tenant(), m.EntityType, m.EntityID); err != nil {
				slog.Error("outbox prune failed", "err", err)
			}
			return
		}
		switch remote.ClassOf(err) {
		case remote.FailureValidation:
			slog.Error("remote rejected mutation", "entity", m.EntityType, "id", m.EntityID, "err", err)
			return
		case remote.FailureAuth:
			e.holdForAuth(err)
			// fall through to queueing: the mutation replays after re-auth
		case remote.FailureNetwork:
			slog.Debug("remote unreachable, queueing", "entity", m.EntityType, "id", m.EntityID)
		}
	}
	e.enqueue(ctx, m, userID)
}

func (e *Engine) deliver(ctx context.Context, m mutation) error {
	var err error
	if m.Operation == domain.OpDelete {
		err = e.svc.Delete(ctx, e.tenant(), m.EntityType, m.EntityID)
	} else {
		_, err = e.svc.Save(ctx, e.tenant(), m.EntityType, m.Payload)
	}
	result := "ok"
	if err != nil {
		result = string(remote.ClassOf(err))
	}
	obs.RemoteCalls.WithLabelValues(string(m.Operation), result).Inc()
	return err
}

func (e *Engine) enqueue(ctx context.Context, m mutation, userID string) {
	_, queued, err := e.queue.Enqueue(ctx, outbox.Item{
		TenantID:   e.tenant(),
		UserID:     userID,
		EntityType: m.EntityType,
		EntityID:   m.EntityID,
		Operation:  m.Operation,
		Payload:    m.Payload,
	})
	if err != nil {
		slog.Error("outbox enqueue failed", "entity", m.EntityType, "id", m.EntityID, "err", err)
		return
	}
	if queued {
		slog.Debug("mutation queued", "entity", m.EntityType, "id", m.EntityID, "op", m.Operation)
	}
}

// holdForAuth suspends automatic retries and surfaces the one-per-session
// warning. Local data stays intact; replay resumes on Reauthenticated.
func (e *Engine) holdForAuth(err error) {
	e.authHold.Store(true)
	e.mu.Lock()
	already := e.warned
	e.warned = true
	e.mu.Unlock()
	if already {
		return
	}
	e.notify("session expired: changes are saved locally and will sync after you sign in again")
	slog.Warn("auth failure, sync suspended", "err", err)
}

func (e *Engine) updateQueueDepth(ctx context.Context) {
	n, err := e.queue.Count(ctx, e.tenant())
	if err != nil {
		return
	}
	obs.QueueDepth.Set(float64(n))
}
