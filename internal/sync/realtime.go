package sync

import (
	"context"
	"log/slog"
	"time"

	"github.com/ledgerkeep/ledgerkeep/internal/obs"
	"github.com/ledgerkeep/ledgerkeep/internal/remote"
)

// consumeEvents applies the per-tenant real-time feed.
//
// Self-echoes - events originating from this session's user - are
// discarded: the local optimistic update already reflects the change.
//
// Everything else lands in a debounce buffer. A quiet feed flushes single
// events straight into the reducer; a burst collapses into one full
// reconciliation instead of one reducer call per event, bounding update
// frequency under load. The debounce timer resets on every arrival.
func (e *Engine) consumeEvents(ctx context.Context, ch remote.Channel) {
	defer ch.Close()

	var (
		pending []remote.Event
		timer   *time.Timer
		timerC  <-chan time.Time
	)
	resetTimer := func() {
		if timer == nil {
			timer = time.NewTimer(e.debounce)
			timerC = timer.C
			return
		}
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(e.debounce)
	}

	for {
		select {
		case <-ctx.Done():
			return

		case ev, ok := <-ch.Events():
			if !ok {
				e.flushEvents(ctx, pending)
				return
			}
			if ev.UserID == e.userID {
				obs.SelfEchoes.Inc()
				continue
			}
			pending = append(pending, ev)
			resetTimer()

		case <-timerC:
			e.flushEvents(ctx, pending)
			pending = nil
			timerC = nil
			timer = nil
		}
	}
}

func (e *Engine) flushEvents(ctx context.Context, events []remote.Event) {
	if len(events) == 0 {
		return
	}
	if len(events) > 1 {
		slog.Debug("coalescing event burst into reconciliation", "events", len(events))
		if err := e.Reconcile(ctx); err != nil {
			slog.Error("burst reconciliation failed", "err", err)
		}
		return
	}
	for _, ev := range events {
		a, ok := actionFromEvent(ev)
		if !ok {
			slog.Debug("ignoring event for unknown entity type", "entity", ev.EntityType)
			continue
		}
		e.dispatcher.Dispatch(a)
	}
}
