package sync

import (
	"context"
	"log/slog"

	"github.com/ledgerkeep/ledgerkeep/internal/domain"
	"github.com/ledgerkeep/ledgerkeep/internal/obs"
	"github.com/ledgerkeep/ledgerkeep/internal/outbox"
	"github.com/ledgerkeep/ledgerkeep/internal/remote"
)

// Drain replays the outbox oldest-first, rate-limited.
//
// Per-item outcomes:
//   - success: item removed (acked)
//   - network failure: attempt recorded, item stays for the next cycle;
//     later items for the SAME entity are skipped to preserve per-entity
//     order, items for other entities still proceed
//   - validation failure: item removed and logged - an invalid payload
//     cannot succeed later
//   - auth failure: the drain stops entirely until re-authentication
func (e *Engine) Drain(ctx context.Context) error {
	if e.authHold.Load() {
		return nil
	}

	items, err := e.queue.Pending(ctx, e.tenant())
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	slog.Info("draining outbox", "pending", len(items))

	type entityKey struct {
		t  domain.EntityType
		id string
	}
	blocked := make(map[entityKey]bool)

	for _, item := range items {
		if err := e.limiter.Wait(ctx); err != nil {
			return err
		}
		key := entityKey{item.EntityType, item.EntityID}
		if blocked[key] {
			continue
		}

		err := e.deliver(ctx, mutation{
			EntityType: item.EntityType,
			EntityID:   item.EntityID,
			Operation:  item.Operation,
			Payload:    item.Payload,
		})
		if err == nil {
			if err := e.queue.Remove(ctx, item.ID); err != nil {
				slog.Error("outbox ack failed", "id", item.ID, "err", err)
			}
			obs.ReplayOutcomes.WithLabelValues("acked").Inc()
			continue
		}

		switch remote.ClassOf(err) {
		case remote.FailureAuth:
			e.holdForAuth(err)
			e.updateQueueDepth(ctx)
			return nil
		case remote.FailureValidation:
			slog.Error("queued mutation rejected, dropping", "id", item.ID, "entity", item.EntityType, "err", err)
			if err := e.queue.Remove(ctx, item.ID); err != nil {
				slog.Error("outbox drop failed", "id", item.ID, "err", err)
			}
			obs.ReplayOutcomes.WithLabelValues("dropped").Inc()
		default:
			if err := e.queue.MarkAttempt(ctx, item.ID, err.Error()); err != nil {
				slog.Error("outbox attempt mark failed", "id", item.ID, "err", err)
			}
			blocked[key] = true
			obs.ReplayOutcomes.WithLabelValues("failed").Inc()
		}
	}

	e.updateQueueDepth(ctx)
	return nil
}

// PendingItems exposes the tenant's queued mutations for inspection (CLI
// queue command, tests).
func (e *Engine) PendingItems(ctx context.Context) ([]outbox.Item, error) {
	return e.queue.Pending(ctx, e.tenant())
}
