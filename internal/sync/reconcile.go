package sync

import (
	"context"
	"log/slog"

	"github.com/ledgerkeep/ledgerkeep/internal/obs"
	"github.com/ledgerkeep/ledgerkeep/internal/remote"
	"github.com/ledgerkeep/ledgerkeep/internal/state"
)

// Reconcile fetches the remote snapshot and merges it into the local
// state: local entities are kept by default, remote entities overwrite by
// id. Used on login, tenant switch, explicit refresh, and after bursts of
// real-time events.
//
// The merge runs through the reducer as a remote-origin action, so it
// serializes with every other mutation.
func (e *Engine) Reconcile(ctx context.Context) error {
	snap, err := e.svc.FetchSnapshot(ctx, e.tenant())
	if err != nil {
		switch remote.ClassOf(err) {
		case remote.FailureAuth:
			e.holdForAuth(err)
		case remote.FailureNetwork:
			slog.Debug("reconciliation skipped, remote unreachable", "err", err)
		default:
			slog.Error("reconciliation fetch failed", "err", err)
		}
		return err
	}

	e.dispatcher.Dispatch(state.Action{
		Kind:     state.ReconcileMerge,
		Origin:   state.OriginRemote,
		Actor:    e.userID,
		Snapshot: snapshotFromWire(snap),
	})
	obs.Reconciliations.Inc()
	return nil
}
