package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ledgerkeep/ledgerkeep/internal/engine"
	"github.com/ledgerkeep/ledgerkeep/internal/obs"
	"github.com/ledgerkeep/ledgerkeep/internal/outbox"
	"github.com/ledgerkeep/ledgerkeep/internal/remote"
	"github.com/ledgerkeep/ledgerkeep/internal/state"
	"github.com/ledgerkeep/ledgerkeep/internal/store"
	"github.com/ledgerkeep/ledgerkeep/internal/sync"
)

// NewReconcileCommand creates the reconcile command.
func NewReconcileCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile",
		Short: "Replay the queue and merge the remote snapshot",
		Long: `Run one full sync pass against the configured remote.

Pending queue items are replayed oldest-first, then the remote snapshot
is fetched and merged into the local state: local records are kept,
remote records overwrite by id. The merged snapshot is persisted.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReconcile(rootOpts, cmd)
		},
	}
}

func runReconcile(rootOpts *RootOptions, cmd *cobra.Command) error {
	obs.SetupLogging(rootOpts.Verbose)
	obs.Init()

	cfg, err := loadConfig(rootOpts)
	if err != nil {
		return err
	}
	if !cfg.Online() {
		return NewExitError(ExitCommandError, "no remote configured")
	}

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	snap, err := st.Load(ctx, cfg.TenantID)
	if errors.Is(err, store.ErrNoSnapshot) {
		snap = state.New(cfg.TenantID, cfg.UserID)
	} else if err != nil {
		return WrapExitError(ExitCommandError, "failed to load snapshot", err)
	}

	eng := engine.New(snap, st)
	merged := make(chan struct{}, 1)
	eng.OnApplied(func(ap engine.Applied) {
		if ap.Action.Kind == state.ReconcileMerge {
			select {
			case merged <- struct{}{}:
			default:
			}
		}
	})
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = eng.Run(ctx)
	}()

	client := remote.NewClient(cfg.Remote.BaseURL, func() string { return cfg.Remote.Token })
	queue := outbox.New(st)
	syncEng := sync.New(eng, queue, client, cfg.TenantID, cfg.UserID,
		sync.WithReplayLimit(cfg.ReplayLimit))

	if err := syncEng.Drain(ctx); err != nil {
		return WrapExitError(ExitFailure, "queue replay failed", err)
	}
	if err := syncEng.Reconcile(ctx); err != nil {
		return WrapExitError(ExitFailure, "reconciliation failed", err)
	}

	// The merge is applied on the engine loop; wait for it to land.
	select {
	case <-merged:
	case <-time.After(30 * time.Second):
		return NewExitError(ExitFailure, "timed out waiting for merge to apply")
	}
	cancel()
	<-done

	remaining, err := queue.Count(context.Background(), cfg.TenantID)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read queue", err)
	}

	out := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout(), Verbose: rootOpts.Verbose}
	if rootOpts.Format == "json" {
		return out.Success(map[string]any{"queued": remaining})
	}
	fmt.Fprintf(out.Writer, "Reconciled. %d item(s) still queued.\n", remaining)
	return nil
}
