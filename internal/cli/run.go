package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ledgerkeep/ledgerkeep/internal/engine"
	"github.com/ledgerkeep/ledgerkeep/internal/obs"
	"github.com/ledgerkeep/ledgerkeep/internal/outbox"
	"github.com/ledgerkeep/ledgerkeep/internal/remote"
	"github.com/ledgerkeep/ledgerkeep/internal/state"
	"github.com/ledgerkeep/ledgerkeep/internal/store"
	"github.com/ledgerkeep/ledgerkeep/internal/sync"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Offline bool
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the ledger engine",
		Long: `Start the ledgerkeep engine for the configured tenant.

The engine loads the tenant's snapshot from SQLite (creating the database
if it doesn't exist) and starts the single-writer action loop. With a
remote configured it also starts the sync worker: local changes are pushed
to the backend, failures land in the durable queue, and a startup drain
plus reconciliation brings both sides level.

Example:
  ledgerkeep run -c ledgerkeep.yaml
  ledgerkeep run -c ledgerkeep.yaml --offline --verbose`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEngine(opts, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Offline, "offline", false, "start without pushing to the remote")

	return cmd
}

func runEngine(opts *RunOptions, cmd *cobra.Command) error {
	obs.SetupLogging(opts.Verbose)
	obs.Init()

	cfg, err := loadConfig(opts.RootOptions)
	if err != nil {
		return err
	}

	slog.Info("opening database", "path", cfg.StorePath)
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()

	// Setup signal handling for graceful shutdown.
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			slog.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	snap, err := st.Load(ctx, cfg.TenantID)
	if errors.Is(err, store.ErrNoSnapshot) {
		slog.Info("no snapshot, starting fresh", "tenant", cfg.TenantID)
		snap = state.New(cfg.TenantID, cfg.UserID)
	} else if err != nil {
		return WrapExitError(ExitCommandError, "failed to load snapshot", err)
	}

	eng := engine.New(snap, st)

	if cfg.Online() {
		client := remote.NewClient(cfg.Remote.BaseURL, func() string { return cfg.Remote.Token })
		queue := outbox.New(st)
		syncEng := sync.New(eng, queue, client, cfg.TenantID, cfg.UserID,
			sync.WithDebounce(cfg.Debounce()),
			sync.WithReplayLimit(cfg.ReplayLimit),
			sync.WithNotifier(func(msg string) {
				fmt.Fprintln(cmd.ErrOrStderr(), msg)
			}))
		eng.OnApplied(func(ap engine.Applied) { syncEng.HandleApplied(ap.Action) })

		syncEng.Start(ctx, nil)
		defer syncEng.Close()
		syncEng.SetOnline(ctx, !opts.Offline)
		if !opts.Offline {
			go func() {
				if drainErr := syncEng.Drain(ctx); drainErr != nil {
					slog.Error("startup drain failed", "err", drainErr)
				}
				if recErr := syncEng.Reconcile(ctx); recErr != nil {
					slog.Error("startup reconciliation failed", "err", recErr)
				}
			}()
		}
	}

	if cfg.MetricsAddr != "" {
		go func() {
			slog.Info("metrics listening", "addr", cfg.MetricsAddr)
			if httpErr := http.ListenAndServe(cfg.MetricsAddr, obs.Handler()); httpErr != nil {
				slog.Error("metrics server stopped", "err", httpErr)
			}
		}()
	}

	slog.Info("engine starting", "tenant", cfg.TenantID, "db", cfg.StorePath)
	fmt.Fprintln(cmd.OutOrStdout(), "Engine started. Press Ctrl-C to stop.")

	if err := eng.Run(ctx); err != nil && err != context.Canceled && err != context.DeadlineExceeded {
		return WrapExitError(ExitFailure, "engine error", err)
	}

	slog.Info("engine stopped gracefully")
	return nil
}
