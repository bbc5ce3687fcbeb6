package cli

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ledgerkeep/ledgerkeep/internal/outbox"
	"github.com/ledgerkeep/ledgerkeep/internal/store"
)

// tenantStatus is the status command's payload.
type tenantStatus struct {
	TenantID     string         `json:"tenant_id"`
	HasSnapshot  bool           `json:"has_snapshot"`
	Collections  map[string]int `json:"collections,omitempty"`
	QueuedItems  int            `json:"queued_items"`
	RecentErrors int            `json:"recent_errors"`
}

// NewStatusCommand creates the status command.
func NewStatusCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "status",
		Short:         "Show tenant snapshot and queue status",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(rootOpts)
			if err != nil {
				return err
			}
			st, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			ctx := context.Background()
			status := tenantStatus{TenantID: cfg.TenantID}

			snap, err := st.Load(ctx, cfg.TenantID)
			switch {
			case errors.Is(err, store.ErrNoSnapshot):
				// Fresh tenant: nothing persisted yet.
			case err != nil:
				return WrapExitError(ExitCommandError, "failed to load snapshot", err)
			default:
				status.HasSnapshot = true
				status.Collections = map[string]int{
					"accounts":     len(snap.Accounts),
					"transactions": len(snap.Transactions),
					"invoices":     len(snap.Invoices),
					"bills":        len(snap.Bills),
					"contracts":    len(snap.Contracts),
					"contacts":     len(snap.Contacts),
					"categories":   len(snap.Categories),
					"projects":     len(snap.Projects),
					"settings":     len(snap.Settings),
				}
				status.RecentErrors = len(snap.ErrorLog)
			}

			status.QueuedItems, err = outbox.New(st).Count(ctx, cfg.TenantID)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to read queue", err)
			}

			out := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout(), Verbose: rootOpts.Verbose}
			if rootOpts.Format == "json" {
				return out.Success(status)
			}
			return printStatus(out, status)
		},
	}
}

func printStatus(out *OutputFormatter, status tenantStatus) error {
	fmt.Fprintf(out.Writer, "Tenant: %s\n", status.TenantID)
	if !status.HasSnapshot {
		fmt.Fprintln(out.Writer, "No snapshot persisted yet.")
	} else {
		w := tabwriter.NewWriter(out.Writer, 0, 4, 2, ' ', 0)
		for _, name := range []string{
			"accounts", "transactions", "invoices", "bills", "contracts",
			"contacts", "categories", "projects", "settings",
		} {
			fmt.Fprintf(w, "%s\t%d\n", name, status.Collections[name])
		}
		if err := w.Flush(); err != nil {
			return err
		}
		fmt.Fprintf(out.Writer, "Recent errors: %d\n", status.RecentErrors)
	}
	fmt.Fprintf(out.Writer, "Queued items: %d\n", status.QueuedItems)
	return nil
}
