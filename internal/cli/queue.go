package cli

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ledgerkeep/ledgerkeep/internal/domain"
	"github.com/ledgerkeep/ledgerkeep/internal/outbox"
)

// NewQueueCommand creates the queue command group.
func NewQueueCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect the durable sync queue",
	}
	cmd.AddCommand(newQueueListCommand(rootOpts))
	cmd.AddCommand(newQueuePruneCommand(rootOpts))
	return cmd
}

func newQueueListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List pending queue items oldest-first",
		Long: `List the tenant's pending sync queue items in replay order.

Each item is one mutation waiting for the remote: the entity it targets,
the operation, how many delivery attempts have been made, and the last
error if any.`,
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

			items, err := outbox.New(st).Pending(context.Background(), cfg.TenantID)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to read queue", err)
			}

			out := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout(), Verbose: rootOpts.Verbose}
			if rootOpts.Format == "json" {
				return out.Success(items)
			}
			return printQueueTable(out, items)
		},
	}
}

func printQueueTable(out *OutputFormatter, items []outbox.Item) error {
	if len(items) == 0 {
		fmt.Fprintln(out.Writer, "Queue is empty.")
		return nil
	}
	w := tabwriter.NewWriter(out.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tENTITY\tOPERATION\tATTEMPTS\tLAST ERROR")
	for _, item := range items {
		lastErr := item.LastError
		if lastErr == "" {
			lastErr = "-"
		}
		fmt.Fprintf(w, "%s\t%s/%s\t%s\t%d\t%s\n",
			item.ID, item.EntityType, item.EntityID, item.Operation, item.AttemptCount, lastErr)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(out.Writer, "\n%d item(s) pending.\n", len(items))
	return nil
}

func newQueuePruneCommand(rootOpts *RootOptions) *cobra.Command {
	var entity string

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Drop pending queue items for an entity",
		Long: `Drop all pending queue items targeting one entity.

Use this to discard mutations that can never be delivered, for example
after the remote permanently rejected them. The entity is named as
<entity-type>/<id>, e.g. "invoices/0192f3a1-...".`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			entityType, entityID, ok := strings.Cut(entity, "/")
			if !ok || entityType == "" || entityID == "" {
				return NewExitError(ExitCommandError, "entity must be <entity-type>/<id>")
			}

			cfg, err := loadConfig(rootOpts)
			if err != nil {
				return err
			}
			st, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			n, err := outbox.New(st).RemoveByEntity(context.Background(), cfg.TenantID, domain.EntityType(entityType), entityID)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to prune queue", err)
			}

			out := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout(), Verbose: rootOpts.Verbose}
			if rootOpts.Format == "json" {
				return out.Success(map[string]any{"pruned": n})
			}
			fmt.Fprintf(out.Writer, "Pruned %d item(s).\n", n)
			return nil
		},
	}

	cmd.Flags().StringVar(&entity, "entity", "", "entity to prune as <entity-type>/<id> (required)")
	_ = cmd.MarkFlagRequired("entity")

	return cmd
}
