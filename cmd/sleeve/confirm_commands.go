package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"sleeve/internal/confirmations"
	"sleeve/internal/identification"
	"sleeve/internal/services"
)

func newConfirmCommand(ctx *commandContext) *cobra.Command {
	var flags scanFlags

	cmd := &cobra.Command{
		Use:   "confirm <release-id>",
		Short: "Record that a scan is a specific catalog release",
		Long: `Record that the scan described by the flags is the given catalog release.

Later scans with the same normalized identifiers report the confirmed release
next to the engine's decision. The decision itself is unchanged.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			releaseID := strings.TrimSpace(args[0])
			ids, _ := identification.Prepare(flags.fields())
			if ids.Empty() {
				return services.Wrap(services.ErrValidation, "cli", "confirm", "scan has no usable identifiers; pass --barcode, --catno or --matrix", nil)
			}

			store, err := ctx.openCatalog()
			if err != nil {
				return err
			}
			defer ctx.closeCatalog()
			release, err := store.Get(cmd.Context(), releaseID)
			if err != nil {
				return err
			}

			confirmationStore, err := ctx.confirmationStore()
			if err != nil {
				return err
			}
			entry := confirmations.NewEntry(ids, release.ID)
			if err := confirmationStore.Store(entry); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Confirmed %s (%s)\n", release.ID, release.DisplayName())
			fmt.Fprintf(cmd.OutOrStdout(), "Fingerprint: %s\n", entry.Fingerprint)
			return nil
		},
	}

	flags.register(cmd)
	return cmd
}

func newConfirmationsCommand(ctx *commandContext) *cobra.Command {
	confirmationsCmd := &cobra.Command{
		Use:   "confirmations",
		Short: "Inspect and manage confirmed identifications",
	}

	confirmationsCmd.AddCommand(newConfirmationsListCommand(ctx))
	confirmationsCmd.AddCommand(newConfirmationsRemoveCommand(ctx))
	confirmationsCmd.AddCommand(newConfirmationsClearCommand(ctx))

	return confirmationsCmd
}

func newConfirmationsListCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List confirmed identifications, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.confirmationStore()
			if err != nil {
				return err
			}
			entries := store.List()
			if jsonOutput {
				if entries == nil {
					entries = []confirmations.Entry{}
				}
				return writeJSON(cmd, entries)
			}

			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "No confirmations recorded")
				return nil
			}
			rows := make([][]string, 0, len(entries))
			for _, entry := range entries {
				rows = append(rows, []string{
					entry.Fingerprint,
					entry.ReleaseID,
					entry.Barcode,
					entry.CatalogNumber,
					entry.MatrixCode,
					entry.ConfirmedAt.Local().Format("2006-01-02 15:04"),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Fingerprint", "Release", "Barcode", "Catalog No", "Matrix", "Confirmed"},
				rows,
				nil,
			))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output confirmations as JSON")
	return cmd
}

func newConfirmationsRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <fingerprint>",
		Short: "Remove one confirmation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.confirmationStore()
			if err != nil {
				return err
			}
			if err := store.Remove(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed confirmation %s\n", strings.TrimSpace(args[0]))
			return nil
		},
	}
}

func newConfirmationsClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every confirmation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.confirmationStore()
			if err != nil {
				return err
			}
			count := store.Count()
			if err := store.Clear(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d confirmations\n", count)
			return nil
		},
	}
}
