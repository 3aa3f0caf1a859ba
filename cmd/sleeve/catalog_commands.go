package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"sleeve/internal/catalog"
	"sleeve/internal/config"
	"sleeve/internal/services"
)

func newCatalogCommand(ctx *commandContext) *cobra.Command {
	catalogCmd := &cobra.Command{
		Use:   "catalog",
		Short: "Manage the release catalog",
	}

	catalogCmd.AddCommand(newCatalogImportCommand(ctx))
	catalogCmd.AddCommand(newCatalogListCommand(ctx))
	catalogCmd.AddCommand(newCatalogShowCommand(ctx))
	catalogCmd.AddCommand(newCatalogRemoveCommand(ctx))

	return catalogCmd
}

func newCatalogImportCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file|->",
		Short: "Import releases from a JSON array or JSON-lines file",
		Long: `Import releases from a JSON array or JSON-lines file; "-" reads stdin.

Rows are upserted by id. When any row is malformed nothing is written and
every bad row is reported.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reader, closeFn, err := openInput(cmd, args[0])
			if err != nil {
				return err
			}
			defer closeFn()

			store, err := ctx.openCatalog()
			if err != nil {
				return err
			}
			defer ctx.closeCatalog()

			count, err := store.ImportJSON(cmd.Context(), reader)
			if err != nil {
				return err
			}
			total, err := store.Count(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d releases (%d in catalog)\n", count, total)
			return nil
		},
	}
}

func openInput(cmd *cobra.Command, arg string) (io.Reader, func(), error) {
	arg = strings.TrimSpace(arg)
	if arg == "-" {
		return cmd.InOrStdin(), func() {}, nil
	}
	path, err := config.ExpandPath(arg)
	if err != nil {
		return nil, nil, err
	}
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, services.Wrap(services.ErrNotFound, "cli", "open input", path, err)
		}
		return nil, nil, fmt.Errorf("open %s: %w", path, err)
	}
	return file, func() { _ = file.Close() }, nil
}

func newCatalogListCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List catalog releases",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openCatalog()
			if err != nil {
				return err
			}
			defer ctx.closeCatalog()

			releases, err := store.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if jsonOutput {
				if releases == nil {
					releases = []catalog.Release{}
				}
				return writeJSON(cmd, releases)
			}

			out := cmd.OutOrStdout()
			if len(releases) == 0 {
				fmt.Fprintln(out, "Catalog is empty")
				return nil
			}
			rows := make([][]string, 0, len(releases))
			for _, release := range releases {
				year := ""
				if release.Year > 0 {
					year = strconv.Itoa(release.Year)
				}
				rows = append(rows, []string{
					release.ID,
					release.DisplayName(),
					year,
					release.Barcode,
					release.CatalogNumber,
					yesNo(release.HasMatrixOrIFPI),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"ID", "Release", "Year", "Barcode", "Catalog No", "Pressing Codes"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft, alignLeft, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "Maximum releases to list (0 for all)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output releases as JSON")
	return cmd
}

func newCatalogShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one catalog release",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openCatalog()
			if err != nil {
				return err
			}
			defer ctx.closeCatalog()

			release, err := store.Get(cmd.Context(), strings.TrimSpace(args[0]))
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, release)
			}

			out := cmd.OutOrStdout()
			writeField(out, "ID", release.ID)
			writeField(out, "Release", release.DisplayName())
			if release.Year > 0 {
				writeField(out, "Year", strconv.Itoa(release.Year))
			}
			for _, field := range []struct{ label, value string }{
				{"Label", release.Label},
				{"Country", release.Country},
				{"Format", release.Format},
				{"Barcode", release.Barcode},
				{"Catalog No", release.CatalogNumber},
				{"Matrix", release.MatrixCode},
				{"IFPI", strings.Join(release.IFPICodes, ", ")},
			} {
				if field.value != "" {
					writeField(out, field.label, field.value)
				}
			}
			writeField(out, "Pressing codes", yesNo(release.HasMatrixOrIFPI))
			if !release.UpdatedAt.IsZero() {
				writeField(out, "Updated", release.UpdatedAt.Local().Format("2006-01-02 15:04"))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output the release as JSON")
	return cmd
}

func newCatalogRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove a release from the catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openCatalog()
			if err != nil {
				return err
			}
			defer ctx.closeCatalog()

			id := strings.TrimSpace(args[0])
			removed, err := store.Delete(cmd.Context(), id)
			if err != nil {
				return err
			}
			if !removed {
				return services.Wrap(services.ErrNotFound, "catalog", "remove", fmt.Sprintf("release %q", id), nil)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed release %s\n", id)
			return nil
		},
	}
}
