package main

import (
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"sleeve/internal/identification"
)

// scanFlags holds the raw extraction fields shared by identify and confirm.
type scanFlags struct {
	barcode   string
	catalogNo string
	matrix    string
	copyright string
}

func (f *scanFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.barcode, "barcode", "", "Barcode text as read from the sleeve")
	cmd.Flags().StringVar(&f.catalogNo, "catno", "", "Catalog number text")
	cmd.Flags().StringVar(&f.matrix, "matrix", "", "Matrix/runout text, including any IFPI codes")
	cmd.Flags().StringVar(&f.copyright, "copyright", "", "Copyright line, used for the year hint")
}

func (f *scanFlags) fields() identification.RawScanFields {
	return identification.RawScanFields{
		Barcode:       f.barcode,
		CatalogNumber: f.catalogNo,
		Matrix:        f.matrix,
		CopyrightLine: f.copyright,
	}
}

func newIdentifyCommand(ctx *commandContext) *cobra.Command {
	var flags scanFlags
	var scanID string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "identify",
		Short: "Identify one scan against the release catalog",
		Long: `Identify one scan from the fields an extractor read off the photographs.

Examples:
  sleeve identify --barcode "7 24383 60882 9" --catno "CDP CSD 167"
  sleeve identify --matrix "DIDP-10614 IFPI L553" --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			identifier, err := ctx.newIdentifier()
			if err != nil {
				return err
			}
			defer ctx.closeCatalog()

			id := strings.TrimSpace(scanID)
			if id == "" {
				id = uuid.NewString()
			}
			ident, err := identifier.Identify(cmd.Context(), identification.Scan{ID: id, Fields: flags.fields()})
			if err != nil {
				return err
			}

			if jsonOutput {
				return writeJSON(cmd, ident)
			}
			out := cmd.OutOrStdout()
			renderIdentification(out, ident, shouldColorize(out))
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&scanID, "id", "", "Scan id reported in output and logs (default: random)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output the full result as JSON")
	return cmd
}
