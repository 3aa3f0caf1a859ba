package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"sleeve/internal/config"
	"sleeve/internal/export"
	"sleeve/internal/identification"
	"sleeve/internal/scanfile"
	"sleeve/internal/services"
)

func newBatchCommand(ctx *commandContext) *cobra.Command {
	var workers int
	var xlsxPath string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "batch <scans.json|scans.toml>",
		Short: "Identify every scan in an extraction document",
		Long: `Identify every scan in a JSON or TOML extraction document.

A failing scan is reported in the output and does not stop the others; the
command exits non-zero when any scan failed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			path, err := config.ExpandPath(args[0])
			if err != nil {
				return err
			}
			scans, err := scanfile.Load(path)
			if err != nil {
				return err
			}

			identifier, err := ctx.newIdentifier()
			if err != nil {
				return err
			}
			defer ctx.closeCatalog()

			if !cmd.Flags().Changed("workers") {
				workers = cfg.Batch.Workers
			}
			results, err := identifier.IdentifyBatch(cmd.Context(), scans, workers)
			if err != nil {
				return err
			}
			rows := export.Rows(results)

			if target := strings.TrimSpace(xlsxPath); target != "" {
				expanded, err := config.ExpandPath(target)
				if err != nil {
					return err
				}
				if err := export.WriteXLSX(expanded, rows); err != nil {
					return err
				}
				if !jsonOutput {
					fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d rows to %s\n", len(rows), expanded)
				}
			}

			summary := identification.Summarize(results)
			if jsonOutput {
				if err := export.WriteJSON(cmd.OutOrStdout(), rows); err != nil {
					return err
				}
			} else {
				renderBatch(cmd, results, summary)
			}

			if summary.Failed > 0 {
				return fmt.Errorf("%d of %d scans failed", summary.Failed, summary.Total)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "Concurrent evaluations (default: batch.workers from config)")
	cmd.Flags().StringVar(&xlsxPath, "xlsx", "", "Also write the ranked candidates to this XLSX workbook")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output one JSON row per scan and ranked candidate")
	return cmd
}

func renderBatch(cmd *cobra.Command, results []identification.Identification, summary identification.BatchSummary) {
	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)

	rows := make([][]string, 0, len(results))
	for _, res := range results {
		confidence := ""
		if res.Err == nil && res.Result.State != identification.StateNoMatch {
			confidence = formatScore(res.Result.Confidence)
		}
		state := renderState(res.Result.State, colorize)
		if res.Err != nil {
			state = "failed"
		}
		rows = append(rows, []string{
			res.ScanID,
			state,
			confidence,
			res.Result.TopCandidateID,
			strconv.Itoa(len(res.Result.Ranked)),
			res.ConfirmedReleaseID,
			batchNote(res),
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Scan", "State", "Confidence", "Match", "Candidates", "Confirmed", "Note"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft, alignRight, alignLeft, alignLeft},
	))
	fmt.Fprintf(out, "%d scans: %d single match, %d multiple candidates, %d no match, %d failed\n",
		summary.Total, summary.Single, summary.Multiple, summary.NoMatch, summary.Failed)
}

func batchNote(res identification.Identification) string {
	switch {
	case res.Err != nil:
		if identification.IsInvalidInput(res.Err) {
			return "invalid catalog data"
		}
		if errors.Is(res.Err, services.ErrStorage) {
			return "catalog lookup failed"
		}
		return res.ErrorMessage()
	case res.Result.CrossCheck.Any():
		return describeCrossCheck(res.Result.CrossCheck)
	default:
		return ""
	}
}
