package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/mattn/go-isatty"

	"sleeve/internal/identification"
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
)

const labelWidth = 14

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func stateColor(state identification.State) string {
	switch state {
	case identification.StateSingleMatch:
		return ansiGreen
	case identification.StateMultipleCandidates:
		return ansiYellow
	default:
		return ansiRed
	}
}

func renderState(state identification.State, colorize bool) string {
	label := state.String()
	if colorize {
		return stateColor(state) + label + ansiReset
	}
	return label
}

func formatScore(value float64) string {
	return strconv.FormatFloat(value, 'f', 4, 64)
}

func writeField(out io.Writer, label, value string) {
	fmt.Fprintf(out, "%-*s %s\n", labelWidth, label+":", value)
}

func describeIdentifiers(ids identification.NormalizedIdentifiers) string {
	parts := make([]string, 0, 4)
	if ids.Barcode != "" {
		parts = append(parts, "barcode="+ids.Barcode)
	}
	if ids.CatalogNumber != "" {
		parts = append(parts, "catno="+strconv.Quote(ids.CatalogNumber))
	}
	if ids.MatrixCode != "" {
		parts = append(parts, "matrix="+strconv.Quote(ids.MatrixCode))
	}
	if ids.YearHint > 0 {
		parts = append(parts, "year="+strconv.Itoa(ids.YearHint))
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, " ")
}

func describeCrossCheck(check identification.CrossCheck) string {
	var cleared []string
	if check.CatalogNumberCleared {
		cleared = append(cleared, "catalog number")
	}
	if check.MatrixCodeCleared {
		cleared = append(cleared, "matrix")
	}
	return "cleared " + strings.Join(cleared, " and ")
}

// renderIdentification prints the decision for one scan followed by its
// ranked candidates.
func renderIdentification(out io.Writer, ident identification.Identification, colorize bool) {
	result := ident.Result
	writeField(out, "Scan", ident.ScanID)
	writeField(out, "State", renderState(result.State, colorize))
	if result.State != identification.StateNoMatch {
		writeField(out, "Confidence", formatScore(result.Confidence))
	}
	if result.TopCandidateID != "" {
		writeField(out, "Match", result.TopCandidateID)
	}
	if ident.ConfirmedReleaseID != "" {
		confirmed := ident.ConfirmedReleaseID
		if result.State == identification.StateSingleMatch && confirmed != result.TopCandidateID {
			confirmed += " (differs from match)"
		}
		writeField(out, "Confirmed", confirmed)
	}
	writeField(out, "Identifiers", describeIdentifiers(result.Identifiers))
	if result.CrossCheck.Any() {
		writeField(out, "Cross-check", describeCrossCheck(result.CrossCheck))
	}
	if msg := ident.ErrorMessage(); msg != "" {
		writeField(out, "Error", msg)
	}
	if len(result.Ranked) == 0 {
		return
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, renderCandidateTable(result.Ranked))
}

func renderCandidateTable(ranked []identification.ScoredCandidate) string {
	rows := make([][]string, 0, len(ranked))
	for idx, scored := range ranked {
		year := ""
		if scored.Candidate.Year > 0 {
			year = strconv.Itoa(scored.Candidate.Year)
		}
		rows = append(rows, []string{
			strconv.Itoa(idx + 1),
			scored.CandidateID,
			releaseLabel(scored.Candidate.Artist, scored.Candidate.Title),
			year,
			formatScore(scored.RawScore),
			formatScore(scored.EffectiveScore),
			scored.Evidence.String(),
		})
	}
	return renderTable(
		[]string{"#", "Candidate", "Release", "Year", "Raw", "Effective", "Evidence"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignLeft},
	)
}

func releaseLabel(artist, title string) string {
	artist = strings.TrimSpace(artist)
	title = strings.TrimSpace(title)
	switch {
	case artist != "" && title != "":
		return artist + " - " + title
	case title != "":
		return title
	default:
		return artist
	}
}
