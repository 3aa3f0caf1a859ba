// Package export flattens identification results into review rows and writes
// them as an XLSX workbook or JSON.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"sleeve/internal/identification"
	"sleeve/internal/services"
)

// SheetName is the worksheet that holds the rows.
const SheetName = "Identifications"

// Row is one (scan, ranked candidate) pair. Scans without candidates, and
// scans that failed, get a single row with Rank 0.
type Row struct {
	ScanID             string  `json:"scan_id"`
	State              string  `json:"state"`
	Confidence         float64 `json:"confidence"`
	TopCandidateID     string  `json:"top_candidate_id,omitempty"`
	ConfirmedReleaseID string  `json:"confirmed_release_id,omitempty"`
	Rank               int     `json:"rank"`
	CandidateID        string  `json:"candidate_id,omitempty"`
	Artist             string  `json:"artist,omitempty"`
	Title              string  `json:"title,omitempty"`
	Year               int     `json:"year,omitempty"`
	RawScore           float64 `json:"raw_score"`
	EffectiveScore     float64 `json:"effective_score"`
	Evidence           string  `json:"evidence"`
	ChecksumValid      bool    `json:"barcode_checksum_valid"`
	Error              string  `json:"error,omitempty"`
}

// Rows flattens results in order, ranked candidates in rank order.
func Rows(results []identification.Identification) []Row {
	rows := make([]Row, 0, len(results))
	for _, res := range results {
		base := Row{
			ScanID:             res.ScanID,
			State:              res.Result.State.String(),
			Confidence:         res.Result.Confidence,
			TopCandidateID:     res.Result.TopCandidateID,
			ConfirmedReleaseID: res.ConfirmedReleaseID,
			Evidence:           identification.Evidence(0).String(),
			Error:              res.ErrorMessage(),
		}
		if len(res.Result.Ranked) == 0 {
			rows = append(rows, base)
			continue
		}
		for idx, scored := range res.Result.Ranked {
			row := base
			row.Rank = idx + 1
			row.CandidateID = scored.CandidateID
			row.Artist = scored.Candidate.Artist
			row.Title = scored.Candidate.Title
			row.Year = scored.Candidate.Year
			row.RawScore = scored.RawScore
			row.EffectiveScore = scored.EffectiveScore
			row.Evidence = scored.Evidence.String()
			row.ChecksumValid = scored.BarcodeChecksumValid
			rows = append(rows, row)
		}
	}
	return rows
}

var headers = []string{
	"Scan",
	"State",
	"Confidence",
	"Top Candidate",
	"Confirmed Release",
	"Rank",
	"Candidate",
	"Artist",
	"Title",
	"Year",
	"Raw Score",
	"Effective Score",
	"Evidence",
	"Barcode Checksum",
	"Error",
}

func (r Row) values() []any {
	var year any
	if r.Year > 0 {
		year = r.Year
	}
	var rank any
	if r.Rank > 0 {
		rank = r.Rank
	}
	return []any{
		r.ScanID,
		r.State,
		r.Confidence,
		r.TopCandidateID,
		r.ConfirmedReleaseID,
		rank,
		r.CandidateID,
		r.Artist,
		r.Title,
		year,
		r.RawScore,
		r.EffectiveScore,
		r.Evidence,
		r.ChecksumValid,
		r.Error,
	}
}

// WriteXLSX writes rows to a new workbook at path, replacing any existing
// file.
func WriteXLSX(path string, rows []Row) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return services.Wrap(services.ErrStorage, "export", "xlsx", "name sheet", err)
	}
	if err := f.SetSheetRow(SheetName, "A1", &headers); err != nil {
		return services.Wrap(services.ErrStorage, "export", "xlsx", "write header", err)
	}
	for idx, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, idx+2)
		if err != nil {
			return services.Wrap(services.ErrStorage, "export", "xlsx", "cell name", err)
		}
		values := row.values()
		if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
			return services.Wrap(services.ErrStorage, "export", "xlsx", fmt.Sprintf("write row %d", idx+1), err)
		}
	}

	_ = f.SetColWidth(SheetName, "A", "A", 38)
	_ = f.SetColWidth(SheetName, "B", "B", 20)
	_ = f.SetColWidth(SheetName, "D", "E", 16)
	_ = f.SetColWidth(SheetName, "G", "I", 24)
	_ = f.SetColWidth(SheetName, "M", "M", 40)
	_ = f.SetColWidth(SheetName, "O", "O", 48)
	_ = f.SetPanes(SheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return services.Wrap(services.ErrStorage, "export", "xlsx", "create directory", err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		return services.Wrap(services.ErrStorage, "export", "xlsx", path, err)
	}
	return nil
}

// WriteJSON writes rows as an indented JSON array.
func WriteJSON(w io.Writer, rows []Row) error {
	if rows == nil {
		rows = []Row{}
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(rows); err != nil {
		return services.Wrap(services.ErrStorage, "export", "json", "", err)
	}
	return nil
}
