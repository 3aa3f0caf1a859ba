package catalog

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"sleeve/internal/identification"
)

// Release is one catalog entry: a specific pressing of a release.
type Release struct {
	ID              string    `json:"id"`
	Artist          string    `json:"artist,omitempty"`
	Title           string    `json:"title,omitempty"`
	Year            int       `json:"year,omitempty"`
	Label           string    `json:"label,omitempty"`
	Country         string    `json:"country,omitempty"`
	Format          string    `json:"format,omitempty"`
	Barcode         string    `json:"barcode,omitempty"`
	CatalogNumber   string    `json:"catalog_number,omitempty"`
	MatrixCode      string    `json:"matrix_code,omitempty"`
	IFPICodes       []string  `json:"ifpi_codes,omitempty"`
	HasMatrixOrIFPI bool      `json:"has_matrix_or_ifpi,omitempty"`
	CreatedAt       time.Time `json:"created_at,omitzero"`
	UpdatedAt       time.Time `json:"updated_at,omitzero"`
}

// Candidate converts the release into the engine's candidate form.
func (r Release) Candidate() identification.CatalogCandidate {
	return identification.CatalogCandidate{
		ID:              r.ID,
		Barcode:         r.Barcode,
		CatalogNumber:   r.CatalogNumber,
		MatrixCode:      r.MatrixCode,
		IFPICodes:       append([]string(nil), r.IFPICodes...),
		HasMatrixOrIFPI: r.HasMatrixOrIFPI,
		Artist:          r.Artist,
		Title:           r.Title,
		Year:            r.Year,
	}
}

// DisplayName returns "Artist - Title", falling back to the id.
func (r Release) DisplayName() string {
	artist := strings.TrimSpace(r.Artist)
	title := strings.TrimSpace(r.Title)
	switch {
	case artist != "" && title != "":
		return artist + " - " + title
	case title != "":
		return title
	case artist != "":
		return artist
	default:
		return r.ID
	}
}

// normalize trims fields and sets HasMatrixOrIFPI when pressing codes are
// present. It rejects releases that cannot be stored.
func (r *Release) normalize() error {
	r.ID = strings.TrimSpace(r.ID)
	if r.ID == "" {
		return errors.New("release id is required")
	}
	r.Artist = strings.TrimSpace(r.Artist)
	r.Title = strings.TrimSpace(r.Title)
	r.Label = strings.TrimSpace(r.Label)
	r.Country = strings.TrimSpace(r.Country)
	r.Format = strings.TrimSpace(r.Format)
	r.Barcode = strings.TrimSpace(r.Barcode)
	r.CatalogNumber = strings.TrimSpace(r.CatalogNumber)
	r.MatrixCode = strings.TrimSpace(r.MatrixCode)
	if r.Year < 0 {
		return fmt.Errorf("release %s: year %d is negative", r.ID, r.Year)
	}

	codes := make([]string, 0, len(r.IFPICodes))
	for _, code := range r.IFPICodes {
		if code = strings.TrimSpace(code); code != "" {
			codes = append(codes, code)
		}
	}
	r.IFPICodes = codes
	if r.MatrixCode != "" || len(r.IFPICodes) > 0 {
		r.HasMatrixOrIFPI = true
	}
	return nil
}

// pressingCodeKeys returns the distinct comparison keys of the release's
// matrix and IFPI codes.
func (r Release) pressingCodeKeys() []string {
	seen := make(map[string]struct{}, len(r.IFPICodes)+1)
	keys := make([]string, 0, len(r.IFPICodes)+1)
	for _, code := range append([]string{r.MatrixCode}, r.IFPICodes...) {
		key := identification.MatrixKey(code)
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		keys = append(keys, key)
	}
	return keys
}
