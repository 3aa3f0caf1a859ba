package identification

import (
	"encoding/json"
	"fmt"
	"strings"
)

// RawScanFields is the extraction output for one photographed item. An empty
// string means the extractor found nothing for that field.
type RawScanFields struct {
	Barcode       string `json:"barcode,omitempty" toml:"barcode"`
	CatalogNumber string `json:"catalog_number,omitempty" toml:"catalog_number"`
	Matrix        string `json:"matrix,omitempty" toml:"matrix"`
	CopyrightLine string `json:"copyright_line,omitempty" toml:"copyright_line"`
}

// NormalizedIdentifiers holds the canonical identifier values for one scan.
// Empty strings and a zero YearHint mean the field is absent.
type NormalizedIdentifiers struct {
	Barcode       string `json:"barcode,omitempty"`
	CatalogNumber string `json:"catalog_number,omitempty"`
	MatrixCode    string `json:"matrix_code,omitempty"`
	YearHint      int    `json:"year_hint,omitempty"`
}

// Empty reports whether no identifier survived normalization. The year hint
// alone is not an identifier.
func (n NormalizedIdentifiers) Empty() bool {
	return n.Barcode == "" && n.CatalogNumber == "" && n.MatrixCode == ""
}

// CatalogCandidate is one catalog row under consideration. Artist, Title and
// Year are carried for display and never influence scoring.
type CatalogCandidate struct {
	ID              string   `json:"id"`
	Barcode         string   `json:"barcode,omitempty"`
	CatalogNumber   string   `json:"catalog_number,omitempty"`
	MatrixCode      string   `json:"matrix_code,omitempty"`
	IFPICodes       []string `json:"ifpi_codes,omitempty"`
	HasMatrixOrIFPI bool     `json:"has_matrix_or_ifpi"`
	Artist          string   `json:"artist,omitempty"`
	Title           string   `json:"title,omitempty"`
	Year            int      `json:"year,omitempty"`
}

// Evidence is the set of evidence categories that fired for a candidate.
type Evidence uint8

const (
	EvidenceBarcode Evidence = 1 << iota
	EvidenceCatalogNumber
	EvidenceMatrixOrIFPI
)

var evidenceNames = []struct {
	flag Evidence
	name string
}{
	{EvidenceBarcode, "barcode_match"},
	{EvidenceCatalogNumber, "catno_match"},
	{EvidenceMatrixOrIFPI, "matrix_or_ifpi_match"},
}

// Has reports whether every category in other is present.
func (e Evidence) Has(other Evidence) bool {
	return e&other == other
}

// Names lists the fired categories in a fixed order.
func (e Evidence) Names() []string {
	names := make([]string, 0, len(evidenceNames))
	for _, entry := range evidenceNames {
		if e.Has(entry.flag) {
			names = append(names, entry.name)
		}
	}
	return names
}

func (e Evidence) String() string {
	names := e.Names()
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, ",")
}

func (e Evidence) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.Names())
}

func (e *Evidence) UnmarshalJSON(data []byte) error {
	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return err
	}
	var out Evidence
	for _, name := range names {
		found := false
		for _, entry := range evidenceNames {
			if entry.name == name {
				out |= entry.flag
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("unknown evidence category %q", name)
		}
	}
	*e = out
	return nil
}

// ScoredCandidate is the score of one candidate against one scan.
type ScoredCandidate struct {
	CandidateID    string   `json:"candidate_id"`
	RawScore       float64  `json:"raw_score"`
	EffectiveScore float64  `json:"effective_score"`
	Evidence       Evidence `json:"evidence"`
	// BarcodeChecksumValid records whether the scan barcode passes the GS1
	// check digit. It is informational and never changes the score.
	BarcodeChecksumValid bool             `json:"barcode_checksum_valid"`
	Candidate            CatalogCandidate `json:"candidate"`
}

// State is the outcome of a disambiguation.
type State uint8

const (
	StateNoMatch State = iota
	StateMultipleCandidates
	StateSingleMatch
)

func (s State) String() string {
	switch s {
	case StateNoMatch:
		return "no_match"
	case StateMultipleCandidates:
		return "multiple_candidates"
	case StateSingleMatch:
		return "single_match"
	default:
		return fmt.Sprintf("state(%d)", uint8(s))
	}
}

func (s State) MarshalText() ([]byte, error) {
	switch s {
	case StateNoMatch, StateMultipleCandidates, StateSingleMatch:
		return []byte(s.String()), nil
	default:
		return nil, fmt.Errorf("invalid state %d", uint8(s))
	}
}

func (s *State) UnmarshalText(text []byte) error {
	parsed, ok := ParseState(string(text))
	if !ok {
		return fmt.Errorf("invalid state %q", string(text))
	}
	*s = parsed
	return nil
}

// ParseState parses the textual form produced by State.String.
func ParseState(value string) (State, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "no_match":
		return StateNoMatch, true
	case "multiple_candidates":
		return StateMultipleCandidates, true
	case "single_match":
		return StateSingleMatch, true
	default:
		return StateNoMatch, false
	}
}

// CrossCheck records which fields the cross-field validator cleared.
type CrossCheck struct {
	CatalogNumberCleared bool `json:"catalog_number_cleared,omitempty"`
	MatrixCodeCleared    bool `json:"matrix_code_cleared,omitempty"`
}

// Any reports whether at least one field was cleared.
func (c CrossCheck) Any() bool {
	return c.CatalogNumberCleared || c.MatrixCodeCleared
}

// DisambiguationResult is the engine's decision for one scan.
//
// TopCandidateID is only set for StateSingleMatch. Confidence is the top
// effective score for both match states and zero for StateNoMatch. Invalid is
// set when the caller broke the input contract; the state is then
// StateNoMatch and Ranked is empty.
type DisambiguationResult struct {
	State          State                 `json:"state"`
	TopCandidateID string                `json:"top_candidate_id,omitempty"`
	Confidence     float64               `json:"confidence"`
	Ranked         []ScoredCandidate     `json:"ranked_candidates"`
	Identifiers    NormalizedIdentifiers `json:"identifiers"`
	CrossCheck     CrossCheck            `json:"cross_check"`
	Invalid        bool                  `json:"invalid,omitempty"`
}

// Top returns the highest ranked candidate, if any.
func (r DisambiguationResult) Top() (ScoredCandidate, bool) {
	if len(r.Ranked) == 0 {
		return ScoredCandidate{}, false
	}
	return r.Ranked[0], true
}
