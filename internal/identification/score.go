package identification

import (
	"math"
	"strings"

	"golang.org/x/text/cases"
)

// MinPressingCodeLen is the shortest catalog matrix/IFPI code key that may be
// matched as a substring of the scanned runout text.
const MinPressingCodeLen = 4

// Score computes the evidence score of one candidate against a normalized,
// cross-validated scan. It is pure.
func Score(scan NormalizedIdentifiers, candidate CatalogCandidate) ScoredCandidate {
	var evidence Evidence
	raw := 0.0

	if barcodeMatches(scan.Barcode, candidate.Barcode) {
		evidence |= EvidenceBarcode
		raw += WeightBarcode
	}
	if catalogNumberMatches(scan.CatalogNumber, candidate.CatalogNumber) {
		evidence |= EvidenceCatalogNumber
		raw += WeightCatalogNumber
	}
	if pressingCodeMatches(scan.MatrixCode, candidate) {
		evidence |= EvidenceMatrixOrIFPI
		if raw > 0 {
			raw += WeightMatrixCorroboration
		}
	}

	raw = roundScore(math.Min(raw, 1))
	effective := raw
	if !evidence.Has(EvidenceMatrixOrIFPI) {
		effective = math.Min(raw, CapWithoutMatrix)
	}

	return ScoredCandidate{
		CandidateID:          candidate.ID,
		RawScore:             raw,
		EffectiveScore:       effective,
		Evidence:             evidence,
		BarcodeChecksumValid: ValidGTIN(scan.Barcode),
		Candidate:            candidate,
	}
}

func barcodeMatches(scanBarcode, candidateBarcode string) bool {
	if scanBarcode == "" {
		return false
	}
	other, ok := NormalizeBarcode(candidateBarcode)
	if !ok {
		return false
	}
	return gtinKey(scanBarcode) == gtinKey(other)
}

func catalogNumberMatches(scanCatNo, candidateCatNo string) bool {
	if scanCatNo == "" {
		return false
	}
	other := CatalogNumberKey(candidateCatNo)
	return other != "" && CatalogNumberKey(scanCatNo) == other
}

// pressingCodeMatches reports whether the scanned matrix text matches the
// candidate's matrix code or one of its IFPI codes. Runout text often carries
// plant names around the code, so a catalog code found inside the scanned text
// also counts.
func pressingCodeMatches(scanMatrix string, candidate CatalogCandidate) bool {
	if scanMatrix == "" {
		return false
	}
	if !candidate.HasMatrixOrIFPI && strings.TrimSpace(candidate.MatrixCode) == "" {
		return false
	}
	scanKey := MatrixKey(scanMatrix)
	if scanKey == "" {
		return false
	}
	codes := make([]string, 0, len(candidate.IFPICodes)+1)
	codes = append(codes, candidate.MatrixCode)
	codes = append(codes, candidate.IFPICodes...)
	for _, code := range codes {
		key := MatrixKey(code)
		if key == "" {
			continue
		}
		if key == scanKey {
			return true
		}
		if len(key) >= MinPressingCodeLen && strings.Contains(scanKey, key) {
			return true
		}
	}
	return false
}

// CatalogNumberKey is the comparison form of a catalog number: case folded
// with whitespace collapsed. A Caser is stateful, so one is built per call.
func CatalogNumberKey(value string) string {
	return cases.Fold().String(collapseSpace(foldWidth(value)))
}

// MatrixKey is the comparison form of a matrix or IFPI code: case folded with
// all whitespace removed.
func MatrixKey(value string) string {
	return cases.Fold().String(strings.Join(strings.Fields(foldWidth(value)), ""))
}

func roundScore(v float64) float64 {
	return math.Round(v*1e4) / 1e4
}
