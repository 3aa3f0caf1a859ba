package identification

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/width"
)

// Each identifier type has its own normalizer because the rejection rules
// differ. Do not fold them into a shared cleanup routine.

// NormalizeBarcode keeps only the digits of raw. Fewer than MinBarcodeDigits
// digits means no barcode. Check digits are not enforced; see ValidGTIN.
func NormalizeBarcode(raw string) (string, bool) {
	digits := digitsOnly(foldWidth(raw))
	if len(digits) < MinBarcodeDigits {
		return "", false
	}
	return digits, true
}

// NormalizeCatalogNumber trims raw and collapses whitespace runs. A value
// that is nothing but LongNumeralDigits or more digits is a barcode, not a
// catalog number, and is rejected. Letters, hyphens and spaces are kept.
func NormalizeCatalogNumber(raw string) (string, bool) {
	cleaned := collapseSpace(foldWidth(raw))
	if cleaned == "" {
		return "", false
	}
	compact := strings.ReplaceAll(cleaned, " ", "")
	if len(compact) >= LongNumeralDigits && isAllDigits(compact) {
		return "", false
	}
	return cleaned, true
}

// NormalizeMatrixCode trims raw and collapses whitespace runs. A value with
// LongNumeralDigits or more digits and no letters is rejected; real runout
// codes carry plant or engineer letters.
func NormalizeMatrixCode(raw string) (string, bool) {
	cleaned := collapseSpace(foldWidth(raw))
	if cleaned == "" {
		return "", false
	}
	if countDigits(cleaned) >= LongNumeralDigits && !hasLetter(cleaned) {
		return "", false
	}
	return cleaned, true
}

// copyrightYearRE matches a copyright or phonographic-copyright marker
// immediately followed by a year.
var copyrightYearRE = regexp.MustCompile(
	`(?i)(?:\(\s*[pc]\s*\)|\[\s*[pc]\s*\]|℗|©|\b(?:phonographic\s+)?copyright\b)[\s.,:]*(\d{4})\b`,
)

const (
	minYearHint = 1877
	maxYearHint = 2099
)

// ExtractYearHint returns the first plausible year that follows a copyright
// marker such as "(P)" or "©". The year is never guessed from anything else.
func ExtractYearHint(raw string) (int, bool) {
	text := foldWidth(raw)
	if strings.TrimSpace(text) == "" {
		return 0, false
	}
	for _, match := range copyrightYearRE.FindAllStringSubmatch(text, -1) {
		year, err := strconv.Atoi(match[1])
		if err != nil {
			continue
		}
		if year >= minYearHint && year <= maxYearHint {
			return year, true
		}
	}
	return 0, false
}

// Normalize applies the per-field normalizers to one scan. It does not run
// the cross-field validator.
func Normalize(raw RawScanFields) NormalizedIdentifiers {
	var out NormalizedIdentifiers
	out.Barcode, _ = NormalizeBarcode(raw.Barcode)
	out.CatalogNumber, _ = NormalizeCatalogNumber(raw.CatalogNumber)
	out.MatrixCode, _ = NormalizeMatrixCode(raw.Matrix)
	out.YearHint, _ = ExtractYearHint(raw.CopyrightLine)
	return out
}

// foldWidth maps full-width forms (common in OCR of Japanese pressings) to
// their ASCII equivalents.
func foldWidth(s string) string {
	return width.Fold.String(s)
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func digitsOnly(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func countDigits(s string) int {
	n := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			n++
		}
	}
	return n
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func hasLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}
