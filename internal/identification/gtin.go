package identification

import "strings"

// ValidGTIN reports whether digits is an 8, 12, 13 or 14 digit GS1 code with a
// correct mod-10 check digit (EAN-8, UPC-A, EAN-13, GTIN-14).
func ValidGTIN(digits string) bool {
	switch len(digits) {
	case 8, 12, 13, 14:
	default:
		return false
	}
	if !isAllDigits(digits) {
		return false
	}
	sum := 0
	weight := 3
	for i := len(digits) - 2; i >= 0; i-- {
		sum += int(digits[i]-'0') * weight
		weight = 4 - weight
	}
	check := (10 - sum%10) % 10
	return check == int(digits[len(digits)-1]-'0')
}

// ValidEAN13 reports whether digits is a 13 digit EAN with a valid check digit.
func ValidEAN13(digits string) bool {
	return len(digits) == 13 && ValidGTIN(digits)
}

// gtinKey drops left padding so a UPC-A and its EAN-13 form compare equal.
func gtinKey(digits string) string {
	trimmed := strings.TrimLeft(digits, "0")
	if trimmed == "" {
		return digits
	}
	return trimmed
}

// BarcodeKey normalizes raw and returns the form used to compare barcodes, or
// "" when raw is not a barcode.
func BarcodeKey(raw string) string {
	digits, ok := NormalizeBarcode(raw)
	if !ok {
		return ""
	}
	return gtinKey(digits)
}
