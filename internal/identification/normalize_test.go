package identification

import (
	"strings"
	"testing"
)

func TestNormalizeBarcode(t *testing.T) {
	cases := []struct {
		raw    string
		want   string
		wantOK bool
	}{
		{"7243 8 36088 2 9", "724383608829", true},
		{"12-34-56-78", "12345678", true},
		{"EAN ４００６３８１３３３９３１", "4006381333931", true},
		{"1234567", "", false},
		{"UPC", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, ok := NormalizeBarcode(tc.raw)
		if got != tc.want || ok != tc.wantOK {
			t.Fatalf("NormalizeBarcode(%q) = (%q, %v), want (%q, %v)", tc.raw, got, ok, tc.want, tc.wantOK)
		}
	}
}

func TestNormalizeBarcodeRejectsShortDigitRuns(t *testing.T) {
	for n := 0; n < MinBarcodeDigits; n++ {
		raw := "x" + strings.Repeat("7 ", n) + "-"
		if got, ok := NormalizeBarcode(raw); ok {
			t.Fatalf("NormalizeBarcode(%q) = %q, want none for %d digits", raw, got, n)
		}
	}
}

func TestNormalizeCatalogNumber(t *testing.T) {
	cases := []struct {
		raw    string
		want   string
		wantOK bool
	}{
		{"CDPCSD 167", "CDPCSD 167", true},
		{"  CDPCSD \t  167 ", "CDPCSD 167", true},
		{"SRCS-1234", "SRCS-1234", true},
		{"12345678901", "12345678901", true},
		{"7243 8 36088 2 9", "", false},
		{"724383608829", "", false},
		{"   ", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, ok := NormalizeCatalogNumber(tc.raw)
		if got != tc.want || ok != tc.wantOK {
			t.Fatalf("NormalizeCatalogNumber(%q) = (%q, %v), want (%q, %v)", tc.raw, got, ok, tc.want, tc.wantOK)
		}
	}
}

func TestNormalizeMatrixCode(t *testing.T) {
	cases := []struct {
		raw    string
		want   string
		wantOK bool
	}{
		{"DIDP-10614 SONY DADC", "DIDP-10614 SONY DADC", true},
		{"  DIDP-10614   1A1 ", "DIDP-10614 1A1", true},
		{"1234567890123 A", "1234567890123 A", true},
		{"724383608829", "", false},
		{"7243 8360 8829 1", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, ok := NormalizeMatrixCode(tc.raw)
		if got != tc.want || ok != tc.wantOK {
			t.Fatalf("NormalizeMatrixCode(%q) = (%q, %v), want (%q, %v)", tc.raw, got, ok, tc.want, tc.wantOK)
		}
	}
}

func TestLongLetterlessNumeralsRejectedByBothTextNormalizers(t *testing.T) {
	for n := LongNumeralDigits; n <= 16; n++ {
		digits := strings.Repeat("9", n)
		spaced := strings.Join(strings.Split(digits, ""), " ")
		for _, raw := range []string{digits, spaced} {
			if got, ok := NormalizeCatalogNumber(raw); ok {
				t.Fatalf("NormalizeCatalogNumber(%q) = %q, want none", raw, got)
			}
			if got, ok := NormalizeMatrixCode(raw); ok {
				t.Fatalf("NormalizeMatrixCode(%q) = %q, want none", raw, got)
			}
		}
	}
}

func TestExtractYearHint(t *testing.T) {
	cases := []struct {
		raw    string
		want   int
		wantOK bool
	}{
		{"(P) 1995", 1995, true},
		{"(p)1995 EMI Records Ltd", 1995, true},
		{"℗ 2003 Sony Music", 2003, true},
		{"© 1988 Warner", 1988, true},
		{"[C] 1977", 1977, true},
		{"Copyright: 1969 Apple Corps", 1969, true},
		{"Phonographic Copyright 1982", 1982, true},
		{"(P) 1995 (C) 1996", 1995, true},
		{"(C) 1066 (P) 1991", 1991, true},
		{"Made in Germany 1995", 0, false},
		{"CDP 7 46440 2", 0, false},
		{"(P) 95", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, ok := ExtractYearHint(tc.raw)
		if got != tc.want || ok != tc.wantOK {
			t.Fatalf("ExtractYearHint(%q) = (%d, %v), want (%d, %v)", tc.raw, got, ok, tc.want, tc.wantOK)
		}
	}
}

func TestNormalizeComposesFields(t *testing.T) {
	got := Normalize(RawScanFields{
		Barcode:       "7 24383 60882 9",
		CatalogNumber: " CDP  7 46440 2 ",
		Matrix:        "DIDP-10614 SONY DADC",
		CopyrightLine: "(P) 1987 EMI",
	})
	want := NormalizedIdentifiers{
		Barcode:       "724383608829",
		CatalogNumber: "CDP 7 46440 2",
		MatrixCode:    "DIDP-10614 SONY DADC",
		YearHint:      1987,
	}
	if got != want {
		t.Fatalf("Normalize = %+v, want %+v", got, want)
	}
}

func TestValidGTIN(t *testing.T) {
	cases := []struct {
		digits string
		want   bool
	}{
		{"4006381333931", true},
		{"4006381333932", false},
		{"036000291452", true},
		{"0036000291452", true},
		{"724383608829", true},
		{"96385074", true},
		{"12345", false},
		{"40063813339x1", false},
	}
	for _, tc := range cases {
		if got := ValidGTIN(tc.digits); got != tc.want {
			t.Fatalf("ValidGTIN(%q) = %v, want %v", tc.digits, got, tc.want)
		}
	}
	if ValidEAN13("036000291452") {
		t.Fatal("ValidEAN13 should reject 12 digit codes")
	}
	if !ValidEAN13("4006381333931") {
		t.Fatal("ValidEAN13 should accept a valid EAN-13")
	}
}
