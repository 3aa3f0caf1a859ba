package identification

// CrossValidate clears fields that are another identifier type in disguise.
// It only ever clears values and is idempotent.
//
//   - a catalog number whose digits equal the barcode is cleared
//   - a matrix code whose digits equal the barcode is cleared
//   - a matrix code whose digits equal the catalog number's digits, when both
//     are at least LongNumeralDigits long, is cleared
func CrossValidate(ids NormalizedIdentifiers) (NormalizedIdentifiers, CrossCheck) {
	var check CrossCheck
	if ids.Barcode != "" && ids.CatalogNumber != "" {
		if digitsOnly(ids.CatalogNumber) == ids.Barcode {
			ids.CatalogNumber = ""
			check.CatalogNumberCleared = true
		}
	}
	if ids.Barcode != "" && ids.MatrixCode != "" {
		if digitsOnly(ids.MatrixCode) == ids.Barcode {
			ids.MatrixCode = ""
			check.MatrixCodeCleared = true
		}
	}
	if ids.CatalogNumber != "" && ids.MatrixCode != "" {
		catDigits := digitsOnly(ids.CatalogNumber)
		if len(catDigits) >= LongNumeralDigits && digitsOnly(ids.MatrixCode) == catDigits {
			ids.MatrixCode = ""
			check.MatrixCodeCleared = true
		}
	}
	return ids, check
}

// Prepare normalizes raw and runs the cross-field validator.
func Prepare(raw RawScanFields) (NormalizedIdentifiers, CrossCheck) {
	return CrossValidate(Normalize(raw))
}
