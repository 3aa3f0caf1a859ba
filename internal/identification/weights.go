package identification

// Evidence weights and decision thresholds. These are fixed at build time so
// the same scan and candidate set always produce the same decision; changing
// any of them is a code change, not a configuration option.
const (
	// WeightBarcode is added when the scan barcode equals the candidate barcode.
	WeightBarcode = 0.50
	// WeightCatalogNumber is added when the catalog numbers agree after case and
	// whitespace folding.
	WeightCatalogNumber = 0.30
	// WeightMatrixCorroboration is added when a matrix/IFPI match corroborates
	// at least one other evidence category. A matrix match on its own scores
	// nothing.
	WeightMatrixCorroboration = 0.20

	// CapWithoutMatrix limits the effective score of any candidate that lacks
	// matrix/IFPI evidence. It sits below SingleMatchFloor, so barcode and
	// catalog number agreement alone can never produce a unique match.
	CapWithoutMatrix = 0.79

	// SingleMatchFloor is the minimum effective score of the top candidate for
	// a SingleMatch.
	SingleMatchFloor = 0.85
	// SingleMatchGap is the minimum margin between the top two candidates for
	// a SingleMatch.
	SingleMatchGap = 0.15
)

const (
	// MinBarcodeDigits is the shortest digit run accepted as a barcode (EAN-8).
	MinBarcodeDigits = 8
	// LongNumeralDigits is the digit count at which a letterless value is
	// treated as barcode leakage in the catalog number and matrix fields.
	LongNumeralDigits = 12

	scoreEpsilon = 1e-9
)
