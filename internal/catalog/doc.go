// Package catalog stores the release catalog in SQLite and answers the
// candidate pre-filter queries the identification engine depends on.
//
// Each release row keeps its display fields alongside comparison keys
// derived with the engine's own normalizers (barcode digits, folded catalog
// number, folded matrix and IFPI codes), so a lookup never returns a row the
// scorer would compare differently. Schema changes bump schemaVersion in
// schema.go; an old database must be re-imported.
package catalog
