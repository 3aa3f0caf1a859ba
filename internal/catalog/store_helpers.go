package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"
)

const releaseColumns = "id, artist, title, year, label, country, format, barcode, catalog_number, matrix_code, ifpi_codes_json, has_matrix_or_ifpi, created_at, updated_at"

func scanRelease(scanner interface{ Scan(dest ...any) error }) (*Release, error) {
	var (
		id            string
		artist        sql.NullString
		title         sql.NullString
		year          sql.NullInt64
		label         sql.NullString
		country       sql.NullString
		format        sql.NullString
		barcode       sql.NullString
		catalogNumber sql.NullString
		matrixCode    sql.NullString
		ifpiJSON      sql.NullString
		hasPressing   sql.NullInt64
		createdRaw    sql.NullString
		updatedRaw    sql.NullString
	)
	if err := scanner.Scan(
		&id,
		&artist,
		&title,
		&year,
		&label,
		&country,
		&format,
		&barcode,
		&catalogNumber,
		&matrixCode,
		&ifpiJSON,
		&hasPressing,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	release := &Release{
		ID:              id,
		Artist:          artist.String,
		Title:           title.String,
		Year:            int(year.Int64),
		Label:           label.String,
		Country:         country.String,
		Format:          format.String,
		Barcode:         barcode.String,
		CatalogNumber:   catalogNumber.String,
		MatrixCode:      matrixCode.String,
		HasMatrixOrIFPI: hasPressing.Valid && hasPressing.Int64 != 0,
	}
	if raw := strings.TrimSpace(ifpiJSON.String); raw != "" && raw != "null" {
		if err := json.Unmarshal([]byte(raw), &release.IFPICodes); err != nil {
			return nil, err
		}
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		release.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		release.UpdatedAt = updated
	}
	return release, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableInt(value int) any {
	if value == 0 {
		return nil
	}
	return value
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	return time.Parse(time.RFC3339Nano, value)
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code()&0xff == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

// retryOnBusy reruns op while SQLite reports the database as locked by
// another writer.
func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}
