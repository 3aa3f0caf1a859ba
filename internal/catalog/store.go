package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"sleeve/internal/identification"
	"sleeve/internal/services"
)

// DefaultCandidateLimit caps Candidates when the query sets no limit.
const DefaultCandidateLimit = identification.DefaultCandidateLimit

// Store manages the release catalog backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// sqlExecer is the subset of *sql.DB and *sql.Tx used by writes.
type sqlExecer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Open initializes or connects to the catalog database at path.
func Open(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, services.Wrap(services.ErrConfiguration, "catalog", "open", "database path is empty", nil)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure catalog directory: %w", err)
	}

	// Pragmas go in the DSN so every pooled connection gets them.
	query := url.Values{}
	query.Add("_pragma", "journal_mode(WAL)")
	query.Add("_pragma", "foreign_keys(1)")
	query.Add("_pragma", "busy_timeout(5000)")
	db, err := sql.Open("sqlite", "file:"+path+"?"+query.Encode())
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	store := &Store{db: db, path: path}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Upsert inserts the release or replaces the stored row with the same id.
func (s *Store) Upsert(ctx context.Context, release Release) error {
	if err := release.normalize(); err != nil {
		return services.Wrap(services.ErrValidation, "catalog", "upsert", "", err)
	}
	return retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin upsert tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()
		if err := upsertRelease(ctx, tx, release, time.Now().UTC()); err != nil {
			return err
		}
		return tx.Commit()
	})
}

func upsertRelease(ctx context.Context, exec sqlExecer, release Release, now time.Time) error {
	ifpiJSON, err := json.Marshal(release.IFPICodes)
	if err != nil {
		return fmt.Errorf("marshal ifpi codes: %w", err)
	}
	timestamp := now.Format(time.RFC3339Nano)
	catnoKey := ""
	if release.CatalogNumber != "" {
		catnoKey = identification.CatalogNumberKey(release.CatalogNumber)
	}

	_, err = exec.ExecContext(ctx,
		`INSERT INTO releases (
            id, artist, title, year, label, country, format,
            barcode, catalog_number, matrix_code, ifpi_codes_json, has_matrix_or_ifpi,
            barcode_key, catno_key, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET
            artist = excluded.artist, title = excluded.title, year = excluded.year,
            label = excluded.label, country = excluded.country, format = excluded.format,
            barcode = excluded.barcode, catalog_number = excluded.catalog_number,
            matrix_code = excluded.matrix_code, ifpi_codes_json = excluded.ifpi_codes_json,
            has_matrix_or_ifpi = excluded.has_matrix_or_ifpi,
            barcode_key = excluded.barcode_key, catno_key = excluded.catno_key,
            updated_at = excluded.updated_at`,
		release.ID,
		nullableString(release.Artist),
		nullableString(release.Title),
		nullableInt(release.Year),
		nullableString(release.Label),
		nullableString(release.Country),
		nullableString(release.Format),
		nullableString(release.Barcode),
		nullableString(release.CatalogNumber),
		nullableString(release.MatrixCode),
		string(ifpiJSON),
		boolToInt(release.HasMatrixOrIFPI),
		nullableString(identification.BarcodeKey(release.Barcode)),
		nullableString(catnoKey),
		timestamp,
		timestamp,
	)
	if err != nil {
		return fmt.Errorf("upsert release %s: %w", release.ID, err)
	}

	if _, err := exec.ExecContext(ctx, "DELETE FROM release_pressing_codes WHERE release_id = ?", release.ID); err != nil {
		return fmt.Errorf("clear pressing codes for %s: %w", release.ID, err)
	}
	for _, key := range release.pressingCodeKeys() {
		if _, err := exec.ExecContext(ctx,
			"INSERT INTO release_pressing_codes (release_id, code_key) VALUES (?, ?)",
			release.ID, key,
		); err != nil {
			return fmt.Errorf("insert pressing code for %s: %w", release.ID, err)
		}
	}
	return nil
}

// Get returns the release with id. A missing release is reported with an
// error wrapping services.ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (*Release, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+releaseColumns+` FROM releases WHERE id = ?`, strings.TrimSpace(id))
	release, err := scanRelease(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, services.Wrap(services.ErrNotFound, "catalog", "get", fmt.Sprintf("release %q", id), nil)
	}
	if err != nil {
		return nil, fmt.Errorf("get release: %w", err)
	}
	return release, nil
}

// Delete removes the release with id. Removing a missing id is not an error.
func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	var res sql.Result
	err := retryOnBusy(ctx, func() error {
		var execErr error
		res, execErr = s.db.ExecContext(ctx, "DELETE FROM releases WHERE id = ?", strings.TrimSpace(id))
		return execErr
	})
	if err != nil {
		return false, fmt.Errorf("delete release: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// Count returns the number of releases in the catalog.
func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM releases").Scan(&count); err != nil {
		return 0, fmt.Errorf("count releases: %w", err)
	}
	return count, nil
}

// List returns up to limit releases ordered by id. A non-positive limit
// returns every release.
func (s *Store) List(ctx context.Context, limit int) ([]Release, error) {
	query := `SELECT ` + releaseColumns + ` FROM releases ORDER BY id`
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list releases: %w", err)
	}
	defer rows.Close()

	var releases []Release
	for rows.Next() {
		release, err := scanRelease(rows)
		if err != nil {
			return nil, fmt.Errorf("scan release: %w", err)
		}
		releases = append(releases, *release)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate releases: %w", err)
	}
	return releases, nil
}

// Candidates returns releases sharing at least one identifier with query:
// an equal barcode, an equal folded catalog number, or a pressing code equal
// to (or, for codes of MinPressingCodeLen or more, contained in) the scanned
// matrix text. Rows are ordered by id and capped at query.Limit.
func (s *Store) Candidates(ctx context.Context, query identification.CandidateQuery) ([]identification.CatalogCandidate, error) {
	var (
		clauses []string
		args    []any
	)
	if key := identification.BarcodeKey(query.Barcode); key != "" {
		clauses = append(clauses, "barcode_key = ?")
		args = append(args, key)
	}
	if strings.TrimSpace(query.CatalogNumber) != "" {
		clauses = append(clauses, "catno_key = ?")
		args = append(args, identification.CatalogNumberKey(query.CatalogNumber))
	}
	if key := identification.MatrixKey(query.MatrixCode); key != "" {
		clauses = append(clauses, fmt.Sprintf(
			`id IN (SELECT release_id FROM release_pressing_codes
                    WHERE code_key = ? OR (length(code_key) >= %d AND instr(?, code_key) > 0))`,
			identification.MinPressingCodeLen))
		args = append(args, key, key)
	}
	if len(clauses) == 0 {
		return nil, nil
	}

	limit := query.Limit
	if limit <= 0 {
		limit = DefaultCandidateLimit
	}
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+releaseColumns+` FROM releases WHERE `+strings.Join(clauses, " OR ")+` ORDER BY id LIMIT ?`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("query candidates: %w", err)
	}
	defer rows.Close()

	var candidates []identification.CatalogCandidate
	for rows.Next() {
		release, err := scanRelease(rows)
		if err != nil {
			return nil, fmt.Errorf("scan candidate: %w", err)
		}
		candidates = append(candidates, release.Candidate())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate candidates: %w", err)
	}
	return candidates, nil
}
