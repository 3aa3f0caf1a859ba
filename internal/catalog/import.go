package catalog

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"sleeve/internal/services"
)

// RowError describes one rejected record of an import. Line is the 1-based
// line for JSON-lines input and the 1-based array position for JSON arrays.
type RowError struct {
	Line int
	Err  error
}

func (e RowError) Error() string {
	return fmt.Sprintf("record %d: %v", e.Line, e.Err)
}

func (e RowError) Unwrap() error {
	return e.Err
}

// ImportJSON reads releases from r, either a JSON array of objects or one
// object per line, and upserts them in a single transaction. If any record
// is malformed nothing is written and the returned error joins one RowError
// per bad record, wrapped in services.ErrValidation.
func (s *Store) ImportJSON(ctx context.Context, r io.Reader) (int, error) {
	releases, err := decodeReleases(r)
	if err != nil {
		return 0, err
	}
	if len(releases) == 0 {
		return 0, nil
	}

	err = retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin import tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		now := time.Now().UTC()
		for _, release := range releases {
			if err := upsertRelease(ctx, tx, release, now); err != nil {
				return err
			}
		}
		return tx.Commit()
	})
	if err != nil {
		return 0, services.Wrap(services.ErrStorage, "catalog", "import", "", err)
	}
	return len(releases), nil
}

func decodeReleases(r io.Reader) ([]Release, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read catalog input: %w", err)
	}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}

	var (
		raws  []json.RawMessage
		lines []int
	)
	if trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &raws); err != nil {
			return nil, services.Wrap(services.ErrValidation, "catalog", "import", "decode JSON array", err)
		}
		for i := range raws {
			lines = append(lines, i+1)
		}
	} else {
		scanner := bufio.NewScanner(bytes.NewReader(data))
		scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
		line := 0
		for scanner.Scan() {
			line++
			text := bytes.TrimSpace(scanner.Bytes())
			if len(text) == 0 {
				continue
			}
			raws = append(raws, append(json.RawMessage(nil), text...))
			lines = append(lines, line)
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("scan catalog input: %w", err)
		}
	}

	releases := make([]Release, 0, len(raws))
	seen := make(map[string]int, len(raws))
	var rowErrs []error
	for idx, raw := range raws {
		line := lines[idx]
		var release Release
		decoder := json.NewDecoder(bytes.NewReader(raw))
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&release); err != nil {
			rowErrs = append(rowErrs, RowError{Line: line, Err: err})
			continue
		}
		if err := release.normalize(); err != nil {
			rowErrs = append(rowErrs, RowError{Line: line, Err: err})
			continue
		}
		if first, ok := seen[release.ID]; ok {
			rowErrs = append(rowErrs, RowError{Line: line, Err: fmt.Errorf("duplicate id %q (first at record %d)", release.ID, first)})
			continue
		}
		seen[release.ID] = line
		releases = append(releases, release)
	}
	if len(rowErrs) > 0 {
		return nil, services.Wrap(services.ErrValidation, "catalog", "import",
			fmt.Sprintf("%d invalid record(s)", len(rowErrs)), errors.Join(rowErrs...))
	}
	return releases, nil
}
