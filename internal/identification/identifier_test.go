package identification

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"sleeve/internal/services"
)

type fakeSource struct {
	mu         sync.Mutex
	candidates []CatalogCandidate
	err        error
	queries    []CandidateQuery
}

func (f *fakeSource) Candidates(_ context.Context, query CandidateQuery) ([]CatalogCandidate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, query)
	if f.err != nil {
		return nil, f.err
	}
	return append([]CatalogCandidate(nil), f.candidates...), nil
}

func (f *fakeSource) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queries)
}

type fakeConfirmations struct {
	byFingerprint map[string]string
	err           error
}

func (f fakeConfirmations) ConfirmedRelease(fingerprint string) (string, bool, error) {
	if f.err != nil {
		return "", false, f.err
	}
	id, ok := f.byFingerprint[fingerprint]
	return id, ok, nil
}

func euScan() Scan {
	return Scan{ID: "scan-1", Fields: RawScanFields{
		Barcode:       "7 24383 60882 9",
		CatalogNumber: "CDPCSD 167",
		Matrix:        "DIDP-10614 SONY DADC",
	}}
}

func TestIdentifierSingleMatch(t *testing.T) {
	source := &fakeSource{candidates: pressings()}
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	identifier := NewIdentifier(source, nil, logger, 0)

	out, err := identifier.Identify(context.Background(), euScan())
	if err != nil {
		t.Fatalf("Identify returned error: %v", err)
	}
	if out.Result.State != StateSingleMatch || out.Result.TopCandidateID != "eu-1995" {
		t.Fatalf("got %s/%q, want single_match/eu-1995", out.Result.State, out.Result.TopCandidateID)
	}
	if out.ScanID != "scan-1" {
		t.Fatalf("scan id = %q", out.ScanID)
	}

	if len(source.queries) != 1 {
		t.Fatalf("expected one catalog query, got %d", len(source.queries))
	}
	query := source.queries[0]
	if query.Barcode != "724383608829" || query.CatalogNumber != "CDPCSD 167" || query.MatrixCode != "DIDP-10614 SONY DADC" {
		t.Fatalf("query carried raw values: %+v", query)
	}
	if query.Limit != DefaultCandidateLimit {
		t.Fatalf("limit = %d, want %d", query.Limit, DefaultCandidateLimit)
	}

	logs := buf.String()
	for _, want := range []string{`"decision_type":"identification"`, `"decision_result":"single_match"`, `"scan_id":"scan-1"`, `"component":"identifier"`, `"msg":"candidate scored"`} {
		if !strings.Contains(logs, want) {
			t.Fatalf("expected %s in logs:\n%s", want, logs)
		}
	}
}

func TestIdentifierSkipsLookupWithoutIdentifiers(t *testing.T) {
	source := &fakeSource{candidates: pressings()}
	identifier := NewIdentifier(source, nil, nil, 10)

	out, err := identifier.Identify(context.Background(), Scan{ID: "blank", Fields: RawScanFields{Barcode: "12", CopyrightLine: "(P) 1990"}})
	if err != nil {
		t.Fatalf("Identify returned error: %v", err)
	}
	if source.calls() != 0 {
		t.Fatal("catalog queried for a scan with no identifiers")
	}
	if out.Result.State != StateNoMatch || out.Fingerprint != "" {
		t.Fatalf("unexpected identification %+v", out)
	}
	if out.Result.Identifiers.YearHint != 1990 {
		t.Fatalf("year hint = %d, want 1990", out.Result.Identifiers.YearHint)
	}
}

func TestIdentifierLookupFailure(t *testing.T) {
	source := &fakeSource{err: errors.New("database is locked")}
	identifier := NewIdentifier(source, nil, nil, 0)

	out, err := identifier.Identify(context.Background(), euScan())
	if !errors.Is(err, services.ErrStorage) {
		t.Fatalf("err = %v, want storage error", err)
	}
	if out.Err == nil || !strings.Contains(out.ErrorMessage(), "database is locked") {
		t.Fatalf("identification error = %v", out.Err)
	}
}

func TestIdentifierInvalidCandidates(t *testing.T) {
	source := &fakeSource{candidates: []CatalogCandidate{{ID: "dup", Barcode: "724383608829"}, {ID: "dup"}}}
	identifier := NewIdentifier(source, nil, nil, 0)

	out, err := identifier.Identify(context.Background(), euScan())
	if !IsInvalidInput(err) {
		t.Fatalf("err = %v, want invalid input", err)
	}
	if !out.Result.Invalid || out.Result.State != StateNoMatch {
		t.Fatalf("result = %+v, want invalid no_match", out.Result)
	}
}

func TestIdentifierReportsConfirmationWithoutOverriding(t *testing.T) {
	ids, _ := Prepare(euScan().Fields)
	confirmations := fakeConfirmations{byFingerprint: map[string]string{Fingerprint(ids): "uk-1987"}}
	identifier := NewIdentifier(&fakeSource{candidates: pressings()}, confirmations, nil, 0)

	out, err := identifier.Identify(context.Background(), euScan())
	if err != nil {
		t.Fatalf("Identify returned error: %v", err)
	}
	if out.ConfirmedReleaseID != "uk-1987" {
		t.Fatalf("confirmed release = %q, want uk-1987", out.ConfirmedReleaseID)
	}
	if out.Result.TopCandidateID != "eu-1995" {
		t.Fatalf("confirmation overrode engine decision: %q", out.Result.TopCandidateID)
	}
}

func TestIdentifierConfirmationErrorIsNotFatal(t *testing.T) {
	identifier := NewIdentifier(&fakeSource{candidates: pressings()}, fakeConfirmations{err: errors.New("corrupt")}, nil, 0)
	out, err := identifier.Identify(context.Background(), euScan())
	if err != nil {
		t.Fatalf("Identify returned error: %v", err)
	}
	if out.ConfirmedReleaseID != "" {
		t.Fatalf("unexpected confirmation %q", out.ConfirmedReleaseID)
	}
}

func TestFingerprint(t *testing.T) {
	a := Fingerprint(NormalizedIdentifiers{Barcode: "036000291452", CatalogNumber: "CDP 746440", MatrixCode: "DIDP 10614"})
	b := Fingerprint(NormalizedIdentifiers{Barcode: "0036000291452", CatalogNumber: "cdp  746440", MatrixCode: "didp10614"})
	if a != b {
		t.Fatalf("equivalent identifiers fingerprint differently: %q vs %q", a, b)
	}
	if Fingerprint(NormalizedIdentifiers{YearHint: 1990}) != "" {
		t.Fatal("year hint alone must not produce a fingerprint")
	}
	if Fingerprint(NormalizedIdentifiers{Barcode: "036000291452"}) == a {
		t.Fatal("fingerprints must include every identifier")
	}
}
