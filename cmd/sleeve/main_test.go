package main

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"

	"sleeve/internal/confirmations"
	"sleeve/internal/export"
	"sleeve/internal/identification"
	"sleeve/internal/logging"
	"sleeve/internal/services"
	"sleeve/internal/testsupport"
)

var euScanFlags = []string{
	"--barcode", "7 24383 60882 9",
	"--catno", "CDPCSD 167",
	"--matrix", "DIDP-10614 SONY DADC",
}

func TestIdentifyJSONSingleMatch(t *testing.T) {
	env := setupCLITestEnv(t)
	env.seed(t, testsupport.Pressings()...)

	out, err := env.run(t, append([]string{"identify", "--id", "front", "--json"}, euScanFlags...)...)
	if err != nil {
		t.Fatalf("identify: %v", err)
	}
	var ident identification.Identification
	if err := json.Unmarshal([]byte(out), &ident); err != nil {
		t.Fatalf("decode output: %v\n%s", err, out)
	}
	if ident.ScanID != "front" {
		t.Fatalf("scan id = %q, want front", ident.ScanID)
	}
	if ident.Result.State != identification.StateSingleMatch || ident.Result.TopCandidateID != "eu-1995" {
		t.Fatalf("got %s/%q, want single_match/eu-1995", ident.Result.State, ident.Result.TopCandidateID)
	}
	if len(ident.Result.Ranked) != 3 {
		t.Fatalf("ranked %d candidates, want 3", len(ident.Result.Ranked))
	}
}

func TestIdentifyTableOutput(t *testing.T) {
	env := setupCLITestEnv(t)
	env.seed(t, testsupport.Pressings()...)

	out, err := env.run(t, "identify", "--barcode", "724383608829", "--catno", "CDPCSD 167")
	if err != nil {
		t.Fatalf("identify: %v", err)
	}
	requireContains(t, out, "multiple_candidates")
	requireContains(t, out, "0.7900")
	requireContains(t, out, "uk-1992")
	requireContains(t, out, "barcode_match,catno_match")
}

func TestIdentifyWithoutIdentifiersIsNoMatch(t *testing.T) {
	env := setupCLITestEnv(t)
	env.seed(t, testsupport.Pressings()...)

	out, err := env.run(t, "identify", "--copyright", "(P) 1995 EMI")
	if err != nil {
		t.Fatalf("identify: %v", err)
	}
	requireContains(t, out, "no_match")
	requireContains(t, out, "year=1995")
}

func TestConfirmReportsConfirmedRelease(t *testing.T) {
	env := setupCLITestEnv(t)
	env.seed(t, testsupport.Pressings()...)

	if _, err := env.run(t, append([]string{"confirm", "uk-1987"}, euScanFlags...)...); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	out, err := env.run(t, append([]string{"identify", "--json"}, euScanFlags...)...)
	if err != nil {
		t.Fatalf("identify: %v", err)
	}
	var ident identification.Identification
	if err := json.Unmarshal([]byte(out), &ident); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if ident.ConfirmedReleaseID != "uk-1987" {
		t.Fatalf("confirmed = %q, want uk-1987", ident.ConfirmedReleaseID)
	}
	if ident.Result.TopCandidateID != "eu-1995" {
		t.Fatalf("confirmation changed the decision: top = %q", ident.Result.TopCandidateID)
	}

	listOut, err := env.run(t, "confirmations", "list", "--json")
	if err != nil {
		t.Fatalf("confirmations list: %v", err)
	}
	var entries []confirmations.Entry
	if err := json.Unmarshal([]byte(listOut), &entries); err != nil {
		t.Fatalf("decode entries: %v", err)
	}
	if len(entries) != 1 || entries[0].ReleaseID != "uk-1987" || entries[0].Fingerprint != ident.Fingerprint {
		t.Fatalf("unexpected entries %+v", entries)
	}

	if _, err := env.run(t, "confirmations", "remove", entries[0].Fingerprint); err != nil {
		t.Fatalf("confirmations remove: %v", err)
	}
	if store := confirmations.NewStore(env.cfg.Paths.Confirmations, logging.NewNop()); store.Count() != 0 {
		t.Fatalf("expected no confirmations after remove, got %d", store.Count())
	}
}

func TestConfirmErrors(t *testing.T) {
	env := setupCLITestEnv(t)
	env.seed(t, testsupport.Pressings()...)

	_, err := env.run(t, "confirm", "eu-1995")
	if services.ExitCode(err) != services.ExitValidation {
		t.Fatalf("expected validation exit for empty scan, got %v", err)
	}
	_, err = env.run(t, append([]string{"confirm", "missing"}, euScanFlags...)...)
	if services.ExitCode(err) != services.ExitNotFound {
		t.Fatalf("expected not found exit for unknown release, got %v", err)
	}
}

func TestConfirmationsDisabled(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithoutConfirmations())
	_, err := env.run(t, "confirmations", "list")
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestBatchWritesWorkbookAndReportsFailures(t *testing.T) {
	env := setupCLITestEnv(t)
	env.seed(t, testsupport.Pressings()...)

	scans := testsupport.WriteFile(t, env.baseDir, "scans.toml", `
[[scan]]
id = "front"
barcode = "7 24383 60882 9"
catalog_number = "CDPCSD 167"
matrix = "DIDP-10614 SONY DADC"

[[scan]]
id = "us"
barcode = "0077778912325"
catalog_number = "C2-46440"

[[scan]]
id = "blank"
copyright_line = "Made in Germany"
`)
	xlsxPath := filepath.Join(env.baseDir, "out", "results.xlsx")

	out, err := env.run(t, "batch", scans, "--workers", "2", "--xlsx", xlsxPath)
	if err != nil {
		t.Fatalf("batch: %v", err)
	}
	requireContains(t, out, "3 scans: 1 single match, 1 multiple candidates, 1 no match, 0 failed")

	f, err := excelize.OpenFile(xlsxPath)
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows(export.SheetName)
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	// header + 3 pressings for front + us-1988 + blank
	if len(rows) != 6 {
		t.Fatalf("expected 6 workbook rows, got %d", len(rows))
	}
}

func TestBatchJSONRows(t *testing.T) {
	env := setupCLITestEnv(t)
	env.seed(t, testsupport.Pressings()...)

	scans := testsupport.WriteFile(t, env.baseDir, "scans.json", `[{"id": "a", "barcode": "077778912325"}]`)
	out, err := env.run(t, "batch", scans, "--json")
	if err != nil {
		t.Fatalf("batch: %v", err)
	}
	var rows []export.Row
	if err := json.Unmarshal([]byte(out), &rows); err != nil {
		t.Fatalf("decode rows: %v\n%s", err, out)
	}
	if len(rows) != 1 || rows[0].CandidateID != "us-1988" || rows[0].State != "multiple_candidates" {
		t.Fatalf("unexpected rows %+v", rows)
	}
}

func TestBatchRejectsInvalidDocument(t *testing.T) {
	env := setupCLITestEnv(t)
	scans := testsupport.WriteFile(t, env.baseDir, "scans.json", `[{"id": "a", "label": "EMI"}]`)
	_, err := env.run(t, "batch", scans)
	if services.ExitCode(err) != services.ExitValidation {
		t.Fatalf("expected validation exit, got %v", err)
	}
}

func TestCatalogImportListShowRemove(t *testing.T) {
	env := setupCLITestEnv(t)
	releases := testsupport.WriteFile(t, env.baseDir, "releases.jsonl",
		`{"id": "r1", "artist": "A", "title": "First", "year": 1990, "barcode": "724383608829", "catalog_number": "X 1"}
{"id": "r2", "artist": "B", "title": "Second", "matrix_code": "ABC-123"}
`)

	out, err := env.run(t, "catalog", "import", releases)
	if err != nil {
		t.Fatalf("catalog import: %v", err)
	}
	requireContains(t, out, "Imported 2 releases (2 in catalog)")

	out, err = env.run(t, "catalog", "list")
	if err != nil {
		t.Fatalf("catalog list: %v", err)
	}
	requireContains(t, out, "A - First")
	requireContains(t, out, "r2")

	out, err = env.run(t, "catalog", "show", "r2")
	if err != nil {
		t.Fatalf("catalog show: %v", err)
	}
	requireContains(t, out, "ABC-123")

	if _, err := env.run(t, "catalog", "remove", "r2"); err != nil {
		t.Fatalf("catalog remove: %v", err)
	}
	_, err = env.run(t, "catalog", "show", "r2")
	if services.ExitCode(err) != services.ExitNotFound {
		t.Fatalf("expected not found after remove, got %v", err)
	}
}

func TestCatalogImportRejectsBadRows(t *testing.T) {
	env := setupCLITestEnv(t)
	releases := testsupport.WriteFile(t, env.baseDir, "releases.json", `[{"id": "ok"}, {"title": "no id"}]`)

	_, err := env.run(t, "catalog", "import", releases)
	if services.ExitCode(err) != services.ExitValidation {
		t.Fatalf("expected validation exit, got %v", err)
	}
	out, err := env.run(t, "catalog", "list")
	if err != nil {
		t.Fatalf("catalog list: %v", err)
	}
	requireContains(t, out, "Catalog is empty")
}

func TestConfigInitAndShow(t *testing.T) {
	env := setupCLITestEnv(t)
	target := filepath.Join(env.baseDir, "fresh", "config.toml")

	out, err := runCLI(t, "", "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, target)
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file: %v", err)
	}
	if _, err := runCLI(t, "", "config", "init", "--path", target); err == nil {
		t.Fatal("expected error when config already exists")
	}

	out, err = env.run(t, "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	requireContains(t, out, env.cfg.Paths.CatalogDB)
	requireContains(t, out, "candidate_limit")
}

func TestInvalidConfigMapsToConfigurationExit(t *testing.T) {
	env := setupCLITestEnv(t)
	path := testsupport.WriteFile(t, env.baseDir, "bad.toml", "[scoring]\nweight = 1\n")
	_, err := runCLI(t, path, "catalog", "list")
	if services.ExitCode(err) != services.ExitConfiguration {
		t.Fatalf("expected configuration exit, got %v", err)
	}
}
