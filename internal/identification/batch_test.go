package identification

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"
)

type slowSource struct {
	inFlight atomic.Int32
	peak     atomic.Int32
	delay    time.Duration
}

func (s *slowSource) Candidates(ctx context.Context, query CandidateQuery) ([]CatalogCandidate, error) {
	current := s.inFlight.Add(1)
	defer s.inFlight.Add(-1)
	for {
		peak := s.peak.Load()
		if current <= peak || s.peak.CompareAndSwap(peak, current) {
			break
		}
	}
	select {
	case <-time.After(s.delay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return []CatalogCandidate{
		{ID: "match-" + query.Barcode, Barcode: query.Barcode, MatrixCode: "DIDP-10614", CatalogNumber: "CDPCSD 167"},
	}, nil
}

func batchScans(n int) []Scan {
	scans := make([]Scan, n)
	for i := range scans {
		scans[i] = Scan{
			ID: fmt.Sprintf("scan-%02d", i),
			Fields: RawScanFields{
				Barcode:       fmt.Sprintf("%08d", 10000000+i),
				CatalogNumber: "CDPCSD 167",
				Matrix:        "DIDP-10614",
			},
		}
	}
	return scans
}

func TestIdentifyBatchKeepsOrderAndBoundsWorkers(t *testing.T) {
	source := &slowSource{delay: 5 * time.Millisecond}
	identifier := NewIdentifier(source, nil, nil, 0)
	scans := batchScans(12)

	results, err := identifier.IdentifyBatch(context.Background(), scans, 3)
	if err != nil {
		t.Fatalf("IdentifyBatch returned error: %v", err)
	}
	if len(results) != len(scans) {
		t.Fatalf("got %d results, want %d", len(results), len(scans))
	}
	for i, res := range results {
		if res.ScanID != scans[i].ID {
			t.Fatalf("result %d has scan id %q, want %q", i, res.ScanID, scans[i].ID)
		}
		want := "match-" + scans[i].Fields.Barcode
		if res.Result.State != StateSingleMatch || res.Result.TopCandidateID != want {
			t.Fatalf("result %d = %s/%q, want single_match/%q", i, res.Result.State, res.Result.TopCandidateID, want)
		}
	}
	if peak := source.peak.Load(); peak > 3 {
		t.Fatalf("peak concurrency %d exceeds worker limit 3", peak)
	}

	summary := Summarize(results)
	if summary.Total != 12 || summary.Single != 12 {
		t.Fatalf("unexpected summary %+v", summary)
	}
}

func TestIdentifyBatchRecordsPerScanFailures(t *testing.T) {
	source := &fakeSource{candidates: []CatalogCandidate{{ID: "dup", Barcode: "10000000"}, {ID: "dup"}}}
	identifier := NewIdentifier(source, nil, nil, 0)
	scans := batchScans(2)
	scans = append(scans, Scan{ID: "empty"})

	results, err := identifier.IdentifyBatch(context.Background(), scans, 0)
	if err != nil {
		t.Fatalf("IdentifyBatch returned error: %v", err)
	}
	if !IsInvalidInput(results[0].Err) || !IsInvalidInput(results[1].Err) {
		t.Fatalf("expected invalid input errors, got %v / %v", results[0].Err, results[1].Err)
	}
	if results[2].Err != nil || results[2].Result.State != StateNoMatch {
		t.Fatalf("blank scan = %+v", results[2])
	}
	summary := Summarize(results)
	if summary.Failed != 2 || summary.NoMatch != 1 {
		t.Fatalf("unexpected summary %+v", summary)
	}
}

func TestIdentifyBatchCancelled(t *testing.T) {
	source := &slowSource{delay: time.Second}
	identifier := NewIdentifier(source, nil, nil, 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, err := identifier.IdentifyBatch(ctx, batchScans(4), 2)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if results != nil {
		t.Fatal("expected no results after cancellation")
	}
}
