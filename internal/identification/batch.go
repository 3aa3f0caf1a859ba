package identification

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"sleeve/internal/logging"
	"sleeve/internal/services"
)

// BatchSummary counts the outcomes of a batch run.
type BatchSummary struct {
	Total    int `json:"total"`
	Single   int `json:"single_match"`
	Multiple int `json:"multiple_candidates"`
	NoMatch  int `json:"no_match"`
	Failed   int `json:"failed"`
}

// Summarize counts identifications by state. Scans that failed are counted
// only as Failed.
func Summarize(results []Identification) BatchSummary {
	summary := BatchSummary{Total: len(results)}
	for _, res := range results {
		if res.Err != nil {
			summary.Failed++
			continue
		}
		switch res.Result.State {
		case StateSingleMatch:
			summary.Single++
		case StateMultipleCandidates:
			summary.Multiple++
		default:
			summary.NoMatch++
		}
	}
	return summary
}

// IdentifyBatch evaluates scans concurrently with at most workers evaluations
// in flight; workers <= 0 uses GOMAXPROCS. Results are returned in input order.
// A failure on one scan is recorded on its Identification and does not stop
// the others. Cancelling ctx abandons outstanding scans and returns ctx's error.
func (i *Identifier) IdentifyBatch(ctx context.Context, scans []Scan, workers int) ([]Identification, error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if _, ok := services.BatchIDFromContext(ctx); !ok {
		ctx = services.WithBatchID(ctx, uuid.NewString())
	}
	logger := logging.WithContext(ctx, i.logger)
	logger.Info("batch identification started",
		logging.Int("scan_count", len(scans)),
		logging.Int("workers", workers))
	start := time.Now()

	results := make([]Identification, len(scans))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(workers)
	for idx, scan := range scans {
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}
			// Per-scan errors live on the Identification.
			results[idx], _ = i.Identify(groupCtx, scan)
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, fmt.Errorf("batch identification: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("batch identification: %w", err)
	}

	summary := Summarize(results)
	logger.Info("batch identification finished",
		logging.Int("scan_count", summary.Total),
		logging.Int("single_match", summary.Single),
		logging.Int("multiple_candidates", summary.Multiple),
		logging.Int("no_match", summary.NoMatch),
		logging.Int("failed", summary.Failed),
		logging.Duration("elapsed", time.Since(start)))
	return results, nil
}
