package identification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"sleeve/internal/logging"
	"sleeve/internal/services"
)

// DefaultCandidateLimit caps catalog rows fetched per scan when the caller
// does not choose a limit.
const DefaultCandidateLimit = 50

// CandidateQuery carries the normalized identifiers used to pre-filter the
// catalog. Empty fields are not used for matching.
type CandidateQuery struct {
	Barcode       string
	CatalogNumber string
	MatrixCode    string
	Limit         int
}

// CandidateSource returns catalog rows that share at least one identifier
// with the query.
type CandidateSource interface {
	Candidates(ctx context.Context, query CandidateQuery) ([]CatalogCandidate, error)
}

// ConfirmationSource reports a release the user previously confirmed for a
// scan fingerprint.
type ConfirmationSource interface {
	ConfirmedRelease(fingerprint string) (releaseID string, ok bool, err error)
}

// Scan is one extraction result awaiting identification.
type Scan struct {
	ID     string        `json:"id"`
	Fields RawScanFields `json:"fields"`
}

// Identification is the outcome for one scan. Err is set when the scan could
// not be evaluated; Result is then an Invalid NoMatch or the zero value.
// ConfirmedReleaseID is reported next to the engine's decision and never
// replaces it.
type Identification struct {
	ScanID             string               `json:"scan_id"`
	Fingerprint        string               `json:"fingerprint,omitempty"`
	Result             DisambiguationResult `json:"result"`
	ConfirmedReleaseID string               `json:"confirmed_release_id,omitempty"`
	Err                error                `json:"-"`
}

// ErrorMessage returns Err as text, or "" when the scan was evaluated.
func (i Identification) ErrorMessage() string {
	if i.Err == nil {
		return ""
	}
	return i.Err.Error()
}

// Identifier fetches candidates for a scan, runs the engine and logs the
// audit trail of the decision.
type Identifier struct {
	source        CandidateSource
	confirmations ConfirmationSource
	logger        *slog.Logger
	limit         int
}

// NewIdentifier creates an identifier backed by the given catalog source.
// confirmations may be nil. A non-positive limit uses DefaultCandidateLimit.
func NewIdentifier(source CandidateSource, confirmations ConfirmationSource, logger *slog.Logger, limit int) *Identifier {
	if limit <= 0 {
		limit = DefaultCandidateLimit
	}
	return &Identifier{
		source:        source,
		confirmations: confirmations,
		logger:        logging.NewComponentLogger(logger, "identifier"),
		limit:         limit,
	}
}

// Identify evaluates one scan against the catalog.
func (i *Identifier) Identify(ctx context.Context, scan Scan) (Identification, error) {
	ctx = services.WithScanID(ctx, scan.ID)
	logger := logging.WithContext(ctx, i.logger)

	ids, check := Prepare(scan.Fields)
	out := Identification{ScanID: scan.ID, Fingerprint: Fingerprint(ids)}
	logger.Debug("normalized scan identifiers",
		logging.String("barcode", ids.Barcode),
		logging.String("catalog_number", ids.CatalogNumber),
		logging.String("matrix_code", ids.MatrixCode),
		logging.Int("year_hint", ids.YearHint))
	if check.Any() {
		logger.Info("cross-field validation cleared leaked values",
			logging.Bool("catalog_number_cleared", check.CatalogNumberCleared),
			logging.Bool("matrix_code_cleared", check.MatrixCodeCleared))
	}

	var candidates []CatalogCandidate
	if ids.Empty() {
		logger.Info("scan carries no usable identifiers; skipping catalog lookup")
	} else if i.source != nil {
		var err error
		candidates, err = i.source.Candidates(ctx, CandidateQuery{
			Barcode:       ids.Barcode,
			CatalogNumber: ids.CatalogNumber,
			MatrixCode:    ids.MatrixCode,
			Limit:         i.limit,
		})
		if err != nil {
			out.Err = services.Wrap(services.ErrStorage, "identifier", "candidate lookup", "", err)
			logging.ErrorWithContext(logger, "catalog lookup failed", "catalog_lookup_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check the catalog database path and run sleeve catalog list"))
			return out, out.Err
		}
	}

	result, err := evaluatePrepared(ids, check, candidates)
	out.Result = result
	if err != nil {
		out.Err = err
		logging.WarnWithContext(logger, "scan rejected", "invalid_input",
			logging.Error(err),
			logging.Int("candidate_count", len(candidates)),
			logging.String(logging.FieldErrorHint, "catalog rows need unique non-empty ids"),
			logging.String(logging.FieldImpact, "scan was not identified"))
		return out, err
	}

	i.logScoring(logger, result)
	i.attachConfirmation(logger, &out)

	attrs := logging.DecisionAttrs("identification", result.State.String(), decisionReason(result))
	attrs = append(attrs,
		logging.Float64("confidence", result.Confidence),
		logging.Int("candidate_count", len(result.Ranked)))
	if result.State == StateSingleMatch {
		attrs = append(attrs, logging.String(logging.FieldCandidateID, result.TopCandidateID))
	}
	if out.ConfirmedReleaseID != "" {
		attrs = append(attrs, logging.String("confirmed_release_id", out.ConfirmedReleaseID))
	}
	logger.Info("identification decision", logging.Args(attrs...)...)
	return out, nil
}

func (i *Identifier) logScoring(logger *slog.Logger, result DisambiguationResult) {
	if !logger.Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	for rank, candidate := range result.Ranked {
		logger.Debug("candidate scored",
			logging.Int("rank", rank+1),
			logging.String(logging.FieldCandidateID, candidate.CandidateID),
			logging.Float64("raw_score", candidate.RawScore),
			logging.Float64("effective_score", candidate.EffectiveScore),
			logging.String("evidence", candidate.Evidence.String()),
			logging.Bool("barcode_checksum_valid", candidate.BarcodeChecksumValid))
	}
}

func (i *Identifier) attachConfirmation(logger *slog.Logger, out *Identification) {
	if i.confirmations == nil || out.Fingerprint == "" {
		return
	}
	releaseID, ok, err := i.confirmations.ConfirmedRelease(out.Fingerprint)
	if err != nil {
		logging.WarnWithContext(logger, "confirmation lookup failed", "confirmation_lookup_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "previous confirmation not reported"))
		return
	}
	if !ok {
		return
	}
	out.ConfirmedReleaseID = releaseID
	if out.Result.State == StateSingleMatch && releaseID != out.Result.TopCandidateID {
		logging.WarnWithContext(logger, "engine decision differs from confirmed release", "confirmation_mismatch",
			logging.String("confirmed_release_id", releaseID),
			logging.String(logging.FieldCandidateID, out.Result.TopCandidateID),
			logging.String(logging.FieldErrorHint, "re-confirm the release or check the catalog row"),
			logging.String(logging.FieldImpact, "both ids are reported"))
	}
}

func decisionReason(result DisambiguationResult) string {
	switch result.State {
	case StateSingleMatch:
		return fmt.Sprintf("top score %.2f clears floor %.2f and gap %.2f", result.Confidence, SingleMatchFloor, SingleMatchGap)
	case StateMultipleCandidates:
		if top, ok := result.Top(); ok && !top.Evidence.Has(EvidenceMatrixOrIFPI) {
			return "no matrix or IFPI corroboration"
		}
		return "top candidate not clearly ahead"
	default:
		if result.Identifiers.Empty() {
			return "no usable identifiers"
		}
		if len(result.Ranked) == 0 {
			return "no catalog candidates"
		}
		return "no candidate carries evidence"
	}
}

// Fingerprint is the stable key of a scan's identifiers used by the
// confirmation store. It is empty when no identifier survived normalization.
func Fingerprint(ids NormalizedIdentifiers) string {
	if ids.Empty() {
		return ""
	}
	var catNo string
	if ids.CatalogNumber != "" {
		catNo = strings.ReplaceAll(CatalogNumberKey(ids.CatalogNumber), " ", "")
	}
	var barcode string
	if ids.Barcode != "" {
		barcode = gtinKey(ids.Barcode)
	}
	return strings.Join([]string{barcode, catNo, MatrixKey(ids.MatrixCode)}, "|")
}

// IsInvalidInput reports whether err marks a caller contract violation.
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}
