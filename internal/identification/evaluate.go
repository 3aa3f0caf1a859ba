package identification

import (
	"fmt"
	"strings"

	"sleeve/internal/services"
)

// ErrInvalidInput marks a caller contract violation. The evaluation for the
// affected scan is abandoned; it is never reported as weak evidence. It wraps
// services.ErrValidation so the CLI maps it to the validation exit code.
var ErrInvalidInput = fmt.Errorf("invalid input: %w", services.ErrValidation)

// Evaluate runs the full engine for one scan against the supplied candidates:
// normalize, cross-validate, score each candidate, decide.
//
// A nil or empty candidate list is valid and yields StateNoMatch. Candidates
// with an empty ID or a repeated ID are a contract violation: the returned
// error wraps ErrInvalidInput and the result is an Invalid NoMatch.
func Evaluate(raw RawScanFields, candidates []CatalogCandidate) (DisambiguationResult, error) {
	ids, check := Prepare(raw)
	return evaluatePrepared(ids, check, candidates)
}

func evaluatePrepared(ids NormalizedIdentifiers, check CrossCheck, candidates []CatalogCandidate) (DisambiguationResult, error) {
	if err := validateCandidates(candidates); err != nil {
		return invalidResult(ids, check), err
	}

	scored := make([]ScoredCandidate, 0, len(candidates))
	for _, candidate := range candidates {
		scored = append(scored, Score(ids, candidate))
	}

	result, err := Decide(scored)
	if err != nil {
		return invalidResult(ids, check), err
	}
	result.Identifiers = ids
	result.CrossCheck = check
	return result, nil
}

func validateCandidates(candidates []CatalogCandidate) error {
	seen := make(map[string]int, len(candidates))
	for idx, candidate := range candidates {
		id := strings.TrimSpace(candidate.ID)
		if id == "" {
			return fmt.Errorf("%w: candidate %d has an empty id", ErrInvalidInput, idx)
		}
		if first, ok := seen[id]; ok {
			return fmt.Errorf("%w: candidate id %q repeated at positions %d and %d", ErrInvalidInput, id, first, idx)
		}
		seen[id] = idx
	}
	return nil
}

func invalidResult(ids NormalizedIdentifiers, check CrossCheck) DisambiguationResult {
	return DisambiguationResult{
		State:       StateNoMatch,
		Ranked:      []ScoredCandidate{},
		Identifiers: ids,
		CrossCheck:  check,
		Invalid:     true,
	}
}
