package identification

import (
	"fmt"
	"math"
	"sort"
)

// Decide ranks scored candidates and classifies the outcome.
//
// Candidates are sorted by effective score, highest first, with ties kept in
// input order. A SingleMatch needs the top score to reach SingleMatchFloor and
// to lead the runner-up by at least SingleMatchGap; an exact tie at the top is
// never a SingleMatch. Scores outside [0,1] are a contract violation.
func Decide(scored []ScoredCandidate) (DisambiguationResult, error) {
	for idx, candidate := range scored {
		score := candidate.EffectiveScore
		if math.IsNaN(score) || score < 0 || score > 1 {
			return DisambiguationResult{Invalid: true, Ranked: []ScoredCandidate{}},
				fmt.Errorf("%w: candidate %d (%q) has effective score %v outside [0,1]", ErrInvalidInput, idx, candidate.CandidateID, score)
		}
	}

	ranked := make([]ScoredCandidate, len(scored))
	copy(ranked, scored)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].EffectiveScore > ranked[j].EffectiveScore
	})

	result := DisambiguationResult{State: StateNoMatch, Ranked: ranked}
	if len(ranked) == 0 || ranked[0].EffectiveScore <= 0 {
		return result, nil
	}

	top := ranked[0].EffectiveScore
	second := 0.0
	tied := false
	if len(ranked) > 1 {
		second = ranked[1].EffectiveScore
		tied = second == top
	}

	result.Confidence = top
	if !tied && atLeast(top, SingleMatchFloor) && atLeast(top-second, SingleMatchGap) {
		result.State = StateSingleMatch
		result.TopCandidateID = ranked[0].CandidateID
		return result, nil
	}
	result.State = StateMultipleCandidates
	return result, nil
}

// atLeast compares with a small tolerance so that differences such as
// 0.90-0.75 are not lost to float rounding.
func atLeast(value, threshold float64) bool {
	return value >= threshold-scoreEpsilon
}
