package identification

import (
	"errors"
	"math"
	"testing"
)

func scored(pairs ...any) []ScoredCandidate {
	out := make([]ScoredCandidate, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		score := pairs[i+1].(float64)
		out = append(out, ScoredCandidate{CandidateID: pairs[i].(string), RawScore: score, EffectiveScore: score})
	}
	return out
}

func TestDecideGapRequirement(t *testing.T) {
	result, err := Decide(scored("a", 0.90, "b", 0.80))
	if err != nil {
		t.Fatalf("Decide returned error: %v", err)
	}
	if result.State != StateMultipleCandidates {
		t.Fatalf("state = %s, want multiple_candidates", result.State)
	}
	if result.TopCandidateID != "" {
		t.Fatalf("top candidate id set for multiple candidates: %q", result.TopCandidateID)
	}
	if !approxEqual(result.Confidence, 0.90) {
		t.Fatalf("confidence = %v, want 0.90", result.Confidence)
	}
}

func TestDecideSingleMatch(t *testing.T) {
	result, err := Decide(scored("b", 0.50, "a", 0.90))
	if err != nil {
		t.Fatalf("Decide returned error: %v", err)
	}
	if result.State != StateSingleMatch {
		t.Fatalf("state = %s, want single_match", result.State)
	}
	if result.TopCandidateID != "a" {
		t.Fatalf("top candidate = %q, want a", result.TopCandidateID)
	}
	if result.Ranked[0].CandidateID != "a" || result.Ranked[1].CandidateID != "b" {
		t.Fatalf("unexpected ranking %+v", result.Ranked)
	}
}

func TestDecideSingleCandidateAtFloor(t *testing.T) {
	result, _ := Decide(scored("a", 0.85))
	if result.State != StateSingleMatch {
		t.Fatalf("state = %s, want single_match", result.State)
	}
	result, _ = Decide(scored("a", 0.84))
	if result.State != StateMultipleCandidates {
		t.Fatalf("state = %s, want multiple_candidates", result.State)
	}
}

func TestDecideExactGapCountsAsMet(t *testing.T) {
	result, _ := Decide(scored("a", 0.85, "b", 0.70))
	if result.State != StateSingleMatch {
		t.Fatalf("state = %s, want single_match for gap of exactly 0.15", result.State)
	}
}

func TestDecideTieAtTop(t *testing.T) {
	result, _ := Decide(scored("a", 1.0, "b", 1.0, "c", 0.2))
	if result.State != StateMultipleCandidates {
		t.Fatalf("state = %s, want multiple_candidates on tie", result.State)
	}
	if result.Ranked[0].CandidateID != "a" || result.Ranked[1].CandidateID != "b" {
		t.Fatalf("tie order not stable: %+v", result.Ranked)
	}
}

func TestDecideNoMatch(t *testing.T) {
	result, err := Decide(nil)
	if err != nil {
		t.Fatalf("Decide(nil) returned error: %v", err)
	}
	if result.State != StateNoMatch || result.Confidence != 0 || len(result.Ranked) != 0 {
		t.Fatalf("unexpected empty result %+v", result)
	}

	result, _ = Decide(scored("a", 0.0, "b", 0.0))
	if result.State != StateNoMatch {
		t.Fatalf("state = %s, want no_match", result.State)
	}
	if result.Confidence != 0 {
		t.Fatalf("confidence = %v, want 0", result.Confidence)
	}
	if len(result.Ranked) != 2 {
		t.Fatalf("ranked list dropped candidates: %d", len(result.Ranked))
	}
}

func TestDecideRejectsOutOfRangeScores(t *testing.T) {
	for _, bad := range []float64{-0.1, 1.2, math.NaN(), math.Inf(1)} {
		result, err := Decide(scored("a", 0.5, "b", bad))
		if !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("score %v: err = %v, want ErrInvalidInput", bad, err)
		}
		if !result.Invalid || result.State != StateNoMatch {
			t.Fatalf("score %v: result = %+v, want invalid no_match", bad, result)
		}
	}
}

func TestDecideSingleMatchIffFloorAndGap(t *testing.T) {
	for top := 0; top <= 100; top += 5 {
		for second := 0; second <= top; second += 5 {
			topScore := float64(top) / 100
			secondScore := float64(second) / 100
			result, err := Decide(scored("a", topScore, "b", secondScore))
			if err != nil {
				t.Fatalf("Decide(%v, %v) returned error: %v", topScore, secondScore, err)
			}
			var want State
			switch {
			case top == 0:
				want = StateNoMatch
			case top >= 85 && top-second >= 15:
				want = StateSingleMatch
			default:
				want = StateMultipleCandidates
			}
			if result.State != want {
				t.Fatalf("Decide(%v, %v) = %s, want %s", topScore, secondScore, result.State, want)
			}
		}
	}
}

func TestDecideDoesNotReorderInput(t *testing.T) {
	input := scored("low", 0.2, "high", 0.9)
	if _, err := Decide(input); err != nil {
		t.Fatalf("Decide returned error: %v", err)
	}
	if input[0].CandidateID != "low" {
		t.Fatal("Decide mutated its input slice")
	}
}
