package scoring

import "tribunal/internal/signal"

// blend merges the baseline breakdown with a secondary score set. Positive
// sub-scores keep the maximum of the two methods (the secondary signal can
// only raise them); penalties keep the minimum (it can only tighten them).
func blend(b ScoreBreakdown, s *signal.Scores) ScoreBreakdown {
	b.Correctness = maxInt(b.Correctness, s.Correctness)
	b.Grounding = maxInt(b.Grounding, s.Grounding)
	b.Calibration = maxInt(b.Calibration, s.Calibration)
	b.Falsifiability = maxInt(b.Falsifiability, s.Falsifiability)
	b.DeferencePenalty = minInt(b.DeferencePenalty, s.DeferencePenalty)
	b.RefusalPenalty = minInt(b.RefusalPenalty, s.RefusalPenalty)
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
