package domain

import "fmt"

type ConfidenceTier string

const (
	TierHigh   ConfidenceTier = "high"
	TierMedium ConfidenceTier = "medium"
	TierLow    ConfidenceTier = "low"

	// TierUserProvided marks fields a human added; it sits outside the
	// numeric scale, is always selected, and is never re-classified.
	TierUserProvided ConfidenceTier = "user-provided"
)

const (
	highThreshold   = 0.8
	mediumThreshold = 0.6
)

// Classify maps a raw score in [0,1] to a trust tier and a selection default.
// Boundaries are closed downward: 0.8 is medium, 0.6 is low. Out-of-range
// scores are rejected rather than clamped so upstream scoring bugs surface.
func Classify(score float64) (ConfidenceTier, bool, error) {
	if score < 0 || score > 1 {
		return "", false, WrapError(ErrInvalidScore, "classify confidence",
			fmt.Errorf("score %v outside [0,1]", score))
	}
	switch {
	case score > highThreshold:
		return TierHigh, true, nil
	case score > mediumThreshold:
		return TierMedium, true, nil
	default:
		return TierLow, false, nil
	}
}
