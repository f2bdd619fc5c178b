package scoring

import (
	"math"

	"github.com/bytecroft/crewmeter/internal/config"
)

// Composite computes the weighted five-dimension score and flags key
// personnel. Either trigger alone marks the employee: a composite below the
// threshold, or a monthly violation frequency at or above the limit.
func Composite(scores DimensionScores, violationCount, monthsActive int, cfg *config.Config) CompositeResult {
	w := cfg.Comprehensive.ScoreWeights
	composite := round1(scores.Performance*w.Performance +
		scores.Safety*w.Safety +
		scores.Training*w.Training +
		scores.Stability*w.Stability +
		scores.Learning*w.Learning)

	if monthsActive < 1 {
		monthsActive = 1
	}
	avgFreq := math.Ceil(float64(violationCount) / float64(monthsActive))

	kp := cfg.KeyPersonnel
	return CompositeResult{
		CompositeScore: composite,
		IsKeyPersonnel: composite < kp.ComprehensiveThreshold || avgFreq >= kp.MonthlyViolationThreshold,
	}
}
