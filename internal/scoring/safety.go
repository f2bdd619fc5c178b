package scoring

import (
	"math"

	"github.com/bytecroft/crewmeter/internal/config"
)

// Safety scores a window of violation deductions through two tracks: the
// behavior track penalizes how often violations happen, the severity track
// penalizes how bad they are. The worse track wins. Any single violation at
// or above the critical threshold forces the red-line alert.
func Safety(violations []float64, monthsActive int, cfg *config.Config) SafetyResult {
	if monthsActive < 1 {
		monthsActive = 1
	}
	safety := cfg.Safety

	avgFreq := int(math.Ceil(float64(len(violations)) / float64(monthsActive)))

	behavior := safety.BehaviorTrack
	mult := behavior.FreqMultipliers[len(behavior.FreqMultipliers)-1]
	for i, threshold := range behavior.FreqThresholds {
		if i == len(behavior.FreqThresholds)-1 {
			break
		}
		if float64(avgFreq) <= threshold {
			mult = behavior.FreqMultipliers[i]
			break
		}
	}
	scoreA := math.Max(0, 100-float64(avgFreq)*mult)

	var severitySum float64
	hasCritical := false
	for _, v := range violations {
		severitySum += v * severityMultiplier(v, safety.SeverityTrack.ScoreRanges)
		if v >= safety.SeverityTrack.CriticalThreshold {
			hasCritical = true
		}
	}
	scoreB := math.Max(0, 100-severitySum)

	final := math.Min(scoreA, scoreB)

	res := SafetyResult{
		ScoreA:         round1(scoreA),
		ScoreB:         round1(scoreB),
		FinalScore:     round1(final),
		ViolationCount: len(violations),
		AvgFreq:        avgFreq,
		HasCritical:    hasCritical,
	}

	switch {
	case final < safety.Thresholds.FailScore || hasCritical:
		res.StatusColor = StatusRed
		if hasCritical {
			res.AlertTag = "重大红线（存在高扣分）"
		} else {
			res.AlertTag = "安全不合格"
		}
	case final < safety.Thresholds.WarningScore:
		res.StatusColor = StatusOrange
		if scoreA < scoreB {
			res.AlertTag = "高频违规风险"
		} else {
			res.AlertTag = "扣分过多风险"
		}
	default:
		res.StatusColor = StatusGreen
		res.AlertTag = "安全"
	}
	return res
}

// severityMultiplier picks the first matching bracket rule. A max-only rule
// means "< max", min+max a half-open range, min-only ">= min". Violations
// matching no rule pass through unamplified.
func severityMultiplier(v float64, ranges []config.SeverityRange) float64 {
	for _, r := range ranges {
		switch {
		case r.Min == nil && r.Max != nil:
			if v < *r.Max {
				return r.Multiplier
			}
		case r.Min != nil && r.Max != nil:
			if v >= *r.Min && v < *r.Max {
				return r.Multiplier
			}
		case r.Min != nil:
			if v >= *r.Min {
				return r.Multiplier
			}
		}
	}
	return 1.0
}
