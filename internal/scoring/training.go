package scoring

import (
	"fmt"

	"github.com/bytecroft/crewmeter/internal/config"
)

// Training scores a window of operational-check records through the penalty
// model. The penalty rules apply in strict priority: the absolute fail-count
// rule first, then small-sample protection, then the annualized failure rate
// (AFR) bands. certYears selects the new-employee or experienced AFR table;
// pass nil when the certification date is unknown.
func Training(records []TrainingRecord, durationDays int, certYears *float64, cfg *config.Config) TrainingResult {
	training := cfg.Training

	if len(records) == 0 {
		return trainingFallback(durationDays, training.DurationThresholds)
	}

	var (
		scores    []float64
		failCount int
	)
	for _, r := range records {
		scores = append(scores, r.Score)
		if r.Failed() {
			failCount++
		}
	}
	base := mean(scores)
	totalOps := len(records)
	rules := training.PenaltyRules

	coeff := 1.0
	level := LevelNormal
	tag := "能力达标"

	switch {
	case failCount >= rules.AbsoluteThreshold.FailCount:
		coeff = rules.AbsoluteThreshold.Coefficient
		level = LevelCritical
		tag = "业务能力差 (高频失格)"
	case totalOps < rules.SmallSample.SampleSize && failCount > 0:
		coeff = rules.SmallSample.Coefficient
		level = LevelHighRisk
		tag = "观察期失格 (高风险-需带教)"
	case totalOps >= rules.SmallSample.SampleSize:
		days := durationDays
		if days < 1 {
			days = 1
		}
		afr := float64(failCount) / float64(days) * 365
		coeff, level, tag = matchAFR(afr, certYears, rules)
	}

	final := round1(base * coeff)

	res := TrainingResult{
		RadarScore:         final,
		OriginalScore:      round1(base),
		PenaltyCoefficient: coeff,
		Stats: TrainingStats{
			TotalOps:     totalOps,
			FailCount:    failCount,
			DurationDays: durationDays,
		},
		RiskAlert: RiskAlert{
			Show:  failCount > 0,
			Level: level,
			Text:  tag,
		},
		StatusColor: levelColor(level),
		AlertTag:    tag,
	}
	return res
}

// trainingFallback scores an employee with no records at all, by how long the
// gap has lasted.
func trainingFallback(durationDays int, thresholds config.DurationThresholds) TrainingResult {
	var (
		score float64
		color StatusColor
		level string
		tag   string
	)
	switch {
	case durationDays <= thresholds.ShortTermDays:
		score = thresholds.DefaultScores.Short
		color = StatusGreen
		level = LevelNormal
		tag = "未开展培训"
	case durationDays <= thresholds.MidTermDays:
		score = thresholds.DefaultScores.Mid
		color = StatusYellow
		level = LevelNotice
		tag = "长期未培训"
	default:
		score = thresholds.DefaultScores.Long
		color = StatusRed
		level = LevelCritical
		tag = "严重缺训"
	}
	return TrainingResult{
		RadarScore:         score,
		OriginalScore:      score,
		PenaltyCoefficient: 1.0,
		Stats:              TrainingStats{DurationDays: durationDays},
		RiskAlert:          RiskAlert{Show: true, Level: level, Text: tag},
		StatusColor:        color,
		AlertTag:           tag,
	}
}

// matchAFR scans the seniority-appropriate AFR table in listed order. Rules
// with a max bound produce warnings; open-ended rules are critical.
func matchAFR(afr float64, certYears *float64, rules config.PenaltyRules) (float64, string, string) {
	table := rules.AFRExperienced
	if certYears == nil || *certYears < 1 {
		table = rules.AFRNewEmployee
	}
	if len(table) == 0 {
		table = rules.AFRThresholds
	}

	for _, rule := range table {
		switch {
		case rule.Max != nil:
			if afr >= rule.Min && afr < *rule.Max {
				level := LevelNotice
				if rule.Coefficient <= 0.7 {
					level = LevelWarning
				}
				tag := fmt.Sprintf("%s (年化 %.1f 次)", rule.Label, afr)
				return rule.Coefficient, level, tag
			}
		default:
			if afr >= rule.Min {
				tag := fmt.Sprintf("%s (年化 %.1f 次)", rule.Label, afr)
				return rule.Coefficient, LevelCritical, tag
			}
		}
	}
	return 1.0, LevelNormal, "能力达标"
}

func levelColor(level string) StatusColor {
	switch level {
	case LevelCritical:
		return StatusRed
	case LevelHighRisk:
		return StatusPurple
	case LevelWarning:
		return StatusOrange
	case LevelNotice:
		return StatusYellow
	default:
		return StatusGreen
	}
}
