package scoring

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/bytecroft/crewmeter/internal/config"
)

// PerformanceMonthly scores a single month from its grade and raw score. The
// raw score is clamped into the grade's configured range; a D grade pins the
// radar value to the configured override regardless of the raw score.
func PerformanceMonthly(grade string, rawScore float64, cfg *config.Config) PerformanceResult {
	grade = strings.ToUpper(strings.TrimSpace(grade))
	perf := cfg.Performance

	rng, ok := perf.GradeRanges[grade]
	if !ok {
		// Unknown grades are treated as meeting the baseline.
		grade = "B+"
		rng = perf.GradeRanges[grade]
	}
	coeff := perf.GradeCoefficients[grade]

	res := PerformanceResult{
		Grade: grade,
		Mode:  ModeMonthly,
	}

	switch grade {
	case "D":
		res.RadarValue = rng.RadarOverride
		res.StatusColor = StatusRed
		res.AlertTag = "绩效不合格"
	case "C":
		res.RadarValue = clip(rawScore, rng.Min, rng.Max)
		res.StatusColor = StatusOrange
		res.AlertTag = "绩效预警"
	case "B":
		res.RadarValue = clip(rawScore, rng.Min, rng.Max)
		res.StatusColor = StatusOrange
		res.AlertTag = "未达基准"
	case "B+":
		res.RadarValue = clip(rawScore, rng.Min, rng.Max)
		res.StatusColor = StatusGreen
		res.AlertTag = "达标"
	default: // A
		res.RadarValue = clip(rawScore, rng.Min, rng.Max)
		res.StatusColor = StatusGreen
		res.AlertTag = "优秀"
	}

	res.RadarValue = round1(res.RadarValue)
	res.DisplayLabel = fmt.Sprintf("%s级 (系数%g)", grade, coeff)
	return res
}

// PerformancePeriod scores a multi-month window from its grade history. The
// base score is the undecayed average coefficient times 95; time decay only
// weakens how much old D/C grades count toward the contamination caps. dates
// must align with grades positionally ("YYYY-MM" prefixes) for decay to apply.
func PerformancePeriod(grades, dates []string, cfg *config.Config, now time.Time) PerformanceResult {
	if len(grades) == 0 {
		return PerformanceResult{
			RadarValue:   95.0,
			DisplayLabel: "暂无数据",
			StatusColor:  StatusGreen,
			AlertTag:     "暂无数据",
			Mode:         ModePeriod,
		}
	}

	perf := cfg.Performance
	decay := perf.TimeDecayOrDefault()
	decayable := decay.Enabled && len(dates) == len(grades)

	var (
		coeffs     []float64
		dRaw, cRaw int
		dEff, cEff float64
	)
	for i, g := range grades {
		g = strings.ToUpper(strings.TrimSpace(g))
		coeff, ok := perf.GradeCoefficients[g]
		if !ok {
			coeff = 1.0
		}
		coeffs = append(coeffs, coeff)

		if g != "D" && g != "C" {
			continue
		}
		weight := 1.0
		if decayable {
			weight = decayWeight(dates[i], decay, now)
		}
		if g == "D" {
			dRaw++
			dEff += weight
		} else {
			cRaw++
			cEff += weight
		}
	}

	base := mean(coeffs) * 95
	rules := perf.ContaminationRules

	res := PerformanceResult{
		Mode:             ModePeriod,
		DCountRaw:        dRaw,
		DCountEffective:  round2(dEff),
		TimeDecayApplied: decayable,
		DisplayLabel:     fmt.Sprintf("平均系数%.2f", mean(coeffs)),
	}

	switch {
	case dEff >= rules.DCountThreshold:
		res.RadarValue = math.Min(base, rules.DCapScore)
		res.StatusColor = StatusRed
		res.AlertTag = "存在D级考核"
		if decayable && dEff < float64(dRaw) {
			res.AlertTag += fmt.Sprintf(" (有效%.1f次)", dEff)
		}
	case cEff >= rules.CCountThreshold:
		res.RadarValue = math.Min(base, rules.CCapScore)
		res.StatusColor = StatusOrange
		res.AlertTag = "多次C级预警"
	default:
		score := math.Min(base, 110)
		res.RadarValue = score
		switch {
		case score >= 95:
			res.StatusColor = StatusGreen
			res.AlertTag = "综合达标"
		case score >= 80:
			res.StatusColor = StatusOrange
			res.AlertTag = "未达基准"
		default:
			res.StatusColor = StatusRed
			res.AlertTag = "综合不合格"
		}
	}

	res.RadarValue = round1(res.RadarValue)
	return res
}

// decayWeight converts a "YYYY-MM" record date into its contamination weight.
// Records older than the decay window no longer count toward the caps;
// unparseable dates count fully.
func decayWeight(date string, decay *config.TimeDecayConfig, now time.Time) float64 {
	if len(date) < 7 {
		return 1.0
	}
	year, err1 := strconv.Atoi(date[:4])
	month, err2 := strconv.Atoi(date[5:7])
	if err1 != nil || err2 != nil || month < 1 || month > 12 {
		return 1.0
	}
	monthsAgo := (now.Year()-year)*12 + int(now.Month()) - month
	if monthsAgo > decay.DecayMonths {
		return 0
	}
	if monthsAgo < 0 {
		monthsAgo = 0
	}
	return math.Pow(decay.DecayRate, float64(monthsAgo))
}
