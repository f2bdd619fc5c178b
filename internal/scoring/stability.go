package scoring

import (
	"math"
	"strings"
	"time"

	"github.com/bytecroft/crewmeter/internal/config"
)

// Stability blends tenure-derived seniority against historical score
// volatility. Each seniority ramp saturates at its configured cap; volatility
// is the averaged population standard deviation across dimension series.
func Stability(bio Biography, hist *HistoricalScores, cfg *config.Config, now time.Time) StabilityResult {
	stability := cfg.StabilityOrDefault()

	metrics := StabilityMetrics{
		AgeYears:     yearsSince(bio.BirthDate, now),
		WorkingYears: yearsSince(bio.WorkStartDate, now),
		CompanyYears: yearsSince(bio.EntryDate, now),
		CertYears:    yearsSince(bio.CertificationDate, now),
		SoloYears:    yearsSince(bio.SoloDrivingDate, now),
	}

	w := stability.SeniorityWeights
	caps := stability.SeniorityThresholds
	seniority := ramp(metrics.AgeYears, caps.AgeCap)*w.Age +
		ramp(metrics.WorkingYears, caps.WorkingCap)*w.WorkingYears +
		ramp(metrics.CompanyYears, caps.CompanyCap)*w.CompanyYears +
		ramp(metrics.CertYears, caps.CertCap)*w.CertYears +
		ramp(metrics.SoloYears, caps.SoloCap)*w.SoloYears

	volScore, vol := volatilityScore(hist, stability.VolatilityPenalty)
	metrics.Volatility = round2(vol)

	dims := stability.DimensionWeights
	final := seniority*dims.Seniority + volScore*dims.Volatility

	res := StabilityResult{
		StabilityScore:  round1(final),
		SeniorityScore:  round1(seniority),
		VolatilityScore: round1(volScore),
		Metrics:         metrics,
	}

	res.Tier = strings.Join([]string{
		seniorityTier(metrics.CompanyYears, metrics.CertYears),
		volatilityTier(hist, vol, stability.VolatilityPenalty),
	}, "·")

	switch {
	case final >= 85:
		res.StatusColor = StatusGreen
		res.AlertTag = "稳定可靠"
	case final >= 70:
		res.StatusColor = StatusGreen
		res.AlertTag = "基本稳定"
	case final >= 50:
		res.StatusColor = StatusOrange
		res.AlertTag = "稳定性一般"
	default:
		res.StatusColor = StatusRed
		res.AlertTag = "不稳定"
	}

	metrics.AgeYears = round1(metrics.AgeYears)
	metrics.WorkingYears = round1(metrics.WorkingYears)
	metrics.CompanyYears = round1(metrics.CompanyYears)
	metrics.CertYears = round1(metrics.CertYears)
	metrics.SoloYears = round1(metrics.SoloYears)
	res.Metrics = metrics
	return res
}

// ramp maps years into [0, 100], saturating at cap.
func ramp(years, cap float64) float64 {
	if cap <= 0 {
		return 0
	}
	return math.Min(100, years/cap*100)
}

// volatilityScore averages the population std-dev of each dimension series
// with at least two points, then maps it into a score. No usable history
// scores a neutral 100 with zero volatility.
func volatilityScore(hist *HistoricalScores, penalty config.VolatilityPenalty) (score, vol float64) {
	if hist.Empty() {
		return 100, 0
	}
	var stds []float64
	for _, series := range [][]float64{hist.Performance, hist.Safety, hist.Training} {
		if len(series) >= 2 {
			stds = append(stds, stddev(series))
		}
	}
	if len(stds) == 0 {
		return 100, 0
	}
	vol = mean(stds)

	switch {
	case vol <= penalty.LowThreshold:
		return 100, vol
	case vol >= penalty.HighThreshold:
		return 100 * (1 - penalty.MaxPenalty), vol
	default:
		frac := (vol - penalty.LowThreshold) / (penalty.HighThreshold - penalty.LowThreshold)
		return 100 * (1 - penalty.MaxPenalty*frac), vol
	}
}

func seniorityTier(companyYears, certYears float64) string {
	switch {
	case companyYears >= 5 && certYears >= 5:
		return "资深员工"
	case companyYears >= 2 && certYears >= 2:
		return "经验员工"
	case certYears >= 1:
		return "新手期"
	default:
		return "新员工"
	}
}

func volatilityTier(hist *HistoricalScores, vol float64, penalty config.VolatilityPenalty) string {
	switch {
	case hist.Empty() || vol == 0:
		return "无历史数据"
	case vol <= penalty.LowThreshold:
		return "表现稳定"
	case vol <= penalty.HighThreshold:
		return "波动适中"
	default:
		return "高波动风险"
	}
}
