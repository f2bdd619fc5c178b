package scoring

import (
	"fmt"
	"math"

	"github.com/bytecroft/crewmeter/internal/config"
)

// Monthly momentum parameters. These are deliberately not configurable; the
// monthly mode is a display heuristic, not a tuned model.
const (
	monthlyMomentumFactor = 1.5
	highPlateauScore      = 95
	highPlateauDelta      = -2
	lowPlateauScore       = 70
	lowPlateauPenalty     = 0.8
	surgeDelta            = 10
)

// LearningMonthly scores a single month by its momentum against the previous
// month's composite. The score amplifies the month-over-month delta and may
// exceed 100 for strong climbers.
func LearningMonthly(current, previous float64) LearningResult {
	delta := current - previous
	score := current + monthlyMomentumFactor*delta

	res := LearningResult{Delta: round1(delta)}

	switch {
	case current >= highPlateauScore && delta >= highPlateauDelta:
		score = math.Max(100, score)
		res.Tier = "高位企稳"
		res.StatusColor = StatusGold
		res.AlertTag = "持续优秀"
	case current < lowPlateauScore && delta <= 0:
		score *= lowPlateauPenalty
		res.Tier = "低位躺平"
		res.StatusColor = StatusRed
		res.AlertTag = "学习停滞"
	case delta > surgeDelta:
		res.Tier = "潜力股"
		res.StatusColor = StatusGold
		res.AlertTag = "进步显著"
	case delta < -surgeDelta:
		res.Tier = "懈怠型"
		res.StatusColor = StatusRed
		res.AlertTag = "状态下滑"
	case delta > 0:
		res.Tier = "稳健型"
		res.StatusColor = StatusGreen
		res.AlertTag = "稳步提升"
	case delta < 0:
		res.Tier = "需关注"
		res.StatusColor = StatusYellow
		res.AlertTag = "轻微回落"
	default:
		res.Tier = "稳健型"
		res.StatusColor = StatusGreen
		res.AlertTag = "保持稳定"
	}

	res.LearningScore = round1(math.Max(0, score))
	return res
}

// LearningLongTerm fits an OLS trend line over a per-month composite series
// and blends the slope into the average. Requires at least two points.
func LearningLongTerm(series []float64, cfg *config.Config) LearningResult {
	if len(series) < 2 {
		return LearningResult{
			StatusColor: StatusGray,
			AlertTag:    "数据不足",
			Tier:        "数据不足",
		}
	}

	learning := cfg.LearningOrDefault()
	avg := mean(series)
	k := olsSlope(series)
	score := clip(avg+k*learning.SlopeAmplifier, 0, 100)

	res := LearningResult{
		LearningScore: round1(score),
		Slope:         round3(k),
		AverageScore:  round1(avg),
	}

	switch {
	case k > learning.PotentialThreshold:
		res.Tier = "上升趋势"
		res.StatusColor = StatusGreen
		res.AlertTag = fmt.Sprintf("表现上升（平均分%.1f，斜率%.2f）", avg, k)
	case k >= learning.DeclineThreshold:
		res.Tier = "稳定表现"
		res.StatusColor = StatusBlue
		res.AlertTag = fmt.Sprintf("表现平稳（平均分%.1f，斜率%.2f）", avg, k)
	default:
		res.Tier = "下降趋势"
		res.StatusColor = StatusOrange
		res.AlertTag = fmt.Sprintf("表现下滑（平均分%.1f，斜率%.2f）", avg, k)
	}
	return res
}
