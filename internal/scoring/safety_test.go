package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bytecroft/crewmeter/internal/config"
)

func TestSafetyDualTrack(t *testing.T) {
	cfg := config.Standard()

	tests := []struct {
		name         string
		violations   []float64
		monthsActive int
		wantA        float64
		wantB        float64
		wantFinal    float64
		wantColor    StatusColor
		wantTag      string
		wantCritical bool
	}{
		{
			name:         "clean record",
			violations:   nil,
			monthsActive: 6,
			wantA:        100,
			wantB:        100,
			wantFinal:    100,
			wantColor:    StatusGreen,
			wantTag:      "安全",
		},
		{
			name:         "severity track dominates",
			violations:   []float64{2, 4, 8},
			monthsActive: 6,
			// ceil(3/6)=1 monthly, tier one: 100-1*2=98.
			wantA: 98,
			// 2*1.0 + 4*2.5 + 8*5.0 = 52 deducted.
			wantB:     48,
			wantFinal: 48,
			wantColor: StatusRed,
			wantTag:   "安全不合格",
		},
		{
			name:         "critical violation forces red line",
			violations:   []float64{12},
			monthsActive: 6,
			wantA:        98,
			wantB:        40,
			wantFinal:    40,
			wantColor:    StatusRed,
			wantTag:      "重大红线（存在高扣分）",
			wantCritical: true,
		},
		{
			name:         "frequency track dominates",
			violations:   []float64{1, 1, 1, 1, 1, 1, 1, 1},
			monthsActive: 1,
			// ceil(8/1)=8, top tier: 100-8*10=20.
			wantA: 20,
			// 8 * 1.0 = 8 deducted.
			wantB:     92,
			wantFinal: 20,
			wantColor: StatusRed,
			wantTag:   "安全不合格",
		},
		{
			name:         "warning band names the weaker track",
			violations:   []float64{1, 1, 1},
			monthsActive: 1,
			// ceil(3/1)=3, tier two: 100-3*5=85.
			wantA:     85,
			wantB:     97,
			wantFinal: 85,
			wantColor: StatusOrange,
			wantTag:   "高频违规风险",
		},
		{
			name:         "zero months floored to one",
			violations:   []float64{1},
			monthsActive: 0,
			wantA:        98,
			wantB:        99,
			wantFinal:    98,
			wantColor:    StatusGreen,
			wantTag:      "安全",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Safety(tt.violations, tt.monthsActive, cfg)
			assert.Equal(t, tt.wantA, got.ScoreA)
			assert.Equal(t, tt.wantB, got.ScoreB)
			assert.Equal(t, tt.wantFinal, got.FinalScore)
			assert.Equal(t, tt.wantColor, got.StatusColor)
			assert.Equal(t, tt.wantTag, got.AlertTag)
			assert.Equal(t, tt.wantCritical, got.HasCritical)
			assert.LessOrEqual(t, got.FinalScore, got.ScoreA)
			assert.LessOrEqual(t, got.FinalScore, got.ScoreB)
		})
	}
}

func TestSeverityMultiplierBrackets(t *testing.T) {
	ranges := config.Standard().Safety.SeverityTrack.ScoreRanges

	tests := []struct {
		value float64
		want  float64
	}{
		{0.5, 1.0},
		{2.9, 1.0},
		{3, 2.5},
		{4.9, 2.5},
		{5, 5.0},
		{20, 5.0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, severityMultiplier(tt.value, ranges), "value %g", tt.value)
	}
}
