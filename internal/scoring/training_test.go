package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bytecroft/crewmeter/internal/config"
)

func passRecord(score float64) TrainingRecord {
	return TrainingRecord{Score: score, IsQualified: true}
}

func failRecord(score float64) TrainingRecord {
	return TrainingRecord{Score: score, IsQualified: false}
}

func TestTrainingNoRecords(t *testing.T) {
	cfg := config.Standard()

	tests := []struct {
		name      string
		days      int
		wantScore float64
		wantColor StatusColor
		wantLevel string
		wantTag   string
	}{
		{"short gap", 30, 65, StatusGreen, LevelNormal, "未开展培训"},
		{"mid gap", 120, 50, StatusYellow, LevelNotice, "长期未培训"},
		{"long gap", 365, 0, StatusRed, LevelCritical, "严重缺训"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Training(nil, tt.days, nil, cfg)
			assert.Equal(t, tt.wantScore, got.RadarScore)
			assert.Equal(t, tt.wantColor, got.StatusColor)
			assert.Equal(t, tt.wantLevel, got.RiskAlert.Level)
			assert.Equal(t, tt.wantTag, got.AlertTag)
			assert.True(t, got.RiskAlert.Show)
		})
	}
}

func TestTrainingPenaltyPriority(t *testing.T) {
	cfg := config.Standard()

	t.Run("absolute threshold beats everything", func(t *testing.T) {
		records := []TrainingRecord{
			passRecord(90), failRecord(0), failRecord(0), failRecord(0),
		}
		got := Training(records, 30, nil, cfg)
		assert.Equal(t, 0.5, got.PenaltyCoefficient)
		assert.Equal(t, LevelCritical, got.RiskAlert.Level)
		assert.Equal(t, StatusRed, got.StatusColor)
		assert.Equal(t, "业务能力差 (高频失格)", got.AlertTag)
	})

	t.Run("small sample protection", func(t *testing.T) {
		records := []TrainingRecord{passRecord(90), passRecord(95), failRecord(60)}
		got := Training(records, 30, nil, cfg)
		assert.Equal(t, 0.7, got.PenaltyCoefficient)
		assert.Equal(t, LevelHighRisk, got.RiskAlert.Level)
		assert.Equal(t, StatusPurple, got.StatusColor)
		// mean(90,95,60)=81.67, *0.7 = 57.2
		assert.InDelta(t, 57.2, got.RadarScore, 0.05)
	})

	t.Run("annualized rate band for experienced employee", func(t *testing.T) {
		records := make([]TrainingRecord, 0, 10)
		for i := 0; i < 8; i++ {
			records = append(records, passRecord(90))
		}
		records = append(records, failRecord(50), failRecord(50))

		certYears := 3.0
		got := Training(records, 365, &certYears, cfg)

		// 2 failures over 365 days annualizes to 2.0, the 1.5-2.5 band.
		assert.Equal(t, 0.7, got.PenaltyCoefficient)
		assert.Equal(t, LevelWarning, got.RiskAlert.Level)
		assert.Equal(t, StatusOrange, got.StatusColor)
		assert.Contains(t, got.AlertTag, "频率偏高")
		assert.Contains(t, got.AlertTag, "年化 2.0 次")
		// mean = (8*90 + 2*50)/10 = 82, * 0.7 = 57.4
		assert.Equal(t, 57.4, got.RadarScore)
		assert.Equal(t, 82.0, got.OriginalScore)
	})

	t.Run("clean large sample is unpenalized", func(t *testing.T) {
		records := make([]TrainingRecord, 0, 12)
		for i := 0; i < 12; i++ {
			records = append(records, passRecord(92))
		}
		got := Training(records, 180, nil, cfg)
		assert.Equal(t, 1.0, got.PenaltyCoefficient)
		assert.Equal(t, LevelNormal, got.RiskAlert.Level)
		assert.Equal(t, StatusGreen, got.StatusColor)
		assert.Equal(t, 92.0, got.RadarScore)
		assert.False(t, got.RiskAlert.Show)
	})

	t.Run("small clean sample has no penalty", func(t *testing.T) {
		records := []TrainingRecord{passRecord(88), passRecord(94)}
		got := Training(records, 60, nil, cfg)
		assert.Equal(t, 1.0, got.PenaltyCoefficient)
		assert.Equal(t, LevelNormal, got.RiskAlert.Level)
		assert.Equal(t, 91.0, got.RadarScore)
	})
}

func TestTrainingFailDetection(t *testing.T) {
	tests := []struct {
		name   string
		record TrainingRecord
		failed bool
	}{
		{"qualified with score", TrainingRecord{Score: 85, IsQualified: true}, false},
		{"explicitly disqualified", TrainingRecord{Score: 85, IsQualified: true, IsDisqualified: true}, true},
		{"zero score", TrainingRecord{Score: 0, IsQualified: true}, true},
		{"not qualified", TrainingRecord{Score: 70, IsQualified: false}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.failed, tt.record.Failed())
		})
	}
}
