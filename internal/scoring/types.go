package scoring

// StatusColor is the traffic-light state attached to every dimension score,
// consumed by radar-chart and dashboard rendering.
type StatusColor string

const (
	StatusRed    StatusColor = "RED"
	StatusOrange StatusColor = "ORANGE"
	StatusYellow StatusColor = "YELLOW"
	StatusGreen  StatusColor = "GREEN"
	StatusGold   StatusColor = "GOLD"
	StatusGray   StatusColor = "GRAY"
	StatusPurple StatusColor = "PURPLE"
	StatusBlue   StatusColor = "BLUE"
)

// Risk levels produced by the training penalty model.
const (
	LevelNormal   = "NORMAL"
	LevelNotice   = "NOTICE"
	LevelWarning  = "WARNING"
	LevelHighRisk = "HIGH_RISK"
	LevelCritical = "CRITICAL"
)

// Performance calculation modes.
const (
	ModeMonthly = "MONTHLY"
	ModePeriod  = "PERIOD"
)

// PerformanceResult is the performance dimension output.
type PerformanceResult struct {
	RadarValue       float64     `json:"radar_value"`
	DisplayLabel     string      `json:"display_label"`
	StatusColor      StatusColor `json:"status_color"`
	AlertTag         string      `json:"alert_tag"`
	Grade            string      `json:"grade,omitempty"`
	Mode             string      `json:"mode"`
	DCountRaw        int         `json:"d_count_raw,omitempty"`
	DCountEffective  float64     `json:"d_count_effective,omitempty"`
	TimeDecayApplied bool        `json:"time_decay_applied,omitempty"`
}

// SafetyResult is the safety dimension output. FinalScore is always the worse
// of the two tracks.
type SafetyResult struct {
	ScoreA         float64     `json:"score_a"`
	ScoreB         float64     `json:"score_b"`
	FinalScore     float64     `json:"final_score"`
	StatusColor    StatusColor `json:"status_color"`
	AlertTag       string      `json:"alert_tag"`
	ViolationCount int         `json:"violation_count"`
	AvgFreq        int         `json:"avg_freq"`
	HasCritical    bool        `json:"has_critical_violation"`
}

// TrainingRecord is one operational-check outcome. A record counts as a
// failure when it is explicitly disqualified, scored zero, or not qualified.
type TrainingRecord struct {
	Score          float64 `json:"score"`
	IsQualified    bool    `json:"is_qualified"`
	IsDisqualified bool    `json:"is_disqualified"`
	Date           string  `json:"date"`
}

// Failed reports whether this record counts toward the fail count.
func (r TrainingRecord) Failed() bool {
	return r.IsDisqualified || r.Score == 0 || !r.IsQualified
}

// TrainingStats summarizes the inputs a training score was derived from.
type TrainingStats struct {
	TotalOps     int `json:"total_ops"`
	FailCount    int `json:"fail_count"`
	DurationDays int `json:"duration_days"`
}

// RiskAlert carries the operator-facing explanation for a training score.
type RiskAlert struct {
	Show        bool   `json:"show"`
	Level       string `json:"level"`
	Text        string `json:"text"`
	Description string `json:"description"`
}

// TrainingResult is the training dimension output.
type TrainingResult struct {
	RadarScore         float64       `json:"radar_score"`
	OriginalScore      float64       `json:"original_score"`
	PenaltyCoefficient float64       `json:"penalty_coefficient"`
	Stats              TrainingStats `json:"stats"`
	RiskAlert          RiskAlert     `json:"risk_alert"`
	StatusColor        StatusColor   `json:"status_color"`
	AlertTag           string        `json:"alert_tag"`
}

// LearningResult is the learning-trend dimension output. The monthly mode may
// legitimately exceed 100; the long-term mode is clamped to [0, 100].
type LearningResult struct {
	LearningScore float64     `json:"learning_score"`
	Delta         float64     `json:"delta"`
	Slope         float64     `json:"slope"`
	AverageScore  float64     `json:"average_score,omitempty"`
	StatusColor   StatusColor `json:"status_color"`
	AlertTag      string      `json:"alert_tag"`
	Tier          string      `json:"tier"`
}

// Biography holds the tenure dates feeding the stability calculator. All
// fields are optional ISO dates; unparseable values degrade to zero years.
type Biography struct {
	BirthDate         string `json:"birth_date,omitempty"`
	WorkStartDate     string `json:"work_start_date,omitempty"`
	EntryDate         string `json:"entry_date,omitempty"`
	CertificationDate string `json:"certification_date,omitempty"`
	SoloDrivingDate   string `json:"solo_driving_date,omitempty"`
}

// HistoricalScores are per-month dimension score series over the evaluation
// window, used for volatility analysis.
type HistoricalScores struct {
	Performance []float64 `json:"performance"`
	Safety      []float64 `json:"safety"`
	Training    []float64 `json:"training"`
}

// Empty reports whether no series holds any data.
func (h *HistoricalScores) Empty() bool {
	return h == nil || (len(h.Performance) == 0 && len(h.Safety) == 0 && len(h.Training) == 0)
}

// StabilityMetrics exposes the intermediate tenure and volatility numbers.
type StabilityMetrics struct {
	AgeYears     float64 `json:"age_years"`
	WorkingYears float64 `json:"working_years"`
	CompanyYears float64 `json:"company_years"`
	CertYears    float64 `json:"cert_years"`
	SoloYears    float64 `json:"solo_years"`
	Volatility   float64 `json:"volatility"`
}

// StabilityResult is the stability dimension output.
type StabilityResult struct {
	StabilityScore  float64          `json:"stability_score"`
	SeniorityScore  float64          `json:"seniority_score"`
	VolatilityScore float64          `json:"volatility_score"`
	Metrics         StabilityMetrics `json:"metrics"`
	StatusColor     StatusColor      `json:"status_color"`
	AlertTag        string           `json:"alert_tag"`
	Tier            string           `json:"tier"`
}

// DimensionScores collects the five dimension scores for aggregation.
type DimensionScores struct {
	Performance float64 `json:"performance"`
	Safety      float64 `json:"safety"`
	Training    float64 `json:"training"`
	Stability   float64 `json:"stability"`
	Learning    float64 `json:"learning"`
}

// CompositeResult is the weighted composite plus the key-personnel flag.
type CompositeResult struct {
	CompositeScore float64 `json:"comprehensive_score"`
	IsKeyPersonnel bool    `json:"is_key_personnel"`
}
