package config

import "encoding/json"

// Config is the full algorithm parameter tree. It is versioned and persisted
// as a single JSON document; individual sections are never updated in place.
type Config struct {
	Performance   PerformanceConfig   `json:"performance"`
	Safety        SafetyConfig        `json:"safety"`
	Training      TrainingConfig      `json:"training"`
	Comprehensive ComprehensiveConfig `json:"comprehensive"`
	KeyPersonnel  KeyPersonnelConfig  `json:"key_personnel"`
	Learning      *LearningConfig     `json:"learning,omitempty"`
	Stability     *StabilityConfig    `json:"stability,omitempty"`
}

// PerformanceConfig parameterizes the performance dimension calculators.
type PerformanceConfig struct {
	GradeCoefficients  map[string]float64    `json:"grade_coefficients"`
	GradeRanges        map[string]GradeRange `json:"grade_ranges"`
	ContaminationRules ContaminationRules    `json:"contamination_rules"`
	TimeDecay          *TimeDecayConfig      `json:"time_decay,omitempty"`
}

// GradeRange bounds the radar value for one performance grade. RadarOverride
// is only meaningful for the D grade, which is pinned regardless of raw score.
type GradeRange struct {
	Min           float64 `json:"min"`
	Max           float64 `json:"max"`
	RadarOverride float64 `json:"radar_override,omitempty"`
}

// ContaminationRules caps the period-mode performance score once enough low
// grades accumulate, regardless of the average coefficient.
type ContaminationRules struct {
	DCountThreshold float64 `json:"d_count_threshold"`
	CCountThreshold float64 `json:"c_count_threshold"`
	DCapScore       float64 `json:"d_cap_score"`
	CCapScore       float64 `json:"c_cap_score"`
}

// TimeDecayConfig weakens the contamination weight of old D/C grades.
type TimeDecayConfig struct {
	Enabled     bool    `json:"enabled"`
	DecayMonths int     `json:"decay_months"`
	DecayRate   float64 `json:"decay_rate"`
}

// SafetyConfig parameterizes the dual-track safety calculator.
type SafetyConfig struct {
	BehaviorTrack BehaviorTrack    `json:"behavior_track"`
	SeverityTrack SeverityTrack    `json:"severity_track"`
	Thresholds    SafetyThresholds `json:"thresholds"`
}

// BehaviorTrack holds the three-tier frequency deduction table. Thresholds are
// ascending; multipliers pair with them positionally.
type BehaviorTrack struct {
	FreqThresholds  []float64 `json:"freq_thresholds"`
	FreqMultipliers []float64 `json:"freq_multipliers"`
}

// SeverityTrack holds the severity bracket table and the critical red line.
type SeverityTrack struct {
	ScoreRanges       []SeverityRange `json:"score_ranges"`
	CriticalThreshold float64         `json:"critical_threshold"`
}

// SeverityRange is one bracket rule. Max-only means "< max", min+max means a
// half-open range, min-only means ">= min". Rules match first-wins in order.
type SeverityRange struct {
	Min        *float64 `json:"min,omitempty"`
	Max        *float64 `json:"max,omitempty"`
	Multiplier float64  `json:"multiplier"`
}

// SafetyThresholds splits the final safety score into red/orange/green bands.
type SafetyThresholds struct {
	FailScore    float64 `json:"fail_score"`
	WarningScore float64 `json:"warning_score"`
}

// TrainingConfig parameterizes the training penalty model.
type TrainingConfig struct {
	PenaltyRules       PenaltyRules       `json:"penalty_rules"`
	DurationThresholds DurationThresholds `json:"duration_thresholds"`
}

// PenaltyRules selects the penalty coefficient, in strict priority order:
// absolute threshold, then small-sample protection, then annualized rate.
type PenaltyRules struct {
	AbsoluteThreshold AbsoluteThreshold `json:"absolute_threshold"`
	SmallSample       SmallSample       `json:"small_sample"`
	AFRThresholds     []AFRRule         `json:"afr_thresholds,omitempty"`
	AFRNewEmployee    []AFRRule         `json:"afr_thresholds_new_employee,omitempty"`
	AFRExperienced    []AFRRule         `json:"afr_thresholds_experienced,omitempty"`
}

// AbsoluteThreshold is the hard failure rule applied regardless of sample size.
type AbsoluteThreshold struct {
	FailCount   int     `json:"fail_count"`
	Coefficient float64 `json:"coefficient"`
}

// SmallSample softens penalties for employees with few recorded operations.
type SmallSample struct {
	SampleSize  int     `json:"sample_size"`
	Coefficient float64 `json:"coefficient"`
}

// AFRRule matches an annualized failure rate band. A nil Max makes the rule
// open-ended (">= min"). Rules are scanned in listed order, first match wins.
type AFRRule struct {
	Min         float64  `json:"min"`
	Max         *float64 `json:"max,omitempty"`
	Coefficient float64  `json:"coefficient"`
	Label       string   `json:"label"`
}

// DurationThresholds pick the fallback score when no training records exist.
type DurationThresholds struct {
	ShortTermDays int           `json:"short_term_days"`
	MidTermDays   int           `json:"mid_term_days"`
	DefaultScores DefaultScores `json:"default_scores"`
}

// DefaultScores are the no-records fallback scores per window length.
type DefaultScores struct {
	Short float64 `json:"short"`
	Mid   float64 `json:"mid"`
	Long  float64 `json:"long"`
}

// ComprehensiveConfig holds the composite aggregation weights.
type ComprehensiveConfig struct {
	ScoreWeights ScoreWeights `json:"score_weights"`
}

// ScoreWeights must sum to 1.0 within a 0.01 tolerance.
type ScoreWeights struct {
	Performance float64 `json:"performance"`
	Safety      float64 `json:"safety"`
	Training    float64 `json:"training"`
	Stability   float64 `json:"stability"`
	Learning    float64 `json:"learning"`
}

// Sum returns the total of all five weights.
func (w ScoreWeights) Sum() float64 {
	return w.Performance + w.Safety + w.Training + w.Stability + w.Learning
}

// KeyPersonnelConfig flags at-risk employees. Either condition alone triggers
// the flag: a low composite score, or a high monthly violation frequency.
type KeyPersonnelConfig struct {
	ComprehensiveThreshold    float64 `json:"comprehensive_threshold"`
	MonthlyViolationThreshold float64 `json:"monthly_violation_threshold"`
}

// LearningConfig parameterizes the long-term learning trend calculator.
type LearningConfig struct {
	PotentialThreshold float64 `json:"potential_threshold"`
	DeclineThreshold   float64 `json:"decline_threshold"`
	DeclinePenalty     float64 `json:"decline_penalty"`
	SlopeAmplifier     float64 `json:"slope_amplifier"`
}

// StabilityConfig parameterizes the stability calculator. The section is
// optional in persisted configs; absent sections fall back to DefaultStability.
type StabilityConfig struct {
	SeniorityWeights    SeniorityWeights    `json:"seniority_weights"`
	SeniorityThresholds SeniorityThresholds `json:"seniority_thresholds"`
	DimensionWeights    DimensionWeights    `json:"dimension_weights"`
	VolatilityPenalty   VolatilityPenalty   `json:"volatility_penalty"`
}

// SeniorityWeights blend the five tenure-derived sub-scores.
type SeniorityWeights struct {
	Age          float64 `json:"age"`
	WorkingYears float64 `json:"working_years"`
	CompanyYears float64 `json:"company_years"`
	CertYears    float64 `json:"cert_years"`
	SoloYears    float64 `json:"solo_years"`
}

// SeniorityThresholds are the year counts at which each ramp saturates.
type SeniorityThresholds struct {
	AgeCap     float64 `json:"age_cap"`
	WorkingCap float64 `json:"working_cap"`
	CompanyCap float64 `json:"company_cap"`
	CertCap    float64 `json:"cert_cap"`
	SoloCap    float64 `json:"solo_cap"`
}

// DimensionWeights blend seniority against score volatility.
type DimensionWeights struct {
	Seniority  float64 `json:"seniority"`
	Volatility float64 `json:"volatility"`
}

// VolatilityPenalty maps the averaged standard deviation of historical scores
// to a score penalty via three-zone linear interpolation.
type VolatilityPenalty struct {
	LowThreshold  float64 `json:"low_threshold"`
	HighThreshold float64 `json:"high_threshold"`
	MaxPenalty    float64 `json:"max_penalty"`
}

// DefaultTimeDecay returns the decay parameters used when a persisted config
// predates the time-decay feature.
func DefaultTimeDecay() *TimeDecayConfig {
	return &TimeDecayConfig{Enabled: true, DecayMonths: 6, DecayRate: 0.9}
}

// DefaultLearning returns the learning-trend parameters used when the section
// is absent from a persisted config.
func DefaultLearning() *LearningConfig {
	return &LearningConfig{
		PotentialThreshold: 0.5,
		DeclineThreshold:   -0.2,
		DeclinePenalty:     0.8,
		SlopeAmplifier:     10,
	}
}

// DefaultStability returns the stability parameters used when the section is
// absent from a persisted config.
func DefaultStability() *StabilityConfig {
	return &StabilityConfig{
		SeniorityWeights: SeniorityWeights{
			Age:          0.15,
			WorkingYears: 0.20,
			CompanyYears: 0.25,
			CertYears:    0.20,
			SoloYears:    0.20,
		},
		SeniorityThresholds: SeniorityThresholds{
			AgeCap:     30,
			WorkingCap: 20,
			CompanyCap: 10,
			CertCap:    10,
			SoloCap:    10,
		},
		DimensionWeights: DimensionWeights{
			Seniority:  0.60,
			Volatility: 0.40,
		},
		VolatilityPenalty: VolatilityPenalty{
			LowThreshold:  5.0,
			HighThreshold: 15.0,
			MaxPenalty:    0.5,
		},
	}
}

// TimeDecayOrDefault resolves the optional time-decay section.
func (p PerformanceConfig) TimeDecayOrDefault() *TimeDecayConfig {
	if p.TimeDecay != nil {
		return p.TimeDecay
	}
	return DefaultTimeDecay()
}

// LearningOrDefault resolves the optional learning section.
func (c *Config) LearningOrDefault() *LearningConfig {
	if c.Learning != nil {
		return c.Learning
	}
	return DefaultLearning()
}

// StabilityOrDefault resolves the optional stability section.
func (c *Config) StabilityOrDefault() *StabilityConfig {
	if c.Stability != nil {
		return c.Stability
	}
	return DefaultStability()
}

// Clone returns a deep copy via a JSON round-trip. Applying a preset copies
// the preset snapshot so later customization never mutates reference data.
func (c *Config) Clone() *Config {
	raw, err := json.Marshal(c)
	if err != nil {
		return nil
	}
	var out Config
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return &out
}
