package config

// Preset is a named, complete snapshot of algorithm parameters. Presets are
// immutable reference data; applying one copies it into the active slot.
type Preset struct {
	Key         string  `json:"preset_key"`
	Name        string  `json:"preset_name"`
	Description string  `json:"description"`
	Config      *Config `json:"config_data"`
}

// Preset keys, in display order.
const (
	PresetStrict   = "strict"
	PresetStandard = "standard"
	PresetLenient  = "lenient"
)

func floatPtr(v float64) *float64 { return &v }

func standardConfig() *Config {
	return &Config{
		Performance: PerformanceConfig{
			GradeCoefficients: map[string]float64{
				"D": 0.0, "C": 0.6, "B": 0.9, "B+": 1.0, "A": 1.1,
			},
			GradeRanges: map[string]GradeRange{
				"D":  {Min: 0, Max: 79.9, RadarOverride: 50},
				"C":  {Min: 80, Max: 89.9},
				"B":  {Min: 90, Max: 94.9},
				"B+": {Min: 95, Max: 99.9},
				"A":  {Min: 100, Max: 110},
			},
			ContaminationRules: ContaminationRules{
				DCountThreshold: 1,
				CCountThreshold: 2,
				DCapScore:       90,
				CCapScore:       94.9,
			},
			TimeDecay: DefaultTimeDecay(),
		},
		Safety: SafetyConfig{
			BehaviorTrack: BehaviorTrack{
				FreqThresholds:  []float64{2, 5, 6},
				FreqMultipliers: []float64{2, 5, 10},
			},
			SeverityTrack: SeverityTrack{
				ScoreRanges: []SeverityRange{
					{Max: floatPtr(3), Multiplier: 1.0},
					{Min: floatPtr(3), Max: floatPtr(5), Multiplier: 2.5},
					{Min: floatPtr(5), Multiplier: 5.0},
				},
				CriticalThreshold: 12,
			},
			Thresholds: SafetyThresholds{FailScore: 60, WarningScore: 90},
		},
		Training: TrainingConfig{
			PenaltyRules: PenaltyRules{
				AbsoluteThreshold: AbsoluteThreshold{FailCount: 3, Coefficient: 0.5},
				SmallSample:       SmallSample{SampleSize: 10, Coefficient: 0.7},
				AFRThresholds: []AFRRule{
					{Min: 2.5, Coefficient: 0.5, Label: "高频失格"},
					{Min: 1.5, Max: floatPtr(2.5), Coefficient: 0.7, Label: "频率偏高"},
					{Min: 0.5, Max: floatPtr(1.5), Coefficient: 0.9, Label: "偶发失格"},
				},
			},
			DurationThresholds: DurationThresholds{
				ShortTermDays: 60,
				MidTermDays:   180,
				DefaultScores: DefaultScores{Short: 65, Mid: 50, Long: 0},
			},
		},
		Comprehensive: ComprehensiveConfig{
			ScoreWeights: ScoreWeights{
				Performance: 0.35,
				Safety:      0.30,
				Training:    0.20,
				Stability:   0.10,
				Learning:    0.05,
			},
		},
		KeyPersonnel: KeyPersonnelConfig{
			ComprehensiveThreshold:    70,
			MonthlyViolationThreshold: 3,
		},
		Learning: DefaultLearning(),
	}
}

func strictConfig() *Config {
	cfg := standardConfig()
	cfg.Performance.ContaminationRules = ContaminationRules{
		DCountThreshold: 1,
		CCountThreshold: 2,
		DCapScore:       85,
		CCapScore:       92,
	}
	cfg.Safety.SeverityTrack.CriticalThreshold = 10
	cfg.Training.PenaltyRules = PenaltyRules{
		AbsoluteThreshold: AbsoluteThreshold{FailCount: 3, Coefficient: 0.4},
		SmallSample:       SmallSample{SampleSize: 10, Coefficient: 0.6},
		AFRThresholds: []AFRRule{
			{Min: 2.5, Coefficient: 0.4, Label: "高频失格"},
			{Min: 1.5, Max: floatPtr(2.5), Coefficient: 0.6, Label: "频率偏高"},
			{Min: 0.5, Max: floatPtr(1.5), Coefficient: 0.85, Label: "偶发失格"},
		},
	}
	cfg.KeyPersonnel = KeyPersonnelConfig{
		ComprehensiveThreshold:    75,
		MonthlyViolationThreshold: 2,
	}
	return cfg
}

func lenientConfig() *Config {
	cfg := standardConfig()
	cfg.Performance.ContaminationRules = ContaminationRules{
		DCountThreshold: 1,
		CCountThreshold: 3,
		DCapScore:       95,
		CCapScore:       97,
	}
	cfg.Safety.SeverityTrack.CriticalThreshold = 15
	cfg.Training.PenaltyRules = PenaltyRules{
		AbsoluteThreshold: AbsoluteThreshold{FailCount: 4, Coefficient: 0.6},
		SmallSample:       SmallSample{SampleSize: 10, Coefficient: 0.8},
		AFRThresholds: []AFRRule{
			{Min: 3.0, Coefficient: 0.6, Label: "高频失格"},
			{Min: 2.0, Max: floatPtr(3.0), Coefficient: 0.8, Label: "频率偏高"},
			{Min: 0.8, Max: floatPtr(2.0), Coefficient: 0.95, Label: "偶发失格"},
		},
	}
	cfg.KeyPersonnel = KeyPersonnelConfig{
		ComprehensiveThreshold:    65,
		MonthlyViolationThreshold: 4,
	}
	return cfg
}

// BuiltinPresets returns the seeded strict/standard/lenient presets.
func BuiltinPresets() []Preset {
	return []Preset{
		{
			Key:         PresetStrict,
			Name:        "严格",
			Description: "更严格的惩罚力度，适用于高要求场景",
			Config:      strictConfig(),
		},
		{
			Key:         PresetStandard,
			Name:        "标准",
			Description: "标准惩罚力度，平衡公平与激励",
			Config:      standardConfig(),
		},
		{
			Key:         PresetLenient,
			Name:        "宽松",
			Description: "较宽松的惩罚力度，适用于培养阶段",
			Config:      lenientConfig(),
		},
	}
}

// Standard returns a fresh copy of the standard preset config, used to
// initialize the active configuration on first start.
func Standard() *Config {
	return standardConfig()
}
