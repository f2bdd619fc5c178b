package config

import "fmt"

var requiredGrades = []string{"D", "C", "B", "B+", "A"}

// ValidationError reports the first configuration field that failed a range
// or structure check. The active configuration is never replaced when
// validation fails.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid config field %q: %s", e.Field, e.Message)
}

func invalid(field, format string, args ...interface{}) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// Validate performs the structural and range checks on a configuration tree.
// It is pure: no side effects, safe for dry-run validation of admin edits.
func (c *Config) Validate() error {
	if c == nil {
		return invalid("config", "configuration is empty")
	}

	// Structural completeness. The optional learning/stability sections have
	// code-side defaults and are exempt.
	if len(c.Performance.GradeCoefficients) == 0 {
		return invalid("performance.grade_coefficients", "missing required section")
	}
	if len(c.Performance.GradeRanges) == 0 {
		return invalid("performance.grade_ranges", "missing required section")
	}
	if len(c.Safety.BehaviorTrack.FreqThresholds) == 0 {
		return invalid("safety.behavior_track", "missing required section")
	}
	if len(c.Training.PenaltyRules.AFRThresholds) == 0 &&
		len(c.Training.PenaltyRules.AFRNewEmployee) == 0 &&
		len(c.Training.PenaltyRules.AFRExperienced) == 0 {
		return invalid("training.penalty_rules", "missing AFR threshold tables")
	}

	for _, grade := range requiredGrades {
		coeff, ok := c.Performance.GradeCoefficients[grade]
		if !ok {
			return invalid("performance.grade_coefficients", "missing coefficient for grade %s", grade)
		}
		if coeff < 0 || coeff > 2 {
			return invalid("performance.grade_coefficients", "coefficient for grade %s outside [0, 2]: %g", grade, coeff)
		}
		if _, ok := c.Performance.GradeRanges[grade]; !ok {
			return invalid("performance.grade_ranges", "missing range for grade %s", grade)
		}
	}

	if len(c.Safety.BehaviorTrack.FreqThresholds) != len(c.Safety.BehaviorTrack.FreqMultipliers) {
		return invalid("safety.behavior_track", "freq_thresholds and freq_multipliers must pair up")
	}
	if t := c.Safety.SeverityTrack.CriticalThreshold; t < 1 || t > 50 {
		return invalid("safety.severity_track.critical_threshold", "outside [1, 50]: %g", t)
	}

	if fc := c.Training.PenaltyRules.AbsoluteThreshold.FailCount; fc < 1 || fc > 10 {
		return invalid("training.penalty_rules.absolute_threshold.fail_count", "outside [1, 10]: %d", fc)
	}
	for name, table := range map[string][]AFRRule{
		"afr_thresholds":              c.Training.PenaltyRules.AFRThresholds,
		"afr_thresholds_new_employee": c.Training.PenaltyRules.AFRNewEmployee,
		"afr_thresholds_experienced":  c.Training.PenaltyRules.AFRExperienced,
	} {
		if err := validateAFROrdering(name, table); err != nil {
			return err
		}
	}

	if sum := c.Comprehensive.ScoreWeights.Sum(); sum < 0.99 || sum > 1.01 {
		return invalid("comprehensive.score_weights", "weights must sum to 1.0, got %g", sum)
	}

	if t := c.KeyPersonnel.ComprehensiveThreshold; t < 0 || t > 100 {
		return invalid("key_personnel.comprehensive_threshold", "outside [0, 100]: %g", t)
	}

	return nil
}

// validateAFROrdering rejects tables whose rules are not listed highest-min
// first. The calculator scans rules in listed order with first-match-wins, so
// a misordered table would silently match the wrong band.
func validateAFROrdering(name string, table []AFRRule) error {
	for i := 1; i < len(table); i++ {
		if table[i].Min > table[i-1].Min {
			return invalid("training.penalty_rules."+name,
				"rules must be ordered by min descending (rule %d has min %g after min %g)",
				i, table[i].Min, table[i-1].Min)
		}
	}
	for i, rule := range table {
		if rule.Max != nil && *rule.Max <= rule.Min {
			return invalid("training.penalty_rules."+name, "rule %d has max %g <= min %g", i, *rule.Max, rule.Min)
		}
		if rule.Coefficient < 0 || rule.Coefficient > 2 {
			return invalid("training.penalty_rules."+name, "rule %d coefficient outside [0, 2]: %g", i, rule.Coefficient)
		}
	}
	return nil
}
