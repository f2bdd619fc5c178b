package database

import (
	"time"

	"github.com/google/uuid"
)

// Employee is the master record, including the tenure dates used by the
// stability dimension. Date fields are ISO strings and may be empty.
type Employee struct {
	EmpNo             string    `json:"emp_no" db:"emp_no"`
	Name              string    `json:"name" db:"name"`
	DepartmentName    string    `json:"department_name,omitempty" db:"department_name"`
	Position          string    `json:"position,omitempty" db:"position"`
	BirthDate         string    `json:"birth_date,omitempty" db:"birth_date"`
	WorkStartDate     string    `json:"work_start_date,omitempty" db:"work_start_date"`
	EntryDate         string    `json:"entry_date,omitempty" db:"entry_date"`
	CertificationDate string    `json:"certification_date,omitempty" db:"certification_date"`
	SoloDrivingDate   string    `json:"solo_driving_date,omitempty" db:"solo_driving_date"`
	CreatedAt         time.Time `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time `json:"updated_at" db:"updated_at"`
}

// PerformanceRecord is one monthly appraisal. Month is 'YYYY-MM'.
type PerformanceRecord struct {
	ID       string  `json:"id" db:"id"`
	EmpNo    string  `json:"emp_no" db:"emp_no"`
	Month    string  `json:"month" db:"month"`
	Grade    string  `json:"grade" db:"grade"`
	RawScore float64 `json:"raw_score" db:"raw_score"`
}

// SafetyRecord is one inspection outcome with its free-text assessment.
type SafetyRecord struct {
	ID         string `json:"id" db:"id"`
	EmpNo      string `json:"emp_no" db:"emp_no"`
	Month      string `json:"month" db:"month"`
	Assessment string `json:"assessment" db:"assessment"`
}

// TrainingRecordRow is one operational-check result.
type TrainingRecordRow struct {
	ID             string  `json:"id" db:"id"`
	EmpNo          string  `json:"emp_no" db:"emp_no"`
	Month          string  `json:"month" db:"month"`
	Score          float64 `json:"score" db:"score"`
	IsQualified    bool    `json:"is_qualified" db:"is_qualified"`
	IsDisqualified bool    `json:"is_disqualified" db:"is_disqualified"`
	TrainedAt      string  `json:"trained_at,omitempty" db:"trained_at"`
}

// ActiveConfigRow is the single-row active configuration snapshot.
type ActiveConfigRow struct {
	ConfigData    string    `json:"config_data" db:"config_data"`
	BasedOnPreset string    `json:"based_on_preset" db:"based_on_preset"`
	IsCustomized  bool      `json:"is_customized" db:"is_customized"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

// PresetRow is one seeded preset with its serialized config.
type PresetRow struct {
	PresetKey   string `json:"preset_key" db:"preset_key"`
	PresetName  string `json:"preset_name" db:"preset_name"`
	Description string `json:"description" db:"description"`
	ConfigData  string `json:"config_data" db:"config_data"`
}

// ConfigLogRow is one entry of the append-only configuration audit trail.
// OldConfig is empty only for the bootstrap entry.
type ConfigLogRow struct {
	ID            int64     `json:"id" db:"id"`
	Action        string    `json:"action" db:"action"`
	BasedOnPreset string    `json:"based_on_preset,omitempty" db:"based_on_preset"`
	Actor         string    `json:"actor,omitempty" db:"actor"`
	Reason        string    `json:"reason,omitempty" db:"reason"`
	OldConfig     string    `json:"old_config,omitempty" db:"old_config"`
	NewConfig     string    `json:"new_config" db:"config_data"`
	ChangedAt     time.Time `json:"changed_at" db:"changed_at"`
}

// NewRecordID generates a primary key for fact rows.
func NewRecordID() string {
	return uuid.New().String()
}
