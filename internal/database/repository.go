package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrEmployeeNotFound is returned when an employee number has no master row.
var ErrEmployeeNotFound = errors.New("employee not found")

// Repository handles database operations
type Repository struct {
	db *DB
}

// NewRepository creates a new repository
func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

// GetEmployee loads one employee master record.
func (r *Repository) GetEmployee(empNo string) (*Employee, error) {
	stmt, err := r.db.GetPreparedStatement("get_employee")
	if err != nil {
		return nil, err
	}

	var (
		emp  Employee
		dept, position, birth, workStart, entry, cert, solo sql.NullString
	)
	err = stmt.QueryRow(empNo).Scan(
		&emp.EmpNo, &emp.Name, &dept, &position,
		&birth, &workStart, &entry, &cert, &solo,
	)
	if err == sql.ErrNoRows {
		return nil, ErrEmployeeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query employee %s: %w", empNo, err)
	}

	emp.DepartmentName = dept.String
	emp.Position = position.String
	emp.BirthDate = birth.String
	emp.WorkStartDate = workStart.String
	emp.EntryDate = entry.String
	emp.CertificationDate = cert.String
	emp.SoloDrivingDate = solo.String
	return &emp, nil
}

// ListEmployeeNos returns all employee numbers, for whole-roster evaluation.
func (r *Repository) ListEmployeeNos() ([]string, error) {
	rows, err := r.db.Query(`SELECT emp_no FROM employees ORDER BY emp_no ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}
	defer rows.Close()

	var empNos []string
	for rows.Next() {
		var empNo string
		if err := rows.Scan(&empNo); err != nil {
			return nil, fmt.Errorf("failed to scan employee row: %w", err)
		}
		empNos = append(empNos, empNo)
	}
	return empNos, rows.Err()
}

// GetPerformanceWindow returns the appraisals in [startMonth, endMonth],
// ordered by month ascending. Months are 'YYYY-MM'.
func (r *Repository) GetPerformanceWindow(empNo, startMonth, endMonth string) ([]PerformanceRecord, error) {
	stmt, err := r.db.GetPreparedStatement("get_performance_window")
	if err != nil {
		return nil, err
	}

	rows, err := stmt.Query(empNo, startMonth, endMonth)
	if err != nil {
		return nil, fmt.Errorf("failed to query performance records: %w", err)
	}
	defer rows.Close()

	var records []PerformanceRecord
	for rows.Next() {
		rec := PerformanceRecord{EmpNo: empNo}
		if err := rows.Scan(&rec.Month, &rec.Grade, &rec.RawScore); err != nil {
			return nil, fmt.Errorf("failed to scan performance row: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// GetSafetyWindow returns the inspection assessments in [startMonth, endMonth].
func (r *Repository) GetSafetyWindow(empNo, startMonth, endMonth string) ([]SafetyRecord, error) {
	stmt, err := r.db.GetPreparedStatement("get_safety_window")
	if err != nil {
		return nil, err
	}

	rows, err := stmt.Query(empNo, startMonth, endMonth)
	if err != nil {
		return nil, fmt.Errorf("failed to query safety records: %w", err)
	}
	defer rows.Close()

	var records []SafetyRecord
	for rows.Next() {
		rec := SafetyRecord{EmpNo: empNo}
		if err := rows.Scan(&rec.Month, &rec.Assessment); err != nil {
			return nil, fmt.Errorf("failed to scan safety row: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// GetTrainingWindow returns the operational-check results in [startMonth, endMonth].
func (r *Repository) GetTrainingWindow(empNo, startMonth, endMonth string) ([]TrainingRecordRow, error) {
	stmt, err := r.db.GetPreparedStatement("get_training_window")
	if err != nil {
		return nil, err
	}

	rows, err := stmt.Query(empNo, startMonth, endMonth)
	if err != nil {
		return nil, fmt.Errorf("failed to query training records: %w", err)
	}
	defer rows.Close()

	var records []TrainingRecordRow
	for rows.Next() {
		rec := TrainingRecordRow{EmpNo: empNo}
		if err := rows.Scan(&rec.Month, &rec.Score, &rec.IsQualified, &rec.IsDisqualified, &rec.TrainedAt); err != nil {
			return nil, fmt.Errorf("failed to scan training row: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// UpsertEmployee inserts or refreshes one employee master record.
func (r *Repository) UpsertEmployee(emp *Employee) error {
	now := time.Now()
	_, err := r.db.Exec(`
		INSERT INTO employees (emp_no, name, department_name, position,
			birth_date, work_start_date, entry_date, certification_date, solo_driving_date,
			created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(emp_no) DO UPDATE SET
			name = excluded.name,
			department_name = excluded.department_name,
			position = excluded.position,
			birth_date = excluded.birth_date,
			work_start_date = excluded.work_start_date,
			entry_date = excluded.entry_date,
			certification_date = excluded.certification_date,
			solo_driving_date = excluded.solo_driving_date,
			updated_at = excluded.updated_at
	`, emp.EmpNo, emp.Name, emp.DepartmentName, emp.Position,
		emp.BirthDate, emp.WorkStartDate, emp.EntryDate, emp.CertificationDate, emp.SoloDrivingDate,
		now, now)
	if err != nil {
		return fmt.Errorf("failed to upsert employee %s: %w", emp.EmpNo, err)
	}
	return nil
}

// InsertPerformanceRecord stores one monthly appraisal.
func (r *Repository) InsertPerformanceRecord(rec *PerformanceRecord) error {
	if rec.ID == "" {
		rec.ID = NewRecordID()
	}
	_, err := r.db.Exec(`
		INSERT INTO performance_records (id, emp_no, month, grade, raw_score, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(emp_no, month) DO UPDATE SET
			grade = excluded.grade,
			raw_score = excluded.raw_score
	`, rec.ID, rec.EmpNo, rec.Month, rec.Grade, rec.RawScore, time.Now())
	if err != nil {
		return fmt.Errorf("failed to insert performance record: %w", err)
	}
	return nil
}

// InsertSafetyRecord stores one inspection outcome.
func (r *Repository) InsertSafetyRecord(rec *SafetyRecord) error {
	if rec.ID == "" {
		rec.ID = NewRecordID()
	}
	_, err := r.db.Exec(`
		INSERT INTO safety_inspection_records (id, emp_no, month, assessment, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, rec.ID, rec.EmpNo, rec.Month, rec.Assessment, time.Now())
	if err != nil {
		return fmt.Errorf("failed to insert safety record: %w", err)
	}
	return nil
}

// InsertTrainingRecord stores one operational-check result.
func (r *Repository) InsertTrainingRecord(rec *TrainingRecordRow) error {
	if rec.ID == "" {
		rec.ID = NewRecordID()
	}
	_, err := r.db.Exec(`
		INSERT INTO training_records (id, emp_no, month, score, is_qualified, is_disqualified, trained_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.ID, rec.EmpNo, rec.Month, rec.Score, rec.IsQualified, rec.IsDisqualified, rec.TrainedAt, time.Now())
	if err != nil {
		return fmt.Errorf("failed to insert training record: %w", err)
	}
	return nil
}
