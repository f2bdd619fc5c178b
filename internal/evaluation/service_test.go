package evaluation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bytecroft/crewmeter/internal/config"
	"github.com/bytecroft/crewmeter/internal/database"
)

type fakeFacts struct {
	employees map[string]*database.Employee
	perf      map[string][]database.PerformanceRecord
	safety    map[string][]database.SafetyRecord
	training  map[string][]database.TrainingRecordRow
}

func newFakeFacts() *fakeFacts {
	return &fakeFacts{
		employees: make(map[string]*database.Employee),
		perf:      make(map[string][]database.PerformanceRecord),
		safety:    make(map[string][]database.SafetyRecord),
		training:  make(map[string][]database.TrainingRecordRow),
	}
}

func (f *fakeFacts) GetEmployee(empNo string) (*database.Employee, error) {
	emp, ok := f.employees[empNo]
	if !ok {
		return nil, database.ErrEmployeeNotFound
	}
	return emp, nil
}

func (f *fakeFacts) ListEmployeeNos() ([]string, error) {
	var empNos []string
	for empNo := range f.employees {
		empNos = append(empNos, empNo)
	}
	return empNos, nil
}

func (f *fakeFacts) GetPerformanceWindow(empNo, start, end string) ([]database.PerformanceRecord, error) {
	var out []database.PerformanceRecord
	for _, rec := range f.perf[empNo] {
		if rec.Month >= start && rec.Month <= end {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (f *fakeFacts) GetSafetyWindow(empNo, start, end string) ([]database.SafetyRecord, error) {
	var out []database.SafetyRecord
	for _, rec := range f.safety[empNo] {
		if rec.Month >= start && rec.Month <= end {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (f *fakeFacts) GetTrainingWindow(empNo, start, end string) ([]database.TrainingRecordRow, error) {
	var out []database.TrainingRecordRow
	for _, rec := range f.training[empNo] {
		if rec.Month >= start && rec.Month <= end {
			out = append(out, rec)
		}
	}
	return out, nil
}

type staticConfig struct{ cfg *config.Config }

func (s staticConfig) GetActiveConfig() (*config.Config, error) { return s.cfg, nil }

func fixedClock() func() time.Time {
	return func() time.Time {
		return time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)
	}
}

func seedSolid(f *fakeFacts, empNo string) {
	f.employees[empNo] = &database.Employee{
		EmpNo:             empNo,
		Name:              "测试员工" + empNo,
		BirthDate:         "1985-03-01",
		WorkStartDate:     "2005-07-01",
		EntryDate:         "2010-04-01",
		CertificationDate: "2012-09-01",
		SoloDrivingDate:   "2013-02-01",
	}
	f.perf[empNo] = []database.PerformanceRecord{
		{EmpNo: empNo, Month: "2026-05", Grade: "A", RawScore: 102},
		{EmpNo: empNo, Month: "2026-06", Grade: "A", RawScore: 103},
	}
	f.training[empNo] = []database.TrainingRecordRow{
		{EmpNo: empNo, Month: "2026-05", Score: 95, IsQualified: true},
		{EmpNo: empNo, Month: "2026-06", Score: 96, IsQualified: true},
	}
}

func seedWeak(f *fakeFacts, empNo string) {
	f.employees[empNo] = &database.Employee{
		EmpNo:     empNo,
		Name:      "测试员工" + empNo,
		EntryDate: "2026-01-10",
	}
	f.perf[empNo] = []database.PerformanceRecord{
		{EmpNo: empNo, Month: "2026-06", Grade: "D", RawScore: 55},
	}
	f.safety[empNo] = []database.SafetyRecord{
		{EmpNo: empNo, Month: "2026-06", Assessment: "违章作业扣6分"},
		{EmpNo: empNo, Month: "2026-06", Assessment: "未按规定操作扣8分"},
		{EmpNo: empNo, Month: "2026-06", Assessment: "作业标准不符扣4分"},
	}
	f.training[empNo] = []database.TrainingRecordRow{
		{EmpNo: empNo, Month: "2026-06", Score: 0, IsQualified: false, IsDisqualified: true},
	}
}

func TestEvaluateEmployeeMonthly(t *testing.T) {
	facts := newFakeFacts()
	seedSolid(facts, "1001")

	svc := NewService(facts, staticConfig{config.Standard()}, WithClock(fixedClock()))

	res, err := svc.EvaluateEmployee("1001", "2026-06", "2026-06")
	require.NoError(t, err)

	// Single month with one appraisal row uses the monthly algorithm.
	assert.Equal(t, "MONTHLY", res.Performance.Mode)
	assert.Equal(t, 103.0, res.Performance.RadarValue)

	// No inspections at all means a clean safety sheet.
	assert.Equal(t, 100.0, res.Safety.FinalScore)
	assert.Equal(t, 0, res.Safety.ViolationCount)

	assert.Equal(t, 96.0, res.Training.RadarScore)

	// Prior month had comparable facts, so learning lands in a stable tier.
	assert.NotEmpty(t, res.Learning.Tier)

	assert.False(t, res.IsKeyPersonnel)
	assert.Greater(t, res.CompositeScore, 85.0)
}

func TestEvaluateEmployeePeriodMode(t *testing.T) {
	facts := newFakeFacts()
	seedSolid(facts, "1001")

	svc := NewService(facts, staticConfig{config.Standard()}, WithClock(fixedClock()))

	res, err := svc.EvaluateEmployee("1001", "2026-05", "2026-06")
	require.NoError(t, err)

	assert.Equal(t, "PERIOD", res.Performance.Mode)
	// Two A grades: coefficient 1.1 times 95.
	assert.Equal(t, 104.5, res.Performance.RadarValue)
	// Two months of three-dimension history feed the long-term trend.
	assert.NotEqual(t, "数据不足", res.Learning.Tier)
}

func TestEvaluateEmployeeNotFound(t *testing.T) {
	facts := newFakeFacts()
	svc := NewService(facts, staticConfig{config.Standard()}, WithClock(fixedClock()))

	_, err := svc.EvaluateEmployee("9999", "2026-06", "2026-06")
	assert.ErrorIs(t, err, database.ErrEmployeeNotFound)
}

func TestEvaluateBatchSortsAscending(t *testing.T) {
	facts := newFakeFacts()
	seedSolid(facts, "1001")
	seedWeak(facts, "1002")

	svc := NewService(facts, staticConfig{config.Standard()}, WithClock(fixedClock()), WithWorkers(2))

	results, err := svc.EvaluateBatch(context.Background(), Request{
		StartMonth: "2026-06",
		EndMonth:   "2026-06",
	})
	require.NoError(t, err)
	require.Len(t, results, 2)

	// Weakest first.
	assert.Equal(t, "1002", results[0].EmpNo)
	assert.Equal(t, "1001", results[1].EmpNo)
	assert.LessOrEqual(t, results[0].CompositeScore, results[1].CompositeScore)

	// Three violations in one month at or above the monthly threshold.
	assert.True(t, results[0].IsKeyPersonnel)
	assert.Equal(t, 3, results[0].Safety.ViolationCount)
}

func TestEvaluateBatchSkipsUnknownEmployees(t *testing.T) {
	facts := newFakeFacts()
	seedSolid(facts, "1001")

	svc := NewService(facts, staticConfig{config.Standard()}, WithClock(fixedClock()))

	results, err := svc.EvaluateBatch(context.Background(), Request{
		EmployeeNos: []string{"1001", "missing"},
		StartMonth:  "2026-06",
		EndMonth:    "2026-06",
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "1001", results[0].EmpNo)
}

func TestWindowHelpers(t *testing.T) {
	assert.Equal(t, 1, monthsBetween("2026-06", "2026-06"))
	assert.Equal(t, 2, monthsBetween("2026-05", "2026-06"))
	assert.Equal(t, 12, monthsBetween("2025-07", "2026-06"))

	assert.Equal(t, 30, windowDays("2026-06", "2026-06"))
	assert.Equal(t, 61, windowDays("2026-05", "2026-06"))

	assert.Equal(t, []string{"2026-05", "2026-06"}, monthList("2026-05", "2026-06"))
	assert.Nil(t, monthList("2026-06", "2026-05"))

	assert.Equal(t, "2026-05", prevMonth("2026-06"))
	assert.Equal(t, "2025-12", prevMonth("2026-01"))
}
