package evaluation

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/bytecroft/crewmeter/internal/config"
	"github.com/bytecroft/crewmeter/internal/database"
	"github.com/bytecroft/crewmeter/internal/monitoring"
	"github.com/bytecroft/crewmeter/internal/scoring"
)

// FactSource supplies the raw facts an evaluation consumes. Implemented by
// database.Repository; tests provide an in-memory fake.
type FactSource interface {
	GetEmployee(empNo string) (*database.Employee, error)
	ListEmployeeNos() ([]string, error)
	GetPerformanceWindow(empNo, startMonth, endMonth string) ([]database.PerformanceRecord, error)
	GetSafetyWindow(empNo, startMonth, endMonth string) ([]database.SafetyRecord, error)
	GetTrainingWindow(empNo, startMonth, endMonth string) ([]database.TrainingRecordRow, error)
}

// ConfigProvider yields the active algorithm configuration.
type ConfigProvider interface {
	GetActiveConfig() (*config.Config, error)
}

// Request selects who and when to evaluate. Empty EmployeeNos means the whole
// roster. Months are 'YYYY-MM'; an empty window defaults to the current month.
type Request struct {
	EmployeeNos []string `json:"employee_nos,omitempty"`
	StartMonth  string   `json:"start_month"`
	EndMonth    string   `json:"end_month"`
}

// Result is one employee's full scoring profile.
type Result struct {
	EmpNo          string                    `json:"emp_no"`
	Name           string                    `json:"name"`
	DepartmentName string                    `json:"department_name,omitempty"`
	Position       string                    `json:"position,omitempty"`
	StartMonth     string                    `json:"start_month"`
	EndMonth       string                    `json:"end_month"`
	Performance    scoring.PerformanceResult `json:"performance"`
	Safety         scoring.SafetyResult      `json:"safety"`
	Training       scoring.TrainingResult    `json:"training"`
	Learning       scoring.LearningResult    `json:"learning"`
	Stability      scoring.StabilityResult   `json:"stability"`
	Scores         scoring.DimensionScores   `json:"dimension_scores"`
	CompositeScore float64                   `json:"comprehensive_score"`
	IsKeyPersonnel bool                      `json:"is_key_personnel"`
}

// Service orchestrates per-employee evaluations over a bounded worker pool.
type Service struct {
	facts   FactSource
	configs ConfigProvider
	metrics *monitoring.Metrics
	logger  *monitoring.Logger
	workers int
	now     func() time.Time
}

// Option customizes a Service.
type Option func(*Service)

// WithWorkers bounds batch concurrency.
func WithWorkers(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithMetrics wires the in-process metrics counters.
func WithMetrics(m *monitoring.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithLogger wires the structured logger.
func WithLogger(l *monitoring.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithClock injects the time source, pinning time-decay and tenure math.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates an evaluation service.
func NewService(facts FactSource, configs ConfigProvider, opts ...Option) *Service {
	s := &Service{
		facts:   facts,
		configs: configs,
		workers: 8,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// EvaluateBatch evaluates the requested employees and returns results sorted
// by composite score ascending, so the weakest performers surface first. The
// configuration is loaded once for the whole batch. Employees that fail to
// evaluate are logged and skipped.
func (s *Service) EvaluateBatch(ctx context.Context, req Request) ([]Result, error) {
	start := s.now()

	startMonth, endMonth := s.normalizeWindow(req.StartMonth, req.EndMonth)

	cfg, err := s.configs.GetActiveConfig()
	if err != nil {
		return nil, err
	}

	empNos := req.EmployeeNos
	if len(empNos) == 0 {
		empNos, err = s.facts.ListEmployeeNos()
		if err != nil {
			return nil, err
		}
	}

	jobs := make(chan string)
	var (
		mu      sync.Mutex
		results []Result
		wg      sync.WaitGroup
	)

	workers := s.workers
	if workers > len(empNos) {
		workers = len(empNos)
	}
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for empNo := range jobs {
				res, err := s.evaluateOne(empNo, startMonth, endMonth, cfg)
				if err != nil {
					slog.Warn("Skipping employee in batch evaluation", "emp_no", empNo, "error", err)
					continue
				}
				mu.Lock()
				results = append(results, *res)
				mu.Unlock()
				if s.metrics != nil {
					s.metrics.IncrementEvaluation()
				}
			}
		}()
	}

dispatch:
	for _, empNo := range empNos {
		select {
		case <-ctx.Done():
			break dispatch
		case jobs <- empNo:
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].CompositeScore < results[j].CompositeScore
	})

	if s.logger != nil {
		s.logger.EvaluationLogger(len(results), startMonth, endMonth, s.now().Sub(start))
	}
	return results, nil
}

// EvaluateEmployee evaluates a single employee for the window.
func (s *Service) EvaluateEmployee(empNo, startMonth, endMonth string) (*Result, error) {
	startMonth, endMonth = s.normalizeWindow(startMonth, endMonth)

	cfg, err := s.configs.GetActiveConfig()
	if err != nil {
		return nil, err
	}

	res, err := s.evaluateOne(empNo, startMonth, endMonth, cfg)
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.IncrementEvaluation()
	}
	return res, nil
}

func (s *Service) normalizeWindow(startMonth, endMonth string) (string, string) {
	if startMonth == "" && endMonth == "" {
		current := s.now().Format("2006-01")
		return current, current
	}
	if startMonth == "" {
		startMonth = endMonth
	}
	if endMonth == "" {
		endMonth = startMonth
	}
	return startMonth, endMonth
}

func (s *Service) evaluateOne(empNo, startMonth, endMonth string, cfg *config.Config) (*Result, error) {
	emp, err := s.facts.GetEmployee(empNo)
	if err != nil {
		return nil, err
	}

	now := s.now()
	isMonthly := startMonth == endMonth
	monthsActive := monthsBetween(startMonth, endMonth)
	durationDays := windowDays(startMonth, endMonth)
	certYears := certYearsOf(emp.CertificationDate, now)

	perfRows, err := s.facts.GetPerformanceWindow(empNo, startMonth, endMonth)
	if err != nil {
		return nil, err
	}
	safetyRows, err := s.facts.GetSafetyWindow(empNo, startMonth, endMonth)
	if err != nil {
		return nil, err
	}
	trainingRows, err := s.facts.GetTrainingWindow(empNo, startMonth, endMonth)
	if err != nil {
		return nil, err
	}

	// Performance.
	var (
		perfResult scoring.PerformanceResult
		perfScore  float64
	)
	if len(perfRows) > 0 {
		if isMonthly && len(perfRows) == 1 {
			perfResult = scoring.PerformanceMonthly(gradeOrDefault(perfRows[0].Grade), rawOrDefault(perfRows[0].RawScore), cfg)
		} else {
			grades := make([]string, len(perfRows))
			dates := make([]string, len(perfRows))
			for i, row := range perfRows {
				grades[i] = gradeOrDefault(row.Grade)
				dates[i] = row.Month
			}
			perfResult = scoring.PerformancePeriod(grades, dates, cfg, now)
		}
		perfScore = perfResult.RadarValue
	}

	// Safety.
	violations := extractViolations(safetyRows)
	safetyResult := scoring.Safety(violations, monthsActive, cfg)

	// Training.
	trainingResult := scoring.Training(toTrainingRecords(trainingRows), durationDays, certYears, cfg)

	w := cfg.Comprehensive.ScoreWeights
	threeDim := func(perf, safety, training float64) float64 {
		return perf*w.Performance + safety*w.Safety + training*w.Training
	}
	currentComprehensive := threeDim(perfScore, safetyResult.FinalScore, trainingResult.RadarScore)

	// Learning.
	var learningResult scoring.LearningResult
	if isMonthly {
		prev, err := s.monthComprehensive(empNo, prevMonth(startMonth), certYears, cfg)
		if err != nil {
			learningResult = scoring.LearningMonthly(currentComprehensive, currentComprehensive)
		} else {
			learningResult = scoring.LearningMonthly(currentComprehensive, prev)
		}
	} else {
		series := make([]float64, 0, 12)
		for _, month := range monthList(startMonth, endMonth) {
			score, err := s.monthComprehensive(empNo, month, certYears, cfg)
			if err != nil {
				continue
			}
			series = append(series, score)
		}
		if len(series) >= 2 {
			learningResult = scoring.LearningLongTerm(series, cfg)
		} else {
			learningResult = scoring.LearningMonthly(currentComprehensive, currentComprehensive)
		}
	}

	// Stability, over the window or the trailing 12 months.
	histStart, histEnd := startMonth, endMonth
	if isMonthly {
		histEnd = now.Format("2006-01")
		histStart = now.AddDate(0, -11, 0).Format("2006-01")
	}
	hist, err := s.historicalScores(empNo, histStart, histEnd, certYears, cfg)
	if err != nil {
		hist = nil
	}
	stabilityResult := scoring.Stability(scoring.Biography{
		BirthDate:         emp.BirthDate,
		WorkStartDate:     emp.WorkStartDate,
		EntryDate:         emp.EntryDate,
		CertificationDate: emp.CertificationDate,
		SoloDrivingDate:   emp.SoloDrivingDate,
	}, hist, cfg, now)

	scores := scoring.DimensionScores{
		Performance: perfScore,
		Safety:      safetyResult.FinalScore,
		Training:    trainingResult.RadarScore,
		Stability:   stabilityResult.StabilityScore,
		Learning:    learningResult.LearningScore,
	}
	composite := scoring.Composite(scores, len(violations), monthsActive, cfg)

	return &Result{
		EmpNo:          emp.EmpNo,
		Name:           emp.Name,
		DepartmentName: emp.DepartmentName,
		Position:       emp.Position,
		StartMonth:     startMonth,
		EndMonth:       endMonth,
		Performance:    perfResult,
		Safety:         safetyResult,
		Training:       trainingResult,
		Learning:       learningResult,
		Stability:      stabilityResult,
		Scores:         scores,
		CompositeScore: composite.CompositeScore,
		IsKeyPersonnel: composite.IsKeyPersonnel,
	}, nil
}

// monthComprehensive computes the three-dimension composite for one month.
// Missing performance or training score 0; an inspection-free month scores a
// clean 100 on safety.
func (s *Service) monthComprehensive(empNo, month string, certYears *float64, cfg *config.Config) (float64, error) {
	perfRows, err := s.facts.GetPerformanceWindow(empNo, month, month)
	if err != nil {
		return 0, err
	}
	safetyRows, err := s.facts.GetSafetyWindow(empNo, month, month)
	if err != nil {
		return 0, err
	}
	trainingRows, err := s.facts.GetTrainingWindow(empNo, month, month)
	if err != nil {
		return 0, err
	}

	var perfScore float64
	if len(perfRows) > 0 {
		perfScore = scoring.PerformanceMonthly(gradeOrDefault(perfRows[0].Grade), rawOrDefault(perfRows[0].RawScore), cfg).RadarValue
	}

	safetyScore := scoring.Safety(extractViolations(safetyRows), 1, cfg).FinalScore

	var trainingScore float64
	if len(trainingRows) > 0 {
		trainingScore = scoring.Training(toTrainingRecords(trainingRows), 30, certYears, cfg).RadarScore
	}

	w := cfg.Comprehensive.ScoreWeights
	return perfScore*w.Performance + safetyScore*w.Safety + trainingScore*w.Training, nil
}

// historicalScores builds per-month dimension series for volatility analysis.
// A dimension only contributes a month when it has data; safety additionally
// requires at least one actual deduction that month.
func (s *Service) historicalScores(empNo, startMonth, endMonth string, certYears *float64, cfg *config.Config) (*scoring.HistoricalScores, error) {
	hist := &scoring.HistoricalScores{}

	for _, month := range monthList(startMonth, endMonth) {
		perfRows, err := s.facts.GetPerformanceWindow(empNo, month, month)
		if err != nil {
			return nil, err
		}
		if len(perfRows) > 0 {
			score := scoring.PerformanceMonthly(gradeOrDefault(perfRows[0].Grade), rawOrDefault(perfRows[0].RawScore), cfg).RadarValue
			hist.Performance = append(hist.Performance, score)
		}

		safetyRows, err := s.facts.GetSafetyWindow(empNo, month, month)
		if err != nil {
			return nil, err
		}
		if violations := extractViolations(safetyRows); len(violations) > 0 {
			hist.Safety = append(hist.Safety, scoring.Safety(violations, 1, cfg).FinalScore)
		}

		trainingRows, err := s.facts.GetTrainingWindow(empNo, month, month)
		if err != nil {
			return nil, err
		}
		if len(trainingRows) > 0 {
			hist.Training = append(hist.Training, scoring.Training(toTrainingRecords(trainingRows), 30, certYears, cfg).RadarScore)
		}
	}

	if hist.Empty() {
		return nil, nil
	}
	return hist, nil
}

// extractViolations pulls the positive deductions out of inspection rows.
// Zero-score assessments (commendations, fines) do not count as violations.
func extractViolations(rows []database.SafetyRecord) []float64 {
	var violations []float64
	for _, row := range rows {
		if score := scoring.ExtractViolationScore(row.Assessment); score > 0 {
			violations = append(violations, score)
		}
	}
	return violations
}

func toTrainingRecords(rows []database.TrainingRecordRow) []scoring.TrainingRecord {
	records := make([]scoring.TrainingRecord, len(rows))
	for i, row := range rows {
		records[i] = scoring.TrainingRecord{
			Score:          row.Score,
			IsQualified:    row.IsQualified,
			IsDisqualified: row.IsDisqualified,
			Date:           row.TrainedAt,
		}
	}
	return records
}

func gradeOrDefault(grade string) string {
	if grade == "" {
		return "B+"
	}
	return grade
}

func rawOrDefault(raw float64) float64 {
	if raw == 0 {
		return 95
	}
	return raw
}

func certYearsOf(certDate string, now time.Time) *float64 {
	if certDate == "" {
		return nil
	}
	t, err := time.Parse("2006-01-02", certDate)
	if err != nil {
		return nil
	}
	years := now.Sub(t).Hours() / 24 / 365.25
	if years < 0 {
		years = 0
	}
	return &years
}

func parseMonth(month string) (time.Time, error) {
	t, err := time.Parse("2006-01", month)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid month %q: %w", month, err)
	}
	return t, nil
}

// monthsBetween counts the window span in months, floored at one.
func monthsBetween(startMonth, endMonth string) int {
	start, err1 := parseMonth(startMonth)
	end, err2 := parseMonth(endMonth)
	if err1 != nil || err2 != nil {
		return 1
	}
	months := int(end.Sub(start).Hours()/24/30) + 1
	if months < 1 {
		return 1
	}
	return months
}

// windowDays counts the window span in days. A single-month window is a flat
// 30 days.
func windowDays(startMonth, endMonth string) int {
	if startMonth == endMonth {
		return 30
	}
	start, err1 := parseMonth(startMonth)
	end, err2 := parseMonth(endMonth)
	if err1 != nil || err2 != nil {
		return 30
	}
	lastDay := end.AddDate(0, 1, -1)
	days := int(lastDay.Sub(start).Hours()/24) + 1
	if days < 1 {
		return 1
	}
	return days
}

// monthList expands [startMonth, endMonth] into consecutive 'YYYY-MM' values.
func monthList(startMonth, endMonth string) []string {
	start, err1 := parseMonth(startMonth)
	end, err2 := parseMonth(endMonth)
	if err1 != nil || err2 != nil || end.Before(start) {
		return nil
	}
	var months []string
	for m := start; !m.After(end); m = m.AddDate(0, 1, 0) {
		months = append(months, m.Format("2006-01"))
	}
	return months
}

func prevMonth(month string) string {
	t, err := parseMonth(month)
	if err != nil {
		return month
	}
	return t.AddDate(0, -1, 0).Format("2006-01")
}
