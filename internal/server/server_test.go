package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bytecroft/crewmeter/internal/config"
	"github.com/bytecroft/crewmeter/internal/configstore"
	"github.com/bytecroft/crewmeter/internal/database"
	"github.com/bytecroft/crewmeter/internal/evaluation"
	"github.com/bytecroft/crewmeter/internal/monitoring"
)

func newTestRouter(t *testing.T) (*gin.Engine, *database.Repository) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.NewDB(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store := configstore.NewStore(db)
	require.NoError(t, store.SeedPresets())

	repo := database.NewRepository(db)
	metrics := monitoring.NewMetrics()
	logger := monitoring.NewLogger()

	evals := evaluation.NewService(repo, store,
		evaluation.WithMetrics(metrics),
		evaluation.WithLogger(logger))

	srv := NewServer(store, evals, metrics, logger)

	r := gin.New()
	r.Use(RequestIDMiddleware())
	srv.RegisterRoutes(r)
	return r, repo
}

func seedEmployee(t *testing.T, repo *database.Repository, empNo string) {
	t.Helper()

	require.NoError(t, repo.UpsertEmployee(&database.Employee{
		EmpNo:             empNo,
		Name:              "测试员工",
		EntryDate:         "2018-03-01",
		CertificationDate: "2019-06-01",
	}))
	require.NoError(t, repo.InsertPerformanceRecord(&database.PerformanceRecord{
		ID: database.NewRecordID(), EmpNo: empNo, Month: "2026-06", Grade: "A", RawScore: 102,
	}))
	require.NoError(t, repo.InsertTrainingRecord(&database.TrainingRecordRow{
		ID: database.NewRecordID(), EmpNo: empNo, Month: "2026-06", Score: 92, IsQualified: true,
	}))
}

func TestGetConfigEndpoint(t *testing.T) {
	r, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/v1/config", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "standard", body["based_on_preset"])
	assert.Equal(t, false, body["is_customized"])
	assert.Contains(t, body, "config")
}

func TestGetPresetsEndpoint(t *testing.T) {
	r, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/v1/config/presets", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Presets []config.Preset `json:"presets"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Len(t, body.Presets, 3)
}

func TestApplyPresetEndpoint(t *testing.T) {
	r, _ := newTestRouter(t)

	payload := `{"preset_key":"strict","actor":"admin","reason":"audit season"}`
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/v1/config/preset", bytes.NewBufferString(payload))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	// Active config now reflects the strict preset.
	w = httptest.NewRecorder()
	req, _ = http.NewRequest("GET", "/api/v1/config", nil)
	r.ServeHTTP(w, req)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "strict", body["based_on_preset"])
}

func TestApplyUnknownPresetEndpoint(t *testing.T) {
	r, _ := newTestRouter(t)

	payload := `{"preset_key":"draconian"}`
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/v1/config/preset", bytes.NewBufferString(payload))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestValidateConfigEndpoint(t *testing.T) {
	r, _ := newTestRouter(t)

	good, err := json.Marshal(config.Standard())
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/v1/config/validate", bytes.NewBuffer(good))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var verdict map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &verdict))
	assert.Equal(t, true, verdict["valid"])

	bad := config.Standard()
	bad.Comprehensive.ScoreWeights.Safety = 0.9
	badRaw, err := json.Marshal(bad)
	require.NoError(t, err)

	w = httptest.NewRecorder()
	req, _ = http.NewRequest("POST", "/api/v1/config/validate", bytes.NewBuffer(badRaw))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &verdict))
	assert.Equal(t, false, verdict["valid"])
	assert.Equal(t, "Invalid algorithm configuration", verdict["error"])
}

func TestEvaluateBatchEndpoint(t *testing.T) {
	r, repo := newTestRouter(t)
	seedEmployee(t, repo, "1001")

	payload := `{"employee_nos":["1001"],"start_month":"2026-06","end_month":"2026-06"}`
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/v1/evaluations", bytes.NewBufferString(payload))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Results []evaluation.Result `json:"results"`
		Total   int                 `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, 1, body.Total)
	assert.Equal(t, "1001", body.Results[0].EmpNo)
	assert.Greater(t, body.Results[0].CompositeScore, 0.0)
}

func TestEvaluateBatchRejectsBadMonth(t *testing.T) {
	r, _ := newTestRouter(t)

	payload := `{"start_month":"2026/06","end_month":"2026-06"}`
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/v1/evaluations", bytes.NewBufferString(payload))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEvaluateBatchRejectsInvertedWindow(t *testing.T) {
	r, _ := newTestRouter(t)

	payload := `{"start_month":"2026-06","end_month":"2026-01"}`
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/v1/evaluations", bytes.NewBufferString(payload))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEvaluateEmployeeEndpoint(t *testing.T) {
	r, repo := newTestRouter(t)
	seedEmployee(t, repo, "1001")

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/v1/evaluations/1001?start_month=2026-06&end_month=2026-06", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var result evaluation.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, "1001", result.EmpNo)
	assert.Equal(t, "MONTHLY", result.Performance.Mode)
}

func TestEvaluateEmployeeNotFoundEndpoint(t *testing.T) {
	r, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/v1/evaluations/9999", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestConfigLogsEndpoint(t *testing.T) {
	r, _ := newTestRouter(t)

	payload := `{"preset_key":"lenient","actor":"admin"}`
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/v1/config/preset", bytes.NewBufferString(payload))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	req, _ = http.NewRequest("GET", "/api/v1/config/logs?limit=10", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Logs []database.ConfigLogRow `json:"logs"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Logs, 1)
	assert.Equal(t, "lenient", body.Logs[0].BasedOnPreset)
}
