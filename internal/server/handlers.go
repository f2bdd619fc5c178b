package server

import (
	goerrors "errors"
	"log/slog"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bytecroft/crewmeter/internal/config"
	"github.com/bytecroft/crewmeter/internal/configstore"
	"github.com/bytecroft/crewmeter/internal/database"
	"github.com/bytecroft/crewmeter/internal/errors"
	"github.com/bytecroft/crewmeter/internal/evaluation"
	"github.com/bytecroft/crewmeter/internal/monitoring"
)

var monthPattern = regexp.MustCompile(`^\d{4}-\d{2}$`)

// Server bundles the HTTP handlers with their backing services.
type Server struct {
	store   *configstore.Store
	evals   *evaluation.Service
	metrics *monitoring.Metrics
	logger  *monitoring.Logger
}

// NewServer creates the handler set backed by the given services
func NewServer(store *configstore.Store, evals *evaluation.Service, metrics *monitoring.Metrics, logger *monitoring.Logger) *Server {
	return &Server{
		store:   store,
		evals:   evals,
		metrics: metrics,
		logger:  logger,
	}
}

func (s *Server) respondError(c *gin.Context, err error) {
	if goerrors.Is(err, database.ErrEmployeeNotFound) {
		err = errors.NewNotFoundError("employee", c.Param("emp_no"))
	}

	appErr := errors.ToAppError(err)
	errors.LogError(c, appErr)
	c.JSON(appErr.HTTPStatus, appErr)
}

func validateMonth(name, month string) error {
	if month == "" {
		return nil
	}
	if !monthPattern.MatchString(month) {
		return errors.NewValidationError(name + " must use YYYY-MM format")
	}
	if _, err := time.Parse("2006-01", month); err != nil {
		return errors.NewValidationError(name + " is not a valid month")
	}
	return nil
}

func validateWindow(startMonth, endMonth string) error {
	if err := validateMonth("start_month", startMonth); err != nil {
		return err
	}
	if err := validateMonth("end_month", endMonth); err != nil {
		return err
	}
	if (startMonth == "") != (endMonth == "") {
		return errors.NewValidationError("start_month and end_month must be provided together")
	}
	if startMonth != "" && endMonth < startMonth {
		return errors.NewValidationError("end_month must not precede start_month")
	}
	return nil
}

// getConfig returns the active configuration together with its provenance
func (s *Server) getConfig(c *gin.Context) {
	cfg, err := s.store.GetActiveConfig()
	if err != nil {
		s.respondError(c, err)
		return
	}

	info, err := s.store.GetCurrentInfo()
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"config":          cfg,
		"based_on_preset": info.BasedOnPreset,
		"is_customized":   info.IsCustomized,
		"updated_at":      info.UpdatedAt,
	})
}

// getActiveConfig returns only the active configuration payload
func (s *Server) getActiveConfig(c *gin.Context) {
	cfg, err := s.store.GetActiveConfig()
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, cfg)
}

// getPresets lists the built-in presets
func (s *Server) getPresets(c *gin.Context) {
	presets, err := s.store.GetPresets()
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"presets": presets})
}

type applyPresetRequest struct {
	PresetKey string `json:"preset_key" binding:"required"`
	Actor     string `json:"actor"`
	Reason    string `json:"reason"`
}

// applyPreset switches the active configuration to a built-in preset
func (s *Server) applyPreset(c *gin.Context) {
	var req applyPresetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, errors.NewValidationError("invalid request body: "+err.Error()))
		return
	}

	cfg, err := s.store.ApplyPreset(req.PresetKey, req.Actor, req.Reason)
	if err != nil {
		s.respondError(c, err)
		return
	}

	s.logger.ConfigLogger(configstore.ActionApplyPreset, req.PresetKey, req.Actor)

	c.JSON(http.StatusOK, gin.H{
		"message": "preset applied",
		"preset":  req.PresetKey,
		"config":  cfg,
	})
}

type customConfigRequest struct {
	Config *config.Config `json:"config" binding:"required"`
	Actor  string         `json:"actor"`
	Reason string         `json:"reason"`
}

// updateCustomConfig installs a customized configuration after validation
func (s *Server) updateCustomConfig(c *gin.Context) {
	var req customConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, errors.NewValidationError("invalid request body: "+err.Error()))
		return
	}

	if err := s.store.UpdateCustomConfig(req.Config, req.Actor, req.Reason); err != nil {
		s.respondError(c, err)
		return
	}

	s.logger.ConfigLogger(configstore.ActionUpdateCustom, "", req.Actor)

	c.JSON(http.StatusOK, gin.H{"message": "configuration updated"})
}

// validateConfig dry-runs validation without installing anything
func (s *Server) validateConfig(c *gin.Context) {
	var cfg config.Config
	if err := c.ShouldBindJSON(&cfg); err != nil {
		s.respondError(c, errors.NewValidationError("invalid request body: "+err.Error()))
		return
	}

	if err := s.store.ValidateConfig(&cfg); err != nil {
		appErr := errors.ToAppError(err)
		c.JSON(http.StatusOK, gin.H{
			"valid": false,
			"error": appErr.Msg,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"valid": true})
}

// getConfigLogs returns the change history, newest first
func (s *Server) getConfigLogs(c *gin.Context) {
	limit := 50
	offset := 0

	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}
	if v := c.Query("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			offset = n
		}
	}

	logs, err := s.store.GetLogs(limit, offset)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"logs":   logs,
		"limit":  limit,
		"offset": offset,
	})
}

// evaluateBatch scores a batch of employees over a month window
func (s *Server) evaluateBatch(c *gin.Context) {
	var req evaluation.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, errors.NewValidationError("invalid request body: "+err.Error()))
		return
	}

	if err := validateWindow(req.StartMonth, req.EndMonth); err != nil {
		s.respondError(c, err)
		return
	}

	slog.Info("Starting batch evaluation",
		"employee_count", len(req.EmployeeNos),
		"start_month", req.StartMonth,
		"end_month", req.EndMonth,
		"ip", c.ClientIP())

	results, err := s.evals.EvaluateBatch(c.Request.Context(), req)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"results":     results,
		"total":       len(results),
		"start_month": req.StartMonth,
		"end_month":   req.EndMonth,
	})
}

// evaluateEmployee scores a single employee over a month window
func (s *Server) evaluateEmployee(c *gin.Context) {
	empNo := c.Param("emp_no")
	startMonth := c.Query("start_month")
	endMonth := c.Query("end_month")

	if err := validateWindow(startMonth, endMonth); err != nil {
		s.respondError(c, err)
		return
	}

	result, err := s.evals.EvaluateEmployee(empNo, startMonth, endMonth)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// getMetrics exposes runtime counters
func (s *Server) getMetrics(c *gin.Context) {
	c.JSON(http.StatusOK, s.metrics.GetStats())
}
