package configstore

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/bytecroft/crewmeter/internal/config"
	"github.com/bytecroft/crewmeter/internal/database"
	apperrors "github.com/bytecroft/crewmeter/internal/errors"
	"github.com/bytecroft/crewmeter/internal/monitoring"
)

// Log actions recorded in the audit trail.
const (
	ActionApplyPreset  = "apply_preset"
	ActionUpdateCustom = "update_custom"
)

// CurrentInfo describes the provenance of the active configuration.
type CurrentInfo struct {
	BasedOnPreset string    `json:"based_on_preset"`
	IsCustomized  bool      `json:"is_customized"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Store manages the persisted algorithm configuration: the seeded presets,
// the single active config row, and the append-only change log. Reads go
// through a TTL cache; every successful write invalidates it synchronously.
type Store struct {
	db      *database.DB
	cache   *configCache
	metrics *monitoring.Metrics
	now     func() time.Time
}

// Option customizes a Store.
type Option func(*Store)

// WithTTL overrides the cache TTL.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) { s.cache = newConfigCache(ttl, s.now) }
}

// WithClock injects the time source used for cache expiry and timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
		s.cache = newConfigCache(s.cache.ttl, now)
	}
}

// WithMetrics wires the in-process metrics counters.
func WithMetrics(m *monitoring.Metrics) Option {
	return func(s *Store) { s.metrics = m }
}

// NewStore creates a configuration store.
func NewStore(db *database.DB, opts ...Option) *Store {
	s := &Store{
		db:  db,
		now: time.Now,
	}
	s.cache = newConfigCache(DefaultTTL, s.now)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SeedPresets inserts the built-in presets if missing and initializes the
// active configuration from the standard preset on first start. Safe to call
// on every boot.
func (s *Store) SeedPresets() error {
	for _, preset := range config.BuiltinPresets() {
		raw, err := json.Marshal(preset.Config)
		if err != nil {
			return fmt.Errorf("failed to serialize preset %s: %w", preset.Key, err)
		}
		_, err = s.db.Exec(`
			INSERT INTO algorithm_presets (preset_key, preset_name, description, config_data, created_at)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(preset_key) DO NOTHING
		`, preset.Key, preset.Name, preset.Description, string(raw), s.now())
		if err != nil {
			return fmt.Errorf("failed to seed preset %s: %w", preset.Key, err)
		}
	}

	var count int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM algorithm_active_config WHERE id = 1`).Scan(&count); err != nil {
		return fmt.Errorf("failed to check active config: %w", err)
	}
	if count > 0 {
		return nil
	}

	raw, err := json.Marshal(config.Standard())
	if err != nil {
		return fmt.Errorf("failed to serialize standard config: %w", err)
	}
	_, err = s.db.Exec(`
		INSERT INTO algorithm_active_config (id, config_data, based_on_preset, is_customized, updated_at)
		VALUES (1, ?, ?, FALSE, ?)
	`, string(raw), config.PresetStandard, s.now())
	if err != nil {
		return fmt.Errorf("failed to initialize active config: %w", err)
	}

	slog.Info("Active configuration initialized from standard preset")
	return nil
}

// GetActiveConfig returns the active configuration, served from cache when
// fresh.
func (s *Store) GetActiveConfig() (*config.Config, error) {
	if cfg, _, ok := s.cache.get(); ok {
		if s.metrics != nil {
			s.metrics.IncrementCacheHit()
		}
		return cfg, nil
	}
	if s.metrics != nil {
		s.metrics.IncrementCacheMiss()
	}

	cfg, info, err := s.loadActive()
	if err != nil {
		return nil, err
	}
	s.cache.set(cfg, info)
	return cfg, nil
}

// GetCurrentInfo returns the provenance of the active configuration.
func (s *Store) GetCurrentInfo() (*CurrentInfo, error) {
	if _, info, ok := s.cache.get(); ok {
		return info, nil
	}

	cfg, info, err := s.loadActive()
	if err != nil {
		return nil, err
	}
	s.cache.set(cfg, info)
	return info, nil
}

func (s *Store) loadActive() (*config.Config, *CurrentInfo, error) {
	stmt, err := s.db.GetPreparedStatement("get_active_config")
	if err != nil {
		return nil, nil, err
	}

	var (
		raw       string
		preset    sql.NullString
		custom    bool
		updatedAt time.Time
	)
	err = stmt.QueryRow().Scan(&raw, &preset, &custom, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil, apperrors.NewConfigMissingError()
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load active config: %w", err)
	}

	var cfg config.Config
	if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
		return nil, nil, apperrors.NewConfigurationError("active config is not valid JSON", err)
	}

	info := &CurrentInfo{
		BasedOnPreset: preset.String,
		IsCustomized:  custom,
		UpdatedAt:     updatedAt,
	}
	return &cfg, info, nil
}

// GetPresets returns the seeded presets with their parameter trees.
func (s *Store) GetPresets() ([]config.Preset, error) {
	stmt, err := s.db.GetPreparedStatement("get_presets")
	if err != nil {
		return nil, err
	}

	rows, err := stmt.Query()
	if err != nil {
		return nil, fmt.Errorf("failed to query presets: %w", err)
	}
	defer rows.Close()

	var presets []config.Preset
	for rows.Next() {
		var (
			p    config.Preset
			desc sql.NullString
			raw  string
		)
		if err := rows.Scan(&p.Key, &p.Name, &desc, &raw); err != nil {
			return nil, fmt.Errorf("failed to scan preset row: %w", err)
		}
		p.Description = desc.String

		var cfg config.Config
		if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
			return nil, apperrors.NewConfigurationError(fmt.Sprintf("preset %s is not valid JSON", p.Key), err)
		}
		p.Config = &cfg
		presets = append(presets, p)
	}
	return presets, rows.Err()
}

// ApplyPreset replaces the active configuration with a preset snapshot. The
// active-row replace and the log append commit in one transaction.
func (s *Store) ApplyPreset(presetKey, actor, reason string) (*config.Config, error) {
	var raw string
	err := s.db.QueryRow(`SELECT config_data FROM algorithm_presets WHERE preset_key = ?`, presetKey).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError("preset", presetKey)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load preset %s: %w", presetKey, err)
	}

	var cfg config.Config
	if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
		return nil, apperrors.NewConfigurationError(fmt.Sprintf("preset %s is not valid JSON", presetKey), err)
	}

	if err := s.replaceActive(raw, presetKey, false, ActionApplyPreset, actor, reason); err != nil {
		return nil, err
	}

	slog.Info("Preset applied", "preset", presetKey, "actor", actor)
	return &cfg, nil
}

// UpdateCustomConfig validates and installs a custom configuration. A failed
// validation leaves the active configuration untouched.
func (s *Store) UpdateCustomConfig(cfg *config.Config, actor, reason string) error {
	if err := cfg.Validate(); err != nil {
		return apperrors.NewConfigInvalidError(err)
	}

	raw, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}

	// A custom config has no preset lineage.
	if err := s.replaceActive(string(raw), "", true, ActionUpdateCustom, actor, reason); err != nil {
		return err
	}

	slog.Info("Custom configuration installed", "actor", actor)
	return nil
}

// ValidateConfig dry-runs validation without touching the active config.
func (s *Store) ValidateConfig(cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return apperrors.NewConfigInvalidError(err)
	}
	return nil
}

// replaceActive swaps the active row and appends the audit log atomically,
// then clears the cache.
func (s *Store) replaceActive(rawConfig, basedOnPreset string, customized bool, action, actor, reason string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Capture the outgoing config for the audit entry before overwriting it.
	var oldConfig sql.NullString
	err = tx.QueryRow(`SELECT config_data FROM algorithm_active_config WHERE id = 1`).Scan(&oldConfig)
	if err != nil && err != sql.ErrNoRows {
		return fmt.Errorf("failed to read outgoing config: %w", err)
	}

	now := s.now()
	_, err = tx.Exec(`
		INSERT INTO algorithm_active_config (id, config_data, based_on_preset, is_customized, updated_at)
		VALUES (1, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			config_data = excluded.config_data,
			based_on_preset = excluded.based_on_preset,
			is_customized = excluded.is_customized,
			updated_at = excluded.updated_at
	`, rawConfig, nullIfEmpty(basedOnPreset), customized, now)
	if err != nil {
		return fmt.Errorf("failed to replace active config: %w", err)
	}

	_, err = tx.Exec(`
		INSERT INTO algorithm_config_logs (action, based_on_preset, actor, reason, old_config, config_data, changed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, action, nullIfEmpty(basedOnPreset), actor, reason, oldConfig, rawConfig, now)
	if err != nil {
		return fmt.Errorf("failed to append config log: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit config change: %w", err)
	}

	s.cache.clear()
	if s.metrics != nil {
		s.metrics.IncrementConfigChange()
	}
	return nil
}

func nullIfEmpty(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// GetLogs returns the audit trail, newest first.
func (s *Store) GetLogs(limit, offset int) ([]database.ConfigLogRow, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	stmt, err := s.db.GetPreparedStatement("get_config_logs")
	if err != nil {
		return nil, err
	}

	rows, err := stmt.Query(limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query config logs: %w", err)
	}
	defer rows.Close()

	var logs []database.ConfigLogRow
	for rows.Next() {
		var (
			entry                         database.ConfigLogRow
			preset, actor, reason, oldRaw sql.NullString
		)
		if err := rows.Scan(&entry.ID, &entry.Action, &preset, &actor, &reason, &oldRaw, &entry.NewConfig, &entry.ChangedAt); err != nil {
			return nil, fmt.Errorf("failed to scan config log row: %w", err)
		}
		entry.BasedOnPreset = preset.String
		entry.Actor = actor.String
		entry.Reason = reason.String
		entry.OldConfig = oldRaw.String
		logs = append(logs, entry)
	}
	return logs, rows.Err()
}
