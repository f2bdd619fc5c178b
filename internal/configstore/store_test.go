package configstore

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bytecroft/crewmeter/internal/config"
	"github.com/bytecroft/crewmeter/internal/database"
	apperrors "github.com/bytecroft/crewmeter/internal/errors"
)

func newTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()

	db, err := database.NewDB(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store := NewStore(db, opts...)
	require.NoError(t, store.SeedPresets())
	return store
}

func TestSeedPresetsIsIdempotent(t *testing.T) {
	store := newTestStore(t)

	// Re-seeding must not duplicate presets or reset the active config.
	_, err := store.ApplyPreset(config.PresetStrict, "admin", "tighten up")
	require.NoError(t, err)
	require.NoError(t, store.SeedPresets())

	info, err := store.GetCurrentInfo()
	require.NoError(t, err)
	assert.Equal(t, config.PresetStrict, info.BasedOnPreset)

	presets, err := store.GetPresets()
	require.NoError(t, err)
	assert.Len(t, presets, 3)
}

func TestGetActiveConfigDefaultsToStandard(t *testing.T) {
	store := newTestStore(t)

	cfg, err := store.GetActiveConfig()
	require.NoError(t, err)
	assert.Equal(t, 90.0, cfg.Performance.ContaminationRules.DCapScore)

	info, err := store.GetCurrentInfo()
	require.NoError(t, err)
	assert.Equal(t, config.PresetStandard, info.BasedOnPreset)
	assert.False(t, info.IsCustomized)
}

func TestApplyPresetReplacesActiveAndLogs(t *testing.T) {
	store := newTestStore(t)

	cfg, err := store.ApplyPreset(config.PresetLenient, "admin", "probation cohort")
	require.NoError(t, err)
	assert.Equal(t, 95.0, cfg.Performance.ContaminationRules.DCapScore)

	// Cache was invalidated: the next read sees the new config.
	active, err := store.GetActiveConfig()
	require.NoError(t, err)
	assert.Equal(t, 95.0, active.Performance.ContaminationRules.DCapScore)

	// Applying the same preset twice is idempotent for the active config.
	_, err = store.ApplyPreset(config.PresetLenient, "admin", "again")
	require.NoError(t, err)
	again, err := store.GetActiveConfig()
	require.NoError(t, err)
	assert.Equal(t, active.Performance.ContaminationRules, again.Performance.ContaminationRules)

	logs, err := store.GetLogs(10, 0)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, ActionApplyPreset, logs[0].Action)
	assert.Equal(t, "admin", logs[0].Actor)
}

func TestApplyUnknownPreset(t *testing.T) {
	store := newTestStore(t)

	_, err := store.ApplyPreset("draconian", "admin", "")
	require.Error(t, err)

	appErr, ok := err.(*apperrors.AppError)
	require.True(t, ok)
	assert.Equal(t, apperrors.CategoryNotFound, appErr.Category)
}

func TestUpdateCustomConfigValidates(t *testing.T) {
	store := newTestStore(t)

	before, err := store.GetActiveConfig()
	require.NoError(t, err)

	// A broken weight sum must be rejected without touching the active config.
	bad := config.Standard()
	bad.Comprehensive.ScoreWeights.Learning = 0.5
	err = store.UpdateCustomConfig(bad, "admin", "oops")
	require.Error(t, err)

	after, err := store.GetActiveConfig()
	require.NoError(t, err)
	assert.Equal(t, before.Comprehensive.ScoreWeights, after.Comprehensive.ScoreWeights)

	logs, err := store.GetLogs(10, 0)
	require.NoError(t, err)
	assert.Empty(t, logs)

	// A valid customization installs and flags provenance.
	good := config.Standard()
	good.KeyPersonnel.ComprehensiveThreshold = 72
	require.NoError(t, store.UpdateCustomConfig(good, "admin", "raise the bar"))

	info, err := store.GetCurrentInfo()
	require.NoError(t, err)
	assert.True(t, info.IsCustomized)
	assert.Empty(t, info.BasedOnPreset)

	active, err := store.GetActiveConfig()
	require.NoError(t, err)
	assert.Equal(t, 72.0, active.KeyPersonnel.ComprehensiveThreshold)
}

func TestUpdateCustomConfigClearsPresetLineage(t *testing.T) {
	store := newTestStore(t)

	_, err := store.ApplyPreset(config.PresetStrict, "admin", "tighten up")
	require.NoError(t, err)

	custom := config.Standard()
	custom.KeyPersonnel.ComprehensiveThreshold = 65
	require.NoError(t, store.UpdateCustomConfig(custom, "admin", "hand tuned"))

	// A custom config stands on its own, even when a preset was active before.
	info, err := store.GetCurrentInfo()
	require.NoError(t, err)
	assert.True(t, info.IsCustomized)
	assert.Empty(t, info.BasedOnPreset)

	logs, err := store.GetLogs(10, 0)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, ActionUpdateCustom, logs[0].Action)
	assert.Empty(t, logs[0].BasedOnPreset)
}

func TestConfigLogsCaptureOldAndNewConfig(t *testing.T) {
	store := newTestStore(t)

	_, err := store.ApplyPreset(config.PresetStrict, "admin", "first change")
	require.NoError(t, err)
	_, err = store.ApplyPreset(config.PresetLenient, "admin", "second change")
	require.NoError(t, err)

	logs, err := store.GetLogs(10, 0)
	require.NoError(t, err)
	require.Len(t, logs, 2)

	// Newest entry: strict was replaced by lenient.
	var oldCfg, newCfg config.Config
	require.NoError(t, json.Unmarshal([]byte(logs[0].OldConfig), &oldCfg))
	require.NoError(t, json.Unmarshal([]byte(logs[0].NewConfig), &newCfg))
	assert.Equal(t, 85.0, oldCfg.Performance.ContaminationRules.DCapScore)
	assert.Equal(t, 95.0, newCfg.Performance.ContaminationRules.DCapScore)

	// First entry replaced the seeded standard config.
	require.NoError(t, json.Unmarshal([]byte(logs[1].OldConfig), &oldCfg))
	assert.Equal(t, 90.0, oldCfg.Performance.ContaminationRules.DCapScore)
}

func TestCacheExpiryUsesInjectedClock(t *testing.T) {
	current := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	clock := func() time.Time { return current }

	store := newTestStore(t, WithTTL(time.Minute), WithClock(clock))

	first, err := store.GetActiveConfig()
	require.NoError(t, err)

	// Within the TTL the same pointer is served from cache.
	cached, err := store.GetActiveConfig()
	require.NoError(t, err)
	assert.Same(t, first, cached)

	// Past the TTL a fresh copy is loaded.
	current = current.Add(2 * time.Minute)
	reloaded, err := store.GetActiveConfig()
	require.NoError(t, err)
	assert.NotSame(t, first, reloaded)
}

func TestGetLogsPagination(t *testing.T) {
	store := newTestStore(t)

	for _, key := range []string{config.PresetStrict, config.PresetStandard, config.PresetLenient} {
		_, err := store.ApplyPreset(key, "admin", "cycle")
		require.NoError(t, err)
	}

	page, err := store.GetLogs(2, 0)
	require.NoError(t, err)
	require.Len(t, page, 2)
	// Newest first.
	assert.Equal(t, config.PresetLenient, page[0].BasedOnPreset)

	rest, err := store.GetLogs(2, 2)
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, config.PresetStrict, rest[0].BasedOnPreset)
}
