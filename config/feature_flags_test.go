package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeatureFlags_Defaults(t *testing.T) {
	ff := LoadFeatureFlags()

	assert.True(t, ff.IsEnabled(FeatureFocusDMOnExpiry, nil))
	assert.True(t, ff.IsEnabled(FeatureFocusEarlyEnd, nil))
	assert.False(t, ff.IsEnabled("does.not.exist", nil))
}

func TestFeatureFlags_EnvOverride(t *testing.T) {
	t.Setenv("FEATURE_FOCUS_DM_ON_EXPIRY", "false")

	ff := LoadFeatureFlags()
	assert.False(t, ff.IsEnabled(FeatureFocusDMOnExpiry, nil))
}

func TestFeatureFlags_RolloutBucketing(t *testing.T) {
	ff := LoadFeatureFlags()
	require.NoError(t, ff.SetRolloutPercent(FeatureGradesDiploma, 50))

	ctx := &FeatureContext{UserID: "123456789"}
	first := ff.IsEnabled(FeatureGradesDiploma, ctx)

	// Bucketing is consistent per user.
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, ff.IsEnabled(FeatureGradesDiploma, ctx))
	}
}

func TestFeatureFlags_AdminAlwaysEnabled(t *testing.T) {
	ff := LoadFeatureFlags()
	require.NoError(t, ff.DisableFeature(FeatureResourceRefresh))

	assert.False(t, ff.IsEnabled(FeatureResourceRefresh, &FeatureContext{UserID: "u1"}))
	assert.True(t, ff.IsEnabled(FeatureResourceRefresh, &FeatureContext{UserID: "u1", IsAdmin: true}))
}

func TestFeatureFlags_UserOverride(t *testing.T) {
	ff := LoadFeatureFlags()
	ff.SetUserOverride("u9", FeatureGradesDiploma, false)

	assert.False(t, ff.IsEnabled(FeatureGradesDiploma, &FeatureContext{UserID: "u9"}))
	assert.True(t, ff.IsEnabled(FeatureGradesDiploma, &FeatureContext{UserID: "other"}))

	ff.ClearUserOverrides("u9")
	assert.True(t, ff.IsEnabled(FeatureGradesDiploma, &FeatureContext{UserID: "u9"}))
}
