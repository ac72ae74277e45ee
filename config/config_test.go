package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DISCORD_BOT_TOKEN", "token")
	t.Setenv("DISCORD_PUBLIC_KEY", "abcd")
}

func TestLoad_Defaults(t *testing.T) {
	validEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, EnvDevelopment, cfg.App.Environment)
	assert.Equal(t, StoreJSONFile, cfg.Storage.Backend)
	assert.Equal(t, "America/Toronto", cfg.App.Timezone)
	assert.Equal(t, time.Minute, cfg.Focus.SweepInterval)
	assert.Equal(t, 120*time.Second, cfg.Focus.ApprovalTimeout)
	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.True(t, cfg.Scheduler.Enabled)
}

func TestLoad_MissingToken(t *testing.T) {
	t.Setenv("DISCORD_BOT_TOKEN", "")
	t.Setenv("DISCORD_PUBLIC_KEY", "abcd")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DISCORD_BOT_TOKEN")
}

func TestLoad_PostgresBackendNeedsURL(t *testing.T) {
	validEnv(t)
	t.Setenv("STORE_BACKEND", "postgres")
	t.Setenv("DATABASE_URL", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}

func TestLoad_UnknownBackendRejected(t *testing.T) {
	validEnv(t)
	t.Setenv("STORE_BACKEND", "etcd")

	_, err := Load()
	assert.Error(t, err)
}

func TestModeRoles(t *testing.T) {
	cfg := DiscordConfig{
		DeepFocusRoleID:  "r1",
		StudyGroupRoleID: "r2",
	}

	roles := cfg.ModeRoles()
	assert.Equal(t, map[string]string{"deep": "r1", "study_group": "r2"}, roles)
}

func TestGetEnvStringSlice(t *testing.T) {
	t.Setenv("TEST_SLICE", "a, b,,c")
	assert.Equal(t, []string{"a", "b", "c"}, getEnvStringSlice("TEST_SLICE", nil))
}
