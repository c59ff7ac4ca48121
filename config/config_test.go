// ABOUTME: Tests for config loading, defaults, and environment overrides
// ABOUTME: Uses temp TOML files so the user's real config is never read
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/harperreed/dealflow/access"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFileMissingUsesDefaults(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)

	assert.Equal(t, DefaultPageSize, cfg.PageSize)
	assert.Equal(t, DefaultReminderInterval, cfg.ReminderInterval.Duration)
	assert.Equal(t, DefaultDashboardDays, cfg.DashboardDays)
	assert.True(t, cfg.CascadeContactDelete)
	assert.Equal(t, access.LegacyPermissive, cfg.Policy().Legacy)
}

func TestLoadFileParsesTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	body := `
db_path = "/tmp/deals.db"
redis_url = "redis://localhost:6379/0"
page_size = 10
reminder_interval = "45s"
dashboard_days = 0
legacy_tasks = "deny"
cascade_contact_delete = false

[actor]
id = "u1"
email = "Me@Example.com"
name = "Me"
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0600))

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/deals.db", cfg.DBPath)
	assert.Equal(t, "redis://localhost:6379/0", cfg.RedisURL)
	assert.Equal(t, 10, cfg.PageSize)
	assert.Equal(t, 45*time.Second, cfg.ReminderInterval.Duration)
	assert.Equal(t, 0, cfg.DashboardDays)
	assert.False(t, cfg.CascadeContactDelete)
	assert.Equal(t, access.LegacyDeny, cfg.Policy().Legacy)
	assert.Equal(t, access.NewActor("u1", "me@example.com"), cfg.CurrentActor())
}

func TestLoadFileRejectsBadTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("page_size = ["), 0600))

	_, err := LoadFile(path)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("DEALFLOW_PAGE_SIZE", "50")
	t.Setenv("DEALFLOW_REMINDER_INTERVAL", "1m")
	t.Setenv("DEALFLOW_ACTOR_EMAIL", "env@x.com")
	t.Setenv("DEALFLOW_CASCADE_CONTACT_DELETE", "0")

	cfg, err := LoadFile(filepath.Join(t.TempDir(), "none.toml"))
	require.NoError(t, err)

	assert.Equal(t, 50, cfg.PageSize)
	assert.Equal(t, time.Minute, cfg.ReminderInterval.Duration)
	assert.Equal(t, "env@x.com", cfg.Actor.Email)
	assert.False(t, cfg.CascadeContactDelete)
}

func TestEnvOverrideBadNumber(t *testing.T) {
	t.Setenv("DEALFLOW_PAGE_SIZE", "lots")
	_, err := LoadFile(filepath.Join(t.TempDir(), "none.toml"))
	assert.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	cfg := Default()
	cfg.PageSize = 7
	cfg.Actor.Email = "a@b.c"
	require.NoError(t, cfg.Save(path))

	loaded, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 7, loaded.PageSize)
	assert.Equal(t, "a@b.c", loaded.Actor.Email)
	assert.Equal(t, cfg.ReminderInterval, loaded.ReminderInterval)
}
