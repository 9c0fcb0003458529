package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := load("", env.Options{Environment: map[string]string{}})
	require.NoError(t, err)
	assert.Equal(t, Defaults(), *cfg)
	assert.Equal(t, 1500*time.Millisecond, cfg.AlbumQuietPeriod)
	assert.Error(t, cfg.Validate(), "bot token is required")
}

func TestLoad_YAMLThenEnvironment(t *testing.T) {
	t.Setenv("ROOMBOT_TEST_TOKEN", "from-yaml")

	path := filepath.Join(t.TempDir(), "config.yaml")
	yamlConfig := `
bot_token: ${ROOMBOT_TEST_TOKEN}
db_driver: postgres
db_dsn: postgres://localhost/rooms
album_quiet_period: 2s
recent_drafts_limit: 3
`
	require.NoError(t, os.WriteFile(path, []byte(yamlConfig), 0o600))

	cfg, err := load(path, env.Options{Environment: map[string]string{
		"RECENT_DRAFTS_LIMIT": "8",
		"METRICS_ADDR":        ":9090",
		"SEND_RATE":           "0.5",
	}})
	require.NoError(t, err)

	assert.Equal(t, "from-yaml", cfg.BotToken)
	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Equal(t, "postgres://localhost/rooms", cfg.DBDSN)
	assert.Equal(t, 2*time.Second, cfg.AlbumQuietPeriod)
	assert.Equal(t, 8, cfg.RecentDraftsLimit, "environment overrides the file")
	assert.Equal(t, ":9090", cfg.MetricsAddr)
	assert.Equal(t, 0.5, cfg.SendRate)
	assert.Equal(t, 5, cfg.SendBurst)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := load(filepath.Join(t.TempDir(), "nope.yaml"), env.Options{})
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := Defaults()
	cfg.BotToken = "token"
	cfg.DBDriver = "mysql"
	cfg.SendBurst = 0

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_DRIVER")
	assert.Contains(t, err.Error(), "SEND_BURST")
	assert.NotContains(t, err.Error(), "BOT_TOKEN")
}
