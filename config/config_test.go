package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv(TokenEnv, "env-token")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "env-token", cfg.Discord.Token)
	assert.Equal(t, DefaultStoryDir, cfg.Adventure.StoryDir)
	assert.Equal(t, DefaultPresenceInterval, cfg.Presence.Interval)
	assert.Equal(t, DefaultActivities, cfg.Presence.Activities)
	assert.Equal(t, []string{SourceWaifu, SourceNekos}, cfg.Images.Sources)
	assert.Equal(t, DefaultImageTimeout, cfg.Images.Timeout)
	assert.Equal(t, DefaultSettingsFile, cfg.Storage.File)
	assert.Equal(t, DefaultLogLevel, cfg.Logging.Level)
	assert.True(t, cfg.Logging.StdoutEnabled())
	assert.NoError(t, cfg.Validate())
}

func TestLoad_ParsesFileAndExpandsEnv(t *testing.T) {
	t.Setenv("PIBOT_TEST_TOKEN", "file-token")

	path := writeConfig(t, `
discord:
  token: ${PIBOT_TEST_TOKEN}
  guild_id: "1234"
  unregister_on_exit: true
adventure:
  story_dir: /srv/stories
presence:
  interval: 15s
  activities: ["un", "deux"]
images:
  timeout: 5s
  sources: [nekos.best]
logging:
  level: debug
  enable_stdout: false
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "file-token", cfg.Discord.Token)
	assert.Equal(t, "1234", cfg.Discord.GuildID)
	assert.True(t, cfg.Discord.UnregisterOnExit)
	assert.Equal(t, "/srv/stories", cfg.Adventure.StoryDir)
	assert.Equal(t, 15*time.Second, cfg.Presence.Interval)
	assert.Equal(t, []string{"un", "deux"}, cfg.Presence.Activities)
	assert.Equal(t, 5*time.Second, cfg.Images.Timeout)
	assert.Equal(t, []string{SourceNekos}, cfg.Images.Sources)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.False(t, cfg.Logging.StdoutEnabled())
}

func TestLoad_EmptyActivitiesDisablesRotation(t *testing.T) {
	path := writeConfig(t, "presence:\n  activities: []\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Empty(t, cfg.Presence.Activities)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		errText string
	}{
		{
			name:    "missing env var",
			content: "discord:\n  token: ${PIBOT_TEST_UNSET_VAR}\n",
			errText: "PIBOT_TEST_UNSET_VAR",
		},
		{
			name:    "bad yaml",
			content: "discord: [\n",
			errText: "failed to parse config",
		},
		{
			name:    "unknown image source",
			content: "images:\n  sources: [imgur]\n",
			errText: "unknown image source",
		},
		{
			name:    "presence too fast",
			content: "presence:\n  interval: 10ms\n",
			errText: "presence.interval",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errText)
		})
	}
}

func TestValidate_RequiresToken(t *testing.T) {
	cfg := &Config{}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), TokenEnv)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("PIBOT_DOTENV_VALUE=hello\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("PIBOT_DOTENV_VALUE") })

	require.NoError(t, LoadDotEnv(envFile))
	assert.Equal(t, "hello", os.Getenv("PIBOT_DOTENV_VALUE"))

	assert.NoError(t, LoadDotEnv(filepath.Join(dir, "missing.env")))
}

func TestLoad_MetricsListen(t *testing.T) {
	t.Setenv(TokenEnv, "env-token")

	cfg, err := Load(writeConfig(t, "metrics:\n  listen: \":9091\"\n"))
	require.NoError(t, err)
	assert.Equal(t, ":9091", cfg.Metrics.Listen)

	cfg, err = Load(writeConfig(t, "discord:\n  guild_id: \"1\"\n"))
	require.NoError(t, err)
	assert.Empty(t, cfg.Metrics.Listen, "metrics stay off unless configured")
}
