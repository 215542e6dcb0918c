package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReadDefaults(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "test-token")

	require.NoError(t, Read(filepath.Join(t.TempDir(), "missing.yaml")))

	c := Get()
	require.Equal(t, "test-token", c.Discord.Token)
	require.Equal(t, "developer-bot", c.AppName)
	require.Equal(t, "memory", c.Store.Engine)
	require.Equal(t, 8080, c.Health.Port)
	require.Equal(t, 24, c.Registry.RetentionHours)
	require.Equal(t, 300, c.Session.TimeoutSeconds)
	require.NotEmpty(t, c.Gemini.BaseURL)
	require.NotEmpty(t, c.Valorant.BaseURL)
}

func TestReadRequiresToken(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "")

	err := Read(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestReadFileWithEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
app_name: my-bot
discord:
  token: file-token
store:
  engine: redict
health:
  port: 9000
`), 0644))

	t.Setenv("DISCORD_TOKEN", "env-token")
	t.Setenv("PORT", "9100")

	require.NoError(t, Read(path))

	c := Get()
	require.Equal(t, "my-bot", c.AppName)
	require.Equal(t, "env-token", c.Discord.Token)
	require.Equal(t, "redict", c.Store.Engine)
	require.Equal(t, 9100, c.Health.Port)
}
