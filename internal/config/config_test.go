package config

import (
	log "log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv unsets the keys for the test so the env file can provide them.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"OPENAI_API_KEY", "OPENWEATHER_API_KEY", "NEWSAPI_KEY"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func writeEnv(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	c, err := Load([]string{"--env", filepath.Join(t.TempDir(), "missing.env")})
	require.NoError(t, err)

	assert.Equal(t, "info", c.LogLevel)
	assert.Equal(t, log.LevelInfo, c.Level())
	assert.Equal(t, 5*time.Second, c.ListenTimeout)
	assert.Equal(t, 10*time.Second, c.PhraseLimit)
	assert.Zero(t, c.HandlerTimeout)
	assert.Equal(t, "guest", c.SessionID())
	assert.False(t, c.Chat)
}

func TestLoadFlagsAndEnvFile(t *testing.T) {
	clearEnv(t)

	env := writeEnv(t, "OPENWEATHER_API_KEY=owm\nNEWSAPI_KEY=news\nOPENAI_API_KEY=sk-test\n")

	c, err := Load([]string{
		"-e", env,
		"-l", "debug",
		"-u", " ada@example.com ",
		"--input", "a.wav", "--input", "b.mp3",
		"--handler-timeout", "30s",
		"--chat",
	})
	require.NoError(t, err)

	assert.Equal(t, log.LevelDebug, c.Level())
	assert.Equal(t, "ada@example.com", c.SessionID())
	assert.Equal(t, []string{"a.wav", "b.mp3"}, c.Inputs)
	assert.Equal(t, 30*time.Second, c.HandlerTimeout)
	assert.Equal(t, "owm", c.WeatherKey)
	assert.Equal(t, "news", c.NewsKey)
	assert.True(t, c.Chat)
}

func TestLoadRejects(t *testing.T) {
	clearEnv(t)
	missing := filepath.Join(t.TempDir(), "missing.env")

	tests := []struct {
		name string
		args []string
	}{
		{"bad level", []string{"--log", "verbose"}},
		{"negative duration", []string{"--listen-timeout", "-1s"}},
		{"chat without key", []string{"--chat"}},
		{"unknown flag", []string{"--nope"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(append([]string{"--env", missing}, tt.args...))
			assert.Error(t, err)
		})
	}
}
