package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voxassist/internal/dispatch"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "Vox", cfg.Assistant.Name)
	assert.Equal(t, 50, cfg.Memory.MaxItems)
	assert.Equal(t, 3600, cfg.Timer.MaxSeconds)
	assert.Equal(t, "London", cfg.Weather.DefaultCity)
	assert.Equal(t, "gpt-5-nano", cfg.LLM.Model)
	assert.Equal(t, 30*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, InputMic, cfg.Listen.Input)
	assert.True(t, cfg.System.EnableCommands)
	assert.False(t, cfg.System.EnableVolume)
	assert.Equal(t, "music", cfg.Music.Folder)
}

func TestLoadFile(t *testing.T) {
	path := writeFile(t, "vox.yaml", `
assistant:
  name: Jarvis
memory:
  max_items: 10
weather:
  units: imperial
  default_city: ""
llm:
  timeout: 5s
listen:
  input: stdin
music:
  folder: /srv/songs
canned:
  - trigger: Good Morning
    replies: ["Morning!"]
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "Jarvis", cfg.Assistant.Name)
	assert.Equal(t, "en", cfg.Assistant.Voice)
	assert.Equal(t, 10, cfg.Memory.MaxItems)
	assert.Equal(t, "imperial", cfg.Weather.Units)
	assert.Equal(t, "London", cfg.Weather.DefaultCity)
	assert.Equal(t, 5*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, 150, cfg.LLM.MaxTokens)
	assert.Equal(t, InputStdin, cfg.Listen.Input)
	assert.Equal(t, "/srv/songs", cfg.Music.Folder)

	table := cfg.CannedTable()
	replies, ok := table.Lookup("good morning to you")
	require.True(t, ok)
	assert.Equal(t, []string{"Morning!"}, replies)

	replies, ok = table.Lookup("what's your name")
	require.True(t, ok)
	assert.Contains(t, replies, "I'm Jarvis.")
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "bad.yaml", "memory: [unclosed"))
	assert.ErrorContains(t, err, "parse config")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"valid", func(*Config) {}, ""},
		{"zero memory", func(c *Config) { c.Memory.MaxItems = 0 }, "memory max_items"},
		{"negative timer", func(c *Config) { c.Timer.MaxSeconds = -1 }, "timer max_seconds"},
		{"bad units", func(c *Config) { c.Weather.Units = "kelvin" }, "invalid weather units"},
		{"bad input", func(c *Config) { c.Listen.Input = "telepathy" }, "invalid input"},
		{"bus without url", func(c *Config) { c.Listen.Input = InputBus; c.Bus.URL = "" }, "bus url"},
		{"zero tokens", func(c *Config) { c.LLM.MaxTokens = 0 }, "max_tokens"},
		{"empty canned", func(c *Config) { c.Canned = []dispatch.CannedEntry{{Trigger: "x"}} }, "canned entry 0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.errMsg)
		})
	}
}

func TestLoadCredentials(t *testing.T) {
	env := writeFile(t, ".env", "OPENWEATHER_API_KEY=from-file\nNEWS_API_KEY=from-file\n")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("NEWS_API_KEY", "from-env")
	t.Setenv("OPENWEATHER_API_KEY", "")
	os.Unsetenv("OPENWEATHER_API_KEY")

	cfg := Default()
	require.NoError(t, cfg.LoadCredentials(env))
	assert.Equal(t, "sk-test", cfg.Credentials.OpenAIKey)
	assert.Equal(t, "from-file", cfg.Credentials.WeatherKey)
	assert.Equal(t, "from-env", cfg.Credentials.NewsKey)

	require.NoError(t, cfg.LoadCredentials(filepath.Join(t.TempDir(), "absent.env")))
}
