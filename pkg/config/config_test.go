package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Mood-Music-Go/pkg/music"
)

func writeYAML(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":4000", cfg.Server.Addr)
	assert.Equal(t, TextOpenAI, cfg.Text.Provider)
	assert.Equal(t, "sk-test", cfg.Text.OpenAIKey)
	assert.Equal(t, "gpt-4o-mini", cfg.Text.OpenAIModel)
	assert.Equal(t, 100, cfg.Text.MaxTokens)
	assert.Equal(t, BackendFile, cfg.History.Backend)
	assert.Equal(t, 31, cfg.History.MaxEntries)
	assert.Equal(t, 3, cfg.Suggestion.MaxAttempts)
	assert.Equal(t, 10*time.Second, cfg.Suggestion.RequestTimeout)
	assert.Equal(t, music.ProviderAppleMusic, cfg.Suggestion.Provider())
}

func TestLoadYAMLWithEnvOverride(t *testing.T) {
	t.Setenv("CONFIG_PATH", writeYAML(t, `
text:
  provider: anthropic
history:
  backend: sqlite
  database_path: /tmp/journal.db
  max_entries: 14
suggestion:
  preferred_provider: Spotify
  max_attempts: 5
`))
	t.Setenv("SUGGESTION_MAX_ATTEMPTS", "2")
	t.Setenv("SPOTIFY_CLIENT_ID", "id")
	t.Setenv("SPOTIFY_CLIENT_SECRET", "secret")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, TextAnthropic, cfg.Text.Provider)
	assert.Equal(t, BackendSQLite, cfg.History.Backend)
	assert.Equal(t, 14, cfg.History.MaxEntries)
	assert.Equal(t, 2, cfg.Suggestion.MaxAttempts)
	assert.Equal(t, music.ProviderSpotify, cfg.Suggestion.Provider())
	assert.Equal(t, "US", cfg.Catalog.Country)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "nope.yaml"))
	_, err := Load()
	assert.Error(t, err)
}

func validConfig() Config {
	return Config{
		Text:       TextConfig{Provider: "openai", MaxTokens: 100},
		Catalog:    CatalogConfig{Country: "US", SearchLimit: 25},
		History:    HistoryConfig{Backend: "file", Path: "h.json", MaxEntries: 31, MigrationWorkers: 4},
		Suggestion: SuggestionConfig{MaxAttempts: 3, PreferredProvider: "apple_music", RequestTimeout: time.Second},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"valid", func(*Config) {}, true},
		{"provider case", func(c *Config) { c.Text.Provider = " OpenAI " }, true},
		{"unknown text provider", func(c *Config) { c.Text.Provider = "llama" }, false},
		{"unknown backend", func(c *Config) { c.History.Backend = "redis" }, false},
		{"sqlite without path", func(c *Config) { c.History.Backend = "sqlite" }, false},
		{"zero attempts", func(c *Config) { c.Suggestion.MaxAttempts = 0 }, false},
		{"zero entries", func(c *Config) { c.History.MaxEntries = 0 }, false},
		{"unknown catalog", func(c *Config) { c.Suggestion.PreferredProvider = "tidal" }, false},
		{"half spotify creds", func(c *Config) { c.Spotify.ClientID = "id" }, false},
		{"search limit", func(c *Config) { c.Catalog.SearchLimit = 500 }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}
