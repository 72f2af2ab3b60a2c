// Package config loads application settings from an optional YAML file, a
// .env file and the process environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"

	"Mood-Music-Go/pkg/music"
)

// Config is the root application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Text       TextConfig       `yaml:"text"`
	Catalog    CatalogConfig    `yaml:"catalog"`
	Spotify    SpotifyConfig    `yaml:"spotify"`
	History    HistoryConfig    `yaml:"history"`
	Suggestion SuggestionConfig `yaml:"suggestion"`
	Log        LogConfig        `yaml:"log"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr            string        `yaml:"addr"             env:"SERVER_ADDR"             env-default:":4000"`
	ReadTimeout     time.Duration `yaml:"read_timeout"     env:"SERVER_READ_TIMEOUT"     env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout"    env:"SERVER_WRITE_TIMEOUT"    env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"10s"`
}

// Text backends.
const (
	TextOpenAI    = "openai"
	TextAnthropic = "anthropic"
)

// TextConfig selects and configures the text model.
type TextConfig struct {
	Provider       string `yaml:"provider"        env:"TEXT_PROVIDER"     env-default:"openai"`
	MaxTokens      int    `yaml:"max_tokens"      env:"TEXT_MAX_TOKENS"   env-default:"100"`
	OpenAIKey      string `yaml:"openai_key"      env:"OPENAI_API_KEY"`
	OpenAIModel    string `yaml:"openai_model"    env:"OPENAI_MODEL"      env-default:"gpt-4o-mini"`
	OpenAIBaseURL  string `yaml:"openai_base_url" env:"OPENAI_BASE_URL"   env-default:"https://api.openai.com/v1"`
	AnthropicKey   string `yaml:"anthropic_key"   env:"ANTHROPIC_API_KEY"`
	AnthropicModel string `yaml:"anthropic_model" env:"ANTHROPIC_MODEL"   env-default:"claude-haiku-4-5"`
}

// CatalogConfig configures the primary catalog search.
type CatalogConfig struct {
	BaseURL     string `yaml:"base_url"     env:"CATALOG_BASE_URL"     env-default:"https://itunes.apple.com/search"`
	Country     string `yaml:"country"      env:"CATALOG_COUNTRY"      env-default:"US"`
	SearchLimit int    `yaml:"search_limit" env:"CATALOG_SEARCH_LIMIT" env-default:"25"`
}

// SpotifyConfig holds the secondary catalog credentials. Both empty disables
// the secondary catalog.
type SpotifyConfig struct {
	ClientID     string `yaml:"client_id"     env:"SPOTIFY_CLIENT_ID"`
	ClientSecret string `yaml:"client_secret" env:"SPOTIFY_CLIENT_SECRET"`
}

// Journal backends.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// HistoryConfig configures the journal.
type HistoryConfig struct {
	Backend          string `yaml:"backend"           env:"HISTORY_BACKEND"           env-default:"file"`
	Path             string `yaml:"path"              env:"HISTORY_PATH"              env-default:"song_history.json"`
	DatabasePath     string `yaml:"database_path"     env:"DATABASE_PATH"             env-default:"moodmusic.db"`
	MaxEntries       int    `yaml:"max_entries"       env:"HISTORY_MAX_ENTRIES"       env-default:"31"`
	MigrationWorkers int    `yaml:"migration_workers" env:"HISTORY_MIGRATION_WORKERS" env-default:"4"`
}

// SuggestionConfig holds orchestrator defaults.
type SuggestionConfig struct {
	MaxAttempts       int           `yaml:"max_attempts"       env:"SUGGESTION_MAX_ATTEMPTS"    env-default:"3"`
	PreferredProvider string        `yaml:"preferred_provider" env:"PREFERRED_PROVIDER"         env-default:"apple_music"`
	RequestTimeout    time.Duration `yaml:"request_timeout"    env:"SUGGESTION_REQUEST_TIMEOUT" env-default:"10s"`
}

// Provider returns the parsed preferred provider. Validate has already
// rejected unknown values.
func (s SuggestionConfig) Provider() music.Provider {
	p, _ := music.ParseProvider(s.PreferredProvider)
	return p
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"text"`
}

// Load reads configuration. A .env file in the working directory is applied
// to the environment first when present. Priority: ENV > YAML > defaults.
// The YAML path comes from CONFIG_PATH (fallback "./config.yaml"); a missing
// fallback file is not an error.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: read .env: %w", err)
	}

	var cfg Config
	path := os.Getenv("CONFIG_PATH")
	explicitPath := path != ""
	if !explicitPath {
		path = "./config.yaml"
	}

	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	} else if explicitPath {
		return nil, fmt.Errorf("config: file %s: %w", path, err)
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config: read env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}
	return &cfg, nil
}

// Validate checks enumerations and bounds. Missing API keys are allowed; the
// affected clients report them per call.
func (c *Config) Validate() error {
	c.Text.Provider = strings.ToLower(strings.TrimSpace(c.Text.Provider))
	switch c.Text.Provider {
	case TextOpenAI, TextAnthropic:
	default:
		return fmt.Errorf("text.provider must be %q or %q (got %q)", TextOpenAI, TextAnthropic, c.Text.Provider)
	}
	if c.Text.MaxTokens <= 0 {
		return fmt.Errorf("text.max_tokens must be > 0 (got %d)", c.Text.MaxTokens)
	}

	c.History.Backend = strings.ToLower(strings.TrimSpace(c.History.Backend))
	switch c.History.Backend {
	case BackendFile:
		if c.History.Path == "" {
			return errors.New("history.path is required for the file backend")
		}
	case BackendSQLite:
		if c.History.DatabasePath == "" {
			return errors.New("history.database_path is required for the sqlite backend")
		}
	default:
		return fmt.Errorf("history.backend must be %q or %q (got %q)", BackendFile, BackendSQLite, c.History.Backend)
	}
	if c.History.MaxEntries <= 0 {
		return fmt.Errorf("history.max_entries must be > 0 (got %d)", c.History.MaxEntries)
	}
	if c.History.MigrationWorkers <= 0 {
		return fmt.Errorf("history.migration_workers must be > 0 (got %d)", c.History.MigrationWorkers)
	}

	if c.Suggestion.MaxAttempts <= 0 {
		return fmt.Errorf("suggestion.max_attempts must be > 0 (got %d)", c.Suggestion.MaxAttempts)
	}
	if c.Suggestion.RequestTimeout <= 0 {
		return fmt.Errorf("suggestion.request_timeout must be > 0 (got %s)", c.Suggestion.RequestTimeout)
	}
	if _, ok := music.ParseProvider(c.Suggestion.PreferredProvider); !ok {
		return fmt.Errorf("suggestion.preferred_provider: unknown provider %q", c.Suggestion.PreferredProvider)
	}
	if c.Catalog.SearchLimit <= 0 || c.Catalog.SearchLimit > 200 {
		return fmt.Errorf("catalog.search_limit must be within 1..200 (got %d)", c.Catalog.SearchLimit)
	}
	if (c.Spotify.ClientID == "") != (c.Spotify.ClientSecret == "") {
		return errors.New("spotify.client_id and spotify.client_secret must be set together")
	}
	return nil
}
