// Package config loads runtime configuration from a YAML file, a .env file,
// and environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/rcliao/site-assistant/internal/apperr"
)

// Export modes for document conversion.
const (
	ExportMarkdown = "markdown"
	ExportChunks   = "chunks"
)

// Config is the full runtime configuration.
type Config struct {
	DBPath    string          `yaml:"db_path"`
	Vector    VectorConfig    `yaml:"vector"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	LLM       LLMConfig       `yaml:"llm"`
	Tracker   TrackerConfig   `yaml:"tracker"`
	Log       LogConfig       `yaml:"log"`
}

// VectorConfig configures the document vector index.
type VectorConfig struct {
	// Dir is where chromem persists collections. Empty keeps the index in memory.
	Dir        string `yaml:"dir"`
	Collection string `yaml:"collection"`
	ExportMode string `yaml:"export_mode"`
	Compress   bool   `yaml:"compress"`
}

// EmbeddingConfig selects the embedding provider.
type EmbeddingConfig struct {
	Provider string `yaml:"provider"` // hash, ollama, openai
	Model    string `yaml:"model"`
	URL      string `yaml:"url"`
	APIKey   string `yaml:"api_key"`
	Dims     int    `yaml:"dims"`
}

// LLMConfig configures the Anthropic responder.
type LLMConfig struct {
	APIKey    string `yaml:"api_key"`
	Model     string `yaml:"model"`
	MaxTokens int64  `yaml:"max_tokens"`
	MaxTurns  int    `yaml:"max_turns"`
}

// TrackerConfig configures the ClickUp client.
type TrackerConfig struct {
	Token       string `yaml:"token"`
	WorkspaceID string `yaml:"workspace_id"`
	BaseURL     string `yaml:"base_url"`
}

// LogConfig configures logging output.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	home, _ := os.UserHomeDir()
	base := filepath.Join(home, ".site-assistant")
	return &Config{
		DBPath: filepath.Join(base, "memory.db"),
		Vector: VectorConfig{
			Dir:        filepath.Join(base, "vectors"),
			Collection: "construction_documents",
			ExportMode: ExportChunks,
		},
		Embedding: EmbeddingConfig{Provider: "hash", Dims: 256},
		LLM: LLMConfig{
			Model:     "claude-sonnet-4-20250514",
			MaxTokens: 4096,
			MaxTurns:  8,
		},
		Tracker: TrackerConfig{BaseURL: "https://api.clickup.com/api/v2"},
		Log:     LogConfig{Level: "info", Format: "text"},
	}
}

// Load builds a Config from defaults, the YAML file at path (or
// $SITE_ASSISTANT_CONFIG), a .env file in the working directory, and the
// environment, in increasing precedence. A missing .env is not an error; a
// missing config file is an error only when a path was given explicitly.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = os.Getenv("SITE_ASSISTANT_CONFIG")
		explicit = path != ""
	}
	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(b, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist) && !explicit:
		default:
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	setString(&c.DBPath, "SITE_ASSISTANT_DB")
	setString(&c.Vector.Dir, "SITE_ASSISTANT_VECTOR_DIR")
	setString(&c.Vector.ExportMode, "SITE_ASSISTANT_EXPORT_MODE")
	setString(&c.Embedding.Provider, "SITE_ASSISTANT_EMBED_PROVIDER")
	setString(&c.Embedding.Model, "SITE_ASSISTANT_EMBED_MODEL")
	setString(&c.Embedding.URL, "SITE_ASSISTANT_EMBED_URL")
	if c.Embedding.URL == "" && c.Embedding.Provider == "ollama" {
		setString(&c.Embedding.URL, "OLLAMA_HOST")
	}
	setString(&c.Embedding.APIKey, "OPENAI_API_KEY")
	if v := os.Getenv("SITE_ASSISTANT_EMBED_DIMS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Embedding.Dims = n
		}
	}
	setString(&c.LLM.APIKey, "ANTHROPIC_API_KEY")
	setString(&c.LLM.Model, "SITE_ASSISTANT_MODEL")
	setString(&c.Tracker.Token, "CLICKUP_API_TOKEN")
	setString(&c.Tracker.WorkspaceID, "CLICKUP_WORKSPACE_ID")
	setString(&c.Tracker.BaseURL, "CLICKUP_BASE_URL")
	setString(&c.Log.Level, "SITE_ASSISTANT_LOG_LEVEL")
	setString(&c.Log.Format, "SITE_ASSISTANT_LOG_FORMAT")
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// Validate reports settings the process cannot start without.
func (c *Config) Validate() error {
	const op = "config.Validate"
	if c.DBPath == "" {
		return apperr.Configuration(op, "database path is not configured (set db_path or SITE_ASSISTANT_DB)")
	}
	switch c.Vector.ExportMode {
	case ExportMarkdown, ExportChunks:
	default:
		return apperr.Configuration(op, fmt.Sprintf("unknown export mode %q", c.Vector.ExportMode))
	}
	switch c.Embedding.Provider {
	case "hash", "ollama":
	case "openai":
		if c.Embedding.APIKey == "" && c.Embedding.URL == "" {
			return apperr.Configuration(op, "openai embeddings require OPENAI_API_KEY")
		}
	default:
		return apperr.Configuration(op, fmt.Sprintf("unknown embedding provider %q", c.Embedding.Provider))
	}
	return nil
}

// HasLLM reports whether an Anthropic key is configured.
func (c *Config) HasLLM() bool { return c.LLM.APIKey != "" }

// HasTracker reports whether a ClickUp token is configured.
func (c *Config) HasTracker() bool { return c.Tracker.Token != "" }
