package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// OpenAIConfig holds configuration for an OpenAI-compatible endpoint.
type OpenAIConfig struct {
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	APIKeyFile  string `yaml:"api_key_file"`
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs"`
	MaxRetries  int    `yaml:"max_retries"`
}

// Timeout returns the per-call timeout.
func (c OpenAIConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}

// HashingConfig configures the offline feature-hashing embedder.
type HashingConfig struct {
	Dimension int `yaml:"dimension"`
}

// EmbedderConfig selects and configures the text embedder implementation.
type EmbedderConfig struct {
	Type    string        `yaml:"type"`
	OpenAI  *OpenAIConfig `yaml:"openai,omitempty"`
	Hashing HashingConfig `yaml:"hashing"`
}

// ChunkerConfig configures the word windows documents are split into.
type ChunkerConfig struct {
	Size    int `yaml:"size"`
	Overlap int `yaml:"overlap"`
}

// StoreConfig selects the snapshot backend and its location.
type StoreConfig struct {
	Type string `yaml:"type"`
	Path string `yaml:"path"`
}

// SummarizerConfig selects and configures the summarizer.
type SummarizerConfig struct {
	Type         string        `yaml:"type"`
	MaxSentences int           `yaml:"max_sentences"`
	OpenAI       *OpenAIConfig `yaml:"openai,omitempty"`
}

// IndexingConfig tunes the ingestion pipeline.
type IndexingConfig struct {
	Concurrency int `yaml:"concurrency"`
}

// QueryConfig tunes retrieval.
type QueryConfig struct {
	TopK         int   `yaml:"top_k"`
	PreviewBytes int64 `yaml:"preview_bytes"`
}

// LogConfig configures the diagnostic logger.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Store      StoreConfig      `yaml:"store"`
	Chunker    ChunkerConfig    `yaml:"chunker"`
	Embedder   EmbedderConfig   `yaml:"embedder"`
	Summarizer SummarizerConfig `yaml:"summarizer"`
	Indexing   IndexingConfig   `yaml:"indexing"`
	Query      QueryConfig      `yaml:"query"`
	Log        LogConfig        `yaml:"log"`
}

// Load reads a config from a specified path. If the file does not exist, returns defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	applyConfigDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &cfg, nil
}

// LoadDefault tries ./config.yaml first, then ~/.config/docrag/config.yaml.
// If neither exists, it writes defaults to ~/.config/docrag/config.yaml and returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "config.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	dir, err := Dir()
	if err != nil {
		return nil, "", err
	}
	userPath := filepath.Join(dir, "config.yaml")
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := Default()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	return cfg, userPath, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Dir is the per-user data directory holding the config, the store and the
// API key file.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "docrag"), nil
}

// Default returns the configuration used when no file exists.
func Default() *AppConfig {
	cfg := &AppConfig{
		Store:      StoreConfig{Type: "json"},
		Embedder:   EmbedderConfig{Type: "openai"},
		Summarizer: SummarizerConfig{Type: "openai"},
	}
	applyConfigDefaults(cfg)
	return cfg
}

// Validate reports the first invalid setting.
func (c *AppConfig) Validate() error {
	switch c.Store.Type {
	case "json", "sqlite", "bolt":
	default:
		return fmt.Errorf("unknown store type %q", c.Store.Type)
	}
	if c.Chunker.Size <= 0 || c.Chunker.Overlap <= 0 || c.Chunker.Overlap >= c.Chunker.Size {
		return fmt.Errorf("chunker: need 0 < overlap < size, got size=%d overlap=%d", c.Chunker.Size, c.Chunker.Overlap)
	}
	switch c.Embedder.Type {
	case "openai", "hashing":
	default:
		return fmt.Errorf("unknown embedder type %q", c.Embedder.Type)
	}
	if c.Embedder.Type == "hashing" && c.Embedder.Hashing.Dimension <= 0 {
		return errors.New("embedder.hashing.dimension must be positive")
	}
	switch c.Summarizer.Type {
	case "openai", "frequency", "none":
	default:
		return fmt.Errorf("unknown summarizer type %q", c.Summarizer.Type)
	}
	if c.Indexing.Concurrency <= 0 {
		return errors.New("indexing.concurrency must be positive")
	}
	if c.Query.TopK <= 0 {
		return errors.New("query.top_k must be positive")
	}
	if c.Query.PreviewBytes < 0 {
		return errors.New("query.preview_bytes must not be negative")
	}
	switch c.Log.Format {
	case "text", "json", "logfmt":
	default:
		return fmt.Errorf("unknown log format %q", c.Log.Format)
	}
	return nil
}

func applyConfigDefaults(cfg *AppConfig) {
	dir, _ := Dir()
	if cfg.Store.Type == "" {
		cfg.Store.Type = "json"
	}
	if cfg.Store.Path == "" {
		switch cfg.Store.Type {
		case "sqlite":
			cfg.Store.Path = filepath.Join(dir, "vector-store.db")
		case "bolt":
			cfg.Store.Path = filepath.Join(dir, "vector-store.bolt")
		default:
			cfg.Store.Path = filepath.Join(dir, "vector-store.json")
		}
	}
	if cfg.Chunker.Size == 0 {
		cfg.Chunker.Size = 500
	}
	if cfg.Chunker.Overlap == 0 {
		cfg.Chunker.Overlap = 50
	}
	if cfg.Embedder.Type == "" {
		cfg.Embedder.Type = "openai"
	}
	if cfg.Embedder.Type == "openai" {
		if cfg.Embedder.OpenAI == nil {
			cfg.Embedder.OpenAI = &OpenAIConfig{}
		}
		applyOpenAIDefaults(cfg.Embedder.OpenAI, dir, "text-embedding-3-small", 30)
	}
	if cfg.Embedder.Hashing.Dimension == 0 {
		cfg.Embedder.Hashing.Dimension = 512
	}
	if cfg.Summarizer.Type == "" {
		cfg.Summarizer.Type = "frequency"
	}
	if cfg.Summarizer.MaxSentences == 0 {
		cfg.Summarizer.MaxSentences = 3
	}
	if cfg.Summarizer.Type == "openai" {
		if cfg.Summarizer.OpenAI == nil {
			cfg.Summarizer.OpenAI = &OpenAIConfig{}
		}
		applyOpenAIDefaults(cfg.Summarizer.OpenAI, dir, "gpt-4o-mini", 60)
	}
	if cfg.Indexing.Concurrency == 0 {
		cfg.Indexing.Concurrency = 4
	}
	if cfg.Query.TopK == 0 {
		cfg.Query.TopK = 10
	}
	if cfg.Query.PreviewBytes == 0 {
		cfg.Query.PreviewBytes = 1 << 20
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}

func applyOpenAIDefaults(c *OpenAIConfig, dir, model string, timeoutSecs int) {
	if c.BaseURL == "" {
		c.BaseURL = "https://api.openai.com/v1"
	}
	if c.APIKeyEnv == "" {
		c.APIKeyEnv = "OPENAI_API_KEY"
	}
	if c.APIKeyFile == "" && dir != "" {
		c.APIKeyFile = filepath.Join(dir, "openai-key.txt")
	}
	if c.Model == "" {
		c.Model = model
	}
	if c.TimeoutSecs == 0 {
		c.TimeoutSecs = timeoutSecs
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 3
	}
}
