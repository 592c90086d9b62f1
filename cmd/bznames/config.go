package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/CTAG07/bznames/pkg/corpus"
	"github.com/CTAG07/bznames/pkg/ngram"
	"github.com/natefinch/atomic"
)

// ServerConfig holds the settings for the HTTP API.
type ServerConfig struct {
	ApiAddr         string `json:"api_addr"`
	MaxSampleCount  int    `json:"max_sample_count"`
	ShutdownTimeout int    `json:"shutdown_timeout_sec"`
}

// CorpusConfig holds the settings for fetching and caching the name corpus.
type CorpusConfig struct {
	CachePath   string `json:"cache_path"`
	IBGEBaseURL string `json:"ibge_base_url"`
	IBGELimit   int    `json:"ibge_limit"`
	TimeoutSec  int    `json:"timeout_sec"`
}

// ModelConfig holds the defaults used when fitting a new model.
type ModelConfig struct {
	Name            string  `json:"name"`
	Order           int     `json:"order"`
	Alpha           float64 `json:"alpha"`
	MaxSampleLength int     `json:"max_sample_length"`
}

// Config is the top-level configuration struct that aggregates all other configs.
type Config struct {
	LogLevel     string        `json:"log_level"`
	DataDir      string        `json:"data_dir"`
	DatabasePath string        `json:"database_path"`
	Server       *ServerConfig `json:"server_config"`
	Corpus       *CorpusConfig `json:"corpus_config"`
	Model        *ModelConfig  `json:"model_config"`
}

// DefaultConfig creates a configuration with default values.
func DefaultConfig() *Config {
	return &Config{
		LogLevel:     "info",
		DataDir:      "./data",
		DatabasePath: "./data/bznames.db?_journal_mode=WAL&_busy_timeout=5000",
		Server: &ServerConfig{
			ApiAddr:         ":7380",
			MaxSampleCount:  1000,
			ShutdownTimeout: 10,
		},
		Corpus: &CorpusConfig{
			CachePath:   "./data/bz_names.json",
			IBGEBaseURL: corpus.DefaultIBGEBaseURL,
			IBGELimit:   corpus.DefaultIBGELimit,
			TimeoutSec:  60,
		},
		Model: &ModelConfig{
			Name:            "default",
			Order:           3,
			Alpha:           ngram.DefaultAlpha,
			MaxSampleLength: ngram.DefaultMaxSampleLength,
		},
	}
}

// LoadConfig reads the configuration from a JSON file at the given path.
// If the file doesn't exist, it creates one with default values.
func LoadConfig(path string) (*Config, error) {
	config := DefaultConfig()

	file, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			if err = SaveConfig(path, config); err != nil {
				// Still usable with defaults.
				fmt.Fprintf(os.Stderr, "warning: failed to write default config file: %v\n", err)
			}
			return config, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err = json.Unmarshal(file, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err = config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// SaveConfig writes the configuration to path atomically.
func SaveConfig(path string, config *Config) error {
	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err = atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate fills sections missing from a partial file with defaults and
// rejects values no command could run with.
func (c *Config) Validate() error {
	defaults := DefaultConfig()
	if c.Server == nil {
		c.Server = defaults.Server
	}
	if c.Corpus == nil {
		c.Corpus = defaults.Corpus
	}
	if c.Model == nil {
		c.Model = defaults.Model
	}

	if _, ok := parseLevel(c.LogLevel); !ok {
		return fmt.Errorf("%w: unknown log level %q", ngram.ErrConfiguration, c.LogLevel)
	}
	if strings.TrimSpace(c.DatabasePath) == "" {
		return fmt.Errorf("%w: database_path must not be empty", ngram.ErrConfiguration)
	}
	if c.Model.Order < 2 {
		return fmt.Errorf("%w: model order must be at least 2, got %d", ngram.ErrConfiguration, c.Model.Order)
	}
	if !(c.Model.Alpha > 0) {
		return fmt.Errorf("%w: model alpha must be positive, got %v", ngram.ErrConfiguration, c.Model.Alpha)
	}
	if c.Model.MaxSampleLength < 1 {
		return fmt.Errorf("%w: max_sample_length must be at least 1, got %d", ngram.ErrConfiguration, c.Model.MaxSampleLength)
	}
	if c.Server.MaxSampleCount < 1 {
		return fmt.Errorf("%w: max_sample_count must be at least 1, got %d", ngram.ErrConfiguration, c.Server.MaxSampleCount)
	}
	return nil
}
