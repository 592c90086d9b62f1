package main

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/CTAG07/bznames/pkg/ngram"
)

func TestLoadConfigWritesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bznames.json")

	config, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() failed: %v", err)
	}
	if !reflect.DeepEqual(config, DefaultConfig()) {
		t.Errorf("expected default config, got %+v", config)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected the default config file to be written: %v", err)
	}

	again, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() on written defaults failed: %v", err)
	}
	if !reflect.DeepEqual(again, config) {
		t.Errorf("re-read config = %+v, want %+v", again, config)
	}
}

func TestLoadConfigPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bznames.json")
	body := `{"log_level": "debug", "model_config": {"name": "bigram", "order": 2, "alpha": 0.1, "max_sample_length": 12}}`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	config, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() failed: %v", err)
	}
	if config.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", config.LogLevel)
	}
	if config.Model.Order != 2 || config.Model.Alpha != 0.1 || config.Model.Name != "bigram" {
		t.Errorf("unexpected model config: %+v", config.Model)
	}
	if config.Server == nil || config.Server.ApiAddr != DefaultConfig().Server.ApiAddr {
		t.Errorf("expected default server config, got %+v", config.Server)
	}
}

func TestLoadConfigInvalid(t *testing.T) {
	testCases := []struct {
		name string
		body string
	}{
		{name: "Unknown log level", body: `{"log_level": "loud"}`},
		{name: "Order too small", body: `{"model_config": {"order": 1, "alpha": 1, "max_sample_length": 5}}`},
		{name: "Zero alpha", body: `{"model_config": {"order": 3, "alpha": 0, "max_sample_length": 5}}`},
		{name: "Empty database path", body: `{"database_path": " "}`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "bznames.json")
			if err := os.WriteFile(path, []byte(tc.body), 0o644); err != nil {
				t.Fatal(err)
			}
			if _, err := LoadConfig(path); !errors.Is(err, ngram.ErrConfiguration) {
				t.Errorf("expected ErrConfiguration, got %v", err)
			}
		})
	}

	path := filepath.Join(t.TempDir(), "broken.json")
	_ = os.WriteFile(path, []byte(`{"log_level":`), 0o644)
	if _, err := LoadConfig(path); err == nil {
		t.Error("expected a parse error for malformed JSON")
	}
}

func TestParseLevel(t *testing.T) {
	for _, level := range []string{"debug", "INFO", "warn", "error", ""} {
		if _, ok := parseLevel(level); !ok {
			t.Errorf("parseLevel(%q) rejected a valid level", level)
		}
	}
	if _, ok := parseLevel("verbose"); ok {
		t.Error("parseLevel accepted an unknown level")
	}
}
