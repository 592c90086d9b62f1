package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/CTAG07/bznames/pkg/ngram"
)

// runCLI executes the root command with args and returns what it printed.
func runCLI(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("bznames %s: %v", strings.Join(args, " "), err)
	}
	return out.String()
}

func TestCLIWorkflow(t *testing.T) {
	dir := t.TempDir()

	config := DefaultConfig()
	config.LogLevel = "error"
	config.DataDir = dir
	config.DatabasePath = filepath.Join(dir, "cli.db")
	config.Corpus.CachePath = filepath.Join(dir, "cache.json")
	configPath := filepath.Join(dir, "bznames.json")
	if err := SaveConfig(configPath, config); err != nil {
		t.Fatal(err)
	}

	records := []ngram.Record{{Name: "MARIA", Freq: 10}, {Name: "ANA", Freq: 6}, {Name: "JOÃO", Freq: 4}}
	data, _ := json.Marshal(records)
	corpusPath := filepath.Join(dir, "corpus.json")
	if err := os.WriteFile(corpusPath, data, 0o644); err != nil {
		t.Fatal(err)
	}

	out := runCLI(t, "fit", "--config", configPath, "--corpus", corpusPath, "--clean", "--name", "cli", "--order", "2")
	if !strings.Contains(out, `model "cli"`) {
		t.Errorf("unexpected fit output: %q", out)
	}

	out = runCLI(t, "models", "--config", configPath)
	if !strings.Contains(out, "cli") {
		t.Errorf("models output does not list the fitted model: %q", out)
	}

	out = runCLI(t, "score", "--config", configPath, "--model", "cli", "maria", "joão")
	if !strings.Contains(out, "maria") || !strings.Contains(out, "joão") {
		t.Errorf("unexpected score output: %q", out)
	}

	out = runCLI(t, "sample", "--config", configPath, "--model", "cli", "--count", "5", "--seed", "3")
	if lines := strings.Split(strings.TrimRight(out, "\n"), "\n"); len(lines) != 5 {
		t.Errorf("expected 5 sampled names, got %d: %q", len(lines), out)
	}

	exportPath := filepath.Join(dir, "cli.json")
	runCLI(t, "export", "--config", configPath, "cli", exportPath)
	runCLI(t, "rm", "--config", configPath, "cli")

	out = runCLI(t, "models", "--config", configPath)
	if strings.Contains(out, "cli") {
		t.Errorf("model still listed after rm: %q", out)
	}

	out = runCLI(t, "import", "--config", configPath, exportPath)
	if !strings.Contains(out, `imported model "cli"`) {
		t.Errorf("unexpected import output: %q", out)
	}

	out = runCLI(t, "stats", "--config", configPath)
	var stats struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	if err := json.Unmarshal([]byte(out), &stats); err != nil {
		t.Fatalf("stats output is not JSON: %v", err)
	}
	if len(stats.Models) != 1 || stats.Models[0].Name != "cli" {
		t.Errorf("unexpected stats models: %+v", stats.Models)
	}
}
