package jobchat

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Model == "" {
		t.Error("default model is empty")
	}
	if cfg.MaxTokens <= 0 {
		t.Errorf("MaxTokens = %d, want positive", cfg.MaxTokens)
	}
	if !cfg.Correction.Enabled {
		t.Error("correction disabled by default")
	}
	if cfg.Correction.Model == "" {
		t.Error("correction model is empty")
	}
}

func TestLoadConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jobchat.yaml")
	content := "model: claude-3-5-sonnet-20240620\nmax_tokens: 2048\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfigFromFile(path)
	if err != nil {
		t.Fatalf("LoadConfigFromFile() error = %v", err)
	}

	if cfg.Model != "claude-3-5-sonnet-20240620" {
		t.Errorf("Model = %q", cfg.Model)
	}
	if cfg.MaxTokens != 2048 {
		t.Errorf("MaxTokens = %d", cfg.MaxTokens)
	}
	// Fields absent from the file keep embedded defaults.
	if cfg.Correction.Model == "" {
		t.Error("correction model lost its default")
	}
}

func TestLoadConfigFromFile_Missing(t *testing.T) {
	if _, err := LoadConfigFromFile(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("LoadConfigFromFile() error = nil for missing file")
	}
}

func TestEstimateTokens(t *testing.T) {
	if got := EstimateTokens(""); got != 0 {
		t.Errorf("EstimateTokens(\"\") = %d, want 0", got)
	}

	n := EstimateTokens("fn(state => ({ ...state, count: state.data.length }));")
	if n <= 0 {
		t.Errorf("EstimateTokens() = %d, want positive", n)
	}
}
