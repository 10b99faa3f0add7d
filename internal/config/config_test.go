package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_NoFile(t *testing.T) {
	t.Parallel()

	log := slog.Default()
	path, err := Load("/nonexistent/path/config.yaml", log)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if path != "" {
		t.Errorf("expected empty path, got %q", path)
	}
}

func TestLoad_ValidFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")

	content := []byte(`
model:
  provider: openai
  max_tokens: 2048
  temperature: 0.3
  openai:
    model: gpt-4o-mini
embedding:
  provider: ollama
  model: nomic-embed-text
retrieval:
  top_k: 4
  threshold: 0.3
  memory_window: 6
  chunk_size: 500
  chunk_overlap: 50
qdrant:
  host: qdrant.internal
  port: 6334
  collection: schemes
storage:
  vector_store: qdrant
logging:
  level: debug
  format: text
`)

	if err := os.WriteFile(cfgPath, content, 0o644); err != nil {
		t.Fatal(err)
	}

	// Clear env vars that the YAML should set.
	envKeys := []string{
		"MODEL_PROVIDER", "MODEL_MAX_TOKENS", "MODEL_TEMPERATURE", "OPENAI_MODEL",
		"EMBEDDING_PROVIDER", "EMBEDDING_MODEL",
		"RETRIEVAL_TOP_K", "RETRIEVAL_THRESHOLD", "MEMORY_WINDOW",
		"CHUNK_SIZE", "CHUNK_OVERLAP",
		"QDRANT_HOST", "QDRANT_PORT", "QDRANT_COLLECTION",
		"VECTOR_STORE", "LOG_LEVEL", "LOG_FORMAT",
	}
	for _, k := range envKeys {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}

	log := slog.Default()
	loaded, err := Load(cfgPath, log)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded != cfgPath {
		t.Errorf("loaded path: got %q, want %q", loaded, cfgPath)
	}

	checks := map[string]string{
		"MODEL_PROVIDER":      "openai",
		"MODEL_MAX_TOKENS":    "2048",
		"MODEL_TEMPERATURE":   "0.3",
		"OPENAI_MODEL":        "gpt-4o-mini",
		"EMBEDDING_PROVIDER":  "ollama",
		"EMBEDDING_MODEL":     "nomic-embed-text",
		"RETRIEVAL_TOP_K":     "4",
		"RETRIEVAL_THRESHOLD": "0.3",
		"MEMORY_WINDOW":       "6",
		"CHUNK_SIZE":          "500",
		"CHUNK_OVERLAP":       "50",
		"QDRANT_HOST":         "qdrant.internal",
		"QDRANT_PORT":         "6334",
		"QDRANT_COLLECTION":   "schemes",
		"VECTOR_STORE":        "qdrant",
		"LOG_LEVEL":           "debug",
		"LOG_FORMAT":          "text",
	}
	for k, want := range checks {
		got := os.Getenv(k)
		if got != want {
			t.Errorf("%s: got %q, want %q", k, got, want)
		}
	}
}

func TestLoad_EnvOverridesYAML(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")

	content := []byte(`
model:
  provider: ollama
`)
	if err := os.WriteFile(cfgPath, content, 0o644); err != nil {
		t.Fatal(err)
	}

	// Set env var BEFORE loading — it should NOT be overwritten.
	t.Setenv("MODEL_PROVIDER", "azure")

	log := slog.Default()
	_, err := Load(cfgPath, log)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if got := os.Getenv("MODEL_PROVIDER"); got != "azure" {
		t.Errorf("MODEL_PROVIDER: expected env override %q, got %q", "azure", got)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")

	if err := os.WriteFile(cfgPath, []byte("{{invalid yaml"), 0o644); err != nil {
		t.Fatal(err)
	}

	log := slog.Default()
	_, err := Load(cfgPath, log)
	if err == nil {
		t.Fatal("expected error for invalid YAML")
	}
}

func TestFloat32Str(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   float32
		want string
	}{
		{0.0, ""},
		{0.2, "0.2"},
		{0.3, "0.3"},
		{1.0, "1"},
	}
	for _, tt := range tests {
		if got := float32Str(tt.in); got != tt.want {
			t.Errorf("float32Str(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
