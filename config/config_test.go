package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/poiesic/vectorize/ai"
	"github.com/poiesic/vectorize/core"
	"github.com/poiesic/vectorize/export"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "vectorize.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Provider.Type != ai.ProviderOpenAI {
		t.Errorf("default provider = %s, want openai", cfg.Provider.Type)
	}
	if cfg.Run.BatchSize != 32 {
		t.Errorf("default batch size = %d, want 32", cfg.Run.BatchSize)
	}
	if cfg.Run.Format != string(core.FormatNativeTensor) {
		t.Errorf("default format = %s, want native-tensor", cfg.Run.Format)
	}
	if cfg.Metrics.Enabled {
		t.Error("metrics should be disabled by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	t.Setenv("VECTORIZE_TEST_TOKEN", "sk-secret")
	path := writeConfig(t, `
provider:
  type: ollama
  host: http://gpu-box:11434
  model: nomic-embed-text
  token: ${VECTORIZE_TEST_TOKEN}
  dimensions: 768
run:
  batch_size: 64
  format: flat-index
  normalize: true
store:
  path: /var/lib/vectorize
  cache: true
logging:
  level: debug
`)

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}

	if cfg.Provider.Token != "sk-secret" {
		t.Errorf("token = %q, want env expansion", cfg.Provider.Token)
	}
	if cfg.Provider.Dimensions != 768 {
		t.Errorf("dimensions = %d, want 768", cfg.Provider.Dimensions)
	}
	if cfg.Run.BatchSize != 64 || !cfg.Run.Normalize {
		t.Errorf("run = %+v", cfg.Run)
	}
	if !cfg.Store.Cache {
		t.Error("store.cache should be set")
	}
	// Unset sections keep their defaults
	if cfg.Run.OutputDir != "." {
		t.Errorf("output dir = %q, want default", cfg.Run.OutputDir)
	}
	if cfg.Metrics.Addr != ":9090" {
		t.Errorf("metrics addr = %q, want default", cfg.Metrics.Addr)
	}

	aiCfg := cfg.AIConfig()
	if err := aiCfg.Validate(); err != nil {
		t.Fatalf("AIConfig().Validate() error = %v", err)
	}
	if aiCfg.Host != "http://gpu-box:11434" {
		t.Errorf("ollama host should not gain /v1, got %q", aiCfg.Host)
	}
}

func TestLoadFromFile_Errors(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantMsg string
	}{
		{"malformed yaml", "provider: [", "parse config"},
		{"unknown provider", "provider:\n  type: bedrock\n", "validate config"},
		{"bad batch size", "run:\n  batch_size: 0\n", "batch_size"},
		{"bad format", "run:\n  format: xml\n", "run.format"},
		{"cache without path", "store:\n  cache: true\n", "store.path"},
		{"bad log level", "logging:\n  level: loud\n", "logging.level"},
		{"metrics without addr", "metrics:\n  enabled: true\n  addr: \"\"\n", "metrics.addr"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromFile(writeConfig(t, tt.body))
			if err == nil {
				t.Fatal("LoadFromFile() expected error")
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error = %v, want it to mention %q", err, tt.wantMsg)
			}
		})
	}

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
		if err == nil || !strings.Contains(err.Error(), "read config file") {
			t.Errorf("error = %v", err)
		}
	})
}

func TestValidate_FormatMustBeWritable(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Run.Format = string(core.FormatHierarchical)

	err := cfg.Validate()
	if export.Supported(core.FormatHierarchical) == nil {
		if err != nil {
			t.Fatalf("Validate() error = %v", err)
		}
		return
	}
	if !errors.Is(err, core.ErrUnsupportedFormat) {
		t.Fatalf("Validate() error = %v, want ErrUnsupportedFormat", err)
	}
	if !strings.Contains(err.Error(), "run.format") {
		t.Errorf("Validate() error = %q, want it to name run.format", err)
	}
}
