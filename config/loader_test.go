package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestLoaderLayers(t *testing.T) {
	home := t.TempDir()
	project := t.TempDir()
	work := filepath.Join(project, "models", "incoming")
	if err := os.MkdirAll(work, 0755); err != nil {
		t.Fatal(err)
	}

	writeFile(t, filepath.Join(home, UserConfigDir, UserConfigFile), `
conversion:
  workers: 2
  storey_order: name
logging:
  level: debug
`)
	writeFile(t, filepath.Join(project, ProjectConfigFile), `
conversion:
  workers: 3
`)
	explicit := filepath.Join(t.TempDir(), "run.yaml")
	writeFile(t, explicit, `
logging:
  format: json
`)

	l := NewLoader(nil)
	l.homeDir = home
	l.workDir = work

	cfg, err := l.Load(explicit, &Config{Logging: LoggingConfig{Level: "error"}})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	// Project config found by walking up from the working directory
	if cfg.Conversion.Workers != 3 {
		t.Errorf("expected project workers 3, got %d", cfg.Conversion.Workers)
	}
	// User value survives keys the project file does not set
	if cfg.Conversion.StoreyOrder != "name" {
		t.Errorf("expected user storey order name, got %s", cfg.Conversion.StoreyOrder)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("expected explicit format json, got %s", cfg.Logging.Format)
	}
	// Overrides win
	if cfg.Logging.Level != "error" {
		t.Errorf("expected override level error, got %s", cfg.Logging.Level)
	}
}

func TestLoaderExplicitMissing(t *testing.T) {
	l := NewLoader(nil)
	l.homeDir = t.TempDir()
	l.workDir = t.TempDir()

	if _, err := l.Load(filepath.Join(t.TempDir(), "absent.yaml"), nil); err == nil {
		t.Error("expected error for missing explicit config")
	}
}

func TestLoaderInvalidResult(t *testing.T) {
	l := NewLoader(nil)
	l.homeDir = t.TempDir()
	l.workDir = t.TempDir()

	if _, err := l.Load("", &Config{Conversion: ConversionConfig{StoreyOrder: "height"}}); err == nil {
		t.Error("expected validation error")
	}
}

func TestEnsureUserConfig(t *testing.T) {
	l := NewLoader(nil)
	l.homeDir = t.TempDir()

	if err := l.EnsureUserConfig(); err != nil {
		t.Fatalf("EnsureUserConfig() error = %v", err)
	}
	path := filepath.Join(l.homeDir, UserConfigDir, UserConfigFile)
	if _, err := LoadFromFile(path); err != nil {
		t.Fatalf("created config should load: %v", err)
	}
	// Second call leaves the file alone
	if err := l.EnsureUserConfig(); err != nil {
		t.Fatalf("EnsureUserConfig() second call error = %v", err)
	}
}
