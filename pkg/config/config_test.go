package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"clipkind/pkg/errors"

	"gopkg.in/yaml.v3"
)

var envKeys = []string{
	"CLIPKIND_BACKEND",
	"CLIPKIND_FIXTURE",
	"CLIPKIND_TIMEOUT",
	"CLIPKIND_OCR_LANG",
	"CLIPKIND_OCR_MIN_CONFIDENCE",
	"CLIPKIND_LOG_LEVEL",
	"TESSDATA_PREFIX",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range envKeys {
		t.Setenv(key, "")
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write test config file: %v", err)
	}
	return path
}

func TestLoad_Success(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `source:
  backend: x11
  timeout: 500ms
ocr:
  language: deu+eng
  tessdata_prefix: /opt/tessdata
  min_confidence: 0.4
log_level: debug
`)

	cfg, err := loadFromPath(path)
	if err != nil {
		t.Fatalf("loadFromPath() failed: %v", err)
	}

	if cfg.Source.Backend != "x11" {
		t.Errorf("Expected backend 'x11', got '%s'", cfg.Source.Backend)
	}
	if cfg.Source.Timeout != 500*time.Millisecond {
		t.Errorf("Expected timeout 500ms, got %s", cfg.Source.Timeout)
	}
	if cfg.OCR.Language != "deu+eng" {
		t.Errorf("Expected language 'deu+eng', got '%s'", cfg.OCR.Language)
	}
	if cfg.OCR.TessdataPrefix != "/opt/tessdata" {
		t.Errorf("Expected tessdata prefix '/opt/tessdata', got '%s'", cfg.OCR.TessdataPrefix)
	}
	if cfg.OCR.MinConfidence != 0.4 {
		t.Errorf("Expected min confidence 0.4, got %g", cfg.OCR.MinConfidence)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("Expected log level 'debug', got '%s'", cfg.LogLevel)
	}
}

func TestLoad_FileNotFound_UsesDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := loadFromPath(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("loadFromPath() failed: %v", err)
	}

	if cfg.Source.Backend != "auto" {
		t.Errorf("Expected default backend 'auto', got '%s'", cfg.Source.Backend)
	}
	if cfg.Source.Timeout != DefaultTimeout {
		t.Errorf("Expected default timeout %s, got %s", DefaultTimeout, cfg.Source.Timeout)
	}
	if cfg.OCR.Language != "eng" {
		t.Errorf("Expected default language 'eng', got '%s'", cfg.OCR.Language)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "source: [unclosed\n")

	_, err := loadFromPath(path)
	if err == nil {
		t.Fatal("Expected error for invalid YAML")
	}
	if !errors.IsExitCode(err, errors.ExitCodeConfig) {
		t.Errorf("Expected config exit code, got %v", err)
	}
}

func TestLoad_WithEnvOverrides(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `source:
  backend: x11
ocr:
  language: eng
`)
	t.Setenv("CLIPKIND_BACKEND", "Text")
	t.Setenv("CLIPKIND_TIMEOUT", "3s")
	t.Setenv("CLIPKIND_OCR_LANG", "fra")
	t.Setenv("CLIPKIND_OCR_MIN_CONFIDENCE", "0.75")
	t.Setenv("TESSDATA_PREFIX", "/env/tessdata")
	t.Setenv("CLIPKIND_LOG_LEVEL", "warn")

	cfg, err := loadFromPath(path)
	if err != nil {
		t.Fatalf("loadFromPath() failed: %v", err)
	}

	if cfg.Source.Backend != "text" {
		t.Errorf("Expected env backend 'text', got '%s'", cfg.Source.Backend)
	}
	if cfg.Source.Timeout != 3*time.Second {
		t.Errorf("Expected env timeout 3s, got %s", cfg.Source.Timeout)
	}
	if cfg.OCR.Language != "fra" {
		t.Errorf("Expected env language 'fra', got '%s'", cfg.OCR.Language)
	}
	if cfg.OCR.MinConfidence != 0.75 {
		t.Errorf("Expected env min confidence 0.75, got %g", cfg.OCR.MinConfidence)
	}
	if cfg.OCR.TessdataPrefix != "/env/tessdata" {
		t.Errorf("Expected env tessdata prefix, got '%s'", cfg.OCR.TessdataPrefix)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("Expected env log level 'warn', got '%s'", cfg.LogLevel)
	}
}

func TestLoad_IgnoresMalformedEnvNumbers(t *testing.T) {
	clearEnv(t)
	t.Setenv("CLIPKIND_TIMEOUT", "soon")
	t.Setenv("CLIPKIND_OCR_MIN_CONFIDENCE", "high")

	cfg, err := loadFromPath(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("loadFromPath() failed: %v", err)
	}
	if cfg.Source.Timeout != DefaultTimeout || cfg.OCR.MinConfidence != 0 {
		t.Errorf("Expected defaults, got timeout %s and min confidence %g", cfg.Source.Timeout, cfg.OCR.MinConfidence)
	}
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantMsg string
	}{
		{
			name:    "unknown backend",
			content: "source:\n  backend: pasteboard\n",
			wantMsg: "unknown clipboard backend",
		},
		{
			name:    "fixture without file",
			content: "source:\n  backend: fixture\n",
			wantMsg: "fixture backend",
		},
		{
			name:    "negative timeout",
			content: "source:\n  timeout: -1s\n",
			wantMsg: "timeout",
		},
		{
			name:    "min confidence above one",
			content: "ocr:\n  min_confidence: 42\n",
			wantMsg: "min_confidence",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			_, err := loadFromPath(writeConfig(t, tt.content))
			if err == nil {
				t.Fatal("Expected validation error")
			}
			if !errors.IsKind(err, errors.KindConfig) {
				t.Errorf("Expected CONFIG_ERROR, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("Expected error containing %q, got %q", tt.wantMsg, err.Error())
			}
		})
	}
}

func TestLoad_BlankFieldsFallBackToDefaults(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "source:\n  backend: \"\"\nocr:\n  language: \"\"\n")

	cfg, err := loadFromPath(path)
	if err != nil {
		t.Fatalf("loadFromPath() failed: %v", err)
	}
	if cfg.Source.Backend != "auto" || cfg.OCR.Language != "eng" {
		t.Errorf("Expected auto/eng, got %s/%s", cfg.Source.Backend, cfg.OCR.Language)
	}
}

func TestGetConfigPath(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmpDir, "xdg"))

	path, err := GetConfigPath()
	if err != nil {
		t.Fatalf("GetConfigPath() failed: %v", err)
	}
	if filepath.Base(path) != "config.yaml" {
		t.Errorf("Expected config.yaml, got %s", filepath.Base(path))
	}
	if filepath.Base(filepath.Dir(path)) != "clipkind" {
		t.Errorf("Expected clipkind directory, got %s", filepath.Dir(path))
	}
}

func TestSaveRoundTrip(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := Default()
	cfg.Source.Backend = "wayland"
	cfg.OCR.MinConfidence = 0.5
	if err := saveToPath(path, cfg); err != nil {
		t.Fatalf("saveToPath() failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read saved config: %v", err)
	}
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		t.Fatalf("Saved config is not YAML: %v", err)
	}
	if _, ok := raw["source"]; !ok {
		t.Errorf("Saved config is missing the source section:\n%s", data)
	}

	loaded, err := loadFromPath(path)
	if err != nil {
		t.Fatalf("loadFromPath() failed: %v", err)
	}
	if loaded.Source.Backend != "wayland" || loaded.OCR.MinConfidence != 0.5 || loaded.Source.Timeout != DefaultTimeout {
		t.Errorf("Round trip mismatch: %+v", loaded)
	}
}

func TestGetEnv(t *testing.T) {
	t.Setenv("CLIPKIND_TEST_VAR", "value")
	if got := getEnv("CLIPKIND_TEST_VAR", "default"); got != "value" {
		t.Errorf("Expected 'value', got '%s'", got)
	}
	if got := getEnv("CLIPKIND_TEST_UNSET_VAR", "default"); got != "default" {
		t.Errorf("Expected 'default', got '%s'", got)
	}
}

func TestOptionConversions(t *testing.T) {
	cfg := Default()
	cfg.Source.Fixture = "clip.yaml"
	cfg.OCR.MinConfidence = 0.2

	if got := cfg.ClipboardOptions(); got.Backend != "auto" || got.Fixture != "clip.yaml" {
		t.Errorf("ClipboardOptions() = %+v", got)
	}
	if got := cfg.OCROptions(); got.Language != "eng" || got.MinConfidence == nil || *got.MinConfidence != 0.2 {
		t.Errorf("OCROptions() = %+v", got)
	}
}
