package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"clipkind/pkg/clipboard"
	"clipkind/pkg/errors"
	"clipkind/pkg/models"
	"clipkind/pkg/ocr"

	"gopkg.in/yaml.v3"
)

const DefaultTimeout = 2 * time.Second

// Config holds the complete configuration
type Config struct {
	Source   SourceConfig `yaml:"source" json:"source"`
	OCR      OCRConfig    `yaml:"ocr" json:"ocr"`
	LogLevel string       `yaml:"log_level,omitempty" json:"log_level,omitempty"`
}

type SourceConfig struct {
	Backend string        `yaml:"backend" json:"backend"`
	Fixture string        `yaml:"fixture,omitempty" json:"fixture,omitempty"`
	Timeout time.Duration `yaml:"timeout" json:"timeout"`
}

type OCRConfig struct {
	Language       string  `yaml:"language" json:"language"`
	TessdataPrefix string  `yaml:"tessdata_prefix,omitempty" json:"tessdata_prefix,omitempty"`
	MinConfidence  float64 `yaml:"min_confidence" json:"min_confidence"`
}

// Default returns the configuration used when no file or environment
// variable says otherwise.
func Default() *Config {
	return &Config{
		Source: SourceConfig{Backend: clipboard.BackendAuto, Timeout: DefaultTimeout},
		OCR:    OCRConfig{Language: ocr.DefaultLanguage},
	}
}

// Load loads the configuration file and applies environment overrides
func Load() (*Config, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return nil, errors.NewWithError(errors.KindConfig, "failed to get config path", err)
	}
	return loadFromPath(configPath)
}

// GetConfigPath returns the path to the config file
func GetConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "clipkind", "config.yaml"), nil
}

// Save saves the configuration to file
func Save(cfg *Config) error {
	configPath, err := GetConfigPath()
	if err != nil {
		return err
	}
	return saveToPath(configPath, cfg)
}

func saveToPath(configPath string, cfg *Config) error {
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return errors.NewWithError(errors.KindFileOperation, "failed to create config directory", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.NewWithError(errors.KindConfig, "failed to marshal config", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return errors.NewWithError(errors.KindFileOperation, "failed to write config file", err)
	}

	return nil
}

// ClipboardOptions converts the source section for clipboard.New.
func (c *Config) ClipboardOptions() clipboard.Options {
	return clipboard.Options{Backend: c.Source.Backend, Fixture: c.Source.Fixture}
}

// OCROptions converts the ocr section into recognition defaults.
func (c *Config) OCROptions() ocr.Options {
	return ocr.Options{Language: c.OCR.Language, MinConfidence: models.Ptr(c.OCR.MinConfidence)}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func loadFromPath(configPath string) (*Config, error) {
	cfg := Default()

	if err := loadConfigFile(configPath, cfg); err != nil {
		return nil, err
	}

	applyEnvironmentOverrides(cfg)
	applyDefaults(cfg)

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadConfigFile reads and parses the config file from the given path
func loadConfigFile(path string, cfg *Config) error {
	if _, err := os.Stat(path); err != nil {
		// File doesn't exist, that's okay - defaults and env vars apply
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return errors.NewWithError(errors.KindFileOperation, "failed to read config file", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return errors.NewWithError(errors.KindConfig, "failed to parse config file", err)
	}

	return nil
}

// applyEnvironmentOverrides applies environment variable overrides to the config
func applyEnvironmentOverrides(cfg *Config) {
	cfg.Source.Backend = getEnv("CLIPKIND_BACKEND", cfg.Source.Backend)
	cfg.Source.Fixture = getEnv("CLIPKIND_FIXTURE", cfg.Source.Fixture)
	cfg.Source.Timeout = getEnvDuration("CLIPKIND_TIMEOUT", cfg.Source.Timeout)
	cfg.OCR.Language = getEnv("CLIPKIND_OCR_LANG", cfg.OCR.Language)
	cfg.OCR.TessdataPrefix = getEnv("TESSDATA_PREFIX", cfg.OCR.TessdataPrefix)
	cfg.OCR.MinConfidence = getEnvFloat("CLIPKIND_OCR_MIN_CONFIDENCE", cfg.OCR.MinConfidence)
	cfg.LogLevel = getEnv("CLIPKIND_LOG_LEVEL", cfg.LogLevel)
}

// applyDefaults fills fields a config file explicitly blanked.
func applyDefaults(cfg *Config) {
	cfg.Source.Backend = strings.ToLower(strings.TrimSpace(cfg.Source.Backend))
	if cfg.Source.Backend == "" {
		cfg.Source.Backend = clipboard.BackendAuto
	}
	if cfg.Source.Timeout == 0 {
		cfg.Source.Timeout = DefaultTimeout
	}
	if cfg.OCR.Language == "" {
		cfg.OCR.Language = ocr.DefaultLanguage
	}
}

// validateConfig rejects settings no clipboard source or OCR engine can honor
func validateConfig(cfg *Config) error {
	if !slices.Contains(clipboard.Backends(), cfg.Source.Backend) {
		return errors.ConfigError(fmt.Sprintf("unknown clipboard backend %q. Use one of: %s", cfg.Source.Backend, strings.Join(clipboard.Backends(), ", ")))
	}
	if cfg.Source.Backend == clipboard.BackendFixture && cfg.Source.Fixture == "" {
		return errors.ConfigError("fixture backend needs source.fixture or the CLIPKIND_FIXTURE environment variable")
	}
	if cfg.Source.Timeout < 0 {
		return errors.ConfigError(fmt.Sprintf("source timeout must be positive, got %s", cfg.Source.Timeout))
	}
	if cfg.OCR.MinConfidence < 0 || cfg.OCR.MinConfidence > 1 {
		return errors.ConfigError(fmt.Sprintf("ocr min_confidence must be between 0 and 1, got %g", cfg.OCR.MinConfidence))
	}
	return nil
}
