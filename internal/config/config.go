// Package config provides configuration loading and structs for the bibliodash server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug     bool            `yaml:"debug"`
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Dashboard DashboardConfig `yaml:"dashboard"`
	Watch     WatchConfig     `yaml:"watch"`
	Datasets  []DatasetConfig `yaml:"datasets" validate:"required,min=1,unique=Name,dive"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host        string   `yaml:"host"`
	Port        int      `yaml:"port" validate:"gte=0,lte=65535"`
	CORSOrigins []string `yaml:"cors_origins"`
	// RateLimit is the number of API requests allowed per client IP per minute; 0 disables limiting.
	RateLimit int `yaml:"rate_limit" validate:"gte=0"`
}

// StorageConfig holds the saved-views database path.
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// DashboardConfig holds presentation settings shared by every dataset tab.
type DashboardConfig struct {
	PageSize    int    `yaml:"page_size" validate:"gte=0"`
	MaxPageSize int    `yaml:"max_page_size" validate:"gte=0"`
	Currency    string `yaml:"currency"`
}

// WatchConfig holds dataset file watch settings.
type WatchConfig struct {
	Enabled    *bool `yaml:"enabled"`
	DebounceMs int   `yaml:"debounce_ms" validate:"gte=0"`
}

// EnabledOrDefault returns whether to watch dataset files; defaults to true when unset.
func (w *WatchConfig) EnabledOrDefault() bool {
	if w.Enabled != nil {
		return *w.Enabled
	}
	return true
}

// DatasetConfig describes one dashboard tab backed by a CSV or XLSX file.
type DatasetConfig struct {
	Name       string `yaml:"name" validate:"required,max=64,excludesall=/?#%"`
	Title      string `yaml:"title"`
	Path       string `yaml:"path" validate:"required"`
	Layout     string `yaml:"layout" validate:"omitempty,oneof=overview selection explorer"`
	ExportName string `yaml:"export_name"`
	// Columns overrides the source header used for a canonical field, e.g. price: "Sale Price (EUR)".
	Columns map[string]string `yaml:"columns,omitempty"`
}

// Load reads and parses the config file at path, expands paths, and applies defaults.
// Returns an error if the file cannot be read, parsed, or validated.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	for i := range cfg.Datasets {
		cfg.Datasets[i].Path = expandDataPath(cfg.Datasets[i].Path, configDir)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the built-in configuration: the full scored dataset and the final
// selection, both read from dir.
func Default(dir string) *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	for i := range cfg.Datasets {
		cfg.Datasets[i].Path = expandDataPath(cfg.Datasets[i].Path, dir)
	}
	return cfg
}

// Validate checks struct constraints on cfg.
func Validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Save writes the config to path. Used by "bibliodash init" to write a starter config.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Dataset returns the dataset config named name.
func (c *Config) Dataset(name string) (DatasetConfig, bool) {
	for _, d := range c.Datasets {
		if d.Name == name {
			return d, true
		}
	}
	return DatasetConfig{}, false
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return absPath(filepath.Join(configDir, path))
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}

// expandDataPath resolves a dataset file against configDir to an absolute path.
// "~/" is the home directory.
func expandDataPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return absPath(filepath.Join(configDir, path))
}

func absPath(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}
