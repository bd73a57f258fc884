// Package config loads kirum.yaml, the per-project settings file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// FileName is the settings file looked up in a project directory.
const FileName = "kirum.yaml"

// Config holds all kirum configuration.
type Config struct {
	Project   ProjectConfig   `yaml:"project"`
	Logging   LoggingConfig   `yaml:"logging"`
	Phonetics PhoneticsConfig `yaml:"phonetics"`
	Scripts   ScriptsConfig   `yaml:"scripts"`
	Render    RenderConfig    `yaml:"render"`
	Export    ExportConfig    `yaml:"export"`
}

// ProjectConfig locates the project files, relative to the project directory.
type ProjectConfig struct {
	TreeGlob      string `yaml:"tree_glob"`
	EtymologyGlob string `yaml:"etymology_glob"`
	PhoneticsGlob string `yaml:"phonetics_glob"`
	GlobalsFile   string `yaml:"globals_file"`
}

// PhoneticsConfig configures word generation.
type PhoneticsConfig struct {
	// Seed makes generation reproducible. Unset means a random seed per run.
	Seed     *uint64 `yaml:"seed,omitempty"`
	MaxDepth int     `yaml:"max_depth"`
}

// ScriptsConfig configures script_transform execution.
type ScriptsConfig struct {
	Dir             string   `yaml:"dir"`
	Timeout         string   `yaml:"timeout"`
	CacheSize       int      `yaml:"cache_size"`
	AllowedPackages []string `yaml:"allowed_packages,omitempty"`
}

// RenderConfig configures derivation passes.
type RenderConfig struct {
	MaxDepth int    `yaml:"max_depth"`
	Sort     string `yaml:"sort"` // word, id
}

// ExportConfig configures export writers.
type ExportConfig struct {
	SQLiteTable string `yaml:"sqlite_table"`
}

// Valid values for enumerated settings.
var (
	ValidLogLevels  = []string{"debug", "info", "warn", "error"}
	ValidLogFormats = []string{"json", "text"}
	ValidSortKeys   = []string{"word", "id"}
)

// ErrInvalid is returned by Validate.
var ErrInvalid = errors.New("invalid configuration")

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Project: ProjectConfig{
			TreeGlob:      "tree/**/*.json",
			EtymologyGlob: "etymology/**/*.json",
			PhoneticsGlob: "phonetics/**/*.json",
			GlobalsFile:   "globals.json",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Phonetics: PhoneticsConfig{
			MaxDepth: 32,
		},
		Scripts: ScriptsConfig{
			Dir:       ".",
			Timeout:   "5s",
			CacheSize: 64,
		},
		Render: RenderConfig{
			MaxDepth: 512,
			Sort:     "word",
		},
		Export: ExportConfig{
			SQLiteTable: "lexicon",
		},
	}
}

// Load reads configuration from path. A missing file yields the defaults.
// Environment overrides are applied in both cases.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	case os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDir loads dir/.env into the process environment if present, then
// dir/kirum.yaml.
func LoadDir(dir string) (*Config, error) {
	if err := godotenv.Load(filepath.Join(dir, ".env")); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	return Load(filepath.Join(dir, FileName))
}

// Save writes the configuration to path.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

func (c *Config) applyEnvOverrides() error {
	if level := os.Getenv("KIRUM_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	if format := os.Getenv("KIRUM_LOG_FORMAT"); format != "" {
		c.Logging.Format = format
	}
	if raw := os.Getenv("KIRUM_SEED"); raw != "" {
		seed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return fmt.Errorf("%w: KIRUM_SEED %q: %v", ErrInvalid, raw, err)
		}
		c.Phonetics.Seed = &seed
	}
	if dir := os.Getenv("KIRUM_SCRIPT_DIR"); dir != "" {
		c.Scripts.Dir = dir
	}
	if timeout := os.Getenv("KIRUM_SCRIPT_TIMEOUT"); timeout != "" {
		c.Scripts.Timeout = timeout
	}
	return nil
}

// GetScriptTimeout returns the script timeout, falling back to 5s when unset
// or unparsable.
func (c *Config) GetScriptTimeout() time.Duration {
	if c.Scripts.Timeout == "" {
		return 5 * time.Second
	}
	d, err := time.ParseDuration(c.Scripts.Timeout)
	if err != nil {
		return 5 * time.Second
	}
	return d
}

// Validate checks enumerated and numeric settings.
func (c *Config) Validate() error {
	if !contains(ValidLogLevels, c.Logging.Level) {
		return fmt.Errorf("%w: log level %q (valid: %v)", ErrInvalid, c.Logging.Level, ValidLogLevels)
	}
	if !contains(ValidLogFormats, c.Logging.Format) {
		return fmt.Errorf("%w: log format %q (valid: %v)", ErrInvalid, c.Logging.Format, ValidLogFormats)
	}
	if c.Render.Sort != "" && !contains(ValidSortKeys, c.Render.Sort) {
		return fmt.Errorf("%w: render sort %q (valid: %v)", ErrInvalid, c.Render.Sort, ValidSortKeys)
	}
	if c.Scripts.Timeout != "" {
		if _, err := time.ParseDuration(c.Scripts.Timeout); err != nil {
			return fmt.Errorf("%w: script timeout %q: %v", ErrInvalid, c.Scripts.Timeout, err)
		}
	}
	if c.Phonetics.MaxDepth < 0 || c.Render.MaxDepth < 0 || c.Scripts.CacheSize < 0 {
		return fmt.Errorf("%w: depths and cache size must not be negative", ErrInvalid)
	}
	if c.Project.TreeGlob == "" {
		return fmt.Errorf("%w: project.tree_glob is empty", ErrInvalid)
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
