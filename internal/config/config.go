package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// FileName is the default config file name.
const FileName = "accrual.yaml"

// Storage backends.
const (
	BackendMemory   = "memory"
	BackendCSV      = "csv"
	BackendPostgres = "postgres"
)

// Environment overrides, applied after the file is read.
const (
	EnvStorageBackend = "ACCRUAL_STORAGE_BACKEND"
	EnvStorageDir     = "ACCRUAL_STORAGE_DIR"
	EnvPostgresURL    = "ACCRUAL_POSTGRES_URL"
	EnvLogLevel       = "ACCRUAL_LOG_LEVEL"
)

// Config represents the top-level accrual.yaml configuration.
type Config struct {
	Storage  StorageConfig  `yaml:"storage"`
	Log      LogConfig      `yaml:"log"`
	Audit    AuditConfig    `yaml:"audit"`
	Interest InterestConfig `yaml:"interest"`
	Git      GitConfig      `yaml:"git"`
}

// StorageConfig selects where the ledger lives.
type StorageConfig struct {
	Backend     string `yaml:"backend"`
	Dir         string `yaml:"dir,omitempty"`
	PostgresURL string `yaml:"postgres_url,omitempty"`
}

// LogConfig controls the logger.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "console" or "json"
}

// AuditConfig controls the operation audit log.
type AuditConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// InterestConfig holds accrual parameters.
type InterestConfig struct {
	DayCount int `yaml:"day_count"`
}

// GitConfig controls committing ledger changes when the project is a git
// repository.
type GitConfig struct {
	AutoCommit  bool   `yaml:"auto_commit"`
	AuthorName  string `yaml:"author_name"`
	AuthorEmail string `yaml:"author_email"`
}

// Load reads an accrual.yaml file from disk. Relative paths in the file
// are resolved against the file's directory.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.ResolvePaths(filepath.Dir(path))
	return cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults for a new ledger.
func Default() *Config {
	return &Config{
		Storage: StorageConfig{
			Backend: BackendCSV,
			Dir:     "data",
		},
		Log: LogConfig{
			Level:  "warn",
			Format: "console",
		},
		Audit: AuditConfig{
			Enabled: true,
			Path:    filepath.Join("data", "audit-log.csv"),
		},
		Interest: InterestConfig{
			DayCount: 365,
		},
		Git: GitConfig{
			AutoCommit:  true,
			AuthorName:  "accrual",
			AuthorEmail: "accrual@localhost",
		},
	}
}

// ResolvePaths makes relative storage and audit paths relative to base.
func (c *Config) ResolvePaths(base string) {
	if c.Storage.Dir != "" && !filepath.IsAbs(c.Storage.Dir) {
		c.Storage.Dir = filepath.Join(base, c.Storage.Dir)
	}
	if c.Audit.Path != "" && !filepath.IsAbs(c.Audit.Path) {
		c.Audit.Path = filepath.Join(base, c.Audit.Path)
	}
}

// LoadEnvFile loads variables from a .env file into the process
// environment. A missing file is not an error.
func LoadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides config values from the environment.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvStorageBackend); ok && v != "" {
		c.Storage.Backend = strings.ToLower(v)
	}
	if v, ok := lookup(EnvStorageDir); ok && v != "" {
		c.Storage.Dir = v
	}
	if v, ok := lookup(EnvPostgresURL); ok && v != "" {
		c.Storage.PostgresURL = v
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		c.Log.Level = v
	}
}

// Validate checks that the selected backend has what it needs.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case BackendMemory:
	case BackendCSV:
		if c.Storage.Dir == "" {
			return errors.New("storage.dir is required for the csv backend")
		}
	case BackendPostgres:
		if c.Storage.PostgresURL == "" {
			return errors.New("storage.postgres_url is required for the postgres backend")
		}
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	if c.Audit.Enabled && c.Audit.Path == "" {
		return errors.New("audit.path is required when audit is enabled")
	}
	if c.Interest.DayCount <= 0 {
		return fmt.Errorf("interest.day_count must be positive, got %d", c.Interest.DayCount)
	}
	if c.Git.AutoCommit && (c.Git.AuthorName == "" || c.Git.AuthorEmail == "") {
		return errors.New("git.author_name and git.author_email are required when auto_commit is on")
	}
	return nil
}
