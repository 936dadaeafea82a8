package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Storage.Backend = BackendPostgres
	cfg.Storage.PostgresURL = "postgres://ledger@localhost/ledger"
	cfg.Log.Format = "json"

	dir := t.TempDir()
	path := filepath.Join(dir, FileName)
	err := Save(path, cfg)
	require.NoError(t, err)

	got, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, BackendPostgres, got.Storage.Backend)
	assert.Equal(t, cfg.Storage.PostgresURL, got.Storage.PostgresURL)
	assert.Equal(t, filepath.Join(dir, "data"), got.Storage.Dir)
	assert.Equal(t, filepath.Join(dir, "data", "audit-log.csv"), got.Audit.Path)
	assert.Equal(t, "json", got.Log.Format)
	assert.Equal(t, 365, got.Interest.DayCount)
}

func TestDefaults(t *testing.T) {
	cfg := Default()

	assert.Equal(t, BackendCSV, cfg.Storage.Backend)
	assert.Equal(t, "data", cfg.Storage.Dir)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.True(t, cfg.Audit.Enabled)
	assert.Equal(t, 365, cfg.Interest.DayCount)
	assert.True(t, cfg.Git.AutoCommit)
	assert.NoError(t, cfg.Validate())
}

func TestLoadNotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte("storage:\n  backend: memory\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, BackendMemory, cfg.Storage.Backend)
	assert.Equal(t, 365, cfg.Interest.DayCount)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestYAMLFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	err := Save(path, Default())
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	contents := string(data)

	assert.Contains(t, contents, "backend: csv")
	assert.Contains(t, contents, "dir: data")
	assert.Contains(t, contents, "day_count: 365")
	assert.Contains(t, contents, "enabled: true")
	assert.NotContains(t, contents, "postgres_url")
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		EnvStorageBackend: "POSTGRES",
		EnvPostgresURL:    "postgres://x@db/ledger",
		EnvLogLevel:       "debug",
		EnvStorageDir:     "",
	}
	cfg := Default()
	cfg.ApplyEnv(func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	})

	assert.Equal(t, BackendPostgres, cfg.Storage.Backend)
	assert.Equal(t, "postgres://x@db/ledger", cfg.Storage.PostgresURL)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "data", cfg.Storage.Dir, "empty values do not override")
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	assert.NoError(t, LoadEnvFile(filepath.Join(dir, ".env")))

	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("ACCRUAL_TEST_ENV_FILE=loaded\n"), 0o644))
	t.Setenv("ACCRUAL_TEST_ENV_FILE", "")
	os.Unsetenv("ACCRUAL_TEST_ENV_FILE")

	require.NoError(t, LoadEnvFile(path))
	assert.Equal(t, "loaded", os.Getenv("ACCRUAL_TEST_ENV_FILE"))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"unknown backend", func(c *Config) { c.Storage.Backend = "sqlite" }, "unknown storage backend"},
		{"csv without dir", func(c *Config) { c.Storage.Dir = "" }, "storage.dir"},
		{"postgres without url", func(c *Config) { c.Storage.Backend = BackendPostgres }, "postgres_url"},
		{"audit without path", func(c *Config) { c.Audit.Path = "" }, "audit.path"},
		{"zero day count", func(c *Config) { c.Interest.DayCount = 0 }, "day_count"},
		{"git without author", func(c *Config) { c.Git.AuthorEmail = "" }, "git.author_email"},
	}
	for _, tt := range tests {
		cfg := Default()
		tt.mutate(cfg)
		err := cfg.Validate()
		require.Error(t, err, tt.name)
		assert.Contains(t, err.Error(), tt.errMsg, tt.name)
	}

	cfg := Default()
	cfg.Storage.Backend = BackendMemory
	cfg.Storage.Dir = ""
	assert.NoError(t, cfg.Validate())
}
