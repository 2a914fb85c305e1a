package main

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func writeConfigFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "todo.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	// No todo.toml next to the tests, so this is defaults only
	cfg, err := loadConfig("", envMap(nil))
	require.NoError(t, err)

	assert.Equal(t, defaultConfig(), cfg)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, driverBadger, cfg.StorageDriver)
	assert.Equal(t, DefaultStorageKey, cfg.StorageKey)
	assert.Equal(t, 5*1024*1024, cfg.StorageQuotaBytes)
}

func TestLoadConfig_File(t *testing.T) {
	path := writeConfigFile(t, `
port = "9090"
storage_driver = "sqlite"
db_path = "/var/lib/todo/todo.db"
storage_key = "my_todos"
storage_quota_bytes = 1024
sort_locale = "en"
log_level = "debug"
`)

	cfg, err := loadConfig(path, envMap(nil))
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, driverSQLite, cfg.StorageDriver)
	assert.Equal(t, "/var/lib/todo/todo.db", cfg.DBPath)
	assert.Equal(t, "my_todos", cfg.StorageKey)
	assert.Equal(t, 1024, cfg.StorageQuotaBytes)
	assert.Equal(t, "en", cfg.SortLocale)

	level, err := cfg.slogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	path := writeConfigFile(t, `
port = "9090"
storage_key = "from_file"
`)

	cfg, err := loadConfig(path, envMap(map[string]string{
		"PORT":                "7070",
		"STORAGE_QUOTA_BYTES": "0",
		"LOG_WEBHOOK_URL":     "http://collector/logs",
		"LOG_WEBHOOK_TOKEN":   "secret",
	}))
	require.NoError(t, err)

	assert.Equal(t, "7070", cfg.Port)
	assert.Equal(t, "from_file", cfg.StorageKey)
	assert.Equal(t, 0, cfg.StorageQuotaBytes)
	assert.Equal(t, "http://collector/logs", cfg.LogWebhookURL)
	assert.Equal(t, "secret", cfg.LogWebhookToken)
}

func TestLoadConfig_Errors(t *testing.T) {
	tests := []struct {
		name string
		file string
		env  map[string]string
	}{
		{name: "unknown key", file: `colour = "blue"`},
		{name: "bad toml", file: `port = `},
		{name: "bad driver", env: map[string]string{"STORAGE_DRIVER": "redis"}},
		{name: "bad quota", env: map[string]string{"STORAGE_QUOTA_BYTES": "lots"}},
		{name: "negative quota", env: map[string]string{"STORAGE_QUOTA_BYTES": "-1"}},
		{name: "bad level", env: map[string]string{"LOG_LEVEL": "loud"}},
		{name: "bad locale", env: map[string]string{"SORT_LOCALE": "not a locale!"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := ""
			if tt.file != "" {
				path = writeConfigFile(t, tt.file)
			}
			_, err := loadConfig(path, envMap(tt.env))
			assert.Error(t, err)
		})
	}
}

func TestLoadConfig_MissingExplicitFile(t *testing.T) {
	_, err := loadConfig(filepath.Join(t.TempDir(), "nope.toml"), envMap(nil))
	assert.ErrorContains(t, err, "loading config file")
}
