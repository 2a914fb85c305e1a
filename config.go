package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// defaultConfigFile is picked up from the working directory when present
const defaultConfigFile = "todo.toml"

// defaultQuotaBytes mirrors the usual 5 MiB browser localStorage quota
const defaultQuotaBytes = 5 << 20

// Config holds the server settings
type Config struct {
	Port              string `toml:"port"`
	StorageDriver     string `toml:"storage_driver"`
	DBPath            string `toml:"db_path"`
	StorageKey        string `toml:"storage_key"`
	StorageQuotaBytes int    `toml:"storage_quota_bytes"`
	SortLocale        string `toml:"sort_locale"`
	LogLevel          string `toml:"log_level"`
	LogWebhookURL     string `toml:"log_webhook_url"`
	LogWebhookToken   string `toml:"log_webhook_token"`
}

func defaultConfig() Config {
	return Config{
		Port:              "8080",
		StorageDriver:     driverBadger,
		StorageKey:        DefaultStorageKey,
		StorageQuotaBytes: defaultQuotaBytes,
		SortLocale:        "und",
		LogLevel:          "info",
	}
}

// loadConfig builds the config in priority order:
//  1. Defaults
//  2. TOML file at path (or ./todo.toml if path is empty and the file exists)
//  3. Environment variables, read through getenv
func loadConfig(path string, getenv func(string) string) (Config, error) {
	cfg := defaultConfig()

	explicit := path != ""
	if !explicit {
		path = defaultConfigFile
	}

	if err := loadConfigFile(&cfg, path); err != nil {
		if explicit || !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("loading config file %s: %w", path, err)
		}
	}

	if err := loadConfigEnv(&cfg, getenv); err != nil {
		return Config{}, err
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadConfigFile(cfg *Config, path string) error {
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return err
	}

	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		sort.Strings(keys)
		return fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
	}
	return nil
}

func loadConfigEnv(cfg *Config, getenv func(string) string) error {
	if v := getenv("PORT"); v != "" {
		cfg.Port = v
	}
	if v := getenv("STORAGE_DRIVER"); v != "" {
		cfg.StorageDriver = v
	}
	if v := getenv("DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := getenv("STORAGE_KEY"); v != "" {
		cfg.StorageKey = v
	}
	if v := getenv("STORAGE_QUOTA_BYTES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("STORAGE_QUOTA_BYTES: %w", err)
		}
		cfg.StorageQuotaBytes = n
	}
	if v := getenv("SORT_LOCALE"); v != "" {
		cfg.SortLocale = v
	}
	if v := getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := getenv("LOG_WEBHOOK_URL"); v != "" {
		cfg.LogWebhookURL = v
	}
	if v := getenv("LOG_WEBHOOK_TOKEN"); v != "" {
		cfg.LogWebhookToken = v
	}
	return nil
}

func (c Config) validate() error {
	switch c.StorageDriver {
	case driverBadger, driverSQLite:
	default:
		return fmt.Errorf("storage_driver must be %q or %q, got %q", driverBadger, driverSQLite, c.StorageDriver)
	}
	if c.StorageQuotaBytes < 0 {
		return fmt.Errorf("storage_quota_bytes must not be negative, got %d", c.StorageQuotaBytes)
	}
	if _, err := c.slogLevel(); err != nil {
		return err
	}
	if _, err := newCollator(c.SortLocale); err != nil {
		return err
	}
	return nil
}

// slogLevel parses LogLevel ("debug", "info", "warn", "error")
func (c Config) slogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("log_level: %w", err)
	}
	return level, nil
}
