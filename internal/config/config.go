// Copyright (c) 2025 GPAI
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package config loads and stores CLI configuration in the XDG config dir.
// Only non-secret settings are kept here; secrets go to the credential store.
//
// Precedence, lowest first: built-in defaults, config.json, a .env file in the
// working directory, process environment. Command-line flags are applied on
// top by the cmd package.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/joho/godotenv"

	"gpai/cli/internal/xdg"
)

// DefaultAPIURL is the external auth API base used when nothing else is configured.
const DefaultAPIURL = "http://localhost:7788/api/external/v1"

// Storage backend names.
const (
	BackendKeyring = "keyring"
	BackendRedis   = "redis"
	BackendMemory  = "memory"
)

// DefaultTimeoutSeconds bounds a single request to the auth service.
const DefaultTimeoutSeconds = 10

// Config holds non-sensitive CLI settings.
type Config struct {
	APIURL         string  `json:"api_url"`
	LogLevel       string  `json:"log_level"`
	TimeoutSeconds int     `json:"timeout_seconds"`
	Storage        Storage `json:"storage"`
}

// Storage selects and configures the credential store.
type Storage struct {
	Backend string `json:"backend"`
	// KeyringPassword unlocks the encrypted file keyring. Env only.
	KeyringPassword string `json:"-"`
	Redis           Redis  `json:"redis"`
}

// Redis holds settings for the redis-backed credential store.
type Redis struct {
	Addr string `json:"addr"`
	// Password is read from the environment only.
	Password string `json:"-"`
	DB       int    `json:"db"`
	Prefix   string `json:"prefix"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		APIURL:         DefaultAPIURL,
		LogLevel:       "warn",
		TimeoutSeconds: DefaultTimeoutSeconds,
		Storage: Storage{
			Backend: BackendKeyring,
			Redis: Redis{
				Addr:   "localhost:6379",
				Prefix: "gpai:session:",
			},
		},
	}
}

// path returns the path to the config file.
func path() (string, error) {
	dir, err := xdg.ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads configuration; a missing file yields defaults. Environment
// overrides are applied in both cases.
func Load() (Config, error) {
	c, err := LoadFile()
	if err != nil {
		return c, err
	}

	// A missing .env is the normal case.
	_ = godotenv.Load()
	if err := c.applyEnv(); err != nil {
		return c, err
	}
	return c, nil
}

// LoadFile reads config.json over the defaults, ignoring the environment.
// It is the base for edits that are saved back.
func LoadFile() (Config, error) {
	c := Default()
	p, err := path()
	if err != nil {
		return c, err
	}
	data, err := os.ReadFile(p)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return c, err
	default:
		if err := json.Unmarshal(data, &c); err != nil {
			return c, err
		}
	}
	return c, nil
}

// Save writes configuration with 0600 permissions.
func Save(c Config) error {
	p, err := path()
	if err != nil {
		return err
	}
	b, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(p, b, 0o600)
}

func (c *Config) applyEnv() error {
	if v := env("GPAI_API_URL"); v != "" {
		c.APIURL = v
	}
	if v := env("GPAI_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := env("GPAI_STORAGE"); v != "" {
		c.Storage.Backend = strings.ToLower(v)
	}
	if v := env("GPAI_KEYRING_PASSWORD"); v != "" {
		c.Storage.KeyringPassword = v
	}
	if v := env("GPAI_REDIS_ADDR"); v != "" {
		c.Storage.Redis.Addr = v
	}
	if v := env("GPAI_REDIS_PASSWORD"); v != "" {
		c.Storage.Redis.Password = v
	}
	if v := env("GPAI_REDIS_PREFIX"); v != "" {
		c.Storage.Redis.Prefix = v
	}
	if v := env("GPAI_TIMEOUT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return errors.New("GPAI_TIMEOUT must be a positive number of seconds")
		}
		c.TimeoutSeconds = n
	}
	if v := env("GPAI_REDIS_DB"); v != "" {
		db, err := strconv.Atoi(v)
		if err != nil {
			return errors.New("GPAI_REDIS_DB must be an integer")
		}
		c.Storage.Redis.DB = db
	}
	return nil
}

// Timeout returns the per-request timeout, falling back to the default for
// unset or invalid values.
func (c Config) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return DefaultTimeoutSeconds * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Keys lists the settings accepted by Set.
var Keys = []string{"api_url", "log_level", "timeout_seconds", "storage", "redis.addr", "redis.db", "redis.prefix"}

// Set assigns one setting by key. Secrets are not settable here; they are
// read from the environment only.
func (c *Config) Set(key, value string) error {
	value = strings.TrimSpace(value)
	switch key {
	case "api_url":
		u, err := url.Parse(value)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("api_url must be an absolute URL, got %q", value)
		}
		c.APIURL = value
	case "log_level":
		switch strings.ToLower(value) {
		case "debug", "info", "warn", "error":
			c.LogLevel = strings.ToLower(value)
		default:
			return fmt.Errorf("log_level must be debug, info, warn or error, got %q", value)
		}
	case "timeout_seconds":
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			return fmt.Errorf("timeout_seconds must be a positive integer, got %q", value)
		}
		c.TimeoutSeconds = n
	case "storage":
		switch b := strings.ToLower(value); b {
		case BackendKeyring, BackendRedis, BackendMemory:
			c.Storage.Backend = b
		default:
			return fmt.Errorf("storage must be keyring, redis or memory, got %q", value)
		}
	case "redis.addr":
		c.Storage.Redis.Addr = value
	case "redis.db":
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return fmt.Errorf("redis.db must be a non-negative integer, got %q", value)
		}
		c.Storage.Redis.DB = n
	case "redis.prefix":
		c.Storage.Redis.Prefix = value
	default:
		return fmt.Errorf("unknown key %q (want one of %s)", key, strings.Join(Keys, ", "))
	}
	return nil
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}
