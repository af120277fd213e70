// Package config reads server settings from the environment. A .env file in
// the working directory is loaded first if present.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/zap/zapcore"
)

// Storage backends.
const (
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"
)

// Config holds every setting the server needs.
type Config struct {
	HTTPPort  string
	StaticDir string

	StorageType string
	SQLitePath  string
	DBHost      string
	DBPort      string
	DBName      string
	DBUser      string
	DBPassword  string
	DBSSLMode   string

	EnforceFollowSuit bool

	LogLevel       string
	LogDevelopment bool
}

// Default returns the settings used when nothing is configured.
func Default() Config {
	return Config{
		HTTPPort:    "8080",
		StaticDir:   "web/static",
		StorageType: StorageSQLite,
		SQLitePath:  "./shama.db",
		DBHost:      "localhost",
		DBPort:      "5432",
		DBName:      "shama",
		DBUser:      "shama",
		DBSSLMode:   "disable",
		LogLevel:    "info",
	}
}

// Load reads .env files (missing files are ignored) and then the process
// environment. Environment variables already set win over .env values.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function such as os.Getenv.
func FromEnv(getenv func(string) string) (Config, error) {
	cfg := Default()
	str := func(key string, dst *string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}

	str("HTTP_PORT", &cfg.HTTPPort)
	str("STATIC_DIR", &cfg.StaticDir)
	str("STORAGE_TYPE", &cfg.StorageType)
	str("SQLITE_PATH", &cfg.SQLitePath)
	str("DB_HOST", &cfg.DBHost)
	str("DB_PORT", &cfg.DBPort)
	str("DB_NAME", &cfg.DBName)
	str("DB_USER", &cfg.DBUser)
	str("DB_PASSWORD", &cfg.DBPassword)
	str("DB_SSLMODE", &cfg.DBSSLMode)
	str("LOG_LEVEL", &cfg.LogLevel)

	var err error
	if cfg.EnforceFollowSuit, err = boolEnv(getenv, "ENFORCE_FOLLOW_SUIT"); err != nil {
		return Config{}, err
	}
	if cfg.LogDevelopment, err = boolEnv(getenv, "LOG_DEVELOPMENT"); err != nil {
		return Config{}, err
	}

	cfg.StorageType = strings.ToLower(cfg.StorageType)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func boolEnv(getenv func(string) string, key string) (bool, error) {
	v := strings.TrimSpace(getenv(key))
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: %q is not a boolean", key, v)
	}
	return b, nil
}

// Validate checks values that would otherwise fail later at startup.
func (c Config) Validate() error {
	if p, err := strconv.Atoi(c.HTTPPort); err != nil || p <= 0 || p > 65535 {
		return fmt.Errorf("HTTP_PORT: invalid port %q", c.HTTPPort)
	}
	switch c.StorageType {
	case StorageSQLite:
		if c.SQLitePath == "" {
			return errors.New("SQLITE_PATH is required for sqlite storage")
		}
	case StoragePostgres:
		if p, err := strconv.Atoi(c.DBPort); err != nil || p <= 0 {
			return fmt.Errorf("DB_PORT: invalid port %q", c.DBPort)
		}
		if c.DBName == "" || c.DBUser == "" {
			return errors.New("DB_NAME and DB_USER are required for postgres storage")
		}
	default:
		return fmt.Errorf("STORAGE_TYPE: unknown backend %q", c.StorageType)
	}
	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("LOG_LEVEL: %w", err)
	}
	return nil
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string {
	return ":" + c.HTTPPort
}

// PostgresDSN returns a connection URL for pgx.
func (c Config) PostgresDSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.DBUser, c.DBPassword),
		Host:     c.DBHost + ":" + c.DBPort,
		Path:     c.DBName,
		RawQuery: "sslmode=" + url.QueryEscape(c.DBSSLMode),
	}
	return u.String()
}
