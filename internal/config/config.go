// Package config loads process configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	DriverFile   = "file"
	DriverSQLite = "sqlite"
)

type S3Config struct {
	Endpoint  string
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
}

type BackupConfig struct {
	S3         S3Config
	Passphrase string
	Interval   time.Duration
}

type Config struct {
	Port              string
	AllowedOrigins    []string
	AdminPassword     string
	AdminPasswordHash string
	RateLimitWindow   time.Duration
	RateLimitMax      int
	TrustProxy        bool
	StoreDriver       string
	DataDir           string
	DBPath            string
	StaticDir         string
	LogLevel          string
	LogFormat         string
	Backup            BackupConfig
}

// Load reads the environment through getenv (os.Getenv when nil).
func Load(getenv func(string) string) (Config, error) {
	if getenv == nil {
		getenv = os.Getenv
	}
	get := func(key, def string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return def
	}

	cfg := Config{
		Port:              get("PORT", "3000"),
		AllowedOrigins:    splitOrigins(get("CORS_ORIGINS", "*")),
		AdminPassword:     getenv("ADMIN_PASSWORD"),
		AdminPasswordHash: get("ADMIN_PASSWORD_HASH", ""),
		StoreDriver:       strings.ToLower(get("STORE_DRIVER", DriverFile)),
		DataDir:           get("DATA_DIR", "data"),
		DBPath:            get("DB_PATH", "foodwheel.db"),
		StaticDir:         get("STATIC_DIR", "public"),
		LogLevel:          get("LOG_LEVEL", "info"),
		LogFormat:         get("LOG_FORMAT", "text"),
		Backup: BackupConfig{
			S3: S3Config{
				Endpoint:  get("BACKUP_S3_ENDPOINT", ""),
				Bucket:    get("BACKUP_S3_BUCKET", ""),
				Region:    get("BACKUP_S3_REGION", "us-east-1"),
				AccessKey: get("BACKUP_S3_ACCESS_KEY", ""),
				SecretKey: get("BACKUP_S3_SECRET_KEY", ""),
			},
			Passphrase: getenv("BACKUP_PASSPHRASE"),
		},
	}

	windowMS, err := strconv.Atoi(get("RATE_LIMIT_WINDOW_MS", "900000"))
	if err != nil || windowMS <= 0 {
		return Config{}, fmt.Errorf("RATE_LIMIT_WINDOW_MS must be a positive integer")
	}
	cfg.RateLimitWindow = time.Duration(windowMS) * time.Millisecond

	cfg.RateLimitMax, err = strconv.Atoi(get("RATE_LIMIT_MAX_REQUESTS", "10"))
	if err != nil || cfg.RateLimitMax <= 0 {
		return Config{}, fmt.Errorf("RATE_LIMIT_MAX_REQUESTS must be a positive integer")
	}

	cfg.TrustProxy, err = strconv.ParseBool(get("TRUST_PROXY", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("TRUST_PROXY must be true or false")
	}

	if v := get("BACKUP_INTERVAL", ""); v != "" {
		cfg.Backup.Interval, err = time.ParseDuration(v)
		if err != nil || cfg.Backup.Interval < 0 {
			return Config{}, fmt.Errorf("BACKUP_INTERVAL must be a duration such as 6h")
		}
	}

	if cfg.AdminPassword == "" && cfg.AdminPasswordHash == "" {
		return Config{}, fmt.Errorf("ADMIN_PASSWORD or ADMIN_PASSWORD_HASH is required")
	}

	switch cfg.StoreDriver {
	case DriverFile, DriverSQLite:
	default:
		return Config{}, fmt.Errorf("STORE_DRIVER must be %q or %q, got %q", DriverFile, DriverSQLite, cfg.StoreDriver)
	}

	return cfg, nil
}

// AllowsAnyOrigin reports whether CORS is open to every origin.
func (c Config) AllowsAnyOrigin() bool {
	for _, o := range c.AllowedOrigins {
		if o == "*" {
			return true
		}
	}
	return false
}

func splitOrigins(s string) []string {
	var out []string
	for _, o := range strings.Split(s, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
