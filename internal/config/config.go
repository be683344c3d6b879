package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config keeps runtime settings for the service.
type Config struct {
	Port        string
	DatabaseURL string
	JWTSecret   string
	TokenTTL    time.Duration
	UploadDir   string
	MaxUploadMB int
	SweepEvery  time.Duration
	Environment string

	LogLevel     string
	LogFile      string
	LogMaxSizeMB int
	LogMaxFiles  int

	AuthRatePerSec float64
	AuthRateBurst  int
}

// rawConfig is the optional TOML file. Unset keys keep their defaults.
type rawConfig struct {
	Port            *string  `toml:"port"`
	DatabaseURL     *string  `toml:"database_url"`
	JWTSecret       *string  `toml:"jwt_secret"`
	TokenTTLHours   *int     `toml:"token_ttl_hours"`
	UploadDir       *string  `toml:"upload_dir"`
	MaxUploadMB     *int     `toml:"max_upload_mb"`
	SweepEveryHours *int     `toml:"upload_sweep_interval_hours"`
	Environment     *string  `toml:"environment"`
	LogLevel        *string  `toml:"log_level"`
	LogFile         *string  `toml:"log_file"`
	LogMaxSizeMB    *int     `toml:"log_max_size_mb"`
	LogMaxFiles     *int     `toml:"log_max_files"`
	AuthRatePerSec  *float64 `toml:"auth_rate_per_sec"`
	AuthRateBurst   *int     `toml:"auth_rate_burst"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Port:           "5000",
		DatabaseURL:    "category-dashboard.db",
		TokenTTL:       24 * time.Hour,
		UploadDir:      "uploads",
		MaxUploadMB:    5,
		SweepEvery:     24 * time.Hour,
		Environment:    "production",
		LogLevel:       "info",
		LogMaxSizeMB:   10,
		LogMaxFiles:    5,
		AuthRatePerSec: 1,
		AuthRateBurst:  5,
	}
}

// Load reads configuration from CONFIG_FILE (if set) and environment
// variables. Environment values win over the file.
func Load() (Config, error) {
	return load(os.LookupEnv)
}

func load(lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()

	if path, ok := lookup("CONFIG_FILE"); ok && strings.TrimSpace(path) != "" {
		if err := applyFile(&cfg, strings.TrimSpace(path)); err != nil {
			return cfg, err
		}
	}

	env := func(key string) string {
		v, _ := lookup(key)
		return strings.TrimSpace(v)
	}

	setString(&cfg.Port, env("PORT"))
	setString(&cfg.DatabaseURL, env("DATABASE_URL"))
	setString(&cfg.JWTSecret, env("JWT_SECRET"))
	setString(&cfg.UploadDir, env("UPLOAD_DIR"))
	setString(&cfg.Environment, env("APP_ENV"))
	setString(&cfg.LogLevel, env("LOG_LEVEL"))
	setString(&cfg.LogFile, env("LOG_FILE"))

	if err := setInt(&cfg.MaxUploadMB, "MAX_UPLOAD_MB", env("MAX_UPLOAD_MB")); err != nil {
		return cfg, err
	}
	if err := setInt(&cfg.LogMaxSizeMB, "LOG_MAX_SIZE_MB", env("LOG_MAX_SIZE_MB")); err != nil {
		return cfg, err
	}
	if err := setInt(&cfg.LogMaxFiles, "LOG_MAX_FILES", env("LOG_MAX_FILES")); err != nil {
		return cfg, err
	}
	if err := setInt(&cfg.AuthRateBurst, "AUTH_RATE_BURST", env("AUTH_RATE_BURST")); err != nil {
		return cfg, err
	}
	if raw := env("AUTH_RATE_PER_SEC"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v <= 0 {
			return cfg, fmt.Errorf("AUTH_RATE_PER_SEC must be a positive number")
		}
		cfg.AuthRatePerSec = v
	}
	if raw := env("TOKEN_TTL_HOURS"); raw != "" {
		ttl := parseInterval(raw)
		if ttl == 0 {
			return cfg, fmt.Errorf("TOKEN_TTL_HOURS must be a positive number of hours")
		}
		cfg.TokenTTL = ttl
	}
	if raw := env("UPLOAD_SWEEP_INTERVAL_HOURS"); raw != "" {
		// Zero disables the sweeper.
		cfg.SweepEvery = parseInterval(raw)
	}

	return cfg, validate(cfg)
}

// Development reports whether error details may be exposed to clients.
func (c Config) Development() bool {
	return strings.EqualFold(c.Environment, "development")
}

// MaxUploadBytes is the upload size limit in bytes.
func (c Config) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) << 20
}

func applyFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %q: %w", path, err)
	}
	var raw rawConfig
	if err := toml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("parse config file %q: %w", path, err)
	}

	setFromFile(&cfg.Port, raw.Port)
	setFromFile(&cfg.DatabaseURL, raw.DatabaseURL)
	setFromFile(&cfg.JWTSecret, raw.JWTSecret)
	setFromFile(&cfg.UploadDir, raw.UploadDir)
	setFromFile(&cfg.MaxUploadMB, raw.MaxUploadMB)
	setFromFile(&cfg.Environment, raw.Environment)
	setFromFile(&cfg.LogLevel, raw.LogLevel)
	setFromFile(&cfg.LogFile, raw.LogFile)
	setFromFile(&cfg.LogMaxSizeMB, raw.LogMaxSizeMB)
	setFromFile(&cfg.LogMaxFiles, raw.LogMaxFiles)
	setFromFile(&cfg.AuthRatePerSec, raw.AuthRatePerSec)
	setFromFile(&cfg.AuthRateBurst, raw.AuthRateBurst)
	if raw.TokenTTLHours != nil {
		cfg.TokenTTL = time.Duration(*raw.TokenTTLHours) * time.Hour
	}
	if raw.SweepEveryHours != nil {
		cfg.SweepEvery = time.Duration(*raw.SweepEveryHours) * time.Hour
	}
	return nil
}

func setFromFile[T any](target *T, raw *T) {
	if raw != nil {
		*target = *raw
	}
}

func validate(cfg Config) error {
	if cfg.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.MaxUploadMB <= 0 {
		return fmt.Errorf("MAX_UPLOAD_MB must be positive")
	}
	if cfg.TokenTTL <= 0 {
		return fmt.Errorf("token ttl must be positive")
	}
	if cfg.AuthRatePerSec <= 0 || cfg.AuthRateBurst <= 0 {
		return fmt.Errorf("auth rate limit must be positive")
	}
	return nil
}

func setString(target *string, value string) {
	if value != "" {
		*target = value
	}
}

func setInt(target *int, key, raw string) error {
	if raw == "" {
		return nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("%s must be an integer: %w", key, err)
	}
	*target = v
	return nil
}

func parseInterval(raw string) time.Duration {
	if raw == "" {
		return 0
	}
	hours, err := time.ParseDuration(raw + "h")
	if err != nil || hours <= 0 {
		return 0
	}
	return hours
}
