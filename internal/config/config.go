package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

const (
	defaultFetchConcurrent = 10
	defaultHTTPTimeoutSec  = 20
	defaultArticleLimit    = 0
	defaultLogLevel        = "warn"
	maxRetryDelays         = 10
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

const (
	defaultUserAgent  = "reader/0.1"
	configFolderName  = "reader"
	configFileName    = "config.toml"
	dotenvFileName    = ".env"
	configPathEnvName = "XDG_CONFIG_HOME"
	envPrefix         = "READER_"
)

var defaultRetryDelays = []time.Duration{
	100 * time.Millisecond,
	250 * time.Millisecond,
	500 * time.Millisecond,
}

type Config struct {
	DBDriver         string
	DBPath           string
	FetchConcurrency int
	HTTPTimeout      time.Duration
	UserAgent        string
	ArticleLimit     int
	RetryDelays      []time.Duration
	LogLevel         string
	// ConfigPath is the config.toml that was applied, if any.
	ConfigPath string
}

// SlogLevel maps LogLevel to a slog level. Unknown values fall back to warn.
func (c Config) SlogLevel() slog.Level {
	level, err := ParseLogLevel(c.LogLevel)
	if err != nil {
		return slog.LevelWarn
	}
	return level
}

func ParseLogLevel(v string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "", "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelWarn, fmt.Errorf("unknown log level %q (expected debug|info|warn|error)", v)
	}
}

// LoadConfig layers defaults, config.toml, a .env file beside it, and the
// process environment, in increasing precedence.
func LoadConfig() (Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Config{}, err
	}
	defaultDB := filepath.Join(home, ".local", "share", "reader", "reader.db")

	cfg := Config{
		DBDriver:         DriverSQLite,
		DBPath:           defaultDB,
		FetchConcurrency: defaultFetchConcurrent,
		HTTPTimeout:      defaultHTTPTimeoutSec * time.Second,
		UserAgent:        defaultUserAgent,
		ArticleLimit:     defaultArticleLimit,
		RetryDelays:      append([]time.Duration(nil), defaultRetryDelays...),
		LogLevel:         defaultLogLevel,
	}

	configPath, hasConfig, err := findConfigPath(home)
	if err != nil {
		return Config{}, err
	}
	if hasConfig {
		fileCfg, err := loadFileConfig(configPath)
		if err != nil {
			return Config{}, err
		}
		applyFileConfig(&cfg, fileCfg)
		cfg.ConfigPath = configPath
	}

	dotenv, err := loadDotenv(configDirs(home))
	if err != nil {
		return Config{}, err
	}
	applyEnvOverrides(&cfg, envLookup(dotenv))

	if cfg.FetchConcurrency < 1 {
		cfg.FetchConcurrency = defaultFetchConcurrent
	}
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = defaultHTTPTimeoutSec * time.Second
	}
	if cfg.ArticleLimit < 0 {
		cfg.ArticleLimit = defaultArticleLimit
	}
	return cfg, nil
}

type fileConfig struct {
	DBDriver           *string `toml:"db_driver"`
	DBPath             *string `toml:"db_path"`
	FetchConcurrency   *int    `toml:"fetch_concurrency"`
	HTTPTimeoutSeconds *int    `toml:"http_timeout_seconds"`
	UserAgent          *string `toml:"user_agent"`
	ArticleLimit       *int    `toml:"article_limit"`
	RetryDelaysMS      []int   `toml:"retry_delays_ms"`
	LogLevel           *string `toml:"log_level"`
}

func configDirs(home string) []string {
	dirs := make([]string, 0, 2)
	if xdgConfigHome := strings.TrimSpace(os.Getenv(configPathEnvName)); xdgConfigHome != "" {
		dirs = append(dirs, filepath.Join(xdgConfigHome, configFolderName))
	}
	return append(dirs, filepath.Join(home, ".config", configFolderName))
}

func findConfigPath(home string) (string, bool, error) {
	for _, dir := range configDirs(home) {
		candidate := filepath.Join(dir, configFileName)
		info, err := os.Stat(candidate)
		if err == nil {
			if info.IsDir() {
				return "", false, fmt.Errorf("config path %q is a directory; expected a file", candidate)
			}
			return candidate, true, nil
		}
		if os.IsNotExist(err) {
			continue
		}
		return "", false, fmt.Errorf("failed to read config path %q: %w", candidate, err)
	}
	return "", false, nil
}

func loadFileConfig(path string) (fileConfig, error) {
	var cfg fileConfig
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return fileConfig{}, fmt.Errorf("invalid config file %q: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		unknown := make([]string, 0, len(undecoded))
		for _, key := range undecoded {
			unknown = append(unknown, key.String())
		}
		sort.Strings(unknown)
		return fileConfig{}, fmt.Errorf("invalid config file %q: unknown key(s): %s", path, strings.Join(unknown, ", "))
	}
	if err := validateFileConfig(path, cfg); err != nil {
		return fileConfig{}, err
	}
	return cfg, nil
}

func validateFileConfig(path string, cfg fileConfig) error {
	if cfg.DBDriver != nil {
		if _, ok := normalizeDriver(*cfg.DBDriver); !ok {
			return fmt.Errorf("invalid config file %q: db_driver must be %q or %q", path, DriverSQLite, DriverPostgres)
		}
	}
	if cfg.DBPath != nil && strings.TrimSpace(*cfg.DBPath) == "" {
		return fmt.Errorf("invalid config file %q: db_path must be non-empty when provided", path)
	}
	if cfg.FetchConcurrency != nil && *cfg.FetchConcurrency < 1 {
		return fmt.Errorf("invalid config file %q: fetch_concurrency must be >= 1", path)
	}
	if cfg.HTTPTimeoutSeconds != nil && *cfg.HTTPTimeoutSeconds <= 0 {
		return fmt.Errorf("invalid config file %q: http_timeout_seconds must be > 0", path)
	}
	if cfg.UserAgent != nil && strings.TrimSpace(*cfg.UserAgent) == "" {
		return fmt.Errorf("invalid config file %q: user_agent must be non-empty when provided", path)
	}
	if cfg.ArticleLimit != nil && *cfg.ArticleLimit < 0 {
		return fmt.Errorf("invalid config file %q: article_limit must be >= 0", path)
	}
	if len(cfg.RetryDelaysMS) > maxRetryDelays {
		return fmt.Errorf("invalid config file %q: retry_delays_ms allows at most %d entries", path, maxRetryDelays)
	}
	for _, ms := range cfg.RetryDelaysMS {
		if ms < 0 {
			return fmt.Errorf("invalid config file %q: retry_delays_ms entries must be >= 0", path)
		}
	}
	if cfg.LogLevel != nil {
		if _, err := ParseLogLevel(*cfg.LogLevel); err != nil {
			return fmt.Errorf("invalid config file %q: %w", path, err)
		}
	}
	return nil
}

func applyFileConfig(cfg *Config, fileCfg fileConfig) {
	if fileCfg.DBDriver != nil {
		cfg.DBDriver, _ = normalizeDriver(*fileCfg.DBDriver)
	}
	if fileCfg.DBPath != nil {
		cfg.DBPath = *fileCfg.DBPath
	}
	if fileCfg.FetchConcurrency != nil {
		cfg.FetchConcurrency = *fileCfg.FetchConcurrency
	}
	if fileCfg.HTTPTimeoutSeconds != nil {
		cfg.HTTPTimeout = time.Duration(*fileCfg.HTTPTimeoutSeconds) * time.Second
	}
	if fileCfg.UserAgent != nil {
		cfg.UserAgent = *fileCfg.UserAgent
	}
	if fileCfg.ArticleLimit != nil {
		cfg.ArticleLimit = *fileCfg.ArticleLimit
	}
	if fileCfg.RetryDelaysMS != nil {
		cfg.RetryDelays = millisToDurations(fileCfg.RetryDelaysMS)
	}
	if fileCfg.LogLevel != nil {
		cfg.LogLevel = strings.ToLower(strings.TrimSpace(*fileCfg.LogLevel))
	}
}

// loadDotenv reads the first .env found in dirs without touching the
// process environment.
func loadDotenv(dirs []string) (map[string]string, error) {
	for _, dir := range dirs {
		path := filepath.Join(dir, dotenvFileName)
		if _, err := os.Stat(path); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("failed to read env file %q: %w", path, err)
		}
		values, err := godotenv.Read(path)
		if err != nil {
			return nil, fmt.Errorf("invalid env file %q: %w", path, err)
		}
		return values, nil
	}
	return map[string]string{}, nil
}

// envLookup prefers the process environment over .env values.
func envLookup(dotenv map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok
	}
}

func applyEnvOverrides(cfg *Config, lookup func(string) (string, bool)) {
	if v, ok := lookup(envPrefix + "DB_DRIVER"); ok && v != "" {
		if driver, valid := normalizeDriver(v); valid {
			cfg.DBDriver = driver
		}
	}
	if v, ok := lookup(envPrefix + "DB_PATH"); ok && v != "" {
		cfg.DBPath = v
	}
	if v, ok := lookup(envPrefix + "FETCH_CONCURRENCY"); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 1 {
			cfg.FetchConcurrency = n
		}
	}
	if v, ok := lookup(envPrefix + "HTTP_TIMEOUT_SECONDS"); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.HTTPTimeout = time.Duration(n) * time.Second
		}
	}
	if v, ok := lookup(envPrefix + "USER_AGENT"); ok && v != "" {
		cfg.UserAgent = v
	}
	if v, ok := lookup(envPrefix + "ARTICLE_LIMIT"); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.ArticleLimit = n
		}
	}
	if v, ok := lookup(envPrefix + "RETRY_DELAYS_MS"); ok {
		if delays, err := parseDelayList(v); err == nil {
			cfg.RetryDelays = delays
		}
	}
	if v, ok := lookup(envPrefix + "LOG_LEVEL"); ok && v != "" {
		if _, err := ParseLogLevel(v); err == nil {
			cfg.LogLevel = strings.ToLower(strings.TrimSpace(v))
		}
	}
}

func normalizeDriver(v string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case DriverSQLite:
		return DriverSQLite, true
	case DriverPostgres, "postgresql":
		return DriverPostgres, true
	default:
		return "", false
	}
}

// parseDelayList reads "100,250,500". An empty string disables retries.
func parseDelayList(v string) ([]time.Duration, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return []time.Duration{}, nil
	}
	parts := strings.Split(v, ",")
	if len(parts) > maxRetryDelays {
		return nil, fmt.Errorf("at most %d retry delays allowed", maxRetryDelays)
	}
	ms := make([]int, 0, len(parts))
	for _, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || n < 0 {
			return nil, fmt.Errorf("invalid retry delay %q", part)
		}
		ms = append(ms, n)
	}
	return millisToDurations(ms), nil
}

func millisToDurations(ms []int) []time.Duration {
	out := make([]time.Duration, 0, len(ms))
	for _, n := range ms {
		out = append(out, time.Duration(n)*time.Millisecond)
	}
	return out
}
