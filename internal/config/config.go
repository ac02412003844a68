package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/oshokin/bds-updater/internal/logger"
)

// Config holds the settings shared by the updater commands.
type Config struct {
	// ServerFolder is the live Bedrock server installation that gets updated.
	ServerFolder string `yaml:"server_folder" env:"SERVER_FOLDER"`
	// CacheFolder holds the staging tree and install lock; derived from ServerFolder when empty.
	CacheFolder string `yaml:"cache_folder,omitempty" env:"CACHE_FOLDER"`
	// DownloadBaseURL is the prefix of the archive URLs.
	DownloadBaseURL string `yaml:"download_base_url" env:"DOWNLOAD_BASE_URL"`
	// DownloadTimeout bounds a single archive download; zero disables the limit.
	DownloadTimeout time.Duration `yaml:"download_timeout" env:"DOWNLOAD_TIMEOUT"`
	// RetryCount is the number of extra attempts on transport errors.
	RetryCount int `yaml:"retry_count" env:"RETRY_COUNT"`
	// Concurrency caps the file operations running at once per directory.
	Concurrency int `yaml:"concurrency" env:"CONCURRENCY"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" env:"LOG_LEVEL"`
	// KeepPaths lists extra server-relative paths that are never overwritten once present.
	KeepPaths []string `yaml:"keep_paths,omitempty" env:"KEEP_PATHS" envSeparator:","`
}

const (
	// DefaultConfigFilename is the default filename for updater settings.
	DefaultConfigFilename = "bds-updater.yaml"

	// EnvPrefix prefixes every environment override, e.g. BDS_UPDATER_SERVER_FOLDER.
	EnvPrefix = "BDS_UPDATER_"

	// DefaultDownloadBaseURL is where Mojang publishes dedicated server archives.
	DefaultDownloadBaseURL = "https://www.minecraft.net/bedrockdedicatedserver"

	// DefaultServerFolder is used when no server folder is configured.
	DefaultServerFolder = "."

	// DefaultFilePermissions is the permission set for the settings file.
	DefaultFilePermissions = 0o600
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errNegativeValue is returned for negative counters and durations.
	errNegativeValue = errors.New("value must not be negative")
	// errUnknownLogLevel is returned for unsupported log level names.
	errUnknownLogLevel = errors.New("unknown log level")
)

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := new(Config)
	_ = Validate(cfg) //nolint:errcheck // Zero values are always valid.

	return cfg
}

// Load reads configuration from the provided path, applies environment
// overrides and validates the result.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	return parse(contents)
}

// LoadOptional behaves like Load but starts from an empty configuration when
// the file does not exist.
func LoadOptional(path string) (*Config, error) {
	cfg, err := Load(path)
	if err == nil {
		return cfg, nil
	}

	if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	return parse(nil)
}

// Save writes the configuration to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	if err = os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks the provided settings and fills in defaults for empty fields.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if cfg.ServerFolder == "" {
		cfg.ServerFolder = DefaultServerFolder
	}

	serverFolder, err := filepath.Abs(cfg.ServerFolder)
	if err != nil {
		return fmt.Errorf("resolve server folder: %w", err)
	}

	cfg.ServerFolder = serverFolder

	if cfg.CacheFolder != "" {
		if cfg.CacheFolder, err = filepath.Abs(cfg.CacheFolder); err != nil {
			return fmt.Errorf("resolve cache folder: %w", err)
		}
	}

	if cfg.DownloadBaseURL == "" {
		cfg.DownloadBaseURL = DefaultDownloadBaseURL
	}

	if _, err = url.ParseRequestURI(cfg.DownloadBaseURL); err != nil {
		return fmt.Errorf("invalid download base URL: %w", err)
	}

	if cfg.DownloadTimeout < 0 {
		return fmt.Errorf("download timeout %s: %w", cfg.DownloadTimeout, errNegativeValue)
	}

	if cfg.RetryCount < 0 {
		return fmt.Errorf("retry count %d: %w", cfg.RetryCount, errNegativeValue)
	}

	if cfg.Concurrency < 0 {
		return fmt.Errorf("concurrency %d: %w", cfg.Concurrency, errNegativeValue)
	}

	if cfg.Concurrency == 0 {
		cfg.Concurrency = DefaultConcurrency()
	}

	if _, ok := logger.ParseLogLevel(cfg.LogLevel); !ok {
		return fmt.Errorf("%q: %w", cfg.LogLevel, errUnknownLogLevel)
	}

	return nil
}

// DefaultConcurrency is the per-directory file operation limit used when none is configured.
func DefaultConcurrency() int {
	return runtime.NumCPU() * 2
}

// parse decodes YAML contents, applies BDS_UPDATER_* overrides and validates.
func parse(contents []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("apply environment overrides: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
