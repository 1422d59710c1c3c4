package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	DataDir  string `toml:"data_dir"`
	LogDir   string `toml:"log_dir"`
	APIBind  string `toml:"api_bind"`
	APIToken string `toml:"api_token"`
}

// Storage contains blob store configuration.
type Storage struct {
	// Backend selects the blob store implementation: "gcs" or "local".
	Backend string `toml:"backend"`
	// Bucket is the GCS bucket name (gcs backend only).
	Bucket string `toml:"bucket"`
	// LocalDir is the blob root directory (local backend only).
	LocalDir string `toml:"local_dir"`
	// LocalSignSecret keys the HMAC used for local signed URLs.
	LocalSignSecret string `toml:"local_sign_secret"`
	// SignedURLTTLDays controls how long issued signed URLs remain valid.
	// Defaults to 365 to match the product retention window.
	SignedURLTTLDays int `toml:"signed_url_ttl_days"`
}

// Fetch contains limits for the remote fetcher.
type Fetch struct {
	MaxBytes       int64 `toml:"max_bytes"`
	TimeoutSeconds int   `toml:"timeout_seconds"`
}

// Retry contains retry budget and backoff configuration.
type Retry struct {
	MaxRetries       int `toml:"max_retries"`
	BaseDelaySeconds int `toml:"base_delay_seconds"`
}

// Sweep contains retry sweeper configuration.
type Sweep struct {
	IntervalSeconds          int `toml:"interval_seconds"`
	BatchLimit               int `toml:"batch_limit"`
	PacingMillis             int `toml:"pacing_millis"`
	ProcessingTimeoutSeconds int `toml:"processing_timeout_seconds"`
}

// Ingest contains orchestrator configuration.
type Ingest struct {
	BatchConcurrency int `toml:"batch_concurrency"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for intake.
//
// Sections by subsystem:
//   - Paths: data/log directories and API bind address
//   - Storage: blob store backend selection and signed URL lifetime
//   - Fetch: remote download byte cap and timeout
//   - Retry: retry budget and exponential backoff base
//   - Sweep: sweeper scheduling, batch limit, pacing, reclaim timeout
//   - Ingest: batch fan-out concurrency
//   - Logging: log format and level
type Config struct {
	Paths   Paths   `toml:"paths"`
	Storage Storage `toml:"storage"`
	Fetch   Fetch   `toml:"fetch"`
	Retry   Retry   `toml:"retry"`
	Sweep   Sweep   `toml:"sweep"`
	Ingest  Ingest  `toml:"ingest"`
	Logging Logging `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/intake/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized. The boolean reports
// whether a config file existed at the resolved path.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("intake.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if c.Storage.Backend == "local" && strings.TrimSpace(c.Storage.LocalDir) != "" {
		if err := os.MkdirAll(c.Storage.LocalDir, 0o755); err != nil {
			return fmt.Errorf("create blob directory %q: %w", c.Storage.LocalDir, err)
		}
	}
	return nil
}

// FetchTimeout returns the remote fetch timeout as a duration.
func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.Fetch.TimeoutSeconds) * time.Second
}

// RetryBaseDelay returns the exponential backoff base delay as a duration.
func (c *Config) RetryBaseDelay() time.Duration {
	return time.Duration(c.Retry.BaseDelaySeconds) * time.Second
}

// SignedURLTTL returns the signed URL lifetime as a duration.
func (c *Config) SignedURLTTL() time.Duration {
	return time.Duration(c.Storage.SignedURLTTLDays) * 24 * time.Hour
}

// SweepInterval returns the daemon sweep interval as a duration.
func (c *Config) SweepInterval() time.Duration {
	return time.Duration(c.Sweep.IntervalSeconds) * time.Second
}

// SweepPacing returns the delay inserted between records within one sweep pass.
func (c *Config) SweepPacing() time.Duration {
	return time.Duration(c.Sweep.PacingMillis) * time.Millisecond
}

// ProcessingTimeout returns how long a record may sit in processing before
// the sweeper reclaims it.
func (c *Config) ProcessingTimeout() time.Duration {
	return time.Duration(c.Sweep.ProcessingTimeoutSeconds) * time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
