package testsupport

import (
	"path/filepath"
	"testing"

	"intake/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.APIBind = "127.0.0.1:0"
	cfgVal.Storage.Backend = "local"
	cfgVal.Storage.LocalDir = filepath.Join(base, "blobs")
	cfgVal.Storage.LocalSignSecret = "test-secret"
	cfgVal.Sweep.PacingMillis = 0

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithMaxRetries overrides the retry budget on the test config.
func WithMaxRetries(count int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Retry.MaxRetries = count
	}
}

// WithBaseDelay overrides the backoff base delay on the test config.
func WithBaseDelay(seconds int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Retry.BaseDelaySeconds = seconds
	}
}

// WithFetchMaxBytes caps downloaded payload size on the test config.
func WithFetchMaxBytes(limit int64) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Fetch.MaxBytes = limit
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
