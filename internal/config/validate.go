package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateStorage(); err != nil {
		return err
	}
	if err := c.validateFetch(); err != nil {
		return err
	}
	if err := c.validateRetry(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateStorage() error {
	switch c.Storage.Backend {
	case "local":
		if c.Storage.LocalDir == "" {
			return errors.New("storage.local_dir must be set when storage.backend is \"local\"")
		}
	case "gcs":
		if c.Storage.Bucket == "" {
			defaultPath, err := DefaultConfigPath()
			if err != nil {
				defaultPath = "~/.config/intake/config.toml"
			}
			return fmt.Errorf("storage.bucket is required when storage.backend is \"gcs\"; edit %s (create with 'intake config init')", defaultPath)
		}
	default:
		return fmt.Errorf("storage.backend: unsupported value %q (expected \"local\" or \"gcs\")", c.Storage.Backend)
	}
	return nil
}

func (c *Config) validateFetch() error {
	if c.Fetch.MaxBytes <= 0 {
		return errors.New("fetch.max_bytes must be positive")
	}
	if c.Fetch.TimeoutSeconds <= 0 {
		return errors.New("fetch.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateRetry() error {
	if c.Retry.MaxRetries < 1 {
		return errors.New("retry.max_retries must be at least 1")
	}
	if c.Retry.BaseDelaySeconds < 1 {
		return errors.New("retry.base_delay_seconds must be at least 1")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q (expected \"text\" or \"json\")", c.Logging.Format)
	}
	return nil
}
