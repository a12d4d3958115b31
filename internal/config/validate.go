package config

import (
	"errors"
	"fmt"

	"assetpress/internal/compression"
	"assetpress/internal/pattern"
)

// Validate ensures the configuration is usable. An empty output root is
// allowed here; planning reports it only when a job needs a destination.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateCompression(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if c.Paths.ProjectRoot == "" {
		return errors.New("paths.project_root must be set")
	}
	if c.Paths.StateDir == "" {
		return errors.New("paths.state_dir must be set")
	}
	return nil
}

func (c *Config) validateCompression() error {
	if _, err := compression.ParseList(c.Compression.Formats); err != nil {
		return fmt.Errorf("compression.formats: %w", err)
	}
	if err := pattern.Validate(pattern.Split(c.Compression.Include)); err != nil {
		return fmt.Errorf("compression.include: %w", err)
	}
	if err := pattern.Validate(pattern.Split(c.Compression.Exclude)); err != nil {
		return fmt.Errorf("compression.exclude: %w", err)
	}
	if c.Compression.Workers <= 0 {
		return errors.New("compression.workers must be positive")
	}
	if err := compression.ValidateLevel(compression.FormatGzip, c.Compression.GzipLevel); err != nil {
		return fmt.Errorf("compression.gzip_level: %w", err)
	}
	if err := compression.ValidateLevel(compression.FormatBrotli, c.Compression.BrotliLevel); err != nil {
		return fmt.Errorf("compression.brotli_level: %w", err)
	}
	for i, request := range c.Compression.Explicit {
		if request.Path == "" {
			return fmt.Errorf("compression.explicit[%d].path must be set", i)
		}
		if _, err := compression.ParseTag(request.Format); err != nil {
			return fmt.Errorf("compression.explicit[%d].format: %w", i, err)
		}
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	return nil
}

// Level returns the configured encoder level for f.
func (c *Config) Level(f compression.Format) int {
	switch f {
	case compression.FormatGzip:
		return c.Compression.GzipLevel
	case compression.FormatBrotli:
		return c.Compression.BrotliLevel
	default:
		return compression.DefaultLevel(f)
	}
}
