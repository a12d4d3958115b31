package config

import (
	"fmt"
	"os"
	"runtime"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeCompression()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.ProjectRoot) == "" {
		c.Paths.ProjectRoot = defaultProjectRoot
	}
	if c.Paths.ProjectRoot, err = expandPath(strings.TrimSpace(c.Paths.ProjectRoot)); err != nil {
		return fmt.Errorf("paths.project_root: %w", err)
	}

	if strings.TrimSpace(c.Paths.OutputRoot) == "" {
		if value, ok := os.LookupEnv(OutputRootEnv); ok {
			c.Paths.OutputRoot = value
		}
	}
	if c.Paths.OutputRoot, err = resolveAgainst(c.Paths.ProjectRoot, c.Paths.OutputRoot); err != nil {
		return fmt.Errorf("paths.output_root: %w", err)
	}

	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = resolveAgainst(c.Paths.ProjectRoot, c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeCompression() {
	c.Compression.Formats = strings.TrimSpace(c.Compression.Formats)
	c.Compression.Include = strings.TrimSpace(c.Compression.Include)
	c.Compression.Exclude = strings.TrimSpace(c.Compression.Exclude)
	if c.Compression.Workers <= 0 {
		c.Compression.Workers = runtime.NumCPU()
	}
	for i := range c.Compression.Explicit {
		c.Compression.Explicit[i].Path = strings.TrimSpace(c.Compression.Explicit[i].Path)
		c.Compression.Explicit[i].Format = strings.TrimSpace(c.Compression.Explicit[i].Format)
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if len(c.Logging.ComponentLevels) > 0 {
		levels := make(map[string]string, len(c.Logging.ComponentLevels))
		for component, level := range c.Logging.ComponentLevels {
			levels[strings.TrimSpace(component)] = strings.ToLower(strings.TrimSpace(level))
		}
		c.Logging.ComponentLevels = levels
	}
}
