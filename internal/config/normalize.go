package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if strings.TrimSpace(c.Naming.ImagePrefix) == "" {
		c.Naming.ImagePrefix = defaultImagePrefix
	}
	if strings.TrimSpace(c.Naming.VideoPrefix) == "" {
		c.Naming.VideoPrefix = defaultVideoPrefix
	}
	if c.Hashing.BudgetSeconds == 0 {
		c.Hashing.BudgetSeconds = defaultHashBudget
	}
	if c.Hashing.QuickPrefixBytes == 0 {
		c.Hashing.QuickPrefixBytes = defaultQuickPrefixBytes
	}
	c.Metadata.Tool = strings.TrimSpace(c.Metadata.Tool)
	if c.Metadata.Tool == "" {
		c.Metadata.Tool = defaultMetadataTool
	}
	if c.Metadata.TimeoutSeconds == 0 {
		c.Metadata.TimeoutSeconds = defaultMetadataTimeout
	}

	var err error
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}

	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	return nil
}
