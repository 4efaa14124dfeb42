package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := validatePrefix("naming.image_prefix", c.Naming.ImagePrefix); err != nil {
		return err
	}
	if err := validatePrefix("naming.video_prefix", c.Naming.VideoPrefix); err != nil {
		return err
	}
	if c.Hashing.BudgetSeconds < 0 {
		return errors.New("hashing.budget_seconds must not be negative")
	}
	if c.Hashing.QuickPrefixBytes < 0 {
		return errors.New("hashing.quick_prefix_bytes must not be negative")
	}
	if c.Metadata.TimeoutSeconds < 0 {
		return errors.New("metadata.timeout_seconds must not be negative")
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	return nil
}

func validatePrefix(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s must not be empty", field)
	}
	if strings.ContainsAny(value, `/\`) {
		return fmt.Errorf("%s must not contain path separators", field)
	}
	return nil
}
