// Package config loads and validates the mediasane TOML configuration.
// Defaults are applied for missing values, ~ is expanded in path fields, and
// a sample file can be materialized with CreateSample.
package config
