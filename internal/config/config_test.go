package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"mediasane/internal/services"
)

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	cfg, _, exists, err := Load(filepath.Join(t.TempDir(), "config.toml"))
	if err != nil {
		t.Fatal(err)
	}
	if exists {
		t.Fatal("expected missing config file")
	}
	if cfg.Naming.ImagePrefix != "IMG-" || cfg.Naming.VideoPrefix != "VID-" {
		t.Fatalf("unexpected prefixes: %+v", cfg.Naming)
	}
	if cfg.Hashing.BudgetSeconds != 60 {
		t.Fatalf("unexpected hash budget: %d", cfg.Hashing.BudgetSeconds)
	}
	if cfg.Metadata.Tool != "exiftool" || cfg.Metadata.TimeoutSeconds != 10 {
		t.Fatalf("unexpected metadata settings: %+v", cfg.Metadata)
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[naming]
image_prefix = "PIC-"

[scan]
keep_duplicates = true

[hashing]
budget_seconds = 5

[logging]
format = "json"
level = "debug"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, resolved, exists, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if !exists {
		t.Fatal("expected config file to exist")
	}
	if resolved != path {
		t.Fatalf("resolved path %q, want %q", resolved, path)
	}
	if cfg.Naming.ImagePrefix != "PIC-" {
		t.Fatalf("image prefix not applied: %q", cfg.Naming.ImagePrefix)
	}
	if cfg.Naming.VideoPrefix != "VID-" {
		t.Fatalf("video prefix default lost: %q", cfg.Naming.VideoPrefix)
	}
	if !cfg.Scan.KeepDuplicates {
		t.Fatal("keep_duplicates not applied")
	}
	if cfg.Hashing.BudgetSeconds != 5 {
		t.Fatalf("hash budget not applied: %d", cfg.Hashing.BudgetSeconds)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("logging settings not applied: %+v", cfg.Logging)
	}
}

func TestLoadRejectsBadPrefix(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[naming]\nimage_prefix = \"a/b\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, _, _, err := Load(path); err == nil {
		t.Fatal("expected validation error for prefix with separator")
	}
}

func TestLoadRejectsBadLogFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[logging]\nformat = \"xml\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, _, _, err := Load(path)
	if err == nil {
		t.Fatal("expected validation error for log format")
	}
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("err = %v, want services.ErrConfiguration", err)
	}
}

func TestCreateSampleRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := CreateSample(path); err != nil {
		t.Fatal(err)
	}
	cfg, _, exists, err := Load(path)
	if err != nil {
		t.Fatalf("sample config should load cleanly: %v", err)
	}
	if !exists {
		t.Fatal("sample config missing after CreateSample")
	}
	if cfg.Naming.ImagePrefix != "IMG-" {
		t.Fatalf("sample defaults mismatch: %+v", cfg.Naming)
	}
}

func TestExpandPathHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	got, err := ExpandPath("~/x")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(got, home) {
		t.Fatalf("expected %q under %q", got, home)
	}
}
