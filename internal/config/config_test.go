package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultValidates(t *testing.T) {
	cfg := Default()
	if err := cfg.normalize(); err != nil {
		t.Fatalf("normalize default config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
	if cfg.Encoder.CompressionLevel != 8 {
		t.Fatalf("unexpected default compression level: %d", cfg.Encoder.CompressionLevel)
	}
	if !cfg.Encoder.Verify {
		t.Fatal("verify should default to true")
	}
}

func TestLoadAppliesOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[tools]
flac_binary = "/opt/flac/bin/flac"

[encoder]
compression_level = 5

[logging]
level = "debug"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to be reported as existing")
	}
	if resolved != path {
		t.Fatalf("unexpected resolved path %q", resolved)
	}
	if cfg.Tools.FlacBinary != "/opt/flac/bin/flac" {
		t.Fatalf("flac binary override lost: %q", cfg.Tools.FlacBinary)
	}
	if cfg.Encoder.CompressionLevel != 5 {
		t.Fatalf("compression override lost: %d", cfg.Encoder.CompressionLevel)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("log level override lost: %q", cfg.Logging.Level)
	}
	// Untouched sections keep defaults.
	if cfg.Tools.SevenZipBinary != "7z" {
		t.Fatalf("sevenzip default lost: %q", cfg.Tools.SevenZipBinary)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.toml")
	cfg, _, exists, err := Load(missing)
	if err != nil {
		t.Fatalf("load with missing file: %v", err)
	}
	if exists {
		t.Fatal("missing file reported as existing")
	}
	if cfg.Archiver.CompressionLevel != 9 {
		t.Fatalf("default archiver level lost: %d", cfg.Archiver.CompressionLevel)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"compression too high", func(c *Config) { c.Encoder.CompressionLevel = 9 }, "encoder.compression_level"},
		{"missing flac binary", func(c *Config) { c.Tools.FlacBinary = "" }, "tools.flac_binary"},
		{"bad format", func(c *Config) { c.Logging.Format = "yaml" }, "logging.format"},
		{"archive level", func(c *Config) { c.Archiver.CompressionLevel = 11 }, "archiver.compression_level"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("error %q does not mention %q", err, tc.want)
			}
		})
	}
}

func TestExpandPathTilde(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home directory: %v", err)
	}
	got, err := ExpandPath("~/music")
	if err != nil {
		t.Fatalf("expand: %v", err)
	}
	if got != filepath.Join(home, "music") {
		t.Fatalf("unexpected expansion: %q", got)
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := CreateSample(path); err != nil {
		t.Fatalf("create sample: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(data), "[encoder]") {
		t.Fatal("sample config missing [encoder] section")
	}
}
