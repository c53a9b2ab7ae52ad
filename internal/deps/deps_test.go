package deps

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"flacpress/internal/config"
	"flacpress/internal/services"
)

func writeStubBinary(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	return path
}

func TestCheckBinaries(t *testing.T) {
	binDir := t.TempDir()
	present := writeStubBinary(t, binDir, "present")

	reqs := []Requirement{
		{Name: "Present", Command: present},
		{Name: "Missing", Command: "clearly-not-present-binary"},
		{Name: "Unset", Command: ""},
	}

	results := CheckBinaries(reqs)
	if len(results) != len(reqs) {
		t.Fatalf("expected %d results, got %d", len(reqs), len(results))
	}
	if !results[0].Available {
		t.Fatalf("expected first requirement to be available, got %#v", results[0])
	}
	if results[0].Detail != "" {
		t.Fatalf("unexpected detail for available dependency: %s", results[0].Detail)
	}
	if results[1].Available {
		t.Fatal("expected missing binary to be unavailable")
	}
	if results[1].Detail == "" {
		t.Fatal("expected detail message for missing binary")
	}
	if results[2].Detail != "command not configured" {
		t.Fatalf("unexpected detail for unset command: %s", results[2].Detail)
	}
}

func TestVerify(t *testing.T) {
	binDir := t.TempDir()
	flacBin := writeStubBinary(t, binDir, "flac")
	zipBin := writeStubBinary(t, binDir, "7z")

	cfg := config.Default()
	cfg.Tools.FlacBinary = flacBin
	cfg.Tools.SevenZipBinary = zipBin
	if err := Verify(&cfg); err != nil {
		t.Fatalf("expected tooling verification to pass: %v", err)
	}

	cfg.Tools.SevenZipBinary = "no-such-archiver"
	err := Verify(&cfg)
	if err == nil {
		t.Fatal("expected verification failure")
	}
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}
