package sevenzip

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"flacpress/internal/services"
)

// writeStub installs a 7z stand-in. On "a" it records argv and the working
// directory, then creates the archive file (the last argument). On "t" it
// exits with testExit.
func writeStub(t *testing.T, recordPath string, testExit int) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "7z")
	script := `#!/bin/sh
mode="$1"
printf '%s\n' "$@" >> "` + recordPath + `"
pwd >> "` + recordPath + `"
if [ "$mode" = "a" ]; then
  for a in "$@"; do last="$a"; done
  printf 'archive' > "$last"
  exit 0
fi
if [ "$mode" = "t" ]; then
  exit ` + itoa(testExit) + `
fi
exit 3
`
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	return path
}

func itoa(v int) string {
	if v == 0 {
		return "0"
	}
	return "1"
}

func TestCreateRunsInSourceDirWithExpectedFlags(t *testing.T) {
	record := filepath.Join(t.TempDir(), "record.txt")
	stub := writeStub(t, record, 0)
	source := t.TempDir()
	archive := filepath.Join(t.TempDir(), "album.7z_temp")

	client := NewCLI(WithBinary(stub))
	if err := client.Create(context.Background(), archive, source, nil); err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := os.Stat(archive); err != nil {
		t.Fatalf("expected archive file: %v", err)
	}

	raw, err := os.ReadFile(record)
	if err != nil {
		t.Fatalf("read record: %v", err)
	}
	content := string(raw)
	for _, flag := range []string{"a", "-t7z", "-mx9", "-sccUTF-8", "-scsUTF-8", "-ssw"} {
		if !strings.Contains(content, flag+"\n") {
			t.Fatalf("missing flag %q in %q", flag, content)
		}
	}
	resolvedSource, _ := filepath.EvalSymlinks(source)
	if !strings.Contains(content, resolvedSource) && !strings.Contains(content, source) {
		t.Fatalf("archiver did not run in source dir: %q", content)
	}
}

func TestCreateHonorsLevelAndSolidOptions(t *testing.T) {
	record := filepath.Join(t.TempDir(), "record.txt")
	stub := writeStub(t, record, 0)

	client := NewCLI(WithBinary(stub), WithCompressionLevel(5), WithSolid(false))
	archive := filepath.Join(t.TempDir(), "a.7z_temp")
	if err := client.Create(context.Background(), archive, t.TempDir(), nil); err != nil {
		t.Fatalf("create: %v", err)
	}
	raw, _ := os.ReadFile(record)
	if !strings.Contains(string(raw), "-mx5\n") {
		t.Fatalf("expected -mx5, got %q", string(raw))
	}
	if !strings.Contains(string(raw), "-ms=off\n") {
		t.Fatalf("expected -ms=off, got %q", string(raw))
	}
}

func TestTestFailureIsExternalToolError(t *testing.T) {
	record := filepath.Join(t.TempDir(), "record.txt")
	stub := writeStub(t, record, 1)

	err := NewCLI(WithBinary(stub)).Test(context.Background(), "/tmp/whatever.7z", nil)
	if err == nil {
		t.Fatal("expected integrity test failure")
	}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool marker, got %v", err)
	}
}

func TestArgumentValidation(t *testing.T) {
	client := NewCLI()
	if err := client.Create(context.Background(), "", "src", nil); err == nil {
		t.Fatal("expected error for missing archive path")
	}
	if err := client.Create(context.Background(), "a.7z", "", nil); err == nil {
		t.Fatal("expected error for missing source dir")
	}
	if err := client.Test(context.Background(), "", nil); err == nil {
		t.Fatal("expected error for missing archive path")
	}
}
