package stage

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"golang.org/x/text/encoding/unicode"

	"flacpress/internal/album"
	"flacpress/internal/config"
	"flacpress/internal/logging"
	"flacpress/internal/services/flac"
)

func metadataLine(trackNum int, title string) string {
	fields := []string{
		title,
		"The Artist",
		strconv.Itoa(trackNum),
		"03:21",
		"A. Composer",
		"Greatest Hits",
		"The Artist",
		"",
		"The Interpret",
		"1999",
		"Rock",
		"",
		"12",
		"150",
		"CDDB",
		"7a0b2c0d",
	}
	return strings.Join(fields, "\t")
}

func writeAlbumDir(t *testing.T, wavNames []string, cover bool, lines ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, name := range wavNames {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("RIFFwav"), 0o644); err != nil {
			t.Fatalf("write wav: %v", err)
		}
	}
	if cover {
		if err := os.WriteFile(filepath.Join(dir, "cover.jpg"), []byte("jpeg"), 0o644); err != nil {
			t.Fatalf("write cover: %v", err)
		}
	}
	content := strings.Join(lines, "\r\n") + "\r\n"
	encoder := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder()
	data, err := encoder.Bytes([]byte(content))
	if err != nil {
		t.Fatalf("encode metadata: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "album.txt"), data, 0o644); err != nil {
		t.Fatalf("write metadata: %v", err)
	}
	return dir
}

func loadAlbum(t *testing.T, dir string) *album.Album {
	t.Helper()
	alb, err := album.FromDirectory(dir)
	if err != nil {
		t.Fatalf("classify fixture: %v", err)
	}
	return alb
}

// stubFlac writes the file named by --output-name and exits 0.
func stubFlac(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "flac")
	script := `#!/bin/sh
out=""
prev=""
for a in "$@"; do
  if [ "$prev" = "--output-name" ]; then out="$a"; fi
  prev="$a"
done
[ -n "$out" ] || exit 2
printf 'flacdata' > "$out"
`
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("write flac stub: %v", err)
	}
	return path
}

func stubFailingFlac(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "flac")
	if err := os.WriteFile(path, []byte("#!/bin/sh\necho 'encode boom' >&2\nexit 1\n"), 0o755); err != nil {
		t.Fatalf("write flac stub: %v", err)
	}
	return path
}

func newEncoder(t *testing.T, binary string) *Encoder {
	t.Helper()
	cfg := config.Default()
	return NewEncoder(&cfg, flac.NewCLI(flac.WithBinary(binary)), logging.NewNop())
}

func TestEncodeCommitsTracksAndCover(t *testing.T) {
	src := writeAlbumDir(t, []string{"01 - Intro.wav", "02 - Song.wav"}, true,
		metadataLine(1, "Intro"), metadataLine(2, "Song"))
	alb := loadAlbum(t, src)
	outputDir := filepath.Join(t.TempDir(), "flac", "Album")

	enc := newEncoder(t, stubFlac(t))
	result, err := enc.Run(context.Background(), alb, outputDir)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if result != Success {
		t.Fatalf("expected Success, got %s", result)
	}

	for _, name := range []string{"01 - Intro.flac", "02 - Song.flac", "cover.jpg"} {
		if _, err := os.Stat(filepath.Join(outputDir, name)); err != nil {
			t.Fatalf("expected committed file %q: %v", name, err)
		}
	}
	if _, err := os.Stat(filepath.Join(outputDir, coverTempName)); !os.IsNotExist(err) {
		t.Fatalf("temp cover name must not survive commit: %v", err)
	}
	if _, err := os.Stat(outputDir + tempDirSuffix); !os.IsNotExist(err) {
		t.Fatalf("temp directory must be renamed away: %v", err)
	}
}

func TestEncodeSecondRunSkips(t *testing.T) {
	src := writeAlbumDir(t, []string{"01 - Intro.wav"}, false, metadataLine(1, "Intro"))
	alb := loadAlbum(t, src)
	outputDir := filepath.Join(t.TempDir(), "Album")
	enc := newEncoder(t, stubFlac(t))

	if result, err := enc.Run(context.Background(), alb, outputDir); err != nil || result != Success {
		t.Fatalf("first run: result=%v err=%v", result, err)
	}

	committed := filepath.Join(outputDir, "01 - Intro.flac")
	before, err := os.Stat(committed)
	if err != nil {
		t.Fatalf("stat committed file: %v", err)
	}

	alb = loadAlbum(t, src) // fresh album, as a re-invoked run would build
	result, err := enc.Run(context.Background(), alb, outputDir)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if result != Skipped {
		t.Fatalf("expected Skipped, got %s", result)
	}
	after, err := os.Stat(committed)
	if err != nil {
		t.Fatalf("stat after skip: %v", err)
	}
	if !after.ModTime().Equal(before.ModTime()) {
		t.Fatal("skip must not touch committed files")
	}
}

func TestEncodeFailsOnUnreferencedWav(t *testing.T) {
	src := writeAlbumDir(t, []string{"01 - Intro.wav", "07 - Stray.wav"}, false,
		metadataLine(1, "Intro"))
	alb := loadAlbum(t, src)
	outputDir := filepath.Join(t.TempDir(), "Album")

	enc := newEncoder(t, stubFlac(t))
	result, err := enc.Run(context.Background(), alb, outputDir)
	if result != Failure {
		t.Fatalf("expected Failure, got %s", result)
	}
	if err == nil || !strings.Contains(err.Error(), "07 - Stray.wav") {
		t.Fatalf("error must report the unprocessed file, got %v", err)
	}
	if _, statErr := os.Stat(outputDir); !os.IsNotExist(statErr) {
		t.Fatal("failed encode must not produce the committed directory")
	}
}

func TestEncodeFailsOnMissingTrackFile(t *testing.T) {
	src := writeAlbumDir(t, []string{"01 - Intro.wav"}, false,
		metadataLine(1, "Intro"), metadataLine(5, "Phantom"))
	alb := loadAlbum(t, src)

	enc := newEncoder(t, stubFlac(t))
	result, err := enc.Run(context.Background(), alb, filepath.Join(t.TempDir(), "Album"))
	if result != Failure {
		t.Fatalf("expected Failure, got %s", result)
	}
	if err == nil || !strings.Contains(err.Error(), "track number 5") {
		t.Fatalf("error must name the missing track, got %v", err)
	}
}

func TestEncodeSkipsDataTrackPlaceholder(t *testing.T) {
	src := writeAlbumDir(t, []string{"01 - Intro.wav"}, false,
		metadataLine(1, "Intro"), metadataLine(5, "Data Track"))
	alb := loadAlbum(t, src)
	outputDir := filepath.Join(t.TempDir(), "Album")

	enc := newEncoder(t, stubFlac(t))
	result, err := enc.Run(context.Background(), alb, outputDir)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if result != Success {
		t.Fatalf("expected Success, got %s", result)
	}
	entries, err := os.ReadDir(outputDir)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "01 - Intro.flac" {
		t.Fatalf("unexpected output contents: %v", entries)
	}
}

func TestEncodeEncoderFailureLeavesTempDir(t *testing.T) {
	src := writeAlbumDir(t, []string{"01 - Intro.wav"}, false, metadataLine(1, "Intro"))
	alb := loadAlbum(t, src)
	outputDir := filepath.Join(t.TempDir(), "Album")

	enc := newEncoder(t, stubFailingFlac(t))
	result, err := enc.Run(context.Background(), alb, outputDir)
	if result != Failure || err == nil {
		t.Fatalf("expected Failure with error, got result=%v err=%v", result, err)
	}
	if _, statErr := os.Stat(outputDir); !os.IsNotExist(statErr) {
		t.Fatal("committed directory must not exist after failure")
	}
	if _, statErr := os.Stat(outputDir + tempDirSuffix); statErr != nil {
		t.Fatalf("temp directory should remain for inspection: %v", statErr)
	}
}

func TestEncodeClearsStaleTempDir(t *testing.T) {
	src := writeAlbumDir(t, []string{"01 - Intro.wav"}, false, metadataLine(1, "Intro"))
	alb := loadAlbum(t, src)
	outputDir := filepath.Join(t.TempDir(), "Album")

	// Simulate a crashed prior run.
	staleDir := outputDir + tempDirSuffix
	if err := os.MkdirAll(staleDir, 0o755); err != nil {
		t.Fatalf("mkdir stale: %v", err)
	}
	if err := os.WriteFile(filepath.Join(staleDir, "leftover"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write leftover: %v", err)
	}

	enc := newEncoder(t, stubFlac(t))
	result, err := enc.Run(context.Background(), alb, outputDir)
	if err != nil || result != Success {
		t.Fatalf("encode: result=%v err=%v", result, err)
	}
	if _, statErr := os.Stat(filepath.Join(outputDir, "leftover")); !os.IsNotExist(statErr) {
		t.Fatal("stale temp contents must not leak into the committed directory")
	}
}
