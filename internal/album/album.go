package album

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// wavPattern extracts the track number from a raw-audio filename: one or
// more leading digits, then arbitrary characters, then the extension.
var wavPattern = regexp.MustCompile(`^(\d+).*\.wav$`)

var coverExtensions = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
}

// Album is one ripped-CD directory's validated contents. It is built once
// by FromDirectory and never mutated afterwards; the encode stage tracks
// consumed wav entries on its own.
type Album struct {
	SourceDir    string
	Tracks       []TrackRecord // sidecar line order
	CoverPath    string        // empty when the album has no cover image
	MetadataPath string
	RipLogPath   string // empty when no rip log exists
	// WavFiles maps the track number parsed from each raw-audio filename to
	// its absolute path.
	WavFiles map[int]string
}

// Name renders the album's display name from its first track record.
func (a *Album) Name() string {
	first := a.Tracks[0]
	return fmt.Sprintf("%s - %d - %s", first.AlbumArtist, first.Year, first.AlbumTitle)
}

// StructuralError reports why a directory was rejected as an album.
type StructuralError struct {
	Dir    string
	Reason string
}

func (e *StructuralError) Error() string {
	return fmt.Sprintf("%s: %s", e.Dir, e.Reason)
}

func reject(dir, format string, args ...any) error {
	return &StructuralError{Dir: dir, Reason: fmt.Sprintf(format, args...)}
}

// FromDirectory scans dir and assembles a validated Album, or reports why
// the directory is not one. Rejections are expected during normal operation
// (partial rips, stray files) and never abort the batch.
func FromDirectory(dir string) (*Album, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read album directory: %w", err)
	}

	var wavNames []string
	var metadataPath, coverPath, logPath string

	for _, entry := range entries {
		name := entry.Name()
		if !entry.Type().IsRegular() {
			return nil, reject(dir, "the entry %q is not a regular file", name)
		}
		switch ext := filepath.Ext(name); {
		case ext == ".wav":
			wavNames = append(wavNames, name)
		case ext == ".txt":
			if metadataPath != "" {
				return nil, reject(dir, "multiple metadata files found")
			}
			metadataPath = filepath.Join(dir, name)
		case ext == ".log":
			if logPath != "" {
				return nil, reject(dir, "multiple log files found")
			}
			logPath = filepath.Join(dir, name)
		default:
			if _, ok := coverExtensions[ext]; ok {
				if coverPath != "" {
					return nil, reject(dir, "multiple album pictures found")
				}
				coverPath = filepath.Join(dir, name)
				continue
			}
			return nil, reject(dir, "the filename %q was not expected", name)
		}
	}

	if len(wavNames) == 0 {
		return nil, reject(dir, "no wav files were found")
	}
	if metadataPath == "" {
		return nil, reject(dir, "a metadata file was not found")
	}

	wavFiles := make(map[int]string, len(wavNames))
	for _, name := range wavNames {
		match := wavPattern.FindStringSubmatch(name)
		if match == nil {
			return nil, reject(dir, "the wav filename %q is not in the expected format", name)
		}
		trackNum, err := strconv.Atoi(match[1])
		if err != nil {
			return nil, reject(dir, "the wav filename %q is not in the expected format", name)
		}
		if prev, ok := wavFiles[trackNum]; ok {
			return nil, reject(dir, "multiple wav files were found for track %d: %q and %q",
				trackNum, filepath.Base(prev), name)
		}
		wavFiles[trackNum] = filepath.Join(dir, name)
	}

	lines, err := readMetadataLines(metadataPath)
	if err != nil {
		return nil, fmt.Errorf("read metadata file: %w", err)
	}

	tracks := make([]TrackRecord, 0, len(lines))
	for index, line := range lines {
		record, err := ParseTrackRecord(line)
		if err != nil {
			return nil, reject(dir, "invalid metadata was encountered: %v (line %d)", err, index+1)
		}
		tracks = append(tracks, record)
	}
	if len(tracks) == 0 {
		return nil, reject(dir, "the metadata file contains no track records")
	}

	return &Album{
		SourceDir:    dir,
		Tracks:       tracks,
		CoverPath:    coverPath,
		MetadataPath: metadataPath,
		RipLogPath:   logPath,
		WavFiles:     wavFiles,
	}, nil
}

// readMetadataLines decodes the sidecar as UTF-16 little-endian text, a
// fixed contract of the ripping tool that produces it. A trailing newline
// does not yield a spurious empty line.
func readMetadataLines(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	decoder := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder()
	data, err := io.ReadAll(transform.NewReader(file, decoder))
	if err != nil {
		return nil, fmt.Errorf("decode UTF-16LE: %w", err)
	}

	lines := strings.Split(string(data), "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines, nil
}
