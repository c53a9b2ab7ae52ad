// Package batch orchestrates a full conversion run: discovering ripped album
// directories under an input root, encoding each to FLAC, and archiving the
// originals. A single flock-guarded invocation processes every album and
// reports per-album outcomes.
package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"flacpress/internal/album"
	"flacpress/internal/config"
	"flacpress/internal/deps"
	"flacpress/internal/history"
	"flacpress/internal/logging"
	"flacpress/internal/stage"
)

// ErrRunFailures reports that at least one album failed a stage. The run
// itself completed; the summary carries the per-album detail.
var ErrRunFailures = errors.New("one or more albums failed")

// singleAlbumArchiveName is the archive stem used when the input directory
// is itself one ripped album rather than a collection of album directories.
const singleAlbumArchiveName = "archive"

// lockFileName guards against two conversion runs sharing output trees.
const lockFileName = "flacpress.lock"

// Options carries the per-invocation directories.
type Options struct {
	InputDir   string
	ArchiveDir string
	FlacDir    string
}

// Outcome records what happened to one album source directory.
type Outcome struct {
	Name         string
	SourceDir    string
	Encode       stage.Result
	Archive      stage.Result
	ArchiveGated bool
	Err          error
}

// Summary is the result of a whole run.
type Summary struct {
	RunID       string
	SingleAlbum bool
	Outcomes    []Outcome
	Rejected    []string
}

// Runner wires the stages together for one or more albums.
type Runner struct {
	cfg      *config.Config
	logger   *slog.Logger
	encoder  *stage.Encoder
	archiver *stage.Archiver
	history  *history.Store
}

// NewRunner constructs a runner. The history store may be nil, in which
// case runs are not recorded.
func NewRunner(cfg *config.Config, logger *slog.Logger, encoder *stage.Encoder, archiver *stage.Archiver, store *history.Store) *Runner {
	return &Runner{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "batch"),
		encoder:  encoder,
		archiver: archiver,
		history:  store,
	}
}

// Run processes every album under opts.InputDir. When the input directory
// contains no subdirectories it is treated as a single ripped album itself.
// Encode failures gate that album's archive step so original audio is never
// compressed away before a good FLAC copy exists. The returned summary is
// non-nil whenever processing started; ErrRunFailures is returned when any
// album failed.
func (r *Runner) Run(ctx context.Context, opts Options) (*Summary, error) {
	if err := os.MkdirAll(r.cfg.Paths.LogDir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure log directory: %w", err)
	}
	lock := flock.New(filepath.Join(r.cfg.Paths.LogDir, lockFileName))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire run lock: %w", err)
	}
	if !ok {
		return nil, errors.New("another conversion run is already in progress")
	}
	defer func() {
		_ = lock.Unlock()
	}()

	startedAt := time.Now().UTC()
	runID := uuid.NewString()
	logger := r.logger.With(logging.String(logging.FieldRunID, runID))

	sourceDirs, singleAlbum, err := discoverSources(opts.InputDir)
	if err != nil {
		return nil, err
	}
	logger.Info("run started",
		logging.String("input", opts.InputDir),
		logging.Int("candidates", len(sourceDirs)),
		logging.Bool("single_album", singleAlbum),
	)

	summary := &Summary{RunID: runID, SingleAlbum: singleAlbum}

	var albums []*album.Album
	for _, dir := range sourceDirs {
		alb, err := album.FromDirectory(dir)
		if err != nil {
			logger.Warn("skipping directory",
				logging.String("dir", dir),
				logging.Error(err),
			)
			summary.Rejected = append(summary.Rejected, dir)
			continue
		}
		albums = append(albums, alb)
	}
	if len(albums) == 0 {
		logger.Info("nothing to process")
		return summary, nil
	}

	if err := deps.Verify(r.cfg); err != nil {
		return nil, err
	}

	encodeFailed := make(map[string]struct{})
	for _, alb := range albums {
		outcome := Outcome{Name: alb.Name(), SourceDir: alb.SourceDir}

		outputDir := opts.FlacDir
		if !singleAlbum {
			outputDir = filepath.Join(opts.FlacDir, filepath.Base(alb.SourceDir))
		}
		outcome.Encode, err = r.encoder.Run(ctx, alb, outputDir)
		if err != nil {
			logger.Error("encode failed",
				logging.String("album", alb.Name()),
				logging.Error(err),
			)
			encodeFailed[alb.SourceDir] = struct{}{}
			outcome.Err = err
		} else {
			logger.Info("encode finished",
				logging.String("album", alb.Name()),
				logging.String("result", outcome.Encode.String()),
			)
		}
		summary.Outcomes = append(summary.Outcomes, outcome)
	}

	for i, alb := range albums {
		outcome := &summary.Outcomes[i]
		if _, failed := encodeFailed[alb.SourceDir]; failed {
			outcome.ArchiveGated = true
			logger.Warn("archive skipped after encode failure",
				logging.String("album", alb.Name()),
			)
			continue
		}

		name := singleAlbumArchiveName
		if !singleAlbum {
			name = filepath.Base(alb.SourceDir)
		}
		result, archiveErr := r.archiver.Run(ctx, alb, opts.ArchiveDir, name)
		outcome.Archive = result
		if archiveErr != nil {
			logger.Error("archive failed",
				logging.String("album", alb.Name()),
				logging.Error(archiveErr),
			)
			if outcome.Err == nil {
				outcome.Err = archiveErr
			}
			continue
		}
		logger.Info("archive finished",
			logging.String("album", alb.Name()),
			logging.String("result", result.String()),
		)
	}

	r.recordHistory(ctx, logger, runID, opts.InputDir, singleAlbum, startedAt, summary)

	if summary.Failed() {
		return summary, ErrRunFailures
	}
	return summary, nil
}

// Failed reports whether any album failed a stage.
func (s *Summary) Failed() bool {
	for _, outcome := range s.Outcomes {
		if outcome.Encode == stage.Failure || outcome.Archive == stage.Failure {
			return true
		}
	}
	return false
}

func (r *Runner) recordHistory(ctx context.Context, logger *slog.Logger, runID, inputDir string, singleAlbum bool, startedAt time.Time, summary *Summary) {
	if r.history == nil {
		return
	}

	run := history.Run{
		ID:          runID,
		InputDir:    inputDir,
		SingleAlbum: singleAlbum,
		StartedAt:   startedAt,
		FinishedAt:  time.Now().UTC(),
	}
	for _, outcome := range summary.Outcomes {
		archive := outcome.Archive.String()
		if outcome.ArchiveGated {
			archive = "gated"
		}
		run.Albums = append(run.Albums, history.AlbumRecord{
			Name:          outcome.Name,
			SourcePath:    outcome.SourceDir,
			EncodeResult:  outcome.Encode.String(),
			ArchiveResult: archive,
		})
	}
	if err := r.history.RecordRun(ctx, run); err != nil {
		logger.Warn("recording run history failed", logging.Error(err))
	}
}

// discoverSources lists the album directories under inputDir. When inputDir
// has no subdirectories at all it is returned as the single source itself.
func discoverSources(inputDir string) ([]string, bool, error) {
	info, err := os.Stat(inputDir)
	if err != nil {
		return nil, false, fmt.Errorf("stat input directory: %w", err)
	}
	if !info.IsDir() {
		return nil, false, fmt.Errorf("input path %q is not a directory", inputDir)
	}

	entries, err := os.ReadDir(inputDir)
	if err != nil {
		return nil, false, fmt.Errorf("read input directory: %w", err)
	}

	var dirs []string
	for _, entry := range entries {
		if entry.IsDir() {
			dirs = append(dirs, filepath.Join(inputDir, entry.Name()))
		}
	}
	if len(dirs) == 0 {
		return []string{inputDir}, true, nil
	}
	sort.Strings(dirs)
	return dirs, false, nil
}
