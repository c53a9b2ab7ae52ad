package stage

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"flacpress/internal/album"
	"flacpress/internal/config"
	"flacpress/internal/fileutil"
	"flacpress/internal/logging"
	"flacpress/internal/services"
	"flacpress/internal/services/flac"
)

// tempDirSuffix distinguishes an in-progress encode directory from a
// committed one.
const tempDirSuffix = ".tmp"

// coverTempName is the intermediate name cover art is copied to before its
// final rename, so a partially written copy is never mistaken for complete.
const coverTempName = "album_art.temp"

// dataTrackTitles are placeholder titles some CDs carry for a data session;
// such tracks have no wav file and are silently skipped.
var dataTrackTitles = map[string]struct{}{
	"Data":       {},
	"Data Track": {},
}

// Encoder converts one album's raw tracks into tagged FLAC files.
type Encoder struct {
	cfg    *config.Config
	client flac.Client
	logger *slog.Logger
}

// NewEncoder constructs the encode stage.
func NewEncoder(cfg *config.Config, client flac.Client, logger *slog.Logger) *Encoder {
	return &Encoder{
		cfg:    cfg,
		client: client,
		logger: logging.NewComponentLogger(logger, "encode"),
	}
}

// Run encodes every track of alb into outputDir. If outputDir already
// exists the album was committed by a prior run and nothing is touched.
// All intermediate files live in a sibling temp directory; the final rename
// of that directory is the single commit point. On failure the temp
// directory is left behind for inspection.
func (e *Encoder) Run(ctx context.Context, alb *album.Album, outputDir string) (Result, error) {
	if info, err := os.Stat(outputDir); err == nil && info.IsDir() {
		e.logger.Info("already encoded", logging.String("album", alb.Name()))
		return Skipped, nil
	}

	tempDir := outputDir + tempDirSuffix
	if err := os.RemoveAll(tempDir); err != nil {
		return Failure, fmt.Errorf("clear stale temp directory: %w", err)
	}
	if err := os.MkdirAll(tempDir, 0o755); err != nil {
		return Failure, fmt.Errorf("create temp directory: %w", err)
	}

	consumed := make(map[int]struct{}, len(alb.Tracks))
	for index, track := range alb.Tracks {
		wavPath, ok := alb.WavFiles[track.TrackNum]
		if _, used := consumed[track.TrackNum]; used {
			ok = false
		}
		if !ok {
			if _, isData := dataTrackTitles[track.Title]; isData {
				e.logger.Debug("skipping data track",
					logging.String("album", alb.Name()),
					logging.Int("track", track.TrackNum),
				)
				continue
			}
			return Failure, services.Wrap(services.ErrNotFound, "encode", "resolve track",
				fmt.Sprintf("track number %d was not found or has already been used", track.TrackNum), nil)
		}
		consumed[track.TrackNum] = struct{}{}

		if err := e.encodeTrack(ctx, alb, track, wavPath, tempDir); err != nil {
			return Failure, err
		}
		e.logger.Info("track encoded",
			logging.String("album", alb.Name()),
			logging.Int("track", track.TrackNum),
			logging.String("title", track.Title),
			logging.Int("position", index+1),
			logging.Int("total", len(alb.Tracks)),
		)
	}

	if unprocessed := unconsumedWavs(alb.WavFiles, consumed); len(unprocessed) > 0 {
		return Failure, services.Wrap(services.ErrValidation, "encode", "reconcile tracks",
			fmt.Sprintf("the following wav files were not processed: %s", strings.Join(unprocessed, ", ")), nil)
	}

	if alb.CoverPath != "" {
		if err := copyCover(alb.CoverPath, tempDir); err != nil {
			return Failure, fmt.Errorf("copy album art: %w", err)
		}
	}

	if err := os.Rename(tempDir, outputDir); err != nil {
		return Failure, fmt.Errorf("commit encoded directory: %w", err)
	}
	return Success, nil
}

func (e *Encoder) encodeTrack(ctx context.Context, alb *album.Album, track album.TrackRecord, wavPath, tempDir string) error {
	tempOutput := filepath.Join(tempDir, "temp_"+strconv.Itoa(track.TrackNum))
	if err := os.Remove(tempOutput); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("clear stale track output: %w", err)
	}

	req := flac.EncodeRequest{
		InputPath:        wavPath,
		OutputPath:       tempOutput,
		PicturePath:      alb.CoverPath,
		CompressionLevel: e.cfg.Encoder.CompressionLevel,
		Verify:           e.cfg.Encoder.Verify,
		Tags: []flac.Tag{
			{Name: "ARTIST", Value: track.Artist},
			{Name: "TITLE", Value: track.Title},
			{Name: "ALBUM", Value: track.AlbumTitle},
			{Name: "DATE", Value: strconv.Itoa(track.Year)},
			{Name: "TRACKNUMBER", Value: strconv.Itoa(track.TrackNum)},
			{Name: "GENRE", Value: track.Genre},
			{Name: "COMMENT", Value: track.Comment},
			{Name: "BAND", Value: track.AlbumInterpret},
			{Name: "ALBUMARTIST", Value: track.AlbumInterpret},
			{Name: "COMPOSER", Value: track.Composer},
			{Name: "TOTALTRACKS", Value: strconv.Itoa(track.NumTracks)},
		},
		OnOutput: func(line string) {
			e.logger.Debug("flac output", logging.String("line", line))
		},
	}
	if err := e.client.Encode(ctx, req); err != nil {
		return err
	}

	finalName := fileutil.ReplaceExt(filepath.Base(wavPath), ".flac")
	if err := os.Rename(tempOutput, filepath.Join(tempDir, finalName)); err != nil {
		return fmt.Errorf("rename encoded track: %w", err)
	}
	return nil
}

func unconsumedWavs(wavFiles map[int]string, consumed map[int]struct{}) []string {
	var names []string
	for trackNum, path := range wavFiles {
		if _, ok := consumed[trackNum]; !ok {
			names = append(names, fmt.Sprintf("%q", filepath.Base(path)))
		}
	}
	sort.Strings(names)
	return names
}

func copyCover(coverPath, tempDir string) error {
	tempCover := filepath.Join(tempDir, coverTempName)
	if err := os.Remove(tempCover); err != nil && !os.IsNotExist(err) {
		return err
	}
	if err := fileutil.CopyFile(coverPath, tempCover); err != nil {
		return err
	}
	return os.Rename(tempCover, filepath.Join(tempDir, filepath.Base(coverPath)))
}
