package stage

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"flacpress/internal/album"
	"flacpress/internal/logging"
	"flacpress/internal/services/sevenzip"
)

// archiveExt is the extension of a committed archive.
const archiveExt = ".7z"

// archiveTempSuffix marks an in-progress archive file.
const archiveTempSuffix = ".7z_temp"

// Archiver compresses an album's original source directory into a single
// integrity-tested archive.
type Archiver struct {
	client sevenzip.Client
	logger *slog.Logger
}

// NewArchiver constructs the archive stage.
func NewArchiver(client sevenzip.Client, logger *slog.Logger) *Archiver {
	return &Archiver{
		client: client,
		logger: logging.NewComponentLogger(logger, "archive"),
	}
}

// Run archives alb's source directory to outputDir/outputName.7z. If the
// committed archive already exists nothing is touched. The archive is
// written to a temp name, integrity-tested, and renamed into place as the
// single commit point.
func (a *Archiver) Run(ctx context.Context, alb *album.Album, outputDir, outputName string) (Result, error) {
	finalPath := filepath.Join(outputDir, outputName+archiveExt)
	if info, err := os.Stat(finalPath); err == nil && info.Mode().IsRegular() {
		a.logger.Info("already archived", logging.String("album", alb.Name()))
		return Skipped, nil
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return Failure, fmt.Errorf("create archive directory: %w", err)
	}

	tempPath := filepath.Join(outputDir, outputName+archiveTempSuffix)
	if err := os.Remove(tempPath); err != nil && !os.IsNotExist(err) {
		return Failure, fmt.Errorf("clear stale temp archive: %w", err)
	}

	onOutput := func(line string) {
		a.logger.Debug("7z output", logging.String("line", line))
	}

	if err := a.client.Create(ctx, tempPath, alb.SourceDir, onOutput); err != nil {
		return Failure, err
	}
	if err := a.client.Test(ctx, tempPath, onOutput); err != nil {
		return Failure, err
	}

	if err := os.Rename(tempPath, finalPath); err != nil {
		return Failure, fmt.Errorf("commit archive: %w", err)
	}
	return Success, nil
}
