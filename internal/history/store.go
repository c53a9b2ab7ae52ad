// Package history persists a ledger of completed conversion runs backed by
// SQLite, so past batches can be reviewed from the CLI.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Store manages run-history persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the history database and applies
// migrations. The parent directory is created if needed.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure history directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.applyMigrations(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// AlbumRecord captures the outcome of one album within a run.
type AlbumRecord struct {
	Name          string
	SourcePath    string
	EncodeResult  string
	ArchiveResult string
}

// Run is one complete invocation of the converter over an input directory.
type Run struct {
	ID          string
	InputDir    string
	SingleAlbum bool
	StartedAt   time.Time
	FinishedAt  time.Time
	Albums      []AlbumRecord
}

// RecordRun stores a finished run and its per-album outcomes in a single
// transaction.
func (s *Store) RecordRun(ctx context.Context, run Run) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin run tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	_, err = tx.ExecContext(
		ctx,
		`INSERT INTO runs (id, input_dir, single_album, started_at, finished_at)
         VALUES (?, ?, ?, ?, ?)`,
		run.ID,
		run.InputDir,
		boolToInt(run.SingleAlbum),
		run.StartedAt.UTC().Format(time.RFC3339Nano),
		run.FinishedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for _, alb := range run.Albums {
		_, err = tx.ExecContext(
			ctx,
			`INSERT INTO run_albums (run_id, name, source_path, encode_result, archive_result)
             VALUES (?, ?, ?, ?, ?)`,
			run.ID,
			alb.Name,
			alb.SourcePath,
			alb.EncodeResult,
			alb.ArchiveResult,
		)
		if err != nil {
			return fmt.Errorf("insert run album: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit run: %w", err)
	}
	return nil
}

// RecentRuns returns up to limit runs, most recent first, each with its
// album outcomes.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, input_dir, single_album, started_at, finished_at
         FROM runs ORDER BY started_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			run         Run
			singleAlbum int
			startedAt   string
			finishedAt  string
		)
		if err := rows.Scan(&run.ID, &run.InputDir, &singleAlbum, &startedAt, &finishedAt); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.SingleAlbum = singleAlbum != 0
		if run.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt); err != nil {
			return nil, fmt.Errorf("parse started_at: %w", err)
		}
		if run.FinishedAt, err = time.Parse(time.RFC3339Nano, finishedAt); err != nil {
			return nil, fmt.Errorf("parse finished_at: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}

	for i := range runs {
		albums, err := s.runAlbums(ctx, runs[i].ID)
		if err != nil {
			return nil, err
		}
		runs[i].Albums = albums
	}
	return runs, nil
}

func (s *Store) runAlbums(ctx context.Context, runID string) ([]AlbumRecord, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT name, source_path, encode_result, archive_result
         FROM run_albums WHERE run_id = ? ORDER BY id`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("query run albums: %w", err)
	}
	defer rows.Close()

	var albums []AlbumRecord
	for rows.Next() {
		var alb AlbumRecord
		if err := rows.Scan(&alb.Name, &alb.SourcePath, &alb.EncodeResult, &alb.ArchiveResult); err != nil {
			return nil, fmt.Errorf("scan run album: %w", err)
		}
		albums = append(albums, alb)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run albums: %w", err)
	}
	return albums, nil
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
