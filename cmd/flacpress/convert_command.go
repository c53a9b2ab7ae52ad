package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"flacpress/internal/batch"
	"flacpress/internal/config"
	"flacpress/internal/history"
	"flacpress/internal/logging"
	"flacpress/internal/services/flac"
	"flacpress/internal/services/sevenzip"
	"flacpress/internal/stage"
)

func newConvertCommand(ctx *commandContext) *cobra.Command {
	var verbose bool
	var debug bool

	cmd := &cobra.Command{
		Use:   "convert INPUT_DIR ARCHIVE_DIR FLAC_DIR",
		Short: "Encode ripped albums to FLAC and archive the originals",
		Long: `Convert processes every ripped album directory under INPUT_DIR: each track
is encoded to a tagged FLAC file under FLAC_DIR and the untouched source
directory is compressed to an integrity-tested 7z archive under ARCHIVE_DIR.
When INPUT_DIR has no subdirectories it is treated as a single album.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			inputDir, err := config.ExpandPath(args[0])
			if err != nil {
				return fmt.Errorf("resolve input directory: %w", err)
			}
			archiveDir, err := config.ExpandPath(args[1])
			if err != nil {
				return fmt.Errorf("resolve archive directory: %w", err)
			}
			flacDir, err := config.ExpandPath(args[2])
			if err != nil {
				return fmt.Errorf("resolve flac directory: %w", err)
			}

			level := cfg.Logging.Level
			if verbose {
				level = "info"
			}
			if debug {
				level = "debug"
			}
			logger, err := logging.New(logging.Options{
				Level:  level,
				Format: cfg.Logging.Format,
				OutputPaths: []string{
					"stderr",
					filepath.Join(cfg.Paths.LogDir, "flacpress.log"),
				},
			})
			if err != nil {
				return fmt.Errorf("configure logging: %w", err)
			}

			encoder := stage.NewEncoder(cfg, flac.NewCLI(flac.WithBinary(cfg.Tools.FlacBinary)), logger)
			archiver := stage.NewArchiver(sevenzip.NewCLI(
				sevenzip.WithBinary(cfg.Tools.SevenZipBinary),
				sevenzip.WithCompressionLevel(cfg.Archiver.CompressionLevel),
				sevenzip.WithSolid(cfg.Archiver.Solid),
			), logger)

			store, err := history.Open(cfg.Paths.HistoryDB)
			if err != nil {
				logger.Warn("history store unavailable", logging.Error(err))
				store = nil
			} else {
				defer store.Close()
			}

			runner := batch.NewRunner(cfg, logger, encoder, archiver, store)
			summary, err := runner.Run(cmd.Context(), batch.Options{
				InputDir:   inputDir,
				ArchiveDir: archiveDir,
				FlacDir:    flacDir,
			})
			if summary != nil {
				printSummary(cmd, summary)
			}
			return err
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Log per-track progress")
	cmd.Flags().BoolVar(&debug, "debug", false, "Log external tool output")
	return cmd
}

func printSummary(cmd *cobra.Command, summary *batch.Summary) {
	out := cmd.OutOrStdout()

	rows := make([][]string, 0, len(summary.Outcomes))
	for _, outcome := range summary.Outcomes {
		archive := outcome.Archive.String()
		if outcome.ArchiveGated {
			archive = "gated"
		}
		detail := ""
		if outcome.Err != nil {
			detail = outcome.Err.Error()
		}
		rows = append(rows, []string{
			outcome.Name,
			outcome.Encode.String(),
			archive,
			detail,
		})
	}
	if len(rows) > 0 {
		fmt.Fprintln(out, renderTable([]string{"Album", "Encode", "Archive", "Detail"}, rows))
	}

	for _, dir := range summary.Rejected {
		fmt.Fprintf(out, "Skipped %s: not a valid album directory\n", dir)
	}
	if len(summary.Outcomes) == 0 && len(summary.Rejected) == 0 {
		fmt.Fprintln(out, "No album directories found")
	}
}
