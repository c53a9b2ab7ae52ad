package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"flacpress/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent conversion runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			store, err := history.Open(cfg.Paths.HistoryDB)
			if err != nil {
				return fmt.Errorf("open history store: %w", err)
			}
			defer store.Close()

			runs, err := store.RecentRuns(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("load run history: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs recorded yet")
				return nil
			}

			rows := make([][]string, 0, len(runs))
			for _, run := range runs {
				succeeded := 0
				for _, alb := range run.Albums {
					if alb.EncodeResult != "failure" && alb.ArchiveResult != "failure" && alb.ArchiveResult != "gated" {
						succeeded++
					}
				}
				mode := "multi"
				if run.SingleAlbum {
					mode = "single"
				}
				rows = append(rows, []string{
					run.StartedAt.Local().Format(time.DateTime),
					run.InputDir,
					mode,
					strconv.Itoa(len(run.Albums)),
					fmt.Sprintf("%d/%d", succeeded, len(run.Albums)),
					run.ID,
				})
			}
			fmt.Fprintln(out, renderTable([]string{"Started", "Input", "Mode", "Albums", "Succeeded", "Run ID"}, rows))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Maximum number of runs to show")
	return cmd
}
