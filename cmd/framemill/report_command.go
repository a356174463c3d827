package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"framemill/internal/journal"
)

func newReportCommand(ctx *commandContext) *cobra.Command {
	var listRuns int

	cmd := &cobra.Command{
		Use:   "report [run-id]",
		Short: "Show the outcome of a recorded run",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := journal.Open(cfg)
			if err != nil {
				return fmt.Errorf("open journal: %w", err)
			}
			defer store.Close()

			if listRuns > 0 {
				return reportRunList(cmd.Context(), store, listRuns, cmd.OutOrStdout())
			}

			runID := ""
			if len(args) == 1 {
				runID = strings.TrimSpace(args[0])
			}
			return reportRun(cmd.Context(), store, runID, cmd.OutOrStdout())
		},
	}

	cmd.Flags().IntVar(&listRuns, "runs", 0, "List the most recent N runs instead of one run's details")
	return cmd
}

func reportRunList(ctx context.Context, store *journal.Store, limit int, out io.Writer) error {
	runs, err := store.ListRuns(ctx, limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(out, "No recorded runs.")
		return nil
	}

	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		status := "running"
		switch {
		case run.Finished() && run.Error != "":
			status = "failed"
		case run.Finished():
			status = "done"
		}
		rows = append(rows, []string{
			run.ID,
			run.Tenant + "/" + run.Video,
			run.StartedAt.Local().Format(time.RFC3339),
			status,
			fmt.Sprintf("%d", run.TotalFrames),
			fmt.Sprintf("%d/%d", run.ChunksCompleted, run.ChunksSubmitted),
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Run", "Video", "Started", "Status", "Frames", "Chunks"},
		rows, 4, 5))
	return nil
}

func reportRun(ctx context.Context, store *journal.Store, runID string, out io.Writer) error {
	var (
		run *journal.Run
		err error
	)
	if runID == "" {
		run, err = store.LatestRun(ctx)
	} else {
		run, err = store.GetRun(ctx, runID)
	}
	if err != nil {
		return err
	}
	if run == nil {
		if runID == "" {
			fmt.Fprintln(out, "No recorded runs.")
			return nil
		}
		return fmt.Errorf("run %s not found", runID)
	}

	printLines(out, renderRunOverview(run))

	histogram, err := store.LabelHistogram(ctx, run.ID)
	if err != nil {
		return err
	}
	if len(histogram) > 0 {
		printLines(out, renderHistogram(histogram))
	}

	outcomes, err := store.ChunkOutcomes(ctx, run.ID)
	if err != nil {
		return err
	}
	if len(outcomes) > 0 {
		printLines(out, renderChunkOutcomes(outcomes))
	}
	return nil
}

func renderRunOverview(run *journal.Run) string {
	finished := "still running"
	if run.Finished() {
		finished = run.FinishedAt.Local().Format(time.RFC3339)
	}
	status := "ok"
	if run.Error != "" {
		status = run.Error
	}
	rows := [][]string{
		{"Run", run.ID},
		{"Tenant / video", run.Tenant + " / " + run.Video},
		{"Input", run.InputPath},
		{"Started", run.StartedAt.Local().Format(time.RFC3339)},
		{"Finished", finished},
		{"Status", status},
		{"Frames produced", fmt.Sprintf("%d", run.TotalFrames)},
		{"Pairs inferred", fmt.Sprintf("%d", run.TotalPairs)},
		{"Chunks completed", fmt.Sprintf("%d/%d", run.ChunksCompleted, run.ChunksSubmitted)},
		{"Chunks failed", fmt.Sprintf("%d", run.ChunksFailed)},
		{"Production rate", formatRate(run.ProductionRate, "frames/s")},
		{"Inference rate", formatRate(run.InferenceRate, "pairs/s")},
		{"Encode rate", formatRate(run.EncodeRate, "chunks/s")},
		{"Encoding bottleneck", yesNo(run.EncodingBottleneck)},
	}
	return renderTable([]string{"Field", "Value"}, rows)
}

func renderChunkOutcomes(outcomes []journal.ChunkRecord) string {
	rows := make([][]string, 0, len(outcomes))
	for _, rec := range outcomes {
		status := "ok"
		if rec.Error != "" {
			status = rec.Error
		}
		rows = append(rows, []string{
			fmt.Sprintf("modulo_%d", rec.ModuloLevel),
			fmt.Sprintf("%d", rec.StartFrame),
			formatWall(rec.EncodeTime),
			status,
		})
	}
	return renderTable([]string{"Level", "Start", "Encode", "Status"}, rows, 1, 2)
}
