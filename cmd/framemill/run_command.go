package main

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"framemill/internal/config"
	"framemill/internal/encoder"
	"framemill/internal/framestore"
	"framemill/internal/journal"
	"framemill/internal/logging"
	"framemill/internal/pipeline"
	"framemill/internal/predictor"
	"framemill/internal/preflight"
	"framemill/internal/producer"
	"framemill/internal/textutil"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var tenant string
	var video string
	var skipPreflight bool

	cmd := &cobra.Command{
		Use:   "run <input>",
		Short: "Process a video into inferred, encoded modulo chunks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return runPipeline(cmd.Context(), cfg, runOptions{
				inputPath:     args[0],
				tenant:        tenant,
				video:         video,
				skipPreflight: skipPreflight,
			}, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&tenant, "tenant", "default", "Tenant segment of the chunk storage key")
	cmd.Flags().StringVar(&video, "video", "", "Video identifier (defaults to the input file base name)")
	cmd.Flags().BoolVar(&skipPreflight, "skip-preflight", false, "Skip readiness checks before the run")
	return cmd
}

type runOptions struct {
	inputPath     string
	tenant        string
	video         string
	skipPreflight bool
}

func runPipeline(cmdCtx context.Context, cfg *config.Config, opts runOptions, out io.Writer) error {
	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	video := strings.TrimSpace(opts.video)
	if video == "" {
		base := filepath.Base(opts.inputPath)
		video = strings.TrimSuffix(base, filepath.Ext(base))
	}
	video = textutil.SanitizeToken(video)
	tenant := textutil.SanitizeToken(opts.tenant)

	if !opts.skipPreflight {
		results := preflight.RunAll(signalCtx, cfg)
		if !preflight.Passed(results) {
			fmt.Fprintln(out, renderPreflight(results))
			return fmt.Errorf("preflight checks failed")
		}
	}

	// One run per host at a time; concurrent runs would fight over the
	// staging directory.
	lock := flock.New(filepath.Join(cfg.Paths.LogDir, "framemill.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire run lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("another run is already in progress (lock %s)", lock.Path())
	}
	defer func() { _ = lock.Unlock() }()

	logger, logPath, err := buildLogger(cfg)
	if err != nil {
		return err
	}

	runID := uuid.NewString()
	runDir := filepath.Join(cfg.Paths.StagingDir, "runs", runID)

	store, err := journal.Open(cfg)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer store.Close()
	if err := store.StartRun(signalCtx, runID, tenant, video, opts.inputPath); err != nil {
		return fmt.Errorf("record run start: %w", err)
	}

	frames, err := framestore.New(filepath.Join(runDir, "frames"), cfg.Extraction.FrameFormat)
	if err != nil {
		return fmt.Errorf("init frame store: %w", err)
	}

	prod := producer.NewFFmpeg(producer.FFmpegOptions{
		Binary:      cfg.ExtractionFFmpegBinary(),
		InputPath:   opts.inputPath,
		Crop:        cfg.Extraction.Crop,
		RateFPS:     cfg.Pipeline.OutputRateFPS,
		WorkDir:     filepath.Join(runDir, "extract"),
		FrameFormat: cfg.Extraction.FrameFormat,
	})

	pred := predictor.NewSubprocess(cfg.Predictor.Command, cfg.Predictor.Args...)
	defer func() { _ = pred.Close() }()

	driver, err := pipeline.New(pipeline.Deps{
		Config:    cfg,
		Logger:    logger,
		Producer:  prod,
		Predictor: pred,
		Frames:    frames,
		Backend:   encoder.NewFFmpeg(encoder.WithBinary(cfg.EncodingFFmpegBinary())),
		Journal:   store,
		RunID:     runID,
		Tenant:    tenant,
		Video:     video,
	})
	if err != nil {
		return err
	}

	logger.Info("run accepted", logging.Args(
		logging.String("run_id", runID),
		logging.String("input", opts.inputPath),
		logging.String("log_file", logPath),
	)...)

	summary, runErr := driver.Run(signalCtx)
	if summary != nil {
		fmt.Fprintln(out, renderSummary(summary))
	}
	return runErr
}
