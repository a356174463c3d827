package preflight

import (
	"context"

	"framemill/internal/config"
	"framemill/internal/deps"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// Passed reports whether every result passed.
func Passed(results []Result) bool {
	for _, r := range results {
		if !r.Passed {
			return false
		}
	}
	return true
}

// RunAll executes all preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	results = append(results, CheckDirectoryAccess("Staging directory", cfg.Paths.StagingDir))
	results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))
	results = append(results, CheckFreeSpace("Staging free space", cfg.Paths.StagingDir, cfg.Encoding.MinFreeGiB))

	binaries := deps.CheckBinaries([]deps.Binary{
		{
			Name:        "Predictor",
			Command:     cfg.Predictor.Command,
			Description: "pair inference worker",
		},
	})
	binaries = append(binaries,
		deps.CheckFFmpeg("FFmpeg (extract)", "frame extraction", cfg.ExtractionFFmpegBinary()),
		deps.CheckFFmpeg("FFmpeg (encode)", "chunk encoding", cfg.EncodingFFmpegBinary()),
	)
	for _, status := range binaries {
		results = append(results, Result{
			Name:   status.Name,
			Passed: status.Available,
			Detail: status.Detail,
		})
	}

	return results
}
