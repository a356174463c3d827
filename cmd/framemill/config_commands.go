package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"framemill/internal/config"
)

func newConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and bootstrap framemill configuration",
	}
	cmd.AddCommand(newConfigInitCommand(), newConfigValidateCommand())
	return cmd
}

// resolveConfigTarget expands an explicit destination or falls back to the
// default config path.
func resolveConfigTarget(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return config.DefaultConfigPath()
	}
	return config.ExpandPath(raw)
}

func newConfigInitCommand() *cobra.Command {
	var (
		targetPath string
		overwrite  bool
	)

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Write a starter config with the pipeline defaults",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := resolveConfigTarget(targetPath)
			if err != nil {
				return fmt.Errorf("resolve config destination: %w", err)
			}
			if !overwrite {
				if _, err := os.Stat(target); err == nil {
					return fmt.Errorf("%s already exists; pass --overwrite to replace it", target)
				} else if !os.IsNotExist(err) {
					return fmt.Errorf("inspect %s: %w", target, err)
				}
			}
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return fmt.Errorf("create config directory: %w", err)
			}
			if err := config.CreateSample(target); err != nil {
				return fmt.Errorf("write sample config: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Sample config written to %s\n", target)
			fmt.Fprintln(out, "Point predictor.command at your inference worker before the first run.")
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Destination for the config file")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace an existing config file")
	return cmd
}

func newConfigValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "validate",
		Short:       "Check the config and show the resolved pipeline settings",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, path, exists, err := config.Load("")
			if err != nil {
				return err
			}
			if err := cfg.EnsureDirectories(); err != nil {
				return fmt.Errorf("ensure directories: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Config path: %s\n", path)
			if !exists {
				fmt.Fprintln(out, "No config file found; built-in defaults are in effect")
			}
			rows := [][]string{
				{"Staging dir", cfg.Paths.StagingDir},
				{"Output rate", fmt.Sprintf("%g fps", cfg.Pipeline.OutputRateFPS)},
				{"Frames per chunk", fmt.Sprintf("%d", cfg.Pipeline.FramesPerChunk)},
				{"Inference batch", fmt.Sprintf("%d directed pairs", cfg.Pipeline.InferenceBatchSize)},
				{"Encode workers", fmt.Sprintf("%d", cfg.Pipeline.EncodeWorkers)},
				{"Chunk format", cfg.Encoding.Format},
			}
			fmt.Fprintln(out, renderTable([]string{"Setting", "Value"}, rows))
			fmt.Fprintln(out, "Configuration OK")
			return nil
		},
	}
}
