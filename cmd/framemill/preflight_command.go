package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"framemill/internal/preflight"
)

func newPreflightCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "preflight",
		Short: "Check host readiness for pipeline runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			results := preflight.RunAll(cmd.Context(), cfg)
			fmt.Fprintln(cmd.OutOrStdout(), renderPreflight(results))
			if !preflight.Passed(results) {
				return fmt.Errorf("preflight checks failed")
			}
			return nil
		},
	}
}
