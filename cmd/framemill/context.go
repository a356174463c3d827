package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"framemill/internal/config"
	"framemill/internal/logging"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// buildLogger constructs the run logger writing to stderr and a timestamped
// file under the log directory. Console output is demoted to JSON when
// stderr is not a terminal, so piped logs stay machine-readable.
func buildLogger(cfg *config.Config) (*slog.Logger, string, error) {
	logPath := filepath.Join(cfg.Paths.LogDir,
		fmt.Sprintf("framemill-%s.log", time.Now().UTC().Format("20060102T150405Z")))

	format := cfg.Logging.Format
	if format == "console" && !stderrIsTerminal() {
		format = "json"
	}

	logger, err := logging.New(logging.Options{
		Level:       cfg.Logging.Level,
		Format:      format,
		OutputPaths: []string{"stderr", logPath},
	})
	if err != nil {
		return nil, "", fmt.Errorf("init logger: %w", err)
	}
	return logger, logPath, nil
}

func stderrIsTerminal() bool {
	fd := os.Stderr.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}

func printLines(w io.Writer, lines ...string) {
	for _, line := range lines {
		fmt.Fprintln(w, line)
	}
}
