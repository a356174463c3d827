package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("output missing %q:\n%s", needle, haystack)
	}
}

func TestConfigInitAndValidate(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	out, err := runCLI(t, "config", "validate")
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration OK")
	requireContains(t, out, "Frames per chunk")

	target := filepath.Join(t.TempDir(), "config.toml")
	out, err = runCLI(t, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Sample config written")

	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, err := runCLI(t, "config", "init", "--path", target); err == nil {
		t.Fatal("expected second init without --overwrite to fail")
	}
	if _, err := runCLI(t, "config", "init", "--path", target, "--overwrite"); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}
}

func TestReportWithEmptyJournal(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	out, err := runCLI(t, "report")
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	requireContains(t, out, "No recorded runs.")

	if _, err := runCLI(t, "report", "no-such-run"); err == nil {
		t.Fatal("expected error for unknown run id")
	}
}

func TestPreflightFailsWithoutBinaries(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("PATH", "")

	out, err := runCLI(t, "preflight")
	if err == nil {
		t.Fatal("expected preflight to fail with empty PATH")
	}
	requireContains(t, out, "FAIL")
}

func TestRunRequiresInputArgument(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	if _, err := runCLI(t, "run"); err == nil {
		t.Fatal("expected run without input to fail")
	}
}

func TestExitCodes(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	if code := run([]string{"config", "validate"}); code != 0 {
		t.Fatalf("config validate exit code = %d, want 0", code)
	}
	if code := run([]string{"no-such-command"}); code != 1 {
		t.Fatalf("unknown command exit code = %d, want 1", code)
	}
}

func TestRenderTablePadsShortRows(t *testing.T) {
	out := renderTable([]string{"Name", "Count"}, [][]string{{"only-name"}}, 1)
	requireContains(t, out, "only-name")
	if renderTable(nil, nil) != "" {
		t.Fatal("headerless table should render nothing")
	}
}
