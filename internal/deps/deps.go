package deps

import (
	"fmt"
	"os/exec"
	"strings"
)

// Binary describes an external tool the pipeline shells out to.
type Binary struct {
	Name        string
	Command     string
	Description string
}

// Status is the resolved availability of one binary. Detail carries the
// resolved path on success and the failure reason otherwise.
type Status struct {
	Binary
	Available bool
	Detail    string
}

// CheckBinaries resolves each binary through PATH.
func CheckBinaries(binaries []Binary) []Status {
	results := make([]Status, 0, len(binaries))
	for _, bin := range binaries {
		bin.Command = strings.TrimSpace(bin.Command)
		status := Status{Binary: bin}
		if bin.Command == "" {
			status.Detail = "no command configured"
			results = append(results, status)
			continue
		}
		resolved, err := exec.LookPath(bin.Command)
		if err != nil {
			status.Detail = fmt.Sprintf("%q not found on PATH", bin.Command)
		} else {
			status.Available = true
			status.Detail = resolved
		}
		results = append(results, status)
	}
	return results
}
