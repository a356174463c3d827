package deps

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// CheckFFmpeg reports the FFmpeg binary a stage will execute. Configured
// values containing a path separator are treated as explicit paths and
// checked for an executable file; bare names resolve through PATH.
func CheckFFmpeg(name, description, configured string) Status {
	binary := strings.TrimSpace(configured)
	if binary == "" {
		binary = "ffmpeg"
	}
	status := Status{Binary: Binary{Name: name, Command: binary, Description: description}}

	if strings.ContainsRune(binary, os.PathSeparator) {
		info, err := os.Stat(binary)
		if err != nil || !isExecutable(info) {
			status.Detail = fmt.Sprintf("%q is not an executable file", binary)
			return status
		}
		status.Available = true
		status.Detail = binary
		return status
	}

	if resolved, err := exec.LookPath(binary); err == nil {
		status.Command = resolved
		status.Available = true
		status.Detail = resolved
		return status
	}

	status.Detail = fmt.Sprintf("%q not found on PATH", binary)
	return status
}

func isExecutable(info os.FileInfo) bool {
	if info == nil || info.IsDir() {
		return false
	}
	return info.Mode().Perm()&0o111 != 0
}
