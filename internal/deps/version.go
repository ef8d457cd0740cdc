package deps

import (
	"context"
	"os/exec"
	"strings"
	"time"
)

// toolVersion asks an ffmpeg-family binary for its version banner and
// returns the first line, e.g. "ffmpeg version 7.1". Best effort: an empty
// string means the banner could not be read, not that the tool is broken.
func toolVersion(binary string) string {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	out, err := exec.CommandContext(ctx, binary, "-version").Output()
	if err != nil {
		return ""
	}
	line, _, _ := strings.Cut(string(out), "\n")
	return strings.TrimSpace(line)
}
