// Package ffmpeg locates the FFmpeg binary used for media preparation.
package ffmpeg

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strconv"
)

// Environment variable for a custom ffmpeg path.
const EnvFFmpegPath = "FFMPEG_PATH"

// minMajorVersion is the minimum supported ffmpeg version. Older releases
// lack filters the preparation chain relies on (dynaudnorm, acompressor).
const minMajorVersion = 4

// Resolve returns the path to an ffmpeg binary.
// Precedence: FFMPEG_PATH environment variable, then PATH lookup.
func Resolve(_ context.Context) (string, error) {
	if custom := os.Getenv(EnvFFmpegPath); custom != "" {
		if _, err := os.Stat(custom); err != nil {
			return "", fmt.Errorf("%w: %s=%q: %v", ErrNotFound, EnvFFmpegPath, custom, err)
		}
		return custom, nil
	}

	path, err := exec.LookPath("ffmpeg")
	if err != nil {
		return "", fmt.Errorf("%w: install ffmpeg or set %s", ErrNotFound, EnvFFmpegPath)
	}
	return path, nil
}

// versionRe extracts the major version from "ffmpeg version N.x ...".
var versionRe = regexp.MustCompile(`ffmpeg version (\d+)\.`)

// CheckVersion warns on stderr when the resolved binary is older than the
// minimum supported version. Best-effort: failures to probe are ignored.
func CheckVersion(ctx context.Context, ffmpegPath string) {
	// #nosec G204 -- ffmpegPath comes from Resolve, not user input
	output, err := exec.CommandContext(ctx, ffmpegPath, "-version").CombinedOutput()
	if err != nil {
		return
	}

	matches := versionRe.FindSubmatch(output)
	if matches == nil {
		return
	}
	major, err := strconv.Atoi(string(matches[1]))
	if err != nil {
		return
	}
	if major < minMajorVersion {
		fmt.Fprintf(os.Stderr, "Warning: ffmpeg version %d is older than the supported minimum (%d)\n",
			major, minMajorVersion)
	}
}
