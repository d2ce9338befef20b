// Package audio prepares media for transcription: it normalizes any
// supported input into a 16 kHz mono waveform, probes its duration, and
// extracts per-window slices, including the enhanced pre-processing chain
// applied to a strong-head plan's opening window.
package audio

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"time"

	"github.com/valentin-gosselin/whisper-studio/internal/ffmpeg"
	"github.com/valentin-gosselin/whisper-studio/internal/plan"
)

// TempPrefix names the temp directories the preparer creates; the
// housekeeping sweeper only ever touches entries carrying it.
const TempPrefix = "whisper-studio-"

// Waveform parameters expected by speech backends.
const (
	sampleRate = 16000
	channels   = 1
)

// enhanceFilter is the pre-processing chain for a strong-head opening
// window: 1.5s of lead-in padding so the decoder warms up before speech,
// a treble boost for consonant clarity, and dynamic-range compression to
// lift quiet openings.
const enhanceFilter = "adelay=1500:all=1,treble=g=3,acompressor=threshold=-18dB:ratio=3:attack=20:release=250"

// Prepared is a normalized waveform ready for window extraction.
type Prepared struct {
	Path       string        // 16 kHz mono WAV
	Duration   time.Duration // total media duration
	SampleRate int

	dir string // temp directory holding the WAV and window files
}

// Preparer converts input media into transcription-ready waveforms using
// FFmpeg.
type Preparer struct {
	ffmpegPath string

	// Injectable dependencies (defaults to OS implementations).
	cmd     commandRunner
	tempDir tempDirCreator
	files   fileRemover
	statter fileStatter
}

// PreparerOption configures a Preparer.
type PreparerOption func(*Preparer)

// WithCommandRunner sets the command runner.
func WithCommandRunner(r commandRunner) PreparerOption {
	return func(p *Preparer) {
		p.cmd = r
	}
}

// WithTempDirCreator sets the temp directory creator.
func WithTempDirCreator(t tempDirCreator) PreparerOption {
	return func(p *Preparer) {
		p.tempDir = t
	}
}

// WithFileRemover sets the file remover.
func WithFileRemover(f fileRemover) PreparerOption {
	return func(p *Preparer) {
		p.files = f
	}
}

// WithFileStatter sets the file statter.
func WithFileStatter(s fileStatter) PreparerOption {
	return func(p *Preparer) {
		p.statter = s
	}
}

// NewPreparer creates a Preparer bound to an ffmpeg binary.
func NewPreparer(ffmpegPath string, opts ...PreparerOption) (*Preparer, error) {
	if ffmpegPath == "" {
		return nil, fmt.Errorf("ffmpegPath cannot be empty: %w", ffmpeg.ErrNotFound)
	}

	p := &Preparer{
		ffmpegPath: ffmpegPath,
		cmd:        osCommandRunner{},
		tempDir:    osTempDirCreator{},
		files:      osFileRemover{},
		statter:    osFileStatter{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Prepare normalizes inputPath into a mono 16 kHz WAV and probes its
// duration. Video inputs go through audio extraction; audio inputs are
// converted in place. The jobID names the temp directory so concurrent
// jobs never collide.
func (p *Preparer) Prepare(ctx context.Context, inputPath, jobID string) (Prepared, error) {
	if _, err := p.statter.Stat(inputPath); err != nil {
		return Prepared{}, fmt.Errorf("%w: %v", ErrFileNotFound, err)
	}
	if !IsSupported(inputPath) {
		return Prepared{}, fmt.Errorf("%w: %q (supported: %s)",
			ErrUnsupportedFormat, filepath.Ext(inputPath), SupportedFormats())
	}

	dir, err := p.tempDir.MkdirTemp("", TempPrefix+jobID+"-*")
	if err != nil {
		return Prepared{}, fmt.Errorf("failed to create temp directory: %w", err)
	}

	wavPath := filepath.Join(dir, "source.wav")
	args := []string{"-i", inputPath}
	if IsVideoFile(inputPath) {
		// Timestamp flags keep extraction aligned for segmentation.
		args = append(args,
			"-vn",
			"-fflags", "+genpts",
			"-copyts",
			"-start_at_zero",
			"-avoid_negative_ts", "make_zero",
		)
	}
	args = append(args,
		"-acodec", "pcm_s16le",
		"-ac", strconv.Itoa(channels),
		"-ar", strconv.Itoa(sampleRate),
		"-af", "dynaudnorm",
		"-y",
		wavPath,
	)

	output, err := p.cmd.CombinedOutput(ctx, p.ffmpegPath, args)
	if err != nil {
		_ = p.files.RemoveAll(dir) // best-effort cleanup; original error takes precedence
		return Prepared{}, fmt.Errorf("%w: %v\nOutput: %s", ErrExtractionFailed, err, string(output))
	}

	duration, err := p.probeDuration(ctx, wavPath)
	if err != nil {
		_ = p.files.RemoveAll(dir)
		return Prepared{}, fmt.Errorf("failed to probe duration: %w", err)
	}

	return Prepared{
		Path:       wavPath,
		Duration:   duration,
		SampleRate: sampleRate,
		dir:        dir,
	}, nil
}

// ExtractWindow cuts one window from the prepared waveform into its own
// file. When enhanced is true the strong-head pre-processing chain is
// applied to the extracted audio; the window's recorded bounds are
// unaffected.
func (p *Preparer) ExtractWindow(ctx context.Context, src Prepared, w plan.Window, enhanced bool) (string, error) {
	windowPath := filepath.Join(src.dir, fmt.Sprintf("window_%03d.wav", w.Index))

	args := []string{
		"-y",
		"-i", src.Path,
		"-ss", formatFFmpegTime(w.Start),
		"-to", formatFFmpegTime(w.End),
	}
	if enhanced {
		args = append(args, "-af", enhanceFilter)
	}
	args = append(args,
		"-acodec", "pcm_s16le",
		"-ac", strconv.Itoa(channels),
		"-ar", strconv.Itoa(sampleRate),
		windowPath,
	)

	output, err := p.cmd.CombinedOutput(ctx, p.ffmpegPath, args)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v\nOutput: %s", ErrExtractionFailed, w, err, string(output))
	}
	return windowPath, nil
}

// Cleanup removes the prepared waveform and every window extracted from it.
func (p *Preparer) Cleanup(src Prepared) error {
	if src.dir == "" {
		return nil
	}
	return p.files.RemoveAll(src.dir)
}

// probeDuration returns the duration of an audio file using ffmpeg.
func (p *Preparer) probeDuration(ctx context.Context, audioPath string) (time.Duration, error) {
	// The -i flag with a null sink makes ffmpeg print file info including
	// duration (ffprobe may not be installed alongside ffmpeg).
	args := []string{
		"-i", audioPath,
		"-f", "null", "-",
	}
	output, err := p.cmd.CombinedOutput(ctx, p.ffmpegPath, args)
	if err != nil {
		// FFmpeg returns non-zero even when it successfully reads file
		// info, so try to parse the output anyway.
		if len(output) == 0 {
			return 0, err
		}
	}

	return parseDurationFromFFmpegOutput(string(output))
}

// parseDurationFromFFmpegOutput extracts duration from FFmpeg stderr.
// Looks for: "Duration: HH:MM:SS.ms" or "time=HH:MM:SS.ms"
func parseDurationFromFFmpegOutput(output string) (time.Duration, error) {
	durationRe := regexp.MustCompile(`Duration:\s*(\d+):(\d+):(\d+)\.(\d+)`)
	if matches := durationRe.FindStringSubmatch(output); matches != nil {
		return parseTimeComponents(matches[1], matches[2], matches[3], matches[4])
	}

	// Fallback pattern: time=00:05:23.45 (from progress output).
	// Use the last match (final time).
	timeRe := regexp.MustCompile(`time=(\d+):(\d+):(\d+)\.(\d+)`)
	allMatches := timeRe.FindAllStringSubmatch(output, -1)
	if len(allMatches) > 0 {
		matches := allMatches[len(allMatches)-1]
		return parseTimeComponents(matches[1], matches[2], matches[3], matches[4])
	}

	return 0, fmt.Errorf("could not parse duration from ffmpeg output")
}

// parseTimeComponents converts HH:MM:SS.ms strings to a Duration.
func parseTimeComponents(hours, minutes, seconds, fractional string) (time.Duration, error) {
	h, _ := strconv.Atoi(hours)
	m, _ := strconv.Atoi(minutes)
	s, _ := strconv.Atoi(seconds)

	// Normalize fractional part to milliseconds.
	// Input may be 1-6+ digits (e.g., ".4", ".45", ".456", ".456789").
	frac, _ := strconv.Atoi(fractional)
	ms := frac
	switch n := len(fractional); {
	case n == 1:
		ms = frac * 100
	case n == 2:
		ms = frac * 10
	case n == 3:
		// Already milliseconds.
	case n > 3:
		for i := n; i > 3; i-- {
			ms /= 10
		}
	}

	return time.Duration(h)*time.Hour +
		time.Duration(m)*time.Minute +
		time.Duration(s)*time.Second +
		time.Duration(ms)*time.Millisecond, nil
}

// formatFFmpegTime formats a duration for FFmpeg -ss/-to arguments.
func formatFFmpegTime(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := d.Seconds() - float64(h*3600+m*60)
	return fmt.Sprintf("%02d:%02d:%06.3f", h, m, s)
}
