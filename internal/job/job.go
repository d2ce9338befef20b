// Package job orchestrates one transcription job end to end: plan the
// windows, prepare the audio, transcribe each window sequentially with
// the retry policy, merge onto the global clock, fuse duplicates, and
// serialize the clean subtitle track.
package job

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/valentin-gosselin/whisper-studio/internal/audio"
	"github.com/valentin-gosselin/whisper-studio/internal/fusion"
	"github.com/valentin-gosselin/whisper-studio/internal/plan"
	"github.com/valentin-gosselin/whisper-studio/internal/srt"
	"github.com/valentin-gosselin/whisper-studio/internal/timeline"
	"github.com/valentin-gosselin/whisper-studio/internal/transcribe"
)

// AudioSource supplies normalized waveforms and window slices.
// *audio.Preparer is the production implementation.
type AudioSource interface {
	Prepare(ctx context.Context, inputPath, jobID string) (audio.Prepared, error)
	ExtractWindow(ctx context.Context, src audio.Prepared, w plan.Window, enhanced bool) (string, error)
	Cleanup(src audio.Prepared) error
}

// Transcriber produces one window's final contribution.
// *transcribe.WindowTranscriber is the production implementation.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string, params transcribe.Params) (transcribe.WindowResult, error)
}

// ProgressFunc reports windows completed out of the planned total.
type ProgressFunc func(done, total int)

// Options configure one job.
type Options struct {
	// Strategy fixes the window geometry for the whole job.
	Strategy plan.Strategy

	// Language is an ISO 639-1 base code; empty means backend detection.
	Language string

	// Fusion holds the cleaning thresholds; zero value uses defaults.
	Fusion fusion.Config

	// Progress, when set, is called after each window completes.
	Progress ProgressFunc
}

// Result is the artifact handed back to the caller.
type Result struct {
	ID       string             // job identifier, also used in temp paths
	SRT      string             // serialized clean subtitle track
	Segments []timeline.Segment // the clean timeline behind SRT
	Duration time.Duration      // total media duration
	Windows  int                // windows planned
	Degraded int                // windows that contributed nothing after retry
	Warnings []string           // absorbed non-fatal conditions
}

// Runner executes jobs. Each job owns its window list and transcript
// buffers exclusively, so a single Runner may serve concurrent jobs
// without locking.
type Runner struct {
	source Source
	log    *slog.Logger
}

// Source bundles the two collaborators a job needs.
type Source struct {
	Audio       AudioSource
	Transcriber Transcriber
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithLogger sets the structured logger.
func WithLogger(log *slog.Logger) RunnerOption {
	return func(r *Runner) {
		if log != nil {
			r.log = log
		}
	}
}

// NewRunner creates a Runner over the given collaborators.
func NewRunner(source Source, opts ...RunnerOption) *Runner {
	r := &Runner{
		source: source,
		log:    slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run processes one media file into a clean subtitle track.
//
// Windows are transcribed strictly in order: window i completes
// (including its possible retry) before window i+1 is submitted, bounding
// concurrent backend load. Cancellation is honored at window boundaries.
// Only an invalid duration or cancellation fails the job; every other
// condition degrades to a warning on the result.
func (r *Runner) Run(ctx context.Context, inputPath string, opts Options) (Result, error) {
	id := uuid.NewString()
	log := r.log.With("job", id)

	prepared, err := r.source.Audio.Prepare(ctx, inputPath, id)
	if err != nil {
		return Result{}, fmt.Errorf("prepare audio: %w", err)
	}
	defer func() {
		if cleanupErr := r.source.Audio.Cleanup(prepared); cleanupErr != nil {
			log.Warn("temp cleanup failed", "err", cleanupErr)
		}
	}()

	windows, err := opts.Strategy.Plan(prepared.Duration)
	if err != nil {
		return Result{}, err
	}
	log.Info("job planned",
		"input", inputPath,
		"strategy", opts.Strategy.Name(),
		"duration", prepared.Duration,
		"windows", len(windows))

	result := Result{
		ID:       id,
		Duration: prepared.Duration,
		Windows:  len(windows),
	}
	transcripts := make([][]srt.Segment, len(windows))

	for i, w := range windows {
		// Cancellation is honored between windows, never mid-window.
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}

		windowPath, err := r.source.Audio.ExtractWindow(ctx, prepared, w, opts.Strategy.EnhancedAudio(w))
		if err != nil {
			// A window that cannot be sliced degrades like one that
			// failed to transcribe.
			result.Degraded++
			result.Warnings = append(result.Warnings, fmt.Sprintf("%s: extraction failed: %v", w, err))
			log.Warn("window extraction failed", "window", w.Index, "err", err)
			continue
		}

		params := transcribe.Params{
			Language: opts.Language,
			Profile:  transcribe.Normal(),
		}
		if opts.Strategy.EnhancedDecoding(w) {
			params.Profile = transcribe.Enhanced()
		}

		wr, err := r.source.Transcriber.Transcribe(ctx, windowPath, params)
		if err != nil {
			return Result{}, err
		}
		for _, warn := range wr.Warnings {
			result.Warnings = append(result.Warnings, fmt.Sprintf("%s: %s", w, warn))
		}
		if wr.Outcome == transcribe.OutcomeEmptyAfterRetry {
			result.Degraded++
		}
		transcripts[i] = wr.Segments

		log.Debug("window done",
			"window", w.Index,
			"segments", len(wr.Segments),
			"retried", wr.Retried)
		if opts.Progress != nil {
			opts.Progress(i+1, len(windows))
		}
	}

	merged := timeline.Merge(windows, transcripts)
	clean := fusion.Clean(merged, opts.Fusion)

	result.Segments = clean
	result.SRT = renderTimeline(clean)

	log.Info("job complete",
		"segments", len(clean),
		"degraded", result.Degraded,
		"warnings", len(result.Warnings))
	return result, nil
}

// renderTimeline serializes the clean timeline as SRT.
func renderTimeline(segments []timeline.Segment) string {
	cues := make([]srt.Segment, len(segments))
	for i, seg := range segments {
		cues[i] = srt.Segment{Start: seg.Start, End: seg.End, Text: seg.Text}
	}
	return srt.Render(cues)
}
