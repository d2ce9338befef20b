package transcribe

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/valentin-gosselin/whisper-studio/internal/fusion"
	"github.com/valentin-gosselin/whisper-studio/internal/srt"
)

// Outcome is the final status of one window after the retry policy.
type Outcome int

const (
	// OutcomeOK means the window produced usable speech.
	OutcomeOK Outcome = iota

	// OutcomeEmptyAfterRetry means neither the first attempt nor the
	// reduced-temperature retry produced usable speech. The window
	// contributes nothing; the job continues.
	OutcomeEmptyAfterRetry
)

// WindowResult is one window's final contribution.
type WindowResult struct {
	Outcome  Outcome
	Segments []srt.Segment // window-local time; nil when empty
	Retried  bool
	Warnings []string // absorbed non-fatal conditions, surfaced job-level
}

// WindowTranscriber layers the per-window policy over a Backend: a
// caller-supplied timeout bounds each call, and a window whose result is
// an error, empty, or nothing but known hallucinations is retried exactly
// once at reduced temperature. Failure after the retry degrades the
// window to an empty contribution instead of failing the job.
type WindowTranscriber struct {
	backend Backend
	timeout time.Duration
	log     *slog.Logger
}

// WindowOption configures a WindowTranscriber.
type WindowOption func(*WindowTranscriber)

// WithWindowTimeout bounds each backend call. Zero means unbounded.
// A timeout is treated identically to a backend failure and triggers the
// single retry.
func WithWindowTimeout(d time.Duration) WindowOption {
	return func(wt *WindowTranscriber) {
		if d > 0 {
			wt.timeout = d
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(log *slog.Logger) WindowOption {
	return func(wt *WindowTranscriber) {
		if log != nil {
			wt.log = log
		}
	}
}

// NewWindowTranscriber wraps a backend with the window retry policy.
func NewWindowTranscriber(backend Backend, opts ...WindowOption) *WindowTranscriber {
	wt := &WindowTranscriber{
		backend: backend,
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(wt)
	}
	return wt
}

// Transcribe runs the policy for one window. The returned error is
// non-nil only when the surrounding job is cancelled; every backend
// failure is absorbed into the result's warnings.
func (wt *WindowTranscriber) Transcribe(ctx context.Context, audioPath string, params Params) (WindowResult, error) {
	var warnings []string

	segments, attemptWarns, err := wt.attempt(ctx, audioPath, params)
	warnings = append(warnings, attemptWarns...)
	if err == nil && hasUsableSpeech(segments) {
		return WindowResult{Outcome: OutcomeOK, Segments: segments, Warnings: warnings}, nil
	}
	if ctx.Err() != nil {
		return WindowResult{}, ctx.Err()
	}

	switch {
	case err != nil:
		warnings = append(warnings, fmt.Sprintf("transcription failed, retrying at reduced temperature: %v", err))
	default:
		warnings = append(warnings, "no usable speech detected, retrying at reduced temperature")
	}
	wt.log.Debug("retrying window", "audio", audioPath, "reason", warnings[len(warnings)-1])

	retryParams := params
	retryParams.Profile = params.Profile.Reduced()

	segments, attemptWarns, err = wt.attempt(ctx, audioPath, retryParams)
	warnings = append(warnings, attemptWarns...)
	if err == nil && hasUsableSpeech(segments) {
		return WindowResult{Outcome: OutcomeOK, Segments: segments, Retried: true, Warnings: warnings}, nil
	}
	if ctx.Err() != nil {
		return WindowResult{}, ctx.Err()
	}

	if err != nil {
		warnings = append(warnings, fmt.Sprintf("retry failed: %v", err))
	}
	warnings = append(warnings, "window produced no usable speech after retry")

	return WindowResult{Outcome: OutcomeEmptyAfterRetry, Retried: true, Warnings: warnings}, nil
}

// attempt performs one bounded backend call and parses the result.
// Malformed subtitle blocks are skipped and reported as warnings, never
// fatal for the window.
func (wt *WindowTranscriber) attempt(ctx context.Context, audioPath string, params Params) ([]srt.Segment, []string, error) {
	if wt.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, wt.timeout)
		defer cancel()
	}

	text, err := wt.backend.Transcribe(ctx, audioPath, params)
	if err != nil {
		return nil, nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, nil, fmt.Errorf("%w: backend returned an empty result", ErrBackend)
	}

	segments, malformed := srt.Parse(text)
	var warnings []string
	for _, blockErr := range malformed {
		warnings = append(warnings, fmt.Sprintf("skipped subtitle block: %v", blockErr))
		wt.log.Warn("skipped malformed subtitle block", "audio", audioPath, "err", blockErr)
	}

	return segments, warnings, nil
}

// hasUsableSpeech reports whether any segment survives the hallucination
// blocklist. A window whose transcript collapses to zero usable segments
// is treated the same as an empty backend result.
func hasUsableSpeech(segments []srt.Segment) bool {
	for _, seg := range segments {
		if strings.TrimSpace(seg.Text) == "" {
			continue
		}
		if !fusion.Spurious(seg.Text) {
			return true
		}
	}
	return false
}
