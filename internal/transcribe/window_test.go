package transcribe

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/valentin-gosselin/whisper-studio/internal/srt"
)

// =============================================================================
// Fake backend
// =============================================================================

// backendCall records the parameters of one Transcribe invocation.
type backendCall struct {
	params Params
}

// fakeBackend returns scripted responses in sequence; the last response
// repeats when more calls arrive than were scripted.
type fakeBackend struct {
	responses []fakeResponse
	calls     []backendCall

	// block, when set, makes every call wait for context cancellation.
	block bool
}

type fakeResponse struct {
	text string
	err  error
}

func (f *fakeBackend) Transcribe(ctx context.Context, _ string, params Params) (string, error) {
	f.calls = append(f.calls, backendCall{params: params})

	if f.block {
		<-ctx.Done()
		return "", ctx.Err()
	}

	i := len(f.calls) - 1
	if i >= len(f.responses) {
		i = len(f.responses) - 1
	}
	resp := f.responses[i]
	return resp.text, resp.err
}

const goodSRT = "1\n00:00:01,000 --> 00:00:03,000\nBonjour tout le monde\n"

// =============================================================================
// Window retry policy
// =============================================================================

func TestWindowTranscribeFirstAttemptSucceeds(t *testing.T) {
	t.Parallel()

	backend := &fakeBackend{responses: []fakeResponse{{text: goodSRT}}}
	wt := NewWindowTranscriber(backend)

	result, err := wt.Transcribe(context.Background(), "window_000.wav", Params{Profile: Normal()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Outcome != OutcomeOK {
		t.Errorf("got outcome %v, want OutcomeOK", result.Outcome)
	}
	if result.Retried {
		t.Error("a successful first attempt must not be marked retried")
	}
	if len(result.Segments) != 1 || result.Segments[0].Text != "Bonjour tout le monde" {
		t.Errorf("unexpected segments: %v", result.Segments)
	}
	if len(backend.calls) != 1 {
		t.Fatalf("got %d backend calls, want 1", len(backend.calls))
	}
	if got := backend.calls[0].params.Profile.Temperature; got != Normal().Temperature {
		t.Errorf("first attempt temperature: got %v, want %v", got, Normal().Temperature)
	}
}

func TestWindowTranscribeRetriesAtReducedTemperature(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		first fakeResponse
	}{
		{"backend_error", fakeResponse{err: fmt.Errorf("%w: boom", ErrBackend)}},
		{"empty_result", fakeResponse{text: "   "}},
		{"only_hallucinations", fakeResponse{text: "1\n00:00:01,000 --> 00:00:02,000\nSous-titrage : Société Radio-Canada.\n"}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			backend := &fakeBackend{responses: []fakeResponse{tt.first, {text: goodSRT}}}
			wt := NewWindowTranscriber(backend)

			result, err := wt.Transcribe(context.Background(), "w.wav", Params{Profile: Normal()})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if result.Outcome != OutcomeOK {
				t.Errorf("got outcome %v, want OutcomeOK", result.Outcome)
			}
			if !result.Retried {
				t.Error("result must be marked retried")
			}
			if len(result.Warnings) == 0 {
				t.Error("the absorbed first failure must surface as a warning")
			}
			if len(backend.calls) != 2 {
				t.Fatalf("got %d backend calls, want 2", len(backend.calls))
			}
			if got := backend.calls[1].params.Profile.Temperature; got != 0 {
				t.Errorf("retry temperature: got %v, want 0", got)
			}
		})
	}
}

func TestWindowTranscribeDegradesAfterRetry(t *testing.T) {
	t.Parallel()

	backend := &fakeBackend{responses: []fakeResponse{
		{err: fmt.Errorf("%w: boom", ErrBackend)},
	}}
	wt := NewWindowTranscriber(backend)

	result, err := wt.Transcribe(context.Background(), "w.wav", Params{Profile: Normal()})
	if err != nil {
		t.Fatalf("a degraded window must not fail the job: %v", err)
	}

	if result.Outcome != OutcomeEmptyAfterRetry {
		t.Errorf("got outcome %v, want OutcomeEmptyAfterRetry", result.Outcome)
	}
	if !result.Retried {
		t.Error("result must be marked retried")
	}
	if len(result.Segments) != 0 {
		t.Errorf("a degraded window contributes no segments, got %v", result.Segments)
	}
	if len(result.Warnings) == 0 {
		t.Error("degradation must surface warnings")
	}
	if len(backend.calls) != 2 {
		t.Errorf("exactly one retry is allowed, got %d calls", len(backend.calls))
	}
}

func TestWindowTranscribeMalformedBlocksBecomeWarnings(t *testing.T) {
	t.Parallel()

	content := goodSRT + "\n2\nnot a timestamp\nPerdu\n"
	backend := &fakeBackend{responses: []fakeResponse{{text: content}}}
	wt := NewWindowTranscriber(backend)

	result, err := wt.Transcribe(context.Background(), "w.wav", Params{Profile: Normal()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Outcome != OutcomeOK {
		t.Errorf("got outcome %v, want OutcomeOK", result.Outcome)
	}
	if len(result.Segments) != 1 {
		t.Errorf("the valid block must survive: %v", result.Segments)
	}
	if len(result.Warnings) != 1 {
		t.Errorf("the malformed block must surface as one warning, got %v", result.Warnings)
	}
}

func TestWindowTranscribeCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	backend := &fakeBackend{block: true}
	wt := NewWindowTranscriber(backend)

	_, err := wt.Transcribe(ctx, "w.wav", Params{Profile: Normal()})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("cancellation must propagate, got %v", err)
	}
	if len(backend.calls) != 1 {
		t.Errorf("a cancelled job must not retry, got %d calls", len(backend.calls))
	}
}

func TestWindowTranscribeTimeoutTriggersRetry(t *testing.T) {
	t.Parallel()

	// The per-window timeout expires; the parent context stays alive, so
	// the timeout degrades like any backend failure.
	backend := &fakeBackend{block: true}
	wt := NewWindowTranscriber(backend, WithWindowTimeout(10*time.Millisecond))

	result, err := wt.Transcribe(context.Background(), "w.wav", Params{Profile: Normal()})
	if err != nil {
		t.Fatalf("a window timeout must not fail the job: %v", err)
	}

	if result.Outcome != OutcomeEmptyAfterRetry {
		t.Errorf("got outcome %v, want OutcomeEmptyAfterRetry", result.Outcome)
	}
	if len(backend.calls) != 2 {
		t.Errorf("timeout must trigger the single retry, got %d calls", len(backend.calls))
	}
}

// =============================================================================
// Decoding profiles
// =============================================================================

func TestProfiles(t *testing.T) {
	t.Parallel()

	normal := Normal()
	if normal.Temperature != 0.2 {
		t.Errorf("normal temperature: got %v, want 0.2", normal.Temperature)
	}

	enhanced := Enhanced()
	if enhanced.Temperature != 0 {
		t.Errorf("enhanced temperature: got %v, want 0", enhanced.Temperature)
	}
	if enhanced.NoSpeechThreshold >= normal.NoSpeechThreshold {
		t.Error("enhanced profile must lower the no-speech threshold")
	}

	reduced := normal.Reduced()
	if reduced.Temperature != 0 {
		t.Errorf("reduced temperature: got %v, want 0", reduced.Temperature)
	}
	if reduced.NoSpeechThreshold != normal.NoSpeechThreshold {
		t.Error("reducing must only touch the temperature")
	}
}

// =============================================================================
// Usable speech detection
// =============================================================================

func TestHasUsableSpeech(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		srt  string
		want bool
	}{
		{"real_speech", goodSRT, true},
		{"credits_only", "1\n00:00:01,000 --> 00:00:02,000\nSous-titrage : Société Radio-Canada.\n", false},
		{"lone_filler", "1\n00:00:01,000 --> 00:00:02,000\nMerci.\n", false},
		{"mixed", "1\n00:00:01,000 --> 00:00:02,000\nMerci.\n\n2\n00:00:03,000 --> 00:00:05,000\nOn reprend la discussion\n", true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			segments, _ := srt.Parse(tt.srt)
			if got := hasUsableSpeech(segments); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}
