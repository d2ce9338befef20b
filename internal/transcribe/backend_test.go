package transcribe

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// =============================================================================
// Mock OpenAI client
// =============================================================================

// mockTranscriptionClient implements audioTranscriber with scripted
// responses; the last response repeats once the script runs out.
type mockTranscriptionClient struct {
	responses []mockTranscription
	requests  []openai.AudioRequest
}

type mockTranscription struct {
	text string
	err  error
}

func (m *mockTranscriptionClient) CreateTranscription(_ context.Context, req openai.AudioRequest) (openai.AudioResponse, error) {
	m.requests = append(m.requests, req)

	i := len(m.requests) - 1
	if i >= len(m.responses) {
		i = len(m.responses) - 1
	}
	resp := m.responses[i]
	return openai.AudioResponse{Text: resp.text}, resp.err
}

func newBackend(client audioTranscriber) *OpenAIBackend {
	return &OpenAIBackend{
		client:     client,
		maxRetries: 2,
		baseDelay:  time.Millisecond,
		maxDelay:   2 * time.Millisecond,
	}
}

// =============================================================================
// Request assembly
// =============================================================================

func TestOpenAIBackendRequest(t *testing.T) {
	t.Parallel()

	client := &mockTranscriptionClient{responses: []mockTranscription{{text: "1\n00:00:01,000 --> 00:00:02,000\nBonjour\n"}}}
	backend := newBackend(client)

	params := Params{Language: "fr", Profile: Enhanced()}
	text, err := backend.Transcribe(context.Background(), "/tmp/window_000.wav", params)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text == "" {
		t.Fatal("expected SRT text")
	}

	if len(client.requests) != 1 {
		t.Fatalf("got %d requests, want 1", len(client.requests))
	}
	req := client.requests[0]
	if req.Model != openai.Whisper1 {
		t.Errorf("model: got %q, want %q", req.Model, openai.Whisper1)
	}
	if req.Format != openai.AudioResponseFormatSRT {
		t.Errorf("format: got %q, want SRT", req.Format)
	}
	if req.FilePath != "/tmp/window_000.wav" {
		t.Errorf("file path: got %q", req.FilePath)
	}
	if req.Language != "fr" {
		t.Errorf("language: got %q, want fr", req.Language)
	}
	if req.Temperature != 0 {
		t.Errorf("temperature: got %v, want 0", req.Temperature)
	}
}

// =============================================================================
// Transport retry
// =============================================================================

func TestOpenAIBackendRetriesTransientErrors(t *testing.T) {
	t.Parallel()

	rateLimited := &openai.APIError{HTTPStatusCode: http.StatusTooManyRequests, Message: "slow down"}
	client := &mockTranscriptionClient{responses: []mockTranscription{
		{err: rateLimited},
		{text: "1\n00:00:01,000 --> 00:00:02,000\nBonjour\n"},
	}}
	backend := newBackend(client)

	_, err := backend.Transcribe(context.Background(), "w.wav", Params{Profile: Normal()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(client.requests) != 2 {
		t.Errorf("got %d requests, want 2", len(client.requests))
	}
}

func TestOpenAIBackendDoesNotRetryAuthFailure(t *testing.T) {
	t.Parallel()

	client := &mockTranscriptionClient{responses: []mockTranscription{
		{err: &openai.APIError{HTTPStatusCode: http.StatusUnauthorized, Message: "bad key"}},
	}}
	backend := newBackend(client)

	_, err := backend.Transcribe(context.Background(), "w.wav", Params{Profile: Normal()})
	if !errors.Is(err, ErrBackend) {
		t.Errorf("expected ErrBackend wrapper, got %v", err)
	}
	if !errors.Is(err, ErrAuthFailed) {
		t.Errorf("expected ErrAuthFailed, got %v", err)
	}
	if len(client.requests) != 1 {
		t.Errorf("auth failures must not be retried, got %d requests", len(client.requests))
	}
}

func TestOpenAIBackendExhaustsRetries(t *testing.T) {
	t.Parallel()

	client := &mockTranscriptionClient{responses: []mockTranscription{
		{err: &openai.APIError{HTTPStatusCode: http.StatusServiceUnavailable, Message: "down"}},
	}}
	backend := newBackend(client)

	_, err := backend.Transcribe(context.Background(), "w.wav", Params{Profile: Normal()})
	if !errors.Is(err, ErrBackend) {
		t.Errorf("expected ErrBackend, got %v", err)
	}
	if len(client.requests) != 3 {
		t.Errorf("got %d requests, want initial attempt plus 2 retries", len(client.requests))
	}
}

// =============================================================================
// Error classification
// =============================================================================

func TestClassifyError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want error
	}{
		{
			name: "rate_limit",
			err:  &openai.APIError{HTTPStatusCode: http.StatusTooManyRequests, Message: "slow down"},
			want: ErrRateLimit,
		},
		{
			name: "quota_exhausted",
			err:  &openai.APIError{HTTPStatusCode: http.StatusTooManyRequests, Message: "You exceeded your current quota"},
			want: ErrQuotaExceeded,
		},
		{
			name: "billing_problem",
			err:  &openai.APIError{HTTPStatusCode: http.StatusTooManyRequests, Message: "billing hard limit reached"},
			want: ErrQuotaExceeded,
		},
		{
			name: "auth_failure",
			err:  &openai.APIError{HTTPStatusCode: http.StatusUnauthorized, Message: "invalid key"},
			want: ErrAuthFailed,
		},
		{
			name: "gateway_timeout",
			err:  &openai.APIError{HTTPStatusCode: http.StatusGatewayTimeout, Message: "timeout"},
			want: ErrTimeout,
		},
		{
			name: "context_deadline",
			err:  context.DeadlineExceeded,
			want: ErrTimeout,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := classifyError(tt.err); !errors.Is(got, tt.want) {
				t.Errorf("classifyError(%v) = %v, want wrapping %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestClassifyErrorPassthrough(t *testing.T) {
	t.Parallel()

	plain := errors.New("connection reset")
	if got := classifyError(plain); !errors.Is(got, plain) {
		t.Errorf("unclassified errors must pass through, got %v", got)
	}
}

func TestIsRetryableError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"rate_limit", ErrRateLimit, true},
		{"timeout", ErrTimeout, true},
		{"server_error", &openai.APIError{HTTPStatusCode: http.StatusInternalServerError}, true},
		{"bad_gateway", &openai.APIError{HTTPStatusCode: http.StatusBadGateway}, true},
		{"quota", ErrQuotaExceeded, false},
		{"auth", ErrAuthFailed, false},
		{"bad_request", &openai.APIError{HTTPStatusCode: http.StatusBadRequest}, false},
		{"plain", errors.New("boom"), false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := isRetryableError(tt.err); got != tt.want {
				t.Errorf("isRetryableError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

// =============================================================================
// Backoff helper
// =============================================================================

func TestRetryWithBackoff(t *testing.T) {
	t.Parallel()

	cfg := RetryConfig{MaxRetries: 3, BaseDelay: time.Millisecond, MaxDelay: 4 * time.Millisecond}

	t.Run("succeeds_first_try", func(t *testing.T) {
		t.Parallel()
		calls := 0
		got, err := RetryWithBackoff(context.Background(), cfg, func() (int, error) {
			calls++
			return 42, nil
		}, func(error) bool { return true })
		if err != nil || got != 42 || calls != 1 {
			t.Errorf("got (%d, %v) after %d calls", got, err, calls)
		}
	})

	t.Run("retries_until_success", func(t *testing.T) {
		t.Parallel()
		calls := 0
		got, err := RetryWithBackoff(context.Background(), cfg, func() (int, error) {
			calls++
			if calls < 3 {
				return 0, errors.New("transient")
			}
			return 7, nil
		}, func(error) bool { return true })
		if err != nil || got != 7 || calls != 3 {
			t.Errorf("got (%d, %v) after %d calls", got, err, calls)
		}
	})

	t.Run("stops_on_permanent_error", func(t *testing.T) {
		t.Parallel()
		permanent := errors.New("permanent")
		calls := 0
		_, err := RetryWithBackoff(context.Background(), cfg, func() (int, error) {
			calls++
			return 0, permanent
		}, func(error) bool { return false })
		if !errors.Is(err, permanent) || calls != 1 {
			t.Errorf("got %v after %d calls", err, calls)
		}
	})

	t.Run("exhausts_retries", func(t *testing.T) {
		t.Parallel()
		transient := errors.New("transient")
		calls := 0
		_, err := RetryWithBackoff(context.Background(), cfg, func() (int, error) {
			calls++
			return 0, transient
		}, func(error) bool { return true })
		if !errors.Is(err, transient) {
			t.Errorf("final error must wrap the last failure, got %v", err)
		}
		if calls != cfg.MaxRetries+1 {
			t.Errorf("got %d calls, want %d", calls, cfg.MaxRetries+1)
		}
	})

	t.Run("honors_cancellation", func(t *testing.T) {
		t.Parallel()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		calls := 0
		_, err := RetryWithBackoff(ctx, RetryConfig{MaxRetries: 2, BaseDelay: time.Minute, MaxDelay: time.Minute},
			func() (int, error) {
				calls++
				return 0, errors.New("transient")
			}, func(error) bool { return true })
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
		if calls != 1 {
			t.Errorf("got %d calls, want 1 before the backoff wait", calls)
		}
	})
}
