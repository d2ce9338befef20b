package transcribe

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// Backend converts one window's audio into SRT-formatted text. The core
// treats it as an unreliable collaborator: failures are retried, and the
// wire protocol behind it is irrelevant here.
type Backend interface {
	// Transcribe returns the window's transcript as SRT text with
	// window-local timestamps.
	Transcribe(ctx context.Context, audioPath string, params Params) (string, error)
}

// audioTranscriber is the slice of *openai.Client the backend uses.
// It allows injecting mocks in tests.
type audioTranscriber interface {
	CreateTranscription(ctx context.Context, req openai.AudioRequest) (openai.AudioResponse, error)
}

// Compile-time interface compliance checks.
var (
	_ Backend          = (*OpenAIBackend)(nil)
	_ audioTranscriber = (*openai.Client)(nil)
)

// Default transport retry configuration.
const (
	defaultMaxRetries = 5
	defaultBaseDelay  = 1 * time.Second
	defaultMaxDelay   = 30 * time.Second
)

// RetryConfig holds retry parameters for exponential backoff.
//
// All fields must be non-negative. Invalid values are normalized:
// MaxRetries < 0 becomes 0 (single attempt), BaseDelay <= 0 becomes 1ms,
// MaxDelay <= 0 becomes BaseDelay.
type RetryConfig struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

// normalize ensures all RetryConfig fields have valid values.
func (c *RetryConfig) normalize() {
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	if c.BaseDelay <= 0 {
		c.BaseDelay = time.Millisecond
	}
	if c.MaxDelay <= 0 {
		c.MaxDelay = c.BaseDelay
	}
}

// RetryWithBackoff executes fn with exponential backoff retry.
// It retries only if shouldRetry returns true for the error.
// Returns the result of the last attempt.
func RetryWithBackoff[T any](
	ctx context.Context,
	cfg RetryConfig,
	fn func() (T, error),
	shouldRetry func(error) bool,
) (T, error) {
	cfg.normalize()

	var zero T
	var lastErr error
	delay := cfg.BaseDelay

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				if !timer.Stop() {
					<-timer.C
				}
				return zero, ctx.Err()
			case <-timer.C:
			}
			// Exponential backoff with cap.
			delay = min(delay*2, cfg.MaxDelay)
		}

		result, err := fn()
		if err == nil {
			return result, nil
		}

		lastErr = err
		if !shouldRetry(lastErr) {
			return zero, lastErr
		}
	}

	return zero, fmt.Errorf("max retries (%d) exceeded: %w", cfg.MaxRetries, lastErr)
}

// OpenAIBackend transcribes window audio through OpenAI's transcription
// API, requesting SRT output so timestamps survive the wire. Transient
// transport errors are retried with exponential backoff; that retry layer
// is independent of the per-window semantic retry in WindowTranscriber.
type OpenAIBackend struct {
	client     audioTranscriber
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
}

// BackendOption configures an OpenAIBackend.
type BackendOption func(*OpenAIBackend)

// WithMaxRetries sets the maximum number of transport retry attempts.
func WithMaxRetries(n int) BackendOption {
	return func(b *OpenAIBackend) {
		if n >= 0 {
			b.maxRetries = n
		}
	}
}

// WithRetryDelays sets the base and max delays for exponential backoff.
func WithRetryDelays(base, maxDelay time.Duration) BackendOption {
	return func(b *OpenAIBackend) {
		if base > 0 {
			b.baseDelay = base
		}
		if maxDelay > 0 {
			b.maxDelay = maxDelay
		}
	}
}

// NewOpenAIBackend creates an OpenAIBackend.
// The client is injected to enable testing with mocks.
func NewOpenAIBackend(client *openai.Client, opts ...BackendOption) *OpenAIBackend {
	b := &OpenAIBackend{
		client:     client,
		maxRetries: defaultMaxRetries,
		baseDelay:  defaultBaseDelay,
		maxDelay:   defaultMaxDelay,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Transcribe sends one window's audio and returns the SRT text.
// whisper-1 is the only OpenAI transcription model that supports the SRT
// response format.
func (b *OpenAIBackend) Transcribe(ctx context.Context, audioPath string, params Params) (string, error) {
	req := openai.AudioRequest{
		Model:       openai.Whisper1,
		FilePath:    audioPath,
		Format:      openai.AudioResponseFormatSRT,
		Language:    params.Language,
		Temperature: params.Profile.Temperature,
	}

	cfg := RetryConfig{
		MaxRetries: b.maxRetries,
		BaseDelay:  b.baseDelay,
		MaxDelay:   b.maxDelay,
	}

	text, err := RetryWithBackoff(ctx, cfg, func() (string, error) {
		resp, err := b.client.CreateTranscription(ctx, req)
		if err != nil {
			return "", classifyError(err)
		}
		return resp.Text, nil
	}, isRetryableError)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return "", err
		}
		return "", fmt.Errorf("%w: %w", ErrBackend, err)
	}

	return text, nil
}

// classifyError maps OpenAI API errors to sentinel errors.
func classifyError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case http.StatusTooManyRequests:
			// Quota exhaustion is a billing problem, not a transient
			// condition, and must not be retried.
			if strings.Contains(apiErr.Message, "quota") ||
				strings.Contains(apiErr.Message, "billing") {
				return fmt.Errorf("%s: %w", apiErr.Message, ErrQuotaExceeded)
			}
			return fmt.Errorf("%s: %w", apiErr.Message, ErrRateLimit)
		case http.StatusUnauthorized:
			return fmt.Errorf("%s: %w", apiErr.Message, ErrAuthFailed)
		case http.StatusRequestTimeout, http.StatusGatewayTimeout:
			return fmt.Errorf("%s: %w", apiErr.Message, ErrTimeout)
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("request timed out: %w", ErrTimeout)
	}

	return err
}

// isRetryableError determines if an error is transient and should be retried.
func isRetryableError(err error) bool {
	if errors.Is(err, ErrRateLimit) || errors.Is(err, ErrTimeout) {
		return true
	}

	// Server errors (5xx) are retryable.
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout:
			return true
		}
	}

	return false
}
