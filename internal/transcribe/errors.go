package transcribe

import "errors"

// ErrAPIKeyMissing indicates OPENAI_API_KEY environment variable is not set.
var ErrAPIKeyMissing = errors.New("OPENAI_API_KEY environment variable not set")

// ErrBackend indicates the transcription backend failed or returned an
// empty result. Recoverable per window via the single-retry policy.
var ErrBackend = errors.New("transcription failed")

// ErrRateLimit indicates the backend rate limit was exceeded (temporary, retryable).
var ErrRateLimit = errors.New("rate limit exceeded")

// ErrQuotaExceeded indicates the backend quota was exceeded (billing issue, not retryable).
var ErrQuotaExceeded = errors.New("quota exceeded")

// ErrTimeout indicates a request timed out.
var ErrTimeout = errors.New("request timeout")

// ErrAuthFailed indicates backend authentication failed (invalid key).
var ErrAuthFailed = errors.New("authentication failed")
