package transcribe

// Decoding temperature presets.
const (
	// defaultTemperature allows mild sampling for natural speech.
	defaultTemperature = 0.2

	// retryTemperature is the fixed reduced-randomness setting used by
	// the single-retry policy when a window produced nothing usable.
	retryTemperature = 0.0
)

// Profile is a decoding-parameter set handed to the backend. Backends map
// what their wire protocol supports and ignore the rest; the thresholds
// are advisory for backends that expose them.
type Profile struct {
	// Temperature controls sampling randomness; 0 is greedy decoding.
	Temperature float32

	// NoSpeechThreshold is the no-speech probability above which a
	// window is treated as silence rather than decoded.
	NoSpeechThreshold float32

	// LogProbThreshold is the mean log-probability below which a
	// decoding attempt is considered failed.
	LogProbThreshold float32
}

// Normal returns the default decoding profile (upstream Whisper defaults).
func Normal() Profile {
	return Profile{
		Temperature:       defaultTemperature,
		NoSpeechThreshold: 0.6,
		LogProbThreshold:  -1.0,
	}
}

// Enhanced returns the anti-hallucination profile: greedy decoding with
// tuned thresholds that suppress low-confidence speech detection. Used on
// every opening window, and on all windows under the strong-head strategy.
func Enhanced() Profile {
	return Profile{
		Temperature:       0,
		NoSpeechThreshold: 0.3,
		LogProbThreshold:  -0.6,
	}
}

// Reduced returns the profile with sampling temperature dropped for the
// single retry of a window that produced nothing usable.
func (p Profile) Reduced() Profile {
	p.Temperature = retryTemperature
	return p
}

// Params bundles everything the backend needs to decode one window.
type Params struct {
	// Language is an ISO 639-1 base code; empty means the backend
	// performs its own detection.
	Language string

	Profile Profile
}
