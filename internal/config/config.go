// Package config loads the studio configuration from a TOML file with
// environment fallbacks. Every field has a production default; a missing
// config file is not an error.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/valentin-gosselin/whisper-studio/internal/fusion"
	"github.com/valentin-gosselin/whisper-studio/internal/plan"
)

// Environment variables.
const (
	// EnvConfigPath overrides the config file location.
	EnvConfigPath = "WHISPER_STUDIO_CONFIG"

	// EnvOpenAIAPIKey holds the transcription backend credential.
	EnvOpenAIAPIKey = "OPENAI_API_KEY"
)

// LanguageAuto asks the backend to perform its own language detection.
const LanguageAuto = "auto"

// Config is the studio configuration surface consumed by the core.
type Config struct {
	// Strategy selects the chunking strategy: "standard" or "strong-head".
	Strategy string `toml:"strategy"`

	// Language is the target language hint (ISO 639-1) or "auto".
	Language string `toml:"language"`

	// WindowTimeoutSeconds bounds each per-window backend call.
	WindowTimeoutSeconds int `toml:"window_timeout_seconds"`

	// FFmpegPath overrides FFmpeg resolution when non-empty.
	FFmpegPath string `toml:"ffmpeg_path"`

	Fusion       Fusion       `toml:"fusion"`
	Housekeeping Housekeeping `toml:"housekeeping"`
}

// Fusion tunes the hallucination-cleaning passes. The thresholds are
// empirical and may need recalibration per language or backend.
type Fusion struct {
	OverlapThreshold  float64 `toml:"overlap_threshold"`
	NearThreshold     float64 `toml:"near_threshold"`
	NearWindowSeconds float64 `toml:"near_window_seconds"`
}

// Housekeeping schedules temp-artifact purging.
type Housekeeping struct {
	// RetentionHours is how long abandoned temp directories survive.
	RetentionHours int `toml:"retention_hours"`
}

// Default returns the production defaults.
func Default() Config {
	return Config{
		Strategy:             plan.NameStandard,
		Language:             LanguageAuto,
		WindowTimeoutSeconds: 120,
		Fusion: Fusion{
			OverlapThreshold:  fusion.DefaultOverlapThreshold,
			NearThreshold:     fusion.DefaultNearThreshold,
			NearWindowSeconds: fusion.DefaultNearWindow.Seconds(),
		},
		Housekeeping: Housekeeping{
			RetentionHours: 24,
		},
	}
}

// DefaultPath returns the config file location.
// Precedence: WHISPER_STUDIO_CONFIG, then XDG_CONFIG_HOME, then
// ~/.config/whisper-studio/config.toml.
func DefaultPath() (string, error) {
	if custom := os.Getenv(EnvConfigPath); custom != "" {
		return custom, nil
	}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "whisper-studio", "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".config", "whisper-studio", "config.toml"), nil
}

// Load reads the config file at path (or the default location when path
// is empty) over the defaults. A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		var err error
		path, err = DefaultPath()
		if err != nil {
			return cfg, err
		}
	}

	data, err := os.ReadFile(path) // #nosec G304 -- config path from home dir or explicit flag
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, path, err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks field ranges.
func (c Config) Validate() error {
	if _, err := plan.ParseStrategy(c.Strategy); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if c.WindowTimeoutSeconds < 0 {
		return fmt.Errorf("%w: window_timeout_seconds must be >= 0", ErrInvalidConfig)
	}
	if t := c.Fusion.OverlapThreshold; t < 0 || t > 1 {
		return fmt.Errorf("%w: fusion.overlap_threshold must be in [0, 1]", ErrInvalidConfig)
	}
	if t := c.Fusion.NearThreshold; t < 0 || t > 1 {
		return fmt.Errorf("%w: fusion.near_threshold must be in [0, 1]", ErrInvalidConfig)
	}
	if c.Fusion.NearWindowSeconds < 0 {
		return fmt.Errorf("%w: fusion.near_window_seconds must be >= 0", ErrInvalidConfig)
	}
	if c.Housekeeping.RetentionHours < 0 {
		return fmt.Errorf("%w: housekeeping.retention_hours must be >= 0", ErrInvalidConfig)
	}
	return nil
}

// StrategyValue resolves the configured chunking strategy.
func (c Config) StrategyValue() (plan.Strategy, error) {
	return plan.ParseStrategy(c.Strategy)
}

// LanguageHint maps the configured language to the backend hint:
// "auto" (or empty) becomes the empty hint for backend-side detection.
func (c Config) LanguageHint() string {
	if c.Language == LanguageAuto {
		return ""
	}
	return c.Language
}

// WindowTimeout returns the per-window bound as a duration.
func (c Config) WindowTimeout() time.Duration {
	return time.Duration(c.WindowTimeoutSeconds) * time.Second
}

// FusionConfig maps the file fields onto the fusion engine's settings.
func (c Config) FusionConfig() fusion.Config {
	return fusion.Config{
		OverlapThreshold: c.Fusion.OverlapThreshold,
		NearThreshold:    c.Fusion.NearThreshold,
		NearWindow:       time.Duration(c.Fusion.NearWindowSeconds * float64(time.Second)),
	}
}

// Retention returns the housekeeping retention as a duration.
func (c Config) Retention() time.Duration {
	return time.Duration(c.Housekeeping.RetentionHours) * time.Hour
}
