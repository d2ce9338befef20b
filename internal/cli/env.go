package cli

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/valentin-gosselin/whisper-studio/internal/audio"
	"github.com/valentin-gosselin/whisper-studio/internal/config"
	"github.com/valentin-gosselin/whisper-studio/internal/ffmpeg"
	"github.com/valentin-gosselin/whisper-studio/internal/job"
	"github.com/valentin-gosselin/whisper-studio/internal/transcribe"
)

// Env holds injectable dependencies for CLI commands.
// This is the central injection point for testing CLI commands in
// isolation. All fields have production defaults via DefaultEnv().
type Env struct {
	// I/O and environment
	Stdout io.Writer
	Stderr io.Writer
	Getenv func(string) string
	Now    func() time.Time
	Logger *slog.Logger

	// Factories for domain objects
	FFmpegResolver FFmpegResolver
	ConfigLoader   ConfigLoader
	BackendFactory BackendFactory
	SourceFactory  SourceFactory
}

// FFmpegResolver resolves the path to the FFmpeg binary.
type FFmpegResolver interface {
	Resolve(ctx context.Context) (string, error)
	CheckVersion(ctx context.Context, ffmpegPath string)
}

// ConfigLoader loads configuration.
type ConfigLoader interface {
	Load(path string) (config.Config, error)
}

// BackendFactory creates transcription backends.
type BackendFactory interface {
	NewBackend(apiKey string) transcribe.Backend
}

// SourceFactory creates audio preparers.
type SourceFactory interface {
	NewPreparer(ffmpegPath string) (job.AudioSource, error)
}

// EnvOption configures an Env.
type EnvOption func(*Env)

// WithStdout sets the stdout writer.
func WithStdout(w io.Writer) EnvOption {
	return func(e *Env) {
		e.Stdout = w
	}
}

// WithStderr sets the stderr writer.
func WithStderr(w io.Writer) EnvOption {
	return func(e *Env) {
		e.Stderr = w
	}
}

// WithGetenv sets the environment variable getter.
func WithGetenv(fn func(string) string) EnvOption {
	return func(e *Env) {
		e.Getenv = fn
	}
}

// WithNow sets the time provider.
func WithNow(fn func() time.Time) EnvOption {
	return func(e *Env) {
		e.Now = fn
	}
}

// WithLogger sets the structured logger.
func WithLogger(log *slog.Logger) EnvOption {
	return func(e *Env) {
		e.Logger = log
	}
}

// WithFFmpegResolver sets the FFmpeg resolver.
func WithFFmpegResolver(r FFmpegResolver) EnvOption {
	return func(e *Env) {
		e.FFmpegResolver = r
	}
}

// WithConfigLoader sets the config loader.
func WithConfigLoader(l ConfigLoader) EnvOption {
	return func(e *Env) {
		e.ConfigLoader = l
	}
}

// WithBackendFactory sets the backend factory.
func WithBackendFactory(f BackendFactory) EnvOption {
	return func(e *Env) {
		e.BackendFactory = f
	}
}

// WithSourceFactory sets the source factory.
func WithSourceFactory(f SourceFactory) EnvOption {
	return func(e *Env) {
		e.SourceFactory = f
	}
}

// DefaultEnv returns an Env with production defaults.
func DefaultEnv() *Env {
	return &Env{
		Stdout:         os.Stdout,
		Stderr:         os.Stderr,
		Getenv:         os.Getenv,
		Now:            time.Now,
		Logger:         slog.Default(),
		FFmpegResolver: &defaultFFmpegResolver{},
		ConfigLoader:   &defaultConfigLoader{},
		BackendFactory: &defaultBackendFactory{},
		SourceFactory:  &defaultSourceFactory{},
	}
}

// NewEnv creates an Env with the given options applied to defaults.
func NewEnv(opts ...EnvOption) *Env {
	env := DefaultEnv()
	for _, opt := range opts {
		opt(env)
	}
	return env
}

// ---------------------------------------------------------------------------
// Default implementations - delegate to real packages
// ---------------------------------------------------------------------------

// defaultFFmpegResolver implements FFmpegResolver using the ffmpeg package.
type defaultFFmpegResolver struct{}

func (defaultFFmpegResolver) Resolve(ctx context.Context) (string, error) {
	return ffmpeg.Resolve(ctx)
}

func (defaultFFmpegResolver) CheckVersion(ctx context.Context, ffmpegPath string) {
	ffmpeg.CheckVersion(ctx, ffmpegPath)
}

// defaultConfigLoader implements ConfigLoader using the config package.
type defaultConfigLoader struct{}

func (defaultConfigLoader) Load(path string) (config.Config, error) {
	return config.Load(path)
}

// defaultBackendFactory implements BackendFactory using OpenAI.
type defaultBackendFactory struct{}

func (defaultBackendFactory) NewBackend(apiKey string) transcribe.Backend {
	client := openai.NewClient(apiKey)
	return transcribe.NewOpenAIBackend(client)
}

// defaultSourceFactory implements SourceFactory using the audio package.
type defaultSourceFactory struct{}

func (defaultSourceFactory) NewPreparer(ffmpegPath string) (job.AudioSource, error) {
	return audio.NewPreparer(ffmpegPath)
}

// Compile-time interface verification.
var (
	_ FFmpegResolver = (*defaultFFmpegResolver)(nil)
	_ ConfigLoader   = (*defaultConfigLoader)(nil)
	_ BackendFactory = (*defaultBackendFactory)(nil)
	_ SourceFactory  = (*defaultSourceFactory)(nil)
)
