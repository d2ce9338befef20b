package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/valentin-gosselin/whisper-studio/internal/audio"
	"github.com/valentin-gosselin/whisper-studio/internal/config"
	"github.com/valentin-gosselin/whisper-studio/internal/job"
	"github.com/valentin-gosselin/whisper-studio/internal/plan"
	"github.com/valentin-gosselin/whisper-studio/internal/transcribe"
)

// =============================================================================
// Fake Env collaborators
// =============================================================================

type fakeResolver struct {
	path string
	err  error
}

func (f fakeResolver) Resolve(context.Context) (string, error) { return f.path, f.err }
func (f fakeResolver) CheckVersion(context.Context, string)    {}

type fakeConfigLoader struct {
	cfg config.Config
	err error
}

func (f fakeConfigLoader) Load(string) (config.Config, error) {
	if f.err != nil {
		return config.Config{}, f.err
	}
	return f.cfg, nil
}

// fakeSource is an in-memory job.AudioSource reporting a fixed duration.
type fakeSource struct {
	duration time.Duration
}

func (f fakeSource) Prepare(_ context.Context, inputPath, _ string) (audio.Prepared, error) {
	return audio.Prepared{Path: inputPath, Duration: f.duration, SampleRate: 16000}, nil
}

func (f fakeSource) ExtractWindow(_ context.Context, _ audio.Prepared, w plan.Window, _ bool) (string, error) {
	return fmt.Sprintf("window_%03d.wav", w.Index), nil
}

func (f fakeSource) Cleanup(audio.Prepared) error { return nil }

type fakeSourceFactory struct {
	source job.AudioSource
}

func (f fakeSourceFactory) NewPreparer(string) (job.AudioSource, error) { return f.source, nil }

// fakeBackend returns the same SRT text for every window.
type fakeBackend struct {
	text string
}

func (f fakeBackend) Transcribe(context.Context, string, transcribe.Params) (string, error) {
	return f.text, nil
}

type fakeBackendFactory struct {
	backend transcribe.Backend
}

func (f fakeBackendFactory) NewBackend(string) transcribe.Backend { return f.backend }

// =============================================================================
// Env construction
// =============================================================================

// testEnv builds an Env whose collaborators never touch the network or
// the real ffmpeg binary.
func testEnv(t *testing.T, opts ...EnvOption) (*Env, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	base := []EnvOption{
		WithStdout(&stdout),
		WithStderr(&stderr),
		WithGetenv(func(key string) string {
			if key == config.EnvOpenAIAPIKey {
				return "sk-test"
			}
			return ""
		}),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithFFmpegResolver(fakeResolver{path: "/usr/bin/ffmpeg"}),
		WithConfigLoader(fakeConfigLoader{cfg: config.Default()}),
		WithSourceFactory(fakeSourceFactory{source: fakeSource{duration: 20 * time.Second}}),
		WithBackendFactory(fakeBackendFactory{backend: fakeBackend{
			text: "1\n00:00:01,000 --> 00:00:03,000\nBonjour tout le monde\n",
		}}),
	}
	return NewEnv(append(base, opts...)...), &stdout, &stderr
}

// writeMediaFile creates an empty media file for input validation.
func writeMediaFile(t *testing.T, dir, name string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("fake media"), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}
