package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/valentin-gosselin/whisper-studio/internal/audio"
	"github.com/valentin-gosselin/whisper-studio/internal/cli"
	"github.com/valentin-gosselin/whisper-studio/internal/config"
	"github.com/valentin-gosselin/whisper-studio/internal/ffmpeg"
	"github.com/valentin-gosselin/whisper-studio/internal/plan"
	"github.com/valentin-gosselin/whisper-studio/internal/transcribe"
)

// Injected at build time via ldflags.
var (
	version = "dev"
	commit  = "unknown"
)

// Exit codes.
const (
	ExitOK            = 0
	ExitGeneral       = 1
	ExitUsage         = 2
	ExitSetup         = 3
	ExitValidation    = 4
	ExitTranscription = 5
	ExitInterrupt     = 130
)

func main() {
	// Load .env file if present (ignore error if missing).
	_ = godotenv.Load()

	// Context with signal cancellation.
	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var verbose bool

	rootCmd := &cobra.Command{
		Use:     "whisper-studio",
		Short:   "Transcribe media into clean, hallucination-free subtitles",
		Version: fmt.Sprintf("%s (commit: %s)", version, commit),
		// Silence Cobra's default error/usage printing; we handle it ourselves.
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelWarn
			if verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
				Level: level,
			})))
		},
	}
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	env := cli.DefaultEnv()

	rootCmd.AddCommand(cli.TranscribeCmd(env))
	rootCmd.AddCommand(cli.PlanCmd(env))
	rootCmd.AddCommand(cli.CleanCmd(env))
	rootCmd.AddCommand(cli.SweepCmd(env))
	rootCmd.AddCommand(cli.ConfigCmd(env))

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

// exitCode maps errors to exit codes.
func exitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	if errors.Is(err, context.Canceled) {
		return ExitInterrupt
	}

	if isCobraUsageError(err) {
		return ExitUsage
	}

	// Setup errors.
	if errors.Is(err, ffmpeg.ErrNotFound) || errors.Is(err, transcribe.ErrAPIKeyMissing) ||
		errors.Is(err, config.ErrInvalidConfig) {
		return ExitSetup
	}

	// Validation errors.
	if errors.Is(err, cli.ErrFileNotFound) || errors.Is(err, cli.ErrOutputExists) ||
		errors.Is(err, cli.ErrOutputWithBatch) || errors.Is(err, cli.ErrInvalidDuration) ||
		errors.Is(err, audio.ErrUnsupportedFormat) || errors.Is(err, audio.ErrFileNotFound) ||
		errors.Is(err, plan.ErrInvalidDuration) || errors.Is(err, plan.ErrUnknownStrategy) {
		return ExitValidation
	}

	// Transcription errors.
	if errors.Is(err, transcribe.ErrBackend) || errors.Is(err, transcribe.ErrRateLimit) ||
		errors.Is(err, transcribe.ErrQuotaExceeded) || errors.Is(err, transcribe.ErrTimeout) ||
		errors.Is(err, transcribe.ErrAuthFailed) {
		return ExitTranscription
	}

	return ExitGeneral
}

// cobraUsageErrorPatterns contains error message substrings that indicate
// Cobra usage errors. Cobra doesn't expose typed errors, so string
// matching is the only reliable approach.
var cobraUsageErrorPatterns = []string{
	"required flag",
	"unknown flag",
	"unknown shorthand",
	"flag needs an argument",
	"invalid argument",
	"unknown command",
	"accepts ",
	"requires at least",
	"requires at most",
}

// isCobraUsageError reports whether the error came from Cobra's flag or
// argument parsing.
func isCobraUsageError(err error) bool {
	msg := err.Error()
	for _, pattern := range cobraUsageErrorPatterns {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}
