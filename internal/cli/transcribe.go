package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/valentin-gosselin/whisper-studio/internal/audio"
	"github.com/valentin-gosselin/whisper-studio/internal/config"
	"github.com/valentin-gosselin/whisper-studio/internal/job"
	"github.com/valentin-gosselin/whisper-studio/internal/plan"
	"github.com/valentin-gosselin/whisper-studio/internal/transcribe"
)

// maxBatchParallel bounds concurrent jobs in batch mode. Windows within a
// job are always sequential; this only limits how many media files are in
// flight at once.
const maxBatchParallel = 4

// TranscribeCmd creates the transcribe command.
func TranscribeCmd(env *Env) *cobra.Command {
	var (
		output     string
		strategy   string
		language   string
		configPath string
		parallel   int
	)

	cmd := &cobra.Command{
		Use:   "transcribe <media-file>...",
		Short: "Transcribe media files into clean SRT subtitles",
		Long: `Transcribe one or more media files into SRT subtitles.

Each file is cut into overlapping windows, transcribed window by window,
merged onto a single timeline, and cleaned of duplicated and hallucinated
segments before serialization.

Video inputs go through audio extraction first. With several inputs the
files are processed in parallel; windows within one file always run
sequentially.`,
		Example: `  whisper-studio transcribe interview.mp4
  whisper-studio transcribe podcast.mp3 -o podcast.fr.srt -l fr
  whisper-studio transcribe intro.wav --strategy strong-head
  whisper-studio transcribe ep1.mp3 ep2.mp3 ep3.mp3 -p 3`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTranscribe(cmd.Context(), env, args, output, strategy, language, configPath, parallel)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file path (default: <input>.srt; single input only)")
	cmd.Flags().StringVar(&strategy, "strategy", "", "Chunking strategy: standard, strong-head (default: from config)")
	cmd.Flags().StringVarP(&language, "language", "l", "", "Audio language (ISO 639-1 code) or auto (default: from config)")
	cmd.Flags().StringVar(&configPath, "config", "", "Config file path (default: ~/.config/whisper-studio/config.toml)")
	cmd.Flags().IntVarP(&parallel, "parallel", "p", 1, "Max media files processed concurrently (1-4)")

	return cmd
}

// runTranscribe validates inputs, assembles the pipeline, and processes
// every input file.
func runTranscribe(ctx context.Context, env *Env, inputs []string, output, strategy, language, configPath string, parallel int) error {
	// === VALIDATION (fail-fast) ===

	for _, input := range inputs {
		input := input
		if _, err := os.Stat(input); err != nil {
			if os.IsNotExist(err) {
				return fmt.Errorf("%w: %s", ErrFileNotFound, input)
			}
			return fmt.Errorf("cannot access input file: %w", err)
		}
		if !audio.IsSupported(input) {
			return fmt.Errorf("%w: %s (supported: %s)",
				audio.ErrUnsupportedFormat, input, audio.SupportedFormats())
		}
	}

	if output != "" && len(inputs) > 1 {
		return ErrOutputWithBatch
	}

	cfg, err := env.ConfigLoader.Load(configPath)
	if err != nil {
		return err
	}
	if strategy != "" {
		cfg.Strategy = strategy
	}
	if language != "" {
		cfg.Language = language
	}

	strat, err := plan.ParseStrategy(cfg.Strategy)
	if err != nil {
		return err
	}

	if parallel < 1 {
		parallel = 1
	}
	if parallel > maxBatchParallel {
		parallel = maxBatchParallel
	}

	apiKey := env.Getenv(config.EnvOpenAIAPIKey)
	if apiKey == "" {
		return fmt.Errorf("%w (set it with: export %s=sk-...)",
			transcribe.ErrAPIKeyMissing, config.EnvOpenAIAPIKey)
	}

	// === SETUP ===

	ffmpegPath := cfg.FFmpegPath
	if ffmpegPath == "" {
		ffmpegPath, err = env.FFmpegResolver.Resolve(ctx)
		if err != nil {
			return err
		}
	}
	env.FFmpegResolver.CheckVersion(ctx, ffmpegPath)

	preparer, err := env.SourceFactory.NewPreparer(ffmpegPath)
	if err != nil {
		return err
	}

	backend := env.BackendFactory.NewBackend(apiKey)
	windows := transcribe.NewWindowTranscriber(backend,
		transcribe.WithWindowTimeout(cfg.WindowTimeout()),
		transcribe.WithLogger(env.Logger),
	)
	runner := job.NewRunner(job.Source{
		Audio:       preparer,
		Transcriber: windows,
	}, job.WithLogger(env.Logger))

	opts := job.Options{
		Strategy: strat,
		Language: cfg.LanguageHint(),
		Fusion:   cfg.FusionConfig(),
	}

	// === TRANSCRIPTION ===

	if len(inputs) == 1 {
		return transcribeOne(ctx, env, runner, inputs[0], output, opts, true)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallel)
	for _, input := range inputs {
		input := input
		g.Go(func() error {
			// Per-window progress bars interleave badly across files;
			// batch mode reports per file instead.
			return transcribeOne(gctx, env, runner, input, "", opts, false)
		})
	}
	return g.Wait()
}

// transcribeOne runs a single job and writes its subtitle track.
func transcribeOne(ctx context.Context, env *Env, runner *job.Runner, input, output string, opts job.Options, showProgress bool) error {
	if output == "" {
		output = deriveOutputPath(input)
	}

	if showProgress {
		opts.Progress = windowProgress(env)
	}

	fmt.Fprintf(env.Stderr, "Transcribing %s...\n", input)
	result, err := runner.Run(ctx, input, opts)
	if err != nil {
		return fmt.Errorf("%s: %w", input, err)
	}

	for _, warn := range result.Warnings {
		fmt.Fprintf(env.Stderr, "Warning: %s: %s\n", input, warn)
	}
	if result.Degraded > 0 {
		fmt.Fprintf(env.Stderr, "Warning: %s: %d of %d windows produced no usable speech\n",
			input, result.Degraded, result.Windows)
	}

	if err := writeFileExclusive(output, result.SRT); err != nil {
		return err
	}
	fmt.Fprintf(env.Stderr, "Wrote %s (%d segments)\n", output, len(result.Segments))
	return nil
}

// windowProgress returns a per-window progress callback. A live bar is
// only drawn on a real terminal; otherwise progress degrades to one line
// per window.
func windowProgress(env *Env) job.ProgressFunc {
	f, isFile := env.Stderr.(*os.File)
	if !isFile || !isatty.IsTerminal(f.Fd()) {
		return func(done, total int) {
			fmt.Fprintf(env.Stderr, "  window %d/%d done\n", done, total)
		}
	}

	var bar *progressbar.ProgressBar
	return func(done, total int) {
		if bar == nil {
			bar = progressbar.NewOptions(total,
				progressbar.OptionSetWriter(env.Stderr),
				progressbar.OptionSetDescription("Transcribing"),
				progressbar.OptionShowCount(),
				progressbar.OptionClearOnFinish(),
			)
		}
		_ = bar.Set(done)
	}
}
