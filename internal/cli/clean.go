package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/valentin-gosselin/whisper-studio/internal/fusion"
	"github.com/valentin-gosselin/whisper-studio/internal/srt"
	"github.com/valentin-gosselin/whisper-studio/internal/timeline"
)

// CleanCmd creates the clean command: the hallucination filter and fusion
// passes applied to an existing subtitle file.
func CleanCmd(env *Env) *cobra.Command {
	var (
		output     string
		configPath string
	)

	cmd := &cobra.Command{
		Use:   "clean <subtitle-file>",
		Short: "Remove hallucinations and duplicates from an SRT file",
		Long: `Run the hallucination blocklist and fusion passes over an existing
SRT file, writing the cleaned track to stdout or -o.`,
		Example: `  whisper-studio clean interview.srt
  whisper-studio clean interview.srt -o interview.clean.srt`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClean(env, args[0], output, configPath)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file path (default: stdout)")
	cmd.Flags().StringVar(&configPath, "config", "", "Config file path (default: ~/.config/whisper-studio/config.toml)")

	return cmd
}

func runClean(env *Env, inputPath, output, configPath string) error {
	data, err := os.ReadFile(inputPath) // #nosec G304 -- user-specified input file
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrFileNotFound, inputPath)
		}
		return fmt.Errorf("cannot read input file: %w", err)
	}

	cfg, err := env.ConfigLoader.Load(configPath)
	if err != nil {
		return err
	}

	cues, malformed := srt.Parse(string(data))
	for _, blockErr := range malformed {
		fmt.Fprintf(env.Stderr, "Warning: %s: %v\n", inputPath, blockErr)
	}

	segments := make([]timeline.Segment, len(cues))
	for i, cue := range cues {
		segments[i] = timeline.Segment{Start: cue.Start, End: cue.End, Text: cue.Text}
	}

	clean := fusion.Clean(segments, cfg.FusionConfig())

	out := make([]srt.Segment, len(clean))
	for i, seg := range clean {
		out[i] = srt.Segment{Start: seg.Start, End: seg.End, Text: seg.Text}
	}
	rendered := srt.Render(out)

	fmt.Fprintf(env.Stderr, "Cleaned %d cues down to %d\n", len(cues), len(clean))

	if output == "" {
		fmt.Fprint(env.Stdout, rendered)
		return nil
	}
	return writeFileExclusive(output, rendered)
}
