package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/valentin-gosselin/whisper-studio/internal/format"
	"github.com/valentin-gosselin/whisper-studio/internal/plan"
)

// PlanCmd creates the plan command: a dry run of the chunk planner.
func PlanCmd(env *Env) *cobra.Command {
	var strategy string

	cmd := &cobra.Command{
		Use:   "plan <duration>",
		Short: "Preview the transcription windows for a media duration",
		Long: `Preview the windows a strategy would submit for a given media
duration, without touching any media or backend.`,
		Example: `  whisper-studio plan 65s
  whisper-studio plan 1h30m --strategy strong-head`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlan(env, args[0], strategy)
		},
	}

	cmd.Flags().StringVar(&strategy, "strategy", plan.NameStandard, "Chunking strategy: standard, strong-head")

	return cmd
}

func runPlan(env *Env, durationArg, strategyName string) error {
	total, err := time.ParseDuration(durationArg)
	if err != nil {
		return fmt.Errorf("%w: %q (use Go duration syntax, e.g. 65s, 1h30m)", ErrInvalidDuration, durationArg)
	}

	strat, err := plan.ParseStrategy(strategyName)
	if err != nil {
		return err
	}

	windows, err := strat.Plan(total)
	if err != nil {
		return err
	}

	fmt.Fprintf(env.Stdout, "%s strategy, %s of media, %d windows:\n",
		strat.Name(), format.DurationHuman(total), len(windows))
	for _, w := range windows {
		notes := ""
		if strat.EnhancedAudio(w) {
			notes = "  (enhanced audio)"
		}
		fmt.Fprintf(env.Stdout, "  %s%s\n", w, notes)
	}
	return nil
}
