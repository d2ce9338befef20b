package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/valentin-gosselin/whisper-studio/internal/format"
	"github.com/valentin-gosselin/whisper-studio/internal/housekeep"
)

// SweepCmd creates the sweep command: the housekeeping purge of abandoned
// temp artifacts, runnable once or as a periodic task.
func SweepCmd(env *Env) *cobra.Command {
	var (
		dir        string
		interval   time.Duration
		configPath string
	)

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Purge abandoned temporary job directories",
		Long: `Remove job temp directories older than the configured retention.
Jobs clean up after themselves; sweep catches what crashes and
cancellations leave behind. With --interval it keeps running
periodically until interrupted.`,
		Example: `  whisper-studio sweep
  whisper-studio sweep --interval 1h`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSweep(cmd, env, dir, interval, configPath)
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "Temp directory to sweep (default: OS temp dir)")
	cmd.Flags().DurationVar(&interval, "interval", 0, "Re-sweep period; 0 sweeps once and exits")
	cmd.Flags().StringVar(&configPath, "config", "", "Config file path (default: ~/.config/whisper-studio/config.toml)")

	return cmd
}

func runSweep(cmd *cobra.Command, env *Env, dir string, interval time.Duration, configPath string) error {
	cfg, err := env.ConfigLoader.Load(configPath)
	if err != nil {
		return err
	}

	sweeper := housekeep.NewSweeper(dir, cfg.Retention(),
		housekeep.WithLogger(env.Logger),
		housekeep.WithNow(env.Now),
	)

	if interval > 0 {
		return sweeper.Run(cmd.Context(), interval)
	}

	stats, err := sweeper.Sweep(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintf(env.Stderr, "Removed %d directories, reclaimed %s\n",
		stats.Removed, format.Size(stats.Reclaimed))
	return nil
}
