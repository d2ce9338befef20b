package cli

import (
	"fmt"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
)

// ConfigCmd creates the config command: shows the effective configuration
// after defaults and file merging.
func ConfigCmd(env *Env) *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfig(env, configPath)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "Config file path (default: ~/.config/whisper-studio/config.toml)")

	return cmd
}

func runConfig(env *Env, configPath string) error {
	cfg, err := env.ConfigLoader.Load(configPath)
	if err != nil {
		return err
	}

	rendered, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to render config: %w", err)
	}

	_, err = env.Stdout.Write(rendered)
	return err
}
