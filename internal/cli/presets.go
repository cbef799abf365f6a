package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/handoffdev/handoff/internal/config"
)

var presetsCmd = &cobra.Command{
	Use:   "presets [name]",
	Short: "Show verbosity presets",
	Long: `Show the built-in verbosity presets as YAML trees.

With no argument, all presets are printed in order of increasing detail.
The output doubles as a template for an overrides file passed to
'extract --config'.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPresets,
}

func init() {
	rootCmd.AddCommand(presetsCmd)
}

func runPresets(cmd *cobra.Command, args []string) error {
	names := config.PresetNames()
	if len(args) == 1 {
		names = args[:1]
	}

	for _, name := range names {
		cfg, err := config.Resolve(name, nil)
		if err != nil {
			return err
		}
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("failed to encode preset %q: %w", name, err)
		}
		fmt.Printf("# %s\n%s\n", name, data)
	}
	return nil
}
