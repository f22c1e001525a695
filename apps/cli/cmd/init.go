package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/hitclient/packages/core/config"
)

const initConfigFile = "hitclient.yaml"

func newInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [dir]",
		Short: "Create a hitclient.yaml config file",
		Long: `Create hitclient.yaml with default settings in the given directory,
or the current directory when none is given.

Examples:
  hitclient init
  hitclient init ./api --force`,
		Args: usageArgs(cobra.MaximumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			return initConfig(cmd, dir, force)
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing config file")
	return cmd
}

func initConfig(cmd *cobra.Command, dir string, force bool) error {
	path := filepath.Join(dir, initConfigFile)
	if !force {
		if _, err := os.Stat(path); err == nil {
			return withExitCode(ExitConfigError, fmt.Errorf("file already exists: %s (use --force to overwrite)", path))
		}
	}

	cfg := config.DefaultConfig()
	cfg.HostURL = "https://api.example.com"
	cfg.Headers = map[string]string{
		"Accept": "application/json",
	}

	if err := cfg.SaveConfig(path); err != nil {
		return withExitCode(ExitConfigError, fmt.Errorf("failed to create config file: %w", err))
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created: %s\n", path)
	fmt.Fprintf(out, "Run 'hitclient request GET /health' to try it.\n")
	return nil
}
