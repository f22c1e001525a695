package cmd

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

// rootOptions are the persistent flags shared by every command
type rootOptions struct {
	configPath       string
	envFile          string
	host             string
	output           string
	verbose          bool
	noColor          bool
	skipReachability bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "hitclient",
		Short: "Call HTTP APIs from the terminal. Offline-aware.",
		Long: `hitclient sends requests and multipart uploads to an API host, checking
network reachability first and reporting the result of every call.

Host, default headers and app details come from hitclient.yaml or
.hitclient.json, HITCLIENT_* environment variables and .env files.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", os.Getenv("HITCLIENT_CONFIG"), "Path to config file (env: HITCLIENT_CONFIG)")
	pf.StringVar(&opts.envFile, "env-file", "", "Path to .env file (default: .env and .env.local in the current directory)")
	pf.StringVar(&opts.host, "host", "", "API host URL, overrides hostURL from config")
	pf.StringVarP(&opts.output, "output", "o", "console", "Output format: console, json")
	pf.BoolVarP(&opts.verbose, "verbose", "v", false, "Verbose output and debug logging")
	pf.BoolVar(&opts.noColor, "no-color", false, "Disable colored output")
	pf.BoolVar(&opts.skipReachability, "skip-reachability", false, "Send requests without checking network reachability")

	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return withExitCode(ExitUsageError, err)
	})

	rootCmd.AddCommand(newRequestCmd(opts))
	rootCmd.AddCommand(newUploadCmd(opts))
	rootCmd.AddCommand(newReachCmd(opts))
	rootCmd.AddCommand(newInfoCmd(opts))
	rootCmd.AddCommand(newInitCmd())
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newCompletionCmd())

	return rootCmd
}

func Execute(v, bt string) {
	version = v
	buildTime = bt

	if err := newRootCmd().Execute(); err != nil {
		if !isSilent(err) {
			fmt.Fprintf(os.Stderr, "%s %v\n", color.RedString("Error:"), err)
		}
		os.Exit(exitCode(err))
	}
}

// usageArgs wraps a positional argument validator so failures exit with ExitUsageError
func usageArgs(validate cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		return withExitCode(ExitUsageError, validate(cmd, args))
	}
}
