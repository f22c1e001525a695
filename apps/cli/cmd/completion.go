package cmd

import (
	"github.com/spf13/cobra"
)

func newCompletionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for hitclient.

To load completions:

Bash:
  $ source <(hitclient completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ hitclient completion bash > /etc/bash_completion.d/hitclient
  # macOS:
  $ hitclient completion bash > $(brew --prefix)/etc/bash_completion.d/hitclient

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it. Execute the following once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  # To load completions for each session, execute once:
  $ hitclient completion zsh > "${fpath[1]}/_hitclient"

  # You will need to start a new shell for this setup to take effect.

Fish:
  $ hitclient completion fish | source

  # To load completions for each session, execute once:
  $ hitclient completion fish > ~/.config/fish/completions/hitclient.fish

PowerShell:
  PS> hitclient completion powershell | Out-String | Invoke-Expression

  # To load completions for every new session, run:
  PS> hitclient completion powershell > hitclient.ps1
  # and source this file from your PowerShell profile.
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  usageArgs(cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs)),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(cmd.OutOrStdout())
			case "zsh":
				return cmd.Root().GenZshCompletion(cmd.OutOrStdout())
			case "fish":
				return cmd.Root().GenFishCompletion(cmd.OutOrStdout(), true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(cmd.OutOrStdout())
			}
			return nil
		},
	}
}
