// SPDX-License-Identifier: MPL-2.0

package cmd

import "github.com/spf13/cobra"

// newCompletionCommand creates the `monodeploy completion` command.
func newCompletionCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for monodeploy.

To enable shell completions, run one of the following commands:

` + SubtitleStyle.Render("Bash:") + `
  # Add to ~/.bashrc:
  eval "$(monodeploy completion bash)"

  # Or install system-wide:
  monodeploy completion bash > /etc/bash_completion.d/monodeploy

` + SubtitleStyle.Render("Zsh:") + `
  # Add to ~/.zshrc:
  eval "$(monodeploy completion zsh)"

  # Or install to fpath:
  monodeploy completion zsh > "${fpath[1]}/_monodeploy"

` + SubtitleStyle.Render("Fish:") + `
  monodeploy completion fish > ~/.config/fish/completions/monodeploy.fish

` + SubtitleStyle.Render("PowerShell:") + `
  monodeploy completion powershell | Out-String | Invoke-Expression

  # Or add to $PROFILE:
  monodeploy completion powershell >> $PROFILE
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(app.stdout)
			case "zsh":
				return cmd.Root().GenZshCompletion(app.stdout)
			case "fish":
				return cmd.Root().GenFishCompletion(app.stdout, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(app.stdout)
			}
			return nil
		},
	}
}
