package cli

import (
	"github.com/spf13/cobra"
)

var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate shell completion script",
	Long: `Generate a shell completion script for rbnvfd.

Examples:
  rbnvfd completion bash > /etc/bash_completion.d/rbnvfd
  rbnvfd completion zsh > "${fpath[1]}/_rbnvfd"
  rbnvfd completion fish > ~/.config/fish/completions/rbnvfd.fish`,
	ValidArgs: []string{"bash", "zsh", "fish", "powershell"},
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		switch args[0] {
		case "zsh":
			return rootCmd.GenZshCompletion(out)
		case "fish":
			return rootCmd.GenFishCompletion(out, true)
		case "powershell":
			return rootCmd.GenPowerShellCompletionWithDesc(out)
		default:
			return rootCmd.GenBashCompletionV2(out, true)
		}
	},
}

func init() {
	rootCmd.AddCommand(
		runCmd,
		monitorCmd,
		spotsCmd,
		tuneCmd,
		initCmd,
		configCmd,
		doctorCmd,
		versionCmd,
		completionCmd,
	)
}
