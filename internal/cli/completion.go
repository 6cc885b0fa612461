package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/billmal071/annas/internal/anna"
	"github.com/billmal071/annas/internal/config"
)

func newCompletionCmd(rootCmd *cobra.Command) *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for annas.

To load completions:

Bash:
  $ source <(annas completion bash)

Zsh:
  $ annas completion zsh > "${fpath[1]}/_annas"

Fish:
  $ annas completion fish | source

PowerShell:
  PS> annas completion powershell | Out-String | Invoke-Expression

The download command completes content hashes and filenames from the last
saved search results.`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		// No config is needed to print a script.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return rootCmd.GenBashCompletionV2(out, true)
			case "zsh":
				return rootCmd.GenZshCompletion(out)
			case "fish":
				return rootCmd.GenFishCompletion(out, true)
			case "powershell":
				return rootCmd.GenPowerShellCompletionWithDesc(out)
			default:
				return fmt.Errorf("unsupported shell: %s", args[0])
			}
		},
	}
}

// completeDownloadArgs offers content hashes, then a filename built from the
// chosen book, using the last saved search results.
func (a *app) completeDownloadArgs(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 1 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	cfg, err := config.Load(a.cfgFile)
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	books, err := anna.LoadResults(cfg.Downloads.ResultsPath())
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	var completions []string
	for _, b := range books {
		if len(args) == 0 {
			completions = append(completions, fmt.Sprintf("%s\t%s", b.ContentHash, truncateTitle(b.Title, 40)))
			continue
		}
		if b.ContentHash == strings.ToLower(args[0]) {
			if name := suggestFilename(b); name != "" {
				completions = append(completions, name)
			}
		}
	}

	return completions, cobra.ShellCompDirectiveNoFileComp
}

// suggestFilename builds "<title>.<format>" with shell-unfriendly characters
// replaced.
func suggestFilename(b *anna.Book) string {
	if b.Format == "" {
		return ""
	}
	name := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		case r == ' ':
			return '-'
		}
		return -1
	}, truncateTitle(b.Title, 60))
	name = strings.Trim(name, "-")
	if name == "" {
		name = b.ContentHash
	}
	return name + "." + strings.ToLower(b.Format)
}

// truncateTitle truncates a title to maxLen characters
func truncateTitle(title string, maxLen int) string {
	runes := []rune(title)
	if len(runes) <= maxLen {
		return title
	}
	return string(runes[:maxLen-3]) + "..."
}
