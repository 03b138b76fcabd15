package cmd

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/reelix-cli/reelix/color"
	"github.com/reelix-cli/reelix/filesystem"
	"github.com/reelix-cli/reelix/icon"
	"github.com/reelix-cli/reelix/script"
	"github.com/reelix-cli/reelix/style"
	"github.com/reelix-cli/reelix/util"
	"github.com/reelix-cli/reelix/where"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

func completionScripts(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	paths, err := script.List(where.Scripts())
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	return lo.Map(paths, func(p string, _ int) string {
		return util.FileStem(p)
	}), cobra.ShellCompDirectiveNoFileComp
}

// scriptName derives a local script name from an install URL.
func scriptName(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Path == "" {
		return util.SanitizeFilename(rawURL)
	}
	return util.SanitizeFilename(util.FileStem(path.Base(u.Path)))
}

func init() {
	rootCmd.AddCommand(scriptsCmd)
}

var scriptsCmd = &cobra.Command{
	Use:   "scripts",
	Short: "Manage Lua stream hooks",
	Long: `Lua stream hooks live in the scripts directory and are run on every
stream URL before it is played when scripts.enable is set.`,
}

func init() {
	scriptsCmd.AddCommand(scriptsListCmd)

	scriptsListCmd.Flags().BoolP("raw", "r", false, "Only print names")
	scriptsListCmd.SetOut(os.Stdout)
}

var scriptsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List installed hooks",
	Run: func(cmd *cobra.Command, args []string) {
		paths, err := script.List(where.Scripts())
		handleErr(err)

		raw := lo.Must(cmd.Flags().GetBool("raw"))
		if !raw {
			cmd.Println(style.New().Foreground(color.HiBlue).Bold(true).Render("Hooks:"))
		}

		for _, p := range paths {
			cmd.Println(util.FileStem(p))
		}

		if !raw && len(paths) == 0 {
			cmd.Println(style.Faint("none, see " + where.Scripts()))
		}
	},
}

func init() {
	scriptsCmd.AddCommand(scriptsInstallCmd)

	scriptsInstallCmd.Flags().StringP("name", "n", "", "Local name of the hook")
}

var scriptsInstallCmd = &cobra.Command{
	Use:   "install <url>",
	Short: "Download a hook, or update it when it changed",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		name := lo.CoalesceOrEmpty(lo.Must(cmd.Flags().GetString("name")), scriptName(args[0]))
		target := filepath.Join(where.Scripts(), name+script.Extension)

		erase := util.PrintErasable(fmt.Sprintf("%s Downloading %s...", icon.Get(icon.Progress), name))
		updated, err := script.Install(context.Background(), args[0], target)
		erase()
		handleErr(err)

		if !updated {
			fmt.Printf("%s %s is up to date\n", icon.Get(icon.Success), style.Fg(color.Yellow)(name))
			return
		}
		fmt.Printf("%s installed %s\n", icon.Get(icon.Success), style.Fg(color.Yellow)(name))
	},
}

func init() {
	scriptsCmd.AddCommand(scriptsRemoveCmd)
}

var scriptsRemoveCmd = &cobra.Command{
	Use:               "remove <name...>",
	Short:             "Remove installed hooks",
	Args:              cobra.MinimumNArgs(1),
	ValidArgsFunction: completionScripts,
	Run: func(cmd *cobra.Command, args []string) {
		for _, name := range args {
			name = strings.TrimSuffix(name, script.Extension)
			p := filepath.Join(where.Scripts(), name+script.Extension)
			handleErr(filesystem.API().Remove(p))
			fmt.Printf("%s removed %s\n", icon.Get(icon.Success), style.Fg(color.Yellow)(name))
		}
	},
}
