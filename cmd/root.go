// Package cmd holds the command line interface.
package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	cc "github.com/ivanpirog/coloredcobra"
	"github.com/reelix-cli/reelix/color"
	"github.com/reelix-cli/reelix/constant"
	"github.com/reelix-cli/reelix/icon"
	"github.com/reelix-cli/reelix/key"
	"github.com/reelix-cli/reelix/log"
	"github.com/reelix-cli/reelix/network"
	"github.com/reelix-cli/reelix/style"
	"github.com/reelix-cli/reelix/version"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	rootCmd.Flags().BoolP("version", "v", false, "Print the version")

	rootCmd.PersistentFlags().StringP("icons", "I", "", "Icons variant")
	lo.Must0(rootCmd.RegisterFlagCompletionFunc("icons", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return icon.AvailableVariants(), cobra.ShellCompDirectiveDefault
	}))
	lo.Must0(viper.BindPFlag(key.IconsVariant, rootCmd.PersistentFlags().Lookup("icons")))

	rootCmd.PersistentFlags().BoolP("write-history", "H", true, "Remember stop positions locally")
	lo.Must0(viper.BindPFlag(key.HistorySaveOnStop, rootCmd.PersistentFlags().Lookup("write-history")))

	registerPlayFlags(rootCmd)

	helpFunc := rootCmd.HelpFunc()
	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		helpFunc(cmd, args)
		if cmd == rootCmd {
			version.Notify(cmd.OutOrStdout())
		}
	})
}

var rootCmd = &cobra.Command{
	Use:   constant.Reelix + " [ids...]",
	Short: "A terminal player for your media server",
	Long: constant.AsciiArtLogo + "\n" +
		style.New().Italic(true).Foreground(color.HiRed).Render("    - A terminal player for your media server"),
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		network.Setup()
	},
	Run: func(cmd *cobra.Command, args []string) {
		if lo.Must(cmd.Flags().GetBool("version")) {
			versionCmd.Run(versionCmd, args)
			return
		}

		if len(args) == 0 && !anyChanged(cmd, "search", "resume", "continue", "url") {
			handleErr(cmd.Help())
			return
		}

		checkPlayerUnlessAttached(cmd)
		runPlay(cmd, args)
	},
}

func anyChanged(cmd *cobra.Command, names ...string) bool {
	return lo.SomeBy(names, func(name string) bool {
		return cmd.Flags().Changed(name)
	})
}

func checkPlayerUnlessAttached(cmd *cobra.Command) {
	if !cmd.Flags().Changed("attach") {
		checkPlayer()
	}
}

func init() {
	playCmd.PreRun = func(cmd *cobra.Command, args []string) {
		checkPlayerUnlessAttached(cmd)
	}
}

// Execute runs the root command.
func Execute() {
	if viper.GetBool(key.CliColored) {
		cc.Init(&cc.Config{
			RootCmd:       rootCmd,
			Headings:      cc.HiCyan + cc.Bold + cc.Underline,
			Commands:      cc.HiYellow + cc.Bold,
			Example:       cc.Italic,
			ExecName:      cc.Bold,
			Flags:         cc.Bold,
			FlagsDataType: cc.Italic + cc.HiBlue,
		})
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func handleErr(err error) {
	if err != nil {
		log.Error(err)
		_, _ = fmt.Fprintf(os.Stderr, "%s %s\n", icon.Get(icon.Fail), strings.Trim(err.Error(), " \n"))
		os.Exit(1)
	}
}

func isNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
