package cmd

import (
	"context"
	"fmt"

	"github.com/reelix-cli/reelix/queue"
	"github.com/reelix-cli/reelix/script"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringP("url", "u", "https://media.example.org/Videos/1/stream.mkv", "Stream URL passed to the hook")
	runCmd.Flags().StringP("id", "i", "1", "Item id passed to the hook")
	runCmd.Flags().StringP("title", "t", "Example", "Item title passed to the hook")
}

var runCmd = &cobra.Command{
	Use:     "run <file>",
	Short:   "Run a Lua hook once and print the URL it resolves",
	Long:    "Load a Lua stream hook and call its ResolveStream function with a sample item. Useful for writing hooks.",
	Args:    cobra.ExactArgs(1),
	Example: "  reelix run ./proxy.lua --url https://media.example.org/a.m3u8",
	Run: func(cmd *cobra.Command, args []string) {
		hook, err := script.Load(args[0])
		handleErr(err)
		defer hook.Close()

		item := &queue.Item{
			ID:    lo.Must(cmd.Flags().GetString("id")),
			Title: lo.Must(cmd.Flags().GetString("title")),
		}

		resolved, changed, err := hook.Resolve(context.Background(), item, lo.Must(cmd.Flags().GetString("url")))
		handleErr(err)

		if !changed {
			fmt.Println(lo.Must(cmd.Flags().GetString("url")), "(unchanged)")
			return
		}
		fmt.Println(resolved)
	},
}
