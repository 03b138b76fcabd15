package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"

	"github.com/reelix-cli/reelix/filesystem"
	"github.com/reelix-cli/reelix/inline"
	"github.com/reelix-cli/reelix/key"
	"github.com/reelix-cli/reelix/util"
	"github.com/samber/lo"
	"github.com/samber/mo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	rootCmd.AddCommand(inspectCmd)

	inspectCmd.Flags().StringP("query", "q", "", "Search the library instead of giving ids")
	inspectCmd.Flags().StringP("pick", "p", "", "Which search result to inspect")
	inspectCmd.Flags().StringP("episodes", "e", "", "Which episodes of a series to inspect")
	inspectCmd.Flags().BoolP("json", "j", false, "Output as JSON")
	inspectCmd.Flags().BoolP("streams", "S", false, "Request a playback descriptor to include tracks and the stream URL")
	inspectCmd.Flags().StringP("output", "o", "", "Write the output to a file")
}

var inspectCmd = &cobra.Command{
	Use:   "inspect [ids...]",
	Short: "Print the chapters, tracks and streams of library items",
	Long: `Inspect library items without playing them.

Pickers (with --query):
  first, last - first or last result
  closest     - the result closest to the query
  exact       - the result named exactly like the query
  [number]    - the result at that index (from 0)

Episode selectors (for series):
  first, last, all
  [number]    - episode at that index (from 0)
  [from]-[to] - episodes in the range
  @[text]@    - episodes whose name contains text`,
	PreRun: func(cmd *cobra.Command, args []string) {
		if len(args) == 0 && !cmd.Flags().Changed("query") {
			handleErr(errors.New("give item ids or --query"))
		}
	},
	Run: func(cmd *cobra.Command, args []string) {
		client, err := connect(false)
		handleErr(err)

		query := lo.Must(cmd.Flags().GetString("query"))

		var out io.Writer = os.Stdout
		if output := lo.Must(cmd.Flags().GetString("output")); output != "" {
			f, err := filesystem.API().Create(output)
			handleErr(err)
			defer util.Ignore(f.Close)
			out = f
		}

		picker := mo.None[inline.ItemPicker]()
		if kind := lo.Must(cmd.Flags().GetString("pick")); kind != "" {
			fn, err := inline.ParseItemPicker(kind, query)
			handleErr(err)
			picker = mo.Some(fn)
		}

		episodes := mo.None[inline.EpisodesFilter]()
		if description := lo.Must(cmd.Flags().GetString("episodes")); description != "" {
			fn, err := inline.ParseEpisodesFilter(description)
			handleErr(err)
			episodes = mo.Some(fn)
		}

		handleErr(inline.Run(context.Background(), &inline.Options{
			Out:        out,
			Server:     client,
			IDs:        args,
			Query:      query,
			Picker:     picker,
			Episodes:   episodes,
			Json:       lo.Must(cmd.Flags().GetBool("json")),
			Streams:    lo.Must(cmd.Flags().GetBool("streams")),
			MaxBitrate: viper.GetInt(key.PlaybackMaxBitrate),
		}))
	},
}

func init() {
	inspectCmd.AddCommand(inspectSchemaCmd)
}

var inspectSchemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON schema of the inspect output",
	Run: func(cmd *cobra.Command, args []string) {
		handleErr(json.NewEncoder(os.Stdout).Encode(inline.Schema()))
	},
}
