package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"path"
	"sync"
	"time"

	"github.com/AlecAivazis/survey/v2"
	"github.com/reelix-cli/reelix/chapter"
	"github.com/reelix-cli/reelix/constant"
	"github.com/reelix-cli/reelix/history"
	"github.com/reelix-cli/reelix/internal/cache"
	"github.com/reelix-cli/reelix/key"
	"github.com/reelix-cli/reelix/log"
	"github.com/reelix-cli/reelix/mediaserver"
	"github.com/reelix-cli/reelix/network"
	"github.com/reelix-cli/reelix/player"
	"github.com/reelix-cli/reelix/query"
	"github.com/reelix-cli/reelix/queue"
	"github.com/reelix-cli/reelix/script"
	"github.com/reelix-cli/reelix/session"
	"github.com/reelix-cli/reelix/stream"
	"github.com/reelix-cli/reelix/tui"
	"github.com/reelix-cli/reelix/util"
	"github.com/reelix-cli/reelix/where"
	"github.com/samber/lo"
	"github.com/samber/mo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	searchLimit = 20
	resumeLimit = 12
)

var errNothingToPlay = errors.New("nothing to play")

// library is the part of the media server that builds a queue.
type library interface {
	Item(ctx context.Context, id string) (*mediaserver.Item, error)
	Episodes(ctx context.Context, seriesID string) ([]*mediaserver.Item, error)
	Search(ctx context.Context, term string, limit int) ([]*mediaserver.Item, error)
	Resume(ctx context.Context, limit int) ([]*mediaserver.Item, error)
}

// playRequest is what the command line asked to play.
type playRequest struct {
	IDs       []string
	URLs      []string
	Query     string
	Resume    bool
	Latest    mo.Option[*history.Entry]
	FromStart bool
	Index     mo.Option[int]

	// Pick chooses among several server items. It defaults to the first.
	Pick func(items []*mediaserver.Item) (*mediaserver.Item, error)
	// Saved positions fill in items the server has no position for.
	Saved map[string]*history.Entry
	// Types receives the server type of every queued item.
	Types *cache.Store[string]
}

func pickFirst(items []*mediaserver.Item) (*mediaserver.Item, error) {
	return items[0], nil
}

// buildQueue resolves a play request into queue items and the index to start at.
func buildQueue(ctx context.Context, lib library, req playRequest) ([]*queue.Item, int, error) {
	var (
		serverItems []*mediaserver.Item
		items       []*queue.Item
		start       = mo.None[int]()
	)

	if req.Pick == nil {
		req.Pick = pickFirst
	}

	if entry, ok := req.Latest.Get(); ok {
		items = append(items, entry.Item())
	}

	choose := func(found []*mediaserver.Item, what string) error {
		if len(found) == 0 {
			return fmt.Errorf("%s: %w", what, errNothingToPlay)
		}
		choice, err := req.Pick(found)
		if err != nil {
			return err
		}
		serverItems = append(serverItems, choice)
		return nil
	}

	if req.Resume {
		found, err := lib.Resume(ctx, resumeLimit)
		if err != nil {
			return nil, 0, fmt.Errorf("continue watching: %w", err)
		}
		if err := choose(found, "continue watching"); err != nil {
			return nil, 0, err
		}
	}

	if req.Query != "" {
		found, err := lib.Search(ctx, req.Query, searchLimit)
		if err != nil {
			return nil, 0, fmt.Errorf("search %q: %w", req.Query, err)
		}
		if err := choose(found, fmt.Sprintf("no results for %q", req.Query)); err != nil {
			return nil, 0, err
		}
	}

	for _, id := range req.IDs {
		item, err := lib.Item(ctx, id)
		if err != nil {
			return nil, 0, fmt.Errorf("item %s: %w", id, err)
		}
		serverItems = append(serverItems, item)
	}

	for _, item := range serverItems {
		expanded, first, err := expandItem(ctx, lib, item)
		if err != nil {
			return nil, 0, err
		}
		if start.IsAbsent() && item.Type == mediaserver.TypeSeries {
			start = mo.Some(len(items) + first)
		}
		for _, e := range expanded {
			if req.Types != nil && e.Type != "" {
				_ = req.Types.Set(e.ID, e.Type)
			}
			items = append(items, queue.FromServer(e))
		}
	}

	for _, raw := range req.URLs {
		items = append(items, directItem(raw))
	}

	if len(items) == 0 {
		return nil, 0, errNothingToPlay
	}

	for _, item := range items {
		switch {
		case req.FromStart:
			item.ResumeTicks = 0
		case item.ResumeTicks == 0 && req.Saved != nil:
			if saved, ok := req.Saved[item.ID]; ok && !saved.Finished {
				item.ResumeTicks = saved.PositionTicks
			}
		}
	}

	index := start.OrEmpty()
	if i, ok := req.Index.Get(); ok {
		index = i
	}
	if index < 0 || index >= len(items) {
		return nil, 0, fmt.Errorf("start index %d out of range: %w", index, queue.ErrOutOfRange)
	}

	return items, index, nil
}

// expandItem replaces a series by its episodes. first is the first episode
// not marked as played.
func expandItem(ctx context.Context, lib library, item *mediaserver.Item) (items []*mediaserver.Item, first int, err error) {
	if item.Type != mediaserver.TypeSeries {
		return []*mediaserver.Item{item}, 0, nil
	}

	episodes, err := lib.Episodes(ctx, item.ID)
	if err != nil {
		return nil, 0, fmt.Errorf("episodes of %s: %w", item.Name, err)
	}
	if len(episodes) == 0 {
		return nil, 0, fmt.Errorf("%s: %w", item.Name, errNothingToPlay)
	}

	_, first, found := lo.FindIndexOf(episodes, func(e *mediaserver.Item) bool {
		return e.UserData == nil || !e.UserData.Played
	})
	if !found {
		first = 0
	}
	return episodes, first, nil
}

// directItem plays a URL as is, without a server session.
func directItem(raw string) *queue.Item {
	title := raw
	if u, err := url.Parse(raw); err == nil && u.Path != "" {
		title = lo.CoalesceOrEmpty(util.FileStem(path.Base(u.Path)), raw)
	}
	return &queue.Item{ID: raw, Title: title, URL: raw}
}

// surveyPick asks the user to choose among items.
func surveyPick(items []*mediaserver.Item) (*mediaserver.Item, error) {
	if len(items) == 1 {
		return items[0], nil
	}

	names := lo.Map(items, func(item *mediaserver.Item, _ int) string {
		return item.DisplayName()
	})

	var index int
	if err := survey.AskOne(&survey.Select{Message: "Play:", Options: names}, &index); err != nil {
		return nil, err
	}
	return items[index], nil
}

func sessionOptions() session.Options {
	maxBitrate := viper.GetInt(key.PlaybackMaxBitrate)

	options := session.Options{
		Autoplay:     viper.GetBool(key.PlaybackAutoplay),
		AutoContinue: viper.GetBool(key.PlaybackAutoContinue),
		MaxBitrate:   maxBitrate,
		Buffer: stream.BufferConfig{
			Ahead:  time.Duration(viper.GetInt(key.PlaybackBufferSeconds)) * time.Second,
			Behind: time.Duration(viper.GetInt(key.PlaybackBackBufferSecs)) * time.Second,
		},
		Engines:          stream.NoEngine,
		HeartbeatSeconds: viper.GetInt(key.PlaybackHeartbeatSeconds),
		ChapterRestart:   viper.GetFloat64(key.PlaybackChapterRestart),
	}

	if viper.GetBool(key.PlaybackAdaptiveEngine) {
		options.Engines = stream.HLSFactory(network.Client, maxBitrate)
	}

	if viper.GetBool(key.CachePersist) {
		options.Chapters = cache.Persistent[[]chapter.Mark](where.Chapters())
		options.ItemTypes = cache.Persistent[string](where.ItemTypes())
	} else {
		options.Chapters = cache.New[[]chapter.Mark]()
		options.ItemTypes = cache.New[string]()
	}

	if viper.GetBool(key.HistorySaveOnStop) {
		options.History = history.Recorder{}
	}

	return options
}

func registerPlayFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringP("search", "q", "", "Search the library and play the best match")
	flags.BoolP("pick", "p", false, "Choose among search results interactively")
	flags.BoolP("resume", "r", false, "Pick from the server's continue watching list")
	flags.BoolP("continue", "c", false, "Continue the last item played on this machine")
	flags.StringArrayP("url", "u", []string{}, "Play a stream URL directly, without the server")
	flags.Int("start", -1, "Queue index to start at")
	flags.Bool("from-start", false, "Ignore saved positions")
	flags.String("repeat", "", "Repeat mode: none, one or all")
	flags.Bool("shuffle", false, "Shuffle the queue after the first item")
	flags.String("attach", "", "Control an mpv already listening on this IPC socket")
	flags.Bool("no-tui", false, "Play without the terminal interface until the player exits")
	lo.Must0(cmd.RegisterFlagCompletionFunc("search", completionQueries))
}

func playRequestFrom(cmd *cobra.Command, args []string, types *cache.Store[string]) playRequest {
	flags := cmd.Flags()

	req := playRequest{
		IDs:       args,
		URLs:      lo.Must(flags.GetStringArray("url")),
		Query:     lo.Must(flags.GetString("search")),
		Resume:    lo.Must(flags.GetBool("resume")),
		FromStart: lo.Must(flags.GetBool("from-start")),
		Types:     types,
	}

	if start := lo.Must(flags.GetInt("start")); start >= 0 {
		req.Index = mo.Some(start)
	}

	if lo.Must(flags.GetBool("continue")) {
		req.Latest = history.Latest()
		if req.Latest.IsAbsent() {
			handleErr(errors.New("history is empty"))
		}
	}

	pick := lo.Must(flags.GetBool("pick")) && util.IsTerminal()
	if pick && req.empty() {
		req.Query = askQuery()
	}

	if pick {
		req.Pick = surveyPick
	} else if req.Query != "" {
		query := req.Query
		req.Pick = func(items []*mediaserver.Item) (*mediaserver.Item, error) {
			return mediaserver.FindClosest(items, query).OrEmpty(), nil
		}
	}

	if saved, err := history.Get(); err == nil {
		req.Saved = saved
	} else {
		log.Warnf("history: %s", err)
	}

	return req
}

func (r playRequest) empty() bool {
	return len(r.IDs) == 0 && len(r.URLs) == 0 && r.Query == "" && !r.Resume && r.Latest.IsAbsent()
}

// askQuery prompts for a search, suggesting earlier ones.
func askQuery() string {
	var q string
	err := survey.AskOne(&survey.Input{
		Message: "Search:",
		Suggest: query.SuggestMany,
	}, &q, survey.WithValidator(survey.Required))
	if err != nil {
		handleErr(err)
	}
	return q
}

func completionQueries(_ *cobra.Command, _ []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return query.SuggestMany(toComplete), cobra.ShellCompDirectiveNoFileComp
}

func runPlay(cmd *cobra.Command, args []string) {
	handleErr(play(cmd, args))
}

func play(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	options := sessionOptions()
	req := playRequestFrom(cmd, args, options.ItemTypes)

	anonymous := len(req.URLs) > 0 && len(req.IDs) == 0 && req.Query == "" && !req.Resume && req.Latest.IsAbsent()
	client, err := connect(anonymous)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	items, index, err := buildQueue(ctx, client, req)
	if err != nil {
		return err
	}

	if req.Query != "" {
		if err := query.Remember(req.Query, 1); err != nil {
			log.Warnf("remember search: %s", err)
		}
	}

	if viper.GetBool(key.ScriptsEnable) {
		chain, err := script.LoadDir(where.Scripts())
		if err != nil {
			return err
		}
		defer chain.Close()
		if chain.Len() > 0 {
			options.Rewriter = chain
		}
	}

	mpv, err := startPlayer(lo.Must(flags.GetString("attach")))
	if err != nil {
		return err
	}
	defer util.Ignore(mpv.Close)

	controller, err := session.New(mpv, client, options)
	if err != nil {
		return err
	}
	defer util.Ignore(controller.Close)

	go func() {
		<-mpv.Wait()
		util.Ignore(controller.Close)
	}()

	if err := controller.SetVolume(viper.GetInt(key.PlaybackVolume)); err != nil {
		return err
	}

	mode, err := queue.ParseRepeatMode(lo.CoalesceOrEmpty(lo.Must(flags.GetString("repeat")), viper.GetString(key.PlaybackRepeat)))
	if err != nil {
		return err
	}
	if err := controller.SetRepeat(mode); err != nil {
		return err
	}

	shuffle := lo.Must(flags.GetBool("shuffle"))

	if lo.Must(flags.GetBool("no-tui")) || !util.IsTerminal() {
		return playHeadless(ctx, controller, mpv, items, index, shuffle)
	}

	err = tui.Run(&tui.Options{
		Controller: controller,
		Items:      items,
		Index:      index,
		Shuffle:    shuffle,
		ItemPage:   client.ItemPage,
		SeekStep:   viper.GetFloat64(key.PlayerSeekStep),
		VolumeStep: viper.GetInt(key.PlayerVolumeStep),
	})
	if err != nil {
		return err
	}
	return controller.Close()
}

// playHeadless plays until the queue is exhausted, the player exits or the
// process is interrupted.
func playHeadless(ctx context.Context, controller *session.Controller, mpv *player.MPV, items []*queue.Item, index int, shuffle bool) error {
	done := make(chan struct{})
	var once sync.Once
	unsubscribe := controller.Subscribe(func(s session.Snapshot) {
		if s.Exhausted || s.Closed {
			once.Do(func() { close(done) })
		}
	})
	defer unsubscribe()

	if err := controller.Open(items, index); err != nil {
		return err
	}
	if shuffle {
		if _, err := controller.ToggleShuffle(); err != nil {
			return err
		}
	}

	select {
	case <-ctx.Done():
	case <-mpv.Wait():
	case <-done:
	}
	return controller.Close()
}

func startPlayer(socket string) (*player.MPV, error) {
	if socket != "" {
		return player.Attach(socket)
	}

	mpv := player.NewMPV(viper.GetString(key.PlayerBinary), viper.GetStringSlice(key.PlayerArgs)...)
	if err := mpv.Start(constant.Reelix); err != nil {
		return nil, err
	}
	return mpv, nil
}

func init() {
	rootCmd.AddCommand(playCmd)
	registerPlayFlags(playCmd)
}

var playCmd = &cobra.Command{
	Use:   "play [ids...]",
	Short: "Play library items, a search result or stream URLs",
	Example: `  reelix play 3f2a...            play an item or a whole series
  reelix play -q "night shift"   play the closest search match
  reelix play --resume --pick    choose from continue watching
  reelix play --pick             search interactively, suggesting earlier searches
  reelix play -u https://example.org/a.m3u8`,
	Run: runPlay,
}
