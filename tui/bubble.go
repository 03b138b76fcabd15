package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/help"
	bubblesKey "github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/lipgloss"
	"github.com/reelix-cli/reelix/internal/ui"
	"github.com/reelix-cli/reelix/session"
	"github.com/reelix-cli/reelix/style"
	"github.com/reelix-cli/reelix/util"
	"github.com/samber/lo"
)

type statefulBubble struct {
	state         state
	statesHistory util.Stack[state]

	keymap *statefulKeymap

	spinnerC  spinner.Model
	progressC progress.Model
	helpC     help.Model
	queueC    list.Model
	tracksC   list.Model

	controller  *session.Controller
	snapshots   chan session.Snapshot
	unsubscribe func()
	snapshot    session.Snapshot

	lastError error
	notifier  *ui.Model

	width, height int

	options *Options
}

func (b *statefulBubble) raiseError(err error) {
	b.lastError = err
	b.newState(errorState)
}

func (b *statefulBubble) setState(s state) {
	b.state = s
	b.keymap.setState(s)
}

func (b *statefulBubble) newState(s state) {
	if b.state == s {
		return
	}

	if !lo.Contains([]state{loadingState, errorState}, b.state) {
		b.statesHistory.Push(b.state)
	}

	b.setState(s)
}

func (b *statefulBubble) previousState() {
	if b.statesHistory.Len() > 0 {
		b.setState(b.statesHistory.Pop())
	}
}

func (b *statefulBubble) resize(width, height int) {
	x, y := paddingStyle.GetFrameSize()
	xx, yy := listExtraPaddingStyle.GetFrameSize()

	listWidth := width - xx
	listHeight := height - yy

	b.queueC.SetSize(listWidth, listHeight)
	b.queueC.Help.Width = listWidth
	b.tracksC.SetSize(listWidth, listHeight)
	b.tracksC.Help.Width = listWidth

	b.width = width - x
	b.height = height - y
	b.progressC.Width = b.width
	b.helpC.Width = listWidth
}

func newBubble(options *Options) *statefulBubble {
	if options.SeekStep <= 0 {
		options.SeekStep = 10
	}
	if options.VolumeStep <= 0 {
		options.VolumeStep = 5
	}

	bubble := &statefulBubble{
		statesHistory: util.Stack[state]{},
		keymap:        newStatefulKeymap(),
		controller:    options.Controller,
		snapshots:     make(chan session.Snapshot, 1),
		notifier:      &ui.Model{},
		options:       options,
	}

	bubble.unsubscribe = options.Controller.Subscribe(bubble.receive)

	makeList := func(title string, bg lipgloss.Color) list.Model {
		delegate := list.NewDefaultDelegate()
		delegate.Styles.SelectedTitle = lipgloss.NewStyle().
			Border(lipgloss.ThickBorder(), false, false, false, true).
			BorderForeground(style.AccentColor).
			Foreground(style.AccentColor).
			Padding(0, 0, 0, 1)
		delegate.Styles.NormalTitle = delegate.Styles.NormalTitle.Foreground(lipgloss.Color("7"))
		delegate.Styles.SelectedDesc = delegate.Styles.SelectedTitle

		listC := list.New([]list.Item{}, delegate, 0, 0)
		listC.KeyMap = bubble.keymap.forList()
		listC.AdditionalShortHelpKeys = bubble.keymap.ShortHelp
		listC.AdditionalFullHelpKeys = func() []bubblesKey.Binding {
			return bubble.keymap.FullHelp()[0]
		}
		listC.Title = title
		listC.Styles.Title = lipgloss.NewStyle().Foreground(style.Surface).Background(bg).Padding(0, 1)
		listC.Styles.NoItems = paddingStyle
		listC.StatusMessageLifetime = time.Hour * 999
		listC.SetShowPagination(false)
		listC.SetShowStatusBar(false)
		listC.SetFilteringEnabled(false)
		return listC
	}

	bubble.helpC = help.New()

	bubble.spinnerC = spinner.New()
	bubble.spinnerC.Spinner = spinner.Dot
	bubble.spinnerC.Style = lipgloss.NewStyle().Foreground(style.AccentColor)

	bubble.progressC = progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage())

	bubble.queueC = makeList("Queue", style.WarningColor)
	bubble.queueC.SetStatusBarItemName("item", "items")

	bubble.tracksC = makeList("Tracks", style.SuccessColor)
	bubble.tracksC.SetStatusBarItemName("track", "tracks")

	if w, h, err := util.TerminalSize(); err == nil {
		bubble.resize(w, h)
	}

	bubble.setState(loadingState)
	return bubble
}

// receive runs on the controller loop. Only the latest snapshot is kept.
func (b *statefulBubble) receive(s session.Snapshot) {
	select {
	case <-b.snapshots:
	default:
	}
	b.snapshots <- s
}
