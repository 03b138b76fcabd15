package tui

import (
	"fmt"

	bubblesKey "github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/reelix-cli/reelix/internal/ui"
	"github.com/reelix-cli/reelix/open"
	"github.com/reelix-cli/reelix/queue"
	"github.com/reelix-cli/reelix/session"
	"github.com/reelix-cli/reelix/stream"
	"github.com/reelix-cli/reelix/track"
	"github.com/samber/lo"
)

type snapshotMsg session.Snapshot

func (b *statefulBubble) waitForSnapshot() tea.Cmd {
	return func() tea.Msg {
		return snapshotMsg(<-b.snapshots)
	}
}

// run executes a controller command off the UI goroutine. Failures become
// notifications.
func (b *statefulBubble) run(fn func() error) tea.Cmd {
	return func() tea.Msg {
		if err := fn(); err != nil {
			return ui.NotificationMsg(err.Error())
		}
		return nil
	}
}

func (b *statefulBubble) move(fn func() (session.Outcome, error)) tea.Cmd {
	return func() tea.Msg {
		outcome, err := fn()
		if err != nil {
			return ui.NotificationMsg(err.Error())
		}
		return outcomeNotice(outcome)
	}
}

func outcomeNotice(outcome session.Outcome) tea.Msg {
	switch outcome {
	case session.Sibling:
		return ui.NotificationMsg("Looking for the next episode")
	case session.Exhausted:
		return ui.NotificationMsg("Nothing further to play")
	default:
		return nil
	}
}

func (b *statefulBubble) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	if uiCmd := b.notifier.Update(msg); uiCmd != nil {
		cmd = uiCmd
	}

	switch msg := msg.(type) {
	case error:
		b.raiseError(msg)
		return b, cmd
	case tea.WindowSizeMsg:
		b.resize(msg.Width, msg.Height)
	case spinner.TickMsg:
		var spinnerCmd tea.Cmd
		b.spinnerC, spinnerCmd = b.spinnerC.Update(msg)
		return b, tea.Batch(cmd, spinnerCmd)
	case snapshotMsg:
		return b, tea.Batch(cmd, b.apply(session.Snapshot(msg)), b.waitForSnapshot())
	case tea.KeyMsg:
		if bubblesKey.Matches(msg, b.keymap.forceQuit) {
			return b, tea.Quit
		}
	}

	var stateCmd tea.Cmd
	switch b.state {
	case loadingState:
		stateCmd = b.updateLoading(msg)
	case playerState:
		stateCmd = b.updatePlayer(msg)
	case queueState:
		stateCmd = b.updateQueue(msg)
	case tracksState:
		stateCmd = b.updateTracks(msg)
	case errorState:
		stateCmd = b.updateError(msg)
	}

	return b, tea.Batch(cmd, stateCmd)
}

// apply adopts a controller snapshot.
func (b *statefulBubble) apply(s session.Snapshot) tea.Cmd {
	previous := b.snapshot
	b.snapshot = s

	if s.Closed {
		return tea.Quit
	}

	if b.state == loadingState && (s.Current != nil || s.Err != nil) {
		b.setState(playerState)
	}

	b.refreshQueue()
	b.refreshTracks()

	switch {
	case s.Exhausted && !previous.Exhausted:
		return ui.Notify("Nothing further to play")
	case s.Err != nil && s.Err != previous.Err:
		return ui.Notify(fmt.Sprintf("Playback failed: %s", s.Err))
	}
	return nil
}

func (b *statefulBubble) refreshQueue() {
	items := lo.Map(b.snapshot.Queue, func(item *queue.Item, i int) list.Item {
		return &listItem{internal: item, marked: i == b.snapshot.Index}
	})
	b.queueC.SetItems(items)
}

func (b *statefulBubble) refreshTracks() {
	catalog := b.snapshot.Catalog
	selected := b.snapshot.Tracks

	items := make([]list.Item, 0, len(catalog.Audio)+len(catalog.Subtitle)+1)
	for _, t := range catalog.Audio {
		items = append(items, &listItem{internal: t, marked: t.Index == selected.Audio})
	}
	items = append(items, &listItem{internal: subtitlesOff, marked: selected.Subtitle == track.SubtitleOff})
	for _, t := range catalog.Subtitle {
		items = append(items, &listItem{internal: t, marked: t.Index == selected.Subtitle})
	}
	b.tracksC.SetItems(items)
}

func (b *statefulBubble) updateLoading(msg tea.Msg) tea.Cmd {
	if msg, ok := msg.(tea.KeyMsg); ok && bubblesKey.Matches(msg, b.keymap.quit) {
		return tea.Quit
	}
	return nil
}

func (b *statefulBubble) updatePlayer(msg tea.Msg) tea.Cmd {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return nil
	}

	c := b.controller
	k := b.keymap

	switch {
	case bubblesKey.Matches(keyMsg, k.quit):
		return tea.Quit
	case bubblesKey.Matches(keyMsg, k.playPause):
		return b.run(c.TogglePause)
	case bubblesKey.Matches(keyMsg, k.seekForward):
		return b.run(func() error { return c.SeekBy(b.options.SeekStep) })
	case bubblesKey.Matches(keyMsg, k.seekBackward):
		return b.run(func() error { return c.SeekBy(-b.options.SeekStep) })
	case bubblesKey.Matches(keyMsg, k.volumeUp):
		volume := b.snapshot.Playback.Volume + b.options.VolumeStep
		return b.run(func() error { return c.SetVolume(volume) })
	case bubblesKey.Matches(keyMsg, k.volumeDown):
		volume := b.snapshot.Playback.Volume - b.options.VolumeStep
		return b.run(func() error { return c.SetVolume(volume) })
	case bubblesKey.Matches(keyMsg, k.mute):
		return b.run(c.ToggleMute)
	case bubblesKey.Matches(keyMsg, k.next):
		return b.move(c.Next)
	case bubblesKey.Matches(keyMsg, k.previous):
		return b.move(c.Previous)
	case bubblesKey.Matches(keyMsg, k.nextChapter):
		return b.chapter(c.NextChapter)
	case bubblesKey.Matches(keyMsg, k.previousChapter):
		return b.chapter(c.PreviousChapter)
	case bubblesKey.Matches(keyMsg, k.cycleSubtitle):
		return b.run(c.CycleSubtitle)
	case bubblesKey.Matches(keyMsg, k.cycleAudio):
		return b.run(c.CycleAudio)
	case bubblesKey.Matches(keyMsg, k.repeat):
		return func() tea.Msg {
			mode, err := c.CycleRepeat()
			if err != nil {
				return ui.NotificationMsg(err.Error())
			}
			return ui.NotificationMsg("Repeat " + mode.String())
		}
	case bubblesKey.Matches(keyMsg, k.shuffle):
		return func() tea.Msg {
			on, err := c.ToggleShuffle()
			if err != nil {
				return ui.NotificationMsg(err.Error())
			}
			return ui.NotificationMsg("Shuffle " + lo.Ternary(on, "on", "off"))
		}
	case bubblesKey.Matches(keyMsg, k.retry):
		return b.run(c.Retry)
	case bubblesKey.Matches(keyMsg, k.openURL):
		current := b.snapshot.Current
		if current == nil || b.options.ItemPage == nil || current.URL != "" {
			return nil
		}
		page := b.options.ItemPage(current.ID)
		return b.run(func() error { return open.Start(page) })
	case bubblesKey.Matches(keyMsg, k.showQueue):
		b.queueC.Select(b.snapshot.Index)
		b.newState(queueState)
	case bubblesKey.Matches(keyMsg, k.showTracks):
		if b.snapshot.State.Settled() {
			b.newState(tracksState)
		}
	case bubblesKey.Matches(keyMsg, k.showHelp):
		b.helpC.ShowAll = !b.helpC.ShowAll
	}

	return nil
}

func (b *statefulBubble) chapter(fn func() (bool, error)) tea.Cmd {
	return func() tea.Msg {
		moved, err := fn()
		switch {
		case err != nil:
			return ui.NotificationMsg(err.Error())
		case !moved:
			return ui.NotificationMsg("No further chapter")
		default:
			return nil
		}
	}
}

func (b *statefulBubble) updateQueue(msg tea.Msg) tea.Cmd {
	c := b.controller
	k := b.keymap

	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		selected := b.queueC.Index()

		switch {
		case bubblesKey.Matches(keyMsg, k.back):
			b.previousState()
			return nil
		case bubblesKey.Matches(keyMsg, k.confirm):
			b.previousState()
			return b.run(func() error { return c.JumpTo(selected) })
		case bubblesKey.Matches(keyMsg, k.remove):
			return b.run(func() error { return c.Remove(selected) })
		case bubblesKey.Matches(keyMsg, k.moveUp):
			if selected == 0 {
				return nil
			}
			b.queueC.Select(selected - 1)
			return b.run(func() error { return c.Reorder(selected, selected-1) })
		case bubblesKey.Matches(keyMsg, k.moveDown):
			if selected >= len(b.queueC.Items())-1 {
				return nil
			}
			b.queueC.Select(selected + 1)
			return b.run(func() error { return c.Reorder(selected, selected+1) })
		case bubblesKey.Matches(keyMsg, k.playPause):
			return b.run(c.TogglePause)
		}
	}

	var cmd tea.Cmd
	b.queueC, cmd = b.queueC.Update(msg)
	return cmd
}

func (b *statefulBubble) updateTracks(msg tea.Msg) tea.Cmd {
	c := b.controller
	k := b.keymap

	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case bubblesKey.Matches(keyMsg, k.back):
			b.previousState()
			return nil
		case bubblesKey.Matches(keyMsg, k.confirm):
			item, ok := b.tracksC.SelectedItem().(*listItem)
			if !ok {
				return nil
			}
			b.previousState()

			switch t := item.internal.(type) {
			case track.Track:
				if t.Kind == track.Audio {
					return b.run(func() error { return c.SelectAudio(t.Index) })
				}
				return b.run(func() error { return c.SelectSubtitle(t.Index) })
			case string:
				return b.run(func() error { return c.SelectSubtitle(track.SubtitleOff) })
			}
			return nil
		}
	}

	var cmd tea.Cmd
	b.tracksC, cmd = b.tracksC.Update(msg)
	return cmd
}

func (b *statefulBubble) updateError(msg tea.Msg) tea.Cmd {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return nil
	}

	switch {
	case bubblesKey.Matches(keyMsg, b.keymap.quit):
		return tea.Quit
	case bubblesKey.Matches(keyMsg, b.keymap.back):
		b.lastError = nil
		if b.statesHistory.Len() == 0 {
			b.setState(playerState)
			return nil
		}
		b.previousState()
	}
	return nil
}

// busy reports whether a spinner should be shown.
func busy(s session.Snapshot) bool {
	return s.Busy || s.State == stream.Loading || s.State == stream.SwitchingTrack
}
