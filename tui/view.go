package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/truncate"
	"github.com/muesli/reflow/wrap"
	"github.com/reelix-cli/reelix/chapter"
	"github.com/reelix-cli/reelix/color"
	"github.com/reelix-cli/reelix/icon"
	"github.com/reelix-cli/reelix/queue"
	"github.com/reelix-cli/reelix/session"
	"github.com/reelix-cli/reelix/stream"
	"github.com/reelix-cli/reelix/style"
	"github.com/reelix-cli/reelix/ticks"
	"github.com/reelix-cli/reelix/track"
)

var (
	listExtraPaddingStyle = lipgloss.NewStyle().Padding(1, 2, 1, 0)
	paddingStyle          = lipgloss.NewStyle().Padding(1, 2)
)

func (b *statefulBubble) View() string {
	var output string

	switch b.state {
	case loadingState:
		output = b.viewLoading()
	case playerState:
		output = b.viewPlayer()
	case queueState:
		output = listExtraPaddingStyle.Render(b.queueC.View())
	case tracksState:
		output = listExtraPaddingStyle.Render(b.tracksC.View())
	case errorState:
		output = b.viewError()
	default:
		output = "Unknown state"
	}

	return b.notifier.View(output)
}

func (b *statefulBubble) viewLoading() string {
	return b.renderLines(
		true,
		[]string{
			style.Title("Loading"),
			"",
			b.spinnerC.View() + " Opening",
		},
	)
}

func (b *statefulBubble) viewPlayer() string {
	s := b.snapshot
	clip := func(line string) string {
		if b.width <= 0 {
			return line
		}
		return truncate.StringWithTail(line, uint(b.width), "…")
	}

	lines := []string{style.Title("Now Playing"), ""}

	if s.Current == nil {
		lines = append(lines, style.Faint("Nothing queued"))
	} else {
		lines = append(lines, clip(playIcon(s)+" "+style.Bold(s.Current.Title)))
		if s.Current.Subtitle != "" {
			lines = append(lines, clip(style.Fg(color.Purple)(s.Current.Subtitle)))
		}
	}

	lines = append(lines,
		"",
		b.progressC.ViewAs(fraction(s.Playback.CurrentTime, s.Playback.Duration)),
		clip(timeline(s.Playback.CurrentTime, s.Playback.Duration)+"  "+position(s)),
		"",
	)

	if label := chapterLabel(s.Chapters, s.Chapter); label != "" {
		lines = append(lines, clip(icon.Get(icon.Chapter)+" "+label))
	}

	lines = append(lines,
		clip(icon.Get(icon.Audio)+" "+audioLabel(s.Catalog, s.Tracks)),
		clip(icon.Get(icon.Subtitle)+" "+subtitleLabel(s.Catalog, s.Tracks)),
		clip(modeLine(s.Playback)),
	)

	switch {
	case s.Err != nil:
		lines = append(lines, "", wrap.String(style.Fg(style.ErrorColor)(icon.Get(icon.Fail)+" "+s.Err.Error()), b.width))
	case busy(s):
		lines = append(lines, "", b.spinnerC.View()+" "+busyLabel(s))
	case s.Exhausted:
		lines = append(lines, "", style.Faint("End of queue"))
	}

	return b.renderLines(true, lines)
}

func (b *statefulBubble) viewError() string {
	errorStyle := lipgloss.NewStyle().Foreground(style.ErrorColor).Bold(true)
	var body string
	if b.lastError != nil {
		body = b.lastError.Error()
	}
	errorMsg := wrap.String(errorStyle.Render(body), b.width)
	return b.renderLines(
		true,
		[]string{
			style.ErrorTitle("Error"),
			"",
			icon.Get(icon.Fail) + " An error occurred:",
			"",
			errorMsg,
		},
	)
}

func (b *statefulBubble) renderLines(addHelp bool, lines []string) string {
	h := len(lines)
	l := strings.Join(lines, "\n")
	if addHelp {
		if b.height > h {
			l += strings.Repeat("\n", b.height-h)
		}
		l += b.helpC.View(b.keymap)
	}

	return paddingStyle.Render(l)
}

func playIcon(s session.Snapshot) string {
	if s.Playback.Playing {
		return icon.Get(icon.Play)
	}
	return icon.Get(icon.Pause)
}

// fraction is the played share of the item, in [0, 1].
func fraction(current, duration float64) float64 {
	if duration <= 0 || current <= 0 {
		return 0
	}
	return min(current/duration, 1)
}

// timeline renders "current / duration". An unknown duration renders as --:--.
func timeline(current, duration float64) string {
	if duration <= 0 {
		return ticks.Format(current) + " / --:--"
	}
	return ticks.Format(current) + " / " + ticks.Format(duration)
}

func position(s session.Snapshot) string {
	if len(s.Queue) < 2 {
		return ""
	}
	return style.Faint(fmt.Sprintf("%d of %d", s.Index+1, len(s.Queue)))
}

// chapterLabel names the current chapter. Unnamed chapters are numbered.
func chapterLabel(marks []chapter.Mark, current int) string {
	if current < 0 || current >= len(marks) {
		return ""
	}
	name := marks[current].Name
	if name == "" {
		name = fmt.Sprintf("Chapter %d", current+1)
	}
	return fmt.Sprintf("%s (%d/%d)", name, current+1, len(marks))
}

func audioLabel(catalog track.Catalog, selected session.TrackSelection) string {
	t, ok := catalog.AudioByIndex(selected.Audio).Get()
	if !ok {
		return style.Faint("none")
	}
	return t.Label
}

func subtitleLabel(catalog track.Catalog, selected session.TrackSelection) string {
	if selected.Subtitle == track.SubtitleOff {
		return style.Faint("off")
	}
	t, ok := catalog.SubtitleByIndex(selected.Subtitle).Get()
	if !ok {
		return style.Faint("off")
	}
	return t.Label
}

func repeatLabel(mode queue.RepeatMode) string {
	switch mode {
	case queue.RepeatOne:
		return icon.Get(icon.RepeatOne) + " one"
	case queue.RepeatAll:
		return icon.Get(icon.Repeat) + " all"
	default:
		return style.Faint(icon.Get(icon.Repeat) + " off")
	}
}

func volumeLabel(p session.PlaybackState) string {
	if p.Muted {
		return icon.Get(icon.Mute) + " muted"
	}
	return fmt.Sprintf("%s %d%%", icon.Get(icon.Volume), p.Volume)
}

func modeLine(p session.PlaybackState) string {
	shuffle := style.Faint(icon.Get(icon.Shuffle) + " off")
	if p.Shuffle {
		shuffle = icon.Get(icon.Shuffle) + " on"
	}
	return strings.Join([]string{repeatLabel(p.Repeat), shuffle, volumeLabel(p)}, "   ")
}

func busyLabel(s session.Snapshot) string {
	switch s.State {
	case stream.Loading:
		return "Loading"
	case stream.SwitchingTrack:
		return "Switching track"
	default:
		return "Looking for the next episode"
	}
}
