package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/reelix-cli/reelix/icon"
	"github.com/reelix-cli/reelix/queue"
	"github.com/reelix-cli/reelix/style"
	"github.com/reelix-cli/reelix/ticks"
	"github.com/reelix-cli/reelix/track"
)

// listItem wraps a queue item or a track for the list component.
type listItem struct {
	internal any
	marked   bool
}

func (t *listItem) getMark() string {
	if !t.marked {
		return ""
	}
	return lipgloss.NewStyle().Bold(true).Foreground(style.AccentColor).Render(icon.Get(icon.Play))
}

func (t *listItem) Title() string {
	var sb strings.Builder

	switch e := t.internal.(type) {
	case *queue.Item:
		sb.WriteString(e.Title)
		if e.Subtitle != "" {
			sb.WriteString(" ")
			sb.WriteString(style.Faint(e.Subtitle))
		}
	case track.Track:
		sb.WriteString(trackIcon(e.Kind))
		sb.WriteString(" ")
		sb.WriteString(e.Label)
		if e.Delivery != "" {
			sb.WriteString(" ")
			sb.WriteString(style.Faint(strings.ToLower(e.Delivery)))
		}
	case string:
		sb.WriteString(e)
	}

	if mark := t.getMark(); mark != "" {
		sb.WriteString(" ")
		sb.WriteString(mark)
	}
	return sb.String()
}

func (t *listItem) Description() string {
	switch e := t.internal.(type) {
	case *queue.Item:
		if e.ResumeTicks > 0 {
			return fmt.Sprintf("resume at %s", ticks.Format(ticks.ToSeconds(e.ResumeTicks)))
		}
		return e.ID
	case track.Track:
		return strings.TrimSpace(strings.Join([]string{e.Language, e.Codec}, " "))
	default:
		return ""
	}
}

func (t *listItem) FilterValue() string {
	switch e := t.internal.(type) {
	case *queue.Item:
		return e.Title
	case track.Track:
		return e.Label
	case string:
		return e
	default:
		return ""
	}
}

func trackIcon(kind track.Kind) string {
	if kind == track.Subtitle {
		return icon.Get(icon.Subtitle)
	}
	return icon.Get(icon.Audio)
}

// subtitlesOff is the tracks list entry turning subtitles off.
const subtitlesOff = "Subtitles off"
