// Package tui is the terminal player surface. It renders controller
// snapshots and turns key presses into controller commands.
package tui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/reelix-cli/reelix/queue"
	"github.com/reelix-cli/reelix/session"
)

// Options configure the player surface.
type Options struct {
	Controller *session.Controller

	// Items are opened when the surface starts, beginning with Index.
	Items []*queue.Item
	Index int
	// Shuffle shuffles the queue once it is open.
	Shuffle bool

	// ItemPage returns the web page of an item, for "open in browser".
	ItemPage func(id string) string

	SeekStep   float64
	VolumeStep int
}

// Run shows the player until the user quits. The controller is left open.
func Run(options *Options) error {
	bubble := newBubble(options)
	defer bubble.unsubscribe()

	_, err := tea.NewProgram(bubble, tea.WithAltScreen()).Run()
	return err
}
