package tui

import (
	tea "github.com/charmbracelet/bubbletea"
)

func (b *statefulBubble) Init() tea.Cmd {
	return tea.Batch(b.spinnerC.Tick, b.waitForSnapshot(), b.open())
}

// open hands the initial items to the controller. A failure here is fatal
// for the surface.
func (b *statefulBubble) open() tea.Cmd {
	items, index, shuffle := b.options.Items, b.options.Index, b.options.Shuffle
	return func() tea.Msg {
		if len(items) == 0 {
			return nil
		}
		if err := b.controller.Open(items, index); err != nil {
			return err
		}
		if shuffle {
			if _, err := b.controller.ToggleShuffle(); err != nil {
				return err
			}
		}
		return nil
	}
}
