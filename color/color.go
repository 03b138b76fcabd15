// Package color holds the terminal colours shared by the CLI and the player surface.
package color

import "github.com/charmbracelet/lipgloss"

// New wraps a colour value (ANSI index or hex).
func New(value string) lipgloss.Color {
	return lipgloss.Color(value)
}

var (
	Red    = New("1")
	Green  = New("2")
	Yellow = New("3")
	Blue   = New("4")
	Purple = New("5")
	Cyan   = New("6")
	White  = New("7")
	Gray   = New("8")
)

var (
	HiRed    = New("9")
	HiGreen  = New("10")
	HiBlue   = New("12")
	HiPurple = New("13")
)

// Accent is the brand colour of the player surface.
var Accent = New("#e85d75")
