package style

import "github.com/charmbracelet/lipgloss"

// Player surface palette.
var (
	Text    = lipgloss.Color("#e0def4")
	Subtext = lipgloss.Color("#908caa")
	Surface = lipgloss.Color("#26233a")

	AccentColor  = lipgloss.Color("#eb6f92")
	SuccessColor = lipgloss.Color("#9ccfd8")
	WarningColor = lipgloss.Color("#f6c177")
	ErrorColor   = lipgloss.Color("#eb6f92")
	FaintColor   = lipgloss.Color("#6e6a86")
)
