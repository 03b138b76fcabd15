package cmd

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"

	"github.com/charmbracelet/lipgloss"
	"github.com/reelix-cli/reelix/constant"
	"github.com/reelix-cli/reelix/icon"
	"github.com/reelix-cli/reelix/key"
	"github.com/reelix-cli/reelix/style"
	"github.com/spf13/viper"
)

// checkPlayer exits with an install hint when the player binary is missing.
func checkPlayer() {
	binary := viper.GetString(key.PlayerBinary)
	if _, err := exec.LookPath(binary); err != nil {
		fmt.Println(missingDependency(binary, runtime.GOOS))
		os.Exit(1)
	}
}

func installHint(dep, goos string) string {
	switch goos {
	case constant.Darwin:
		return "brew install " + dep
	case constant.Linux:
		return "sudo apt install " + dep
	case constant.Windows:
		return "scoop install " + dep
	case constant.Android:
		return "pkg install " + dep
	default:
		return ""
	}
}

func missingDependency(dep, goos string) string {
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(style.ErrorColor).
		Padding(1, 2).
		Margin(1, 0)

	title := style.New().Bold(true).Foreground(style.ErrorColor).Render(fmt.Sprintf("%s Missing dependency", icon.Get(icon.Fail)))
	body := style.New().Foreground(style.Text).Render(fmt.Sprintf("%q was not found in your PATH.", dep))

	suggestion := ""
	if hint := installHint(dep, goos); hint != "" {
		suggestion = fmt.Sprintf("\n\nTo install it, try running:\n  %s", style.New().Foreground(style.AccentColor).Bold(true).Render(hint))
	}

	return box.Render(lipgloss.JoinVertical(lipgloss.Left, title, "\n", body, suggestion))
}
