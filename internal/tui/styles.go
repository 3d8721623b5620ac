package tui

import (
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

var (
	// Colors
	colorPrimary   = lipgloss.Color("39")  // Blue
	colorSecondary = lipgloss.Color("245") // Gray
	colorError     = lipgloss.Color("196") // Red
	colorSuccess   = lipgloss.Color("76")  // Green
	colorWarning   = lipgloss.Color("214") // Orange
	colorMuted     = lipgloss.Color("240") // Dark gray

	// Styles
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary).
			MarginBottom(1)

	pathStyle = lipgloss.NewStyle().
			Foreground(colorSecondary)

	statsStyle = lipgloss.NewStyle().
			Foreground(colorSecondary).
			MarginBottom(1)

	currentStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255")).
			Bold(true)

	committedStyle = lipgloss.NewStyle().
			Foreground(colorSuccess)

	skippedStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	dryRunStyle = lipgloss.NewStyle().
			Foreground(colorWarning)

	failedStyle = lipgloss.NewStyle().
			Foreground(colorError).
			Bold(true)

	barFilledStyle = lipgloss.NewStyle().
			Foreground(colorPrimary)

	barEmptyStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	helpStyle = lipgloss.NewStyle().
			Foreground(colorMuted).
			MarginTop(1)
)

// FormatCount formats a count for display.
func FormatCount(n int) string {
	return humanize.Comma(int64(n))
}

// FormatRate formats files per second over elapsed.
func FormatRate(n int, elapsed time.Duration) string {
	if elapsed <= 0 || n == 0 {
		return "0/s"
	}
	return humanize.FormatFloat("#,###.#", float64(n)/elapsed.Seconds()) + "/s"
}
