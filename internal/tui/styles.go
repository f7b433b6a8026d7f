package tui

import (
	"github.com/charmbracelet/lipgloss"
)

var (
	ColorText    = lipgloss.AdaptiveColor{Light: "#1A1A1A", Dark: "#F8F8F2"}
	ColorSubtext = lipgloss.AdaptiveColor{Light: "#555555", Dark: "#BFBFBF"}
	ColorMuted   = lipgloss.AdaptiveColor{Light: "#666666", Dark: "#6272A4"}
	ColorPrimary = lipgloss.AdaptiveColor{Light: "#6B47D9", Dark: "#BD93F9"}
	ColorBorder  = lipgloss.AdaptiveColor{Light: "#D0D0D0", Dark: "#44475A"}
)

// heatPalette maps a normalized weight onto cold-to-hot backgrounds.
var heatPalette = []lipgloss.Color{"#1E3A5F", "#2E6F95", "#3FA7A0", "#E0A43A", "#D9534F"}

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(ColorPrimary)
	subtleStyle   = lipgloss.NewStyle().Foreground(ColorMuted)
	labelStyle    = lipgloss.NewStyle().Foreground(ColorSubtext)
	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(ColorText)
	emptyStyle    = lipgloss.NewStyle().Foreground(ColorMuted)
	selectedStyle = lipgloss.NewStyle().Bold(true).Reverse(true)
	panelStyle    = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(0, 1)
)

// heatStyle returns the cell style for a weight in [0,1].
func heatStyle(weight float64) lipgloss.Style {
	idx := int(weight * float64(len(heatPalette)))
	if idx >= len(heatPalette) {
		idx = len(heatPalette) - 1
	}
	if idx < 0 {
		idx = 0
	}
	return lipgloss.NewStyle().
		Background(heatPalette[idx]).
		Foreground(lipgloss.Color("#FFFFFF"))
}
