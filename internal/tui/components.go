package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// renderHeader returns a styled header with an optional muted subtitle,
// both truncated to width.
func renderHeader(title, subtitle string, width int) string {
	rows := []string{HeaderStyle.Render(truncateEnd(title, width-2))}
	if subtitle != "" {
		rows = append(rows, renderMuted(truncateEnd(subtitle, width-2)))
	}
	return lipgloss.JoinVertical(lipgloss.Top, rows...)
}

// renderInputFrame draws a rounded border around an already rendered input.
func renderInputFrame(inputView string, focused bool, contentWidth int) string {
	borderColor := MutedColor
	if focused {
		borderColor = AccentColor
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(borderColor).
		Padding(0, 1).
		Width(contentWidth + 4).
		Render(inputView)
}

func renderCentered(width, height int, content string) string {
	return lipgloss.NewStyle().
		Width(width).
		Height(height).
		Align(lipgloss.Center, lipgloss.Center).
		Render(content)
}

func renderMuted(text string) string {
	return MutedStyle.Render(text)
}

func renderHelp(text string) string {
	return HelpStyle.Render(text)
}

// renderKeyTable lays out key bindings as two aligned columns.
func renderKeyTable(rows [][2]string) string {
	keyWidth := 0
	for _, r := range rows {
		if w := lipgloss.Width(r[0]); w > keyWidth {
			keyWidth = w
		}
	}
	lines := make([]string, 0, len(rows))
	for _, r := range rows {
		pad := strings.Repeat(" ", keyWidth-lipgloss.Width(r[0])+2)
		lines = append(lines, KeyStyle.Render(r[0])+pad+r[1])
	}
	return strings.Join(lines, "\n")
}

func renderSeparator(width int) string {
	if width < 1 {
		width = 1
	}
	return SeparatorStyle.Render(strings.Repeat("─", width))
}
