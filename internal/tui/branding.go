package tui

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/pders01/reel/internal/config"
)

const AppName = "reel"

var LogoLines = []string{
	"█▀▀▄ █▀▀▀ █▀▀▀ █   ",
	"█▄▄▀ █▀▀  █▀▀  █   ",
	"█  █ █▄▄▄ █▄▄▄ █▄▄▄",
}

const CompactLogo = `reel ›`

var BannerColors = []lipgloss.Color{
	lipgloss.Color("#FF6B6B"),
	lipgloss.Color("#FFA86B"),
	lipgloss.Color("#95E1D3"),
	lipgloss.Color("#4ECDC4"),
}

// Palette, overridable from the [ui.colors] config table.
var (
	PrimaryColor    = lipgloss.Color("#FF6B6B")
	SecondaryColor  = lipgloss.Color("#4ECDC4")
	AccentColor     = lipgloss.Color("#95E1D3")
	BackgroundColor = lipgloss.Color("#1A1A2E")
	SurfaceColor    = lipgloss.Color("#16213E")
	TextColor       = lipgloss.Color("#EAEAEA")
	MutedColor      = lipgloss.Color("#94A3B8")
	ErrorColor      = lipgloss.Color("#F87171")
	SuccessColor    = lipgloss.Color("#4ADE80")
	RatingColor     = lipgloss.Color("#FFE66D")
)

var (
	LogoStyle          lipgloss.Style
	TitleStyle         lipgloss.Style
	HeaderStyle        lipgloss.Style
	StatusBarStyle     lipgloss.Style
	HelpStyle          lipgloss.Style
	MutedStyle         lipgloss.Style
	RatingStyle        lipgloss.Style
	SeparatorStyle     lipgloss.Style
	ErrorMessageStyle  lipgloss.Style
	StatusInfoStyle    lipgloss.Style
	StatusSuccessStyle lipgloss.Style
	StatusWarnStyle    lipgloss.Style
	StatusErrorStyle   lipgloss.Style
	KeyStyle           lipgloss.Style
)

func init() {
	buildStyles()
}

func buildStyles() {
	LogoStyle = lipgloss.NewStyle().Foreground(PrimaryColor).Bold(true)
	TitleStyle = lipgloss.NewStyle().
		Foreground(TextColor).
		Background(SurfaceColor).
		Bold(true).
		Padding(0, 2)
	HeaderStyle = lipgloss.NewStyle().Foreground(SecondaryColor).Bold(true)
	StatusBarStyle = lipgloss.NewStyle().Foreground(MutedColor).Padding(0, 1)
	HelpStyle = lipgloss.NewStyle().Foreground(MutedColor).Italic(true)
	MutedStyle = lipgloss.NewStyle().Foreground(MutedColor)
	RatingStyle = lipgloss.NewStyle().Foreground(RatingColor)
	SeparatorStyle = lipgloss.NewStyle().Foreground(MutedColor)
	ErrorMessageStyle = lipgloss.NewStyle().Foreground(ErrorColor).Bold(true)
	StatusInfoStyle = lipgloss.NewStyle().Foreground(MutedColor)
	StatusSuccessStyle = lipgloss.NewStyle().Foreground(SuccessColor)
	StatusWarnStyle = lipgloss.NewStyle().Foreground(RatingColor)
	StatusErrorStyle = lipgloss.NewStyle().Foreground(ErrorColor).Bold(true)
	KeyStyle = lipgloss.NewStyle().Foreground(AccentColor).Bold(true)
}

// ApplyColors replaces the palette with the configured colors. Empty
// entries keep their current value.
func ApplyColors(c config.UIColors) {
	set := func(dst *lipgloss.Color, v string) {
		if v != "" {
			*dst = lipgloss.Color(v)
		}
	}
	set(&PrimaryColor, c.Primary)
	set(&SecondaryColor, c.Secondary)
	set(&AccentColor, c.Accent)
	set(&BackgroundColor, c.Background)
	set(&SurfaceColor, c.Surface)
	set(&TextColor, c.Text)
	set(&MutedColor, c.Muted)
	set(&ErrorColor, c.Error)
	set(&SuccessColor, c.Success)
	buildStyles()
}

func GetWelcomeMessage() string {
	return GetCompactBanner("Press ctrl+s to search, enter to open a movie")
}

func GetCompactBanner(message string) string {
	var coloredLines []string
	for _, line := range LogoLines {
		coloredLines = append(coloredLines, LogoStyle.Render(line))
	}

	return lipgloss.JoinVertical(
		lipgloss.Center,
		lipgloss.JoinVertical(lipgloss.Center, coloredLines...),
		"",
		HelpStyle.Render(message),
	)
}

// ShowBanner writes the startup banner to w.
func ShowBanner(w io.Writer, version string) {
	lines := append([]string{}, LogoLines...)
	lines = append(lines, "")

	tagline := "    Movie Browser"
	if version != "" && version != "dev" {
		if version[0] != 'v' && version[0] != 'V' {
			version = "v" + version
		}
		tagline += " " + version
	}
	lines = append(lines, tagline)

	var coloredLines []string
	for i, line := range lines {
		if line == "" {
			coloredLines = append(coloredLines, line)
			continue
		}
		style := lipgloss.NewStyle().
			Foreground(BannerColors[i%len(BannerColors)]).
			Bold(i < len(LogoLines))
		coloredLines = append(coloredLines, style.Render(line))
	}

	border := lipgloss.Border{
		Top:         "═",
		Bottom:      "═",
		Left:        "║",
		Right:       "║",
		TopLeft:     "╔",
		TopRight:    "╗",
		BottomLeft:  "╚",
		BottomRight: "╝",
	}

	banner := lipgloss.NewStyle().
		Border(border).
		BorderForeground(SecondaryColor).
		Padding(1, 3).
		MarginTop(1).
		Render(lipgloss.JoinVertical(lipgloss.Center, coloredLines...))

	fmt.Fprintln(w, lipgloss.NewStyle().Width(70).Align(lipgloss.Center).Render(banner))
	fmt.Fprintln(w, lipgloss.NewStyle().
		Width(70).
		Align(lipgloss.Center).
		MarginBottom(1).
		Render(lipgloss.NewStyle().Foreground(AccentColor).Render("◆ ◇ ◆ ◇ ◆")))
}
