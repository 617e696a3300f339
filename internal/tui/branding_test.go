package tui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"

	"github.com/pders01/reel/internal/config"
)

func TestShowBanner(t *testing.T) {
	var buf bytes.Buffer
	ShowBanner(&buf, "1.0.0-test")
	out := buf.String()

	if !strings.Contains(out, "Movie Browser") {
		t.Errorf("Expected banner to contain 'Movie Browser', got: %s", out)
	}
	if !strings.Contains(out, "╔") || !strings.Contains(out, "╝") {
		t.Errorf("Expected banner to contain border characters, got: %s", out)
	}
	if !strings.Contains(out, "◆") {
		t.Errorf("Expected banner to contain separator symbols, got: %s", out)
	}
	if !strings.Contains(out, "v1.0.0-test") {
		t.Errorf("Expected banner to contain version 'v1.0.0-test', got: %s", out)
	}
}

func TestShowBannerDevVersion(t *testing.T) {
	var buf bytes.Buffer
	ShowBanner(&buf, "dev")
	if strings.Contains(buf.String(), "vdev") {
		t.Errorf("dev builds should not print a version tag, got: %s", buf.String())
	}
}

func TestGetCompactBanner(t *testing.T) {
	message := "Test message"
	result := GetCompactBanner(message)

	if !strings.Contains(result, message) {
		t.Errorf("Expected compact banner to contain '%s', got: %s", message, result)
	}
	if !strings.Contains(result, "█▀▀▄") {
		t.Errorf("Expected compact banner to contain logo elements, got: %s", result)
	}
}

func TestGetWelcomeMessage(t *testing.T) {
	result := GetWelcomeMessage()
	if !strings.Contains(result, "ctrl+s to search") {
		t.Errorf("Expected welcome message to contain search instructions, got: %s", result)
	}
}

func TestApplyColors(t *testing.T) {
	saved := []lipgloss.Color{PrimaryColor, MutedColor, ErrorColor}
	t.Cleanup(func() {
		PrimaryColor, MutedColor, ErrorColor = saved[0], saved[1], saved[2]
		buildStyles()
	})

	ApplyColors(config.UIColors{Primary: "#000000", Error: "#111111"})

	if PrimaryColor != lipgloss.Color("#000000") {
		t.Errorf("Expected primary color to be replaced, got %s", PrimaryColor)
	}
	if ErrorColor != lipgloss.Color("#111111") {
		t.Errorf("Expected error color to be replaced, got %s", ErrorColor)
	}
	if MutedColor != saved[1] {
		t.Errorf("Expected empty entries to keep muted color %s, got %s", saved[1], MutedColor)
	}
	if LogoStyle.GetForeground() != lipgloss.Color("#000000") {
		t.Errorf("Expected styles to be rebuilt from the new palette")
	}
}
