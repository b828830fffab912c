// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme holds the styled components for the shell.
type Theme struct {
	IsDark       bool
	ColorProfile termenv.Profile

	Header      lipgloss.Style
	HeaderBrand lipgloss.Style

	// History
	UserItem  lipgloss.Style
	InfoItem  lipgloss.Style
	ErrorItem lipgloss.Style
	AboutItem lipgloss.Style
	Timestamp lipgloss.Style

	// Input and completion
	InputContainer     lipgloss.Style
	InputPrompt        lipgloss.Style
	CompletionItem     lipgloss.Style
	CompletionSelected lipgloss.Style
	CompletionDesc     lipgloss.Style

	// Dialog overlay
	DialogBox   lipgloss.Style
	DialogTitle lipgloss.Style
	DialogHint  lipgloss.Style

	// Footer
	StatusBar     lipgloss.Style
	ModeDefault   lipgloss.Style
	ModeAutoEdit  lipgloss.Style
	ModePlan      lipgloss.Style
	ModeYolo      lipgloss.Style
	ShortcutHints lipgloss.Style
}

// NewTheme creates a theme for the named appearance: "dark", "light" or
// "auto". Auto asks the terminal.
func NewTheme(appearance string) *Theme {
	profile := termenv.ColorProfile()

	var isDark bool
	switch strings.ToLower(appearance) {
	case "dark":
		isDark = true
		lipgloss.SetHasDarkBackground(true)
	case "light":
		lipgloss.SetHasDarkBackground(false)
	default:
		isDark = termenv.HasDarkBackground()
	}

	t := &Theme{IsDark: isDark, ColorProfile: profile}
	t.initStyles()
	return t
}

func (t *Theme) initStyles() {
	t.Header = lipgloss.NewStyle().
		Bold(true).
		Foreground(Cyan).
		Background(SurfaceDim).
		Padding(0, 1)

	t.HeaderBrand = lipgloss.NewStyle().
		Bold(true).
		Foreground(Purple)

	t.UserItem = lipgloss.NewStyle().
		Foreground(Cyan).
		Bold(true)

	t.InfoItem = lipgloss.NewStyle().
		Foreground(TextPrimary)

	t.ErrorItem = lipgloss.NewStyle().
		Foreground(Rose).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(Rose).
		BorderLeft(true).
		PaddingLeft(1)

	t.AboutItem = lipgloss.NewStyle().
		Foreground(TextSecondary).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Purple).
		Padding(0, 1)

	t.Timestamp = lipgloss.NewStyle().
		Foreground(TextMuted)

	t.InputContainer = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderTop(true).
		BorderForeground(Overlay).
		Padding(0, 1)

	t.InputPrompt = lipgloss.NewStyle().
		Foreground(Cyan).
		Bold(true)

	t.CompletionItem = lipgloss.NewStyle().
		Foreground(TextSecondary).
		PaddingLeft(2)

	t.CompletionSelected = lipgloss.NewStyle().
		Foreground(Purple).
		Bold(true).
		PaddingLeft(2)

	t.CompletionDesc = lipgloss.NewStyle().
		Foreground(TextMuted).
		Italic(true)

	t.DialogBox = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Purple).
		Padding(1, 2)

	t.DialogTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(Purple).
		MarginBottom(1)

	t.DialogHint = lipgloss.NewStyle().
		Foreground(TextMuted).
		Italic(true).
		MarginTop(1)

	t.StatusBar = lipgloss.NewStyle().
		Background(SurfaceDim).
		Foreground(TextSecondary).
		Padding(0, 1)

	t.ModeDefault = lipgloss.NewStyle().Foreground(Emerald).Bold(true)
	t.ModeAutoEdit = lipgloss.NewStyle().Foreground(Amber).Bold(true)
	t.ModePlan = lipgloss.NewStyle().Foreground(Purple).Bold(true)
	t.ModeYolo = lipgloss.NewStyle().Foreground(Rose).Bold(true).Reverse(true)

	t.ShortcutHints = lipgloss.NewStyle().
		Foreground(TextMuted)
}
