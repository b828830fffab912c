// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package shell

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/rigrun-shell/internal/approval"
	"github.com/jeranaias/rigrun-shell/internal/commands"
	"github.com/jeranaias/rigrun-shell/internal/util"
)

// Fixed chrome heights used to size the viewport.
const (
	headerHeight = 1
	inputHeight  = 2
	footerHeight = 1

	maxCompletionRows = 6
)

// =============================================================================
// VIEW
// =============================================================================

// View renders the shell.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	if m.dialog != "" && m.ready {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, m.renderDialog())
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteByte('\n')
	if m.dialog != "" {
		b.WriteString(m.renderDialog())
	} else {
		b.WriteString(m.viewport.View())
	}
	b.WriteByte('\n')
	if m.completion.Visible {
		b.WriteString(m.renderCompletions())
		b.WriteByte('\n')
	}
	b.WriteString(m.theme.InputContainer.Render(m.input.View()))
	b.WriteByte('\n')
	b.WriteString(m.renderFooter())
	return b.String()
}

func (m Model) renderHeader() string {
	snap := m.registry.Snapshot()
	custom := 0
	for _, cmd := range snap.Commands() {
		if cmd.Kind == commands.KindCustom {
			custom++
		}
	}
	title := m.theme.HeaderBrand.Render("rigrun")
	info := fmt.Sprintf(" %d commands, %d custom", snap.Len(), custom)
	return m.theme.Header.Render(title + info)
}

// renderFooter shows the approval mode from the controller's mirror, which
// never blocks on the settings port.
func (m Model) renderFooter() string {
	parts := []string{}
	if m.approval != nil {
		parts = append(parts, m.modeStyle(m.approval.Mirror()).Render(m.approval.Mirror().Label()))
	}
	if m.showHints {
		hints := m.keys.ShortHelp()
		if m.approval != nil {
			hints = append(hints, m.approval.KeyMap().ShortHelp()...)
		}
		parts = append(parts, m.help.ShortHelpView(hints))
	}
	return m.theme.StatusBar.Render(strings.Join(parts, "  "))
}

func (m Model) modeStyle(mode approval.Mode) lipgloss.Style {
	switch mode {
	case approval.ModeAutoEdit:
		return m.theme.ModeAutoEdit
	case approval.ModePlan:
		return m.theme.ModePlan
	case approval.ModeYolo:
		return m.theme.ModeYolo
	}
	return m.theme.ModeDefault
}

func (m Model) renderCompletions() string {
	comps := m.completion.Completions
	start := 0
	if m.completion.Selected >= maxCompletionRows {
		start = m.completion.Selected - maxCompletionRows + 1
	}
	end := min(start+maxCompletionRows, len(comps))

	lines := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		c := comps[i]
		line := c.Display
		if desc := util.FirstLine(c.Description); desc != "" {
			room := m.width - util.StringWidth(c.Display) - 6
			if room > 10 {
				line += "  " + m.theme.CompletionDesc.Render(util.TruncateWidth(desc, room))
			}
		}
		if i == m.completion.Selected {
			lines = append(lines, m.theme.CompletionSelected.Render(line))
		} else {
			lines = append(lines, m.theme.CompletionItem.Render(line))
		}
	}
	return strings.Join(lines, "\n")
}

// renderHistory renders every item, oldest first.
func (m Model) renderHistory() string {
	if len(m.history) == 0 {
		return m.theme.Timestamp.Render("No messages yet. Type /help to see commands.")
	}

	blocks := make([]string, 0, len(m.history))
	for _, item := range m.history {
		blocks = append(blocks, m.renderItem(item))
	}
	return strings.Join(blocks, "\n\n")
}

func (m Model) renderItem(item *commands.HistoryItem) string {
	stamp := m.theme.Timestamp.Render(item.Time.Format("15:04"))
	switch item.Kind {
	case commands.ItemUser:
		return stamp + " " + m.theme.UserItem.Render("> "+item.Text)
	case commands.ItemError:
		return m.theme.ErrorItem.Render(item.Text)
	case commands.ItemAbout:
		return m.theme.AboutItem.Render(item.Text)
	}
	return stamp + " " + m.theme.InfoItem.Render(item.Text)
}

// =============================================================================
// DIALOGS
// =============================================================================

var dialogTitles = map[commands.DialogKind]string{
	commands.DialogHelp:     "Help",
	commands.DialogEditor:   "Editor",
	commands.DialogPrivacy:  "Privacy",
	commands.DialogTheme:    "Theme",
	commands.DialogAuth:     "Authentication",
	commands.DialogSettings: "Settings",
}

func (m Model) renderDialog() string {
	title, ok := dialogTitles[m.dialog]
	if !ok {
		title = string(m.dialog)
	}

	var body string
	switch m.dialog {
	case commands.DialogHelp:
		body = m.helpText()
	case commands.DialogSettings:
		body = m.settingsText()
	default:
		body = fmt.Sprintf("The %s dialog has no options in this shell.", strings.ToLower(title))
	}

	content := m.theme.DialogTitle.Render(title) + "\n" + body + "\n" + m.theme.DialogHint.Render("Esc to close")
	return m.theme.DialogBox.Render(content)
}

func (m Model) helpText() string {
	all := m.registry.All()
	var b strings.Builder
	b.WriteString("Built-in commands\n")
	b.WriteString(commands.FormatCommandList(all, commands.KindBuiltIn))
	b.WriteString("\n\nCustom commands\n")
	b.WriteString(commands.FormatCommandList(all, commands.KindCustom))
	b.WriteString("\n\nKeys\n")

	groups := m.keys.FullHelp()
	if m.approval != nil {
		groups = append(groups, m.approval.KeyMap().ShortHelp())
	}
	b.WriteString(m.help.FullHelpView(groups))
	return b.String()
}

func (m Model) settingsText() string {
	var b strings.Builder
	if m.approval != nil {
		fmt.Fprintf(&b, "Approval mode: %s\n", m.approval.Current().Label())
	}
	fmt.Fprintf(&b, "Key hints: %t", m.showHints)
	return b.String()
}
