// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package shell

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/rigrun-shell/internal/commands"
)

// =============================================================================
// UPDATE
// =============================================================================

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg), nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.FocusMsg:
		// Another process may have changed the mode while we were away.
		if m.approval != nil {
			m.approval.Refresh()
		}
		return m, nil

	case discoveryMsg:
		return m.handleDiscovery(msg), nil

	case CommandsChangedMsg:
		m.logger.Debug("command files changed", "paths", len(msg.Paths))
		return m, m.discover()

	case outcomeMsg:
		return m.handleOutcome(msg)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleResize(msg tea.WindowSizeMsg) Model {
	m.width = msg.Width
	m.height = msg.Height
	m.ready = true

	m.input.Width = max(msg.Width-6, 10)
	m.viewport.Width = msg.Width
	m.viewport.Height = max(msg.Height-headerHeight-inputHeight-footerHeight, 1)
	m.refreshViewport()
	return m
}

// =============================================================================
// KEYS
// =============================================================================

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Mode shortcuts win over everything, including open dialogs.
	if m.approval != nil {
		mode, consumed, err := m.approval.HandleKey(msg)
		if consumed {
			if err != nil {
				m.appendItem(commands.NewHistoryItem(commands.ItemError, "Approval mode unchanged: "+err.Error()))
			} else {
				m.logger.Debug("approval mode changed", "mode", mode)
			}
			return m, nil
		}
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keys.Close):
		switch {
		case m.dialog != "":
			m.dialog = ""
		case m.completion.Visible:
			m.completion.Clear()
		}
		return m, nil
	}

	// An open dialog swallows everything else.
	if m.dialog != "" {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Complete):
		return m.handleComplete(), nil

	case key.Matches(msg, m.keys.CompletePrev) && m.completion.Visible:
		m.completion.Prev()
		return m, nil

	case key.Matches(msg, m.keys.Submit):
		if m.completion.Visible {
			m.input.SetValue(applyCompletion(m.completion.OriginalInput, m.completion.Accept()))
			m.input.CursorEnd()
			m.completion.Clear()
			return m, nil
		}
		return m.handleSubmit()

	case key.Matches(msg, m.keys.PageUp):
		m.viewport.ViewUp()
		return m, nil

	case key.Matches(msg, m.keys.PageDown):
		m.viewport.ViewDown()
		return m, nil

	case key.Matches(msg, m.keys.Clear):
		m.history = nil
		m.refreshViewport()
		return m, nil
	}

	// Anything typed invalidates the completion menu.
	m.completion.Clear()

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// handleComplete opens the completion menu, or cycles it when open. A single
// candidate is applied straight away.
func (m Model) handleComplete() Model {
	if m.completion.Visible {
		m.completion.Next()
		return m
	}

	value := m.input.Value()
	comps := m.completer.Complete(value, m.input.Position())
	switch len(comps) {
	case 0:
		return m
	case 1:
		m.input.SetValue(applyCompletion(value, comps[0].Value))
		m.input.CursorEnd()
	default:
		m.completion.Update(value, comps)
	}
	return m
}

// applyCompletion puts value into input. Command names carry their slash and
// replace the line; argument values replace the last word.
func applyCompletion(input, value string) string {
	if value == "" {
		return input
	}
	if strings.HasPrefix(value, "/") {
		return value + " "
	}
	i := strings.LastIndexAny(input, " \t")
	return input[:i+1] + value + " "
}

func (m Model) handleSubmit() (tea.Model, tea.Cmd) {
	value := strings.TrimSpace(m.input.Value())
	if value == "" {
		return m, nil
	}
	m.input.Reset()

	if commands.IsCommand(value) {
		return m, m.dispatch(value)
	}
	return m.applyResult(commands.SubmitPrompt(value))
}

// =============================================================================
// RESULTS
// =============================================================================

func (m Model) handleDiscovery(msg discoveryMsg) Model {
	if m.registry.ApplyDiscovery(msg.seq, msg.cmds) {
		m.logger.Debug("custom commands loaded", "seq", msg.seq, "count", len(msg.cmds))
	}
	return m
}

func (m Model) handleOutcome(msg outcomeMsg) (tea.Model, tea.Cmd) {
	out := msg.outcome
	switch out.Status {
	case commands.StatusNotFound:
		m.appendItem(commands.NewHistoryItem(commands.ItemError, "Unknown command: /"+out.Name+" (try /help)"))
		return m, nil

	case commands.StatusFailed:
		m.appendItem(commands.NewHistoryItem(commands.ItemError, out.Err.Error()))
		return m, nil
	}

	return m.applyResult(out.Result)
}

// applyResult carries out what an action asked for. Every variant is
// handled here and nowhere else.
func (m Model) applyResult(res commands.ActionResult) (tea.Model, tea.Cmd) {
	switch res.Type {
	case commands.ResultNone:
		return m, nil

	case commands.ResultDialog:
		m.dialog = res.Dialog
		m.completion.Clear()
		return m, nil

	case commands.ResultHistoryItem:
		if res.Item == nil {
			return m, nil
		}
		if res.Item.Kind == commands.ItemClear {
			m.history = nil
		}
		m.appendItem(res.Item)
		return m, nil

	case commands.ResultSubmitPrompt:
		m.appendItem(commands.NewHistoryItem(commands.ItemUser, res.Prompt))
		if m.onPrompt != nil {
			return m, m.onPrompt(res.Prompt)
		}
		return m, nil

	case commands.ResultQuit:
		m.quitting = true
		return m, tea.Quit

	case commands.ResultReloadCommands:
		if m.source == nil {
			m.appendItem(commands.NewHistoryItem(commands.ItemError, "Custom commands are not enabled."))
			return m, nil
		}
		m.appendItem(commands.NewHistoryItem(commands.ItemInfo, "Reloading custom commands..."))
		return m, m.discover()
	}

	m.logger.Warn("unhandled action result", "type", res.Type)
	return m, nil
}

func (m *Model) appendItem(item *commands.HistoryItem) {
	m.history = append(m.history, item)
	m.refreshViewport()
}

func (m *Model) refreshViewport() {
	m.viewport.SetContent(m.renderHistory())
	m.viewport.GotoBottom()
}
