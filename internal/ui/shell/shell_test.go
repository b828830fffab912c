// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package shell

import (
	"context"
	"sync/atomic"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/rigrun-shell/internal/approval"
	"github.com/jeranaias/rigrun-shell/internal/commands"
	"github.com/jeranaias/rigrun-shell/internal/config"
	"github.com/jeranaias/rigrun-shell/internal/ui/styles"
)

// countingSource returns one custom command named after the pass number.
type countingSource struct {
	calls atomic.Int32
}

func (s *countingSource) Discover(context.Context) []*commands.Command {
	n := s.calls.Add(1)
	name := "review"
	if n > 1 {
		name = "review2"
	}
	return []*commands.Command{{
		Name:        name,
		Description: "Review code",
		Kind:        commands.KindCustom,
		Action: func(_ context.Context, _ *commands.Context, args string) (commands.ActionResult, error) {
			return commands.SubmitPrompt("review " + args), nil
		},
	}}
}

func newTestModel(t *testing.T, cfg Config) Model {
	t.Helper()
	if cfg.Registry == nil {
		cfg.Registry = commands.NewRegistry()
	}
	if cfg.Approval == nil {
		cfg.Approval = approval.NewController(config.NewStore(nil))
	}
	cfg.Theme = styles.NewTheme("dark")
	m := New(context.Background(), cfg)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 30})
	return m
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	out, ok := next.(Model)
	require.True(t, ok, "Update returned %T", next)
	return out, cmd
}

// settle runs cmd and feeds its message back until nothing is left.
func settle(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	for cmd != nil {
		msg := cmd()
		if msg == nil {
			return m
		}
		if _, quit := msg.(tea.QuitMsg); quit {
			return m
		}
		m, cmd = update(t, m, msg)
	}
	return m
}

func submit(t *testing.T, m Model, input string) Model {
	t.Helper()
	m.input.SetValue(input)
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	return settle(t, m, cmd)
}

func lastItem(t *testing.T, m Model) *commands.HistoryItem {
	t.Helper()
	require.NotEmpty(t, m.History())
	return m.History()[len(m.History())-1]
}

// =============================================================================
// APPROVAL SHORTCUTS
// =============================================================================

func TestShell_ShiftTabCyclesMode(t *testing.T) {
	ctrl := approval.NewController(config.NewStore(nil))
	m := newTestModel(t, Config{Approval: ctrl})

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyShiftTab})
	assert.Nil(t, cmd)
	assert.Equal(t, approval.ModeAutoEdit, ctrl.Current())
	assert.Contains(t, m.View(), "AUTO_EDIT")

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyShiftTab})
	assert.Equal(t, approval.ModePlan, ctrl.Current())
	assert.Contains(t, m.View(), "PLAN")
}

func TestShell_CtrlYTogglesYolo(t *testing.T) {
	ctrl := approval.NewController(config.NewStore(nil))
	m := newTestModel(t, Config{Approval: ctrl})

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlY})
	assert.Equal(t, approval.ModeYolo, ctrl.Mirror())
	assert.Empty(t, m.input.Value(), "shortcut must not reach the input")
	assert.Contains(t, m.View(), "YOLO")

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlY})
	assert.Equal(t, approval.ModeDefault, ctrl.Mirror())
}

func TestShell_ShortcutWorksWithDialogOpen(t *testing.T) {
	ctrl := approval.NewController(config.NewStore(nil))
	m := newTestModel(t, Config{Approval: ctrl})

	m = submit(t, m, "/settings")
	require.Equal(t, commands.DialogSettings, m.Dialog())

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyShiftTab})
	assert.Equal(t, approval.ModeAutoEdit, ctrl.Current())
	assert.Equal(t, commands.DialogSettings, m.Dialog())
}

func TestShell_FocusRefreshesMirror(t *testing.T) {
	store := config.NewStore(nil)
	ctrl := approval.NewController(store)
	m := newTestModel(t, Config{Approval: ctrl})

	require.NoError(t, store.SetApprovalMode(approval.ModePlan))
	assert.Equal(t, approval.ModeDefault, ctrl.Mirror())

	m, _ = update(t, m, tea.FocusMsg{})
	assert.Equal(t, approval.ModePlan, ctrl.Mirror())
	assert.Contains(t, m.View(), "PLAN")
}

func TestShell_RefusedModeReportsError(t *testing.T) {
	cfg := config.Default()
	cfg.Approval.DisableYolo = true
	ctrl := approval.NewController(config.NewStore(cfg))
	m := newTestModel(t, Config{Approval: ctrl})

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlY})
	assert.Equal(t, approval.ModeDefault, ctrl.Mirror())

	item := lastItem(t, m)
	assert.Equal(t, commands.ItemError, item.Kind)
	assert.Contains(t, item.Text, "Approval mode unchanged")
}

// =============================================================================
// DISPATCH
// =============================================================================

func TestShell_HelpOpensDialog(t *testing.T) {
	m := newTestModel(t, Config{})

	m = submit(t, m, "/help")
	assert.Equal(t, commands.DialogHelp, m.Dialog())
	assert.Contains(t, m.View(), "/approval-mode")
	assert.Empty(t, m.input.Value())

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Empty(t, m.Dialog())
}

func TestShell_AltNameDispatch(t *testing.T) {
	m := newTestModel(t, Config{})
	m = submit(t, m, "?")
	// "?" has no slash, so it is a prompt, not a command.
	assert.Equal(t, commands.ItemUser, lastItem(t, m).Kind)

	m = submit(t, m, "/?")
	assert.Equal(t, commands.DialogHelp, m.Dialog())
}

func TestShell_UnknownCommand(t *testing.T) {
	m := newTestModel(t, Config{})

	m = submit(t, m, "/nope now")
	item := lastItem(t, m)
	assert.Equal(t, commands.ItemError, item.Kind)
	assert.Contains(t, item.Text, "Unknown command: /nope")
}

func TestShell_FailedCommand(t *testing.T) {
	m := newTestModel(t, Config{})

	m = submit(t, m, "/approval-mode sideways")
	item := lastItem(t, m)
	assert.Equal(t, commands.ItemError, item.Kind)
	assert.Contains(t, item.Text, "command /approval-mode failed")
	assert.Contains(t, item.Text, "sideways")
}

func TestShell_ApprovalModeCommand(t *testing.T) {
	ctrl := approval.NewController(config.NewStore(nil))
	m := newTestModel(t, Config{Approval: ctrl})

	m = submit(t, m, "/mode plan")
	assert.Equal(t, approval.ModePlan, ctrl.Current())
	assert.Contains(t, lastItem(t, m).Text, "PLAN")
	assert.Contains(t, m.View(), "PLAN")
}

func TestShell_PlainTextSubmitsPrompt(t *testing.T) {
	var got string
	m := newTestModel(t, Config{OnPrompt: func(prompt string) tea.Cmd {
		got = prompt
		return nil
	}})

	m = submit(t, m, "  explain this repo  ")
	assert.Equal(t, "explain this repo", got)
	item := lastItem(t, m)
	assert.Equal(t, commands.ItemUser, item.Kind)
	assert.Equal(t, "explain this repo", item.Text)
}

func TestShell_EmptyInputIgnored(t *testing.T) {
	m := newTestModel(t, Config{})
	m.input.SetValue("   ")
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.Empty(t, m.History())
}

func TestShell_ClearCommand(t *testing.T) {
	m := newTestModel(t, Config{})
	m = submit(t, m, "hello")
	m = submit(t, m, "/about")
	require.Len(t, m.History(), 2)

	m = submit(t, m, "/clear")
	require.Len(t, m.History(), 1)
	assert.Equal(t, commands.ItemClear, m.History()[0].Kind)
}

func TestShell_QuitCommand(t *testing.T) {
	m := newTestModel(t, Config{})
	m.input.SetValue("/exit")

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	m, cmd = update(t, m, cmd())
	require.NotNil(t, cmd)

	_, isQuit := cmd().(tea.QuitMsg)
	assert.True(t, isQuit)
	assert.True(t, m.Quitting())
	assert.Empty(t, m.View())
}

// =============================================================================
// DISCOVERY
// =============================================================================

func TestShell_InitialDiscovery(t *testing.T) {
	reg := commands.NewRegistry()
	var src countingSource
	m := newTestModel(t, Config{Registry: reg, Source: &src})

	m = settle(t, m, m.discover())
	_, ok := reg.Lookup("review")
	require.True(t, ok)

	var prompt string
	m.onPrompt = func(p string) tea.Cmd { prompt = p; return nil }
	m = submit(t, m, "/review main.go")
	assert.Equal(t, "review main.go", prompt)
	assert.Contains(t, m.View(), "1 custom")
}

func TestShell_StaleDiscoveryDiscarded(t *testing.T) {
	reg := commands.NewRegistry()
	var src countingSource
	m := newTestModel(t, Config{Registry: reg, Source: &src})

	older := m.discover()
	newer := m.discover()

	// Run the older scan first so it sees the first file set, then deliver
	// the newer result before the older one.
	olderMsg := older()
	newerMsg := newer()
	m, _ = update(t, m, newerMsg)
	m, _ = update(t, m, olderMsg)

	_, ok := reg.Lookup("review2")
	assert.True(t, ok)
	_, ok = reg.Lookup("review")
	assert.False(t, ok, "older pass must not overwrite the newer one")
}

func TestShell_ReloadCommand(t *testing.T) {
	reg := commands.NewRegistry()
	var src countingSource
	m := newTestModel(t, Config{Registry: reg, Source: &src})

	m = submit(t, m, "/commands reload")
	assert.Contains(t, lastItem(t, m).Text, "Reloading")
	assert.Equal(t, int32(1), src.calls.Load())
	_, ok := reg.Lookup("review")
	assert.True(t, ok)
}

func TestShell_ReloadWithoutSource(t *testing.T) {
	m := newTestModel(t, Config{})
	m = submit(t, m, "/commands reload")
	assert.Equal(t, commands.ItemError, lastItem(t, m).Kind)
}

func TestShell_CommandsChangedMsg(t *testing.T) {
	reg := commands.NewRegistry()
	var src countingSource
	m := newTestModel(t, Config{Registry: reg, Source: &src})

	m, cmd := update(t, m, CommandsChangedMsg{Paths: []string{"/tmp/review.toml"}})
	require.NotNil(t, cmd)
	settle(t, m, cmd)

	_, ok := reg.Lookup("review")
	assert.True(t, ok)
}

// =============================================================================
// COMPLETION
// =============================================================================

func TestShell_TabSingleCompletion(t *testing.T) {
	m := newTestModel(t, Config{})
	m.input.SetValue("/he")
	m.input.CursorEnd()

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, "/help ", m.input.Value())
	assert.False(t, m.completion.Visible)
}

func TestShell_TabCyclesMenu(t *testing.T) {
	m := newTestModel(t, Config{})
	m.input.SetValue("/a")
	m.input.CursorEnd()

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	require.True(t, m.completion.Visible)
	require.Len(t, m.completion.Completions, 3)
	assert.Equal(t, "/auth", m.completion.GetSelected().Value)
	assert.Contains(t, m.View(), "/approval-mode")

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, "/about", m.completion.GetSelected().Value)

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd, "accepting a completion must not dispatch")
	assert.Equal(t, "/about ", m.input.Value())
	assert.False(t, m.completion.Visible)
}

func TestShell_TabArgumentCompletion(t *testing.T) {
	m := newTestModel(t, Config{})
	m.input.SetValue("/approval-mode y")
	m.input.CursorEnd()

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, "/approval-mode yolo ", m.input.Value())
}

func TestShell_EscClosesMenu(t *testing.T) {
	m := newTestModel(t, Config{})
	m.input.SetValue("/a")
	m.input.CursorEnd()

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	require.True(t, m.completion.Visible)
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, m.completion.Visible)
	assert.Equal(t, "/a", m.input.Value())
}

func TestApplyCompletion(t *testing.T) {
	tests := []struct {
		input, value, want string
	}{
		{"/he", "/help", "/help "},
		{"/commands re", "reload", "/commands reload "},
		{"/mode ", "yolo", "/mode yolo "},
		{"/x", "", "/x"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, applyCompletion(tt.input, tt.value), tt.input)
	}
}
