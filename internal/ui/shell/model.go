// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package shell

import (
	"context"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/jeranaias/rigrun-shell/internal/approval"
	"github.com/jeranaias/rigrun-shell/internal/commands"
	"github.com/jeranaias/rigrun-shell/internal/logging"
	"github.com/jeranaias/rigrun-shell/internal/ui/styles"
)

// PromptFunc receives prompt text the user (or a custom command) submitted.
// The returned command runs on the Bubble Tea loop and may be nil.
type PromptFunc func(prompt string) tea.Cmd

// Config wires the shell to the rest of the program.
type Config struct {
	Registry *commands.Registry
	// Source is used for the startup discovery pass and every reload.
	// Nil disables discovery.
	Source   commands.Source
	Approval *approval.Controller
	Theme    *styles.Theme
	Logger   *log.Logger
	Version  string
	// ShowHints shows key hints in the footer.
	ShowHints bool
	OnPrompt  PromptFunc
}

// =============================================================================
// SHELL MODEL
// =============================================================================

// Model is the Bubble Tea model for the interactive shell.
type Model struct {
	ctx    context.Context
	theme  *styles.Theme
	keys   KeyMap
	logger *log.Logger

	// Dimensions
	width  int
	height int
	ready  bool

	// Components
	input    textinput.Model
	viewport viewport.Model
	help     help.Model

	// Conversation history, oldest first
	history []*commands.HistoryItem

	// Open dialog; empty when none
	dialog commands.DialogKind

	completion *commands.CompletionState

	// Command plumbing
	registry   *commands.Registry
	dispatcher *commands.Dispatcher
	completer  *commands.Completer
	source     commands.Source
	approval   *approval.Controller
	cmdCtx     *commands.Context
	onPrompt   PromptFunc

	showHints bool
	quitting  bool
}

// New creates the shell model. ctx bounds every discovery pass and dispatch.
func New(ctx context.Context, cfg Config) Model {
	if ctx == nil {
		ctx = context.Background()
	}
	if cfg.Registry == nil {
		cfg.Registry = commands.NewRegistry()
	}
	if cfg.Theme == nil {
		cfg.Theme = styles.NewTheme("auto")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	ti := textinput.New()
	ti.Placeholder = "Type a message or /help"
	ti.Prompt = "> "
	ti.PromptStyle = cfg.Theme.InputPrompt
	ti.Focus()

	vp := viewport.New(80, 20)

	return Model{
		ctx:        ctx,
		theme:      cfg.Theme,
		keys:       DefaultKeyMap(),
		logger:     logger,
		input:      ti,
		viewport:   vp,
		help:       help.New(),
		completion: commands.NewCompletionState(),
		registry:   cfg.Registry,
		dispatcher: commands.NewDispatcher(cfg.Registry, logger),
		completer:  commands.NewCompleter(cfg.Registry),
		source:     cfg.Source,
		approval:   cfg.Approval,
		cmdCtx: &commands.Context{
			Approval: cfg.Approval,
			Registry: cfg.Registry,
			Logger:   logger,
			Version:  cfg.Version,
		},
		onPrompt:  cfg.OnPrompt,
		showHints: cfg.ShowHints,
	}
}

// Init starts the first discovery pass off the update loop.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.discover())
}

// History returns the items currently shown.
func (m Model) History() []*commands.HistoryItem {
	return m.history
}

// Dialog returns the open dialog, or "" when none is open.
func (m Model) Dialog() commands.DialogKind {
	return m.dialog
}

// Quitting reports whether the shell asked the program to exit.
func (m Model) Quitting() bool {
	return m.quitting
}

// =============================================================================
// MESSAGES
// =============================================================================

// CommandsChangedMsg tells the shell that command files changed on disk.
// The watcher sends it through tea.Program.Send.
type CommandsChangedMsg struct {
	Paths []string
}

// discoveryMsg carries a finished discovery pass back to the loop.
type discoveryMsg struct {
	seq  uint64
	cmds []*commands.Command
}

// outcomeMsg carries a finished dispatch back to the loop.
type outcomeMsg struct {
	input   string
	outcome commands.Outcome
}

// =============================================================================
// COMMANDS
// =============================================================================

// discover reserves a sequence number now, so passes are ordered by when
// they were requested, and scans in a tea.Cmd.
func (m Model) discover() tea.Cmd {
	if m.source == nil {
		return nil
	}
	seq := m.registry.BeginDiscovery()
	src, ctx := m.source, m.ctx
	return func() tea.Msg {
		return discoveryMsg{seq: seq, cmds: src.Discover(ctx)}
	}
}

// dispatch runs input through the dispatcher in a tea.Cmd. Actions may
// block; the loop keeps rendering until the outcome arrives.
func (m Model) dispatch(input string) tea.Cmd {
	d, ctx, cc := m.dispatcher, m.ctx, m.cmdCtx
	return func() tea.Msg {
		return outcomeMsg{input: input, outcome: d.Dispatch(ctx, input, cc)}
	}
}
