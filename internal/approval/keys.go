// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package approval

import (
	"github.com/charmbracelet/bubbles/key"
)

// KeyMap holds the approval-mode shortcuts.
type KeyMap struct {
	ToggleYolo key.Binding
	CycleMode  key.Binding
}

// DefaultKeyMap returns ctrl+y for the YOLO toggle and shift+tab for the
// three-state cycle.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		ToggleYolo: key.NewBinding(
			key.WithKeys("ctrl+y"),
			key.WithHelp("C-y", "toggle yolo"),
		),
		CycleMode: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("S-Tab", "cycle approval mode"),
		),
	}
}

// ShortHelp implements help.KeyMap.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.CycleMode, k.ToggleYolo}
}

// FullHelp implements help.KeyMap.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}
