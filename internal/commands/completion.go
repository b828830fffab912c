// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"sort"
	"strings"
)

// =============================================================================
// COMPLETION TYPES
// =============================================================================

// Completion is one suggestion offered to the input line.
type Completion struct {
	Value       string // Text inserted on accept
	Display     string // Text shown in the menu
	Description string
	Score       int
}

// =============================================================================
// COMPLETER
// =============================================================================

// Completer handles tab completion for commands and arguments. It reads the
// registry's current snapshot on every call, so newly discovered commands
// show up without rebuilding it.
type Completer struct {
	registry *Registry
}

// NewCompleter creates a new completer with the given registry.
func NewCompleter(registry *Registry) *Completer {
	return &Completer{registry: registry}
}

// Complete returns completions for the given input at the cursor position.
func (c *Completer) Complete(input string, cursorPos int) []Completion {
	if c.registry == nil {
		return nil
	}
	if cursorPos >= 0 && cursorPos < len(input) {
		input = input[:cursorPos]
	}

	input = strings.TrimLeft(input, " \t")
	if !strings.HasPrefix(input, "/") {
		return nil
	}

	snap := c.registry.Snapshot()
	parts := splitCommandLine(strings.TrimPrefix(input, "/"))
	trailingSpace := strings.HasSuffix(input, " ")

	// Still typing the command name?
	if len(parts) == 0 {
		return completeCommands(snap, "")
	}
	if len(parts) == 1 && !trailingSpace {
		return completeCommands(snap, parts[0])
	}

	cmd, ok := snap.Lookup(parts[0])
	if !ok || len(cmd.ArgValues) == 0 {
		return nil
	}

	// Only the first argument has fixed values.
	argIndex := len(parts) - 2
	if trailingSpace {
		argIndex++
	}
	if argIndex != 0 {
		return nil
	}

	partial := ""
	if !trailingSpace && len(parts) > 1 {
		partial = parts[len(parts)-1]
	}
	return completeFromList(cmd.ArgValues, partial)
}

// =============================================================================
// COMMAND COMPLETION
// =============================================================================

// completeCommands returns completions for command names. Values carry the
// leading slash so they can replace the input line directly.
func completeCommands(snap *Snapshot, partial string) []Completion {
	var completions []Completion

	partial = strings.ToLower(partial)

	for _, cmd := range snap.Commands() {
		if strings.HasPrefix(strings.ToLower(cmd.Name), partial) {
			completions = append(completions, Completion{
				Value:       "/" + cmd.Name,
				Display:     "/" + cmd.Name,
				Description: cmd.Description,
				Score:       calculateScore(cmd.Name, partial),
			})
		}

		if cmd.AltName != "" && cmd.AltName != cmd.Name &&
			strings.HasPrefix(strings.ToLower(cmd.AltName), partial) {
			completions = append(completions, Completion{
				Value:       "/" + cmd.AltName,
				Display:     "/" + cmd.AltName + " -> /" + cmd.Name,
				Description: cmd.Description,
				Score:       calculateScore(cmd.AltName, partial) - 10, // Slightly lower score for alt names
			})
		}
	}

	sortCompletions(completions)
	return completions
}

// completeFromList returns completions from a list of strings.
func completeFromList(values []string, partial string) []Completion {
	var completions []Completion

	partial = strings.ToLower(partial)

	for _, value := range values {
		if strings.HasPrefix(strings.ToLower(value), partial) {
			completions = append(completions, Completion{
				Value:   value,
				Display: value,
				Score:   calculateScore(value, partial),
			})
		}
	}

	sortCompletions(completions)
	return completions
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// calculateScore calculates a match score for completion ranking.
// Higher score = better match.
func calculateScore(value, partial string) int {
	value = strings.ToLower(value)
	partial = strings.ToLower(partial)

	score := 100

	if value == partial {
		return score + 100
	}

	if strings.HasPrefix(value, partial) {
		score += 50
		// Shorter completions rank higher
		score += 20 - len(value)
	}

	score -= len(value) / 2

	return score
}

// sortCompletions sorts completions by score (descending), then alphabetically.
func sortCompletions(completions []Completion) {
	sort.SliceStable(completions, func(i, j int) bool {
		if completions[i].Score != completions[j].Score {
			return completions[i].Score > completions[j].Score
		}
		return completions[i].Value < completions[j].Value
	})
}

// =============================================================================
// COMPLETION NAVIGATION
// =============================================================================

// CompletionState holds the state for navigating completions.
type CompletionState struct {
	// Original input before completion
	OriginalInput string

	Completions []Completion

	// Selected index (-1 for none)
	Selected int

	Visible bool
}

// NewCompletionState creates a new completion state.
func NewCompletionState() *CompletionState {
	return &CompletionState{Selected: -1}
}

// Update updates the completion state with new completions. The first entry
// is selected.
func (cs *CompletionState) Update(input string, completions []Completion) {
	cs.OriginalInput = input
	cs.Completions = completions
	cs.Selected = 0
	cs.Visible = len(completions) > 0
}

// Next moves to the next completion.
func (cs *CompletionState) Next() {
	if len(cs.Completions) == 0 {
		return
	}
	cs.Selected = (cs.Selected + 1) % len(cs.Completions)
}

// Prev moves to the previous completion.
func (cs *CompletionState) Prev() {
	if len(cs.Completions) == 0 {
		return
	}
	cs.Selected--
	if cs.Selected < 0 {
		cs.Selected = len(cs.Completions) - 1
	}
}

// Accept returns the selected completion value, or empty if there are none.
func (cs *CompletionState) Accept() string {
	if cs.Selected < 0 || cs.Selected >= len(cs.Completions) {
		if len(cs.Completions) > 0 {
			return cs.Completions[0].Value
		}
		return ""
	}
	return cs.Completions[cs.Selected].Value
}

// Clear clears the completion state.
func (cs *CompletionState) Clear() {
	cs.OriginalInput = ""
	cs.Completions = nil
	cs.Selected = -1
	cs.Visible = false
}

// GetSelected returns the currently selected completion, or nil.
func (cs *CompletionState) GetSelected() *Completion {
	if cs.Selected < 0 || cs.Selected >= len(cs.Completions) {
		return nil
	}
	return &cs.Completions[cs.Selected]
}
