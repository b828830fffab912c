// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package approval

import (
	"errors"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memPort is an in-memory Port. refuse rejects writes of that mode.
type memPort struct {
	mu     sync.Mutex
	mode   Mode
	refuse map[Mode]bool
	writes int
}

func (p *memPort) ApprovalMode() Mode {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.mode
}

func (p *memPort) SetApprovalMode(m Mode) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.refuse[m] {
		return errors.New("refused")
	}
	p.mode = m
	p.writes++
	return nil
}

// =============================================================================
// PURE TRANSITIONS
// =============================================================================

func TestNextCycle(t *testing.T) {
	tests := []struct {
		from Mode
		want Mode
	}{
		{ModeDefault, ModeAutoEdit},
		{ModeAutoEdit, ModePlan},
		{ModePlan, ModeDefault},
		{ModeYolo, ModeDefault},
	}

	for _, tc := range tests {
		if got := NextCycle(tc.from); got != tc.want {
			t.Errorf("NextCycle(%s) = %s, want %s", tc.from, got, tc.want)
		}
	}
}

func TestNextToggle(t *testing.T) {
	for _, m := range []Mode{ModeDefault, ModeAutoEdit, ModePlan} {
		if got := NextToggle(m); got != ModeYolo {
			t.Errorf("NextToggle(%s) = %s, want yolo", m, got)
		}
	}
	if got := NextToggle(ModeYolo); got != ModeDefault {
		t.Errorf("NextToggle(yolo) = %s, want default", got)
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		input string
		want  Mode
		ok    bool
	}{
		{"default", ModeDefault, true},
		{"autoEdit", ModeAutoEdit, true},
		{"AUTO_EDIT", ModeAutoEdit, true},
		{"auto-edit", ModeAutoEdit, true},
		{" plan ", ModePlan, true},
		{"YOLO", ModeYolo, true},
		{"reckless", ModeDefault, false},
		{"", ModeDefault, false},
	}

	for _, tc := range tests {
		got, err := ParseMode(tc.input)
		if tc.ok && err != nil {
			t.Errorf("ParseMode(%q) unexpected error: %v", tc.input, err)
			continue
		}
		if !tc.ok && err == nil {
			t.Errorf("ParseMode(%q) expected error", tc.input)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseMode(%q) = %s, want %s", tc.input, got, tc.want)
		}
	}
}

// =============================================================================
// CONTROLLER
// =============================================================================

func TestController_ThreeCyclesReturnToDefault(t *testing.T) {
	port := &memPort{mode: ModeDefault}
	c := NewController(port)

	want := []Mode{ModeAutoEdit, ModePlan, ModeDefault}
	for i, w := range want {
		got, err := c.Cycle()
		require.NoError(t, err)
		assert.Equal(t, w, got, "press %d", i+1)
		assert.Equal(t, w, port.ApprovalMode(), "authoritative after press %d", i+1)
		assert.Equal(t, w, c.Mirror(), "mirror after press %d", i+1)
	}
}

func TestController_ToggleReturnsToDefaultNotPrevious(t *testing.T) {
	for _, start := range []Mode{ModeDefault, ModeAutoEdit, ModePlan} {
		port := &memPort{mode: start}
		c := NewController(port)

		got, err := c.Toggle()
		require.NoError(t, err)
		require.Equal(t, ModeYolo, got, "toggle from %s", start)

		got, err = c.Toggle()
		require.NoError(t, err)
		assert.Equal(t, ModeDefault, got, "second toggle from %s", start)
	}
}

func TestController_CycleFromYolo(t *testing.T) {
	c := NewController(&memPort{mode: ModeYolo})
	got, err := c.Cycle()
	require.NoError(t, err)
	assert.Equal(t, ModeDefault, got)
}

func TestController_InitialMirrorFromPort(t *testing.T) {
	c := NewController(&memPort{mode: ModePlan})
	assert.Equal(t, ModePlan, c.Mirror())
}

func TestController_ReadsAuthoritativeNotMirror(t *testing.T) {
	port := &memPort{mode: ModeDefault}
	c := NewController(port)

	// Changed behind the controller's back; the mirror is now stale.
	port.mode = ModePlan
	assert.Equal(t, ModeDefault, c.Mirror())

	got, err := c.Cycle()
	require.NoError(t, err)
	assert.Equal(t, ModeDefault, got, "PLAN cycles to DEFAULT")
}

func TestController_RefusedWriteKeepsMode(t *testing.T) {
	port := &memPort{mode: ModeAutoEdit, refuse: map[Mode]bool{ModeYolo: true}}
	c := NewController(port)

	got, err := c.Toggle()
	require.Error(t, err)
	assert.Equal(t, ModeAutoEdit, got)
	assert.Equal(t, ModeAutoEdit, port.ApprovalMode())
	assert.Equal(t, ModeAutoEdit, c.Mirror())
}

func TestController_Refresh(t *testing.T) {
	port := &memPort{mode: ModeDefault}
	c := NewController(port)
	port.mode = ModeYolo

	assert.Equal(t, ModeYolo, c.Refresh())
	assert.Equal(t, ModeYolo, c.Mirror())
}

func TestController_SetInvalid(t *testing.T) {
	port := &memPort{mode: ModePlan}
	c := NewController(port)

	_, err := c.Set(Mode(42))
	require.Error(t, err)
	assert.Equal(t, 0, port.writes)
}

func TestController_OnChange(t *testing.T) {
	var seen [][2]Mode
	c := NewController(&memPort{mode: ModeDefault}, WithOnChange(func(from, to Mode) {
		seen = append(seen, [2]Mode{from, to})
	}))

	_, _ = c.Cycle()
	_, _ = c.Toggle()
	_, _ = c.Set(ModeYolo) // no-op, not reported

	require.Len(t, seen, 2)
	assert.Equal(t, [2]Mode{ModeDefault, ModeAutoEdit}, seen[0])
	assert.Equal(t, [2]Mode{ModeAutoEdit, ModeYolo}, seen[1])
}

func TestController_HandleKey(t *testing.T) {
	port := &memPort{mode: ModeDefault}
	c := NewController(port)

	mode, consumed, err := c.HandleKey(tea.KeyMsg{Type: tea.KeyShiftTab})
	require.NoError(t, err)
	assert.True(t, consumed)
	assert.Equal(t, ModeAutoEdit, mode)

	mode, consumed, err = c.HandleKey(tea.KeyMsg{Type: tea.KeyCtrlY})
	require.NoError(t, err)
	assert.True(t, consumed)
	assert.Equal(t, ModeYolo, mode)

	mode, consumed, err = c.HandleKey(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("a")})
	require.NoError(t, err)
	assert.False(t, consumed)
	assert.Equal(t, ModeYolo, mode)
}

// Run with: go test -race ./internal/approval/
func TestController_ConcurrentCyclesSerialized(t *testing.T) {
	port := &memPort{mode: ModeDefault}
	c := NewController(port)

	const presses = 300
	var wg sync.WaitGroup
	for i := 0; i < presses; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = c.Cycle()
		}()
	}
	wg.Wait()

	// 300 is a multiple of the 3-state cycle; lost updates would break this.
	assert.Equal(t, ModeDefault, port.ApprovalMode())
	assert.Equal(t, presses, port.writes)
	assert.Equal(t, ModeDefault, c.Mirror())
}
