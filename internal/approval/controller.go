// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package approval

import (
	"fmt"
	"sync"
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/bubbles/key"
)

// =============================================================================
// CONFIGURATION PORT
// =============================================================================

// Port is the authoritative store of the current approval mode. The
// controller holds no persistent state of its own; everything else in the
// process must read the mode through the port, never from the mirror.
type Port interface {
	ApprovalMode() Mode
	SetApprovalMode(Mode) error
}

// ChangeFunc observes a successful transition.
type ChangeFunc func(from, to Mode)

// =============================================================================
// CONTROLLER
// =============================================================================

// Controller drives mode transitions from keyboard shortcuts and commands.
//
// Every transition is a read-modify-write against the port performed under
// c.mu, so two rapid key presses can never both compute their next mode from
// the same stale value. The mirror is refreshed only after the port accepted
// the write.
type Controller struct {
	port Port
	keys KeyMap

	mu        sync.Mutex
	mirror    atomic.Int32
	listeners []ChangeFunc
}

// Option configures a Controller.
type Option func(*Controller)

// WithKeyMap overrides the default shortcuts.
func WithKeyMap(km KeyMap) Option {
	return func(c *Controller) { c.keys = km }
}

// WithOnChange registers an observer fired after each successful transition.
func WithOnChange(fn ChangeFunc) Option {
	return func(c *Controller) {
		if fn != nil {
			c.listeners = append(c.listeners, fn)
		}
	}
}

// NewController creates a controller over port. The mirror is synchronized
// immediately so the first render shows the authoritative mode.
func NewController(port Port, opts ...Option) *Controller {
	c := &Controller{
		port: port,
		keys: DefaultKeyMap(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.Refresh()
	return c
}

// Current reads the authoritative mode from the port.
func (c *Controller) Current() Mode {
	return c.port.ApprovalMode()
}

// Mirror returns the cached display copy of the mode.
func (c *Controller) Mirror() Mode {
	return Mode(c.mirror.Load())
}

// Refresh re-reads the authoritative mode into the mirror. Call it whenever
// the mode may have changed out-of-band.
func (c *Controller) Refresh() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	m := c.port.ApprovalMode()
	c.mirror.Store(int32(m))
	return m
}

// KeyMap returns the shortcuts the controller reacts to.
func (c *Controller) KeyMap() KeyMap {
	return c.keys
}

// Cycle advances DEFAULT -> AUTO_EDIT -> PLAN -> DEFAULT (YOLO -> DEFAULT).
func (c *Controller) Cycle() (Mode, error) {
	return c.transition(NextCycle)
}

// Toggle flips between YOLO and DEFAULT.
func (c *Controller) Toggle() (Mode, error) {
	return c.transition(NextToggle)
}

// Set moves directly to m.
func (c *Controller) Set(m Mode) (Mode, error) {
	if !m.Valid() {
		return c.Current(), fmt.Errorf("invalid approval mode %d", int(m))
	}
	return c.transition(func(Mode) Mode { return m })
}

// HandleKey applies the shortcut bound to msg, if any. consumed is false when
// the key is not a mode shortcut and should be passed on to text input.
func (c *Controller) HandleKey(msg tea.KeyMsg) (mode Mode, consumed bool, err error) {
	switch {
	case key.Matches(msg, c.keys.ToggleYolo):
		mode, err = c.Toggle()
		return mode, true, err
	case key.Matches(msg, c.keys.CycleMode):
		mode, err = c.Cycle()
		return mode, true, err
	}
	return c.Mirror(), false, nil
}

// transition performs one serialized read-modify-write.
func (c *Controller) transition(next func(Mode) Mode) (Mode, error) {
	c.mu.Lock()
	from := c.port.ApprovalMode()
	to := next(from)
	if err := c.port.SetApprovalMode(to); err != nil {
		// The port kept its value; resync the mirror to it.
		c.mirror.Store(int32(c.port.ApprovalMode()))
		c.mu.Unlock()
		return from, fmt.Errorf("set approval mode %s: %w", to, err)
	}
	c.mirror.Store(int32(to))
	listeners := c.listeners
	c.mu.Unlock()

	if from != to {
		for _, fn := range listeners {
			fn(from, to)
		}
	}
	return to, nil
}
