// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package approval

import (
	"fmt"
	"strings"
)

// =============================================================================
// MODE ENUM
// =============================================================================

// Mode is the autonomy level the assistant runs under.
type Mode int

const (
	// ModeDefault asks before every edit and every shell command.
	ModeDefault Mode = iota
	// ModeAutoEdit applies file edits without asking.
	ModeAutoEdit
	// ModePlan only plans; nothing is written or executed.
	ModePlan
	// ModeYolo runs everything without confirmation.
	ModeYolo
)

var modeNames = map[Mode]string{
	ModeDefault:  "default",
	ModeAutoEdit: "autoEdit",
	ModePlan:     "plan",
	ModeYolo:     "yolo",
}

var modeLabels = map[Mode]string{
	ModeDefault:  "DEFAULT",
	ModeAutoEdit: "AUTO_EDIT",
	ModePlan:     "PLAN",
	ModeYolo:     "YOLO",
}

// AllModes returns every mode in cycle order, YOLO last.
func AllModes() []Mode {
	return []Mode{ModeDefault, ModeAutoEdit, ModePlan, ModeYolo}
}

// String returns the config spelling of the mode (e.g. "autoEdit").
func (m Mode) String() string {
	if name, ok := modeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// Label returns the upper-case display label used in the footer.
func (m Mode) Label() string {
	if label, ok := modeLabels[m]; ok {
		return label
	}
	return "UNKNOWN"
}

// Valid reports whether m is one of the four defined modes.
func (m Mode) Valid() bool {
	_, ok := modeNames[m]
	return ok
}

// ParseMode parses a mode name. It accepts the config spelling, the display
// label, and a few common variants ("auto_edit", "auto-edit").
func ParseMode(s string) (Mode, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.NewReplacer("_", "", "-", "").Replace(norm)
	switch norm {
	case "default":
		return ModeDefault, nil
	case "autoedit":
		return ModeAutoEdit, nil
	case "plan":
		return ModePlan, nil
	case "yolo":
		return ModeYolo, nil
	}
	return ModeDefault, fmt.Errorf("unknown approval mode %q (valid: default, autoEdit, plan, yolo)", s)
}

// MarshalText implements encoding.TextMarshaler so modes serialize by name.
func (m Mode) MarshalText() ([]byte, error) {
	if !m.Valid() {
		return nil, fmt.Errorf("invalid approval mode %d", int(m))
	}
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Mode) UnmarshalText(text []byte) error {
	parsed, err := ParseMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// =============================================================================
// TRANSITIONS
// =============================================================================

// NextCycle returns the mode after a cycle-shortcut press.
// DEFAULT -> AUTO_EDIT -> PLAN -> DEFAULT. YOLO sits outside the cycle and
// falls through to DEFAULT.
func NextCycle(m Mode) Mode {
	switch m {
	case ModeDefault:
		return ModeAutoEdit
	case ModeAutoEdit:
		return ModePlan
	default:
		return ModeDefault
	}
}

// NextToggle returns the mode after a YOLO-toggle press. YOLO always goes
// back to DEFAULT, never to whatever mode preceded it.
func NextToggle(m Mode) Mode {
	if m == ModeYolo {
		return ModeDefault
	}
	return ModeYolo
}
