// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package approval implements the approval-mode state machine.
//
// The approval mode decides whether the assistant may edit files or run
// commands without asking first. It is safety critical, so the package keeps
// one rule above all others: the configuration Port is the only
// authoritative value. The Controller caches a mirror for rendering, but
// every transition reads the port, writes the port, and only then updates
// the mirror.
//
// # States
//
//   - ModeDefault: confirm everything
//   - ModeAutoEdit: edits proceed, commands are confirmed
//   - ModePlan: read-only planning
//   - ModeYolo: nothing is confirmed
//
// # Shortcuts
//
//   - shift+tab: DEFAULT -> AUTO_EDIT -> PLAN -> DEFAULT (from YOLO: DEFAULT)
//   - ctrl+y: any mode -> YOLO, YOLO -> DEFAULT
//
// # Usage
//
//	ctrl := approval.NewController(store)
//	if mode, consumed, err := ctrl.HandleKey(msg); consumed {
//	    // redraw footer with ctrl.Mirror()
//	}
package approval
