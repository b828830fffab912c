// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"errors"
	"fmt"
	"sync"

	"github.com/jeranaias/rigrun-shell/internal/approval"
)

// ErrModeNotAllowed is returned when configuration forbids the requested mode.
var ErrModeNotAllowed = errors.New("approval mode not allowed by configuration")

// Store is the process-wide runtime settings object. It holds the one
// authoritative approval mode and implements approval.Port.
type Store struct {
	mu          sync.RWMutex
	mode        approval.Mode
	disableYolo bool
}

var _ approval.Port = (*Store)(nil)

// NewStore seeds a store from cfg. An unparsable default mode falls back to
// DEFAULT, as does YOLO when it is disabled.
func NewStore(cfg *Config) *Store {
	if cfg == nil {
		cfg = Default()
	}
	s := &Store{disableYolo: cfg.Approval.DisableYolo}

	mode, err := approval.ParseMode(cfg.Approval.DefaultMode)
	if err != nil || (mode == approval.ModeYolo && s.disableYolo) {
		mode = approval.ModeDefault
	}
	s.mode = mode
	return s
}

// ApprovalMode returns the current approval mode.
func (s *Store) ApprovalMode() approval.Mode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mode
}

// SetApprovalMode replaces the approval mode. Invalid modes and YOLO while
// disabled are refused and leave the value unchanged.
func (s *Store) SetApprovalMode(m approval.Mode) error {
	if !m.Valid() {
		return fmt.Errorf("invalid approval mode %d", int(m))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if m == approval.ModeYolo && s.disableYolo {
		return fmt.Errorf("%w: %s is disabled", ErrModeNotAllowed, m.Label())
	}
	s.mode = m
	return nil
}

// YoloDisabled reports whether YOLO mode is refused.
func (s *Store) YoloDisabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.disableYolo
}

// SetYoloDisabled changes the YOLO policy. Disabling it while in YOLO drops
// the mode back to DEFAULT.
func (s *Store) SetYoloDisabled(disabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.disableYolo = disabled
	if disabled && s.mode == approval.ModeYolo {
		s.mode = approval.ModeDefault
	}
}
