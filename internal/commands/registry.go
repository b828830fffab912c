// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"

	"github.com/jeranaias/rigrun-shell/internal/logging"
)

// =============================================================================
// COMMAND REGISTRY
// =============================================================================

// Source produces custom commands. Each call is an independent discovery
// pass; a failing entry must be skipped, never fail the whole pass.
type Source interface {
	Discover(ctx context.Context) []*Command
}

// Registry holds all registered commands.
//
// Readers go through an atomic snapshot pointer and never block. Writers
// (Register, ApplyDiscovery) serialize on mu, build a complete new Snapshot
// with Merge, and publish it with one pointer store.
type Registry struct {
	mu         sync.Mutex
	builtins   []*Command
	discovered []*Command
	applied    uint64
	generation uint64

	current atomic.Pointer[Snapshot]
	started atomic.Uint64
	logger  *log.Logger
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithBuiltins replaces the default built-in commands.
func WithBuiltins(cmds ...*Command) RegistryOption {
	return func(r *Registry) {
		r.builtins = nil
		for _, cmd := range cmds {
			r.upsertBuiltin(cmd)
		}
	}
}

// WithLogger sets the logger used for conflicts and stale passes.
func WithLogger(logger *log.Logger) RegistryOption {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRegistry creates a new command registry with all built-in commands.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{logger: logging.Discard()}
	for _, cmd := range Builtins() {
		r.upsertBuiltin(cmd)
	}
	for _, opt := range opts {
		opt(r)
	}
	r.mu.Lock()
	r.publishLocked()
	r.mu.Unlock()
	return r
}

// ErrInvalidCommand is returned by Register for a command without a name or
// action.
var ErrInvalidCommand = errors.New("command needs a name and an action")

// ErrTokenInUse is returned by Register when the command's name or alt name
// already belongs to a different built-in.
var ErrTokenInUse = errors.New("command name already in use")

// Register adds a built-in command, replacing any built-in with the same
// name, and publishes a new snapshot. Tokens owned by another built-in are
// refused with ErrTokenInUse.
func (r *Registry) Register(cmd *Command) error {
	if cmd == nil || cmd.Name == "" || cmd.Action == nil {
		return ErrInvalidCommand
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if owner, token, ok := r.builtinOwner(cmd); ok {
		return fmt.Errorf("%w: %q belongs to /%s", ErrTokenInUse, token, owner.Name)
	}
	r.upsertBuiltin(cmd)
	r.publishLocked()
	return nil
}

// Get retrieves a command by name or alias.
func (r *Registry) Get(token string) *Command {
	cmd, _ := r.Lookup(token)
	return cmd
}

// Lookup resolves token against the current snapshot.
func (r *Registry) Lookup(token string) (*Command, bool) {
	return r.Snapshot().Lookup(token)
}

// All returns all registered commands, sorted by name.
func (r *Registry) All() []*Command {
	return r.Snapshot().Commands()
}

// Snapshot returns the currently published snapshot.
func (r *Registry) Snapshot() *Snapshot {
	return r.current.Load()
}

// =============================================================================
// DISCOVERY
// =============================================================================

// BeginDiscovery reserves a sequence number for a new discovery pass.
func (r *Registry) BeginDiscovery() uint64 {
	return r.started.Add(1)
}

// ApplyDiscovery publishes the result of pass seq. A pass that finishes after
// a newer pass was already applied is discarded, so a slow scan can never
// roll the registry back to older data. Reports whether it was applied.
func (r *Registry) ApplyDiscovery(seq uint64, cmds []*Command) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if seq <= r.applied {
		r.logger.Debug("discarding stale discovery pass", "seq", seq, "applied", r.applied)
		return false
	}
	r.applied = seq
	r.discovered = append([]*Command(nil), cmds...)
	r.publishLocked()
	return true
}

// Refresh runs one full discovery pass against src and applies it.
func (r *Registry) Refresh(ctx context.Context, src Source) bool {
	seq := r.BeginDiscovery()
	cmds := src.Discover(ctx)
	if ctx.Err() != nil {
		r.logger.Debug("discovery pass cancelled", "seq", seq)
		return false
	}
	return r.ApplyDiscovery(seq, cmds)
}

// =============================================================================
// INTERNALS
// =============================================================================

// builtinOwner finds a built-in other than the one cmd replaces that owns
// one of cmd's tokens.
func (r *Registry) builtinOwner(cmd *Command) (*Command, string, bool) {
	for _, existing := range r.builtins {
		if existing.Name == cmd.Name {
			continue
		}
		for _, t := range cmd.Tokens() {
			for _, et := range existing.Tokens() {
				if t == et {
					return existing, t, true
				}
			}
		}
	}
	return nil, "", false
}

func (r *Registry) upsertBuiltin(cmd *Command) {
	if cmd == nil || cmd.Name == "" {
		return
	}
	for i, existing := range r.builtins {
		if existing.Name == cmd.Name {
			r.builtins[i] = cmd
			return
		}
	}
	r.builtins = append(r.builtins, cmd)
}

func (r *Registry) publishLocked() {
	snap, conflicts := Merge(r.builtins, r.discovered)
	r.generation++
	snap.generation = r.generation
	for _, c := range conflicts {
		r.logger.Warn("command conflict", "kind", c.Kind, "token", c.Token,
			"command", c.Loser.Name, "source", describeOrigin(c.Loser), "kept", c.Winner.Name)
	}
	r.current.Store(snap)
	r.logger.Debug("published command snapshot", "generation", snap.generation, "commands", snap.Len())
}
