// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"fmt"
	"sort"
)

// =============================================================================
// SNAPSHOT
// =============================================================================

// Snapshot is an immutable, fully merged view of the registry. A Snapshot is
// never modified after Merge returns it, so it is safe to share between
// goroutines without locking.
type Snapshot struct {
	byName     map[string]*Command
	byAlt      map[string]*Command
	ordered    []*Command
	generation uint64
}

// Lookup resolves token against primary names first, then alt names. Matching
// is exact and case-sensitive.
func (s *Snapshot) Lookup(token string) (*Command, bool) {
	if s == nil {
		return nil, false
	}
	if cmd, ok := s.byName[token]; ok {
		return cmd, true
	}
	if cmd, ok := s.byAlt[token]; ok {
		return cmd, true
	}
	return nil, false
}

// Commands returns every command sorted by name.
func (s *Snapshot) Commands() []*Command {
	if s == nil {
		return nil
	}
	out := make([]*Command, len(s.ordered))
	copy(out, s.ordered)
	return out
}

// Tokens returns every resolvable token, sorted.
func (s *Snapshot) Tokens() []string {
	if s == nil {
		return nil
	}
	tokens := make([]string, 0, len(s.byName)+len(s.byAlt))
	for t := range s.byName {
		tokens = append(tokens, t)
	}
	for t := range s.byAlt {
		tokens = append(tokens, t)
	}
	sort.Strings(tokens)
	return tokens
}

// Len returns the number of commands.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.ordered)
}

// Generation is the publish counter of the registry that produced s.
func (s *Snapshot) Generation() uint64 {
	if s == nil {
		return 0
	}
	return s.generation
}

// =============================================================================
// CONFLICTS
// =============================================================================

// ConflictKind says how a token collision was resolved.
type ConflictKind int

const (
	// ConflictRejected: a custom command tried to take a built-in token.
	ConflictRejected ConflictKind = iota
	// ConflictShadowed: a later command of the same kind replaced an earlier one.
	ConflictShadowed
)

func (k ConflictKind) String() string {
	if k == ConflictShadowed {
		return "shadowed"
	}
	return "rejected"
}

// Conflict records one collision resolved during Merge.
type Conflict struct {
	Kind   ConflictKind
	Token  string
	Loser  *Command
	Winner *Command
}

func (c Conflict) String() string {
	return fmt.Sprintf("%s: /%s from %s lost token %q to /%s",
		c.Kind, c.Loser.Name, describeOrigin(c.Loser), c.Token, c.Winner.Name)
}

func describeOrigin(cmd *Command) string {
	if cmd.Source != "" {
		return cmd.Source
	}
	return cmd.Kind.String()
}

// =============================================================================
// MERGE
// =============================================================================

// Merge builds a new snapshot from built-in and discovered commands.
//
// Built-ins are always present. A discovered command whose name or alt name
// equals any built-in token is rejected whole. Among discovered commands the
// later one in discovery order wins: an earlier command sharing any token
// with it is evicted whole, so every token maps to exactly one command.
// Merge is deterministic; the same inputs always yield the same tokens.
func Merge(builtins, discovered []*Command) (*Snapshot, []Conflict) {
	b := newSnapshotBuilder()
	var conflicts []Conflict

	for _, cmd := range builtins {
		if cmd == nil || cmd.Name == "" {
			continue
		}
		for _, ev := range b.place(cmd) {
			conflicts = append(conflicts, Conflict{Kind: ConflictShadowed, Token: ev.token, Loser: ev.cmd, Winner: cmd})
		}
	}

	reserved := make(map[string]*Command, len(b.owner))
	for token, cmd := range b.owner {
		reserved[token] = cmd
	}

	for _, cmd := range discovered {
		if cmd == nil || cmd.Name == "" {
			continue
		}
		if token, owner, clash := collides(cmd, reserved); clash {
			conflicts = append(conflicts, Conflict{Kind: ConflictRejected, Token: token, Loser: cmd, Winner: owner})
			continue
		}
		for _, ev := range b.place(cmd) {
			conflicts = append(conflicts, Conflict{Kind: ConflictShadowed, Token: ev.token, Loser: ev.cmd, Winner: cmd})
		}
	}

	return b.build(), conflicts
}

func collides(cmd *Command, reserved map[string]*Command) (string, *Command, bool) {
	for _, t := range cmd.Tokens() {
		if owner, ok := reserved[t]; ok {
			return t, owner, true
		}
	}
	return "", nil, false
}

type eviction struct {
	token string
	cmd   *Command
}

// snapshotBuilder is the arena a snapshot is assembled in before publishing.
type snapshotBuilder struct {
	owner map[string]*Command // token -> command
	order []*Command
}

func newSnapshotBuilder() *snapshotBuilder {
	return &snapshotBuilder{owner: make(map[string]*Command)}
}

// place inserts cmd, evicting every command that owns one of its tokens.
func (b *snapshotBuilder) place(cmd *Command) []eviction {
	if b.owner[cmd.Name] == cmd {
		b.remove(cmd)
	}
	var evicted []eviction
	for _, t := range cmd.Tokens() {
		old, ok := b.owner[t]
		if !ok || old == cmd {
			continue
		}
		evicted = append(evicted, eviction{token: t, cmd: old})
		b.remove(old)
	}
	for _, t := range cmd.Tokens() {
		b.owner[t] = cmd
	}
	b.order = append(b.order, cmd)
	return evicted
}

func (b *snapshotBuilder) remove(cmd *Command) {
	for _, t := range cmd.Tokens() {
		if b.owner[t] == cmd {
			delete(b.owner, t)
		}
	}
	for i, c := range b.order {
		if c == cmd {
			b.order = append(b.order[:i], b.order[i+1:]...)
			break
		}
	}
}

func (b *snapshotBuilder) build() *Snapshot {
	s := &Snapshot{
		byName:  make(map[string]*Command, len(b.order)),
		byAlt:   make(map[string]*Command),
		ordered: make([]*Command, len(b.order)),
	}
	copy(s.ordered, b.order)
	sort.SliceStable(s.ordered, func(i, j int) bool {
		return s.ordered[i].Name < s.ordered[j].Name
	})
	for _, cmd := range s.ordered {
		s.byName[cmd.Name] = cmd
		if cmd.AltName != "" && cmd.AltName != cmd.Name {
			s.byAlt[cmd.AltName] = cmd
		}
	}
	return s
}
