// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package customcmd discovers user-authored slash commands on disk.
//
// A commands directory holds *.toml files (description, prompt, alt_name)
// and *.md files (optional YAML front-matter, body as the prompt). Nested
// directories namespace commands: git/commit.toml becomes /git:commit.
package customcmd

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/jeranaias/rigrun-shell/internal/commands"
	"github.com/jeranaias/rigrun-shell/internal/logging"
)

// Loader scans command directories. Later directories win name collisions
// among custom commands, so list the user directory before the project one.
type Loader struct {
	Dirs   []string
	Logger *log.Logger
}

// NewLoader creates a loader over dirs. Empty entries are ignored.
func NewLoader(logger *log.Logger, dirs ...string) *Loader {
	if logger == nil {
		logger = logging.Discard()
	}
	l := &Loader{Logger: logger}
	for _, d := range dirs {
		if d != "" {
			l.Dirs = append(l.Dirs, d)
		}
	}
	return l
}

// Entry is one file seen during a scan.
type Entry struct {
	Path       string
	Definition *Definition
	Err        error
}

// Discover runs one full pass and returns the parsed commands in discovery
// order. Malformed files are logged and skipped. A missing directory yields
// nothing. A cancelled context stops the walk and returns nil.
func (l *Loader) Discover(ctx context.Context) []*commands.Command {
	entries, err := l.scan(ctx)
	if err != nil {
		l.logger().Debug("discovery stopped", "err", err)
		return nil
	}

	cmds := make([]*commands.Command, 0, len(entries))
	for _, e := range entries {
		if e.Err != nil {
			l.logger().Warn("skipping custom command", "path", e.Path, "err", e.Err)
			continue
		}
		cmds = append(cmds, e.Definition.Command())
	}
	l.logger().Debug("discovery finished", "dirs", len(l.Dirs), "commands", len(cmds), "skipped", len(entries)-len(cmds))
	return cmds
}

// Check parses every command file and returns each one with its error, if
// any, without building commands.
func (l *Loader) Check(ctx context.Context) ([]Entry, error) {
	return l.scan(ctx)
}

func (l *Loader) scan(ctx context.Context) ([]Entry, error) {
	var entries []Entry
	for _, dir := range l.Dirs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		found, err := scanDir(ctx, dir)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, err
			}
			l.logger().Warn("cannot read commands directory", "dir", dir, "err", err)
			continue
		}
		entries = append(entries, found...)
	}
	return entries, nil
}

// scanDir walks one directory in lexical order.
func scanDir(ctx context.Context, dir string) ([]Entry, error) {
	info, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	if !info.IsDir() {
		return nil, &fs.PathError{Op: "scan", Path: dir, Err: errors.New("not a directory")}
	}

	var entries []Entry
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if walkErr != nil {
			if path == dir {
				return walkErr
			}
			entries = append(entries, Entry{Path: path, Err: &ParseError{Path: path, Err: walkErr}})
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if path != dir && isHidden(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if isHidden(d.Name()) || !IsCommandFile(path) {
			return nil
		}

		def, err := ParseFile(dir, path)
		entries = append(entries, Entry{Path: path, Definition: def, Err: err})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func isHidden(name string) bool {
	return len(name) > 0 && name[0] == '.'
}

func (l *Loader) logger() *log.Logger {
	if l.Logger == nil {
		return logging.Discard()
	}
	return l.Logger
}
