// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package customcmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/BurntSushi/toml"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"

	"github.com/jeranaias/rigrun-shell/internal/commands"
)

// =============================================================================
// CONSTANTS
// =============================================================================

// ArgsPlaceholder is replaced by the raw argument string when the command runs.
const ArgsPlaceholder = "{{args}}"

// MaxFileSize caps how much of a command file is read.
const MaxFileSize = 256 * 1024

const (
	extTOML     = ".toml"
	extMarkdown = ".md"
)

var (
	// ErrEmptyPrompt is returned for a command file without a prompt.
	ErrEmptyPrompt = errors.New("prompt is empty")

	// ErrBadName is returned when a file path cannot become a command token.
	ErrBadName = errors.New("invalid command name")

	// ErrTooLarge is returned for files over MaxFileSize.
	ErrTooLarge = errors.New("file too large")
)

// ParseError reports a command file that could not be turned into a command.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("custom command %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// =============================================================================
// DEFINITION
// =============================================================================

// fileFields are the keys accepted in a TOML file or in Markdown front-matter.
type fileFields struct {
	Description string `toml:"description" yaml:"description"`
	Prompt      string `toml:"prompt" yaml:"prompt"`
	AltName     string `toml:"alt_name" yaml:"alt_name"`
}

// Definition is a parsed custom command file.
type Definition struct {
	Name        string
	AltName     string
	Description string
	Prompt      string
	Path        string
}

// IsCommandFile reports whether path has an extension the loader parses.
func IsCommandFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case extTOML, extMarkdown:
		return true
	}
	return false
}

// NameFor derives the command name from path relative to root:
// "git/commit.toml" becomes "git:commit". Names are NFC-normalized because
// some filesystems hand back decomposed file names that would never match
// what the user types.
func NameFor(root, path string) (string, error) {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrBadName, err)
	}
	rel = strings.TrimSuffix(rel, filepath.Ext(rel))
	parts := strings.Split(filepath.ToSlash(rel), "/")
	name := norm.NFC.String(strings.Join(parts, ":"))
	if err := validateToken(name); err != nil {
		return "", err
	}
	return name, nil
}

func validateToken(token string) error {
	if token == "" || token == "." {
		return fmt.Errorf("%w: empty", ErrBadName)
	}
	if strings.HasPrefix(token, "/") || strings.HasPrefix(token, "..") {
		return fmt.Errorf("%w: %q", ErrBadName, token)
	}
	if strings.IndexFunc(token, unicode.IsSpace) >= 0 {
		return fmt.Errorf("%w: %q contains whitespace", ErrBadName, token)
	}
	return nil
}

// ParseFile reads one command file under root.
func ParseFile(root, path string) (*Definition, error) {
	name, err := NameFor(root, path)
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	if info.Size() > MaxFileSize {
		return nil, &ParseError{Path: path, Err: fmt.Errorf("%w: %d bytes", ErrTooLarge, info.Size())}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}

	var fields fileFields
	switch strings.ToLower(filepath.Ext(path)) {
	case extTOML:
		fields, err = parseTOML(data)
	case extMarkdown:
		fields, err = parseMarkdown(data)
	default:
		err = fmt.Errorf("unsupported extension %q", filepath.Ext(path))
	}
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}

	def := &Definition{
		Name:        name,
		AltName:     norm.NFC.String(strings.TrimPrefix(strings.TrimSpace(fields.AltName), "/")),
		Description: strings.TrimSpace(fields.Description),
		Prompt:      fields.Prompt,
		Path:        path,
	}
	if strings.TrimSpace(def.Prompt) == "" {
		return nil, &ParseError{Path: path, Err: ErrEmptyPrompt}
	}
	if def.AltName != "" {
		if err := validateToken(def.AltName); err != nil {
			return nil, &ParseError{Path: path, Err: fmt.Errorf("alt_name: %w", err)}
		}
	}
	if def.Description == "" {
		def.Description = "Custom command from " + filepath.Base(path)
	}
	return def, nil
}

func parseTOML(data []byte) (fileFields, error) {
	var fields fileFields
	if _, err := toml.Decode(string(data), &fields); err != nil {
		return fields, fmt.Errorf("invalid TOML: %w", err)
	}
	return fields, nil
}

// parseMarkdown splits optional "---" delimited YAML front-matter from the
// body. The body is the prompt unless front-matter sets one.
func parseMarkdown(data []byte) (fileFields, error) {
	var fields fileFields

	data = bytes.TrimPrefix(data, []byte("\ufeff"))
	text := strings.ReplaceAll(string(data), "\r\n", "\n")

	if !strings.HasPrefix(text, "---\n") {
		fields.Prompt = strings.TrimSpace(text)
		return fields, nil
	}

	rest := text[len("---\n"):]
	var front, body string
	switch {
	case rest == "---" || strings.HasPrefix(rest, "---\n"):
		body = strings.TrimPrefix(rest, "---")
	default:
		// The first delimiter line closes the front-matter; a body may
		// carry its own "---" rules after it.
		if end := strings.Index(rest, "\n---\n"); end != -1 {
			front, body = rest[:end], rest[end+len("\n---\n"):]
		} else if strings.HasSuffix(rest, "\n---") {
			front = strings.TrimSuffix(rest, "\n---")
		} else {
			return fields, errors.New("front-matter is not closed with ---")
		}
	}

	if err := yaml.Unmarshal([]byte(front), &fields); err != nil {
		return fields, fmt.Errorf("invalid front-matter: %w", err)
	}
	if strings.TrimSpace(fields.Prompt) == "" {
		fields.Prompt = strings.TrimSpace(body)
	}
	return fields, nil
}

// =============================================================================
// COMMAND CONSTRUCTION
// =============================================================================

// Expand fills template with args. Without a placeholder, non-empty args
// are appended after a blank line.
func Expand(template, args string) string {
	if strings.Contains(template, ArgsPlaceholder) {
		return strings.ReplaceAll(template, ArgsPlaceholder, args)
	}
	if args == "" {
		return template
	}
	return strings.TrimRight(template, "\n") + "\n\n" + args
}

// Command turns the definition into a registry command whose action submits
// the expanded prompt.
func (d *Definition) Command() *commands.Command {
	prompt := d.Prompt
	return &commands.Command{
		Name:        d.Name,
		AltName:     d.AltName,
		Description: d.Description,
		Kind:        commands.KindCustom,
		Source:      d.Path,
		Action: func(_ context.Context, _ *commands.Context, args string) (commands.ActionResult, error) {
			return commands.SubmitPrompt(Expand(prompt, args)), nil
		},
	}
}
