// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package customcmd

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/rigrun-shell/internal/commands"
)

func writeFile(t *testing.T, root, rel, content string) string {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func names(cmds []*commands.Command) []string {
	out := make([]string, len(cmds))
	for i, c := range cmds {
		out[i] = c.Name
	}
	return out
}

// =============================================================================
// PARSE TESTS
// =============================================================================

func TestNameFor(t *testing.T) {
	root := filepath.Join("home", "u", "commands")
	tests := []struct {
		rel     string
		want    string
		wantErr bool
	}{
		{"review.toml", "review", false},
		{"git/commit.toml", "git:commit", false},
		{"a/b/c.md", "a:b:c", false},
		{"with space.toml", "", true},
		// "cafe" + combining acute accent comes back composed.
		{"cafe\u0301.md", "caf\u00e9", false},
	}

	for _, tc := range tests {
		got, err := NameFor(root, filepath.Join(root, filepath.FromSlash(tc.rel)))
		if tc.wantErr {
			assert.ErrorIs(t, err, ErrBadName, tc.rel)
			continue
		}
		require.NoError(t, err, tc.rel)
		assert.Equal(t, tc.want, got)
	}
}

func TestParseFile_TOML(t *testing.T) {
	root := t.TempDir()
	path := writeFile(t, root, "review.toml", `
description = "Review a file"
alt_name = "/rv"
prompt = """
Review {{args}} carefully."""
`)

	def, err := ParseFile(root, path)
	require.NoError(t, err)
	assert.Equal(t, "review", def.Name)
	assert.Equal(t, "rv", def.AltName)
	assert.Equal(t, "Review a file", def.Description)
	assert.Equal(t, path, def.Path)

	cmd := def.Command()
	assert.Equal(t, commands.KindCustom, cmd.Kind)
	assert.Equal(t, path, cmd.Source)

	res, err := cmd.Action(context.Background(), nil, "main.go")
	require.NoError(t, err)
	assert.Equal(t, commands.ResultSubmitPrompt, res.Type)
	assert.Equal(t, "Review main.go carefully.", res.Prompt)
}

func TestParseFile_Markdown(t *testing.T) {
	root := t.TempDir()
	path := writeFile(t, root, "docs/explain.md", "---\r\ndescription: Explain code\r\nalt_name: ex\r\n---\r\nExplain this code.\r\n")

	def, err := ParseFile(root, path)
	require.NoError(t, err)
	assert.Equal(t, "docs:explain", def.Name)
	assert.Equal(t, "ex", def.AltName)
	assert.Equal(t, "Explain code", def.Description)
	assert.Equal(t, "Explain this code.", def.Prompt)
}

func TestParseFile_MarkdownBodyRules(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"trailing rule without newline", "---\ndescription: Review code\n---\nReview the diff carefully.\n\n---", "Review the diff carefully.\n\n---"},
		{"rule between paragraphs", "---\ndescription: Review code\n---\nFirst.\n---\nSecond.\n", "First.\n---\nSecond."},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			root := t.TempDir()
			path := writeFile(t, root, "review.md", tc.content)

			def, err := ParseFile(root, path)
			require.NoError(t, err)
			assert.Equal(t, "Review code", def.Description)
			assert.Equal(t, tc.want, def.Prompt)
		})
	}
}

func TestParseFile_MarkdownWithoutFrontMatter(t *testing.T) {
	root := t.TempDir()
	path := writeFile(t, root, "plain.md", "\nJust a prompt.\n")

	def, err := ParseFile(root, path)
	require.NoError(t, err)
	assert.Equal(t, "Just a prompt.", def.Prompt)
	assert.Equal(t, "Custom command from plain.md", def.Description)
}

func TestParseFile_Errors(t *testing.T) {
	root := t.TempDir()
	tests := []struct {
		name    string
		rel     string
		content string
		wantIs  error
	}{
		{"bad toml", "bad.toml", "prompt = ", nil},
		{"empty prompt", "empty.toml", `description = "nothing"`, ErrEmptyPrompt},
		{"unclosed front-matter", "open.md", "---\ndescription: x\nbody", nil},
		{"bad yaml", "yaml.md", "---\ndescription: [x\n---\nbody\n", nil},
		{"empty markdown", "blank.md", "---\ndescription: x\n---\n   \n", ErrEmptyPrompt},
		{"alt name with space", "alt.toml", "prompt = \"p\"\nalt_name = \"a b\"", ErrBadName},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			path := writeFile(t, root, tc.rel, tc.content)
			_, err := ParseFile(root, path)
			require.Error(t, err)

			var pe *ParseError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, path, pe.Path)
			if tc.wantIs != nil {
				assert.ErrorIs(t, err, tc.wantIs)
			}
		})
	}
}

func TestParseFile_TooLarge(t *testing.T) {
	root := t.TempDir()
	big := make([]byte, MaxFileSize+1)
	for i := range big {
		big[i] = 'a'
	}
	path := writeFile(t, root, "big.md", string(big))

	_, err := ParseFile(root, path)
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestExpand(t *testing.T) {
	tests := []struct {
		template string
		args     string
		want     string
	}{
		{"Review {{args}}", "main.go", "Review main.go"},
		{"{{args}} and {{args}}", "x", "x and x"},
		{"Review {{args}}", "", "Review "},
		{"Summarize the repo.", "", "Summarize the repo."},
		{"Summarize the repo.\n", "briefly", "Summarize the repo.\n\nbriefly"},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.want, Expand(tc.template, tc.args), "Expand(%q, %q)", tc.template, tc.args)
	}
}

// =============================================================================
// LOADER TESTS
// =============================================================================

func TestDiscover_SkipsMalformed(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.toml", `prompt = "a"`)
	writeFile(t, root, "b.md", "b prompt")
	writeFile(t, root, "git/commit.toml", `prompt = "commit {{args}}"`)
	writeFile(t, root, "broken.toml", "prompt = [")
	writeFile(t, root, "empty.md", "")
	writeFile(t, root, "notes.txt", "not a command")
	writeFile(t, root, ".hidden/x.toml", `prompt = "x"`)

	cmds := NewLoader(nil, root).Discover(context.Background())
	assert.Equal(t, []string{"a", "b", "git:commit"}, names(cmds))
}

func TestDiscover_MissingDirectory(t *testing.T) {
	l := NewLoader(nil, filepath.Join(t.TempDir(), "does-not-exist"))
	cmds := l.Discover(context.Background())
	assert.Empty(t, cmds)

	entries, err := l.Check(context.Background())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestDiscover_ProjectAfterUser(t *testing.T) {
	user := t.TempDir()
	project := t.TempDir()
	writeFile(t, user, "review.toml", `prompt = "user review"`)
	writeFile(t, project, "review.toml", `prompt = "project review"`)
	writeFile(t, user, "only-user.md", "u")

	cmds := NewLoader(nil, user, "", project).Discover(context.Background())
	require.Len(t, cmds, 3)

	// Discovery order puts the project copy last so it wins the merge.
	snap, conflicts := commands.Merge(nil, cmds)
	review, ok := snap.Lookup("review")
	require.True(t, ok)
	assert.Equal(t, filepath.Join(project, "review.toml"), review.Source)
	require.Len(t, conflicts, 1)
	assert.Equal(t, commands.ConflictShadowed, conflicts[0].Kind)
}

func TestDiscover_Cancelled(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.toml", `prompt = "a"`)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Nil(t, NewLoader(nil, root).Discover(ctx))
}

func TestDiscover_FreshPass(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.toml", `prompt = "a"`)
	l := NewLoader(nil, root)

	require.Len(t, l.Discover(context.Background()), 1)

	writeFile(t, root, "b.toml", `prompt = "b"`)
	require.NoError(t, os.Remove(filepath.Join(root, "a.toml")))
	assert.Equal(t, []string{"b"}, names(l.Discover(context.Background())))
}

func TestCheck_ReportsErrors(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "good.toml", `prompt = "ok"`)
	writeFile(t, root, "bad.toml", "prompt = [")

	entries, err := NewLoader(nil, root).Check(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 2)

	// WalkDir is lexical: bad.toml first.
	assert.Error(t, entries[0].Err)
	assert.Nil(t, entries[0].Definition)
	assert.NoError(t, entries[1].Err)
	assert.Equal(t, "good", entries[1].Definition.Name)
}

func TestRegistryRefreshWithLoader(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "help.toml", `prompt = "steal help"`)
	writeFile(t, root, "deploy.md", "---\nalt_name: \"?\"\n---\nsteal ?\n")
	writeFile(t, root, "review.toml", `prompt = "review {{args}}"`)

	reg := commands.NewRegistry()
	require.True(t, reg.Refresh(context.Background(), NewLoader(nil, root)))

	help, ok := reg.Lookup("help")
	require.True(t, ok)
	assert.Equal(t, commands.KindBuiltIn, help.Kind)
	_, ok = reg.Lookup("deploy")
	assert.False(t, ok)

	out := commands.NewDispatcher(reg, nil).Dispatch(context.Background(), "/review main.go", nil)
	require.Equal(t, commands.StatusOK, out.Status)
	assert.Equal(t, "review main.go", out.Result.Prompt)
}
