// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the visual styling system for the rigrun shell.

All colors use Lip Gloss AdaptiveColor for automatic light/dark terminal
detection. NewTheme can also pin the appearance from configuration.

# Approval Mode Colors

The footer renders the approval mode so the risk is visible at a glance:

	DEFAULT   - Emerald
	AUTO_EDIT - Amber
	PLAN      - Purple
	YOLO      - Rose, reversed

# Usage

	theme := styles.NewTheme(cfg.UI.Theme)
	footer := theme.StatusBar.Render(theme.ModeYolo.Render("YOLO"))
*/
package styles
