// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared by the rigrun shell packages.
//
// # Key Functions
//
// String Utilities:
//   - TruncateWidth: column-aware truncation for menus and footers
//   - StringWidth: display width of a string
//   - FirstLine: first line of a multi-line description
//
// File Operations:
//   - AtomicWriteFile: crash-safe file writing with fsync
package util
