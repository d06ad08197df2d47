// Package ui holds the shared terminal styling for gha: colors, status
// symbols, sparklines and tables, all rendered with Lip Gloss.
//
// Colors are ANSI codes so output degrades gracefully on limited terminals.
// Tests can force plain output with lipgloss.SetColorProfile(termenv.Ascii).
package ui
