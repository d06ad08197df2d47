package ui

// Unicode symbols for status indicators.
const (
	SymbolSuccess  = "✓"
	SymbolFail     = "✗"
	SymbolPending  = "○"
	SymbolComplete = "●"
	SymbolLocked   = "🔒"
	SymbolAuto     = "⟳"
)

// Checkbox glyphs for switch rows.
const (
	CheckboxOn  = "[x]"
	CheckboxOff = "[ ]"
)

// Checkbox returns the glyph for a switch's on/off state.
func Checkbox(on bool) string {
	if on {
		return CheckboxOn
	}
	return CheckboxOff
}
