package ui

// Unicode symbols for status indicators.
const (
	SymbolSuccess  = "✓" // Completed successfully
	SymbolFail     = "✗" // Failed
	SymbolPending  = "○" // Not started / disconnected
	SymbolProgress = "◐" // Connecting
	SymbolComplete = "●" // Streaming / device open
	SymbolSkipped  = "⊘" // Disabled
)
