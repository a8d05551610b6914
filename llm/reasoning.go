package llm

import (
	"fmt"
	"strings"
)

// ReasoningEffort is how hard a reasoning-capable model should think.
// Whatever the level, reasoning never reaches the user; it only trades
// latency for answer quality.
type ReasoningEffort string

const (
	ReasoningOff    ReasoningEffort = "off"
	ReasoningLow    ReasoningEffort = "low"
	ReasoningMedium ReasoningEffort = "medium"
	ReasoningHigh   ReasoningEffort = "high"
)

// Token budgets for providers that take a budget instead of a level
const (
	reasoningBudgetLow    = 4096
	reasoningBudgetMedium = 8192
	reasoningBudgetHigh   = 16384
)

// ParseReasoningEffort converts a flag or config value to a ReasoningEffort,
// ignoring case and surrounding space
func ParseReasoningEffort(s string) (ReasoningEffort, error) {
	e := ReasoningEffort(strings.ToLower(strings.TrimSpace(s)))
	switch e {
	case "", ReasoningOff:
		return ReasoningOff, nil
	case ReasoningLow, ReasoningMedium, ReasoningHigh:
		return e, nil
	}
	return "", fmt.Errorf("invalid reasoning effort %q: must be off, low, medium, or high", s)
}

// IsEnabled returns true unless reasoning is off or unset
func (e ReasoningEffort) IsEnabled() bool {
	return e != "" && e != ReasoningOff
}

// Budget returns the thinking token budget for the effort level
func (e ReasoningEffort) Budget() int {
	switch e {
	case ReasoningLow:
		return reasoningBudgetLow
	case ReasoningHigh:
		return reasoningBudgetHigh
	case ReasoningMedium:
		return reasoningBudgetMedium
	}
	return 0
}
