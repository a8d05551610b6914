// Package prompts holds the Aviaid system prompt and starter questions.
package prompts

import (
	_ "embed"
	"fmt"
	"strings"
)

var (
	//go:embed aviaid.md
	regularPrompt string

	//go:embed artifacts.md
	artifactsPrompt string
)

// RequestHints describes where a request came from. Empty fields are
// rendered as "unknown".
type RequestHints struct {
	Latitude  string `yaml:"latitude"`
	Longitude string `yaml:"longitude"`
	City      string `yaml:"city"`
	Country   string `yaml:"country"`
}

// IsZero reports whether no hint is set
func (h RequestHints) IsZero() bool {
	return h == RequestHints{}
}

// RequestPrompt renders the request origin block
func (h RequestHints) RequestPrompt() string {
	return fmt.Sprintf("About the origin of user's request:\n- lat: %s\n- lon: %s\n- city: %s\n- country: %s\n",
		orUnknown(h.Latitude), orUnknown(h.Longitude), orUnknown(h.City), orUnknown(h.Country))
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return "unknown"
	}
	return s
}

// SystemPrompt builds the system message. Reasoning models get the plain
// assistant prompt; other models also get the artifacts instructions.
func SystemPrompt(reasoning bool, hints RequestHints) string {
	parts := []string{strings.TrimSpace(regularPrompt)}
	if !hints.IsZero() {
		parts = append(parts, hints.RequestPrompt())
	}
	if !reasoning {
		parts = append(parts, strings.TrimSpace(artifactsPrompt))
	}
	return strings.Join(parts, "\n\n")
}

// SuggestedAction is a starter question offered to new users
type SuggestedAction struct {
	Title  string
	Label  string
	Action string
}

// SuggestedActions are the starter questions shown on an empty chat
var SuggestedActions = []SuggestedAction{
	{
		Title:  "Diagnose torque fluctuation",
		Label:  "on a Bell 206 during climb",
		Action: "How should I diagnose intermittent torque gauge fluctuations on a Bell 206 during climb in Canadian winter conditions?",
	},
	{
		Title:  "Resolve tail rotor vibration",
		Label:  "on an AS350 (H125)",
		Action: "What steps should I take to troubleshoot a persistent low-frequency tail rotor vibration on an AS350 (H125)?",
	},
	{
		Title:  "Check low manifold pressure",
		Label:  "indication on a R44",
		Action: "How do I troubleshoot a recurrent low manifold pressure indication on a Robinson R44 during hover checks?",
	},
	{
		Title:  "Investigate HUMS chip alerts",
		Label:  "on a Sikorsky S-76",
		Action: "What are common causes and diagnostic steps for intermittent HUMS chip detector alerts on a Sikorsky S-76 operating in Canada?",
	},
}
