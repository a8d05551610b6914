package sessions

import "time"

// Metadata is per-session configuration and bookkeeping. Zero values mean
// "not set"; stores fill unset fields from their defaults.
type Metadata struct {
	Name            string    `json:"name"`
	Description     string    `json:"description,omitempty"`
	Model           string    `json:"model,omitempty"`
	Temperature     float64   `json:"temperature,omitempty"`
	MaxTokens       int       `json:"max_tokens,omitempty"`
	ReasoningEffort string    `json:"reasoning_effort,omitempty"`
	SystemPrompt    string    `json:"system_prompt,omitempty"`
	Created         time.Time `json:"created"`
	LastUsed        time.Time `json:"last_used"`

	// MaxHistoryTokens bounds the estimated size of the kept history,
	// system prompt excluded. 0 means unlimited.
	MaxHistoryTokens int `json:"max_history_tokens,omitempty"`

	// TTL is how long an idle session is kept. 0 means the store default.
	TTL time.Duration `json:"ttl,omitempty"`
}

// newMetadata creates metadata for a fresh session from store defaults
func newMetadata(name string, defaults *Metadata) *Metadata {
	now := time.Now()
	md := *defaults
	md.Name = name
	md.Created = now
	md.LastUsed = now
	return &md
}
