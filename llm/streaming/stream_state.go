package streaming

import (
	"maps"
	"sync"

	"github.com/alexschlessinger/rotorchat/messages"
)

// StreamStateInterface is the view of StreamState that adapters work against.
type StreamStateInterface interface {
	AppendContent(content string)
	AppendReasoning(reasoning string)
	SetTokenUsage(input, output int)
	SetStopReason(reason messages.StopReason)
	SetMetadata(key string, value any)

	GetMetadata(key string) (any, bool)
	GetInputTokens() int
	GetOutputTokens() int
}

// StreamState holds what a provider stream has produced so far. All access
// is serialized so adapters may be driven from SDK callbacks.
type StreamState struct {
	ResponseContent  string              // Accumulated answer text, unsanitized
	ReasoningContent string              // Accumulated provider reasoning
	StopReason       messages.StopReason // Reason for completion
	InputTokens      int                 // Token count for prompt
	OutputTokens     int                 // Token count for completion

	// Provider-specific values, e.g. the model name a server resolved
	Metadata map[string]any

	mu sync.Mutex
}

// NewStreamState creates a new StreamState with initialized fields
func NewStreamState() *StreamState {
	return &StreamState{
		Metadata: make(map[string]any),
	}
}

// AppendContent safely appends content to the response
func (s *StreamState) AppendContent(content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ResponseContent += content
}

// AppendReasoning safely appends reasoning content
func (s *StreamState) AppendReasoning(reasoning string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ReasoningContent += reasoning
}

// SetTokenUsage safely sets token counts
func (s *StreamState) SetTokenUsage(input, output int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.InputTokens = input
	s.OutputTokens = output
}

// SetStopReason safely sets the stop reason
func (s *StreamState) SetStopReason(reason messages.StopReason) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.StopReason = reason
}

// SetMetadata safely sets a metadata value
func (s *StreamState) SetMetadata(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Metadata == nil {
		s.Metadata = make(map[string]any)
	}
	s.Metadata[key] = value
}

// GetMetadata safely gets a metadata value
func (s *StreamState) GetMetadata(key string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	val, ok := s.Metadata[key]
	return val, ok
}

// GetInputTokens safely returns the input token count
func (s *StreamState) GetInputTokens() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.InputTokens
}

// GetOutputTokens safely returns the output token count
func (s *StreamState) GetOutputTokens() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.OutputTokens
}

// Clone creates a copy of the current state (for debugging/logging)
func (s *StreamState) Clone() *StreamState {
	s.mu.Lock()
	defer s.mu.Unlock()

	clone := StreamState{
		ResponseContent:  s.ResponseContent,
		ReasoningContent: s.ReasoningContent,
		StopReason:       s.StopReason,
		InputTokens:      s.InputTokens,
		OutputTokens:     s.OutputTokens,
		Metadata:         make(map[string]any, len(s.Metadata)),
	}
	maps.Copy(clone.Metadata, s.Metadata)

	return &clone
}
