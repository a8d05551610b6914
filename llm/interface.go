package llm

import (
	"context"
	"time"

	"github.com/alexschlessinger/rotorchat/messages"
)

// LLM is a model response producer
type LLM interface {
	// ChatCompletionStream starts a completion and returns its raw event
	// stream. Provider reasoning arrives as Reasoning events and inline
	// <think> markup is left in place; callers sanitize downstream.
	ChatCompletionStream(context.Context, *CompletionRequest, EventStreamProcessor) <-chan messages.StreamEvent
}

// EventStreamProcessor turns a provider's chunk stream into events
type EventStreamProcessor interface {
	ProcessMessagesToEvents(<-chan messages.ChatMessage) <-chan messages.StreamEvent
}

// CompletionRequest contains all parameters for a completion request
type CompletionRequest struct {
	APIKey          string
	BaseURL         string
	Timeout         time.Duration
	Temperature     float32
	Model           string
	MaxTokens       int
	Messages        []messages.ChatMessage // History, system prompt first
	ReasoningEffort ReasoningEffort
}

// withRequestTimeout bounds a provider call; zero means no limit beyond ctx.
func withRequestTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
