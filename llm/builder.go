package llm

import (
	"context"
	"strings"
	"time"

	"github.com/alexschlessinger/rotorchat/messages"
	"github.com/alexschlessinger/rotorchat/thinkfilter"
)

// CompletionBuilder provides a fluent interface for building completion requests
type CompletionBuilder struct {
	req *CompletionRequest
}

// NewCompletionBuilder creates a new builder with defaults
func NewCompletionBuilder(model string) *CompletionBuilder {
	return &CompletionBuilder{
		req: &CompletionRequest{
			Model:           model,
			Messages:        []messages.ChatMessage{},
			Temperature:     1,
			MaxTokens:       4096,
			Timeout:         120 * time.Second,
			ReasoningEffort: ReasoningOff,
		},
	}
}

// WithSystemPrompt adds a system message
func (b *CompletionBuilder) WithSystemPrompt(prompt string) *CompletionBuilder {
	b.req.Messages = append([]messages.ChatMessage{
		{
			Role:    messages.MessageRoleSystem,
			Content: prompt,
		},
	}, b.req.Messages...)
	return b
}

// WithUserMessage adds a user message
func (b *CompletionBuilder) WithUserMessage(content string) *CompletionBuilder {
	b.req.Messages = append(b.req.Messages, messages.ChatMessage{
		Role:    messages.MessageRoleUser,
		Content: content,
	})
	return b
}

// WithHistory adds conversation history before any messages already added
func (b *CompletionBuilder) WithHistory(history []messages.ChatMessage) *CompletionBuilder {
	b.req.Messages = append(append([]messages.ChatMessage{}, history...), b.req.Messages...)
	return b
}

// WithTemperature sets the temperature
func (b *CompletionBuilder) WithTemperature(temp float32) *CompletionBuilder {
	b.req.Temperature = temp
	return b
}

// WithMaxTokens sets the max tokens
func (b *CompletionBuilder) WithMaxTokens(tokens int) *CompletionBuilder {
	b.req.MaxTokens = tokens
	return b
}

// WithTimeout sets the timeout
func (b *CompletionBuilder) WithTimeout(timeout time.Duration) *CompletionBuilder {
	b.req.Timeout = timeout
	return b
}

// WithBaseURL points the request at a custom endpoint
func (b *CompletionBuilder) WithBaseURL(url string) *CompletionBuilder {
	b.req.BaseURL = url
	return b
}

// WithReasoning sets the reasoning effort
func (b *CompletionBuilder) WithReasoning(effort ReasoningEffort) *CompletionBuilder {
	b.req.ReasoningEffort = effort
	return b
}

// Build returns the built CompletionRequest
func (b *CompletionBuilder) Build() *CompletionRequest {
	return b.req
}

// Execute runs the completion and returns the answer with all reasoning
// removed.
func (b *CompletionBuilder) Execute(ctx context.Context, client LLM) (string, error) {
	var result strings.Builder
	err := b.ExecuteStreaming(ctx, client, func(chunk string) {
		result.WriteString(chunk)
	})
	if err != nil {
		return "", err
	}
	return result.String(), nil
}

// ExecuteStreaming runs the completion, calling onChunk with each piece of
// visible answer text. Reasoning never reaches onChunk.
func (b *CompletionBuilder) ExecuteStreaming(ctx context.Context, client LLM, onChunk func(string)) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	events := thinkfilter.Transform(ctx, client.ChatCompletionStream(ctx, b.req, messages.NewStreamProcessor()))
	for event := range events {
		if err := messages.FailureOf(event); err != nil {
			return err
		}
		var text string
		switch e := event.(type) {
		case messages.TextDelta:
			text = e.Text
		case messages.PlainText:
			text = e.Text
		}
		if text != "" && onChunk != nil {
			onChunk(text)
		}
	}
	return ctx.Err()
}
