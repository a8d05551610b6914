package streaming

import (
	"context"
	"errors"

	"github.com/alexschlessinger/rotorchat/messages"
	"go.uber.org/zap"
)

// StreamingCore drives one provider stream: it forwards chunks to the
// provider adapter, emits content and reasoning as ChatMessages, and sends
// a final message carrying stop reason and usage.
type StreamingCore struct {
	state          *StreamState
	adapter        ProviderAdapter
	messageChannel chan messages.ChatMessage
	ctx            context.Context
}

// ProviderAdapter holds provider-specific handling over the shared state.
// Implementations live in the llm/adapters package.
type ProviderAdapter interface {
	// ProcessChunk records usage, stop reason and metadata from a chunk.
	// The chunk type depends on the provider SDK.
	ProcessChunk(chunk any, state StreamStateInterface) error

	// EnrichFinalMessage adds provider metadata to the final message
	EnrichFinalMessage(msg *messages.ChatMessage, state StreamStateInterface)
}

var errNoAdapter = errors.New("no adapter configured")

// NewStreamingCore creates a new streaming coordinator
func NewStreamingCore(
	ctx context.Context,
	messageChannel chan messages.ChatMessage,
	adapter ProviderAdapter,
) *StreamingCore {
	return &StreamingCore{
		state:          NewStreamState(),
		adapter:        adapter,
		messageChannel: messageChannel,
		ctx:            ctx,
	}
}

// GetState returns the current streaming state
func (sc *StreamingCore) GetState() *StreamState {
	return sc.state
}

// EmitContent sends an answer chunk. Inline reasoning markup is passed
// through untouched.
func (sc *StreamingCore) EmitContent(content string) {
	if content == "" {
		return
	}

	select {
	case <-sc.ctx.Done():
	case sc.messageChannel <- messages.ChatMessage{
		Role:    messages.MessageRoleAssistant,
		Content: content,
	}:
		sc.state.AppendContent(content)
	}
}

// EmitReasoning sends a structured reasoning chunk
func (sc *StreamingCore) EmitReasoning(reasoning string) {
	if reasoning == "" {
		return
	}

	select {
	case <-sc.ctx.Done():
	case sc.messageChannel <- messages.ChatMessage{
		Role:      messages.MessageRoleAssistant,
		Reasoning: reasoning,
	}:
		sc.state.AppendReasoning(reasoning)
	}
}

// EmitError reports a stream failure
func (sc *StreamingCore) EmitError(err error) {
	select {
	case <-sc.ctx.Done():
	case sc.messageChannel <- messages.ChatMessage{
		Role:       messages.MessageRoleAssistant,
		StopReason: messages.StopReasonError,
		Err:        err,
	}:
		zap.S().Debugw("streaming_error", "error", err)
	}
}

// ProcessChunk delegates chunk processing to the adapter
func (sc *StreamingCore) ProcessChunk(chunk any) error {
	if sc.adapter == nil {
		return errNoAdapter
	}
	return sc.adapter.ProcessChunk(chunk, sc.state)
}

// Complete sends the final message with stop reason and usage. Content and
// reasoning were already streamed and are left empty.
func (sc *StreamingCore) Complete() {
	msg := messages.ChatMessage{
		Role:       messages.MessageRoleAssistant,
		StopReason: sc.state.StopReason,
	}
	if msg.StopReason == "" {
		msg.StopReason = messages.StopReasonEndTurn
	}
	msg.SetTokenUsage(sc.state.GetInputTokens(), sc.state.GetOutputTokens())

	if sc.adapter != nil {
		sc.adapter.EnrichFinalMessage(&msg, sc.state)
	}

	select {
	case <-sc.ctx.Done():
	case sc.messageChannel <- msg:
		sc.logCompletionDetails()
	}
}

// SetTokenUsage updates token counts in the state
func (sc *StreamingCore) SetTokenUsage(input, output int) {
	sc.state.SetTokenUsage(input, output)
}

// SetStopReason updates the stop reason in the state
func (sc *StreamingCore) SetStopReason(reason messages.StopReason) {
	sc.state.SetStopReason(reason)
}

func (sc *StreamingCore) logCompletionDetails() {
	state := sc.state.Clone()

	contentPreview := state.ResponseContent
	if len(contentPreview) > 200 {
		contentPreview = contentPreview[:200] + "..."
	}

	fields := []any{
		"content_preview", contentPreview,
		"content_length", len(state.ResponseContent),
		"stop_reason", state.StopReason,
	}

	if state.ReasoningContent != "" {
		fields = append(fields, "reasoning_length", len(state.ReasoningContent))
	}

	if state.InputTokens > 0 || state.OutputTokens > 0 {
		fields = append(fields,
			"input_tokens", state.InputTokens,
			"output_tokens", state.OutputTokens,
		)
	}

	zap.S().Debugw("streaming_completed", fields...)
}
