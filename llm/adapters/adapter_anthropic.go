package adapters

import (
	"github.com/alexschlessinger/rotorchat/llm/streaming"
	"github.com/alexschlessinger/rotorchat/messages"
	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/shared/constant"
)

// AnthropicAdapter handles Anthropic's event-based streams. Thinking
// deltas are emitted by the provider loop; the adapter only counts the
// thinking blocks so the final message can report them.
type AnthropicAdapter struct {
	inThinkingBlock bool
	thinkingBlocks  int
}

// NewAnthropicAdapter creates a new Anthropic streaming adapter
func NewAnthropicAdapter() *AnthropicAdapter {
	return &AnthropicAdapter{}
}

// ProcessChunk handles Anthropic streaming events
func (a *AnthropicAdapter) ProcessChunk(chunk any, state streaming.StreamStateInterface) error {
	event, ok := chunk.(anthropic.MessageStreamEventUnion)
	if !ok {
		return nil
	}

	switch event.Type {
	case string(constant.ValueOf[constant.MessageStart]()):
		msgStart := event.AsMessageStart()
		state.SetTokenUsage(int(msgStart.Message.Usage.InputTokens), state.GetOutputTokens())
		if msgStart.Message.Model != "" {
			state.SetMetadata(metadataKeyModel, string(msgStart.Message.Model))
		}

	case string(constant.ValueOf[constant.ContentBlockStart]()):
		blockStart := event.AsContentBlockStart()
		a.inThinkingBlock = blockStart.ContentBlock.Type == string(constant.ValueOf[constant.Thinking]())

	case string(constant.ValueOf[constant.ContentBlockStop]()):
		if a.inThinkingBlock {
			a.thinkingBlocks++
		}
		a.inThinkingBlock = false

	case string(constant.ValueOf[constant.MessageDelta]()):
		msgDelta := event.AsMessageDelta()
		state.SetStopReason(mapAnthropicStopReason(msgDelta.Delta.StopReason))
		state.SetTokenUsage(state.GetInputTokens(), int(msgDelta.Usage.OutputTokens))
	}

	return nil
}

// EnrichFinalMessage adds the model and thinking block count
func (a *AnthropicAdapter) EnrichFinalMessage(msg *messages.ChatMessage, state streaming.StreamStateInterface) {
	copyModel(msg, state)
	if a.thinkingBlocks > 0 {
		if msg.Metadata == nil {
			msg.Metadata = make(map[string]any)
		}
		msg.Metadata["anthropic_thinking_blocks"] = a.thinkingBlocks
	}
}

func mapAnthropicStopReason(sr anthropic.StopReason) messages.StopReason {
	switch sr {
	case anthropic.StopReasonMaxTokens:
		return messages.StopReasonMaxTokens
	case anthropic.StopReasonRefusal:
		return messages.StopReasonContentFilter
	default:
		return messages.StopReasonEndTurn
	}
}
