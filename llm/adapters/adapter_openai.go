package adapters

import (
	"github.com/alexschlessinger/rotorchat/llm/streaming"
	"github.com/alexschlessinger/rotorchat/messages"
	ai "github.com/sashabaranov/go-openai"
)

// OpenAIAdapter handles OpenAI-compatible streams (OpenAI, Fireworks).
type OpenAIAdapter struct{}

// NewOpenAIAdapter creates a new OpenAI streaming adapter
func NewOpenAIAdapter() *OpenAIAdapter {
	return &OpenAIAdapter{}
}

// ProcessChunk handles OpenAI streaming chunks
func (a *OpenAIAdapter) ProcessChunk(chunk any, state streaming.StreamStateInterface) error {
	response, ok := chunk.(*ai.ChatCompletionStreamResponse)
	if !ok {
		return nil
	}

	// Sent on the last chunk when StreamOptions.IncludeUsage is set
	if response.Usage != nil {
		state.SetTokenUsage(response.Usage.PromptTokens, response.Usage.CompletionTokens)
	}

	if response.Model != "" {
		state.SetMetadata(metadataKeyModel, response.Model)
	}

	if len(response.Choices) > 0 {
		if fr := response.Choices[0].FinishReason; fr != "" {
			state.SetStopReason(mapOpenAIFinishReason(fr))
		}
	}

	return nil
}

// EnrichFinalMessage records the model the server actually answered with
func (a *OpenAIAdapter) EnrichFinalMessage(msg *messages.ChatMessage, state streaming.StreamStateInterface) {
	copyModel(msg, state)
}

func mapOpenAIFinishReason(fr ai.FinishReason) messages.StopReason {
	switch fr {
	case ai.FinishReasonLength:
		return messages.StopReasonMaxTokens
	case ai.FinishReasonContentFilter:
		return messages.StopReasonContentFilter
	default:
		return messages.StopReasonEndTurn
	}
}
