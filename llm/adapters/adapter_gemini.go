package adapters

import (
	"github.com/alexschlessinger/rotorchat/llm/streaming"
	"github.com/alexschlessinger/rotorchat/messages"
	"google.golang.org/genai"
)

// GeminiAdapter handles Gemini streams, which repeat usage on every chunk.
type GeminiAdapter struct{}

// NewGeminiAdapter creates a new Gemini streaming adapter
func NewGeminiAdapter() *GeminiAdapter {
	return &GeminiAdapter{}
}

// ProcessChunk handles Gemini streaming chunks
func (a *GeminiAdapter) ProcessChunk(chunk any, state streaming.StreamStateInterface) error {
	resp, ok := chunk.(*genai.GenerateContentResponse)
	if !ok {
		return nil
	}

	if resp.UsageMetadata != nil {
		state.SetTokenUsage(
			int(resp.UsageMetadata.PromptTokenCount),
			int(resp.UsageMetadata.CandidatesTokenCount),
		)
		if resp.UsageMetadata.ThoughtsTokenCount > 0 {
			state.SetMetadata("gemini_thoughts_tokens", int(resp.UsageMetadata.ThoughtsTokenCount))
		}
	}

	if resp.ModelVersion != "" {
		state.SetMetadata(metadataKeyModel, resp.ModelVersion)
	}

	if len(resp.Candidates) > 0 && resp.Candidates[0].FinishReason != "" {
		state.SetStopReason(mapGeminiFinishReason(resp.Candidates[0].FinishReason))
	}

	return nil
}

// EnrichFinalMessage adds the model version and thought token count
func (a *GeminiAdapter) EnrichFinalMessage(msg *messages.ChatMessage, state streaming.StreamStateInterface) {
	copyModel(msg, state)
	if n, ok := state.GetMetadata("gemini_thoughts_tokens"); ok {
		if msg.Metadata == nil {
			msg.Metadata = make(map[string]any)
		}
		msg.Metadata["gemini_thoughts_tokens"] = n
	}
}

func mapGeminiFinishReason(fr genai.FinishReason) messages.StopReason {
	switch fr {
	case genai.FinishReasonStop:
		return messages.StopReasonEndTurn
	case genai.FinishReasonMaxTokens:
		return messages.StopReasonMaxTokens
	case genai.FinishReasonSafety, genai.FinishReasonRecitation,
		genai.FinishReasonBlocklist, genai.FinishReasonProhibitedContent,
		genai.FinishReasonSPII:
		return messages.StopReasonContentFilter
	case genai.FinishReasonMalformedFunctionCall:
		return messages.StopReasonError
	default:
		return messages.StopReasonEndTurn
	}
}
