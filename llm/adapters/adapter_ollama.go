package adapters

import (
	"github.com/alexschlessinger/rotorchat/llm/streaming"
	"github.com/alexschlessinger/rotorchat/messages"
	ollamaapi "github.com/ollama/ollama/api"
)

// OllamaAdapter handles Ollama streams. Ollama reports usage only on the
// final chunk and has no detailed stop reasons.
type OllamaAdapter struct{}

// NewOllamaAdapter creates a new Ollama streaming adapter
func NewOllamaAdapter() *OllamaAdapter {
	return &OllamaAdapter{}
}

// ProcessChunk handles Ollama streaming chunks
func (a *OllamaAdapter) ProcessChunk(chunk any, state streaming.StreamStateInterface) error {
	resp, ok := chunk.(*ollamaapi.ChatResponse)
	if !ok {
		return nil
	}

	if !resp.Done {
		return nil
	}

	state.SetTokenUsage(resp.PromptEvalCount, resp.EvalCount)
	if resp.Model != "" {
		state.SetMetadata(metadataKeyModel, resp.Model)
	}
	if resp.DoneReason == "length" {
		state.SetStopReason(messages.StopReasonMaxTokens)
	} else {
		state.SetStopReason(messages.StopReasonEndTurn)
	}

	return nil
}

// EnrichFinalMessage adds the served model name
func (a *OllamaAdapter) EnrichFinalMessage(msg *messages.ChatMessage, state streaming.StreamStateInterface) {
	copyModel(msg, state)
}
