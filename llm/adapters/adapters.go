// Package adapters holds the per-provider halves of the streaming core.
package adapters

import (
	"github.com/alexschlessinger/rotorchat/llm/streaming"
	"github.com/alexschlessinger/rotorchat/messages"
)

// metadataKeyModel is the final-message metadata key for the served model
const metadataKeyModel = "model"

func copyModel(msg *messages.ChatMessage, state streaming.StreamStateInterface) {
	model, ok := state.GetMetadata(metadataKeyModel)
	if !ok {
		return
	}
	if msg.Metadata == nil {
		msg.Metadata = make(map[string]any)
	}
	msg.Metadata[metadataKeyModel] = model
}
