package messages

import (
	"fmt"

	"go.uber.org/zap"
)

// StreamProcessor converts a provider's chunk stream into StreamEvents
type StreamProcessor struct{}

// NewStreamProcessor creates a new stream processor
func NewStreamProcessor() *StreamProcessor {
	return &StreamProcessor{}
}

// ProcessMessagesToEvents converts a stream of ChatMessage chunks into
// StreamEvents. Reasoning chunks become Reasoning events, content chunks
// become TextDelta events, chunk errors become error events, and the
// accumulated message is sent as a finish event once msgChan closes.
func (p *StreamProcessor) ProcessMessagesToEvents(msgChan <-chan ChatMessage) <-chan StreamEvent {
	eventChan := make(chan StreamEvent, 10)

	processorID := fmt.Sprintf("%p", p)

	go func() {
		defer close(eventChan)

		var accumulatedContent string
		var accumulatedReasoning string
		var lastMetadata map[string]any
		var stopReason StopReason
		var failed bool

		for msg := range msgChan {
			if msg.StopReason != "" {
				stopReason = msg.StopReason
			}

			if msg.Err != nil {
				zap.S().Debugw("processor_error_chunk_received",
					"processor_id", processorID,
					"error", msg.Err,
				)
				failed = true
				eventChan <- Failure(msg.Err)
				continue
			}

			if msg.Reasoning != "" {
				accumulatedReasoning += msg.Reasoning
				eventChan <- Reasoning{Text: msg.Reasoning}
			}

			if msg.Content != "" {
				zap.S().Debugw("processor_content_chunk_received",
					"processor_id", processorID,
					"chunk_len", len(msg.Content),
					"accumulated_len", len(accumulatedContent)+len(msg.Content),
				)
				accumulatedContent += msg.Content
				eventChan <- TextDelta{Text: msg.Content}
			}

			if len(msg.Metadata) > 0 {
				lastMetadata = msg.Metadata
			}
		}

		if failed && accumulatedContent == "" {
			return
		}

		completeMsg := ChatMessage{
			Role:       MessageRoleAssistant,
			Content:    accumulatedContent,
			Reasoning:  accumulatedReasoning,
			Metadata:   lastMetadata,
			StopReason: stopReason,
		}

		zap.S().Debugw("processor_finish_sent",
			"processor_id", processorID,
			"content_len", len(accumulatedContent),
			"reasoning_len", len(accumulatedReasoning),
			"stop_reason", stopReason,
		)

		eventChan <- Finish(&completeMsg)
	}()

	return eventChan
}
