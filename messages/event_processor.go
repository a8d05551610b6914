package messages

import (
	"context"
	"strings"
)

// EventProcessor receives the events of one response stream.
// Implementations decide how to present them (terminal, JSON, tests).
type EventProcessor interface {
	// OnContent is called for each visible text fragment
	OnContent(content string, firstChunk bool)

	// OnComplete is called once with the full message
	OnComplete(message *ChatMessage)

	// OnError is called when the stream reports an error
	OnError(err error)
}

// ProcessEventStream drains eventChan into processor and returns the final
// assistant message. Text is taken from TextDelta and PlainText events, so
// when the channel is fed through a sanitizing filter the returned content
// is the sanitized text rather than the provider's raw accumulation.
func ProcessEventStream(ctx context.Context, eventChan <-chan StreamEvent, processor EventProcessor) ChatMessage {
	var responseText strings.Builder
	var final *ChatMessage
	firstChunk := true

	emit := func(text string) {
		if text == "" {
			return
		}
		processor.OnContent(text, firstChunk)
		firstChunk = false
		responseText.WriteString(text)
	}

	for event := range eventChan {
		select {
		case <-ctx.Done():
			go func() {
				for range eventChan {
				}
			}()
			return ChatMessage{}
		default:
		}

		switch e := event.(type) {
		case TextDelta:
			emit(e.Text)
		case PlainText:
			emit(e.Text)
		case Other:
			if err := FailureOf(e); err != nil {
				processor.OnError(err)
				return ChatMessage{
					Role:    MessageRoleAssistant,
					Content: "Error: " + err.Error(),
				}
			}
			if msg := FinishOf(e); msg != nil {
				// A sanitizer flushes its held tail after the finish event,
				// so content is filled in once the channel closes.
				full := *msg
				full.Reasoning = ""
				final = &full
			}
		}
	}

	if final == nil {
		final = &ChatMessage{Role: MessageRoleAssistant}
	}
	final.Content = responseText.String()
	processor.OnComplete(final)
	return *final
}
