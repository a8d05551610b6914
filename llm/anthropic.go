package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/alexschlessinger/rotorchat/llm/adapters"
	"github.com/alexschlessinger/rotorchat/llm/streaming"
	"github.com/alexschlessinger/rotorchat/messages"
	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/ssestream"
	"github.com/anthropics/anthropic-sdk-go/shared/constant"
	"go.uber.org/zap"
)

type AnthropicClient struct {
	client anthropic.Client
}

func NewAnthropicClient(apiKey string, baseURL string) *AnthropicClient {
	if apiKey == "" {
		zap.S().Debugw("anthropic_missing_api_key")
	}

	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}

	return &AnthropicClient{
		client: anthropic.NewClient(opts...),
	}
}

// buildRequestParams creates the Anthropic API request parameters
func (a *AnthropicClient) buildRequestParams(req *CompletionRequest) anthropic.MessageNewParams {
	anthropicMessages, systemPrompt := MessagesToAnthropicParams(req.Messages)

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(req.Model),
		MaxTokens: int64(req.MaxTokens),
		Messages:  anthropicMessages,
	}

	if req.ReasoningEffort.IsEnabled() {
		// Extended thinking rejects a custom temperature, and the budget
		// counts against max_tokens.
		budget := int64(req.ReasoningEffort.Budget())
		params.Thinking = anthropic.ThinkingConfigParamOfEnabled(budget)
		if params.MaxTokens <= budget {
			params.MaxTokens += budget
		}
	} else {
		params.Temperature = anthropic.Float(float64(req.Temperature))
	}

	if systemPrompt != "" {
		params.System = []anthropic.TextBlockParam{
			{
				Type: "text",
				Text: systemPrompt,
			},
		}
	}

	return params
}

// ChatCompletionStream implements the event-based streaming interface
func (a *AnthropicClient) ChatCompletionStream(ctx context.Context, req *CompletionRequest, processor EventStreamProcessor) <-chan messages.StreamEvent {
	messageChannel := make(chan messages.ChatMessage, 10)

	go func() {
		defer close(messageChannel)

		streamCore := streaming.NewStreamingCore(ctx, messageChannel, adapters.NewAnthropicAdapter())

		timeout, cancel := withRequestTimeout(ctx, req.Timeout)
		defer cancel()

		zap.S().Debugw("anthropic_streaming_started", "model", req.Model)
		stream := a.client.Messages.NewStreaming(timeout, a.buildRequestParams(req))
		defer stream.Close()

		a.processStream(stream, streamCore)
	}()

	return processor.ProcessMessagesToEvents(messageChannel)
}

func (a *AnthropicClient) processStream(stream *ssestream.Stream[anthropic.MessageStreamEventUnion], streamCore *streaming.StreamingCore) {
	for stream.Next() {
		event := stream.Current()

		if err := streamCore.ProcessChunk(event); err != nil {
			streamCore.EmitError(err)
			return
		}

		if event.Type == string(constant.ValueOf[constant.ContentBlockDelta]()) {
			blockDelta := event.AsContentBlockDelta()

			if thinking := blockDelta.Delta.Thinking; thinking != "" {
				streamCore.EmitReasoning(thinking)
			}

			if text := blockDelta.Delta.Text; text != "" {
				streamCore.EmitContent(text)
			}
		}
	}

	if err := stream.Err(); err != nil {
		streamCore.EmitError(fmt.Errorf("anthropic stream: %w", err))
		return
	}

	streamCore.Complete()
}

// MessagesToAnthropicParams converts messages to Anthropic message
// parameters, lifting the system message out of the list.
func MessagesToAnthropicParams(msgs []messages.ChatMessage) ([]anthropic.MessageParam, string) {
	var anthropicMessages []anthropic.MessageParam
	systemPrompt := ""

	for _, msg := range msgs {
		if msg.Role != messages.MessageRoleSystem && strings.TrimSpace(msg.Content) == "" {
			continue
		}

		switch msg.Role {
		case messages.MessageRoleSystem:
			systemPrompt = msg.Content
		case messages.MessageRoleUser:
			anthropicMessages = append(anthropicMessages, anthropic.NewUserMessage(
				anthropic.NewTextBlock(msg.Content),
			))
		case messages.MessageRoleAssistant:
			anthropicMessages = append(anthropicMessages, anthropic.NewAssistantMessage(
				anthropic.NewTextBlock(msg.Content),
			))
		}
	}

	return anthropicMessages, systemPrompt
}
