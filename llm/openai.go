package llm

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/alexschlessinger/rotorchat/llm/adapters"
	"github.com/alexschlessinger/rotorchat/llm/streaming"
	"github.com/alexschlessinger/rotorchat/messages"
	ai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

var _ LLM = (*OpenAIClient)(nil)

// OpenAIClient talks to any OpenAI-compatible chat completions endpoint,
// including Fireworks-hosted open-weight models.
type OpenAIClient struct {
	ClientConfig ai.ClientConfig
	Client       *ai.Client
}

func NewOpenAIClient(apiKey string, baseURL string) *OpenAIClient {
	cfg := ai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIClient{
		ClientConfig: cfg,
		Client:       ai.NewClientWithConfig(cfg),
	}
}

// ChatCompletionStream implements the event-based streaming interface
func (o OpenAIClient) ChatCompletionStream(ctx context.Context, req *CompletionRequest, processor EventStreamProcessor) <-chan messages.StreamEvent {
	messageChannel := make(chan messages.ChatMessage, 10)

	go func() {
		defer close(messageChannel)

		streamCore := streaming.NewStreamingCore(ctx, messageChannel, adapters.NewOpenAIAdapter())
		if err := o.streamCompletion(ctx, req, streamCore); err != nil {
			streamCore.EmitError(err)
		}
	}()

	return processor.ProcessMessagesToEvents(messageChannel)
}

func (o OpenAIClient) streamCompletion(ctx context.Context, req *CompletionRequest, streamCore *streaming.StreamingCore) error {
	timeout, cancel := withRequestTimeout(ctx, req.Timeout)
	defer cancel()
	zap.S().Debugw("openai_completion_started", "model", req.Model, "base_url", o.ClientConfig.BaseURL)

	ccr := ai.ChatCompletionRequest{
		MaxCompletionTokens: req.MaxTokens,
		Model:               req.Model,
		Messages:            MessagesToOpenAI(req.Messages),
		Temperature:         req.Temperature,
		Stream:              true,
		StreamOptions: &ai.StreamOptions{
			IncludeUsage: true,
		},
	}

	if req.ReasoningEffort.IsEnabled() {
		ccr.ReasoningEffort = string(req.ReasoningEffort)
	}

	stream, err := o.Client.CreateChatCompletionStream(timeout, ccr)
	if err != nil {
		zap.S().Debugw("openai_stream_creation_failed", "error", err)
		return fmt.Errorf("failed to create chat completion stream: %w", err)
	}
	defer stream.Close()

	for {
		response, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			zap.S().Debugw("openai_stream_error", "error", err, "received_len", len(streamCore.GetState().ResponseContent))
			return fmt.Errorf("error during streaming: %w", err)
		}

		if err := streamCore.ProcessChunk(&response); err != nil {
			return err
		}

		if len(response.Choices) > 0 {
			delta := response.Choices[0].Delta

			// Structured reasoning, when the server separates it
			if delta.ReasoningContent != "" {
				streamCore.EmitReasoning(delta.ReasoningContent)
			}

			// May contain inline <think> markup
			if delta.Content != "" {
				streamCore.EmitContent(delta.Content)
			}
		}
	}

	streamCore.Complete()

	return nil
}

// MessagesToOpenAI converts a slice of agnostic messages to OpenAI format
func MessagesToOpenAI(msgs []messages.ChatMessage) []ai.ChatCompletionMessage {
	result := make([]ai.ChatCompletionMessage, len(msgs))
	for i, msg := range msgs {
		result[i] = ai.ChatCompletionMessage{
			Role:    msg.Role,
			Content: msg.Content,
		}
	}
	return result
}
