package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/alexschlessinger/rotorchat/llm/adapters"
	"github.com/alexschlessinger/rotorchat/llm/streaming"
	"github.com/alexschlessinger/rotorchat/messages"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

var errGeminiNoKey = errors.New("gemini API key not configured")

type GeminiClient struct {
	apiKey  string
	baseURL string
}

func NewGeminiClient(apiKey string, baseURL string) *GeminiClient {
	if apiKey == "" {
		zap.S().Debugw("gemini_missing_api_key")
	}

	return &GeminiClient{
		apiKey:  apiKey,
		baseURL: baseURL,
	}
}

// ChatCompletionStream implements the event-based streaming interface
func (g *GeminiClient) ChatCompletionStream(ctx context.Context, req *CompletionRequest, processor EventStreamProcessor) <-chan messages.StreamEvent {
	messageChannel := make(chan messages.ChatMessage, 10)

	go func() {
		defer close(messageChannel)

		streamCore := streaming.NewStreamingCore(ctx, messageChannel, adapters.NewGeminiAdapter())
		if err := g.streamCompletion(ctx, req, streamCore); err != nil {
			streamCore.EmitError(err)
		}
	}()

	return processor.ProcessMessagesToEvents(messageChannel)
}

func (g *GeminiClient) streamCompletion(ctx context.Context, req *CompletionRequest, streamCore *streaming.StreamingCore) error {
	if g.apiKey == "" {
		return errGeminiNoKey
	}

	timeout, cancel := withRequestTimeout(ctx, req.Timeout)
	defer cancel()

	cc := &genai.ClientConfig{
		APIKey:  g.apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if g.baseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: g.baseURL}
	}

	client, err := genai.NewClient(timeout, cc)
	if err != nil {
		zap.S().Debugw("gemini_client_creation_failed", "error", err)
		return fmt.Errorf("failed to create gemini client: %w", err)
	}

	contents, systemInstruction := MessagesToGeminiContent(req.Messages)
	config := g.buildConfig(req, systemInstruction)

	zap.S().Debugw("gemini_streaming_started", "model", req.Model)

	for resp, err := range client.Models.GenerateContentStream(timeout, req.Model, contents, config) {
		if err != nil {
			zap.S().Debugw("gemini_stream_error", "error", err, "received_len", len(streamCore.GetState().ResponseContent))
			return fmt.Errorf("error during streaming: %w", err)
		}

		if err := streamCore.ProcessChunk(resp); err != nil {
			return err
		}

		if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
			continue
		}
		for _, part := range resp.Candidates[0].Content.Parts {
			if part == nil || part.Text == "" {
				continue
			}
			if part.Thought {
				streamCore.EmitReasoning(part.Text)
			} else {
				streamCore.EmitContent(part.Text)
			}
		}
	}

	streamCore.Complete()

	return nil
}

func (g *GeminiClient) buildConfig(req *CompletionRequest, systemInstruction string) *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(req.Temperature),
		MaxOutputTokens: int32(req.MaxTokens),
	}

	if systemInstruction != "" {
		config.SystemInstruction = genai.NewContentFromText(systemInstruction, genai.RoleUser)
	}

	if req.ReasoningEffort.IsEnabled() {
		config.ThinkingConfig = &genai.ThinkingConfig{
			IncludeThoughts: true,
			ThinkingBudget:  genai.Ptr(int32(req.ReasoningEffort.Budget())),
		}
	}

	return config
}

// MessagesToGeminiContent converts history to Gemini contents and returns
// the system message separately.
func MessagesToGeminiContent(msgs []messages.ChatMessage) ([]*genai.Content, string) {
	var contents []*genai.Content
	systemInstruction := ""

	for _, msg := range msgs {
		switch msg.Role {
		case messages.MessageRoleSystem:
			systemInstruction = msg.Content
		case messages.MessageRoleUser:
			contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleUser))
		case messages.MessageRoleAssistant:
			if msg.Content != "" {
				contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleModel))
			}
		}
	}

	return contents, systemInstruction
}
