package llm

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/alexschlessinger/rotorchat/llm/adapters"
	"github.com/alexschlessinger/rotorchat/llm/streaming"
	"github.com/alexschlessinger/rotorchat/messages"
	ollamaapi "github.com/ollama/ollama/api"
	"go.uber.org/zap"
)

const defaultOllamaURL = "http://localhost:11434"

type OllamaClient struct {
	client *ollamaapi.Client
}

// authTransport adds Bearer token authentication to HTTP requests
type authTransport struct {
	Token string
	Base  http.RoundTripper
}

func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("Authorization", "Bearer "+t.Token)
	return t.Base.RoundTrip(req)
}

func NewOllamaClient(baseURL string, apiKey string) *OllamaClient {
	if baseURL == "" {
		baseURL = defaultOllamaURL
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		zap.S().Debugw("ollama_invalid_url", "url", baseURL, "error", err)
		u, _ = url.Parse(defaultOllamaURL)
	}

	httpClient := http.DefaultClient
	if apiKey != "" {
		httpClient = &http.Client{
			Transport: &authTransport{
				Token: apiKey,
				Base:  http.DefaultTransport,
			},
		}
		zap.S().Debugw("ollama_bearer_auth_enabled")
	}

	return &OllamaClient{
		client: ollamaapi.NewClient(u, httpClient),
	}
}

// ChatCompletionStream implements the event-based streaming interface
func (o *OllamaClient) ChatCompletionStream(ctx context.Context, req *CompletionRequest, processor EventStreamProcessor) <-chan messages.StreamEvent {
	messageChannel := make(chan messages.ChatMessage, 10)

	go func() {
		defer close(messageChannel)

		streamCore := streaming.NewStreamingCore(ctx, messageChannel, adapters.NewOllamaAdapter())
		if err := o.streamCompletion(ctx, req, streamCore); err != nil {
			streamCore.EmitError(err)
		}
	}()

	return processor.ProcessMessagesToEvents(messageChannel)
}

func (o *OllamaClient) streamCompletion(ctx context.Context, req *CompletionRequest, streamCore *streaming.StreamingCore) error {
	timeout, cancel := withRequestTimeout(ctx, req.Timeout)
	defer cancel()

	chatReq := &ollamaapi.ChatRequest{
		Model:    req.Model,
		Messages: MessagesToOllama(req.Messages),
		Options: map[string]any{
			"temperature": req.Temperature,
			"num_predict": req.MaxTokens,
		},
	}

	// Without an explicit think value, models such as qwen3 and deepseek-r1
	// inline their reasoning as <think> markup in the content.
	if req.ReasoningEffort.IsEnabled() {
		chatReq.Think = &ollamaapi.ThinkValue{Value: true}
	}

	zap.S().Debugw("ollama_chat_started", "model", req.Model)

	err := o.client.Chat(timeout, chatReq, func(resp ollamaapi.ChatResponse) error {
		if err := streamCore.ProcessChunk(&resp); err != nil {
			return err
		}
		streamCore.EmitReasoning(resp.Message.Thinking)
		streamCore.EmitContent(resp.Message.Content)
		return nil
	})
	if err != nil {
		zap.S().Debugw("ollama_chat_error", "error", err, "received_len", len(streamCore.GetState().ResponseContent))
		return fmt.Errorf("ollama chat: %w", err)
	}

	streamCore.Complete()

	return nil
}

// MessagesToOllama converts messages to Ollama format
func MessagesToOllama(msgs []messages.ChatMessage) []ollamaapi.Message {
	ollamaMessages := make([]ollamaapi.Message, 0, len(msgs))
	for _, msg := range msgs {
		ollamaMessages = append(ollamaMessages, ollamaapi.Message{
			Role:    msg.Role,
			Content: msg.Content,
		})
	}
	return ollamaMessages
}
