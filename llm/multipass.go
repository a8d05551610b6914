package llm

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/alexschlessinger/rotorchat/messages"
	"go.uber.org/zap"
)

// FireworksBaseURL is the OpenAI-compatible endpoint for Fireworks models
const FireworksBaseURL = "https://api.fireworks.ai/inference/v1"

// Providers lists the prefixes MultiPass can route
var Providers = []string{"openai", "fireworks", "anthropic", "gemini", "ollama"}

// MultiPass routes requests to different LLM providers based on model prefix
type MultiPass struct {
	apiKeys map[string]string
}

// EnvVarForProvider returns the environment variable holding a provider key
func EnvVarForProvider(provider string) string {
	return fmt.Sprintf("ROTORCHAT_%sKEY", strings.ToUpper(provider))
}

// NewMultiPass creates a new multi-provider router
func NewMultiPass(apiKeys map[string]string) *MultiPass {
	return &MultiPass{
		apiKeys: apiKeys,
	}
}

// ChatCompletionStream routes the request by its "provider/model" name.
// Routing failures are reported as an error event on the returned stream.
func (m *MultiPass) ChatCompletionStream(ctx context.Context, req *CompletionRequest, processor EventStreamProcessor) <-chan messages.StreamEvent {
	llm, routed, err := m.route(req)
	if err != nil {
		zap.S().Debugw("multipass_route_failed", "model", req.Model, "error", err)
		errorChan := make(chan messages.ChatMessage, 1)
		errorChan <- messages.ChatMessage{
			Role:       messages.MessageRoleAssistant,
			StopReason: messages.StopReasonError,
			Err:        err,
		}
		close(errorChan)
		return processor.ProcessMessagesToEvents(errorChan)
	}

	return llm.ChatCompletionStream(ctx, routed, processor)
}

// route picks the provider client and returns a copy of req with the
// provider prefix stripped and the key filled in. req is not modified.
func (m *MultiPass) route(in *CompletionRequest) (LLM, *CompletionRequest, error) {
	req := *in
	provider, model, ok := strings.Cut(req.Model, "/")
	if !ok || provider == "" || model == "" {
		return nil, nil, fmt.Errorf("model must include provider prefix (e.g. 'fireworks/accounts/fireworks/models/gpt-oss-120b', 'anthropic/claude-sonnet-4-20250514'), got %q", req.Model)
	}
	provider = strings.ToLower(provider)
	req.Model = model

	// Ollama may run keyless
	if req.APIKey == "" {
		if key := m.apiKeys[provider]; key != "" {
			req.APIKey = key
		} else if provider != "ollama" && slices.Contains(Providers, provider) {
			return nil, nil, fmt.Errorf("missing API key for provider %q: set the %s environment variable", provider, EnvVarForProvider(provider))
		}
	}

	switch provider {
	case "openai":
		return NewOpenAIClient(req.APIKey, req.BaseURL), &req, nil
	case "fireworks":
		baseURL := req.BaseURL
		if baseURL == "" {
			baseURL = FireworksBaseURL
		}
		return NewOpenAIClient(req.APIKey, baseURL), &req, nil
	case "anthropic":
		return NewAnthropicClient(req.APIKey, req.BaseURL), &req, nil
	case "gemini":
		return NewGeminiClient(req.APIKey, req.BaseURL), &req, nil
	case "ollama":
		return NewOllamaClient(req.BaseURL, req.APIKey), &req, nil
	}

	return nil, nil, fmt.Errorf("unknown provider %q, valid providers: %s", provider, strings.Join(Providers, ", "))
}
