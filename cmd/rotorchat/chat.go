package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/alexschlessinger/rotorchat/llm"
	"github.com/alexschlessinger/rotorchat/messages"
	"github.com/alexschlessinger/rotorchat/sessions"
	"github.com/alexschlessinger/rotorchat/thinkfilter"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

// runChat sends one prompt and streams the sanitized answer to stdout
func runChat(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	prompt, err := getPrompt(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := setupSignalHandling(ctx)
	defer cancel()

	store, name, err := openSessionStore(cfg, cmd.Bool("last"))
	if err != nil {
		return err
	}

	session, err := store.Get(name)
	if err != nil {
		return fmt.Errorf("failed to open session: %w", err)
	}
	defer session.Close()

	if cmd.Bool("reset") {
		session.Clear()
	}

	// Stored session settings apply unless overridden on the command line
	settings := sessions.MergeMetadata(session.GetMetadata(), sessionOverrides(flagConfig(cmd)))
	effort, err := llm.ParseReasoningEffort(settings.ReasoningEffort)
	if err != nil {
		return err
	}

	question := messages.ChatMessage{
		Role:    messages.MessageRoleUser,
		Content: prompt,
	}
	history := sessions.TrimHistory(append(session.GetHistory(), question), settings.MaxHistoryTokens)

	req := llm.NewCompletionBuilder(settings.Model).
		WithHistory(history).
		WithTemperature(float32(settings.Temperature)).
		WithMaxTokens(settings.MaxTokens).
		WithTimeout(cfg.Timeout).
		WithBaseURL(cfg.BaseURL).
		WithReasoning(effort).
		Build()

	zap.S().Debugw("chat_request",
		"session", session.GetName(),
		"model", req.Model,
		"history", len(req.Messages),
		"reasoning", effort,
		"raw", cfg.Raw,
	)

	processor := NewCLIEventProcessor(os.Stdout, os.Stderr, isTerminal())
	if err := chatTurn(ctx, session, llm.NewMultiPass(cfg.APIKeys), req, question, cfg.Raw, processor); err != nil {
		if processor.Err() != nil {
			// Already reported on stderr
			return cli.Exit("", 1)
		}
		return err
	}

	if err := session.UpdateMetadata(sessionOverrides(flagConfig(cmd))); err != nil {
		zap.S().Debugw("session_metadata_save_failed", "error", err)
	}
	return nil
}

// chatTurn streams the answer to req and records question and answer in
// the session once the answer completes. A failed or cancelled turn leaves
// the session untouched.
func chatTurn(ctx context.Context, session sessions.Session, client llm.LLM, req *llm.CompletionRequest, question messages.ChatMessage, raw bool, processor *CLIEventProcessor) error {
	response := streamCompletion(ctx, client, req, raw, processor)
	if err := processor.Err(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	session.AddMessage(question)
	session.AddMessage(response)
	return nil
}

// streamCompletion runs a request through the reasoning filter into
// processor and returns the final assistant message.
func streamCompletion(ctx context.Context, client llm.LLM, req *llm.CompletionRequest, raw bool, processor messages.EventProcessor) messages.ChatMessage {
	events := client.ChatCompletionStream(ctx, req, messages.NewStreamProcessor())
	if !raw {
		events = thinkfilter.Transform(ctx, events)
	}
	return messages.ProcessEventStream(ctx, events, processor)
}

// getPrompt reads the prompt from --prompt, the arguments, or stdin
func getPrompt(cmd *cli.Command) (string, error) {
	prompt := cmd.String("prompt")
	if prompt == "" && cmd.Args().Len() > 0 {
		prompt = strings.Join(cmd.Args().Slice(), " ")
	}
	if prompt == "" && hasStdinData() {
		stdin, err := readFromStdin()
		if err != nil {
			return "", err
		}
		prompt = stdin
	}
	if strings.TrimSpace(prompt) == "" {
		return "", errors.New("no prompt given (use --prompt, an argument, or stdin)")
	}
	return prompt, nil
}

// openSessionStore returns a file store for named sessions, otherwise a
// throwaway memory store, along with the session name to use.
func openSessionStore(cfg *Config, useLast bool) (sessions.SessionStore, string, error) {
	defaults := &sessions.Metadata{
		Model:            cfg.Model,
		Temperature:      cfg.Temperature,
		MaxTokens:        cfg.MaxTokens,
		ReasoningEffort:  cfg.Reasoning,
		SystemPrompt:     cfg.systemPrompt(),
		MaxHistoryTokens: cfg.MaxHistoryTokens,
	}

	if cfg.Session == "" && !useLast {
		return sessions.NewSyncMapSessionStore(defaults), "default", nil
	}

	store, err := sessions.NewFileSessionStore(cfg.SessionDir, defaults)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create session store: %w", err)
	}

	name := cfg.Session
	if useLast {
		name = store.GetLast()
		if name == "" {
			return nil, "", errors.New("no last session found")
		}
	}
	return store, name, nil
}

// sessionOverrides converts explicitly set flags into a metadata update
func sessionOverrides(flags Config) *sessions.Metadata {
	return &sessions.Metadata{
		Model:           flags.Model,
		Temperature:     flags.Temperature,
		MaxTokens:       flags.MaxTokens,
		ReasoningEffort: flags.Reasoning,
		SystemPrompt:    flags.SystemPrompt,
	}
}
