package sessions

import (
	"fmt"
	"strings"

	"dario.cat/mergo"
	"github.com/alexschlessinger/rotorchat/messages"
	"github.com/alexschlessinger/rotorchat/thinkfilter"
)

// perMessageOverhead approximates role and framing tokens
const perMessageOverhead = 4

// EstimateTokens roughly sizes a message at four bytes per token
func EstimateTokens(msg messages.ChatMessage) int {
	return len(msg.Content)/4 + perMessageOverhead
}

// TrimHistory keeps the system prompt and the newest messages that fit in
// maxTokens. The kept conversation always starts with a user message, so
// an assistant reply is never kept without its question, and the newest
// user message is kept even when it alone exceeds maxTokens. maxTokens 0
// disables the size limit.
func TrimHistory(history []messages.ChatMessage, maxTokens int) []messages.ChatMessage {
	var system []messages.ChatMessage
	rest := history
	if len(history) > 0 && history[0].Role == messages.MessageRoleSystem {
		system, rest = history[:1], history[1:]
	}

	start := 0
	if maxTokens > 0 {
		start = len(rest)
		total := 0
		for i := len(rest) - 1; i >= 0; i-- {
			total += EstimateTokens(rest[i])
			if total > maxTokens {
				break
			}
			start = i
		}
	}

	// The newest question and anything after it survive even over budget
	for i := len(rest) - 1; i >= 0; i-- {
		if rest[i].Role == messages.MessageRoleUser {
			start = min(start, i)
			break
		}
	}

	for start < len(rest) && rest[start].Role != messages.MessageRoleUser {
		start++
	}

	out := make([]messages.ChatMessage, 0, len(system)+len(rest)-start)
	out = append(out, system...)
	return append(out, rest[start:]...)
}

// CopyHistory creates a copy of the history slice
func CopyHistory(history []messages.ChatMessage) []messages.ChatMessage {
	result := make([]messages.ChatMessage, len(history))
	copy(result, history)
	return result
}

// sanitize prepares a message for storage. Reasoning is dropped and any
// inline reasoning markup is stripped from assistant content.
func sanitize(msg messages.ChatMessage) messages.ChatMessage {
	msg.Reasoning = ""
	msg.Err = nil
	if msg.Role == messages.MessageRoleAssistant {
		msg.Content = thinkfilter.Strip(msg.Content)
	}
	return msg
}

// MergeMetadata returns a copy of existing with the non-zero fields of in
// applied on top.
func MergeMetadata(existing *Metadata, in *Metadata) *Metadata {
	if existing == nil {
		existing = &Metadata{}
	}
	out := *existing
	if in == nil {
		return &out
	}

	if err := mergo.Merge(&out, *in, mergo.WithOverride); err != nil {
		return existing
	}
	return &out
}

// ValidateName checks that a session name is safe to use as a file name
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("session name cannot be empty")
	}
	if strings.ContainsAny(name, "/\\:*?\"<>|") {
		return fmt.Errorf("session name contains invalid characters (/, \\, :, *, ?, \", <, >, |)")
	}
	if name == "." || name == ".." {
		return fmt.Errorf("session name cannot be '.' or '..'")
	}
	if strings.HasPrefix(name, " ") || strings.HasSuffix(name, " ") {
		return fmt.Errorf("session name cannot start or end with spaces")
	}
	if strings.HasPrefix(name, ".") || strings.HasSuffix(name, ".") {
		return fmt.Errorf("session name cannot start or end with dots")
	}
	for _, r := range name {
		if r < 32 || r == 127 {
			return fmt.Errorf("session name contains control characters")
		}
	}
	return nil
}
