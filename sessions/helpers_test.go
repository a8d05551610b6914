package sessions

import (
	"strings"
	"testing"

	"github.com/alexschlessinger/rotorchat/messages"
	"github.com/google/go-cmp/cmp"
)

func TestEstimateTokens(t *testing.T) {
	tests := []struct {
		input    messages.ChatMessage
		expected int
	}{
		{messages.ChatMessage{Content: ""}, 4},            // 0 content + 4 overhead
		{messages.ChatMessage{Content: "1234"}, 5},        // 1 content + 4 overhead
		{messages.ChatMessage{Content: "12345678"}, 6},    // 2 content + 4 overhead
		{messages.ChatMessage{Content: "hello world"}, 6}, // 2 content + 4 overhead
	}

	for _, tt := range tests {
		if got := EstimateTokens(tt.input); got != tt.expected {
			t.Errorf("EstimateTokens(%q) = %d; want %d", tt.input.Content, got, tt.expected)
		}
	}
}

func TestTrimHistory(t *testing.T) {
	system := messages.ChatMessage{Role: messages.MessageRoleSystem, Content: "System"}
	q1 := messages.ChatMessage{Role: messages.MessageRoleUser, Content: "1234"}         // 5 tokens
	a1 := messages.ChatMessage{Role: messages.MessageRoleAssistant, Content: "1234"}    // 5 tokens
	q2 := messages.ChatMessage{Role: messages.MessageRoleUser, Content: "12345678"}     // 6 tokens
	a2 := messages.ChatMessage{Role: messages.MessageRoleAssistant, Content: "abcdefgh"} // 6 tokens
	giant := messages.ChatMessage{Role: messages.MessageRoleUser, Content: strings.Repeat("x", 10000)}

	tests := []struct {
		name      string
		history   []messages.ChatMessage
		maxTokens int
		want      []messages.ChatMessage
	}{
		{
			name:      "no limit",
			history:   []messages.ChatMessage{system, q1, a1},
			maxTokens: 0,
			want:      []messages.ChatMessage{system, q1, a1},
		},
		{
			name:      "within limit",
			history:   []messages.ChatMessage{system, q1, a1, q2},
			maxTokens: 100,
			want:      []messages.ChatMessage{system, q1, a1, q2},
		},
		{
			name:      "trim oldest exchange",
			history:   []messages.ChatMessage{system, q1, a1, q2, a2},
			maxTokens: 12, // a2+q2 fit, a1 does not
			want:      []messages.ChatMessage{system, q2, a2},
		},
		{
			name:      "orphaned answer dropped",
			history:   []messages.ChatMessage{system, q1, a1, q2},
			maxTokens: 11, // a1+q2 fit, but a1 lost its question
			want:      []messages.ChatMessage{system, q2},
		},
		{
			name:      "leading answer dropped without limit",
			history:   []messages.ChatMessage{system, a1, q1},
			maxTokens: 0,
			want:      []messages.ChatMessage{system, q1},
		},
		{
			name:      "oversized question kept",
			history:   []messages.ChatMessage{system, q1, giant},
			maxTokens: 100,
			want:      []messages.ChatMessage{system, giant},
		},
		{
			name:      "oversized question keeps its answer",
			history:   []messages.ChatMessage{system, q1, a1, giant, a2},
			maxTokens: 100,
			want:      []messages.ChatMessage{system, giant, a2},
		},
		{
			name:      "no system prompt",
			history:   []messages.ChatMessage{q1, a1, q2, a2},
			maxTokens: 12,
			want:      []messages.ChatMessage{q2, a2},
		},
		{
			name:      "empty",
			history:   nil,
			maxTokens: 10,
			want:      []messages.ChatMessage{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TrimHistory(tt.history, tt.maxTokens)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("TrimHistory() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestMergeMetadata(t *testing.T) {
	existing := &Metadata{Name: "ctx", Model: "fireworks/gpt-oss-120b", MaxTokens: 4096, SystemPrompt: "sys"}

	got := MergeMetadata(existing, &Metadata{Model: "ollama/qwen3:8b", Temperature: 0.2})

	want := &Metadata{Name: "ctx", Model: "ollama/qwen3:8b", MaxTokens: 4096, SystemPrompt: "sys", Temperature: 0.2}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("MergeMetadata() mismatch (-want +got):\n%s", diff)
	}
	if existing.Model != "fireworks/gpt-oss-120b" {
		t.Error("MergeMetadata modified its input")
	}

	if got := MergeMetadata(nil, nil); got == nil || *got != (Metadata{}) {
		t.Errorf("MergeMetadata(nil, nil) = %+v", got)
	}
}

func TestValidateName(t *testing.T) {
	for _, ok := range []string{"default", "bell-206 torque", "ticket_4411"} {
		if err := ValidateName(ok); err != nil {
			t.Errorf("ValidateName(%q) = %v", ok, err)
		}
	}
	for _, bad := range []string{"", ".", "..", "a/b", `a\b`, "x:y", "trailing.", " lead", "tab\tname"} {
		if err := ValidateName(bad); err == nil {
			t.Errorf("ValidateName(%q) should fail", bad)
		}
	}
}
