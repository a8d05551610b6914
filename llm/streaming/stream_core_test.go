package streaming

import (
	"context"
	"errors"
	"testing"

	"github.com/alexschlessinger/rotorchat/messages"
	"github.com/google/go-cmp/cmp"
)

type fakeAdapter struct{}

func (fakeAdapter) ProcessChunk(chunk any, state StreamStateInterface) error {
	n, ok := chunk.(int)
	if !ok {
		return errors.New("unexpected chunk")
	}
	state.SetTokenUsage(n, n*2)
	state.SetMetadata("model", "test-model")
	return nil
}

func (fakeAdapter) EnrichFinalMessage(msg *messages.ChatMessage, state StreamStateInterface) {
	if v, ok := state.GetMetadata("model"); ok {
		msg.Metadata["model"] = v
	}
}

func TestStreamingCore(t *testing.T) {
	ch := make(chan messages.ChatMessage, 10)
	core := NewStreamingCore(context.Background(), ch, fakeAdapter{})

	if err := core.ProcessChunk(3); err != nil {
		t.Fatal(err)
	}
	core.EmitReasoning("hmm")
	core.EmitContent("")
	core.EmitContent("<think>x</think>Land now.")
	core.Complete()
	close(ch)

	var got []messages.ChatMessage
	for m := range ch {
		got = append(got, m)
	}

	want := []messages.ChatMessage{
		{Role: messages.MessageRoleAssistant, Reasoning: "hmm"},
		{Role: messages.MessageRoleAssistant, Content: "<think>x</think>Land now."},
		{
			Role:       messages.MessageRoleAssistant,
			StopReason: messages.StopReasonEndTurn,
			Metadata: map[string]any{
				messages.MetadataKeyInputTokens:  3,
				messages.MetadataKeyOutputTokens: 6,
				"model":                          "test-model",
			},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("messages mismatch (-want +got):\n%s", diff)
	}

	state := core.GetState().Clone()
	if state.ResponseContent != "<think>x</think>Land now." || state.ReasoningContent != "hmm" {
		t.Errorf("state = %+v", state)
	}
}

func TestStreamingCoreError(t *testing.T) {
	ch := make(chan messages.ChatMessage, 1)
	core := NewStreamingCore(context.Background(), ch, nil)

	if err := core.ProcessChunk(1); !errors.Is(err, errNoAdapter) {
		t.Errorf("ProcessChunk without adapter = %v", err)
	}

	boom := errors.New("boom")
	core.EmitError(boom)
	msg := <-ch
	if !errors.Is(msg.Err, boom) || msg.StopReason != messages.StopReasonError {
		t.Errorf("got %#v", msg)
	}
}

func TestStreamingCoreCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ch := make(chan messages.ChatMessage)
	core := NewStreamingCore(ctx, ch, nil)

	// Unbuffered and unread: these must return instead of blocking
	core.EmitContent("late")
	core.EmitError(errors.New("late"))
	core.Complete()
}
