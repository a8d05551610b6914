package messages

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func drain(ch <-chan StreamEvent) []StreamEvent {
	var out []StreamEvent
	for ev := range ch {
		out = append(out, ev)
	}
	return out
}

func TestProcessMessagesToEvents(t *testing.T) {
	msgs := make(chan ChatMessage, 4)
	msgs <- ChatMessage{Role: MessageRoleAssistant, Reasoning: "thinking"}
	msgs <- ChatMessage{Role: MessageRoleAssistant, Content: "Ground "}
	msgs <- ChatMessage{Role: MessageRoleAssistant, Content: "the aircraft."}
	msgs <- ChatMessage{Role: MessageRoleAssistant, StopReason: StopReasonEndTurn}
	close(msgs)

	got := drain(NewStreamProcessor().ProcessMessagesToEvents(msgs))

	want := []StreamEvent{
		Reasoning{Text: "thinking"},
		TextDelta{Text: "Ground "},
		TextDelta{Text: "the aircraft."},
		Finish(&ChatMessage{
			Role:       MessageRoleAssistant,
			Content:    "Ground the aircraft.",
			Reasoning:  "thinking",
			StopReason: StopReasonEndTurn,
		}),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
}

func TestProcessMessagesToEventsError(t *testing.T) {
	boom := errors.New("connection reset")
	msgs := make(chan ChatMessage, 1)
	msgs <- ChatMessage{Role: MessageRoleAssistant, Err: boom}
	close(msgs)

	got := drain(NewStreamProcessor().ProcessMessagesToEvents(msgs))
	if len(got) != 1 {
		t.Fatalf("expected only the error event, got %#v", got)
	}
	if err := FailureOf(got[0]); !errors.Is(err, boom) {
		t.Errorf("FailureOf = %v", err)
	}
}

type recordingProcessor struct {
	chunks   []string
	firsts   []bool
	complete *ChatMessage
	err      error
}

func (r *recordingProcessor) OnContent(content string, first bool) {
	r.chunks = append(r.chunks, content)
	r.firsts = append(r.firsts, first)
}

func (r *recordingProcessor) OnComplete(msg *ChatMessage) { r.complete = msg }
func (r *recordingProcessor) OnError(err error)          { r.err = err }

func TestProcessEventStream(t *testing.T) {
	events := make(chan StreamEvent, 5)
	events <- TextDelta{Text: "Inspect "}
	events <- Reasoning{Text: "ignored by the consumer"}
	events <- Finish(&ChatMessage{Role: MessageRoleAssistant, Content: "raw <think>x</think>", StopReason: StopReasonEndTurn})
	events <- TextDelta{Text: "the mast."}
	close(events)

	p := &recordingProcessor{}
	got := ProcessEventStream(context.Background(), events, p)

	if got.Content != "Inspect the mast." {
		t.Errorf("content = %q", got.Content)
	}
	if got.StopReason != StopReasonEndTurn {
		t.Errorf("stop reason = %q", got.StopReason)
	}
	if diff := cmp.Diff([]bool{true, false}, p.firsts); diff != "" {
		t.Errorf("first flags (-want +got):\n%s", diff)
	}
	if p.complete == nil || p.complete.Content != got.Content {
		t.Errorf("OnComplete got %#v", p.complete)
	}
}

func TestProcessEventStreamError(t *testing.T) {
	events := make(chan StreamEvent, 1)
	events <- Failure(errors.New("missing API key"))
	close(events)

	p := &recordingProcessor{}
	got := ProcessEventStream(context.Background(), events, p)

	if p.err == nil {
		t.Error("OnError was not called")
	}
	if got.Content != "Error: missing API key" {
		t.Errorf("content = %q", got.Content)
	}
}

func TestTokenUsage(t *testing.T) {
	var msg ChatMessage
	if msg.GetInputTokens() != 0 {
		t.Error("expected zero tokens without metadata")
	}
	msg.SetTokenUsage(120, 45)
	if msg.GetInputTokens() != 120 || msg.GetOutputTokens() != 45 {
		t.Errorf("got %d/%d", msg.GetInputTokens(), msg.GetOutputTokens())
	}

	msg.Metadata[MetadataKeyInputTokens] = float64(7)
	if msg.GetInputTokens() != 7 {
		t.Errorf("float metadata not read: %d", msg.GetInputTokens())
	}
}

func TestProcessEventStreamCancelReleasesProducer(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	events := make(chan StreamEvent)
	done := make(chan struct{})

	go func() {
		defer close(done)
		defer close(events)
		for range 50 {
			events <- TextDelta{Text: "chunk "}
		}
	}()

	p := &cancellingProcessor{cancel: cancel}
	ProcessEventStream(ctx, events, p)

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("producer still blocked after cancel")
	}
}

type cancellingProcessor struct {
	recordingProcessor
	cancel context.CancelFunc
}

func (c *cancellingProcessor) OnContent(content string, first bool) {
	c.cancel()
}
