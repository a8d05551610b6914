package messages

import (
	"bytes"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/tidwall/gjson"
)

func TestDecodeEvent(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want StreamEvent
	}{
		{
			name: "text delta",
			in:   `{"type":"text-delta","textDelta":"Check the chip detector"}`,
			want: TextDelta{Text: "Check the chip detector"},
		},
		{
			name: "text delta without text is malformed",
			in:   `{"type":"text-delta","id":"1"}`,
			want: Other{Type: "text-delta"},
		},
		{
			name: "text delta with numeric text is malformed",
			in:   `{"type":"text-delta","textDelta":42}`,
			want: Other{Type: "text-delta"},
		},
		{
			name: "reasoning",
			in:   `{"type":"reasoning","text":"hmm"}`,
			want: Reasoning{Text: "hmm"},
		},
		{
			name: "reasoning without text",
			in:   `{"type":"reasoning","providerMetadata":{}}`,
			want: Reasoning{},
		},
		{
			name: "message delta",
			in:   `{"type":"message-delta","delta":{"content":"a<think>b</think>"}}`,
			want: MessageDelta{Content: "a<think>b</think>"},
		},
		{
			name: "message delta without content is malformed",
			in:   `{"type":"message-delta","delta":{}}`,
			want: Other{Type: "message-delta"},
		},
		{
			name: "plain text",
			in:   `{"type":"text","text":"done"}`,
			want: PlainText{Text: "done"},
		},
		{
			name: "tool call",
			in:   `{"type":"tool-call","toolName":"getWeather"}`,
			want: Other{Type: "tool-call"},
		},
		{
			name: "not json",
			in:   `data: nope`,
			want: Other{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DecodeEvent([]byte(tt.in))
			ignoreRaw := cmp.FilterPath(func(p cmp.Path) bool {
				return p.Last().String() == ".Raw"
			}, cmp.Ignore())
			if diff := cmp.Diff(tt.want, got, ignoreRaw); diff != "" {
				t.Errorf("decode mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDecodeKeepsPayload(t *testing.T) {
	in := []byte(`{"type":"tool-call","toolName":"getWeather","args":{"city":"Calgary"}}`)
	ev := DecodeEvent(in)

	out, err := EncodeEvent(ev)
	if err != nil {
		t.Fatalf("EncodeEvent: %v", err)
	}
	if !bytes.Equal(out, in) {
		t.Errorf("got %s, want %s", out, in)
	}
}

func TestEncodePatchesOnlyText(t *testing.T) {
	ev := DecodeEvent([]byte(`{"type":"text-delta","id":"msg-1","textDelta":"a<think>b</think>c"}`))
	td := ev.(TextDelta)
	td.Text = "ac"

	out, err := EncodeEvent(td)
	if err != nil {
		t.Fatalf("EncodeEvent: %v", err)
	}
	if got := gjson.GetBytes(out, "textDelta").String(); got != "ac" {
		t.Errorf("textDelta = %q", got)
	}
	if got := gjson.GetBytes(out, "id").String(); got != "msg-1" {
		t.Errorf("id = %q", got)
	}
}

func TestEncodeWithoutRaw(t *testing.T) {
	tests := []struct {
		name  string
		in    StreamEvent
		path  string
		value string
	}{
		{"text delta", TextDelta{Text: "tail"}, "textDelta", "tail"},
		{"message delta", MessageDelta{Content: ""}, "delta.content", ""},
		{"plain text", PlainText{Text: "x"}, "text", "x"},
		{"error", Failure(errors.New("boom")), "error", "boom"},
		{"finish", Finish(&ChatMessage{Role: MessageRoleAssistant, Content: "ok"}), "message.content", "ok"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := EncodeEvent(tt.in)
			if err != nil {
				t.Fatalf("EncodeEvent: %v", err)
			}
			if got := gjson.GetBytes(out, "type").String(); got != string(tt.in.Kind()) {
				t.Errorf("type = %q, want %q", got, tt.in.Kind())
			}
			r := gjson.GetBytes(out, tt.path)
			if !r.Exists() || r.String() != tt.value {
				t.Errorf("%s = %q, want %q (payload %s)", tt.path, r.String(), tt.value, out)
			}
		})
	}
}

func TestEncodeNil(t *testing.T) {
	if _, err := EncodeEvent(nil); err == nil {
		t.Error("expected an error for a nil event")
	}
}

func TestWriteSSE(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSSE(&buf, []byte(`{"type":"text","text":"hi"}`)); err != nil {
		t.Fatal(err)
	}
	if want := "data: {\"type\":\"text\",\"text\":\"hi\"}\n\n"; buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}
}
