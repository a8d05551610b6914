package messages

import (
	"fmt"
	"io"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Wire field paths for each event kind
const (
	pathType         = "type"
	pathTextDelta    = "textDelta"
	pathText         = "text"
	pathDeltaContent = "delta.content"
)

// DecodeEvent classifies one JSON stream part. It never fails: invalid JSON,
// unknown types and parts whose text field is missing or not a string all
// come back as Other with the payload preserved in Raw.
func DecodeEvent(data []byte) StreamEvent {
	raw := append([]byte(nil), data...)
	if !gjson.ValidBytes(raw) {
		return Other{Raw: raw}
	}

	partType := gjson.GetBytes(raw, pathType).String()
	switch EventKind(partType) {
	case KindTextDelta:
		if text, ok := stringField(raw, pathTextDelta); ok {
			return TextDelta{Text: text, Raw: raw}
		}
	case KindPlainText:
		if text, ok := stringField(raw, pathText); ok {
			return PlainText{Text: text, Raw: raw}
		}
	case KindMessageDelta:
		if content, ok := stringField(raw, pathDeltaContent); ok {
			return MessageDelta{Content: content, Raw: raw}
		}
	case KindReasoning:
		// Reasoning is opaque; whatever text it carries is only informational
		text, ok := stringField(raw, pathText)
		if !ok {
			text, _ = stringField(raw, pathTextDelta)
		}
		return Reasoning{Text: text, Raw: raw}
	}

	return Other{Type: partType, Raw: raw}
}

func stringField(raw []byte, path string) (string, bool) {
	r := gjson.GetBytes(raw, path)
	if r.Type != gjson.String {
		return "", false
	}
	return r.Str, true
}

// EncodeEvent renders an event as a JSON stream part. Events that came off
// the wire keep every field of their original payload; only the text field
// the pipeline may have rewritten is replaced.
func EncodeEvent(ev StreamEvent) ([]byte, error) {
	switch e := ev.(type) {
	case TextDelta:
		return patch(e.Raw, KindTextDelta, pathTextDelta, e.Text)
	case PlainText:
		return patch(e.Raw, KindPlainText, pathText, e.Text)
	case MessageDelta:
		return patch(e.Raw, KindMessageDelta, pathDeltaContent, e.Content)
	case Reasoning:
		return patch(e.Raw, KindReasoning, pathText, e.Text)
	case Other:
		return encodeOther(e)
	case nil:
		return nil, fmt.Errorf("cannot encode nil event")
	default:
		return nil, fmt.Errorf("cannot encode event of kind %q", ev.Kind())
	}
}

func patch(raw []byte, kind EventKind, path, value string) ([]byte, error) {
	var base []byte
	if len(raw) == 0 {
		var err error
		base, err = sjson.SetBytes([]byte(`{}`), pathType, string(kind))
		if err != nil {
			return nil, err
		}
	} else {
		base = append([]byte(nil), raw...)
	}

	out, err := sjson.SetBytes(base, path, value)
	if err != nil {
		return nil, fmt.Errorf("failed to set %s: %w", path, err)
	}
	return out, nil
}

func encodeOther(e Other) ([]byte, error) {
	if len(e.Raw) > 0 {
		return append([]byte(nil), e.Raw...), nil
	}

	out, err := sjson.SetBytes([]byte(`{}`), pathType, e.Type)
	if err != nil {
		return nil, err
	}

	switch p := e.Payload.(type) {
	case nil:
		return out, nil
	case error:
		return sjson.SetBytes(out, "error", p.Error())
	case *ChatMessage:
		return sjson.SetBytes(out, "message", p)
	default:
		return sjson.SetBytes(out, "payload", p)
	}
}

// WriteSSE frames one JSON payload as a server-sent event
func WriteSSE(w io.Writer, payload []byte) error {
	_, err := fmt.Fprintf(w, "data: %s\n\n", payload)
	return err
}
