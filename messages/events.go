package messages

// EventKind names the wire "type" of a stream part
type EventKind string

const (
	// KindTextDelta is an incremental fragment of answer text
	KindTextDelta EventKind = "text-delta"
	// KindReasoning is provider-separated thinking content
	KindReasoning EventKind = "reasoning"
	// KindMessageDelta carries a complete message body in delta.content
	KindMessageDelta EventKind = "message-delta"
	// KindPlainText carries a complete, non-incremental text
	KindPlainText EventKind = "text"
)

// Well-known Other types produced by the stream processor
const (
	OtherTypeFinish = "finish"
	OtherTypeError  = "error"
)

// StreamEvent is one unit of incremental model output.
// The set of implementations is closed: TextDelta, Reasoning, MessageDelta,
// PlainText and Other. Anything a producer cannot classify is an Other.
type StreamEvent interface {
	Kind() EventKind
	isStreamEvent()
}

// TextDelta is a fragment of answer text
type TextDelta struct {
	Text string
	Raw  []byte // Original wire payload, if decoded
}

// Reasoning is thinking content delivered as its own event
type Reasoning struct {
	Text string
	Raw  []byte
}

// MessageDelta carries a full message body rather than a fragment
type MessageDelta struct {
	Content string
	Raw     []byte
}

// PlainText carries a full text part
type PlainText struct {
	Text string
	Raw  []byte
}

// Other is any event the pipeline does not inspect: tool calls, control
// signals, completion, errors, and kinds added by providers later on.
type Other struct {
	Type    string
	Payload any
	Raw     []byte
}

func (TextDelta) Kind() EventKind    { return KindTextDelta }
func (Reasoning) Kind() EventKind    { return KindReasoning }
func (MessageDelta) Kind() EventKind { return KindMessageDelta }
func (PlainText) Kind() EventKind    { return KindPlainText }
func (o Other) Kind() EventKind      { return EventKind(o.Type) }

func (TextDelta) isStreamEvent()    {}
func (Reasoning) isStreamEvent()    {}
func (MessageDelta) isStreamEvent() {}
func (PlainText) isStreamEvent()    {}
func (Other) isStreamEvent()        {}

// Finish wraps the completed message in an Other event
func Finish(msg *ChatMessage) Other {
	return Other{Type: OtherTypeFinish, Payload: msg}
}

// Failure wraps a streaming error in an Other event
func Failure(err error) Other {
	return Other{Type: OtherTypeError, Payload: err}
}

// FinishOf returns the completed message carried by a finish event, or nil
func FinishOf(ev StreamEvent) *ChatMessage {
	o, ok := ev.(Other)
	if !ok || o.Type != OtherTypeFinish {
		return nil
	}
	msg, _ := o.Payload.(*ChatMessage)
	return msg
}

// FailureOf returns the error carried by an error event, or nil
func FailureOf(ev StreamEvent) error {
	o, ok := ev.(Other)
	if !ok || o.Type != OtherTypeError {
		return nil
	}
	err, _ := o.Payload.(error)
	return err
}
