package main

import (
	"fmt"
	"io"

	"github.com/alexschlessinger/rotorchat/messages"
	"go.uber.org/zap"
)

// CLIEventProcessor prints a sanitized response stream to a writer
type CLIEventProcessor struct {
	out    io.Writer
	errOut io.Writer
	styled bool
	failed error
}

// NewCLIEventProcessor creates a processor writing answers to out and
// errors to errOut. styled enables terminal colors on errors.
func NewCLIEventProcessor(out, errOut io.Writer, styled bool) *CLIEventProcessor {
	return &CLIEventProcessor{out: out, errOut: errOut, styled: styled}
}

// OnContent prints content as it arrives
func (p *CLIEventProcessor) OnContent(content string, firstChunk bool) {
	if firstChunk {
		zap.S().Debugw("first_content_received", "bytes", len(content))
	}
	fmt.Fprint(p.out, content)
}

// OnComplete terminates the answer and records the final message
func (p *CLIEventProcessor) OnComplete(message *messages.ChatMessage) {
	if message.Content != "" {
		fmt.Fprintln(p.out)
	}
	if message.StopReason == messages.StopReasonMaxTokens {
		p.notice("response truncated at the token limit")
	}
	zap.S().Debugw("response_complete",
		"stop_reason", message.StopReason,
		"input_tokens", message.GetInputTokens(),
		"output_tokens", message.GetOutputTokens(),
	)
}

// OnError reports a stream failure
func (p *CLIEventProcessor) OnError(err error) {
	p.failed = err
	msg := fmt.Sprintf("Error: %v", err)
	if p.styled {
		msg = errorStyle.Styled(msg)
	}
	fmt.Fprintln(p.errOut, msg)
}

// Err returns the stream error, if any
func (p *CLIEventProcessor) Err() error {
	return p.failed
}

func (p *CLIEventProcessor) notice(s string) {
	if p.styled {
		s = dimStyle.Styled(s)
	}
	fmt.Fprintln(p.errOut, s)
}
