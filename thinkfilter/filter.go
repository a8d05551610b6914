// Package thinkfilter removes model reasoning from a stream of events.
//
// Reasoning arrives two ways: as dedicated Reasoning events, and inline in
// answer text between <think> and </think> markers. Inline markers may be
// split across any number of TextDelta events, so a Filter holds back the
// few bytes that could still turn out to be the start of a marker and
// releases them once the next fragment settles the question.
package thinkfilter

import (
	"regexp"
	"unicode/utf8"

	"github.com/alexschlessinger/rotorchat/messages"
	"go.uber.org/zap"
)

const (
	// tailHold is the minimum number of trailing bytes kept back outside a
	// block, enough for "<think>" or "</think>" split anywhere.
	tailHold = 16
	// maxPartialMarker bounds how far back an incomplete open marker with
	// attributes may extend the held tail.
	maxPartialMarker = 256
	// reasoningCeiling and reasoningKeep bound the buffer inside an
	// unterminated block. Anything dropped is reasoning content anyway.
	reasoningCeiling = 8192
	reasoningKeep    = 4096
)

var (
	openMarker  = regexp.MustCompile(`(?i)<think\b[^>]*>`)
	closeMarker = regexp.MustCompile(`(?i)</think\s*>`)
)

// FilterState is everything a Filter remembers between events
type FilterState struct {
	// InsideReasoningBlock is true once an open marker has been consumed and
	// its close marker has not.
	InsideReasoningBlock bool
	// PendingBuffer is received text that is not yet safe to release
	PendingBuffer string
}

// Filter strips reasoning from one response stream. It is not safe for
// concurrent use; create one per stream.
type Filter struct {
	state FilterState
}

// New returns a Filter for a new response stream
func New() *Filter {
	return &Filter{}
}

// State returns a snapshot of the filter state
func (f *Filter) State() FilterState {
	return f.state
}

// Process consumes one event and returns the event to forward, if any.
// It never returns more than one event and never a TextDelta with empty text.
func (f *Filter) Process(ev messages.StreamEvent) (messages.StreamEvent, bool) {
	switch e := ev.(type) {
	case nil:
		return nil, false

	case messages.Reasoning:
		return nil, false

	case messages.TextDelta:
		f.state.PendingBuffer += e.Text
		out := f.scan()
		if out == "" {
			return nil, false
		}
		return messages.TextDelta{Text: out, Raw: e.Raw}, true

	case messages.MessageDelta:
		// May legitimately become empty; still forwarded
		return messages.MessageDelta{Content: Strip(e.Content), Raw: e.Raw}, true

	case messages.PlainText:
		cleaned := Strip(e.Text)
		if cleaned == "" {
			return nil, false
		}
		return messages.PlainText{Text: cleaned, Raw: e.Raw}, true

	default:
		return ev, true
	}
}

// Flush ends the stream. Text held outside a block is released with any
// orphan closers removed; an unterminated block is dropped. The filter is
// reset afterwards.
func (f *Filter) Flush() (messages.StreamEvent, bool) {
	state := f.state
	f.state = FilterState{}

	if state.InsideReasoningBlock {
		if state.PendingBuffer != "" {
			zap.S().Debugw("think_filter_unterminated_block_dropped",
				"buffered_len", len(state.PendingBuffer),
			)
		}
		return nil, false
	}

	safe := closeMarker.ReplaceAllString(state.PendingBuffer, "")
	if safe == "" {
		return nil, false
	}
	return messages.TextDelta{Text: safe}, true
}

// scan runs the marker state machine over the pending buffer and returns
// the text that is safe to release.
//
// A second open marker met inside a block is not tracked as nesting: it is
// reasoning content, and the first close marker ends the block.
func (f *Filter) scan() string {
	var out []byte

	for {
		buf := f.state.PendingBuffer

		if !f.state.InsideReasoningBlock {
			closeLoc := closeMarker.FindStringIndex(buf)
			openLoc := openMarker.FindStringIndex(buf)

			// Orphan closer: a close marker with no open marker before it
			if closeLoc != nil && (openLoc == nil || closeLoc[0] < openLoc[0]) {
				f.state.PendingBuffer = buf[:closeLoc[0]] + buf[closeLoc[1]:]
				continue
			}

			if openLoc == nil {
				cut := releasable(buf)
				out = append(out, buf[:cut]...)
				f.state.PendingBuffer = buf[cut:]
				return string(out)
			}

			out = append(out, buf[:openLoc[0]]...)
			f.state.PendingBuffer = buf[openLoc[1]:]
			f.state.InsideReasoningBlock = true
			continue
		}

		closeLoc := closeMarker.FindStringIndex(buf)
		if closeLoc == nil {
			if len(buf) > reasoningCeiling {
				f.state.PendingBuffer = buf[runeAligned(buf, len(buf)-reasoningKeep):]
				zap.S().Debugw("think_filter_reasoning_truncated",
					"dropped_len", len(buf)-len(f.state.PendingBuffer),
				)
			}
			return string(out)
		}

		f.state.PendingBuffer = buf[closeLoc[1]:]
		f.state.InsideReasoningBlock = false
	}
}

// releasable returns how many leading bytes of buf, which holds no complete
// marker, can be released. The rest is held back: at least the last
// tailHold bytes, and further back to the start of a marker that is still
// arriving, as long as that start is within maxPartialMarker bytes.
func releasable(buf string) int {
	cut := len(buf) - tailHold
	if start := partialMarkerStart(buf); start >= 0 && start < cut {
		cut = start
	}
	if cut <= 0 {
		return 0
	}
	return runeAligned(buf, cut)
}

// partialMarkerStart returns the earliest index i within the last
// maxPartialMarker bytes such that buf[i:] could still grow into an open or
// close marker, or -1.
func partialMarkerStart(buf string) int {
	from := max(len(buf)-maxPartialMarker, 0)
	for i := from; i < len(buf); i++ {
		if buf[i] == '<' && couldBeMarker(buf[i:]) {
			return i
		}
	}
	return -1
}

// couldBeMarker reports whether s, which starts with '<', is a proper
// prefix of some open or close marker.
func couldBeMarker(s string) bool {
	const openName = "<think"
	const closeName = "</think"

	if isPrefixFold(s, openName) {
		return true
	}
	if len(s) > len(openName) && hasPrefixFold(s, openName) {
		// "<think" must be followed by a non-word byte, then anything but '>'
		if isWordByte(s[len(openName)]) {
			return false
		}
		for i := len(openName); i < len(s); i++ {
			if s[i] == '>' {
				return false
			}
		}
		return true
	}

	if isPrefixFold(s, closeName) {
		return true
	}
	if len(s) > len(closeName) && hasPrefixFold(s, closeName) {
		for i := len(closeName); i < len(s); i++ {
			if !isSpace(s[i]) {
				return false
			}
		}
		return true
	}
	return false
}

// isPrefixFold reports whether s is a case-insensitive prefix of word
func isPrefixFold(s, word string) bool {
	return len(s) <= len(word) && hasPrefixFold(word, s)
}

// hasPrefixFold reports whether s starts with prefix, ignoring ASCII case
func hasPrefixFold(s, prefix string) bool {
	if len(s) < len(prefix) {
		return false
	}
	for i := 0; i < len(prefix); i++ {
		if lower(s[i]) != lower(prefix[i]) {
			return false
		}
	}
	return true
}

func lower(b byte) byte {
	if 'A' <= b && b <= 'Z' {
		return b + ('a' - 'A')
	}
	return b
}

func isWordByte(b byte) bool {
	return b == '_' || ('0' <= b && b <= '9') || ('a' <= b && b <= 'z') || ('A' <= b && b <= 'Z')
}

// isSpace matches the RE2 \s class
func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\f' || b == '\r'
}

// runeAligned moves i back to the start of the rune containing it so a cut
// never splits a UTF-8 sequence across two events.
func runeAligned(s string, i int) int {
	for i > 0 && i < len(s) && !utf8.RuneStart(s[i]) {
		i--
	}
	return i
}
