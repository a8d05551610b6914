package thinkfilter

import "regexp"

var completeBlock = regexp.MustCompile(`(?is)<think\b[^>]*>.*?</think\s*>`)

// Strip removes reasoning from a complete, non-incremental text: every
// <think>...</think> block first, then any marker left without a partner.
func Strip(s string) string {
	s = completeBlock.ReplaceAllString(s, "")
	s = closeMarker.ReplaceAllString(s, "")
	return openMarker.ReplaceAllString(s, "")
}
