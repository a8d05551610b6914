package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/alexschlessinger/rotorchat/prompts"
)

func TestPrintSuggestions(t *testing.T) {
	var buf bytes.Buffer
	printSuggestions(&buf, prompts.SuggestedActions, false)

	out := buf.String()
	for i, a := range prompts.SuggestedActions {
		if !strings.Contains(out, a.Title) || !strings.Contains(out, a.Action) {
			t.Errorf("suggestion %d missing from output:\n%s", i, out)
		}
	}
	if !strings.HasPrefix(out, "1. ") {
		t.Errorf("suggestions should be numbered, got %q", out[:min(len(out), 20)])
	}
}
