package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/alexschlessinger/rotorchat/prompts"
	"github.com/urfave/cli/v3"
)

// runSuggest prints the starter questions
func runSuggest(_ context.Context, _ *cli.Command) error {
	printSuggestions(os.Stdout, prompts.SuggestedActions, isTerminal())
	return nil
}

func printSuggestions(w io.Writer, actions []prompts.SuggestedAction, styled bool) {
	for i, a := range actions {
		title := fmt.Sprintf("%d. %s", i+1, a.Title)
		label := a.Label
		if styled {
			title = highlightStyle.Styled(title)
			label = dimStyle.Styled(label)
		}
		fmt.Fprintf(w, "%s %s\n   %s\n", title, label, a.Action)
	}
}
