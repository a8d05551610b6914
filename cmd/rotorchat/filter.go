package main

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/alexschlessinger/rotorchat/messages"
	"github.com/alexschlessinger/rotorchat/thinkfilter"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// maxLineSize bounds one stream part on the input
const maxLineSize = 4 * 1024 * 1024

var (
	ssePrefix    = []byte("data:")
	doneSentinel = []byte("[DONE]")
)

// filterOptions controls the filter subcommand
type filterOptions struct {
	// SSE frames output parts as server-sent events instead of JSON lines
	SSE bool
	// Raw passes parts through without removing reasoning
	Raw bool
}

// runFilter sanitizes a stream of JSON parts from stdin to stdout
func runFilter(ctx context.Context, cmd *cli.Command) error {
	ctx, cancel := setupSignalHandling(ctx)
	defer cancel()

	return filterStream(ctx, os.Stdin, os.Stdout, filterOptions{
		SSE: cmd.Bool("sse"),
		Raw: cmd.Bool("raw"),
	})
}

// filterStream reads newline-delimited parts (bare JSON or SSE "data:"
// lines) from r and writes the cleaned parts to w, one per line or SSE frame.
func filterStream(ctx context.Context, r io.Reader, w io.Writer, opts filterOptions) error {
	g, ctx := errgroup.WithContext(ctx)

	in := make(chan messages.StreamEvent, 10)
	var sawDone bool

	g.Go(func() error {
		defer close(in)
		done, err := readEvents(ctx, r, in)
		sawDone = done
		return err
	})

	var events <-chan messages.StreamEvent = in
	if !opts.Raw {
		events = thinkfilter.Transform(ctx, in)
	}

	bw := bufio.NewWriter(w)
	g.Go(func() error {
		return writeEvents(bw, events, opts.SSE)
	})

	if err := g.Wait(); err != nil {
		return err
	}

	if sawDone && opts.SSE {
		if err := messages.WriteSSE(bw, doneSentinel); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// readEvents decodes parts from r until EOF. It reports whether the stream
// ended with a [DONE] sentinel.
func readEvents(ctx context.Context, r io.Reader, out chan<- messages.StreamEvent) (bool, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var done bool
	var count int
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		if bytes.HasPrefix(line, ssePrefix) {
			line = bytes.TrimSpace(line[len(ssePrefix):])
		} else if line[0] != '{' && line[0] != '[' {
			// SSE comments and event/id/retry fields carry no part
			continue
		}
		if bytes.Equal(line, doneSentinel) {
			done = true
			continue
		}

		count++
		select {
		case <-ctx.Done():
			return done, ctx.Err()
		case out <- messages.DecodeEvent(line):
		}
	}
	if err := scanner.Err(); err != nil {
		return done, fmt.Errorf("error reading stream: %w", err)
	}

	zap.S().Debugw("filter_input_complete", "parts", count, "done_sentinel", done)
	return done, nil
}

// writeEvents encodes each event to w, flushing after every part
func writeEvents(w *bufio.Writer, events <-chan messages.StreamEvent, sse bool) error {
	for ev := range events {
		payload, err := messages.EncodeEvent(ev)
		if err != nil {
			return fmt.Errorf("failed to encode %s part: %w", ev.Kind(), err)
		}

		if sse {
			err = messages.WriteSSE(w, payload)
		} else {
			_, err = fmt.Fprintf(w, "%s\n", payload)
		}
		if err != nil {
			return err
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}
	return nil
}
