package thinkfilter

import (
	"context"

	"github.com/alexschlessinger/rotorchat/messages"
)

// Transform filters every event read from in through a new Filter and
// returns the cleaned stream. When in closes the filter is flushed and the
// returned channel closed. Cancelling ctx stops delivery without a flush;
// whatever is still sent on in is then read and discarded.
func Transform(ctx context.Context, in <-chan messages.StreamEvent) <-chan messages.StreamEvent {
	out := make(chan messages.StreamEvent, 10)

	go func() {
		defer close(out)
		defer func() {
			// Keep the producer from blocking once delivery stops
			if ctx.Err() != nil {
				go drain(in)
			}
		}()

		f := New()
		send := func(ev messages.StreamEvent) bool {
			select {
			case <-ctx.Done():
				return false
			case out <- ev:
				return true
			}
		}

		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-in:
				if !ok {
					if final, emit := f.Flush(); emit {
						send(final)
					}
					return
				}
				if cleaned, emit := f.Process(ev); emit {
					if !send(cleaned) {
						return
					}
				}
			}
		}
	}()

	return out
}

func drain(in <-chan messages.StreamEvent) {
	for range in {
	}
}
