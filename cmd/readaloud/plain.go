package main

import (
	"context"
	"errors"

	"golang.org/x/net/html"

	reader "github.com/koscakluka/ema-reader/core"
	"github.com/koscakluka/ema-reader/core/dom"
	"github.com/koscakluka/ema-reader/core/events"
)

// readPlain reads from start, or the top of the page, to the end and returns
// once the reading finishes or ctx is done.
func readPlain(ctx context.Context, r *reader.Reader, doc *dom.Document, start *html.Node, eventCh <-chan events.Event) error {
	if start == nil {
		start = doc.Body()
	}

	result := r.ReadFrom(ctx, start)
	if result.Err != nil {
		return result.Err
	}

	for {
		select {
		case <-ctx.Done():
			r.Stop()
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()
		case event := <-eventCh:
			switch event.(type) {
			case events.LongReadFinished:
				return nil
			case events.ReadingStopped:
				return nil
			}
		}
	}
}
