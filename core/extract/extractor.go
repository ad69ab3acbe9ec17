// Package extract assembles the reading sequence of a document from an
// arbitrary start node to its end, crossing embedded frame boundaries.
package extract

import (
	"context"
	"errors"
	"strings"

	"github.com/koscakluka/ema-reader/core/dom"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/net/html"
	"golang.org/x/sync/errgroup"
)

const defaultMaxFrameDepth = 8

// FrameTextRequester fetches the text of a frame whose document cannot be
// inspected directly. It returns "" when the frame does not answer.
type FrameTextRequester interface {
	RequestFrameText(ctx context.Context, frame *html.Node) string
}

type Option func(*Extractor)

// WithFrameTextRequester sets how cross-origin frames are read. Without one,
// cross-origin frames contribute nothing.
func WithFrameTextRequester(requester FrameTextRequester) Option {
	return func(e *Extractor) { e.frames = requester }
}

// WithMaxFrameDepth limits recursion into nested same-origin frames.
func WithMaxFrameDepth(depth int) Option {
	return func(e *Extractor) {
		if depth > 0 {
			e.maxFrameDepth = depth
		}
	}
}

type Extractor struct {
	doc           *dom.Document
	frames        FrameTextRequester
	maxFrameDepth int
}

func New(doc *dom.Document, opts ...Option) *Extractor {
	e := &Extractor{doc: doc, maxFrameDepth: defaultMaxFrameDepth}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

type pendingFrame struct {
	index int
	frame *html.Node
}

// CollectFrom returns the segments from start to the end of the document.
//
// Cross-origin frames are requested concurrently and awaited before
// returning; frames that do not answer are dropped. An empty result means no
// text follows start. The only error is cancellation of ctx.
func (e *Extractor) CollectFrom(ctx context.Context, start *html.Node) ([]Segment, error) {
	ctx, span := tracer.Start(ctx, "collect text")
	defer span.End()

	if e == nil || e.doc == nil || start == nil {
		return nil, nil
	}

	items := dom.Traverse(e.doc)
	startIndex := e.locateStart(items, start)
	span.SetAttributes(
		attribute.Int("extract.items", len(items)),
		attribute.Int("extract.start_index", startIndex),
	)

	if startIndex < 0 {
		if text := dom.Normalize(dom.OwnText(start)); text != "" {
			return []Segment{{Text: text, Origin: OriginInline}}, nil
		}
		return nil, nil
	}

	var segments []Segment
	var pending []pendingFrame
	for _, item := range items[startIndex:] {
		switch it := item.(type) {
		case dom.Text:
			if text := dom.Normalize(it.Content()); text != "" {
				segments = append(segments, Segment{Text: text, Origin: OriginInline})
			}
		case dom.FrameBoundary:
			frameDoc, err := e.doc.FrameDocument(it.Node())
			if err == nil {
				if text := e.documentText(frameDoc, 1); text != "" {
					segments = append(segments, Segment{Text: text, Origin: OriginSameOriginFrame})
					continue
				}
				// an empty frame may still be filled in by its own reader
			} else if !errors.Is(err, dom.ErrCrossOrigin) {
				logger.Warn("frame document unavailable, falling back to messaging", "error", err)
			}
			pending = append(pending, pendingFrame{index: len(segments), frame: it.Node()})
			segments = append(segments, Segment{Origin: OriginPlaceholderUnresolved})
		case dom.Skip:
		}
	}

	if len(pending) > 0 {
		span.SetAttributes(attribute.Int("extract.pending_frames", len(pending)))
		resolved := make([]string, len(pending))
		if e.frames != nil {
			g, gctx := errgroup.WithContext(ctx)
			for i, p := range pending {
				g.Go(func() error {
					resolved[i] = dom.Normalize(e.frames.RequestFrameText(gctx, p.frame))
					return nil
				})
			}
			_ = g.Wait()
		}

		for i, p := range pending {
			segments[p.index] = Segment{Text: resolved[i], Origin: OriginCrossOriginFrame}
		}
	}

	if err := ctx.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	return compact(segments), nil
}

// locateStart finds the first text item inside start, falling back to the
// first text item rendered at or after start. Returns -1 when neither exists.
func (e *Extractor) locateStart(items []dom.Item, start *html.Node) int {
	for i, item := range items {
		if text, ok := item.(dom.Text); ok && dom.Contains(start, text.Node()) {
			return i
		}
	}

	if e.doc.Layout == nil {
		return -1
	}
	startRect, ok := e.doc.Layout.Rect(start)
	if !ok {
		return -1
	}
	for i, item := range items {
		text, ok := item.(dom.Text)
		if !ok {
			continue
		}
		if rect, ok := e.doc.Layout.Rect(text.Node()); ok && rect.AtOrAfter(startRect) {
			return i
		}
	}
	return -1
}

// documentText flattens a same-origin frame document, inlining nested
// same-origin frames. Nested cross-origin frames are not enumerated.
func (e *Extractor) documentText(doc *dom.Document, depth int) string {
	var parts []string
	for _, item := range dom.Traverse(doc) {
		switch it := item.(type) {
		case dom.Text:
			parts = append(parts, it.Content())
		case dom.FrameBoundary:
			if depth >= e.maxFrameDepth {
				continue
			}
			if nested, err := doc.FrameDocument(it.Node()); err == nil {
				parts = append(parts, e.documentText(nested, depth+1))
			}
		case dom.Skip:
		}
	}
	return dom.Normalize(strings.Join(parts, " "))
}

func compact(segments []Segment) []Segment {
	out := segments[:0]
	for _, segment := range segments {
		if segment.Text != "" {
			out = append(out, segment)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
