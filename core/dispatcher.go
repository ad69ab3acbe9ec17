package reader

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/net/html"

	"github.com/koscakluka/ema-reader/core/dom"
	"github.com/koscakluka/ema-reader/core/events"
	"github.com/koscakluka/ema-reader/core/extract"
)

const (
	KeyEscape = "Escape"

	previewLength = 100
)

// PointerEvent locates the pointer. Target, when set, is the element under
// the pointer; otherwise the document layout is hit-tested at (X, Y).
type PointerEvent struct {
	X, Y   float64
	Target *html.Node
}

type KeyEvent struct {
	Key string
}

type ReadResult struct {
	Success  bool
	Segments int
	// Preview is the start of the text being read.
	Preview string
	Err     error
}

// Ack answers a stop request. Success is always true; WasReading tells
// whether anything was being read.
type Ack struct {
	Success    bool
	WasReading bool
}

func (a Ack) String() string {
	if a.WasReading {
		return "reading stopped"
	}
	return "no active reading to stop"
}

// HandlePointerMove restarts the hover delay. When the pointer rests for the
// whole delay the text under it is spoken, unless a long read is running or
// the text is what was last hovered.
func (r *Reader) HandlePointerMove(ev PointerEvent) {
	if !r.attached.Load() {
		return
	}
	defer r.recoverHandler("pointer move")

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.controller.IsLongReading() {
		return
	}
	r.hover.schedule(r.hoverDelay, func(seq uint64) { r.hoverElapsed(ev, seq) })
}

func (r *Reader) hoverElapsed(ev PointerEvent, seq uint64) {
	defer r.recoverHandler("hover")

	text := dom.Normalize(dom.OwnText(r.targetOf(ev)))

	r.mu.Lock()
	defer r.mu.Unlock()
	if seq != r.hover.seq || !r.attached.Load() {
		return
	}
	r.hover.timer = nil
	if r.controller.IsLongReading() || text == "" || text == r.hover.lastText {
		return
	}
	r.hover.lastText = text
	r.controller.SpeakHover(text)
}

// HandleContextMenu reads from the element under the pointer onward. The
// returned bool tells the host to suppress its default menu, which happens
// whenever there is an element to read from.
func (r *Reader) HandleContextMenu(ctx context.Context, ev PointerEvent) (ReadResult, bool) {
	if !r.attached.Load() {
		return ReadResult{Err: ErrNotAttached}, false
	}
	target := r.targetOf(ev)
	if target == nil {
		return ReadResult{Err: ErrNoTarget}, false
	}
	return r.ReadFrom(ctx, target), true
}

// ReadFrom collects the text from start to the end of the document,
// including embedded frames, and reads it segment by segment. A later long
// read or a stop supersedes one whose collection is still running.
func (r *Reader) ReadFrom(ctx context.Context, start *html.Node) (result ReadResult) {
	if !r.attached.Load() {
		return ReadResult{Err: ErrNotAttached}
	}
	defer func() {
		if p := recover(); p != nil {
			logger.Error("long read panicked", "panic", p)
			result = ReadResult{Err: fmt.Errorf("%w: %v", ErrReadFailed, p)}
		}
	}()

	ctx, span := tracer.Start(ctx, "long read")
	defer span.End()

	readCtx, generation := r.beginRead(ctx)
	defer r.endRead(generation)

	segments, err := r.extractor.CollectFrom(readCtx, start)
	if err != nil {
		if r.superseded(generation) {
			return ReadResult{Err: ErrSuperseded}
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to collect text")
		return ReadResult{Err: fmt.Errorf("%w: %w", ErrReadFailed, err)}
	}
	if len(segments) == 0 {
		logger.Info("no text found to read")
		r.emit(events.NewNoTextFound())
		return ReadResult{Err: ErrNoTextFound}
	}

	texts := extract.Texts(segments)
	span.SetAttributes(attribute.Int("segments", len(texts)))

	r.mu.Lock()
	if generation != r.generation {
		r.mu.Unlock()
		return ReadResult{Err: ErrSuperseded}
	}
	started := r.controller.StartLongRead(texts)
	r.mu.Unlock()

	if !started {
		r.emit(events.NewNoTextFound())
		return ReadResult{Err: ErrNoTextFound}
	}
	return ReadResult{
		Success:  true,
		Segments: len(texts),
		Preview:  preview(extract.Join(segments)),
	}
}

// HandleKeyDown stops speech on Escape. It reports whether the key was
// consumed.
func (r *Reader) HandleKeyDown(ev KeyEvent) bool {
	if ev.Key != KeyEscape || !r.attached.Load() {
		return false
	}
	if !r.speech().IsSpeaking() {
		return false
	}
	r.stopLocal()
	return true
}

// Stop is the control surface's stop command. The top frame forwards it to
// every embedded frame before stopping itself.
func (r *Reader) Stop() Ack {
	if r.router.IsTop() {
		ctx, cancel := context.WithTimeout(context.Background(), r.frameTimeout)
		r.router.BroadcastStop(ctx)
		cancel()
	}
	return Ack{Success: true, WasReading: r.stopLocal()}
}

func (r *Reader) stopLocal() bool {
	r.mu.Lock()
	r.generation++
	if r.cancelRead != nil {
		r.cancelRead()
		r.cancelRead = nil
	}
	r.hover.reset()
	wasReading := r.controller.Stop()
	r.mu.Unlock()

	logger.Info("reading stopped", "was_reading", wasReading)
	r.emit(events.NewReadingStopped(wasReading))
	return wasReading
}

func (r *Reader) beginRead(ctx context.Context) (context.Context, uint64) {
	readCtx, cancel := context.WithCancel(ctx)

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancelRead != nil {
		r.cancelRead()
	}
	r.generation++
	r.cancelRead = cancel
	return readCtx, r.generation
}

func (r *Reader) endRead(generation uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if generation == r.generation && r.cancelRead != nil {
		r.cancelRead()
		r.cancelRead = nil
	}
}

func (r *Reader) superseded(generation uint64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return generation != r.generation
}

func (r *Reader) targetOf(ev PointerEvent) *html.Node {
	if ev.Target != nil {
		return ev.Target
	}
	return dom.ElementFromPoint(r.doc, ev.X, ev.Y)
}

func (r *Reader) recoverHandler(handler string) {
	if p := recover(); p != nil {
		logger.Error("input handler panicked", "handler", handler, "panic", p)
	}
}

func preview(text string) string {
	runes := []rune(text)
	if len(runes) > previewLength {
		runes = runes[:previewLength]
	}
	return string(runes) + "..."
}
