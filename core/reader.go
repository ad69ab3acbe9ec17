// Package reader reads document text aloud. A [Reader] is bound to one frame
// context: it speaks the text under a resting pointer, reads everything from
// a chosen element onward on request, and relays text and stop requests
// between embedded frames.
package reader

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/net/html"

	"github.com/koscakluka/ema-reader/core/dom"
	"github.com/koscakluka/ema-reader/core/extract"
	"github.com/koscakluka/ema-reader/core/frames"
	"github.com/koscakluka/ema-reader/core/speech"
)

type Reader struct {
	doc        *dom.Document
	engine     speech.Engine
	router     *frames.Router
	extractor  *extract.Extractor
	controller *speechController

	hoverDelay   time.Duration
	frameTimeout time.Duration
	parentPort   frames.Port
	childPorts   map[*html.Node]frames.Port
	callbacks    callbackOptions
	emit         eventEmitter

	mu         sync.Mutex
	hover      hoverState
	generation uint64
	cancelRead context.CancelFunc

	attachMu sync.Mutex
	attached atomic.Bool
	cancel   context.CancelFunc
}

func NewReader(doc *dom.Document, opts ...ReaderOption) *Reader {
	r := &Reader{
		doc:          doc,
		hoverDelay:   DefaultHoverDelay,
		frameTimeout: frames.DefaultRequestTimeout,
		childPorts:   map[*html.Node]frames.Port{},
		emit:         noopEventEmitter,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.emit = newCallbackEventEmitter(r.callbacks)

	r.router = frames.NewRouter(frames.WithRequestTimeout(r.frameTimeout))
	r.router.SetTextSource(func() string { return dom.VisibleText(r.doc) })
	r.router.SetStopHandler(func() { r.stopLocal() })
	r.extractor = extract.New(doc, extract.WithFrameTextRequester(r.router.Bridge()))
	return r
}

// Installed logs the one-time install notice of the host.
func Installed() {
	logger.Info("text reader installed")
}

// Attach starts handling input and frame messages. Without a speech engine
// nothing is attached and ErrSpeechUnsupported is returned.
func (r *Reader) Attach(ctx context.Context) error {
	if r.engine == nil {
		logger.Error("speech synthesis not supported, reader not attached")
		return ErrSpeechUnsupported
	}
	r.attachMu.Lock()
	defer r.attachMu.Unlock()
	if r.attached.Load() {
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	r.mu.Lock()
	r.cancel = cancel
	r.controller = newSpeechController(ctx, r.engine, r.emit)
	r.mu.Unlock()

	if r.parentPort != nil {
		r.router.ConnectParent(r.parentPort)
	}
	for frame, port := range r.childPorts {
		r.router.ConnectChild(frame, port)
	}
	// input is accepted only once the controller exists
	r.attached.Store(true)
	logger.Info("reader attached", "top", r.router.IsTop(), "child_frames", len(r.childPorts))
	return nil
}

// Detach stops any reading and closes the frame ports.
func (r *Reader) Detach() error {
	r.attachMu.Lock()
	defer r.attachMu.Unlock()
	if !r.attached.CompareAndSwap(true, false) {
		return nil
	}
	r.stopLocal()

	r.mu.Lock()
	cancel := r.cancel
	r.cancel = nil
	r.mu.Unlock()
	if cancel != nil {
		cancel()
	}

	if err := r.router.Close(); err != nil {
		return errors.Join(errors.New("failed to close frame ports"), err)
	}
	return nil
}

// ConnectParent connects the reader to its embedding frame after
// construction.
func (r *Reader) ConnectParent(port frames.Port) {
	r.router.ConnectParent(port)
}

// ConnectChildFrame connects a cross-origin frame element to the reader
// running inside it.
func (r *Reader) ConnectChildFrame(frame *html.Node, port frames.Port) {
	r.router.ConnectChild(frame, port)
}

func (r *Reader) State() State {
	return r.speech().State()
}

func (r *Reader) speech() *speechController {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.controller
}
