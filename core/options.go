package reader

import (
	"time"

	"golang.org/x/net/html"

	"github.com/koscakluka/ema-reader/core/events"
	"github.com/koscakluka/ema-reader/core/frames"
	"github.com/koscakluka/ema-reader/core/speech"
)

const DefaultHoverDelay = 300 * time.Millisecond

type ReaderOption func(*Reader)

// WithSpeechEngine sets the engine utterances are spoken with. A reader
// without an engine refuses to attach.
func WithSpeechEngine(engine speech.Engine) ReaderOption {
	return func(r *Reader) { r.engine = engine }
}

// WithHoverDelay sets how long the pointer has to rest before hover text is
// spoken.
func WithHoverDelay(delay time.Duration) ReaderOption {
	return func(r *Reader) {
		if delay > 0 {
			r.hoverDelay = delay
		}
	}
}

// WithFrameTimeout bounds each cross-origin frame text request.
func WithFrameTimeout(timeout time.Duration) ReaderOption {
	return func(r *Reader) {
		if timeout > 0 {
			r.frameTimeout = timeout
		}
	}
}

// WithParentPort connects the reader to the frame that embeds it.
func WithParentPort(port frames.Port) ReaderOption {
	return func(r *Reader) { r.parentPort = port }
}

// WithChildFramePort connects a cross-origin frame element of the document to
// the reader running inside it.
func WithChildFramePort(frame *html.Node, port frames.Port) ReaderOption {
	return func(r *Reader) {
		if frame != nil && port != nil {
			r.childPorts[frame] = port
		}
	}
}

type callbackOptions struct {
	onEvent            func(event events.Event)
	onUtteranceStarted func(text string, longRead bool)
	onUtteranceEnded   func(text string)
	onLongReadFinished func()
	onNoTextFound      func()
	onStopped          func(wasReading bool)
}

// WithEventCallback registers a callback receiving every event the reader
// emits. Callbacks run inline and must not call back into the reader.
func WithEventCallback(callback func(event events.Event)) ReaderOption {
	return func(r *Reader) { r.callbacks.onEvent = callback }
}

func WithUtteranceStartedCallback(callback func(text string, longRead bool)) ReaderOption {
	return func(r *Reader) { r.callbacks.onUtteranceStarted = callback }
}

func WithUtteranceEndedCallback(callback func(text string)) ReaderOption {
	return func(r *Reader) { r.callbacks.onUtteranceEnded = callback }
}

func WithLongReadFinishedCallback(callback func()) ReaderOption {
	return func(r *Reader) { r.callbacks.onLongReadFinished = callback }
}

func WithNoTextFoundCallback(callback func()) ReaderOption {
	return func(r *Reader) { r.callbacks.onNoTextFound = callback }
}

// WithStoppedCallback registers a callback for handled stop requests.
func WithStoppedCallback(callback func(wasReading bool)) ReaderOption {
	return func(r *Reader) { r.callbacks.onStopped = callback }
}
