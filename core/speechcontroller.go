package reader

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/koscakluka/ema-reader/core/events"
	"github.com/koscakluka/ema-reader/core/speech"
)

type session struct {
	id       string
	text     string
	longRead bool
	// launched is set once the engine has accepted the utterance.
	launched bool
}

// outbox collects events produced under the controller lock so they can be
// emitted once the lock is released.
type outbox []events.Event

func (o *outbox) add(event events.Event) { *o = append(*o, event) }

// speechController owns the single active speech session of a reader and the
// queue of a long read. Results of sessions that are no longer current are
// ignored. The engine is never called with mu held: utterances are started
// by launch, one at a time.
type speechController struct {
	mu       sync.Mutex
	launchMu sync.Mutex

	ctx    context.Context
	engine speech.Engine
	emit   eventEmitter

	state   State
	queue   *readingQueue
	session *session
}

func newSpeechController(ctx context.Context, engine speech.Engine, emit eventEmitter) *speechController {
	if emit == nil {
		emit = noopEventEmitter
	}
	return &speechController{ctx: ctx, engine: engine, emit: emit}
}

func (c *speechController) State() State {
	if c == nil {
		return StateIdle
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *speechController) IsLongReading() bool {
	return c.State() == StateSpeakingLong
}

// IsSpeaking reports whether an utterance is in flight.
func (c *speechController) IsSpeaking() bool {
	if c == nil {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session != nil
}

// SpeakHover speaks text unless a long read is in progress, replacing any
// hover utterance already in flight.
func (c *speechController) SpeakHover(text string) bool {
	if c == nil || text == "" {
		return false
	}

	var out outbox
	defer c.flush(&out)
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateSpeakingLong {
		return false
	}
	c.cancelLocked()
	c.setStateLocked(StateSpeakingHover, &out)
	c.startLocked(text, false, &out)
	return true
}

// StartLongRead pre-empts whatever is being spoken and reads segments in
// order until they run out or the reader is stopped.
func (c *speechController) StartLongRead(segments []string) bool {
	if c == nil {
		return false
	}
	queue := newReadingQueue(segments)
	first, ok := queue.Current()
	if !ok {
		return false
	}

	var out outbox
	defer c.flush(&out)
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cancelLocked()
	c.queue = queue
	c.setStateLocked(StateSpeakingLong, &out)
	out.add(events.NewLongReadStarted(queue.Len()))
	c.startLocked(first, true, &out)
	return true
}

// Stop cancels speech, drops the queue and reports whether anything was
// being read.
func (c *speechController) Stop() bool {
	if c == nil {
		return false
	}

	var out outbox
	defer c.flush(&out)
	c.mu.Lock()
	defer c.mu.Unlock()

	wasReading := c.state != StateIdle || c.session != nil || c.queue != nil
	if !wasReading {
		return false
	}
	c.setStateLocked(StateCancelled, &out)
	c.queue = nil
	c.cancelLocked()
	c.setStateLocked(StateIdle, &out)
	return true
}

func (c *speechController) startLocked(text string, longRead bool, out *outbox) {
	s := &session{id: uuid.NewString(), text: text, longRead: longRead}
	c.session = s

	utterancesStarted.Add(c.ctx, 1, metric.WithAttributes(attribute.Bool("long_read", longRead)))
	out.add(events.NewUtteranceStarted(text, longRead))

	go c.launch(s)
}

// launch hands s to the engine and waits for its result. An utterance
// superseded while the engine was starting it is cancelled here.
func (c *speechController) launch(s *session) {
	c.launchMu.Lock()
	results, ok := c.speak(s)
	c.launchMu.Unlock()
	if ok {
		c.await(s, results)
	}
}

func (c *speechController) speak(s *session) (<-chan speech.Result, bool) {
	if !c.isCurrent(s) {
		return nil, false
	}

	results, err := c.engine.Speak(c.ctx, speech.DefaultUtterance(s.text))
	if err != nil {
		logger.Warn("speech engine refused utterance", "error", err, "session", s.id)
		return speech.Settle(speech.Failed(err)), true
	}

	c.mu.Lock()
	current := c.session == s
	s.launched = current
	c.mu.Unlock()
	if !current {
		if err := c.engine.Cancel(); err != nil {
			logger.Warn("failed to cancel superseded speech", "error", err, "session", s.id)
		}
		return nil, false
	}
	return results, true
}

func (c *speechController) isCurrent(s *session) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session == s
}

func (c *speechController) await(s *session, results <-chan speech.Result) {
	result, ok := <-results
	if !ok {
		result = speech.Completed()
	}
	c.finish(s, result)
}

func (c *speechController) finish(s *session, result speech.Result) {
	var out outbox
	defer c.flush(&out)
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session != s {
		return
	}
	c.session = nil
	out.add(events.NewUtteranceEnded(s.text, result.Status.String(), result.Err))

	if result.Status == speech.StatusFailed {
		utterancesFailed.Add(c.ctx, 1, metric.WithAttributes(attribute.Bool("long_read", s.longRead)))
		logger.Error("speech synthesis error", "error", result.Err, "session", s.id, "long_read", s.longRead)
	}

	if s.longRead && c.queue != nil {
		if next, ok := c.queue.Advance(); ok {
			c.startLocked(next, true, &out)
			return
		}
		c.queue = nil
		out.add(events.NewLongReadFinished())
	}
	c.setStateLocked(StateIdle, &out)
}

// cancelLocked drops the current session. A session the engine has not
// accepted yet is cancelled by launch.
func (c *speechController) cancelLocked() {
	s := c.session
	if s == nil {
		return
	}
	c.session = nil
	if !s.launched {
		return
	}
	if err := c.engine.Cancel(); err != nil {
		logger.Warn("failed to cancel speech", "error", err)
	}
}

func (c *speechController) setStateLocked(state State, out *outbox) {
	if c.state == state {
		return
	}
	out.add(events.NewStateChanged(c.state.String(), state.String()))
	c.state = state
}

func (c *speechController) flush(out *outbox) {
	for _, event := range *out {
		c.emit(event)
	}
}
