package reader

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/koscakluka/ema-reader/core/dom"
	"github.com/koscakluka/ema-reader/core/events"
	"github.com/koscakluka/ema-reader/core/speech"
)

const waitTimeout = 2 * time.Second

type fakeEngine struct {
	mu      sync.Mutex
	spoken  []string
	pending []chan speech.Result
	cancels int
	refuse  map[string]bool

	started chan string
	// gate, when set, holds Speak open until it is closed.
	gate chan struct{}
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{started: make(chan string, 64), refuse: map[string]bool{}}
}

func (e *fakeEngine) Speak(_ context.Context, u speech.Utterance) (<-chan speech.Result, error) {
	e.mu.Lock()
	e.spoken = append(e.spoken, u.Text)
	refused := e.refuse[u.Text]
	var results chan speech.Result
	if !refused {
		results = make(chan speech.Result, 1)
		e.pending = append(e.pending, results)
	}
	e.mu.Unlock()

	e.started <- u.Text
	if e.gate != nil {
		<-e.gate
	}
	if refused {
		return nil, errors.New("speech blocked")
	}
	return results, nil
}

func (e *fakeEngine) Cancel() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cancels++
	for _, results := range e.pending {
		results <- speech.Interrupted()
	}
	e.pending = nil
	return nil
}

func (e *fakeEngine) finish(t *testing.T, result speech.Result) {
	t.Helper()
	e.mu.Lock()
	if len(e.pending) == 0 {
		e.mu.Unlock()
		t.Fatalf("expected an utterance in flight")
	}
	results := e.pending[0]
	e.pending = e.pending[1:]
	e.mu.Unlock()
	results <- result
}

func (e *fakeEngine) cancelCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cancels
}

func (e *fakeEngine) spokenTexts() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.spoken...)
}

func expectStarted(t *testing.T, e *fakeEngine, expected string) {
	t.Helper()
	select {
	case got := <-e.started:
		if got != expected {
			t.Fatalf("expected utterance %q, got %q", expected, got)
		}
	case <-time.After(waitTimeout):
		t.Fatalf("timed out waiting for utterance %q", expected)
	}
}

func expectNothingStarted(t *testing.T, e *fakeEngine, within time.Duration) {
	t.Helper()
	select {
	case got := <-e.started:
		t.Fatalf("expected no utterance, got %q", got)
	case <-time.After(within):
	}
}

type eventRecorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *eventRecorder) record(event events.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *eventRecorder) kinds() []events.Kind {
	r.mu.Lock()
	defer r.mu.Unlock()
	kinds := make([]events.Kind, 0, len(r.events))
	for _, event := range r.events {
		kinds = append(kinds, event.Kind())
	}
	return kinds
}

func (r *eventRecorder) count(kind events.Kind) int {
	n := 0
	for _, k := range r.kinds() {
		if k == kind {
			n++
		}
	}
	return n
}

func waitUntil(t *testing.T, condition func() bool, description string) {
	t.Helper()
	deadline := time.Now().Add(waitTimeout)
	for !condition() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting until %s", description)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func mustParse(t *testing.T, src string) *dom.Document {
	t.Helper()
	doc, err := dom.Parse(strings.NewReader(src), nil)
	if err != nil {
		t.Fatalf("failed to parse document: %v", err)
	}
	return doc
}
