// Package speech defines the contract with a text-to-speech engine.
package speech

import (
	"context"
	"errors"
)

var ErrInterrupted = errors.New("speech: utterance interrupted")

type Status int

const (
	StatusCompleted Status = iota
	StatusInterrupted
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusCompleted:
		return "completed"
	case StatusInterrupted:
		return "interrupted"
	case StatusFailed:
		return "failed"
	}
	return "unknown"
}

// Result is how an utterance ended.
type Result struct {
	Status Status
	// Err is set for failed utterances.
	Err error
}

func Completed() Result   { return Result{Status: StatusCompleted} }
func Interrupted() Result { return Result{Status: StatusInterrupted, Err: ErrInterrupted} }
func Failed(err error) Result {
	return Result{Status: StatusFailed, Err: err}
}

type Utterance struct {
	Text   string
	Rate   float64
	Pitch  float64
	Volume float64
}

func DefaultUtterance(text string) Utterance {
	return Utterance{Text: text, Rate: 1.0, Pitch: 1.0, Volume: 1.0}
}

// Engine speaks one utterance at a time.
type Engine interface {
	// Speak starts u, abandoning nothing; callers cancel first when they
	// need to pre-empt. The returned channel receives exactly one Result and
	// must be buffered so that delivery never blocks the engine.
	Speak(ctx context.Context, u Utterance) (<-chan Result, error)
	// Cancel abandons the in-flight utterance, which then ends with
	// StatusInterrupted. Cancelling when idle is a no-op.
	Cancel() error
}

// Settle returns a channel that already holds r.
func Settle(r Result) <-chan Result {
	ch := make(chan Result, 1)
	ch <- r
	close(ch)
	return ch
}
