// Package dryrun is a speech engine that writes utterances to a writer and
// takes as long as a speaker would, for running without audio hardware.
package dryrun

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/koscakluka/ema-reader/core/speech"
)

const defaultWordDuration = 300 * time.Millisecond

type Option func(*Engine)

// WithWordDuration sets how long one word takes at rate 1.0.
func WithWordDuration(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.wordDuration = d
		}
	}
}

func WithOutput(w io.Writer) Option {
	return func(e *Engine) { e.out = w }
}

type Engine struct {
	wordDuration time.Duration
	out          io.Writer

	mu     sync.Mutex
	cancel context.CancelFunc
}

var _ speech.Engine = (*Engine)(nil)

func NewEngine(opts ...Option) *Engine {
	e := &Engine{wordDuration: defaultWordDuration, out: io.Discard}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Speak(ctx context.Context, u speech.Utterance) (<-chan speech.Result, error) {
	rate := u.Rate
	if rate <= 0 {
		rate = 1
	}
	words := len(strings.Fields(u.Text))
	duration := time.Duration(float64(time.Duration(words)*e.wordDuration) / rate)

	if _, err := fmt.Fprintf(e.out, "speaking: %s\n", u.Text); err != nil {
		return nil, fmt.Errorf("failed to write utterance: %w", err)
	}

	uttCtx, cancel := context.WithCancel(ctx)
	e.mu.Lock()
	e.cancel = cancel
	e.mu.Unlock()

	results := make(chan speech.Result, 1)
	go func() {
		defer close(results)
		defer cancel()

		timer := time.NewTimer(duration)
		defer timer.Stop()
		select {
		case <-timer.C:
			results <- speech.Completed()
		case <-uttCtx.Done():
			results <- speech.Interrupted()
		}
	}()

	return results, nil
}

func (e *Engine) Cancel() error {
	e.mu.Lock()
	cancel := e.cancel
	e.cancel = nil
	e.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	return nil
}
