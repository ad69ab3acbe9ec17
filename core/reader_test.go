package reader

import (
	"context"
	"testing"
	"time"

	"github.com/koscakluka/ema-reader/core/frames"
	"github.com/koscakluka/ema-reader/core/speech"
)

const framedPage = `<body><p id="a">A</p><iframe id="f" src="https://other.example/frame"></iframe><p>C</p></body>`

func TestLongReadIncludesCrossOriginFrameText(t *testing.T) {
	doc := mustParse(t, framedPage)
	childDoc := mustParse(t, `<body><p>X   text</p><script>ignored()</script></body>`)

	parentEnd, childEnd := frames.Pipe()
	engine := newFakeEngine()
	parent := attachedReader(t, doc, engine, WithChildFramePort(doc.ElementByID("f"), parentEnd))
	attachedReader(t, childDoc, newFakeEngine(), WithParentPort(childEnd))

	result := parent.ReadFrom(context.Background(), doc.ElementByID("a"))
	if !result.Success {
		t.Fatalf("expected long read to start, got %v", result.Err)
	}
	if result.Preview != "A X text C..." {
		t.Fatalf("expected preview %q, got %q", "A X text C...", result.Preview)
	}

	for _, expected := range []string{"A", "X text", "C"} {
		expectStarted(t, engine, expected)
		engine.finish(t, speech.Completed())
	}
	waitUntil(t, func() bool { return parent.State() == StateIdle }, "long read finishes")
}

func TestUnansweredFrameTimesOutAndReadingContinues(t *testing.T) {
	doc := mustParse(t, framedPage)

	// The other end never gets a handler, so the request is never answered.
	parentEnd, silentEnd := frames.Pipe()
	defer silentEnd.Close()

	engine := newFakeEngine()
	r := attachedReader(t, doc, engine,
		WithFrameTimeout(50*time.Millisecond),
		WithChildFramePort(doc.ElementByID("f"), parentEnd),
	)

	start := time.Now()
	result := r.ReadFrom(context.Background(), doc.ElementByID("a"))
	elapsed := time.Since(start)

	if !result.Success || result.Segments != 2 {
		t.Fatalf("expected 2 segments read after timeout, got %+v", result)
	}
	if elapsed < 50*time.Millisecond {
		t.Fatalf("expected read to wait for the frame timeout, waited %v", elapsed)
	}
	if pending := r.router.Bridge().Pending(); pending != 0 {
		t.Fatalf("expected no pending frame requests, got %d", pending)
	}

	expectStarted(t, engine, "A")
	engine.finish(t, speech.Completed())
	expectStarted(t, engine, "C")
}

func TestStopPropagatesToChildFrames(t *testing.T) {
	doc := mustParse(t, framedPage)
	childDoc := mustParse(t, `<body><p id="x">X</p><p>Y</p></body>`)

	parentEnd, childEnd := frames.Pipe()
	parentEngine := newFakeEngine()
	childEngine := newFakeEngine()
	parent := attachedReader(t, doc, parentEngine, WithChildFramePort(doc.ElementByID("f"), parentEnd))
	child := attachedReader(t, childDoc, childEngine, WithParentPort(childEnd))

	child.ReadFrom(context.Background(), childDoc.ElementByID("x"))
	expectStarted(t, childEngine, "X")

	ack := parent.Stop()
	if !ack.Success || ack.WasReading {
		t.Fatalf("expected parent to report no local reading, got %+v", ack)
	}

	waitUntil(t, func() bool { return child.State() == StateIdle }, "child frame stops")
	waitUntil(t, func() bool { return childEngine.cancelCount() == 1 }, "child speech is cancelled")
	time.Sleep(20 * time.Millisecond)
	if childEngine.cancelCount() != 1 {
		t.Fatalf("expected child speech to be cancelled once, got %d", childEngine.cancelCount())
	}
}

func TestChildStopDoesNotBroadcastUpward(t *testing.T) {
	doc := mustParse(t, framedPage)
	childDoc := mustParse(t, `<body><p id="x">X</p></body>`)

	parentEnd, childEnd := frames.Pipe()
	parentEngine := newFakeEngine()
	parent := attachedReader(t, doc, parentEngine, WithChildFramePort(doc.ElementByID("f"), parentEnd))
	child := attachedReader(t, childDoc, newFakeEngine(), WithParentPort(childEnd))

	parent.ReadFrom(context.Background(), doc.ElementByID("a"))
	expectStarted(t, parentEngine, "A")

	child.Stop()
	time.Sleep(30 * time.Millisecond)
	if parent.State() != StateSpeakingLong {
		t.Fatalf("expected parent to keep reading, got %v", parent.State())
	}
}

func TestDetachIsIdempotent(t *testing.T) {
	doc := mustParse(t, `<body><p>A</p></body>`)
	r := NewReader(doc, WithSpeechEngine(newFakeEngine()))
	if err := r.Attach(context.Background()); err != nil {
		t.Fatalf("expected reader to attach, got %v", err)
	}
	if err := r.Detach(); err != nil {
		t.Fatalf("expected detach to succeed, got %v", err)
	}
	if err := r.Detach(); err != nil {
		t.Fatalf("expected second detach to be a no-op, got %v", err)
	}
}
