package frames

import (
	"context"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/net/html"
)

func frameElement(t *testing.T) *html.Node {
	t.Helper()
	doc, err := html.Parse(strings.NewReader(`<body><iframe></iframe></body>`))
	if err != nil {
		t.Fatalf("failed to parse: %v", err)
	}
	var frame *html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "iframe" {
			frame = n
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return frame
}

func connect(parent, child *Router, frame *html.Node) {
	parentEnd, childEnd := Pipe()
	parent.ConnectChild(frame, parentEnd)
	child.ConnectParent(childEnd)
}

func TestRequestFrameTextRoundTrip(t *testing.T) {
	frame := frameElement(t)
	parent, child := NewRouter(), NewRouter()
	child.SetTextSource(func() string { return "child body text" })
	connect(parent, child, frame)

	if got := parent.Bridge().RequestFrameText(context.Background(), frame); got != "child body text" {
		t.Fatalf("expected child text, got %q", got)
	}
	if pending := parent.Bridge().Pending(); pending != 0 {
		t.Fatalf("expected no pending requests, got %d", pending)
	}
	if parent.IsTop() != true || child.IsTop() != false {
		t.Fatalf("expected parent to be top and child not")
	}
}

func TestRequestFrameTextTimesOut(t *testing.T) {
	frame := frameElement(t)
	parent := NewRouter(WithRequestTimeout(50 * time.Millisecond))
	parentEnd, childEnd := Pipe()
	parent.ConnectChild(frame, parentEnd)

	var requests []Message
	received := make(chan struct{}, 1)
	childEnd.OnMessage(func(msg Message) {
		requests = append(requests, msg)
		received <- struct{}{}
	})

	started := time.Now()
	if got := parent.Bridge().RequestFrameText(context.Background(), frame); got != "" {
		t.Fatalf("expected empty text on timeout, got %q", got)
	}
	if elapsed := time.Since(started); elapsed < 50*time.Millisecond {
		t.Fatalf("expected to wait for the timeout, returned after %v", elapsed)
	}
	if parent.Bridge().Pending() != 0 {
		t.Fatalf("expected timed out request to be cleaned up")
	}

	<-received
	if parent.Bridge().Resolve(requests[0].FrameID, "late") {
		t.Fatalf("expected late response to be ignored")
	}
}

func TestDefaultRequestTimeout(t *testing.T) {
	if DefaultRequestTimeout != 2*time.Second {
		t.Fatalf("expected 2s default timeout, got %v", DefaultRequestTimeout)
	}
}

func TestRequestFrameTextUnreachableFrame(t *testing.T) {
	frame := frameElement(t)
	parent := NewRouter()

	if got := parent.Bridge().RequestFrameText(context.Background(), frame); got != "" {
		t.Fatalf("expected empty text for unconnected frame, got %q", got)
	}

	parentEnd, childEnd := Pipe()
	parent.ConnectChild(frame, parentEnd)
	_ = childEnd.Close()

	started := time.Now()
	if got := parent.Bridge().RequestFrameText(context.Background(), frame); got != "" {
		t.Fatalf("expected empty text for closed port, got %q", got)
	}
	if elapsed := time.Since(started); elapsed > time.Second {
		t.Fatalf("expected immediate resolution on send failure, took %v", elapsed)
	}
}

func TestResolveIsOneShot(t *testing.T) {
	frame := frameElement(t)
	bridge := NewBridge(func(*html.Node) (Port, bool) { return nil, false })
	bridge.pending["frame_x"] = &pendingRequest{frame: frame, resolved: make(chan string, 1)}

	if !bridge.Resolve("frame_x", "first") {
		t.Fatalf("expected first resolution to succeed")
	}
	if bridge.Resolve("frame_x", "second") {
		t.Fatalf("expected second resolution to be a no-op")
	}
}

func TestStopPropagatesThroughFrameTree(t *testing.T) {
	top, middle, leaf := NewRouter(), NewRouter(), NewRouter()
	connect(top, middle, frameElement(t))
	connect(middle, leaf, frameElement(t))

	var middleStops, leafStops atomic.Int32
	middleDone, leafDone := make(chan struct{}), make(chan struct{})
	middle.SetStopHandler(func() {
		middleStops.Add(1)
		close(middleDone)
	})
	leaf.SetStopHandler(func() {
		leafStops.Add(1)
		close(leafDone)
	})

	top.BroadcastStop(context.Background())

	for _, done := range []chan struct{}{middleDone, leafDone} {
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatalf("expected stop to reach every frame")
		}
	}
	if middleStops.Load() != 1 || leafStops.Load() != 1 {
		t.Fatalf("expected one stop per frame, got middle=%d leaf=%d", middleStops.Load(), leafStops.Load())
	}
}
