package frames

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/net/html"
)

const postTimeout = 2 * time.Second

// Router relays messages for one frame context: it answers its parent's text
// requests, resolves its children's answers through its [Bridge], and
// propagates stop broadcasts down the frame tree.
type Router struct {
	mu       sync.RWMutex
	parent   Port
	children map[*html.Node]Port

	textSource func() string
	onStop     func()

	bridge *Bridge
}

func NewRouter(opts ...BridgeOption) *Router {
	r := &Router{
		children:   map[*html.Node]Port{},
		textSource: func() string { return "" },
		onStop:     func() {},
	}
	r.bridge = NewBridge(r.ChildPort, opts...)
	return r
}

func (r *Router) Bridge() *Bridge { return r.bridge }

// SetTextSource sets how this context computes its own visible text when
// asked by its parent.
func (r *Router) SetTextSource(source func() string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if source != nil {
		r.textSource = source
	}
}

// SetStopHandler sets what happens locally when a stop broadcast arrives.
func (r *Router) SetStopHandler(onStop func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if onStop != nil {
		r.onStop = onStop
	}
}

// IsTop reports whether this context has no parent.
func (r *Router) IsTop() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.parent == nil
}

func (r *Router) ConnectParent(port Port) {
	r.mu.Lock()
	r.parent = port
	r.mu.Unlock()

	port.OnMessage(r.handleParentMessage)
}

func (r *Router) ConnectChild(frame *html.Node, port Port) {
	r.mu.Lock()
	r.children[frame] = port
	r.mu.Unlock()

	port.OnMessage(r.handleChildMessage)
}

func (r *Router) ChildPort(frame *html.Node) (Port, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	port, ok := r.children[frame]
	return port, ok
}

// BroadcastStop posts a stop message to every child frame.
func (r *Router) BroadcastStop(ctx context.Context) {
	r.mu.RLock()
	children := make([]Port, 0, len(r.children))
	for _, port := range r.children {
		children = append(children, port)
	}
	r.mu.RUnlock()

	for _, port := range children {
		if err := port.Post(ctx, NewStopReading()); err != nil {
			logger.Info("could not send stop to frame", "error", err)
		}
	}
}

func (r *Router) Close() error {
	r.mu.Lock()
	parent := r.parent
	children := r.children
	r.parent = nil
	r.children = map[*html.Node]Port{}
	r.mu.Unlock()

	var closeErr error
	if parent != nil {
		closeErr = errors.Join(closeErr, parent.Close())
	}
	for _, port := range children {
		closeErr = errors.Join(closeErr, port.Close())
	}
	return closeErr
}

func (r *Router) handleParentMessage(msg Message) {
	switch msg.Action {
	case ActionGetFrameText:
		r.mu.RLock()
		parent := r.parent
		source := r.textSource
		r.mu.RUnlock()
		if parent == nil {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), postTimeout)
		defer cancel()
		if err := parent.Post(ctx, NewFrameTextResponse(msg.FrameID, source())); err != nil {
			logger.Warn("could not answer frame text request", "frame_id", msg.FrameID, "error", err)
		}
	case ActionStopReading:
		ctx, cancel := context.WithTimeout(context.Background(), postTimeout)
		defer cancel()
		r.BroadcastStop(ctx)

		r.mu.RLock()
		onStop := r.onStop
		r.mu.RUnlock()
		onStop()
	}
}

func (r *Router) handleChildMessage(msg Message) {
	if msg.Action == ActionFrameTextResponse {
		r.bridge.Resolve(msg.FrameID, msg.Text)
	}
}
