package frames

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/net/html"
)

// DefaultRequestTimeout bounds a single frame text request.
const DefaultRequestTimeout = 2000 * time.Millisecond

type BridgeOption func(*Bridge)

func WithRequestTimeout(timeout time.Duration) BridgeOption {
	return func(b *Bridge) {
		if timeout > 0 {
			b.timeout = timeout
		}
	}
}

// Bridge requests text from cross-origin frames and correlates the answers.
type Bridge struct {
	mu      sync.Mutex
	pending map[string]*pendingRequest

	ports   func(frame *html.Node) (Port, bool)
	timeout time.Duration
}

type pendingRequest struct {
	frame    *html.Node
	deadline time.Time
	// resolved has capacity one and receives at most one value; the request
	// is removed from the table before sending.
	resolved chan string
}

func NewBridge(ports func(frame *html.Node) (Port, bool), opts ...BridgeOption) *Bridge {
	b := &Bridge{
		pending: map[string]*pendingRequest{},
		ports:   ports,
		timeout: DefaultRequestTimeout,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// RequestFrameText asks the reader inside frame for its visible text.
//
// It returns "" when no port is connected for the frame, when posting fails,
// when ctx ends, or when no answer arrives before the request timeout.
func (b *Bridge) RequestFrameText(ctx context.Context, frame *html.Node) string {
	if b == nil || b.ports == nil {
		return ""
	}

	ctx, span := tracer.Start(ctx, "request frame text")
	defer span.End()

	port, ok := b.ports(frame)
	if !ok || port == nil {
		span.AddEvent("no port for frame")
		return ""
	}

	id := "frame_" + uuid.NewString()
	request := &pendingRequest{
		frame:    frame,
		deadline: time.Now().Add(b.timeout),
		resolved: make(chan string, 1),
	}
	span.SetAttributes(attribute.String("frames.request_id", id))

	b.mu.Lock()
	b.pending[id] = request
	b.mu.Unlock()
	defer b.forget(id)

	if err := port.Post(ctx, NewFrameTextRequest(id)); err != nil {
		logger.Info("could not send frame text request", "frame_id", id, "error", err)
		return ""
	}

	timer := time.NewTimer(time.Until(request.deadline))
	defer timer.Stop()

	select {
	case text := <-request.resolved:
		return text
	case <-timer.C:
		timedOutRequests.Add(ctx, 1, metric.WithAttributes(attribute.String("frames.action", string(ActionGetFrameText))))
		span.AddEvent("timed out")
		return ""
	case <-ctx.Done():
		return ""
	}
}

// Resolve completes the pending request with the given id. It reports false
// for unknown, already resolved or timed out requests.
func (b *Bridge) Resolve(frameID, text string) bool {
	if b == nil {
		return false
	}

	b.mu.Lock()
	request, ok := b.pending[frameID]
	if ok {
		delete(b.pending, frameID)
	}
	b.mu.Unlock()

	if !ok {
		return false
	}
	request.resolved <- text
	return true
}

// Pending returns the number of requests awaiting an answer.
func (b *Bridge) Pending() int {
	if b == nil {
		return 0
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}

func (b *Bridge) forget(frameID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.pending, frameID)
}
