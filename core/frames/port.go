package frames

import (
	"context"
	"errors"
	"sync"
)

var ErrPortClosed = errors.New("frames: port closed")

// Port is one end of a messaging channel between two frame contexts.
type Port interface {
	// Post delivers msg to the other end. A returned error means the message
	// was not sent.
	Post(ctx context.Context, msg Message) error
	// OnMessage replaces the handler for messages arriving from the other end.
	OnMessage(handler func(Message))
	Close() error
}

const pipeCapacity = 16

// Pipe returns two connected in-process ports. Messages are delivered on a
// dedicated goroutine per end, in order; messages arriving with no handler
// set are dropped.
func Pipe() (Port, Port) {
	a := newPipeEnd()
	b := newPipeEnd()
	a.peer, b.peer = b, a
	go a.deliver()
	go b.deliver()
	return a, b
}

type pipeEnd struct {
	peer  *pipeEnd
	inbox chan Message

	handlerMu sync.RWMutex
	handler   func(Message)

	closed    chan struct{}
	closeOnce sync.Once
}

func newPipeEnd() *pipeEnd {
	return &pipeEnd{
		inbox:  make(chan Message, pipeCapacity),
		closed: make(chan struct{}),
	}
}

func (p *pipeEnd) Post(ctx context.Context, msg Message) error {
	select {
	case <-p.closed:
		return ErrPortClosed
	case <-p.peer.closed:
		return ErrPortClosed
	default:
	}

	select {
	case <-p.closed:
		return ErrPortClosed
	case <-p.peer.closed:
		return ErrPortClosed
	case <-ctx.Done():
		return ctx.Err()
	case p.peer.inbox <- msg:
		return nil
	}
}

func (p *pipeEnd) OnMessage(handler func(Message)) {
	p.handlerMu.Lock()
	defer p.handlerMu.Unlock()
	p.handler = handler
}

func (p *pipeEnd) Close() error {
	p.closeOnce.Do(func() { close(p.closed) })
	return nil
}

func (p *pipeEnd) deliver() {
	for {
		select {
		case <-p.closed:
			return
		case msg := <-p.inbox:
			p.handlerMu.RLock()
			handler := p.handler
			p.handlerMu.RUnlock()
			if handler != nil {
				handler(msg)
			}
		}
	}
}
