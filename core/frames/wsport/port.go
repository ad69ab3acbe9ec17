// Package wsport carries frame messages over a websocket connection, for
// frame contexts that live in another process.
package wsport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/koscakluka/ema-reader/core/frames"
	"go.opentelemetry.io/contrib/bridges/otelslog"
)

const scopeName = "github.com/koscakluka/ema-reader/core/frames/wsport"

var logger = otelslog.NewLogger(scopeName)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Frames of any origin may talk to the reader, like postMessage with "*".
	CheckOrigin: func(*http.Request) bool { return true },
}

type Port struct {
	conn    *websocket.Conn
	writeMu sync.Mutex

	handlerMu sync.RWMutex
	handler   func(frames.Message)

	done      chan struct{}
	closeOnce sync.Once
}

var _ frames.Port = (*Port)(nil)

// New wraps an established connection and starts reading from it.
func New(conn *websocket.Conn) *Port {
	p := &Port{conn: conn, done: make(chan struct{})}
	go p.readLoop()
	return p
}

func Dial(ctx context.Context, url string) (*Port, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open frame websocket: %w", err)
	}
	return New(conn), nil
}

func Upgrade(w http.ResponseWriter, r *http.Request) (*Port, error) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to upgrade frame websocket: %w", err)
	}
	return New(conn), nil
}

func (p *Port) Post(ctx context.Context, msg frames.Message) error {
	select {
	case <-p.done:
		return frames.ErrPortClosed
	default:
	}

	p.writeMu.Lock()
	defer p.writeMu.Unlock()

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Time{}
	}
	if err := p.conn.SetWriteDeadline(deadline); err != nil {
		return fmt.Errorf("failed to set write deadline: %w", err)
	}
	if err := p.conn.WriteJSON(msg); err != nil {
		return fmt.Errorf("failed to write frame message: %w", err)
	}
	return nil
}

func (p *Port) OnMessage(handler func(frames.Message)) {
	p.handlerMu.Lock()
	defer p.handlerMu.Unlock()
	p.handler = handler
}

// Done closes once the connection is gone.
func (p *Port) Done() <-chan struct{} { return p.done }

func (p *Port) Close() error {
	var closeErr error
	p.closeOnce.Do(func() {
		close(p.done)

		p.writeMu.Lock()
		err := p.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		p.writeMu.Unlock()
		if err != nil && !errors.Is(err, websocket.ErrCloseSent) {
			closeErr = errors.Join(closeErr, err)
		}
		if err := p.conn.Close(); err != nil {
			closeErr = errors.Join(closeErr, err)
		}
	})
	if closeErr != nil {
		return fmt.Errorf("failed to close frame websocket: %w", closeErr)
	}
	return nil
}

func (p *Port) readLoop() {
	defer func() { _ = p.Close() }()

	for {
		msgType, data, err := p.conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				select {
				case <-p.done:
				default:
					logger.Warn("frame websocket read failed", "error", err)
				}
			}
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}

		var msg frames.Message
		if err := json.Unmarshal(data, &msg); err != nil {
			logger.Warn("ignoring malformed frame message", "error", err)
			continue
		}

		p.handlerMu.RLock()
		handler := p.handler
		p.handlerMu.RUnlock()
		if handler != nil {
			handler(msg)
		}
	}
}
