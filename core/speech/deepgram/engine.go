// Package deepgram speaks utterances through Deepgram's streaming
// text-to-speech websocket and plays them on an [audio.Player].
package deepgram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/koscakluka/ema-reader/core/audio"
	"github.com/koscakluka/ema-reader/core/speech"
	"go.opentelemetry.io/contrib/bridges/otelslog"
)

const (
	scopeName    = "github.com/koscakluka/ema-reader/core/speech/deepgram"
	defaultVoice = "aura-2-thalia-en"
	defaultURL   = "wss://api.deepgram.com/v1/speak"
)

var logger = otelslog.NewLogger(scopeName)

var ErrMissingAPIKey = errors.New("deepgram api key not found")

type Option func(*Engine)

func WithAPIKey(apiKey string) Option {
	return func(e *Engine) { e.apiKey = apiKey }
}

// WithEndpoint overrides the speak websocket URL.
func WithEndpoint(endpoint string) Option {
	return func(e *Engine) { e.endpoint = endpoint }
}

type Engine struct {
	apiKey   string
	endpoint string
	player   audio.Player

	mu      sync.Mutex
	current *utterance
}

var _ speech.Engine = (*Engine)(nil)

// NewEngine creates an engine playing on player. The API key defaults to the
// DEEPGRAM_API_KEY environment variable.
func NewEngine(player audio.Player, opts ...Option) (*Engine, error) {
	if player == nil {
		return nil, fmt.Errorf("deepgram engine needs an audio player")
	}

	e := &Engine{endpoint: defaultURL, player: player}
	e.apiKey, _ = os.LookupEnv("DEEPGRAM_API_KEY")
	for _, opt := range opts {
		opt(e)
	}
	if e.apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	return e, nil
}

// Speak streams u.Text to Deepgram. Rate, pitch and volume are not
// adjustable on this engine and are ignored.
func (e *Engine) Speak(ctx context.Context, u speech.Utterance) (<-chan speech.Result, error) {
	conn, err := e.connectWebsocket(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open websocket: %w", err)
	}

	utt := &utterance{
		id:     uuid.NewString(),
		conn:   conn,
		result: make(chan speech.Result, 1),
	}

	if err := utt.send(speakMsg(u.Text)); err != nil {
		utt.close()
		return nil, fmt.Errorf("failed to send text: %w", err)
	}
	if err := utt.send(flushMsg); err != nil {
		utt.close()
		return nil, fmt.Errorf("failed to send flush: %w", err)
	}

	e.mu.Lock()
	e.current = utt
	e.mu.Unlock()

	go utt.processIncomingMessages(e.player, func() { e.release(utt) })

	return utt.result, nil
}

func (e *Engine) Cancel() error {
	e.mu.Lock()
	utt := e.current
	e.current = nil
	e.mu.Unlock()

	if utt == nil {
		return nil
	}

	utt.cancelled.Store(true)
	var cancelErr error
	if err := utt.send(clearMsg); err != nil {
		cancelErr = fmt.Errorf("failed to send clear message: %w", err)
	}
	e.player.ClearBuffer()
	utt.finish(speech.Interrupted())
	return cancelErr
}

func (e *Engine) release(utt *utterance) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.current == utt {
		e.current = nil
	}
}

func (e *Engine) connectWebsocket(ctx context.Context) (*websocket.Conn, error) {
	endpoint, err := url.Parse(e.endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid endpoint: %w", err)
	}

	encodingInfo := e.player.EncodingInfo()
	urlValues := url.Values{}
	urlValues.Set("encoding", encodingInfo.Format.Name())
	urlValues.Set("sample_rate", strconv.Itoa(encodingInfo.SampleRate))
	urlValues.Set("model", defaultVoice)
	urlValues.Set("container", "none")
	endpoint.RawQuery = urlValues.Encode()

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, endpoint.String(),
		http.Header{"Authorization": {"token " + e.apiKey}})
	if err != nil {
		return nil, fmt.Errorf("failed to open socket connection to deepgram: %w", err)
	}
	return conn, nil
}

type utterance struct {
	id   string
	conn *websocket.Conn
	mu   sync.Mutex

	cancelled atomic.Bool
	result    chan speech.Result
	endOnce   sync.Once
}

func (u *utterance) processIncomingMessages(player audio.Player, onEnd func()) {
	defer onEnd()

	for {
		msgType, msg, err := u.conn.ReadMessage()
		if err != nil {
			if u.cancelled.Load() || websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				u.finish(speech.Interrupted())
			} else {
				u.finish(speech.Failed(fmt.Errorf("websocket read failed: %w", err)))
			}
			return
		}

		switch msgType {
		case websocket.BinaryMessage:
			if u.cancelled.Load() {
				continue
			}
			if err := player.SendAudio(msg); err != nil {
				logger.Warn("failed to play speech audio", "utterance_id", u.id, "error", err)
			}
		case websocket.TextMessage:
			var parsedMsg struct {
				Type        string `json:"type"`
				Description string `json:"description"`
			}
			if err := json.Unmarshal(msg, &parsedMsg); err != nil {
				logger.Warn("failed to unmarshal deepgram message", "error", err)
				continue
			}

			switch parsedMsg.Type {
			case "Flushed":
				// all audio for the text has arrived, the utterance ends
				// when the player reaches this point
				if err := player.Mark(u.id, func(string) { u.finish(speech.Completed()) }); err != nil {
					u.finish(speech.Failed(fmt.Errorf("failed to mark playback: %w", err)))
				}
			case "Warning":
				logger.Warn("deepgram warning", "utterance_id", u.id, "description", parsedMsg.Description)
			case "Error":
				u.finish(speech.Failed(fmt.Errorf("deepgram error: %s", parsedMsg.Description)))
			}
		}
	}
}

// finish delivers r once and tears the connection down.
func (u *utterance) finish(r speech.Result) {
	u.endOnce.Do(func() {
		u.result <- r
		close(u.result)
		u.close()
	})
}

func (u *utterance) close() {
	_ = u.send(closeMsg)
	_ = u.conn.Close()
}

func (u *utterance) send(msg any) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if err := u.conn.WriteJSON(msg); err != nil {
		return fmt.Errorf("failed to write to websocket: %w", err)
	}
	return nil
}

type websocketMessage struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

func speakMsg(text string) websocketMessage { return websocketMessage{Type: "Speak", Text: text} }

var (
	flushMsg = websocketMessage{Type: "Flush"}
	clearMsg = websocketMessage{Type: "Clear"}
	closeMsg = websocketMessage{Type: "Close"}
)
