package main

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	reader "github.com/koscakluka/ema-reader/core"
	"github.com/koscakluka/ema-reader/core/dom"
	"github.com/koscakluka/ema-reader/core/events"
	"github.com/koscakluka/ema-reader/core/speech/dryrun"
)

func newTestModel(t *testing.T, src string) (model, <-chan events.Event) {
	t.Helper()
	doc, err := dom.Parse(strings.NewReader(src), nil)
	if err != nil {
		t.Fatalf("failed to parse document: %v", err)
	}

	eventCh := make(chan events.Event, eventBuffer)
	r := reader.NewReader(doc,
		reader.WithSpeechEngine(dryrun.NewEngine(dryrun.WithWordDuration(time.Millisecond))),
		reader.WithHoverDelay(10*time.Millisecond),
		reader.WithEventCallback(forwardEvents(eventCh)),
	)
	if err := r.Attach(context.Background()); err != nil {
		t.Fatalf("expected reader to attach, got %v", err)
	}
	t.Cleanup(func() { r.Detach() })

	return newModel(context.Background(), r, "test page", doc, eventCh), eventCh
}

func update(t *testing.T, m model, msg tea.Msg) (model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	updated, ok := next.(model)
	if !ok {
		t.Fatalf("expected model, got %T", next)
	}
	return updated, cmd
}

func waitForUtterance(t *testing.T, eventCh <-chan events.Event, expected string) {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case event := <-eventCh:
			if started, ok := event.(events.UtteranceStarted); ok {
				if started.Text != expected {
					t.Fatalf("expected utterance %q, got %q", expected, started.Text)
				}
				return
			}
		case <-timeout:
			t.Fatalf("timed out waiting for utterance %q", expected)
		}
	}
}

func TestCursorMoveHovers(t *testing.T) {
	m, eventCh := newTestModel(t, `<body><p>first</p><p>second</p></body>`)

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyDown})
	if m.cursor != 1 {
		t.Fatalf("expected cursor on second block, got %d", m.cursor)
	}
	waitForUtterance(t, eventCh, "second")

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyDown})
	if m.cursor != 1 {
		t.Fatalf("expected cursor to stay on last block, got %d", m.cursor)
	}
}

func TestEnterReadsFromCursor(t *testing.T) {
	m, eventCh := newTestModel(t, `<body><p>first</p><p>second</p></body>`)

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatalf("expected a read command")
	}
	msg, ok := cmd().(readResultMsg)
	if !ok || !msg.result.Success {
		t.Fatalf("expected successful read result, got %+v", msg)
	}
	waitForUtterance(t, eventCh, "first")

	m, _ = update(t, m, msg)
	if !strings.Contains(m.status, "reading 2 segments") {
		t.Fatalf("expected reading status, got %q", m.status)
	}
}

func TestEnterOnFrameWithoutLayoutReadsFollowingText(t *testing.T) {
	m, eventCh := newTestModel(t, `<body><p>first</p><iframe id="f" sandbox></iframe><p>after</p></body>`)

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyDown})
	if !m.blocks[m.cursor].frame {
		t.Fatalf("expected cursor on the frame block, got %q", m.blocks[m.cursor].text)
	}

	_, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	msg, ok := cmd().(readResultMsg)
	if !ok || !msg.result.Success {
		t.Fatalf("expected successful read result, got %+v", msg)
	}
	if msg.result.Preview != "after..." {
		t.Fatalf("expected preview %q, got %q", "after...", msg.result.Preview)
	}
	waitForUtterance(t, eventCh, "after")
}

func TestStopKeyReportsAck(t *testing.T) {
	m, _ := newTestModel(t, `<body><p>first</p></body>`)

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("s")})
	if m.status != "no active reading to stop" {
		t.Fatalf("expected idle stop status, got %q", m.status)
	}
}

func TestEventsUpdateSpeakingLine(t *testing.T) {
	m, _ := newTestModel(t, `<body><p>first</p></body>`)

	m, cmd := update(t, m, eventMsg{event: events.NewUtteranceStarted("hello there", false)})
	if cmd == nil {
		t.Fatalf("expected to keep waiting for events")
	}
	if !strings.Contains(m.View(), "hello there") {
		t.Fatalf("expected view to show spoken text")
	}

	m, _ = update(t, m, eventMsg{event: events.NewUtteranceEnded("hello there", "completed", nil)})
	if m.speaking != "" {
		t.Fatalf("expected speaking line to clear, got %q", m.speaking)
	}
}

func TestQuitKey(t *testing.T) {
	m, _ := newTestModel(t, `<body><p>first</p></body>`)

	_, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatalf("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("expected quit message")
	}
}
