package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/truncate"
	"github.com/muesli/reflow/wordwrap"
	"golang.org/x/net/html"

	reader "github.com/koscakluka/ema-reader/core"
	"github.com/koscakluka/ema-reader/core/dom"
	"github.com/koscakluka/ema-reader/core/events"
)

const (
	defaultWidth  = 80
	visibleBlocks = 12
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	cursorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)
	frameStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Italic(true)
	statusStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	speakingText = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
)

// block is one line of the page view: the text of an element, or an
// embedded frame.
type block struct {
	node  *html.Node
	text  string
	frame bool
}

// pageBlocks flattens the document into blocks, one per element holding
// text, in document order.
func pageBlocks(doc *dom.Document) []block {
	var blocks []block
	for _, item := range dom.Traverse(doc) {
		switch it := item.(type) {
		case dom.Text:
			text := dom.Normalize(it.Content())
			if text == "" {
				continue
			}
			parent := it.Node().Parent
			if n := len(blocks); n > 0 && blocks[n-1].node == parent {
				blocks[n-1].text += " " + text
				continue
			}
			blocks = append(blocks, block{node: parent, text: text})
		case dom.FrameBoundary:
			label := dom.Attr(it.Node(), "src")
			if label == "" {
				label = dom.Attr(it.Node(), "id")
			}
			blocks = append(blocks, block{node: it.Node(), text: "frame " + label, frame: true})
		case dom.Skip:
		}
	}
	return blocks
}

type keyMap struct {
	Up     key.Binding
	Down   key.Binding
	Read   key.Binding
	Escape key.Binding
	Stop   key.Binding
	Quit   key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up:     key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "hover up")),
		Down:   key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "hover down")),
		Read:   key.NewBinding(key.WithKeys("enter", "r"), key.WithHelp("enter", "read from here")),
		Escape: key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "stop speaking")),
		Stop:   key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "stop all frames")),
		Quit:   key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Read, k.Escape, k.Stop, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Up, k.Down}, {k.Read, k.Escape, k.Stop, k.Quit}}
}

type eventMsg struct{ event events.Event }

type readResultMsg struct{ result reader.ReadResult }

type model struct {
	ctx    context.Context
	reader *reader.Reader
	events <-chan events.Event
	title  string

	blocks []block
	cursor int
	// hasLayout is false for pages loaded without a renderer
	hasLayout bool

	keys    keyMap
	help    help.Model
	spinner spinner.Model
	width   int

	speaking string
	status   string
}

func newModel(ctx context.Context, r *reader.Reader, title string, doc *dom.Document, eventCh <-chan events.Event) model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	return model{
		ctx:       ctx,
		reader:    r,
		events:    eventCh,
		title:     title,
		blocks:    pageBlocks(doc),
		hasLayout: doc.Layout != nil,
		keys:      defaultKeyMap(),
		help:      help.New(),
		spinner:   s,
		width:     defaultWidth,
	}
}

func waitForEvent(ch <-chan events.Event) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-ch
		if !ok {
			return nil
		}
		return eventMsg{event: event}
	}
}

func readFrom(ctx context.Context, r *reader.Reader, target *html.Node) tea.Cmd {
	return func() tea.Msg {
		result, _ := r.HandleContextMenu(ctx, reader.PointerEvent{Target: target})
		return readResultMsg{result: result}
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(waitForEvent(m.events), m.spinner.Tick)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Up):
			if m.cursor > 0 {
				m.cursor--
				m.hover()
			}
		case key.Matches(msg, m.keys.Down):
			if m.cursor < len(m.blocks)-1 {
				m.cursor++
				m.hover()
			}
		case key.Matches(msg, m.keys.Read):
			if len(m.blocks) == 0 {
				return m, nil
			}
			m.status = "collecting text..."
			return m, readFrom(m.ctx, m.reader, m.readTarget())
		case key.Matches(msg, m.keys.Escape):
			if !m.reader.HandleKeyDown(reader.KeyEvent{Key: reader.KeyEscape}) {
				m.status = "nothing is being spoken"
			}
		case key.Matches(msg, m.keys.Stop):
			m.status = m.reader.Stop().String()
		}
		return m, nil

	case readResultMsg:
		switch {
		case msg.result.Success:
			m.status = fmt.Sprintf("reading %d segments: %s", msg.result.Segments, msg.result.Preview)
		case errors.Is(msg.result.Err, reader.ErrNoTextFound):
			m.status = "no text found to read"
		case errors.Is(msg.result.Err, reader.ErrSuperseded):
		default:
			m.status = fmt.Sprintf("could not read: %v", msg.result.Err)
		}
		return m, nil

	case eventMsg:
		switch event := msg.event.(type) {
		case events.UtteranceStarted:
			m.speaking = event.Text
		case events.UtteranceEnded:
			if m.speaking == event.Text {
				m.speaking = ""
			}
		case events.LongReadFinished:
			m.status = "finished reading"
		case events.ReadingStopped:
			m.speaking = ""
		}
		return m, waitForEvent(m.events)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// readTarget is the element a read under the cursor starts from. A frame
// holds no text of its own, so without a layout to look up what follows it
// the next text block is used instead.
func (m model) readTarget() *html.Node {
	b := m.blocks[m.cursor]
	if !b.frame || m.hasLayout {
		return b.node
	}
	for _, next := range m.blocks[m.cursor+1:] {
		if !next.frame {
			return next.node
		}
	}
	return b.node
}

func (m *model) hover() {
	m.reader.HandlePointerMove(reader.PointerEvent{Target: m.blocks[m.cursor].node})
}

func (m model) View() string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render(m.title))
	sb.WriteString("\n\n")

	textWidth := max(m.width-4, 20)
	first := max(0, min(m.cursor-visibleBlocks/2, len(m.blocks)-visibleBlocks))
	last := min(len(m.blocks), first+visibleBlocks)
	for i := first; i < last; i++ {
		b := m.blocks[i]
		prefix := "  "
		if i == m.cursor {
			prefix = cursorStyle.Render("> ")
		}
		text := wordwrap.String(b.text, textWidth)
		switch {
		case b.frame:
			text = frameStyle.Render("[" + b.text + "]")
		case i == m.cursor:
			text = cursorStyle.Render(text)
		}
		sb.WriteString(prefix)
		sb.WriteString(strings.ReplaceAll(text, "\n", "\n  "))
		sb.WriteString("\n")
	}
	if len(m.blocks) == 0 {
		sb.WriteString(statusStyle.Render("  the page has no text"))
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	if m.speaking != "" {
		sb.WriteString(m.spinner.View())
		sb.WriteString(" ")
		sb.WriteString(speakingText.Render(truncate.StringWithTail(m.speaking, uint(textWidth), "…")))
		sb.WriteString("\n")
	}
	if m.status != "" {
		sb.WriteString(statusStyle.Render(truncate.StringWithTail(m.status, uint(textWidth), "…")))
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
	sb.WriteString(m.help.View(m.keys))
	return sb.String()
}
