package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/net/html"

	reader "github.com/koscakluka/ema-reader/core"
	"github.com/koscakluka/ema-reader/core/events"
)

const eventBuffer = 64

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "readaloud:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "readaloud",
		Short:         "Read web pages aloud on hover or from a chosen point",
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd.Flags())
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg, cmd.OutOrStdout())
		},
	}
	registerFlags(root.Flags())

	root.AddCommand(newFrameCmd())
	root.AddCommand(newSchemaCmd())
	return root
}

func run(ctx context.Context, cfg config, stdout io.Writer) error {
	reader.Installed()

	// Spoken text of the dryrun engine only goes to stdout in plain mode;
	// the interactive view shows it itself.
	speechOut := io.Discard
	if cfg.Plain {
		speechOut = stdout
	}
	engine, closeEngine, err := newEngine(cfg, speechOut)
	if err != nil {
		return err
	}
	defer closeEngine()

	doc, load, closePage, err := openPage(ctx, cfg)
	if err != nil {
		return err
	}
	defer closePage()

	eventCh := make(chan events.Event, eventBuffer)
	opts := []reader.ReaderOption{
		reader.WithSpeechEngine(engine),
		reader.WithHoverDelay(cfg.HoverDelay),
		reader.WithFrameTimeout(cfg.FrameTimeout),
	}
	top := reader.NewReader(doc, append(opts, reader.WithEventCallback(forwardEvents(eventCh)))...)
	if err := top.Attach(ctx); err != nil {
		return err
	}
	defer top.Detach()

	children := &frameReaders{load: load, remote: cfg.RemoteFrames, opts: opts}
	if err := children.attach(ctx, top, doc, 0); err != nil {
		fmt.Fprintln(os.Stderr, "readaloud: some frames will be skipped:", err)
	}
	defer children.detach()

	if cfg.Plain {
		var start *html.Node
		if cfg.Start != "" {
			if start = doc.ElementByID(cfg.Start); start == nil {
				return fmt.Errorf("no element with id %q", cfg.Start)
			}
		}
		return readPlain(ctx, top, doc, start, eventCh)
	}

	title := cfg.URL
	if title == "" {
		title = cfg.File
	}
	m := newModel(ctx, top, title, doc, eventCh)
	_, err = tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return err
}

// forwardEvents hands reader events to a channel without ever blocking the
// reader; events beyond the buffer are dropped.
func forwardEvents(ch chan<- events.Event) func(events.Event) {
	return func(event events.Event) {
		select {
		case ch <- event:
		default:
		}
	}
}
