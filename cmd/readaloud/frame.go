package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	reader "github.com/koscakluka/ema-reader/core"
	"github.com/koscakluka/ema-reader/core/frames/wsport"
)

const shutdownTimeout = 5 * time.Second

// newFrameCmd serves a page as an embedded frame: a parent reader connecting
// over websocket can ask for its text and broadcast stops to it.
func newFrameCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "frame",
		Short: "Serve a page as a cross-origin frame over websocket",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd.Flags())
			if err != nil {
				return err
			}
			listen, err := cmd.Flags().GetString("listen")
			if err != nil {
				return err
			}
			return serveFrame(cmd.Context(), cfg, listen, cmd.OutOrStdout())
		},
	}
	registerFlags(cmd.Flags())
	cmd.Flags().String("listen", "127.0.0.1:8765", "address to accept parent frame connections on")
	return cmd
}

func serveFrame(ctx context.Context, cfg config, listen string, stdout io.Writer) error {
	engine, closeEngine, err := newEngine(cfg, stdout)
	if err != nil {
		return err
	}
	defer closeEngine()

	doc, _, closePage, err := openPage(ctx, cfg)
	if err != nil {
		return err
	}
	defer closePage()

	r := reader.NewReader(doc,
		reader.WithSpeechEngine(engine),
		reader.WithHoverDelay(cfg.HoverDelay),
		reader.WithFrameTimeout(cfg.FrameTimeout),
	)
	if err := r.Attach(ctx); err != nil {
		return err
	}
	defer r.Detach()

	listener, err := net.Listen("tcp", listen)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", listen, err)
	}

	server := &http.Server{
		Handler:           instrumentedFrameHandler(r),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	fmt.Fprintf(stdout, "serving frame on ws://%s\n", listener.Addr())
	if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func instrumentedFrameHandler(r *reader.Reader) http.Handler {
	return otelhttp.NewHandler(frameHandler(r), "frame")
}

// frameHandler connects each websocket client as the reader's parent frame.
// A newer parent replaces the previous one.
func frameHandler(r *reader.Reader) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		port, err := wsport.Upgrade(w, req)
		if err != nil {
			return
		}
		r.ConnectParent(port)
		<-port.Done()
	})
}
