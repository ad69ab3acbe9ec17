package main

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"

	reader "github.com/koscakluka/ema-reader/core"
	"github.com/koscakluka/ema-reader/core/dom"
	"github.com/koscakluka/ema-reader/core/dom/browser"
	"github.com/koscakluka/ema-reader/core/frames"
	"github.com/koscakluka/ema-reader/core/frames/wsport"
)

const maxFrameNesting = 4

type documentLoader func(ctx context.Context, src *url.URL) (*dom.Document, error)

// openPage loads the configured page and returns a loader for the documents
// of its frames.
func openPage(ctx context.Context, cfg config) (*dom.Document, documentLoader, func(), error) {
	if cfg.File != "" {
		path, err := filepath.Abs(cfg.File)
		if err != nil {
			return nil, nil, nil, err
		}
		doc, err := loadFile(ctx, &url.URL{Scheme: "file", Path: filepath.ToSlash(path)})
		if err != nil {
			return nil, nil, nil, err
		}
		return doc, loadFile, func() {}, nil
	}

	loader, err := browser.NewLoader(ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	doc, err := loader.Load(ctx, cfg.URL)
	if err != nil {
		loader.Close()
		return nil, nil, nil, err
	}
	load := func(ctx context.Context, src *url.URL) (*dom.Document, error) {
		return loader.Load(ctx, src.String())
	}
	return doc, load, loader.Close, nil
}

// loadFile parses a local HTML file. Its frames are same-origin unless
// sandboxed without allow-same-origin, as a browser would treat them.
func loadFile(_ context.Context, src *url.URL) (*dom.Document, error) {
	if src.Scheme != "file" {
		return nil, fmt.Errorf("cannot load %s from a local page", src)
	}
	f, err := os.Open(filepath.FromSlash(src.Path))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	doc, err := dom.Parse(f, src)
	if err != nil {
		return nil, err
	}
	doc.Frames = dom.FrameLoaderFunc(func(frame *html.Node) (*dom.Document, error) {
		if isSandboxed(frame) {
			return nil, dom.ErrCrossOrigin
		}
		frameSrc, err := doc.FrameSource(frame)
		if err != nil || !dom.SameOrigin(doc.URL, frameSrc) {
			return nil, dom.ErrCrossOrigin
		}
		return loadFile(context.Background(), frameSrc)
	})
	return doc, nil
}

func isSandboxed(frame *html.Node) bool {
	for _, attr := range frame.Attr {
		if attr.Key == "sandbox" {
			return !strings.Contains(attr.Val, "allow-same-origin")
		}
	}
	return false
}

// frameReaders runs a reader inside every cross-origin frame of doc, the way
// a content script runs in each frame, and connects it to parent through a
// port.
type frameReaders struct {
	load   documentLoader
	remote map[string]string
	opts   []reader.ReaderOption

	readers []*reader.Reader
}

// attach connects the frames of doc to parent. Frames listed as remote are
// dialled over websocket instead of loaded.
func (f *frameReaders) attach(ctx context.Context, parent *reader.Reader, doc *dom.Document, depth int) error {
	if depth >= maxFrameNesting {
		return nil
	}

	var errs []error
	for _, item := range dom.Traverse(doc) {
		boundary, ok := item.(dom.FrameBoundary)
		if !ok {
			continue
		}
		frame := boundary.Node()
		if _, err := doc.FrameDocument(frame); err == nil {
			continue
		}

		if wsURL, ok := f.remote[dom.Attr(frame, "id")]; ok {
			port, err := wsport.Dial(ctx, wsURL)
			if err != nil {
				errs = append(errs, fmt.Errorf("failed to reach frame %q: %w", wsURL, err))
				continue
			}
			parent.ConnectChildFrame(frame, port)
			continue
		}

		src, err := doc.FrameSource(frame)
		if err != nil {
			continue
		}
		frameDoc, err := f.load(ctx, src)
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to load frame %s: %w", src, err))
			continue
		}

		parentEnd, childEnd := frames.Pipe()
		opts := append([]reader.ReaderOption{reader.WithParentPort(childEnd)}, f.opts...)
		child := reader.NewReader(frameDoc, opts...)
		if err := child.Attach(ctx); err != nil {
			errs = append(errs, err)
			continue
		}
		parent.ConnectChildFrame(frame, parentEnd)
		f.readers = append(f.readers, child)

		if err := f.attach(ctx, child, frameDoc, depth+1); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f *frameReaders) detach() {
	for _, r := range f.readers {
		_ = r.Detach()
	}
}
