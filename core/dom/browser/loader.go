// Package browser loads live pages through a headless Chrome, capturing the
// rendered layout alongside the document so hover hit-testing and the
// position fallback work on real geometry.
package browser

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/net/html"

	"github.com/koscakluka/ema-reader/core/dom"
)

const (
	nodeIDAttr = "data-readaloud-id"

	DefaultFrameLoadTimeout = 10 * time.Second
)

// measureScript tags every body element with a numeric id and returns the
// viewport rect of each.
const measureScript = `(() => {
	const rects = {};
	let next = 0;
	for (const el of document.querySelectorAll('body, body *')) {
		const id = String(next++);
		el.setAttribute('` + nodeIDAttr + `', id);
		const r = el.getBoundingClientRect();
		rects[id] = {top: r.top, left: r.left, width: r.width, height: r.height};
	}
	return rects;
})()`

type rect struct {
	Top    float64 `json:"top"`
	Left   float64 `json:"left"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type Option func(*Loader)

// WithFrameLoadTimeout bounds loading a same-origin frame on demand.
func WithFrameLoadTimeout(timeout time.Duration) Option {
	return func(l *Loader) {
		if timeout > 0 {
			l.frameTimeout = timeout
		}
	}
}

// WithAllocatorOptions replaces the Chrome flags the loader starts with.
func WithAllocatorOptions(opts ...chromedp.ExecAllocatorOption) Option {
	return func(l *Loader) { l.allocatorOpts = opts }
}

type Loader struct {
	allocatorOpts []chromedp.ExecAllocatorOption
	frameTimeout  time.Duration

	browserCtx context.Context
	cancel     func()
}

// NewLoader starts a headless browser. The browser lives until Close.
func NewLoader(ctx context.Context, opts ...Option) (*Loader, error) {
	l := &Loader{
		allocatorOpts: append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", true),
			chromedp.Flag("disable-gpu", true),
		),
		frameTimeout: DefaultFrameLoadTimeout,
	}
	for _, opt := range opts {
		opt(l)
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, l.allocatorOpts...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	l.browserCtx = browserCtx
	l.cancel = func() {
		cancelBrowser()
		cancelAlloc()
	}

	if err := chromedp.Run(browserCtx); err != nil {
		l.cancel()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}
	return l, nil
}

func (l *Loader) Close() {
	if l.cancel != nil {
		l.cancel()
	}
}

// Load navigates to pageURL in a fresh tab and returns the rendered document
// with its layout. Same-origin frames of the document are loaded on demand;
// others report dom.ErrCrossOrigin.
func (l *Loader) Load(ctx context.Context, pageURL string) (*dom.Document, error) {
	ctx, span := tracer.Start(ctx, "load page")
	defer span.End()
	span.SetAttributes(attribute.String("url", pageURL))

	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("invalid page url: %w", err)
	}

	tabCtx, cancelTab := chromedp.NewContext(l.browserCtx)
	defer cancelTab()
	stop := context.AfterFunc(ctx, cancelTab)
	defer stop()

	var rects map[string]rect
	var source string
	if err := chromedp.Run(tabCtx,
		chromedp.Navigate(pageURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Evaluate(measureScript, &rects),
		chromedp.OuterHTML("html", &source, chromedp.ByQuery),
	); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to load page")
		return nil, fmt.Errorf("failed to load %s: %w", pageURL, err)
	}

	doc, err := dom.Parse(strings.NewReader(source), base)
	if err != nil {
		return nil, err
	}
	doc.Layout = layoutFromRects(doc.Root, rects)
	doc.Frames = dom.FrameLoaderFunc(func(frame *html.Node) (*dom.Document, error) {
		return l.loadFrame(doc, frame)
	})
	return doc, nil
}

func (l *Loader) loadFrame(parent *dom.Document, frame *html.Node) (*dom.Document, error) {
	src, err := parent.FrameSource(frame)
	if err != nil || !dom.SameOrigin(parent.URL, src) {
		return nil, dom.ErrCrossOrigin
	}

	ctx, cancel := context.WithTimeout(context.Background(), l.frameTimeout)
	defer cancel()
	doc, err := l.Load(ctx, src.String())
	if err != nil {
		logger.Warn("failed to load same-origin frame", "url", src.String(), "error", err)
		return nil, dom.ErrCrossOrigin
	}
	return doc, nil
}

// layoutFromRects maps measured rects back onto the parsed nodes and strips
// the tagging attribute.
func layoutFromRects(root *html.Node, rects map[string]rect) dom.StaticLayout {
	layout := dom.StaticLayout{}
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			attrs := n.Attr[:0]
			for _, attr := range n.Attr {
				if attr.Key != nodeIDAttr {
					attrs = append(attrs, attr)
					continue
				}
				if r, ok := rects[attr.Val]; ok {
					layout[n] = dom.Rect{Top: r.Top, Left: r.Left, Width: r.Width, Height: r.Height}
				}
			}
			n.Attr = attrs
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	if root != nil {
		walk(root)
	}
	return layout
}
