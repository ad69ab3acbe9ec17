// Package dom models a parsed page for reading: a document-order traversal of
// text and embedded frames, element text rules, and optional layout geometry.
package dom

import (
	"errors"
	"fmt"
	"io"
	"net/url"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ErrCrossOrigin is returned when a frame's document belongs to another
// security origin and cannot be inspected directly.
var ErrCrossOrigin = errors.New("dom: frame document is cross-origin")

// FrameLoader resolves the document embedded by a frame element.
//
// Implementations return ErrCrossOrigin (possibly wrapped) for frames whose
// content is not directly reachable.
type FrameLoader interface {
	FrameDocument(frame *html.Node) (*Document, error)
}

type FrameLoaderFunc func(frame *html.Node) (*Document, error)

func (f FrameLoaderFunc) FrameDocument(frame *html.Node) (*Document, error) { return f(frame) }

type Document struct {
	Root *html.Node
	URL  *url.URL

	// Layout is optional; without it position based lookups are disabled.
	Layout Layout
	// Frames is optional; without it every frame is treated as cross-origin.
	Frames FrameLoader
}

func Parse(r io.Reader, base *url.URL) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}

	return &Document{Root: root, URL: base}, nil
}

// Body returns the body element, or the root node when the document has none.
func (d *Document) Body() *html.Node {
	if d == nil || d.Root == nil {
		return nil
	}

	if body := findElement(d.Root, atom.Body); body != nil {
		return body
	}
	return d.Root
}

func (d *Document) FrameDocument(frame *html.Node) (*Document, error) {
	if d == nil || d.Frames == nil {
		return nil, ErrCrossOrigin
	}

	frameDoc, err := d.Frames.FrameDocument(frame)
	if err != nil {
		return nil, err
	}
	if frameDoc == nil {
		return nil, ErrCrossOrigin
	}
	return frameDoc, nil
}

// FrameSource returns the frame's src resolved against the document URL.
func (d *Document) FrameSource(frame *html.Node) (*url.URL, error) {
	src := Attr(frame, "src")
	if src == "" {
		return nil, fmt.Errorf("frame has no src")
	}

	ref, err := url.Parse(src)
	if err != nil {
		return nil, fmt.Errorf("failed to parse frame src %q: %w", src, err)
	}
	if d == nil || d.URL == nil {
		return ref, nil
	}
	return d.URL.ResolveReference(ref), nil
}

// SameOrigin reports whether a and b share scheme, host and port.
func SameOrigin(a, b *url.URL) bool {
	if a == nil || b == nil {
		return false
	}
	return a.Scheme == b.Scheme && a.Host == b.Host
}

func Attr(n *html.Node, key string) string {
	if n == nil {
		return ""
	}
	for _, attr := range n.Attr {
		if attr.Namespace == "" && attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

// Contains reports whether n is ancestor or equal to descendant.
func Contains(n, descendant *html.Node) bool {
	if n == nil {
		return false
	}
	for cur := descendant; cur != nil; cur = cur.Parent {
		if cur == n {
			return true
		}
	}
	return false
}

func findElement(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, a); found != nil {
			return found
		}
	}
	return nil
}

func (d *Document) ElementByID(id string) *html.Node {
	if d == nil || d.Root == nil {
		return nil
	}

	var found *html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if found != nil {
			return
		}
		if n.Type == html.ElementNode && Attr(n, "id") == id {
			found = n
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(d.Root)
	return found
}
