package dom

import (
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Item is one stop of a document-order traversal. It is one of [Text],
// [FrameBoundary] or [Skip].
type Item interface {
	Node() *html.Node
	item()
}

// Text is a text node whose content is rendered.
type Text struct{ node *html.Node }

func (t Text) Node() *html.Node { return t.node }
func (t Text) Content() string  { return t.node.Data }
func (Text) item()              {}

// FrameBoundary is an embedded frame element. Its content is not part of the
// surrounding traversal.
type FrameBoundary struct{ element *html.Node }

func (f FrameBoundary) Node() *html.Node { return f.element }
func (FrameBoundary) item()              {}

// Skip is a text node inside non-visible markup such as script or style.
type Skip struct{ node *html.Node }

func (s Skip) Node() *html.Node { return s.node }
func (Skip) item()              {}

// Traverse walks the document body in document order.
func Traverse(doc *Document) []Item {
	return TraverseNode(doc.Body())
}

func TraverseNode(root *html.Node) []Item {
	if root == nil {
		return nil
	}

	var items []Item
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			if isHiddenContainer(n.Parent) {
				items = append(items, Skip{node: n})
			} else {
				items = append(items, Text{node: n})
			}
			return
		case html.ElementNode:
			if isFrame(n) {
				items = append(items, FrameBoundary{element: n})
				return
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)

	return items
}

func isFrame(n *html.Node) bool {
	return n != nil && n.Type == html.ElementNode &&
		(n.DataAtom == atom.Iframe || n.DataAtom == atom.Frame)
}

func isHiddenContainer(n *html.Node) bool {
	if n == nil || n.Type != html.ElementNode {
		return false
	}
	switch n.DataAtom {
	case atom.Script, atom.Style, atom.Noscript, atom.Template:
		return true
	}
	return false
}
