package dom

import "golang.org/x/net/html"

type Rect struct {
	Top, Left     float64
	Width, Height float64
}

func (r Rect) Contains(x, y float64) bool {
	return x >= r.Left && x < r.Left+r.Width && y >= r.Top && y < r.Top+r.Height
}

func (r Rect) area() float64 { return r.Width * r.Height }

// AtOrAfter reports whether r starts at or after other in top-then-left
// reading order. Only meaningful for left-to-right, top-to-bottom layouts.
func (r Rect) AtOrAfter(other Rect) bool {
	return r.Top >= other.Top && r.Left >= other.Left
}

// Layout exposes rendered geometry of nodes.
type Layout interface {
	Rect(n *html.Node) (Rect, bool)
}

// HitTester resolves the element rendered at a viewport point.
type HitTester interface {
	ElementAt(x, y float64) *html.Node
}

// StaticLayout is a fixed node to rect mapping, typically captured from a
// rendering engine.
type StaticLayout map[*html.Node]Rect

func (l StaticLayout) Rect(n *html.Node) (Rect, bool) {
	rect, ok := l[n]
	return rect, ok
}

// ElementAt returns the smallest element whose rect contains the point. Of
// equally sized elements the one painted last wins: descendants over their
// ancestors, later siblings over earlier ones.
func (l StaticLayout) ElementAt(x, y float64) *html.Node {
	var best *html.Node
	var bestRect Rect
	for n, rect := range l {
		if n.Type != html.ElementNode || !rect.Contains(x, y) {
			continue
		}
		if best == nil || rect.area() < bestRect.area() ||
			rect.area() == bestRect.area() && follows(n, best) {
			best, bestRect = n, rect
		}
	}
	return best
}

// follows reports whether a comes after b in document order.
func follows(a, b *html.Node) bool {
	if a == b || Contains(a, b) {
		return false
	}
	if Contains(b, a) {
		return true
	}

	// child of each of b's ancestors on the path down to b
	pathToB := map[*html.Node]*html.Node{}
	for child, n := b, b.Parent; n != nil; child, n = n, n.Parent {
		pathToB[n] = child
	}
	for child, n := a, a.Parent; n != nil; child, n = n, n.Parent {
		bChild, ok := pathToB[n]
		if !ok {
			continue
		}
		for s := child.NextSibling; s != nil; s = s.NextSibling {
			if s == bChild {
				return false
			}
		}
		return true
	}
	return false
}

// ElementFromPoint hit-tests the document layout, returning nil when the
// layout cannot answer.
func ElementFromPoint(doc *Document, x, y float64) *html.Node {
	if doc == nil || doc.Layout == nil {
		return nil
	}
	hitTester, ok := doc.Layout.(HitTester)
	if !ok {
		return nil
	}
	return hitTester.ElementAt(x, y)
}

// TextUnderPoint returns the normalized own text of the element at (x, y).
func TextUnderPoint(doc *Document, x, y float64) string {
	return Normalize(OwnText(ElementFromPoint(doc, x, y)))
}
