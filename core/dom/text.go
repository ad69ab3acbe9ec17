package dom

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Normalize collapses whitespace runs into single spaces and trims the result.
func Normalize(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// TextContent concatenates every descendant text node of n.
func TextContent(n *html.Node) string {
	if n == nil {
		return ""
	}
	if n.Type == html.TextNode {
		return n.Data
	}

	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

// OwnText returns the text an element speaks for itself: form values or
// placeholders, image alternatives, link text or target, and plain text
// content for everything else.
func OwnText(n *html.Node) string {
	if n == nil {
		return ""
	}
	if n.Type != html.ElementNode {
		return TextContent(n)
	}

	switch n.DataAtom {
	case atom.Input:
		return firstNonEmpty(Attr(n, "value"), Attr(n, "placeholder"))
	case atom.Textarea:
		return firstNonEmpty(TextContent(n), Attr(n, "placeholder"))
	case atom.Img:
		return firstNonEmpty(Attr(n, "alt"), Attr(n, "title"))
	case atom.A:
		return firstNonEmpty(TextContent(n), Attr(n, "title"), Attr(n, "href"))
	}
	return TextContent(n)
}

// VisibleText is the flattened, normalized text of the document body without
// the content of embedded frames.
func VisibleText(doc *Document) string {
	var parts []string
	for _, item := range Traverse(doc) {
		if text, ok := item.(Text); ok {
			parts = append(parts, text.Content())
		}
	}
	return Normalize(strings.Join(parts, " "))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
