package extract

import "strings"

type Origin int

const (
	OriginInline Origin = iota
	OriginSameOriginFrame
	OriginCrossOriginFrame
	OriginPlaceholderUnresolved
)

func (o Origin) String() string {
	switch o {
	case OriginInline:
		return "inline"
	case OriginSameOriginFrame:
		return "same-origin-frame"
	case OriginCrossOriginFrame:
		return "cross-origin-frame"
	case OriginPlaceholderUnresolved:
		return "placeholder-unresolved"
	}
	return "unknown"
}

// Segment is one ordered unit of spoken content.
type Segment struct {
	Text   string
	Origin Origin
}

// Texts returns segment contents in order.
func Texts(segments []Segment) []string {
	texts := make([]string, 0, len(segments))
	for _, segment := range segments {
		texts = append(texts, segment.Text)
	}
	return texts
}

// Join returns all segment contents separated by single spaces.
func Join(segments []Segment) string {
	return strings.Join(Texts(segments), " ")
}
