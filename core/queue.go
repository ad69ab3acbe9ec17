package reader

import "strings"

// readingQueue holds the segments of one long read and a cursor into them.
// Once the cursor passes the last segment the queue clears itself.
type readingQueue struct {
	segments []string
	current  int
}

func newReadingQueue(segments []string) *readingQueue {
	q := &readingQueue{segments: make([]string, 0, len(segments))}
	for _, segment := range segments {
		if strings.TrimSpace(segment) != "" {
			q.segments = append(q.segments, segment)
		}
	}
	return q
}

func (q *readingQueue) Len() int {
	if q == nil {
		return 0
	}
	return len(q.segments)
}

func (q *readingQueue) Current() (string, bool) {
	if q == nil || q.current >= len(q.segments) {
		return "", false
	}
	return q.segments[q.current], true
}

// Advance moves to the next segment and returns it. When nothing remains the
// queue is cleared and ok is false.
func (q *readingQueue) Advance() (string, bool) {
	if q == nil {
		return "", false
	}
	if q.current < len(q.segments) {
		q.current++
	}
	if q.current >= len(q.segments) {
		q.segments = nil
		q.current = 0
		return "", false
	}
	return q.segments[q.current], true
}

func (q *readingQueue) Exhausted() bool {
	return q == nil || q.current >= len(q.segments)
}
