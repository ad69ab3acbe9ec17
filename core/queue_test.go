package reader

import "testing"

func TestReadingQueueAdvancesInOrderAndClears(t *testing.T) {
	q := newReadingQueue([]string{"one", "  ", "two", "", "three"})

	if q.Len() != 3 {
		t.Fatalf("expected 3 segments after dropping blanks, got %d", q.Len())
	}
	if current, ok := q.Current(); !ok || current != "one" {
		t.Fatalf("expected current segment %q, got %q (ok=%v)", "one", current, ok)
	}

	for _, expected := range []string{"two", "three"} {
		next, ok := q.Advance()
		if !ok || next != expected {
			t.Fatalf("expected next segment %q, got %q (ok=%v)", expected, next, ok)
		}
	}

	if _, ok := q.Advance(); ok {
		t.Fatalf("expected exhausted queue to report no next segment")
	}
	if !q.Exhausted() || q.Len() != 0 {
		t.Fatalf("expected exhausted queue to be cleared, got %d segments", q.Len())
	}
	if _, ok := q.Advance(); ok {
		t.Fatalf("expected advancing a cleared queue to stay exhausted")
	}
}

func TestNilReadingQueueIsExhausted(t *testing.T) {
	var q *readingQueue
	if !q.Exhausted() {
		t.Fatalf("expected nil queue to be exhausted")
	}
	if _, ok := q.Current(); ok {
		t.Fatalf("expected nil queue to have no current segment")
	}
}
