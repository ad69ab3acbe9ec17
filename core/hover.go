package reader

import "time"

// hoverState debounces pointer movement. Each move bumps seq so a timer that
// fires after being superseded does nothing.
type hoverState struct {
	lastText string
	timer    *time.Timer
	seq      uint64
}

func (h *hoverState) schedule(delay time.Duration, fire func(seq uint64)) {
	if h.timer != nil {
		h.timer.Stop()
	}
	h.seq++
	seq := h.seq
	h.timer = time.AfterFunc(delay, func() { fire(seq) })
}

func (h *hoverState) reset() {
	if h.timer != nil {
		h.timer.Stop()
		h.timer = nil
	}
	h.lastText = ""
	h.seq++
}
