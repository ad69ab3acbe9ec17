package events

const (
	KindUtteranceStarted Kind = "utterance.started"
	KindUtteranceEnded   Kind = "utterance.ended"
)

type UtteranceStarted struct {
	Base
	Text     string
	LongRead bool
}

func NewUtteranceStarted(text string, longRead bool) UtteranceStarted {
	return UtteranceStarted{Base: NewBase(KindUtteranceStarted), Text: text, LongRead: longRead}
}

// UtteranceEnded reports how an utterance ended. Status is the engine's
// result status name ("completed", "interrupted", "failed").
type UtteranceEnded struct {
	Base
	Text   string
	Status string
	Err    error
}

func NewUtteranceEnded(text, status string, err error) UtteranceEnded {
	return UtteranceEnded{Base: NewBase(KindUtteranceEnded), Text: text, Status: status, Err: err}
}
