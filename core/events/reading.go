package events

const (
	KindLongReadStarted  Kind = "reading.long_started"
	KindLongReadFinished Kind = "reading.long_finished"
	KindNoTextFound      Kind = "reading.no_text_found"
	KindReadingStopped   Kind = "reading.stopped"
	KindStateChanged     Kind = "state.changed"
)

type LongReadStarted struct {
	Base
	Segments int
}

func NewLongReadStarted(segments int) LongReadStarted {
	return LongReadStarted{Base: NewBase(KindLongReadStarted), Segments: segments}
}

type LongReadFinished struct{ Base }

func NewLongReadFinished() LongReadFinished {
	return LongReadFinished{Base: NewBase(KindLongReadFinished)}
}

type NoTextFound struct{ Base }

func NewNoTextFound() NoTextFound {
	return NoTextFound{Base: NewBase(KindNoTextFound)}
}

// ReadingStopped reports a handled stop; WasReading tells whether anything
// was being read or queued.
type ReadingStopped struct {
	Base
	WasReading bool
}

func NewReadingStopped(wasReading bool) ReadingStopped {
	return ReadingStopped{Base: NewBase(KindReadingStopped), WasReading: wasReading}
}

type StateChanged struct {
	Base
	From, To string
}

func NewStateChanged(from, to string) StateChanged {
	return StateChanged{Base: NewBase(KindStateChanged), From: from, To: to}
}
