package reader

import events "github.com/koscakluka/ema-reader/core/events"

type eventEmitter func(events.Event)

func noopEventEmitter(events.Event) {}

func newCallbackEventEmitter(opts callbackOptions) eventEmitter {
	return func(event events.Event) {
		if opts.onEvent != nil {
			opts.onEvent(event)
		}

		switch typedEvent := event.(type) {
		case events.UtteranceStarted:
			if opts.onUtteranceStarted != nil {
				opts.onUtteranceStarted(typedEvent.Text, typedEvent.LongRead)
			}
		case events.UtteranceEnded:
			if opts.onUtteranceEnded != nil {
				opts.onUtteranceEnded(typedEvent.Text)
			}
		case events.LongReadFinished:
			if opts.onLongReadFinished != nil {
				opts.onLongReadFinished()
			}
		case events.NoTextFound:
			if opts.onNoTextFound != nil {
				opts.onNoTextFound()
			}
		case events.ReadingStopped:
			if opts.onStopped != nil {
				opts.onStopped(typedEvent.WasReading)
			}
		}
	}
}
