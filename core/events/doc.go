// Package events defines the typed events a reader emits.
//
// Event kinds are grouped by namespace:
//
//   - utterance.*
//   - reading.*
//   - state.*
//
// utterance events
//
//   - UtteranceStarted (utterance.started): the engine started speaking text,
//     from a hover read or as one segment of a long read.
//   - UtteranceEnded (utterance.ended): the utterance completed, failed or
//     was interrupted.
//
// reading events
//
//   - LongReadStarted (reading.long_started): a long read was queued.
//   - LongReadFinished (reading.long_finished): the queue was exhausted.
//   - NoTextFound (reading.no_text_found): a long read found nothing to read.
//   - ReadingStopped (reading.stopped): a stop command was handled.
//
// state events
//
//   - StateChanged (state.changed): the speech state machine moved.
package events
