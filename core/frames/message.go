// Package frames carries text requests and stop broadcasts between the
// readers of a page and its embedded frames.
package frames

import "encoding/json"

type Action string

const (
	ActionGetFrameText      Action = "getIframeText"
	ActionFrameTextResponse Action = "iframeTextResponse"
	ActionStopReading       Action = "stopReading"
)

// Message is the single envelope exchanged between frame contexts.
type Message struct {
	Action  Action `json:"action" jsonschema:"enum=getIframeText,enum=iframeTextResponse,enum=stopReading"`
	Text    string `json:"text,omitempty" jsonschema:"description=Visible text of the answering frame"`
	FrameID string `json:"frameId,omitempty" jsonschema:"description=Correlates a text response with its request"`
}

func NewFrameTextRequest(frameID string) Message {
	return Message{Action: ActionGetFrameText, FrameID: frameID}
}

func NewFrameTextResponse(frameID, text string) Message {
	return Message{Action: ActionFrameTextResponse, FrameID: frameID, Text: text}
}

func NewStopReading() Message {
	return Message{Action: ActionStopReading}
}

// MarshalJSON writes exactly the fields each action carries, so a response
// with empty text still has its text field.
func (m Message) MarshalJSON() ([]byte, error) {
	switch m.Action {
	case ActionGetFrameText:
		return json.Marshal(struct {
			Action  Action `json:"action"`
			FrameID string `json:"frameId"`
		}{m.Action, m.FrameID})
	case ActionFrameTextResponse:
		return json.Marshal(struct {
			Action  Action `json:"action"`
			Text    string `json:"text"`
			FrameID string `json:"frameId"`
		}{m.Action, m.Text, m.FrameID})
	case ActionStopReading:
		return json.Marshal(struct {
			Action Action `json:"action"`
		}{m.Action})
	}

	type plain Message
	return json.Marshal(plain(m))
}
