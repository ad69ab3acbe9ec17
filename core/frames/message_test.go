package frames

import (
	"encoding/json"
	"testing"
)

func TestMessageWireShapes(t *testing.T) {
	cases := []struct {
		msg  Message
		want string
	}{
		{NewFrameTextRequest("frame_1"), `{"action":"getIframeText","frameId":"frame_1"}`},
		{NewFrameTextResponse("frame_1", ""), `{"action":"iframeTextResponse","text":"","frameId":"frame_1"}`},
		{NewFrameTextResponse("frame_2", "hi"), `{"action":"iframeTextResponse","text":"hi","frameId":"frame_2"}`},
		{NewStopReading(), `{"action":"stopReading"}`},
	}

	for _, tc := range cases {
		data, err := json.Marshal(tc.msg)
		if err != nil {
			t.Fatalf("failed to marshal %+v: %v", tc.msg, err)
		}
		if string(data) != tc.want {
			t.Fatalf("expected %s, got %s", tc.want, data)
		}
	}
}

func TestMessageDecodesForeignPayload(t *testing.T) {
	var msg Message
	if err := json.Unmarshal([]byte(`{"action":"iframeTextResponse","text":"body","frameId":"abc"}`), &msg); err != nil {
		t.Fatalf("failed to unmarshal: %v", err)
	}
	if msg.Action != ActionFrameTextResponse || msg.Text != "body" || msg.FrameID != "abc" {
		t.Fatalf("unexpected message %+v", msg)
	}
}

func TestSchemaDescribesWireFields(t *testing.T) {
	schema := Schema()

	action, ok := schema.Properties.Get("action")
	if !ok {
		t.Fatalf("expected schema to describe the action field")
	}
	if len(action.Enum) != 3 {
		t.Fatalf("expected 3 actions, got %v", action.Enum)
	}
	if _, ok := schema.Properties.Get("frameId"); !ok {
		t.Fatalf("expected schema to describe the frameId field")
	}
	if len(schema.Required) != 1 || schema.Required[0] != "action" {
		t.Fatalf("expected only action to be required, got %v", schema.Required)
	}
}
