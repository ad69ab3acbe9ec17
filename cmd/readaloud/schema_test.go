package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestSchemaCommandPrintsMessageSchema(t *testing.T) {
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetArgs([]string{"schema"})

	if err := root.Execute(); err != nil {
		t.Fatalf("expected schema command to succeed, got %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(out.Bytes(), &decoded); err != nil {
		t.Fatalf("expected JSON output, got %v", err)
	}
	if !strings.Contains(out.String(), "iframeTextResponse") {
		t.Fatalf("expected schema to list frame actions, got %s", out.String())
	}
}
