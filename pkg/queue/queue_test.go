package queue

import (
	"encoding/json"
	"testing"
)

type refreshPayload struct {
	Trigger string `json:"trigger"`
	Note    string `json:"note"`
}

func TestParsePayloadPointer(t *testing.T) {
	in := &refreshPayload{Trigger: "refresh"}
	out, err := ParsePayload[refreshPayload](in)
	if err != nil {
		t.Fatalf("ParsePayload: %v", err)
	}
	if out != in {
		t.Fatalf("pointer payload should pass through unchanged")
	}
}

func TestParsePayloadValue(t *testing.T) {
	out, err := ParsePayload[refreshPayload](refreshPayload{Trigger: "rollover"})
	if err != nil {
		t.Fatalf("ParsePayload: %v", err)
	}
	if out.Trigger != "rollover" {
		t.Fatalf("trigger = %q", out.Trigger)
	}
}

func TestParsePayloadMap(t *testing.T) {
	m := map[string]interface{}{"trigger": "refresh", "note": "weekly drive"}
	out, err := ParsePayload[refreshPayload](m)
	if err != nil {
		t.Fatalf("ParsePayload: %v", err)
	}
	if out.Trigger != "refresh" || out.Note != "weekly drive" {
		t.Fatalf("payload = %+v", out)
	}
}

func TestParsePayloadRawJSON(t *testing.T) {
	raw := json.RawMessage(`{"trigger":"refresh","note":""}`)
	out, err := ParsePayload[refreshPayload](raw)
	if err != nil {
		t.Fatalf("ParsePayload: %v", err)
	}
	if out.Trigger != "refresh" {
		t.Fatalf("trigger = %q", out.Trigger)
	}
}

func TestParsePayloadRejectsUnknownShape(t *testing.T) {
	if _, err := ParsePayload[refreshPayload](42); err == nil {
		t.Fatalf("expected error for unsupported payload type")
	}
}
