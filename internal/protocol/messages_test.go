package protocol

import (
	"encoding/json"
	"testing"
)

func TestClientMessageRoundTrip(t *testing.T) {
	msg, err := NewClientMessage(7, "tok", TypeActionRequest, ActionRequest{
		Action: "MoveTo",
		Input:  map[string]any{"x": 1.0},
	})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	raw, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	decoded, err := DecodeClientMessage(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.Type != TypeActionRequest || decoded.ClientID != 7 || decoded.Token != "tok" {
		t.Fatalf("envelope mangled: %+v", decoded)
	}
	var req ActionRequest
	if err := json.Unmarshal(decoded.Data, &req); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if req.Action != "MoveTo" {
		t.Fatalf("payload mangled: %+v", req)
	}
}

func TestEntityStateAccessorsAfterUnmarshal(t *testing.T) {
	raw := []byte(`{
	  "id": 3,
	  "name": "walker-1",
	  "type": "BotPlayer",
	  "position": {"x": 1.5, "y": 0, "z": -2},
	  "rotation": {"x": 0, "y": 0, "z": 0, "w": 1},
	  "isPlayer": true,
	  "clientId": 1
	}`)
	var state EntityState
	if err := json.Unmarshal(raw, &state); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if id, ok := state.ID(); !ok || id != 3 {
		t.Fatalf("ID() = %v %v", id, ok)
	}
	if owner, ok := state.ClientID(); !ok || owner != 1 {
		t.Fatalf("ClientID() = %v %v", owner, ok)
	}
	if !state.IsPlayer() || state.EntityType() != "BotPlayer" {
		t.Fatalf("identity accessors wrong: %v", state)
	}
	pos, ok := state.Position()
	if !ok || pos.X != 1.5 || pos.Z != -2 {
		t.Fatalf("Position() = %v %v", pos, ok)
	}
	rot, ok := state.Rotation()
	if !ok || rot.W != 1 {
		t.Fatalf("Rotation() = %v %v", rot, ok)
	}
}

func TestEntityStateMissingFields(t *testing.T) {
	state := EntityState{}
	if _, ok := state.ID(); ok {
		t.Fatalf("empty state should have no id")
	}
	if _, ok := state.Position(); ok {
		t.Fatalf("empty state should have no position")
	}
}
