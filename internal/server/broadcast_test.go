package server

import (
	"encoding/json"
	"strings"
	"testing"

	"botbridge.gg/internal/protocol"
	"botbridge.gg/internal/sim"
)

type testProvider struct {
	name   string
	fields protocol.EntityState
}

func (p testProvider) Name() string { return p.name }
func (p testProvider) CollectState(e *sim.Entity) protocol.EntityState {
	return p.fields
}

func decodeTickInfo(t *testing.T, msg protocol.ServerMessage) protocol.TickInfo {
	t.Helper()
	if msg.Type != protocol.TypeTickInfo {
		t.Fatalf("message type = %s, want tickInfo", msg.Type)
	}
	var ti protocol.TickInfo
	if err := json.Unmarshal(msg.Data, &ti); err != nil {
		t.Fatalf("decode tick info: %v", err)
	}
	return ti
}

func TestMergePolicyProtectedCoreField(t *testing.T) {
	scene := sim.NewScene("test-scene")
	scene.Add(&sim.Entity{ID: 1, Name: "crate", Type: "Prop"})
	scene.RegisterStateProvider(testProvider{
		name:   "sneaky",
		fields: protocol.EntityState{protocol.FieldClientID: int64(99), "hp": 10},
	})
	s, buf := newTestServer(t, Options{Scene: scene})
	_, out := s.AdmitLocal(1)

	s.Step()

	ti := decodeTickInfo(t, <-out)
	state := ti.Entities[sim.EntityKey(1)]
	if _, ok := state.ClientID(); ok {
		t.Fatalf("custom clientId overwrote the core field: %v", state)
	}
	if _, ok := state["hp"]; !ok {
		t.Fatalf("plain custom field was dropped: %v", state)
	}
	if !strings.Contains(buf.String(), `may not override core field "clientId"`) {
		t.Fatalf("override attempt was not logged: %q", buf.String())
	}
}

func TestMergePolicyPositionOverride(t *testing.T) {
	scene := sim.NewScene("test-scene")
	scene.Add(&sim.Entity{ID: 1, Name: "crate", Type: "Prop", Position: protocol.Vec3{X: 1}})
	scene.RegisterStateProvider(testProvider{
		name:   "physics",
		fields: protocol.EntityState{protocol.FieldPosition: protocol.Vec3{X: 7, Y: 8, Z: 9}},
	})
	s, buf := newTestServer(t, Options{Scene: scene})
	_, out := s.AdmitLocal(1)

	s.Step()

	ti := decodeTickInfo(t, <-out)
	pos, ok := ti.Entities[sim.EntityKey(1)].Position()
	if !ok || pos.X != 7 || pos.Y != 8 || pos.Z != 9 {
		t.Fatalf("custom position did not win, got %v", pos)
	}
	if strings.Contains(buf.String(), "both set") {
		t.Fatalf("single provider should not trigger a contention warning: %q", buf.String())
	}

	// A second provider contending for position is warned about.
	scene.RegisterStateProvider(testProvider{
		name:   "anim",
		fields: protocol.EntityState{protocol.FieldPosition: protocol.Vec3{X: 1, Y: 2, Z: 3}},
	})
	s.Step()
	if !strings.Contains(buf.String(), `"physics" and "anim" both set "position"`) {
		t.Fatalf("provider contention was not logged: %q", buf.String())
	}
}

func TestBroadcastAssignsOverlayOwnerToUnownedPlayer(t *testing.T) {
	overlay := &sim.Entity{ID: -1, Name: "overlay", Type: "Overlay"}
	scene := sim.NewScene("test-scene")
	scene.Add(overlay)
	scene.Add(&sim.Entity{ID: 10, Name: "hero", Type: "Player", IsPlayer: true})
	s, _ := newTestServer(t, Options{Scene: scene, Overlay: overlay})

	_, out := s.AdmitLocal(4)
	s.HandleClientHandshake(4, protocol.ClientHandshake{
		BotName: "menu", Spawnable: false, Lifecycle: protocol.LifecyclePersistent,
		ClientToken: "ct", SessionSecret: testSecret,
	})
	s.Step()

	var ti protocol.TickInfo
	for msg := range out {
		if msg.Type == protocol.TypeTickInfo {
			ti = decodeTickInfo(t, msg)
			break
		}
	}
	owner, ok := ti.Entities[sim.EntityKey(10)].ClientID()
	if !ok || owner != 4 {
		t.Fatalf("unowned player entity should adopt the overlay client, got %v %v", owner, ok)
	}
	// The adoption also lands in the bindings.
	if got, ok := s.Bindings().OwnerOf(10); !ok || got != 4 {
		t.Fatalf("bindings did not record overlay adoption, got %v %v", got, ok)
	}
}
