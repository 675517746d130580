package sim

import (
	"bytes"
	"log"
	"testing"
)

type recordingBinder struct {
	bound map[int64]*Entity
}

func (b *recordingBinder) BindEntity(clientID int64, e *Entity) {
	if b.bound == nil {
		b.bound = map[int64]*Entity{}
	}
	b.bound[clientID] = e
}

func newSpawnFixture() (*Scene, *recordingBinder, *BasicSpawnManager) {
	scene := NewScene("s")
	binder := &recordingBinder{}
	m := NewBasicSpawnManager(scene, binder, log.New(&bytes.Buffer{}, "", 0))
	return scene, binder, m
}

func TestSeatAndSpawn(t *testing.T) {
	scene, binder, m := newSpawnFixture()

	m.SeatBot(BotInformation{ClientID: 1, BotName: "walker-1"})
	m.SeatBot(BotInformation{ClientID: 1, BotName: "dup"}) // first seat wins
	m.SpawnBots(false)

	if scene.Len() != 1 {
		t.Fatalf("scene has %d entities, want 1", scene.Len())
	}
	e := binder.bound[1]
	if e == nil || e.Name != "walker-1" || !e.IsPlayer {
		t.Fatalf("bound entity wrong: %+v", e)
	}

	// A second sweep spawns nothing new.
	m.SpawnBots(true)
	if scene.Len() != 1 {
		t.Fatalf("late-join sweep duplicated the entity")
	}
}

func TestMoveToAction(t *testing.T) {
	_, binder, m := newSpawnFixture()
	m.SeatBot(BotInformation{ClientID: 1, BotName: "walker-1"})
	m.SpawnBots(false)

	e := binder.bound[1]
	h, ok := e.ActionHandlerFor("MoveTo")
	if !ok {
		t.Fatalf("spawned bot has no MoveTo handler")
	}
	h(map[string]any{"x": 3.0, "z": 4.5})
	if e.Position.X != 3 || e.Position.Z != 4.5 {
		t.Fatalf("MoveTo did not update position: %v", e.Position)
	}
	if _, ok := e.ActionHandlerFor("Fly"); ok {
		t.Fatalf("unexpected handler for unknown action")
	}
}

func TestTeardownAndStopGame(t *testing.T) {
	scene, _, m := newSpawnFixture()
	m.SeatBot(BotInformation{ClientID: 1, BotName: "a"})
	m.SeatBot(BotInformation{ClientID: 2, BotName: "b"})
	m.SpawnBots(false)

	m.TeardownBot(1)
	if scene.Len() != 1 {
		t.Fatalf("teardown did not remove the entity")
	}
	if _, err := m.EntityFor(1); err == nil {
		t.Fatalf("torn-down client still has an entity")
	}

	m.StopGame()
	if scene.Len() != 0 {
		t.Fatalf("StopGame left %d entities", scene.Len())
	}
	m.SpawnBots(true)
	if scene.Len() != 0 {
		t.Fatalf("seats survived StopGame")
	}
}
