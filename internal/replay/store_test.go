package replay

import (
	"log"
	"os"
	"strconv"
	"testing"

	"botbridge.gg/internal/protocol"
)

func entityState(id int64, typ string, isPlayer bool, pos protocol.Vec3) protocol.EntityState {
	return protocol.EntityState{
		protocol.FieldID:       id,
		protocol.FieldName:     "e",
		protocol.FieldType:     typ,
		protocol.FieldIsPlayer: isPlayer,
		protocol.FieldPosition: pos,
	}
}

func snapshotWith(tick int64, states ...protocol.EntityState) *protocol.TickInfo {
	ti := &protocol.TickInfo{Tick: tick, SceneID: "s", Entities: map[string]protocol.EntityState{}}
	for _, st := range states {
		id, _ := st.ID()
		ti.Entities[strconv.FormatInt(id, 10)] = st
	}
	return ti
}

// loadPresenceGrid builds the timeline [absent, X, X, absent, absent, X]
// for entity 1 across ticks 1..6.
func loadPresenceGrid(t *testing.T) *Store {
	t.Helper()
	s := NewStore(log.New(os.Stderr, "", 0))
	present := map[int64]bool{2: true, 3: true, 6: true}
	for tick := int64(1); tick <= 6; tick++ {
		if present[tick] {
			s.ProcessTick(tick, snapshotWith(tick,
				entityState(1, "BotPlayer", true, protocol.Vec3{X: float64(tick)})))
		} else {
			s.ProcessTick(tick, snapshotWith(tick))
		}
	}
	return s
}

func TestSpawnDespawnDetection(t *testing.T) {
	s := loadPresenceGrid(t)

	cases := []struct {
		tick          int64
		justSpawned   bool
		justDespawned bool
	}{
		{2, true, false},
		{3, false, false},
		{4, false, true},
		{6, true, false},
	}
	for _, c := range cases {
		q := s.GetInfoForTick(c.tick, 1)
		if q.JustSpawned != c.justSpawned || q.JustDespawned != c.justDespawned {
			t.Fatalf("tick %d: justSpawned=%v justDespawned=%v, want %v %v",
				c.tick, q.JustSpawned, q.JustDespawned, c.justSpawned, c.justDespawned)
		}
	}
}

func TestSpawnAtTimelineStart(t *testing.T) {
	s := NewStore(nil)
	s.ProcessTick(1, snapshotWith(1, entityState(1, "BotPlayer", true, protocol.Vec3{})))
	q := s.GetInfoForTick(1, 1)
	if !q.JustSpawned {
		t.Fatalf("entity present at tick 1 should read as just spawned")
	}
}

func TestPathReconstruction(t *testing.T) {
	s := loadPresenceGrid(t)

	path := s.GetPathForEntity(3, 1)
	if len(path) != 2 || path[0].X != 2 || path[1].X != 3 {
		t.Fatalf("path at tick 3 = %v, want positions from ticks [2,3]", path)
	}

	if path := s.GetPathForEntity(1, 1); len(path) != 0 {
		t.Fatalf("path at absent tick = %v, want empty", path)
	}

	if path := s.GetPathForEntity(6, 1); len(path) != 1 || path[0].X != 6 {
		t.Fatalf("path at tick 6 = %v, want just tick 6", path)
	}
}

func TestUnknownEntityQueries(t *testing.T) {
	s := NewStore(nil)
	if q := s.GetInfoForTick(1, 42); q.Record != nil || q.JustSpawned || q.JustDespawned {
		t.Fatalf("unknown entity should yield an empty query, got %+v", q)
	}
	if path := s.GetPathForEntity(1, 42); len(path) != 0 {
		t.Fatalf("unknown entity should have no path")
	}
}

func TestProcessActionDataMarksVisualization(t *testing.T) {
	s := NewStore(nil)
	s.ProcessTick(1, snapshotWith(1, entityState(7, "BotPlayer", true, protocol.Vec3{})))
	s.ProcessActionData(1, 7, []protocol.ActionRequest{{Action: "MoveTo"}}, nil)

	rec := s.Record(7)
	if !rec.ShowPath || !rec.ShowActions {
		t.Fatalf("acting entity should default to showing path and actions")
	}
	entry := rec.infoAt(1)
	if len(entry.Actions) != 1 || entry.Actions[0].Action != "MoveTo" {
		t.Fatalf("actions not merged into tick entry: %+v", entry)
	}
}

func TestSortRecordsPresentationOrder(t *testing.T) {
	s := NewStore(nil)
	// Present at tick 1: player 3, props 2 and -2; absent: player 9.
	s.ProcessTick(1, snapshotWith(1,
		entityState(3, "BotPlayer", true, protocol.Vec3{}),
		entityState(2, "Prop", false, protocol.Vec3{}),
		entityState(-2, "Prop", false, protocol.Vec3{}),
	))
	s.ProcessTick(2, snapshotWith(2, entityState(9, "BotPlayer", true, protocol.Vec3{})))

	got := s.Records(1)
	ids := make([]int64, len(got))
	for i, r := range got {
		ids[i] = r.EntityID
	}
	// Present before absent; player before props; positive prop id before the
	// negative one of equal magnitude.
	want := []int64{3, 2, -2, 9}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("presentation order = %v, want %v", ids, want)
		}
	}
}

func TestResetDiscardsEverything(t *testing.T) {
	s := NewStore(nil)
	s.ProcessTick(1, snapshotWith(1, entityState(1, "BotPlayer", true, protocol.Vec3{})))
	s.Reset()
	if s.Record(1) != nil {
		t.Fatalf("record survived Reset")
	}
}
