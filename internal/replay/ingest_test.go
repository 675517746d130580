package replay

import (
	"testing"

	"botbridge.gg/internal/persistence/history"
	"botbridge.gg/internal/protocol"
)

func TestLoadRecordsAttributesActions(t *testing.T) {
	records := []history.TickRecord{
		{
			Tick:     50,
			ClientID: 5,
			SceneID:  "s",
			Entities: map[string]protocol.EntityState{
				"3": {
					protocol.FieldID:       int64(3),
					protocol.FieldType:     "BotPlayer",
					protocol.FieldIsPlayer: true,
					protocol.FieldClientID: int64(5),
					protocol.FieldPosition: protocol.Vec3{X: 1},
				},
				"8": {
					protocol.FieldID:       int64(8),
					protocol.FieldType:     "Prop",
					protocol.FieldPosition: protocol.Vec3{},
				},
			},
			Actions: []protocol.ActionRequest{{Action: "MoveTo"}},
		},
		{
			Tick:     100,
			ClientID: 5,
			SceneID:  "s",
			Entities: map[string]protocol.EntityState{
				"3": {
					protocol.FieldID:       int64(3),
					protocol.FieldType:     "BotPlayer",
					protocol.FieldIsPlayer: true,
					protocol.FieldClientID: int64(5),
					protocol.FieldPosition: protocol.Vec3{X: 2},
				},
			},
		},
	}

	s := NewStore(nil)
	s.LoadRecords(records)

	bot := s.Record(3)
	if bot == nil {
		t.Fatalf("bot entity was not ingested")
	}
	if entry := bot.infoAt(50); entry == nil || len(entry.Actions) != 1 {
		t.Fatalf("actions not attributed to the owned entity at tick 50")
	}
	if !bot.ShowPath {
		t.Fatalf("acting bot should default to showing its path")
	}

	prop := s.Record(8)
	if prop == nil {
		t.Fatalf("prop entity was not ingested")
	}
	if entry := prop.infoAt(50); entry == nil || len(entry.Actions) != 0 {
		t.Fatalf("prop should have state but no actions at tick 50")
	}
}
