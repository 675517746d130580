package replay

import (
	"botbridge.gg/internal/persistence/history"
	"botbridge.gg/internal/protocol"
)

// LoadRecords feeds a client's tick records, already in ascending tick order,
// into the store. Action and validation data is attributed to the entity the
// recording client controlled at that tick.
func (s *Store) LoadRecords(records []history.TickRecord) {
	for _, rec := range records {
		info := &protocol.TickInfo{
			Tick:     rec.Tick,
			SceneID:  rec.SceneID,
			Entities: rec.Entities,
		}
		s.ProcessTick(rec.Tick, info)

		if len(rec.Actions) == 0 && len(rec.Validations) == 0 {
			continue
		}
		entityID, ok := boundEntity(rec)
		if !ok {
			continue
		}
		s.ProcessActionData(rec.Tick, entityID, rec.Actions, rec.Validations)
	}
}

// boundEntity finds the entity the recording client owned in this snapshot.
func boundEntity(rec history.TickRecord) (int64, bool) {
	for _, state := range rec.Entities {
		owner, ok := state.ClientID()
		if !ok || owner != rec.ClientID {
			continue
		}
		if id, ok := state.ID(); ok {
			return id, true
		}
	}
	return 0, false
}
