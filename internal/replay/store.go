package replay

import (
	"log"

	"botbridge.gg/internal/protocol"
)

// TickData is everything known about one entity at one tick.
type TickData struct {
	State       protocol.EntityState        `json:"state,omitempty"`
	Actions     []protocol.ActionRequest    `json:"actions,omitempty"`
	Validations []protocol.ValidationResult `json:"validations,omitempty"`
}

// EntityRecord is one entity's tick-indexed timeline inside a loaded replay.
// ticks[i] covers tick i+1; a nil entry means the entity was absent that
// tick, which is how spawn and despawn are detected. The slice only ever
// grows while a replay is loaded.
type EntityRecord struct {
	EntityID    int64
	DisplayName string
	Types       []string
	IsPlayer    bool

	Enabled       bool
	ShowPath      bool
	ShowActions   bool
	ShowHighlight bool

	ticks []*TickData
}

// infoAt returns the entry for a 1-based tick, nil when absent or out of
// range.
func (r *EntityRecord) infoAt(tick int64) *TickData {
	if tick < 1 || tick > int64(len(r.ticks)) {
		return nil
	}
	return r.ticks[tick-1]
}

// MaxTick is the highest tick the record has grown to.
func (r *EntityRecord) MaxTick() int64 { return int64(len(r.ticks)) }

// growTo pads the timeline with absent markers up to and including tick.
func (r *EntityRecord) growTo(tick int64) {
	for int64(len(r.ticks)) < tick {
		r.ticks = append(r.ticks, nil)
	}
}

func (r *EntityRecord) ensureEntry(tick int64) *TickData {
	r.growTo(tick)
	if r.ticks[tick-1] == nil {
		r.ticks[tick-1] = &TickData{}
	}
	return r.ticks[tick-1]
}

func (r *EntityRecord) hasType(t string) bool {
	for _, existing := range r.Types {
		if existing == t {
			return true
		}
	}
	return false
}

// PrimaryType is the first type tag seen for the entity, empty if untyped.
func (r *EntityRecord) PrimaryType() string {
	if len(r.Types) == 0 {
		return ""
	}
	return r.Types[0]
}

// TickQuery is the answer to GetInfoForTick. JustSpawned and JustDespawned
// are derived from adjacent entries; no separate event log exists.
type TickQuery struct {
	Record        *EntityRecord
	Info          *TickData
	JustSpawned   bool
	JustDespawned bool
}

// Store holds every entity's timeline for one loaded replay. It is touched
// only from the simulation thread and needs no locking. Load a new archive or
// call Reset and the store starts over.
type Store struct {
	log     *log.Logger
	records map[int64]*EntityRecord
}

func NewStore(logger *log.Logger) *Store {
	if logger == nil {
		logger = log.Default()
	}
	return &Store{log: logger, records: map[int64]*EntityRecord{}}
}

func (s *Store) Reset() {
	s.records = map[int64]*EntityRecord{}
}

// Record returns the entity's record, nil if the entity never appeared.
func (s *Store) Record(entityID int64) *EntityRecord {
	return s.records[entityID]
}

func (s *Store) ensureRecord(entityID int64) *EntityRecord {
	rec, ok := s.records[entityID]
	if !ok {
		rec = &EntityRecord{EntityID: entityID, Enabled: true}
		s.records[entityID] = rec
	}
	return rec
}

// ProcessTick ingests one snapshot. Every entity present in it gets a
// timeline entry at tick and its cached identity fields refreshed. Snapshots
// must arrive in ascending tick order.
func (s *Store) ProcessTick(tick int64, info *protocol.TickInfo) {
	if info == nil {
		return
	}
	for _, state := range info.Entities {
		entityID, ok := state.ID()
		if !ok {
			continue
		}
		rec := s.ensureRecord(entityID)
		entry := rec.ensureEntry(tick)
		entry.State = state

		if name := state.Name(); name != "" {
			rec.DisplayName = name
		}
		if t := state.EntityType(); t != "" && !rec.hasType(t) {
			rec.Types = append(rec.Types, t)
		}
		if state.IsPlayer() {
			rec.IsPlayer = true
		}
	}
}

// ProcessActionData merges one entity's actions and validations into the
// tick's entry. An entity that acted defaults to showing its path and action
// overlay.
func (s *Store) ProcessActionData(tick int64, entityID int64, actions []protocol.ActionRequest, validations []protocol.ValidationResult) {
	rec := s.ensureRecord(entityID)
	entry := rec.ensureEntry(tick)
	entry.Actions = append(entry.Actions, actions...)
	entry.Validations = append(entry.Validations, validations...)
	if len(entry.Actions) > 0 {
		rec.ShowPath = true
		rec.ShowActions = true
	}
}

// GetInfoForTick reports the entity's entry at tick plus the spawn/despawn
// edges. JustSpawned holds when the entity is present at tick and was absent
// the tick before (or the timeline starts here). JustDespawned holds when the
// entity is absent at tick but was present two ticks earlier; despawn is
// therefore observed one tick late, matching the recorded archives this store
// reads.
func (s *Store) GetInfoForTick(tick int64, entityID int64) TickQuery {
	rec, ok := s.records[entityID]
	if !ok {
		return TickQuery{}
	}
	info := rec.infoAt(tick)
	q := TickQuery{Record: rec, Info: info}
	if info != nil {
		q.JustSpawned = tick < 2 || rec.infoAt(tick-1) == nil
	} else if tick > 1 {
		before := tick - 2
		q.JustDespawned = before >= 1 && before <= rec.MaxTick() && rec.infoAt(before) != nil
	}
	return q
}

// GetPathForEntity walks backward from tick while the entity stays present,
// collecting positions, and returns them oldest first. An entity absent at
// tick yields an empty path. The walk is recomputed per call.
func (s *Store) GetPathForEntity(tick int64, entityID int64) []protocol.Vec3 {
	rec, ok := s.records[entityID]
	if !ok {
		return nil
	}
	var reversed []protocol.Vec3
	for t := tick; t >= 1; t-- {
		entry := rec.infoAt(t)
		if entry == nil {
			break
		}
		if pos, ok := entry.State.Position(); ok {
			reversed = append(reversed, pos)
		}
	}
	path := make([]protocol.Vec3, 0, len(reversed))
	for i := len(reversed) - 1; i >= 0; i-- {
		path = append(path, reversed[i])
	}
	return path
}

// Records returns every entity record, ordered for presentation at tick.
func (s *Store) Records(tick int64) []*EntityRecord {
	out := make([]*EntityRecord, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec)
	}
	SortRecords(tick, out)
	return out
}

// EntityIDs lists every known entity in no particular order.
func (s *Store) EntityIDs() []int64 {
	ids := make([]int64, 0, len(s.records))
	for id := range s.records {
		ids = append(ids, id)
	}
	return ids
}
