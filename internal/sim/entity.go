package sim

import (
	"strconv"

	"botbridge.gg/internal/protocol"
)

// ActionHandler applies one named action's inputs to an entity. Handlers run
// on the simulation thread only.
type ActionHandler func(input map[string]any)

// Entity is one controllable or trackable object in the scene.
type Entity struct {
	ID       int64
	Name     string
	Type     string
	IsPlayer bool

	Position protocol.Vec3
	Rotation protocol.Quat

	actions map[string]ActionHandler
}

func (e *Entity) RegisterAction(name string, h ActionHandler) {
	if e.actions == nil {
		e.actions = map[string]ActionHandler{}
	}
	e.actions[name] = h
}

// ActionHandlerFor returns the handler for an action name, if registered.
func (e *Entity) ActionHandlerFor(name string) (ActionHandler, bool) {
	h, ok := e.actions[name]
	return h, ok
}

// CoreState returns the deterministic core field set for this entity.
// The owning clientId, if any, is filled in by the broadcaster.
func (e *Entity) CoreState() protocol.EntityState {
	return protocol.EntityState{
		protocol.FieldID:       e.ID,
		protocol.FieldName:     e.Name,
		protocol.FieldType:     e.Type,
		protocol.FieldPosition: e.Position,
		protocol.FieldRotation: e.Rotation,
		protocol.FieldIsPlayer: e.IsPlayer,
	}
}

// StateProvider contributes extra named fields to an entity's per-tick state.
// Multiple providers may be registered; the server's merge policy decides
// collisions with core fields.
type StateProvider interface {
	Name() string
	CollectState(e *Entity) protocol.EntityState
}

// Scene is the set of trackable entities. It is touched only from the
// simulation thread, so it carries no locking.
type Scene struct {
	ID string

	entities  map[int64]*Entity
	providers []StateProvider
}

func NewScene(id string) *Scene {
	return &Scene{ID: id, entities: map[int64]*Entity{}}
}

func (s *Scene) Add(e *Entity)   { s.entities[e.ID] = e }
func (s *Scene) Remove(id int64) { delete(s.entities, id) }
func (s *Scene) Get(id int64) *Entity {
	return s.entities[id]
}

func (s *Scene) Len() int { return len(s.entities) }

// Walk visits every entity once, in no particular order.
func (s *Scene) Walk(fn func(e *Entity)) {
	for _, e := range s.entities {
		fn(e)
	}
}

func (s *Scene) RegisterStateProvider(p StateProvider) {
	s.providers = append(s.providers, p)
}

func (s *Scene) StateProviders() []StateProvider { return s.providers }

// EntityKey is the TickInfo map key for an entity id.
func EntityKey(id int64) string { return strconv.FormatInt(id, 10) }
