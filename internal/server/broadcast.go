package server

import (
	"botbridge.gg/internal/protocol"
	"botbridge.gg/internal/sim"
)

// Core fields a custom state provider may never replace.
var protectedFields = map[string]bool{
	protocol.FieldID:       true,
	protocol.FieldName:     true,
	protocol.FieldType:     true,
	protocol.FieldIsPlayer: true,
	protocol.FieldClientID: true,
}

// Core fields a custom provider is allowed to replace.
var overridableFields = map[string]bool{
	protocol.FieldPosition: true,
	protocol.FieldRotation: true,
}

// broadcast walks the scene once, builds the tick snapshot, and pushes it to
// every connected client. One client's send failure never blocks the others;
// the successful recipients are logged.
func (s *Server) broadcast(tick int64) {
	if s.scene == nil {
		return
	}
	entities := map[string]protocol.EntityState{}
	providers := s.scene.StateProviders()
	s.scene.Walk(func(e *sim.Entity) {
		state := e.CoreState()
		if owner, ok := s.bindings.OwnerOf(e.ID); ok {
			state[protocol.FieldClientID] = owner
		} else if e.IsPlayer {
			// A player entity that appeared without going through spawn
			// belongs to whoever is driving the overlay, e.g. a menu bot
			// that just started a human-controlled run.
			if overlayClient, ok := s.bindings.OverlayClient(); ok {
				state[protocol.FieldClientID] = overlayClient
				s.bindings.BindEntity(overlayClient, e)
			}
		}
		claimed := map[string]string{}
		for _, p := range providers {
			s.mergeProviderState(state, p.Name(), p.CollectState(e), claimed, e.ID)
		}
		entities[sim.EntityKey(e.ID)] = state
	})

	ti := &protocol.TickInfo{
		Tick:     tick,
		SceneID:  s.scene.ID,
		Entities: entities,
	}
	var sent []int64
	for _, clientID := range s.registry.ClientIDs() {
		conn := s.registry.Get(clientID)
		if conn == nil || !conn.Connected() {
			continue
		}
		if conn.SendTickInfo(ti) {
			sent = append(sent, clientID)
		} else {
			warnf(s.log, "tick %d not delivered to client %d", tick, clientID)
		}
	}
	if len(sent) > 0 {
		s.log.Printf("tick %d: %d entities sent to clients %v", tick, len(entities), sent)
	}
}

// mergeProviderState folds one provider's fields into the core state.
// Protected core fields always win and the attempt is logged; position and
// rotation let the custom value through, warning once a second provider
// contends for the same field. Plain custom fields pass straight in.
func (s *Server) mergeProviderState(state protocol.EntityState, provider string, extra protocol.EntityState, claimed map[string]string, entityID int64) {
	for key, value := range extra {
		switch {
		case protectedFields[key]:
			warnf(s.log, "entity %d: provider %q may not override core field %q", entityID, provider, key)
		case overridableFields[key]:
			if prev, ok := claimed[key]; ok {
				warnf(s.log, "entity %d: providers %q and %q both set %q", entityID, prev, provider, key)
			}
			claimed[key] = provider
			state[key] = value
		default:
			state[key] = value
		}
	}
}
