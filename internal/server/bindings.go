package server

import (
	"fmt"

	"botbridge.gg/internal/sim"
)

// Bindings maps each admitted client to the set of scene entities it controls.
// The sets are disjoint with one exception: the shared overlay entity, which
// every non-spawnable persistent bot binds to. Only the simulation thread
// touches this structure, so there is no locking.
type Bindings struct {
	overlay  *sim.Entity
	byClient map[int64]map[int64]*sim.Entity
}

func NewBindings(overlay *sim.Entity) *Bindings {
	return &Bindings{
		overlay:  overlay,
		byClient: map[int64]map[int64]*sim.Entity{},
	}
}

// Overlay is the shared entity menu-level bots attach to.
func (b *Bindings) Overlay() *sim.Entity { return b.overlay }

// BindEmpty registers a client with no controlled entities yet.
func (b *Bindings) BindEmpty(clientID int64) {
	if _, ok := b.byClient[clientID]; !ok {
		b.byClient[clientID] = map[int64]*sim.Entity{}
	}
}

// BindOverlay attaches the client to the shared overlay entity.
func (b *Bindings) BindOverlay(clientID int64) {
	b.BindEmpty(clientID)
	if b.overlay != nil {
		b.byClient[clientID][b.overlay.ID] = b.overlay
	}
}

// BindEntity records that clientID controls e, registering the client on
// first use.
func (b *Bindings) BindEntity(clientID int64, e *sim.Entity) {
	b.BindEmpty(clientID)
	b.byClient[clientID][e.ID] = e
}

func (b *Bindings) Remove(clientID int64) {
	delete(b.byClient, clientID)
}

func (b *Bindings) Registered(clientID int64) bool {
	_, ok := b.byClient[clientID]
	return ok
}

// EntitiesForClient returns the entities bound to clientID. Looking up a
// client that was never registered is a programming error and panics.
func (b *Bindings) EntitiesForClient(clientID int64) []*sim.Entity {
	set, ok := b.byClient[clientID]
	if !ok {
		panic(fmt.Sprintf("bindings: client %d is not registered", clientID))
	}
	out := make([]*sim.Entity, 0, len(set))
	for _, e := range set {
		out = append(out, e)
	}
	return out
}

// OwnerOf reports which client controls the entity, if any. The overlay
// entity is excluded since it is shared rather than owned.
func (b *Bindings) OwnerOf(entityID int64) (int64, bool) {
	if b.overlay != nil && entityID == b.overlay.ID {
		return 0, false
	}
	for clientID, set := range b.byClient {
		if _, ok := set[entityID]; ok {
			return clientID, true
		}
	}
	return 0, false
}

// OverlayClient returns a client currently attached to the overlay entity, if
// one exists. Used to assign ownership of player entities that appeared in
// the scene without going through spawn.
func (b *Bindings) OverlayClient() (int64, bool) {
	if b.overlay == nil {
		return 0, false
	}
	for clientID, set := range b.byClient {
		if _, ok := set[b.overlay.ID]; ok {
			return clientID, true
		}
	}
	return 0, false
}

// BindEntity on the server type satisfies sim.Binder so spawn managers can
// report seat results back without importing this package's internals.
var _ sim.Binder = (*Server)(nil)
