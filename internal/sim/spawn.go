package sim

import (
	"fmt"
	"log"

	"botbridge.gg/internal/protocol"
)

// BotInformation identifies a handshaked client waiting for an entity.
type BotInformation struct {
	ClientID        int64
	BotName         string
	CharacterConfig map[string]any
}

// Binder associates spawned entities with the owning client. Implemented by
// the server's agent bindings.
type Binder interface {
	BindEntity(clientID int64, e *Entity)
}

// SpawnManager is the game-side collaborator that seats and spawns bot
// avatars. All methods run on the simulation thread.
type SpawnManager interface {
	// SeatBot records a handshaked client so a future SpawnBots pass can
	// give it an entity.
	SeatBot(info BotInformation)
	// SpawnBots spawns entities for every seated bot that has none yet.
	SpawnBots(lateJoin bool)
	// TeardownBot removes the client's spawned entity, if any.
	TeardownBot(clientID int64)
	// StopGame clears all seats after a run ends.
	StopGame()
}

// BasicSpawnManager seats bots and spawns plain player entities at a fixed
// spawn point. Games with richer spawning replace it.
type BasicSpawnManager struct {
	Scene      *Scene
	Binder     Binder
	Log        *log.Logger
	SpawnPoint protocol.Vec3

	seats   map[int64]BotInformation
	spawned map[int64]*Entity
	nextID  int64
}

func NewBasicSpawnManager(scene *Scene, binder Binder, logger *log.Logger) *BasicSpawnManager {
	return &BasicSpawnManager{
		Scene:   scene,
		Binder:  binder,
		Log:     logger,
		seats:   map[int64]BotInformation{},
		spawned: map[int64]*Entity{},
	}
}

func (m *BasicSpawnManager) SeatBot(info BotInformation) {
	if _, ok := m.seats[info.ClientID]; ok {
		return
	}
	m.seats[info.ClientID] = info
	m.Log.Printf("seated bot %q for clientId: %d", info.BotName, info.ClientID)
}

func (m *BasicSpawnManager) SpawnBots(lateJoin bool) {
	for clientID, info := range m.seats {
		if _, ok := m.spawned[clientID]; ok {
			continue
		}
		m.nextID++
		e := &Entity{
			ID:       m.nextID,
			Name:     info.BotName,
			Type:     "BotPlayer",
			IsPlayer: true,
			Position: m.SpawnPoint,
			Rotation: protocol.Quat{W: 1},
		}
		e.RegisterAction("MoveTo", func(input map[string]any) {
			if x, ok := asCoord(input["x"]); ok {
				e.Position.X = x
			}
			if y, ok := asCoord(input["y"]); ok {
				e.Position.Y = y
			}
			if z, ok := asCoord(input["z"]); ok {
				e.Position.Z = z
			}
		})
		m.Scene.Add(e)
		m.spawned[clientID] = e
		if m.Binder != nil {
			m.Binder.BindEntity(clientID, e)
		}
		m.Log.Printf("spawned entity %d for clientId: %d (lateJoin=%v)", e.ID, clientID, lateJoin)
	}
}

func (m *BasicSpawnManager) TeardownBot(clientID int64) {
	if e, ok := m.spawned[clientID]; ok {
		m.Scene.Remove(e.ID)
		delete(m.spawned, clientID)
	}
	delete(m.seats, clientID)
}

func (m *BasicSpawnManager) StopGame() {
	for clientID := range m.spawned {
		m.TeardownBot(clientID)
	}
	m.seats = map[int64]BotInformation{}
}

func asCoord(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

// EntityFor returns the spawned entity for a client, if any.
func (m *BasicSpawnManager) EntityFor(clientID int64) (*Entity, error) {
	e, ok := m.spawned[clientID]
	if !ok {
		return nil, fmt.Errorf("no spawned entity for clientId %d", clientID)
	}
	return e, nil
}
