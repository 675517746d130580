package server

import (
	"fmt"
	"strings"

	"botbridge.gg/internal/protocol"
	"botbridge.gg/internal/sim"
)

// HandleClientHandshake queues the whole handshake as one task on the
// client's queue. The sequence is: secret check, name normalization,
// lifecycle record, binding, publish CONNECTED, seat-or-ack, publish RUNNING.
// CONNECTED is published strictly before the acknowledgement goes out so
// status listeners can react before traffic starts. Failures are logged and
// the client stays at whatever status it reached; there is no rollback.
func (s *Server) HandleClientHandshake(clientID int64, hs protocol.ClientHandshake) {
	s.tasks.Enqueue(clientID, func() { s.handshake(clientID, hs) })
}

func (s *Server) handshake(clientID int64, hs protocol.ClientHandshake) {
	defer func() {
		if r := recover(); r != nil {
			warnf(s.log, "client %d: handshake failed: %v", clientID, r)
		}
	}()

	conn := s.registry.Get(clientID)
	if conn == nil {
		warnf(s.log, "client %d: handshake for unknown connection", clientID)
		return
	}
	if hs.SessionSecret != s.cfg.SessionSecret {
		warnf(s.log, "client %d: handshake rejected, bad session secret", clientID)
		return
	}

	lifecycle := hs.Lifecycle
	if lifecycle == "" {
		lifecycle = protocol.LifecycleManaged
	}
	conn.SetLifecycle(lifecycle)
	conn.SetToken(hs.ClientToken)

	botName := hs.BotName
	suffix := fmt.Sprintf("-%d", clientID)
	if !strings.HasSuffix(botName, suffix) {
		botName += suffix
	}

	if nr, ok := s.recorder.(interface{ SetBotName(clientID int64, name string) }); ok {
		nr.SetBotName(clientID, botName)
	}

	if !hs.Spawnable && lifecycle == protocol.LifecyclePersistent {
		s.bindings.BindOverlay(clientID)
	} else {
		s.bindings.BindEmpty(clientID)
	}

	s.registry.SetStatus(clientID, StatusConnected)

	if hs.Spawnable && s.spawner != nil {
		s.seatBot(clientID, botName, hs.CharacterConfig)
	}
	conn.SendHandshakeResponse(&protocol.ServerHandshake{
		ServerToken:     s.ServerToken(),
		CharacterConfig: hs.CharacterConfig,
	})

	s.registry.SetStatus(clientID, StatusRunning)
	s.log.Printf("client %d handshaked as %q (%s, spawnable=%v)",
		clientID, botName, lifecycle, hs.Spawnable)
}

// seatBot requests a seat for the bot; a broken spawn manager must not kill
// the rest of the handshake.
func (s *Server) seatBot(clientID int64, botName string, characterConfig map[string]any) {
	defer func() {
		if r := recover(); r != nil {
			warnf(s.log, "client %d: seat request failed: %v", clientID, r)
		}
	}()
	s.spawner.SeatBot(sim.BotInformation{
		ClientID:        clientID,
		BotName:         botName,
		CharacterConfig: characterConfig,
	})
}
