package server

import (
	"log"
	"sync"

	"botbridge.gg/internal/protocol"
)

const localOutboxSize = 64

// localConnection serves an in-process bot runtime. Outbound messages go
// through a buffered channel the runtime drains; a full channel counts as a
// failed send rather than stalling the simulation thread.
type localConnection struct {
	connBase
	log *log.Logger

	closeOnce sync.Once
	out       chan protocol.ServerMessage
}

func newLocalConnection(clientID int64, logger *log.Logger) *localConnection {
	return &localConnection{
		connBase: connBase{clientID: clientID, kind: KindLocal},
		log:      logger,
		out:      make(chan protocol.ServerMessage, localOutboxSize),
	}
}

// Out is the stream the local runtime reads server messages from. The channel
// is closed when the connection closes.
func (c *localConnection) Out() <-chan protocol.ServerMessage { return c.out }

func (c *localConnection) Connected() bool { return true }

func (c *localConnection) SendTickInfo(ti *protocol.TickInfo) bool {
	return c.send(protocol.TypeTickInfo, ti)
}

func (c *localConnection) SendHandshakeResponse(hs *protocol.ServerHandshake) bool {
	return c.send(protocol.TypeHandshake, hs)
}

func (c *localConnection) SendTeardown() bool {
	return c.send(protocol.TypeTeardown, struct{}{})
}

func (c *localConnection) send(typ string, payload any) (ok bool) {
	msg, err := protocol.NewServerMessage(c.Token(), typ, payload)
	if err != nil {
		warnf(c.log, "client %d: encode %s: %v", c.clientID, typ, err)
		return false
	}
	defer func() {
		// Sending on a closed channel is the shutdown race; swallow it.
		if recover() != nil {
			ok = false
		}
	}()
	select {
	case c.out <- msg:
		return true
	default:
		warnf(c.log, "client %d: local outbox full, dropping %s", c.clientID, typ)
		return false
	}
}

func (c *localConnection) Close() {
	c.closeOnce.Do(func() { close(c.out) })
}
