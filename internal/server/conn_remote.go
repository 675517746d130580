package server

import (
	"log"
	"sync"

	"botbridge.gg/internal/protocol"
)

// Transport is the write side of a remote client's socket. Implementations
// must be safe for use from the simulation thread while reads happen on the
// transport's own goroutine.
type Transport interface {
	WriteMessage(m protocol.ServerMessage) error
	Close() error
}

// remoteConnection fronts a bot process connected over a socket. The socket
// attaches after admission, so sends before the transport binds simply report
// failure and the broadcaster retries next tick.
type remoteConnection struct {
	connBase
	log *log.Logger

	trMu sync.Mutex
	tr   Transport
}

func newRemoteConnection(clientID int64, logger *log.Logger) *remoteConnection {
	return &remoteConnection{
		connBase: connBase{clientID: clientID, kind: KindRemote},
		log:      logger,
	}
}

// BindTransport swaps in a live socket, closing any previous one. A bot that
// reconnects reuses its connection record.
func (c *remoteConnection) BindTransport(tr Transport) {
	c.trMu.Lock()
	old := c.tr
	c.tr = tr
	c.trMu.Unlock()
	if old != nil {
		_ = old.Close()
	}
}

func (c *remoteConnection) Connected() bool {
	c.trMu.Lock()
	defer c.trMu.Unlock()
	return c.tr != nil
}

func (c *remoteConnection) SendTickInfo(ti *protocol.TickInfo) bool {
	return c.send(protocol.TypeTickInfo, ti)
}

func (c *remoteConnection) SendHandshakeResponse(hs *protocol.ServerHandshake) bool {
	return c.send(protocol.TypeHandshake, hs)
}

func (c *remoteConnection) SendTeardown() bool {
	return c.send(protocol.TypeTeardown, struct{}{})
}

func (c *remoteConnection) send(typ string, payload any) bool {
	msg, err := protocol.NewServerMessage(c.Token(), typ, payload)
	if err != nil {
		warnf(c.log, "client %d: encode %s: %v", c.clientID, typ, err)
		return false
	}
	c.trMu.Lock()
	tr := c.tr
	c.trMu.Unlock()
	if tr == nil {
		return false
	}
	if err := tr.WriteMessage(msg); err != nil {
		warnf(c.log, "client %d: write %s: %v", c.clientID, typ, err)
		// A dead socket stays dead; drop it so Connected() reports honestly.
		c.trMu.Lock()
		if c.tr == tr {
			c.tr = nil
		}
		c.trMu.Unlock()
		_ = tr.Close()
		return false
	}
	return true
}

func (c *remoteConnection) Close() {
	c.trMu.Lock()
	tr := c.tr
	c.tr = nil
	c.trMu.Unlock()
	if tr != nil {
		_ = tr.Close()
	}
}
