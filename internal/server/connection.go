package server

import (
	"log"
	"math"
	"sync"

	"botbridge.gg/internal/protocol"
)

// GlobalTasksClientID is the reserved queue id for tasks not associated with
// any specific bot (start game, stop game, spawn sweeps).
const GlobalTasksClientID int64 = math.MaxInt64

type ConnectionKind string

const (
	KindLocal  ConnectionKind = "LOCAL"
	KindRemote ConnectionKind = "REMOTE"
)

// BotStatus is the published per-client lifecycle state. StatusUnknown is the
// uniform answer for both "never registered" and "already torn down".
type BotStatus string

const (
	StatusUnknown     BotStatus = "UNKNOWN"
	StatusConnecting  BotStatus = "CONNECTING"
	StatusConnected   BotStatus = "CONNECTED"
	StatusRunning     BotStatus = "RUNNING"
	StatusTearingDown BotStatus = "TEARING_DOWN"
)

// Connection is one bot client's transport abstraction. Send methods never
// raise; a false return means the payload was not delivered and the transport
// may need to be re-established.
type Connection interface {
	ClientID() int64
	Kind() ConnectionKind
	Lifecycle() string
	SetLifecycle(lifecycle string)
	Token() string
	SetToken(token string)
	Connected() bool
	SendTickInfo(ti *protocol.TickInfo) bool
	SendHandshakeResponse(hs *protocol.ServerHandshake) bool
	SendTeardown() bool
	Close()
}

// connBase carries the fields shared by both connection kinds.
type connBase struct {
	clientID int64
	kind     ConnectionKind

	mu        sync.Mutex
	lifecycle string
	token     string
}

func (c *connBase) ClientID() int64      { return c.clientID }
func (c *connBase) Kind() ConnectionKind { return c.kind }

func (c *connBase) Lifecycle() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lifecycle
}

func (c *connBase) SetLifecycle(lifecycle string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lifecycle = lifecycle
}

func (c *connBase) Token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

func (c *connBase) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

func warnf(logger *log.Logger, format string, args ...any) {
	if logger != nil {
		logger.Printf("WARNING: "+format, args...)
	}
}
