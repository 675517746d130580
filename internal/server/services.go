package server

import (
	"context"

	"botbridge.gg/internal/protocol"
)

// InstanceInfo describes a remotely managed bot process.
type InstanceInfo struct {
	InstanceID int64
	Host       string
	Port       int
}

// InstanceService starts and stops remotely hosted bot processes. All calls
// from the server are best-effort: a failing service never interrupts the
// simulation.
type InstanceService interface {
	StartBot(ctx context.Context, botID int64) (InstanceInfo, error)
	StopBot(ctx context.Context, instanceID int64) error
	ConnectionInfo(ctx context.Context, instanceID int64) (InstanceInfo, error)
}

// HistorySaver finalizes a local bot's recorded tick data.
type HistorySaver interface {
	SaveHistory(clientID int64) error
}

// TickDataRecorder persists one client's view of a tick together with the
// actions and validations that accompanied it.
type TickDataRecorder interface {
	RecordTickData(clientID int64, ti *protocol.TickInfo, actions []protocol.ActionRequest, validations []protocol.ValidationResult) error
}
