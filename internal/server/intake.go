package server

import (
	"botbridge.gg/internal/protocol"
	"botbridge.gg/internal/sim"
)

// HandleActionRequest queues the request for dispatch to every entity bound
// to the client. A binding normally holds one entity but the dispatch is
// deliberately broadcast-to-binding. Entities without a handler for the named
// action ignore the request; version skew between a bot and the current
// handler set is routine, not an error.
func (s *Server) HandleActionRequest(clientID int64, req protocol.ActionRequest) {
	s.tasks.Enqueue(clientID, func() {
		for _, e := range s.clientEntities(clientID) {
			if handler, ok := e.ActionHandlerFor(req.Action); ok {
				handler(req.Input)
			}
		}
	})
}

// clientEntities tolerates requests racing a teardown: a client no longer
// registered simply has nothing bound.
func (s *Server) clientEntities(clientID int64) []*sim.Entity {
	if !s.bindings.Registered(clientID) {
		return nil
	}
	return s.bindings.EntitiesForClient(clientID)
}

// HandleValidationResult queues the result; only failures are recorded.
func (s *Server) HandleValidationResult(clientID int64, result protocol.ValidationResult) {
	s.tasks.Enqueue(clientID, func() {
		s.registry.AppendValidation(clientID, result)
	})
}

// HandleClientTeardown is the client-initiated goodbye.
func (s *Server) HandleClientTeardown(clientID int64) {
	s.TeardownClient(clientID)
}

// SaveTickData hands one tick of a client's activity to the history recorder.
func (s *Server) SaveTickData(clientID int64, ti *protocol.TickInfo, actions []protocol.ActionRequest, validations []protocol.ValidationResult) {
	if s.recorder == nil {
		return
	}
	if err := s.recorder.RecordTickData(clientID, ti, actions, validations); err != nil {
		warnf(s.log, "client %d: record tick %d: %v", clientID, ti.Tick, err)
	}
}
