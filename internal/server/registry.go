package server

import (
	"context"
	"log"
	"sort"
	"sync"

	"botbridge.gg/internal/protocol"
)

// StatusListener observes one client's lifecycle transitions. Listeners are
// invoked on the simulation thread via the client's task queue.
type StatusListener func(status BotStatus)

// Registry tracks every admitted client: its connection, published status,
// status listeners, and accumulated validation failures. All maps are guarded
// by one mutex; the side effects of EndConnection (teardown notice, instance
// stop, history save) happen outside the lock.
type Registry struct {
	log       *log.Logger
	enqueue   func(clientID int64, task func())
	attempt   func(name string, fn func() error)
	instances InstanceService
	history   HistorySaver

	mu          sync.Mutex
	conns       map[int64]Connection
	statuses    map[int64]BotStatus
	listeners   map[int64][]StatusListener
	validations map[int64][]protocol.ValidationResult
}

func newRegistry(logger *log.Logger, enqueue func(int64, func()), attempt func(string, func() error)) *Registry {
	return &Registry{
		log:         logger,
		enqueue:     enqueue,
		attempt:     attempt,
		conns:       map[int64]Connection{},
		statuses:    map[int64]BotStatus{},
		listeners:   map[int64][]StatusListener{},
		validations: map[int64][]protocol.ValidationResult{},
	}
}

// AddConnection admits a client, creating its connection record and an empty
// validation ledger. Admission is idempotent: a second call for the same id
// returns the record the first call created.
func (r *Registry) AddConnection(clientID int64, kind ConnectionKind) Connection {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.conns[clientID]; ok {
		return existing
	}
	var conn Connection
	switch kind {
	case KindLocal:
		conn = newLocalConnection(clientID, r.log)
	default:
		conn = newRemoteConnection(clientID, r.log)
	}
	r.conns[clientID] = conn
	if _, ok := r.validations[clientID]; !ok {
		r.validations[clientID] = nil
	}
	return conn
}

// Get returns the client's connection or nil if it was never admitted or has
// already been ended.
func (r *Registry) Get(clientID int64) Connection {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.conns[clientID]
}

// ClientIDs returns a stable snapshot of admitted clients.
func (r *Registry) ClientIDs() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]int64, 0, len(r.conns))
	for id := range r.conns {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Status answers UNKNOWN for clients that were never seen or already ended.
func (r *Registry) Status(clientID int64) BotStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	if st, ok := r.statuses[clientID]; ok {
		return st
	}
	return StatusUnknown
}

// SetStatus publishes a new status and notifies listeners via the client's
// task queue. Setting the status it already has is a no-op, so listeners fire
// once per actual transition.
func (r *Registry) SetStatus(clientID int64, status BotStatus) {
	r.mu.Lock()
	if r.statuses[clientID] == status {
		r.mu.Unlock()
		return
	}
	r.statuses[clientID] = status
	watchers := append([]StatusListener(nil), r.listeners[clientID]...)
	r.mu.Unlock()

	for _, fn := range watchers {
		fn := fn
		r.enqueue(clientID, func() { fn(status) })
	}
}

func (r *Registry) AddStatusListener(clientID int64, fn StatusListener) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners[clientID] = append(r.listeners[clientID], fn)
}

// AppendValidation keeps failed results only; passes are counted by the
// caller's own tooling and carry no diagnostic value here.
func (r *Registry) AppendValidation(clientID int64, v protocol.ValidationResult) {
	if v.Passed {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.validations[clientID] = append(r.validations[clientID], v)
}

// FailedValidations returns a copy of the client's failure ledger. The ledger
// survives client teardown and clears only when the run stops.
func (r *Registry) FailedValidations(clientID int64) []protocol.ValidationResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]protocol.ValidationResult(nil), r.validations[clientID]...)
}

func (r *Registry) ClearValidations() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.validations = map[int64][]protocol.ValidationResult{}
}

// HasBotsRunning reports whether any client is still between CONNECTING and
// TEARING_DOWN inclusive.
func (r *Registry) HasBotsRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, st := range r.statuses {
		switch st {
		case StatusConnecting, StatusConnected, StatusRunning, StatusTearingDown:
			return true
		}
	}
	return false
}

// EndConnection removes the client and runs kind-specific cleanup: the bot
// gets a teardown notice and its socket closes; remote bots get a best-effort
// instance stop and local bots a best-effort history save. Ending an unknown
// client just resets its status. Validation results are deliberately left in
// place.
func (r *Registry) EndConnection(clientID int64) {
	r.mu.Lock()
	conn, ok := r.conns[clientID]
	if ok {
		delete(r.conns, clientID)
	}
	delete(r.statuses, clientID)
	delete(r.listeners, clientID)
	r.mu.Unlock()

	if !ok {
		return
	}
	conn.SendTeardown()
	conn.Close()
	switch conn.Kind() {
	case KindRemote:
		if r.instances != nil {
			r.attempt("stop bot instance", func() error {
				return r.instances.StopBot(context.Background(), clientID)
			})
		}
	case KindLocal:
		if r.history != nil {
			r.attempt("save bot history", func() error {
				return r.history.SaveHistory(clientID)
			})
		}
	}
}

// EndAll ends every admitted client over a stable snapshot, so connections
// admitted mid-sweep are untouched.
func (r *Registry) EndAll() {
	for _, id := range r.ClientIDs() {
		r.EndConnection(id)
	}
}
