package server

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"botbridge.gg/internal/protocol"
	"botbridge.gg/internal/sim"
)

type Config struct {
	// TickRate is the number of simulation steps between snapshot broadcasts.
	TickRate int
	// StepInterval paces Run's ticker.
	StepInterval time.Duration
	// SessionSecret is the shared secret clients must present at handshake.
	SessionSecret string
}

func (c *Config) applyDefaults() {
	if c.TickRate <= 0 {
		c.TickRate = 50
	}
	if c.StepInterval <= 0 {
		c.StepInterval = 20 * time.Millisecond
	}
}

// Options carries the server's collaborators. Scene is required; everything
// else may be nil and the matching feature degrades to a no-op.
type Options struct {
	Log       *log.Logger
	Scene     *sim.Scene
	Spawner   sim.SpawnManager
	Overlay   *sim.Entity
	Instances InstanceService
	History   HistorySaver
	Recorder  TickDataRecorder

	// AttemptDone is a test seam fired when a best-effort call settles.
	AttemptDone func(name string, err error)
}

// Server owns the simulation thread. Transport goroutines never touch the
// scene directly; every request becomes a task on the owning client's queue
// and runs inside Step. Run drives Step off a ticker; tests call Step by hand.
type Server struct {
	cfg       Config
	log       *log.Logger
	scene     *sim.Scene
	spawner   sim.SpawnManager
	instances InstanceService
	recorder  TickDataRecorder

	registry *Registry
	tasks    *taskQueue
	bindings *Bindings

	tokenMu     sync.Mutex
	serverToken string

	// gameStarted is owned by the simulation thread.
	gameStarted bool

	step          atomic.Int64
	lastStepNanos atomic.Int64

	attemptDone func(name string, err error)
}

func New(cfg Config, opts Options) *Server {
	cfg.applyDefaults()
	logger := opts.Log
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{
		cfg:         cfg,
		log:         logger,
		scene:       opts.Scene,
		spawner:     opts.Spawner,
		instances:   opts.Instances,
		recorder:    opts.Recorder,
		tasks:       newTaskQueue(),
		bindings:    NewBindings(opts.Overlay),
		serverToken: uuid.NewString(),
		attemptDone: opts.AttemptDone,
	}
	s.registry = newRegistry(logger, s.Enqueue, s.attempt)
	s.registry.instances = opts.Instances
	s.registry.history = opts.History
	return s
}

// SetSpawner installs the spawn manager. Spawn managers usually need the
// server as their Binder, so they attach after construction, before Run.
func (s *Server) SetSpawner(sp sim.SpawnManager) { s.spawner = sp }

func (s *Server) Registry() *Registry { return s.registry }
func (s *Server) Bindings() *Bindings { return s.bindings }
func (s *Server) Scene() *sim.Scene   { return s.scene }

// CurrentTick is the count of completed simulation steps.
func (s *Server) CurrentTick() int64 { return s.step.Load() }

// ServerToken is the per-run credential handed to clients at handshake; every
// later client message must echo it.
func (s *Server) ServerToken() string {
	s.tokenMu.Lock()
	defer s.tokenMu.Unlock()
	return s.serverToken
}

func (s *Server) rotateServerToken() {
	s.tokenMu.Lock()
	s.serverToken = uuid.NewString()
	s.tokenMu.Unlock()
}

// ValidateToken checks a client message credential, logging rejects.
func (s *Server) ValidateToken(clientID int64, token string) bool {
	if token == s.ServerToken() {
		return true
	}
	warnf(s.log, "client %d: rejected message with bad token", clientID)
	return false
}

// Enqueue schedules task on clientID's queue for the next Step.
func (s *Server) Enqueue(clientID int64, task func()) {
	s.tasks.Enqueue(clientID, task)
}

func (s *Server) attempt(name string, fn func() error) {
	bestEffort(s.log, name, fn, s.attemptDone)
}

// AdmitLocal registers an in-process bot and returns its connection together
// with the stream the runtime reads server messages from.
func (s *Server) AdmitLocal(clientID int64) (Connection, <-chan protocol.ServerMessage) {
	conn := s.registry.AddConnection(clientID, KindLocal)
	s.registry.SetStatus(clientID, StatusConnecting)
	lc, ok := conn.(*localConnection)
	if !ok {
		// Same id previously admitted as remote; caller keeps that record.
		return conn, nil
	}
	return conn, lc.Out()
}

// AdmitRemote registers a socket-backed bot and binds its transport. Re-used
// ids rebind the transport on the existing record.
func (s *Server) AdmitRemote(clientID int64, tr Transport) Connection {
	conn := s.registry.AddConnection(clientID, KindRemote)
	if rc, ok := conn.(*remoteConnection); ok {
		rc.BindTransport(tr)
	}
	s.registry.SetStatus(clientID, StatusConnecting)
	return conn
}

// BindEntity satisfies sim.Binder: spawn managers report seat results here on
// the simulation thread.
func (s *Server) BindEntity(clientID int64, e *sim.Entity) {
	s.bindings.BindEntity(clientID, e)
}

// StartGame resets any previous run, marks the game started, and kicks off
// the given remote bots. The work runs on the simulation thread.
func (s *Server) StartGame(remoteBotIDs ...int64) {
	s.tasks.Enqueue(GlobalTasksClientID, func() { s.startGame(remoteBotIDs) })
}

func (s *Server) startGame(botIDs []int64) {
	s.stopGame()
	s.gameStarted = true
	s.log.Printf("game started, launching %d remote bots", len(botIDs))
	for _, botID := range botIDs {
		botID := botID
		s.registry.AddConnection(botID, KindRemote)
		s.registry.SetStatus(botID, StatusConnecting)
		if s.instances != nil {
			s.attempt("start bot instance", func() error {
				_, err := s.instances.StartBot(context.Background(), botID)
				return err
			})
		}
	}
}

// StopGame ends the run on the simulation thread: managed bots are torn down,
// persistent ones stay, seats and spawn bookkeeping reset, the validation
// ledger clears, and the server token rotates so stale clients cannot speak
// into the next run.
func (s *Server) StopGame() {
	s.tasks.Enqueue(GlobalTasksClientID, func() { s.stopGame() })
}

func (s *Server) stopGame() {
	s.gameStarted = false
	for _, clientID := range s.registry.ClientIDs() {
		conn := s.registry.Get(clientID)
		if conn != nil && conn.Lifecycle() == protocol.LifecyclePersistent {
			continue
		}
		s.teardownClient(clientID)
	}
	if s.spawner != nil {
		s.spawner.StopGame()
	}
	s.registry.ClearValidations()
	s.rotateServerToken()
}

// TeardownClient marks the bot TEARING_DOWN immediately and queues the
// actual removal for the simulation thread.
func (s *Server) TeardownClient(clientID int64) {
	s.registry.SetStatus(clientID, StatusTearingDown)
	s.tasks.Enqueue(clientID, func() { s.teardownClient(clientID) })
}

// TeardownAll marks every admitted bot TEARING_DOWN and queues one sweep.
func (s *Server) TeardownAll() {
	ids := s.registry.ClientIDs()
	for _, clientID := range ids {
		s.registry.SetStatus(clientID, StatusTearingDown)
	}
	s.tasks.Enqueue(GlobalTasksClientID, func() {
		for _, clientID := range ids {
			s.teardownClient(clientID)
		}
	})
}

func (s *Server) teardownClient(clientID int64) {
	if s.spawner != nil {
		s.spawner.TeardownBot(clientID)
	}
	s.registry.EndConnection(clientID)
	s.bindings.Remove(clientID)
	s.tasks.Remove(clientID)
}

// Step runs one simulation frame: at most one queued task per client, a
// late-join spawn sweep when a game is live, then a snapshot broadcast every
// TickRate steps.
func (s *Server) Step() {
	start := time.Now()
	s.tasks.DrainOne(func(clientID int64, recovered any) {
		s.log.Printf("ERROR: client %d task panicked: %v", clientID, recovered)
	})
	if s.gameStarted && s.spawner != nil {
		s.spawner.SpawnBots(true)
	}
	tick := s.step.Add(1)
	if tick%int64(s.cfg.TickRate) == 0 {
		s.broadcast(tick)
	}
	s.lastStepNanos.Store(time.Since(start).Nanoseconds())
}

// Run drives Step until ctx is done, then ends every connection.
func (s *Server) Run(ctx context.Context) {
	s.log.Printf("simulation loop started: step %v, broadcast every %d steps",
		s.cfg.StepInterval, s.cfg.TickRate)
	ticker := time.NewTicker(s.cfg.StepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.log.Printf("simulation loop stopping: %v", ctx.Err())
			s.registry.EndAll()
			return
		case <-ticker.C:
			s.Step()
		}
	}
}

// Metrics is a point-in-time snapshot for the metrics endpoint.
type Metrics struct {
	Tick          int64
	Clients       int
	PendingTasks  int
	LastStepNanos int64
}

func (s *Server) Metrics() Metrics {
	return Metrics{
		Tick:          s.step.Load(),
		Clients:       len(s.registry.ClientIDs()),
		PendingTasks:  s.tasks.Depth(),
		LastStepNanos: s.lastStepNanos.Load(),
	}
}
