package history

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"

	"botbridge.gg/internal/persistence/indexdb"
	"botbridge.gg/internal/protocol"
)

// TickRecord is one tick of one client's activity as written to disk.
type TickRecord struct {
	Tick        int64                           `json:"tick"`
	ClientID    int64                           `json:"clientId"`
	SceneID     string                          `json:"sceneId,omitempty"`
	Entities    map[string]protocol.EntityState `json:"entities,omitempty"`
	Actions     []protocol.ActionRequest        `json:"actions,omitempty"`
	Validations []protocol.ValidationResult     `json:"validations,omitempty"`
}

type clientSpan struct {
	botName   string
	firstTick int64
	lastTick  int64
	wrote     bool
}

// Recorder writes one compressed record per client per tick under
// baseDir/bot_<clientId>/tick_<N>.json.zst and, on SaveHistory, registers the
// finished span with the index. The index may be nil.
type Recorder struct {
	log     *log.Logger
	baseDir string
	index   *indexdb.SQLiteIndex

	mu    sync.Mutex
	spans map[int64]*clientSpan
}

func NewRecorder(baseDir string, index *indexdb.SQLiteIndex, logger *log.Logger) *Recorder {
	if logger == nil {
		logger = log.Default()
	}
	return &Recorder{
		log:     logger,
		baseDir: baseDir,
		index:   index,
		spans:   map[int64]*clientSpan{},
	}
}

// ClientDir is where one client's tick records live.
func (r *Recorder) ClientDir(clientID int64) string {
	return filepath.Join(r.baseDir, fmt.Sprintf("bot_%d", clientID))
}

// SetBotName records the display name stored alongside the history index row.
func (r *Recorder) SetBotName(clientID int64, name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.span(clientID).botName = name
}

func (r *Recorder) span(clientID int64) *clientSpan {
	sp, ok := r.spans[clientID]
	if !ok {
		sp = &clientSpan{}
		r.spans[clientID] = sp
	}
	return sp
}

// RecordTickData persists one tick's snapshot plus the client's actions and
// validations for it.
func (r *Recorder) RecordTickData(clientID int64, ti *protocol.TickInfo, actions []protocol.ActionRequest, validations []protocol.ValidationResult) error {
	if ti == nil {
		return fmt.Errorf("nil tick info")
	}
	rec := TickRecord{
		Tick:        ti.Tick,
		ClientID:    clientID,
		SceneID:     ti.SceneID,
		Entities:    ti.Entities,
		Actions:     actions,
		Validations: validations,
	}
	dir := r.ClientDir(clientID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	path := filepath.Join(dir, fmt.Sprintf("tick_%d.json.zst", ti.Tick))
	if err := writeRecord(path, rec); err != nil {
		return err
	}

	r.mu.Lock()
	sp := r.span(clientID)
	if !sp.wrote || ti.Tick < sp.firstTick {
		sp.firstTick = ti.Tick
	}
	if ti.Tick > sp.lastTick {
		sp.lastTick = ti.Tick
	}
	sp.wrote = true
	r.mu.Unlock()
	return nil
}

// SaveHistory finalizes the client's recorded span and registers it with the
// index. The span resets so a reconnecting client starts a fresh history.
func (r *Recorder) SaveHistory(clientID int64) error {
	r.mu.Lock()
	sp, ok := r.spans[clientID]
	if ok {
		delete(r.spans, clientID)
	}
	r.mu.Unlock()

	if !ok || !sp.wrote {
		return fmt.Errorf("client %d: no recorded ticks", clientID)
	}
	row := indexdb.HistoryRow{
		ClientID:  clientID,
		BotName:   sp.botName,
		FirstTick: sp.firstTick,
		LastTick:  sp.lastTick,
		Dir:       r.ClientDir(clientID),
		SavedAt:   time.Now().UTC().Format(time.RFC3339Nano),
	}
	if r.index != nil {
		r.index.RecordHistory(row)
	}
	r.log.Printf("client %d: history saved, ticks %d..%d in %s",
		clientID, sp.firstTick, sp.lastTick, row.Dir)
	return nil
}

func writeRecord(path string, rec TickRecord) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return err
	}
	if err := json.NewEncoder(enc).Encode(rec); err != nil {
		_ = enc.Close()
		_ = f.Close()
		return err
	}
	if err := enc.Close(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
