package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"botbridge.gg/internal/persistence/history"
	"botbridge.gg/internal/persistence/indexdb"
	"botbridge.gg/internal/replay"
)

// Inspect saved bot histories: list what the index knows about, or load one
// history directory and answer spawn/despawn and path queries against it.
func main() {
	var (
		dataDir  = flag.String("data", "./data", "runtime data directory")
		list     = flag.Bool("list", false, "list saved histories from the index and exit")
		dir      = flag.String("dir", "", "history directory to load (e.g. ./data/histories/bot_1)")
		clientID = flag.Int64("client", 0, "resolve the newest saved history for this client id")
		tickRate = flag.Int64("tick_rate", 50, "expected spacing between recorded ticks")
		atTick   = flag.Int64("tick", 0, "tick to query (default: last recorded)")
		entityID = flag.Int64("entity", 0, "entity id for the path query (default: all entities)")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[replay] ", log.LstdFlags)

	if *list {
		listHistories(logger, *dataDir, *clientID)
		return
	}

	loadDir := strings.TrimSpace(*dir)
	if loadDir == "" && *clientID > 0 {
		loadDir = resolveHistoryDir(logger, *dataDir, *clientID)
	}
	if loadDir == "" {
		logger.Fatalf("nothing to do: pass -list, -dir, or -client")
	}

	reader := history.NewReader(*tickRate, logger)
	records, err := reader.ReadDir(loadDir)
	if err != nil {
		logger.Fatalf("read %s: %v", loadDir, err)
	}

	store := replay.NewStore(logger)
	store.LoadRecords(records)

	lastTick := records[len(records)-1].Tick
	tick := *atTick
	if tick <= 0 {
		tick = lastTick
	}
	logger.Printf("loaded %d records from %s, ticks %d..%d",
		len(records), loadDir, records[0].Tick, lastTick)

	for _, rec := range store.Records(tick) {
		if *entityID != 0 && rec.EntityID != *entityID {
			continue
		}
		q := store.GetInfoForTick(tick, rec.EntityID)
		presence := "absent"
		if q.Info != nil {
			presence = "present"
		}
		fmt.Printf("entity %d %q type=%s player=%v %s at tick %d (justSpawned=%v justDespawned=%v)\n",
			rec.EntityID, rec.DisplayName, rec.PrimaryType(), rec.IsPlayer,
			presence, tick, q.JustSpawned, q.JustDespawned)

		path := store.GetPathForEntity(tick, rec.EntityID)
		if len(path) > 0 {
			fmt.Printf("  path (%d points): first=%v last=%v\n", len(path), path[0], path[len(path)-1])
		}
	}
}

func listHistories(logger *log.Logger, dataDir string, clientID int64) {
	idx, err := indexdb.OpenSQLite(filepath.Join(dataDir, "index.db"))
	if err != nil {
		logger.Fatalf("open history index: %v", err)
	}
	defer idx.Close()

	rows, err := idx.ListHistories(context.Background(), clientID)
	if err != nil {
		logger.Fatalf("list histories: %v", err)
	}
	if len(rows) == 0 {
		fmt.Println("no saved histories")
		return
	}
	for _, r := range rows {
		fmt.Printf("client %d %q ticks %d..%d saved %s dir=%s\n",
			r.ClientID, r.BotName, r.FirstTick, r.LastTick, r.SavedAt, r.Dir)
	}
}

func resolveHistoryDir(logger *log.Logger, dataDir string, clientID int64) string {
	idx, err := indexdb.OpenSQLite(filepath.Join(dataDir, "index.db"))
	if err != nil {
		logger.Fatalf("open history index: %v", err)
	}
	defer idx.Close()

	rows, err := idx.ListHistories(context.Background(), clientID)
	if err != nil {
		logger.Fatalf("list histories: %v", err)
	}
	if len(rows) == 0 {
		logger.Fatalf("client %d: no saved histories", clientID)
	}
	return rows[0].Dir
}
