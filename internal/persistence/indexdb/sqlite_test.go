package indexdb

import (
	"context"
	"path/filepath"
	"testing"
)

func TestRecordAndListHistories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.db")

	idx, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	idx.RecordHistory(HistoryRow{
		ClientID: 1, BotName: "walker-1", FirstTick: 50, LastTick: 500,
		Dir: "/data/histories/bot_1", SavedAt: "2026-01-01T00:00:00Z",
	})
	idx.RecordHistory(HistoryRow{
		ClientID: 2, BotName: "menu-2", FirstTick: 50, LastTick: 100,
		Dir: "/data/histories/bot_2", SavedAt: "2026-01-02T00:00:00Z",
	})
	// Close drains the writer, so a reopen sees both rows.
	if err := idx.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	idx, err = OpenSQLite(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer idx.Close()

	rows, err := idx.ListHistories(context.Background(), 0)
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("listed %d rows, want 2", len(rows))
	}
	if rows[0].ClientID != 2 {
		t.Fatalf("rows not ordered most recent first: %+v", rows)
	}

	rows, err = idx.ListHistories(context.Background(), 1)
	if err != nil {
		t.Fatalf("list client 1: %v", err)
	}
	if len(rows) != 1 || rows[0].BotName != "walker-1" || rows[0].LastTick != 500 {
		t.Fatalf("client filter returned %+v", rows)
	}
}

func TestRecordAfterCloseIsIgnored(t *testing.T) {
	idx, err := OpenSQLite(filepath.Join(t.TempDir(), "index.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := idx.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	// Must not panic on the closed channel.
	idx.RecordHistory(HistoryRow{ClientID: 1})
}
