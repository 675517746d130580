package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	s, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if s.TickRate != 50 || s.StepMs != 20 || s.ListenAddr != ":8085" {
		t.Fatalf("unexpected defaults: %+v", s)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.yaml")
	body := []byte("listen_addr: \":9000\"\ntick_rate: 10\nscene_id: \"arena\"\n")
	if err := os.WriteFile(path, body, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	s, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if s.ListenAddr != ":9000" || s.TickRate != 10 || s.SceneID != "arena" {
		t.Fatalf("overrides not applied: %+v", s)
	}
	if s.StepMs != 20 {
		t.Fatalf("untouched fields should keep defaults: %+v", s)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.yaml")
	if err := os.WriteFile(path, []byte("tick_rate: -1\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("negative tick_rate should fail validation")
	}
}
