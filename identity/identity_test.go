package identity

import (
	"os"
	"path/filepath"
	"testing"
)

func TestExportLoadRoundTrip(t *testing.T) {
	id, err := New()
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	path := filepath.Join(t.TempDir(), "id.json")
	if err := id.Export(path); err != nil {
		t.Fatalf("export: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.AgentID != id.AgentID {
		t.Fatalf("agent id mismatch: %s != %s", loaded.AgentID, id.AgentID)
	}
	if loaded.PublicKeyHex() != id.PublicKeyHex() {
		t.Fatal("public key mismatch after round trip")
	}
}

func TestLoadRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte("not json"), 0600); err != nil {
		t.Fatalf("setup: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected error loading corrupt identity file")
	}
}
