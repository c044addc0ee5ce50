package sqlstore

import (
	"path/filepath"
	"testing"
)

func TestPutGetRoundTrip(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()

	ok, err := s.Put("attestation", "a1", []byte("payload"))
	if err != nil || !ok {
		t.Fatalf("put: ok=%v err=%v", ok, err)
	}
	ok, err = s.Put("attestation", "a1", []byte("other"))
	if err != nil || ok {
		t.Fatalf("expected idempotent put, got ok=%v err=%v", ok, err)
	}
	data, found, err := s.Get("attestation", "a1")
	if err != nil || !found || string(data) != "payload" {
		t.Fatalf("get: data=%q found=%v err=%v", data, found, err)
	}
}

func TestDeleteByAgent(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()

	s.Put("attestation", "a1", []byte("x"))
	s.IndexAdd("attestation", "agent", "agent:alice", "a1")
	if err := s.DeleteByAgent("agent:alice"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	_, found, _ := s.Get("attestation", "a1")
	if found {
		t.Fatal("expected record removed")
	}
}
