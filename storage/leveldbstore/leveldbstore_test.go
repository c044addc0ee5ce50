package leveldbstore

import (
	"path/filepath"
	"testing"
)

func TestPutGetAndDeleteByAgent(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "ldb"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()

	ok, err := s.Put("attestation", "a1", []byte("payload"))
	if err != nil || !ok {
		t.Fatalf("put: ok=%v err=%v", ok, err)
	}
	if err := s.IndexAdd("attestation", "agent", "agent:alice", "a1"); err != nil {
		t.Fatalf("index add: %v", err)
	}
	ids, err := s.IndexLookup("attestation", "agent", "agent:alice")
	if err != nil || len(ids) != 1 {
		t.Fatalf("lookup: ids=%v err=%v", ids, err)
	}
	if err := s.DeleteByAgent("agent:alice"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	_, found, _ := s.Get("attestation", "a1")
	if found {
		t.Fatal("expected record removed after DeleteByAgent")
	}
}
