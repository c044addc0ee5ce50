// Package memstore is the in-memory storage.Backend implementation, used in
// tests and as the default for short-lived processes. Grounded on the
// teacher's storage.MemDB (map + sync.RWMutex).
package memstore

import (
	"sync"

	"isnad/storage"
)

type ref struct{ kind, id string }

// Store is a map-backed storage.Backend. Not durable across restarts by
// design — callers needing durability use sqlstore or jsonlstore.
type Store struct {
	mu      sync.RWMutex
	records map[string]map[string][]byte        // kind -> id -> data
	indexes map[string]map[string]map[string][]string // kind -> indexName -> key -> ids
	agentIx map[string][]ref                     // agentID -> records referencing it
}

func New() *Store {
	return &Store{
		records: make(map[string]map[string][]byte),
		indexes: make(map[string]map[string]map[string][]string),
		agentIx: make(map[string][]ref),
	}
}

func (s *Store) Put(kind, id string, data []byte) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	byID, ok := s.records[kind]
	if !ok {
		byID = make(map[string][]byte)
		s.records[kind] = byID
	}
	if _, exists := byID[id]; exists {
		return false, nil
	}
	byID[id] = data
	return true, nil
}

func (s *Store) Get(kind, id string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	byID, ok := s.records[kind]
	if !ok {
		return nil, false, nil
	}
	data, ok := byID[id]
	return data, ok, nil
}

func (s *Store) Iter(kind string) ([]storage.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	byID := s.records[kind]
	out := make([]storage.Record, 0, len(byID))
	for id, data := range byID {
		out = append(out, storage.Record{Kind: kind, ID: id, Data: data})
	}
	return out, nil
}

func (s *Store) IndexAdd(kind, indexName, key, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	byIndex, ok := s.indexes[kind]
	if !ok {
		byIndex = make(map[string]map[string][]string)
		s.indexes[kind] = byIndex
	}
	byKey, ok := byIndex[indexName]
	if !ok {
		byKey = make(map[string][]string)
		byIndex[indexName] = byKey
	}
	byKey[key] = append(byKey[key], id)
	if indexName == "agent" {
		s.agentIx[key] = append(s.agentIx[key], ref{kind: kind, id: id})
	}
	return nil
}

func (s *Store) IndexLookup(kind, indexName, key string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	byIndex, ok := s.indexes[kind]
	if !ok {
		return nil, nil
	}
	byKey, ok := byIndex[indexName]
	if !ok {
		return nil, nil
	}
	out := make([]string, len(byKey[key]))
	copy(out, byKey[key])
	return out, nil
}

// DeleteByAgent removes every record referencing agentID via an "agent"
// index entry (spec §4.2 erasure operation).
func (s *Store) DeleteByAgent(agentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	refs := s.agentIx[agentID]
	for _, r := range refs {
		if byID, ok := s.records[r.kind]; ok {
			delete(byID, r.id)
		}
	}
	delete(s.agentIx, agentID)
	return nil
}

func (s *Store) Close() error { return nil }
