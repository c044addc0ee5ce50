// Package jsonlstore is the append-only JSONL storage.Backend (spec §4.2,
// §6 "Ledger file"): one record per line, each line tagged with its kind;
// deletions are append-only tombstones. Grounded on the teacher's
// append-and-replay durability idiom (storage.LevelDB), translated to a
// flat file since an embedded KV library is unnecessary for a portable,
// inspectable log format.
package jsonlstore

import (
	"bufio"
	"encoding/json"
	"os"
	"sync"

	"isnad/storage"
)

type lineKind string

const (
	lineKindPut       lineKind = "put"
	lineKindIndex     lineKind = "index"
	lineKindTombstone lineKind = "tombstone"
)

type line struct {
	Line      lineKind        `json:"line"`
	Kind      string          `json:"kind"`
	ID        string          `json:"id,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
	IndexName string          `json:"index_name,omitempty"`
	Key       string          `json:"key,omitempty"`
	AgentID   string          `json:"agent_id,omitempty"`
}

// Store is a crash-safe append-only log backend. In-memory indexes are
// rebuilt from the log on open; every mutation is fsynced before the call
// returns, so a partially written record is either fully present or absent
// after restart.
type Store struct {
	mu      sync.Mutex
	file    *os.File
	records map[string]map[string][]byte
	indexes map[string]map[string]map[string][]string
	agentIx map[string][]struct{ kind, id string }
	tomb    map[string]bool
}

// Open opens (creating if absent) the log file at path and replays it.
func Open(path string) (*Store, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0600)
	if err != nil {
		return nil, err
	}
	s := &Store{
		file:    f,
		records: make(map[string]map[string][]byte),
		indexes: make(map[string]map[string]map[string][]string),
		agentIx: make(map[string][]struct{ kind, id string }),
		tomb:    make(map[string]bool),
	}
	if err := s.replay(); err != nil {
		f.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) replay() error {
	if _, err := s.file.Seek(0, 0); err != nil {
		return err
	}
	scanner := bufio.NewScanner(s.file)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		var l line
		if err := json.Unmarshal(raw, &l); err != nil {
			continue // tolerate a truncated last line from a prior crash
		}
		switch l.Line {
		case lineKindPut:
			byID, ok := s.records[l.Kind]
			if !ok {
				byID = make(map[string][]byte)
				s.records[l.Kind] = byID
			}
			if _, exists := byID[l.ID]; !exists {
				byID[l.ID] = []byte(l.Data)
			}
		case lineKindIndex:
			byIndex, ok := s.indexes[l.Kind]
			if !ok {
				byIndex = make(map[string]map[string][]string)
				s.indexes[l.Kind] = byIndex
			}
			byKey, ok := byIndex[l.IndexName]
			if !ok {
				byKey = make(map[string][]string)
				byIndex[l.IndexName] = byKey
			}
			byKey[l.Key] = append(byKey[l.Key], l.ID)
			if l.IndexName == "agent" {
				s.agentIx[l.Key] = append(s.agentIx[l.Key], struct{ kind, id string }{l.Kind, l.ID})
			}
		case lineKindTombstone:
			for _, r := range s.agentIx[l.AgentID] {
				if byID, ok := s.records[r.kind]; ok {
					delete(byID, r.id)
				}
			}
			delete(s.agentIx, l.AgentID)
			s.tomb[l.AgentID] = true
		}
	}
	return scanner.Err()
}

func (s *Store) append(l line) error {
	data, err := json.Marshal(l)
	if err != nil {
		return err
	}
	data = append(data, '\n')
	if _, err := s.file.Write(data); err != nil {
		return err
	}
	return s.file.Sync()
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
	if err := s.append(line{Line: lineKindPut, Kind: kind, ID: id, Data: json.RawMessage(data)}); err != nil {
		return false, &storage.StorageError{Op: "put", Err: err}
	}
	byID[id] = data
	return true, nil
}

func (s *Store) Get(kind, id string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	byID, ok := s.records[kind]
	if !ok {
		return nil, false, nil
	}
	data, ok := byID[id]
	return data, ok, nil
}

func (s *Store) Iter(kind string) ([]storage.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
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
	if err := s.append(line{Line: lineKindIndex, Kind: kind, IndexName: indexName, Key: key, ID: id}); err != nil {
		return &storage.StorageError{Op: "index_add", Err: err}
	}
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
		s.agentIx[key] = append(s.agentIx[key], struct{ kind, id string }{kind, id})
	}
	return nil
}

func (s *Store) IndexLookup(kind, indexName, key string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
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

// DeleteByAgent appends a tombstone and removes in-memory entries. The
// tombstone line is retained so the deletion survives replay.
func (s *Store) DeleteByAgent(agentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.append(line{Line: lineKindTombstone, AgentID: agentID}); err != nil {
		return &storage.StorageError{Op: "delete_by_agent", Err: err}
	}
	refs := s.agentIx[agentID]
	for _, r := range refs {
		if byID, ok := s.records[r.kind]; ok {
			delete(byID, r.id)
		}
	}
	delete(s.agentIx, agentID)
	s.tomb[agentID] = true
	return nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.file.Close()
}
