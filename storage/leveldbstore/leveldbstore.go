// Package leveldbstore is an optional durable storage.Backend wrapping
// github.com/syndtr/goleveldb, for operators who want an embedded KV store
// without a SQL schema. Directly adapted from the teacher's
// storage.LevelDB (storage/db.go), generalized from a single flat
// key space to the kind/id/index shape storage.Backend requires.
package leveldbstore

import (
	"bytes"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"

	"isnad/storage"
)

// Store wraps a goleveldb database. Keys are composed as
// "<prefix>\x00<kind>\x00<rest>" so kind-scoped iteration can use a prefix
// range scan.
type Store struct {
	db *leveldb.DB
}

func Open(path string) (*Store, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

const (
	sep          = "\x00"
	prefixRecord = "r"
	prefixIndex  = "i"
	prefixAgent  = "a"
)

func recordKey(kind, id string) []byte {
	return []byte(prefixRecord + sep + kind + sep + id)
}

func indexKey(kind, indexName, key, id string) []byte {
	return []byte(prefixIndex + sep + kind + sep + indexName + sep + key + sep + id)
}

func agentKey(agentID, kind, id string) []byte {
	return []byte(prefixAgent + sep + agentID + sep + kind + sep + id)
}

func (s *Store) Put(kind, id string, data []byte) (bool, error) {
	key := recordKey(kind, id)
	if _, err := s.db.Get(key, nil); err == nil {
		return false, nil
	} else if err != leveldb.ErrNotFound {
		return false, &storage.StorageError{Op: "put", Err: err}
	}
	if err := s.db.Put(key, data, nil); err != nil {
		return false, &storage.StorageError{Op: "put", Err: err}
	}
	return true, nil
}

func (s *Store) Get(kind, id string) ([]byte, bool, error) {
	data, err := s.db.Get(recordKey(kind, id), nil)
	if err == leveldb.ErrNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, &storage.StorageError{Op: "get", Err: err}
	}
	return data, true, nil
}

func (s *Store) Iter(kind string) ([]storage.Record, error) {
	prefix := []byte(prefixRecord + sep + kind + sep)
	iter := s.db.NewIterator(util.BytesPrefix(prefix), nil)
	defer iter.Release()
	var out []storage.Record
	for iter.Next() {
		id := bytes.TrimPrefix(iter.Key(), prefix)
		data := make([]byte, len(iter.Value()))
		copy(data, iter.Value())
		out = append(out, storage.Record{Kind: kind, ID: string(id), Data: data})
	}
	return out, iter.Error()
}

func (s *Store) IndexAdd(kind, indexName, key, id string) error {
	if err := s.db.Put(indexKey(kind, indexName, key, id), []byte{1}, nil); err != nil {
		return &storage.StorageError{Op: "index_add", Err: err}
	}
	if indexName == "agent" {
		if err := s.db.Put(agentKey(key, kind, id), []byte{1}, nil); err != nil {
			return &storage.StorageError{Op: "index_add", Err: err}
		}
	}
	return nil
}

func (s *Store) IndexLookup(kind, indexName, key string) ([]string, error) {
	prefix := []byte(prefixIndex + sep + kind + sep + indexName + sep + key + sep)
	iter := s.db.NewIterator(util.BytesPrefix(prefix), nil)
	defer iter.Release()
	var ids []string
	for iter.Next() {
		ids = append(ids, string(bytes.TrimPrefix(iter.Key(), prefix)))
	}
	return ids, iter.Error()
}

func (s *Store) DeleteByAgent(agentID string) error {
	prefix := []byte(prefixAgent + sep + agentID + sep)
	iter := s.db.NewIterator(util.BytesPrefix(prefix), nil)
	defer iter.Release()
	batch := new(leveldb.Batch)
	for iter.Next() {
		rest := bytes.TrimPrefix(iter.Key(), prefix)
		parts := bytes.SplitN(rest, []byte(sep), 2)
		if len(parts) != 2 {
			continue
		}
		batch.Delete(recordKey(string(parts[0]), string(parts[1])))
		batch.Delete(append([]byte{}, iter.Key()...))
	}
	if err := iter.Error(); err != nil {
		return &storage.StorageError{Op: "delete_by_agent", Err: err}
	}
	if err := s.db.Write(batch, nil); err != nil {
		return &storage.StorageError{Op: "delete_by_agent", Err: err}
	}
	return nil
}

func (s *Store) Close() error { return s.db.Close() }
