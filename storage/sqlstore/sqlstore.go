// Package sqlstore is the embedded relational storage.Backend (spec §4.2,
// §6 "Relational backend"), backed by modernc.org/sqlite via database/sql.
// Grounded on the teacher's services/escrow-gateway/storage.go: plain
// CREATE TABLE IF NOT EXISTS schema strings executed in an init step, no
// ORM.
package sqlstore

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"isnad/storage"
)

// Store is a single-file SQLite-backed storage.Backend. Tables are generic
// across record kinds: `records`, `record_index`, and `agent_index` cover
// the full set named in spec §6 (agents, attestations, certifications,
// api_keys, trust_checks, platform_data are all stored as kind-tagged rows
// of `records`, matching the kind-agnostic storage.Backend contract).
type Store struct {
	db *sql.DB
}

func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1) // single-writer model; avoids sqlite lock contention
	s := &Store{db: db}
	if err := s.init(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) init() error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS records (
			kind TEXT NOT NULL,
			id TEXT NOT NULL,
			data BLOB NOT NULL,
			PRIMARY KEY(kind, id)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_records_kind ON records(kind);`,
		`CREATE TABLE IF NOT EXISTS record_index (
			kind TEXT NOT NULL,
			index_name TEXT NOT NULL,
			key TEXT NOT NULL,
			id TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_record_index_lookup ON record_index(kind, index_name, key);`,
		`CREATE TABLE IF NOT EXISTS agent_index (
			agent_id TEXT NOT NULL,
			kind TEXT NOT NULL,
			id TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_agent_index_agent ON agent_index(agent_id);`,
	}
	for _, stmt := range schema {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("sqlstore: init: %w", err)
		}
	}
	return nil
}

func (s *Store) Put(kind, id string, data []byte) (bool, error) {
	var exists int
	if err := s.db.QueryRow(`SELECT 1 FROM records WHERE kind=? AND id=?`, kind, id).Scan(&exists); err == nil {
		return false, nil
	} else if err != sql.ErrNoRows {
		return false, &storage.StorageError{Op: "put", Err: err}
	}
	if _, err := s.db.Exec(`INSERT INTO records(kind, id, data) VALUES (?, ?, ?)`, kind, id, data); err != nil {
		return false, &storage.StorageError{Op: "put", Err: err}
	}
	return true, nil
}

func (s *Store) Get(kind, id string) ([]byte, bool, error) {
	var data []byte
	err := s.db.QueryRow(`SELECT data FROM records WHERE kind=? AND id=?`, kind, id).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, &storage.StorageError{Op: "get", Err: err}
	}
	return data, true, nil
}

func (s *Store) Iter(kind string) ([]storage.Record, error) {
	rows, err := s.db.Query(`SELECT id, data FROM records WHERE kind=?`, kind)
	if err != nil {
		return nil, &storage.StorageError{Op: "iter", Err: err}
	}
	defer rows.Close()
	var out []storage.Record
	for rows.Next() {
		var id string
		var data []byte
		if err := rows.Scan(&id, &data); err != nil {
			return nil, &storage.StorageError{Op: "iter", Err: err}
		}
		out = append(out, storage.Record{Kind: kind, ID: id, Data: data})
	}
	return out, rows.Err()
}

func (s *Store) IndexAdd(kind, indexName, key, id string) error {
	if _, err := s.db.Exec(`INSERT INTO record_index(kind, index_name, key, id) VALUES (?, ?, ?, ?)`, kind, indexName, key, id); err != nil {
		return &storage.StorageError{Op: "index_add", Err: err}
	}
	if indexName == "agent" {
		if _, err := s.db.Exec(`INSERT INTO agent_index(agent_id, kind, id) VALUES (?, ?, ?)`, key, kind, id); err != nil {
			return &storage.StorageError{Op: "index_add", Err: err}
		}
	}
	return nil
}

func (s *Store) IndexLookup(kind, indexName, key string) ([]string, error) {
	rows, err := s.db.Query(`SELECT id FROM record_index WHERE kind=? AND index_name=? AND key=?`, kind, indexName, key)
	if err != nil {
		return nil, &storage.StorageError{Op: "index_lookup", Err: err}
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, &storage.StorageError{Op: "index_lookup", Err: err}
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *Store) DeleteByAgent(agentID string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return &storage.StorageError{Op: "delete_by_agent", Err: err}
	}
	defer tx.Rollback()

	rows, err := tx.Query(`SELECT kind, id FROM agent_index WHERE agent_id=?`, agentID)
	if err != nil {
		return &storage.StorageError{Op: "delete_by_agent", Err: err}
	}
	type ref struct{ kind, id string }
	var refs []ref
	for rows.Next() {
		var r ref
		if err := rows.Scan(&r.kind, &r.id); err != nil {
			rows.Close()
			return &storage.StorageError{Op: "delete_by_agent", Err: err}
		}
		refs = append(refs, r)
	}
	rows.Close()

	for _, r := range refs {
		if _, err := tx.Exec(`DELETE FROM records WHERE kind=? AND id=?`, r.kind, r.id); err != nil {
			return &storage.StorageError{Op: "delete_by_agent", Err: err}
		}
	}
	if _, err := tx.Exec(`DELETE FROM agent_index WHERE agent_id=?`, agentID); err != nil {
		return &storage.StorageError{Op: "delete_by_agent", Err: err}
	}
	return tx.Commit()
}

func (s *Store) Close() error { return s.db.Close() }
