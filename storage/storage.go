// Package storage defines the pluggable persistence contract (spec §4.2)
// that the ledger is built against. Concrete backends live in the
// memstore, sqlstore, jsonlstore, and leveldbstore subpackages.
package storage

import "errors"

// StorageError wraps a backend failure. The ledger propagates it while
// leaving its in-memory indexes consistent.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string { return "storage: " + e.Op + ": " + e.Err.Error() }
func (e *StorageError) Unwrap() error { return e.Err }

var ErrNotFound = errors.New("storage: record not found")

// Record is a single stored value: its kind tag, id, and opaque payload
// bytes (canonical JSON of the domain record).
type Record struct {
	Kind string
	ID   string
	Data []byte
}

// AgentRefs lists the agent-identifying fields a record exposes (as
// subject, witness, principal, delegate, or revoker). The backends do not
// consult it: DeleteByAgent finds records through the ids added under the
// "agent" index.
type AgentRefs interface {
	AgentRefs() []string
}

// Backend is the contract every storage implementation satisfies
// (spec §4.2). All operations must be safe for concurrent readers with a
// single writer.
type Backend interface {
	// Put is an idempotent insert: re-putting the same (kind, id) is a no-op
	// and returns false on the second call, true on first insertion.
	Put(kind, id string, data []byte) (bool, error)
	Get(kind, id string) ([]byte, bool, error)
	Iter(kind string) ([]Record, error)
	DeleteByAgent(agentID string) error

	IndexAdd(kind, indexName, key, id string) error
	IndexLookup(kind, indexName, key string) ([]string, error)

	Close() error
}
