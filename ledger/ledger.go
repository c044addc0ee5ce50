// Package ledger is the append-only attestation store (spec §4.3, C7): at-
// most-once admission, secondary indexes by subject and witness, and a
// revocation-aware admission pipeline. It is storage-agnostic — callers
// inject any storage.Backend implementation.
package ledger

import (
	"encoding/json"
	"sync"

	"isnad/attestation"
	"isnad/keyrotation"
	"isnad/revocation"
	"isnad/storage"
)

const (
	kindAttestation = "attestation"
	kindRevocation  = "revocation"
	kindKeyRotation = "keyrotation"
	idxBySubject    = "by_subject"
	idxByWitness    = "by_witness"
	idxByTarget     = "by_target"
	idxByOldKey     = "by_old_key"
)

// Ledger is the single-writer, many-reader attestation store.
type Ledger struct {
	mu      sync.RWMutex
	backend storage.Backend
}

func New(backend storage.Backend) *Ledger {
	return &Ledger{backend: backend}
}

// Add runs the admission pipeline from spec §4.3 and returns whether the
// attestation was newly inserted. It never returns an error for rejection
// reasons (invalid signature, revoked target, duplicate) — only a true
// storage failure is surfaced as an error.
func (l *Ledger) Add(att *attestation.Attestation) (bool, error) {
	if err := att.Verify(); err != nil {
		return false, nil
	}
	if l.isRevokedLocked(att.AttestationID, "") || l.isRevokedLocked(att.Subject, "") {
		return false, nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	data, err := json.Marshal(att)
	if err != nil {
		return false, &storage.StorageError{Op: "marshal", Err: err}
	}
	inserted, err := l.backend.Put(kindAttestation, att.AttestationID, data)
	if err != nil {
		return false, err
	}
	if !inserted {
		return false, nil
	}
	if err := l.backend.IndexAdd(kindAttestation, idxBySubject, att.Subject, att.AttestationID); err != nil {
		return false, err
	}
	if err := l.backend.IndexAdd(kindAttestation, idxByWitness, att.Witness, att.AttestationID); err != nil {
		return false, err
	}
	if err := l.backend.IndexAdd(kindAttestation, "agent", att.Subject, att.AttestationID); err != nil {
		return false, err
	}
	if err := l.backend.IndexAdd(kindAttestation, "agent", att.Witness, att.AttestationID); err != nil {
		return false, err
	}
	return true, nil
}

// Get returns a single attestation by id.
func (l *Ledger) Get(id string) (*attestation.Attestation, bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	data, found, err := l.backend.Get(kindAttestation, id)
	if err != nil || !found {
		return nil, found, err
	}
	var att attestation.Attestation
	if err := json.Unmarshal(data, &att); err != nil {
		return nil, false, &storage.StorageError{Op: "unmarshal", Err: err}
	}
	return &att, true, nil
}

// BySubject returns all attestations where agentID is the subject, in
// insertion order.
func (l *Ledger) BySubject(agentID string) ([]*attestation.Attestation, error) {
	return l.byIndex(idxBySubject, agentID)
}

// ByWitness returns all attestations where agentID is the witness.
func (l *Ledger) ByWitness(agentID string) ([]*attestation.Attestation, error) {
	return l.byIndex(idxByWitness, agentID)
}

func (l *Ledger) byIndex(indexName, key string) ([]*attestation.Attestation, error) {
	l.mu.RLock()
	ids, err := l.backend.IndexLookup(kindAttestation, indexName, key)
	l.mu.RUnlock()
	if err != nil {
		return nil, err
	}
	out := make([]*attestation.Attestation, 0, len(ids))
	for _, id := range ids {
		att, found, err := l.Get(id)
		if err != nil {
			return nil, err
		}
		if found {
			out = append(out, att)
		}
	}
	return out, nil
}

// All returns every admitted attestation.
func (l *Ledger) All() ([]*attestation.Attestation, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	records, err := l.backend.Iter(kindAttestation)
	if err != nil {
		return nil, err
	}
	out := make([]*attestation.Attestation, 0, len(records))
	for _, rec := range records {
		var att attestation.Attestation
		if err := json.Unmarshal(rec.Data, &att); err != nil {
			continue
		}
		out = append(out, &att)
	}
	return out, nil
}

// AddRevocation verifies and persists a revocation record.
func (l *Ledger) AddRevocation(r *revocation.Revocation) (bool, error) {
	if err := r.Verify(); err != nil {
		return false, nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	data, err := json.Marshal(r)
	if err != nil {
		return false, &storage.StorageError{Op: "marshal", Err: err}
	}
	inserted, err := l.backend.Put(kindRevocation, r.RevocationID, data)
	if err != nil {
		return false, err
	}
	if !inserted {
		return false, nil
	}
	if err := l.backend.IndexAdd(kindRevocation, idxByTarget, r.TargetID, r.RevocationID); err != nil {
		return false, err
	}
	if err := l.backend.IndexAdd(kindRevocation, "agent", r.TargetID, r.RevocationID); err != nil {
		return false, err
	}
	if err := l.backend.IndexAdd(kindRevocation, "agent", r.RevokedBy, r.RevocationID); err != nil {
		return false, err
	}
	return true, nil
}

// RevocationsFor returns all revocations recorded against targetID.
func (l *Ledger) RevocationsFor(targetID string) ([]*revocation.Revocation, error) {
	l.mu.RLock()
	ids, err := l.backend.IndexLookup(kindRevocation, idxByTarget, targetID)
	l.mu.RUnlock()
	if err != nil {
		return nil, err
	}
	out := make([]*revocation.Revocation, 0, len(ids))
	for _, id := range ids {
		l.mu.RLock()
		data, found, err := l.backend.Get(kindRevocation, id)
		l.mu.RUnlock()
		if err != nil {
			return nil, err
		}
		if !found {
			continue
		}
		var r revocation.Revocation
		if err := json.Unmarshal(data, &r); err != nil {
			continue
		}
		out = append(out, &r)
	}
	return out, nil
}

// IsRevoked reports whether targetID is revoked, either globally or for the
// given scope (empty scope checks global revocation only).
func (l *Ledger) IsRevoked(targetID, scope string) bool {
	return l.isRevokedLocked(targetID, scope)
}

func (l *Ledger) isRevokedLocked(targetID, scope string) bool {
	revs, err := l.RevocationsFor(targetID)
	if err != nil {
		return false
	}
	for _, r := range revs {
		if r.IsGlobal() {
			return true
		}
		if scope != "" && r.Scope == scope {
			return true
		}
	}
	return false
}

// AddKeyRotation verifies and persists a key-rotation binding. The ledger
// never rewrites subject/witness fields of historical attestations signed
// under the old key; callers resolve continuity via RotationsFor.
func (l *Ledger) AddKeyRotation(k *keyrotation.KeyRotation) (bool, error) {
	if err := k.Verify(); err != nil {
		return false, nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	data, err := json.Marshal(k)
	if err != nil {
		return false, &storage.StorageError{Op: "marshal", Err: err}
	}
	id := k.OldPubkey + ":" + k.NewPubkey + ":" + k.Timestamp.UTC().Format("20060102T150405.000000000Z0700")
	inserted, err := l.backend.Put(kindKeyRotation, id, data)
	if err != nil {
		return false, err
	}
	if !inserted {
		return false, nil
	}
	if err := l.backend.IndexAdd(kindKeyRotation, idxByOldKey, k.OldAgentID(), id); err != nil {
		return false, err
	}
	return true, nil
}

// RotationsFor returns every key rotation recorded for oldAgentID, in
// insertion order.
func (l *Ledger) RotationsFor(oldAgentID string) ([]*keyrotation.KeyRotation, error) {
	l.mu.RLock()
	ids, err := l.backend.IndexLookup(kindKeyRotation, idxByOldKey, oldAgentID)
	l.mu.RUnlock()
	if err != nil {
		return nil, err
	}
	out := make([]*keyrotation.KeyRotation, 0, len(ids))
	for _, id := range ids {
		l.mu.RLock()
		data, found, err := l.backend.Get(kindKeyRotation, id)
		l.mu.RUnlock()
		if err != nil {
			return nil, err
		}
		if !found {
			continue
		}
		var k keyrotation.KeyRotation
		if err := json.Unmarshal(data, &k); err != nil {
			continue
		}
		out = append(out, &k)
	}
	return out, nil
}

// Erase removes every record referencing agentID (compliance erasure, §6).
func (l *Ledger) Erase(agentID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.backend.DeleteByAgent(agentID)
}

// Stats summarizes the ledger for bundle export.
type Stats struct {
	Count     int `json:"count"`
	Subjects  int `json:"subjects"`
	Witnesses int `json:"witnesses"`
}

func (l *Ledger) computeStats(atts []*attestation.Attestation) Stats {
	subjects := make(map[string]bool)
	witnesses := make(map[string]bool)
	for _, a := range atts {
		subjects[a.Subject] = true
		witnesses[a.Witness] = true
	}
	return Stats{Count: len(atts), Subjects: len(subjects), Witnesses: len(witnesses)}
}
