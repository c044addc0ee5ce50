// Package delegation models signed capability grants with scope narrowing,
// expiry, and depth-limited sub-delegation.
package delegation

import (
	"errors"
	"sort"
	"time"

	"isnad/crypto"
)

var (
	ErrSchemaViolation      = errors.New("delegation: missing or invalid required field")
	ErrInvalidSignature     = errors.New("delegation: signature does not verify")
	ErrPayloadMismatch      = errors.New("delegation: principal_pubkey does not derive to claimed principal")
	ErrDelegationConstraint = errors.New("delegation: sub-delegation violates scope, depth, or expiry rules")
	ErrCycle                = errors.New("delegation: cycle detected in parent chain")
	ErrExpired              = errors.New("delegation: expired")
	ErrRevoked              = errors.New("delegation: revoked")
)

// Delegation is a signed capability grant (spec §3 "Delegation").
type Delegation struct {
	DelegationID   string     `json:"delegation_id"`
	Principal      string     `json:"principal"`
	Delegate       string     `json:"delegate"`
	Scopes         []string   `json:"scopes"`
	ExpiresAt      *time.Time `json:"expires_at,omitempty"`
	MaxDepth       int        `json:"max_depth"`
	ParentID       string     `json:"parent_id,omitempty"`
	Depth          int        `json:"depth"`
	Timestamp      time.Time  `json:"timestamp"`
	Signature      string     `json:"signature"`
	PrincipalPub   string     `json:"principal_pubkey"`
}

func sortedCopy(scopes []string) []string {
	out := make([]string, len(scopes))
	copy(out, scopes)
	sort.Strings(out)
	return out
}

func payload(d *Delegation) ([]byte, error) {
	var expires any
	if d.ExpiresAt != nil {
		expires = d.ExpiresAt.UTC().Format(time.RFC3339)
	}
	var parent any
	if d.ParentID != "" {
		parent = d.ParentID
	}
	scopesAny := make([]any, len(d.Scopes))
	for i, s := range d.Scopes {
		scopesAny[i] = s
	}
	return crypto.CanonicalJSON(map[string]any{
		"principal":  d.Principal,
		"delegate":   d.Delegate,
		"scopes":     scopesAny,
		"expires_at": expires,
		"max_depth":  float64(d.MaxDepth),
		"parent_id":  parent,
		"depth":      float64(d.Depth),
		"timestamp":  d.Timestamp.UTC().Format(time.RFC3339),
	})
}

// NewRoot creates a root delegation (depth 0, no parent).
func NewRoot(principalAgentID, principalPubkeyHex, delegateAgentID string, scopes []string, expiresAt *time.Time, maxDepth int, sign func([]byte) string) (*Delegation, error) {
	if principalAgentID == "" || delegateAgentID == "" || len(scopes) == 0 {
		return nil, ErrSchemaViolation
	}
	d := &Delegation{
		Principal:    principalAgentID,
		Delegate:     delegateAgentID,
		Scopes:       sortedCopy(scopes),
		ExpiresAt:    expiresAt,
		MaxDepth:     maxDepth,
		Depth:        0,
		Timestamp:    time.Now().UTC(),
		PrincipalPub: principalPubkeyHex,
	}
	return finalize(d, sign)
}

// SubDelegate creates a child delegation from parent, enforcing the
// narrowing rules from spec §3: signer must be parent's delegate, depth
// increments and stays below parent.max_depth, scopes ⊆ parent.scopes,
// expiry narrows, and max_depth narrows.
func SubDelegate(parent *Delegation, signerAgentID, signerPubkeyHex, delegateAgentID string, proposedScopes []string, proposedExpiry *time.Time, proposedMaxDepth int, sign func([]byte) string) (*Delegation, error) {
	if signerAgentID != parent.Delegate {
		return nil, ErrDelegationConstraint
	}
	childDepth := parent.Depth + 1
	if childDepth >= parent.MaxDepth {
		return nil, ErrDelegationConstraint
	}
	if !isSubset(proposedScopes, parent.Scopes) {
		return nil, ErrDelegationConstraint
	}
	expires := proposedExpiry
	if parent.ExpiresAt != nil {
		if expires == nil || expires.After(*parent.ExpiresAt) {
			expires = parent.ExpiresAt
		}
	}
	maxDepth := proposedMaxDepth
	parentBudget := parent.MaxDepth - parent.Depth - 1
	if maxDepth <= 0 || maxDepth > parentBudget {
		maxDepth = parentBudget
	}
	d := &Delegation{
		Principal:    signerAgentID,
		Delegate:     delegateAgentID,
		Scopes:       sortedCopy(proposedScopes),
		ExpiresAt:    expires,
		MaxDepth:     maxDepth,
		ParentID:     parent.DelegationID,
		Depth:        childDepth,
		Timestamp:    time.Now().UTC(),
		PrincipalPub: signerPubkeyHex,
	}
	return finalize(d, sign)
}

func isSubset(child, parent []string) bool {
	parentSet := make(map[string]bool, len(parent))
	for _, s := range parent {
		parentSet[s] = true
	}
	if len(child) == 0 {
		return false
	}
	for _, s := range child {
		if !parentSet[s] {
			return false
		}
	}
	return true
}

func finalize(d *Delegation, sign func([]byte) string) (*Delegation, error) {
	pl, err := payload(d)
	if err != nil {
		return nil, err
	}
	d.DelegationID = crypto.SHA256Hex(pl)[:16]
	d.Signature = sign(pl)
	return d, nil
}

// Verify checks the id derivation, the principal_pubkey → principal
// agent_id binding, and the signature.
func (d *Delegation) Verify() error {
	pl, err := payload(d)
	if err != nil {
		return err
	}
	if crypto.SHA256Hex(pl)[:16] != d.DelegationID {
		return ErrInvalidSignature
	}
	if crypto.AgentID(d.PrincipalPub) != d.Principal {
		return ErrPayloadMismatch
	}
	if err := crypto.Verify(d.PrincipalPub, d.Signature, pl); err != nil {
		return ErrInvalidSignature
	}
	return nil
}

// HasScope reports whether scope is included in this delegation's scopes.
func (d *Delegation) HasScope(scope string) bool {
	for _, s := range d.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}

// Active reports whether the delegation has not expired as of now.
func (d *Delegation) Active(now time.Time) bool {
	return d.ExpiresAt == nil || now.Before(*d.ExpiresAt)
}
