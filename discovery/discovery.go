// Package discovery implements a signed agent discovery registry
// (supplemented feature, original_source discovery.py): agents publish a
// capability profile, others search it, stale updates are rejected by
// timestamp.
package discovery

import (
	"encoding/json"
	"sort"
	"strings"
	"time"

	"isnad/crypto"
	"isnad/identity"
)

// AgentProfile is the public profile an agent registers.
type AgentProfile struct {
	AgentID      string            `json:"agent_id"`
	PublicKey    string            `json:"public_key"`
	Name         string            `json:"name"`
	Capabilities []string          `json:"capabilities"`
	Endpoints    map[string]string `json:"endpoints"`
	Metadata     map[string]any    `json:"metadata"`
	RegisteredAt float64           `json:"registered_at"`
	UpdatedAt    float64           `json:"updated_at"`
	Signature    string            `json:"signature"`
}

func (p *AgentProfile) payload() map[string]any {
	caps := append([]string(nil), p.Capabilities...)
	sort.Strings(caps)
	endpoints := map[string]any{}
	for k, v := range p.Endpoints {
		endpoints[k] = v
	}
	metadata := map[string]any{}
	for k, v := range p.Metadata {
		metadata[k] = v
	}
	capsAny := make([]any, len(caps))
	for i, c := range caps {
		capsAny[i] = c
	}
	return map[string]any{
		"agent_id":      p.AgentID,
		"public_key":    p.PublicKey,
		"name":          p.Name,
		"capabilities":  capsAny,
		"endpoints":     endpoints,
		"metadata":      metadata,
		"registered_at": p.RegisteredAt,
		"updated_at":    p.UpdatedAt,
	}
}

func (p *AgentProfile) payloadBytes() ([]byte, error) {
	return crypto.CanonicalJSON(p.payload())
}

// Sign computes and attaches the profile signature.
func (p *AgentProfile) Sign(id *identity.Identity) error {
	data, err := p.payloadBytes()
	if err != nil {
		return err
	}
	p.Signature = id.Sign(data)
	return nil
}

// Verify checks the profile signature against its own public key.
func (p *AgentProfile) Verify() bool {
	if p.Signature == "" {
		return false
	}
	data, err := p.payloadBytes()
	if err != nil {
		return false
	}
	return crypto.Verify(p.PublicKey, p.Signature, data) == nil
}

// NewProfile builds and signs a profile for identity id.
func NewProfile(id *identity.Identity, name string, capabilities []string, endpoints map[string]string, metadata map[string]any) (*AgentProfile, error) {
	now := float64(time.Now().UnixNano()) / 1e9
	p := &AgentProfile{
		AgentID:      id.AgentID,
		PublicKey:    id.PublicKeyHex(),
		Name:         name,
		Capabilities: capabilities,
		Endpoints:    endpoints,
		Metadata:     metadata,
		RegisteredAt: now,
		UpdatedAt:    now,
	}
	if err := p.Sign(id); err != nil {
		return nil, err
	}
	return p, nil
}

// Registry is an in-memory signed agent discovery directory.
type Registry struct {
	agents map[string]*AgentProfile
}

func NewRegistry() *Registry {
	return &Registry{agents: make(map[string]*AgentProfile)}
}

// Register admits profile if signed, self-consistent, and not stale
// relative to any existing entry for the same agent.
func (r *Registry) Register(profile *AgentProfile) bool {
	if profile.Signature == "" || !profile.Verify() {
		return false
	}
	if profile.AgentID != crypto.AgentID(profile.PublicKey) {
		return false
	}
	if existing, ok := r.agents[profile.AgentID]; ok && profile.UpdatedAt <= existing.UpdatedAt {
		return false
	}
	r.agents[profile.AgentID] = profile
	return true
}

func (r *Registry) Unregister(agentID string) bool {
	if _, ok := r.agents[agentID]; ok {
		delete(r.agents, agentID)
		return true
	}
	return false
}

func (r *Registry) Get(agentID string) (*AgentProfile, bool) {
	p, ok := r.agents[agentID]
	return p, ok
}

// Search filters by capability (exact) and name substring (case
// insensitive), capped at limit results (50 when limit <= 0), ordered by
// agent id.
func (r *Registry) Search(capability, nameContains string, limit int) []*AgentProfile {
	if limit <= 0 {
		limit = 50
	}
	var out []*AgentProfile
	for _, agentID := range r.sortedIDs() {
		p := r.agents[agentID]
		if capability != "" && !containsString(p.Capabilities, capability) {
			continue
		}
		if nameContains != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(nameContains)) {
			continue
		}
		out = append(out, p)
		if len(out) >= limit {
			break
		}
	}
	return out
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func (r *Registry) sortedIDs() []string {
	ids := make([]string, 0, len(r.agents))
	for id := range r.agents {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ListCapabilities returns the count of agents offering each capability,
// most popular first.
func (r *Registry) ListCapabilities() []CapabilityCount {
	counts := make(map[string]int)
	for _, p := range r.agents {
		for _, c := range p.Capabilities {
			counts[c]++
		}
	}
	out := make([]CapabilityCount, 0, len(counts))
	for c, n := range counts {
		out = append(out, CapabilityCount{Capability: c, Count: n})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Capability < out[j].Capability
	})
	return out
}

type CapabilityCount struct {
	Capability string
	Count      int
}

func (r *Registry) Count() int { return len(r.agents) }

func (r *Registry) All() []*AgentProfile {
	out := make([]*AgentProfile, 0, len(r.agents))
	for _, id := range r.sortedIDs() {
		out = append(out, r.agents[id])
	}
	return out
}

// ExportJSON serializes every registered profile.
func (r *Registry) ExportJSON() ([]byte, error) {
	return json.MarshalIndent(r.All(), "", "  ")
}

// ImportJSON loads profiles from JSON, admitting only those that verify.
func ImportJSON(data []byte) (*Registry, error) {
	var entries []*AgentProfile
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}
	r := NewRegistry()
	for _, p := range entries {
		if p.Verify() {
			r.agents[p.AgentID] = p
		}
	}
	return r, nil
}
