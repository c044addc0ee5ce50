package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"isnad/policy"
)

// policySpec is the wire shape for creating or replacing a named policy:
// a flat list of rules plus a default action, mirroring policy.Policy
// without exposing its internal priority-sort bookkeeping.
type policySpec struct {
	DefaultAction policy.Action `json:"default_action"`
	Rules         []policy.Rule `json:"rules"`
}

func (a *App) listPolicies(w http.ResponseWriter, r *http.Request) {
	a.policyMu.RLock()
	defer a.policyMu.RUnlock()
	names := make([]string, 0, len(a.Policies))
	for name := range a.Policies {
		names = append(names, name)
	}
	writeJSON(w, http.StatusOK, names)
}

func (a *App) getPolicy(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	a.policyMu.RLock()
	p, ok := a.Policies[name]
	a.policyMu.RUnlock()
	if !ok {
		writeNotFound(w, errPolicyNotFound(name))
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (a *App) createPolicy(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	var spec policySpec
	if err := decodeJSON(r, &spec); err != nil {
		writeBadRequest(w, err)
		return
	}
	p := policy.New(name, spec.DefaultAction)
	for _, rule := range spec.Rules {
		p.AddRule(rule)
	}
	a.policyMu.Lock()
	a.Policies[name] = p
	a.policyMu.Unlock()
	writeJSON(w, http.StatusCreated, p)
}

func (a *App) deletePolicy(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	a.policyMu.Lock()
	_, ok := a.Policies[name]
	delete(a.Policies, name)
	a.policyMu.Unlock()
	if !ok {
		writeNotFound(w, errPolicyNotFound(name))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *App) evaluatePolicy(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	a.policyMu.RLock()
	p, ok := a.Policies[name]
	a.policyMu.RUnlock()
	if !ok {
		writeNotFound(w, errPolicyNotFound(name))
		return
	}
	var ctx policy.EvaluationContext
	if err := decodeJSON(r, &ctx); err != nil {
		writeBadRequest(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p.Evaluate(ctx))
}

func (a *App) evaluatePolicyBatch(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	a.policyMu.RLock()
	p, ok := a.Policies[name]
	a.policyMu.RUnlock()
	if !ok {
		writeNotFound(w, errPolicyNotFound(name))
		return
	}
	var contexts []policy.EvaluationContext
	if err := decodeJSON(r, &contexts); err != nil {
		writeBadRequest(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p.EvaluateBatch(contexts))
}

func errPolicyNotFound(name string) error {
	return errors.New("policy not found: " + name)
}
