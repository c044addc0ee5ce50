package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"isnad/scanner"
)

// upsertPlatformData folds a batch of scan outcomes into a.platform,
// keyed by (agent_id, platform_url): a datum is created on first scan of
// a URL and updated in place on every later scan of the same URL (spec
// §3/§4.7), rather than appended as a growing history. Shared by
// triggerScan and the periodic ScanDiscoveredAgents sweep so both entry
// points honor the same upsert-in-place contract.
func (a *App) upsertPlatformData(outcomes []scanner.Outcome) {
	now := time.Now().UTC()
	a.platformMu.Lock()
	defer a.platformMu.Unlock()
	for _, o := range outcomes {
		byURL, ok := a.platform[o.Target.AgentID]
		if !ok {
			byURL = make(map[string]scanner.PlatformDatum)
			a.platform[o.Target.AgentID] = byURL
		}
		byURL[o.Target.URL] = scanner.DatumFromOutcome(o, now)
	}
}

func (a *App) listPlatformData(w http.ResponseWriter, r *http.Request) {
	agentID := chi.URLParam(r, "agentID")
	a.platformMu.RLock()
	byURL := a.platform[agentID]
	data := make([]scanner.PlatformDatum, 0, len(byURL))
	for _, d := range byURL {
		data = append(data, d)
	}
	a.platformMu.RUnlock()
	writeJSON(w, http.StatusOK, data)
}

func (a *App) triggerScan(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Targets []scanner.Target `json:"targets"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}
	outcomes := a.Scanner.Scan(r.Context(), req.Targets)
	a.upsertPlatformData(outcomes)
	a.Bus.Publish(newEvent("platform.scanned", outcomes))
	writeJSON(w, http.StatusOK, outcomes)
}
