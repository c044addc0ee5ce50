package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"isnad/attestation"
	"isnad/config"
	"isnad/crypto"
	"isnad/scanner"
	"isnad/scanner/connectors"
)

func newTestApp(t *testing.T) *App {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{
		ListenAddress: ":0",
		DataDir:       dir,
		Storage:       config.Storage{Backend: "memory"},
		RateLimit:     config.RateLimit{RequestsPerSecond: 1000, Burst: 1000},
		Monitoring:    config.Monitoring{WindowSeconds: 3600},
		Scanner:       config.Scanner{Concurrency: 2, RequestsPerSecond: 10, TimeoutSeconds: 2},
	}
	app, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { app.Close() })
	return app
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthzOK(t *testing.T) {
	app := newTestApp(t)
	rec := doJSON(t, app.Router(), http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestCreateAndVerifyAttestation(t *testing.T) {
	app := newTestApp(t)
	witnessKP, _ := crypto.GenerateKeyPair()
	witnessID := crypto.AgentID(witnessKP.PublicKeyHex())
	subjectID := "agent:subject0000"

	att, err := attestation.New(subjectID, "code-review", "lgtm", witnessID, witnessKP.PublicKeyHex(), witnessKP.Sign)
	if err != nil {
		t.Fatalf("build attestation: %v", err)
	}

	rec := doJSON(t, app.Router(), http.MethodPost, "/attestations/", att)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Admitted bool `json:"admitted"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Admitted {
		t.Fatal("expected attestation to be admitted")
	}

	scoreRec := doJSON(t, app.Router(), http.MethodGet, "/trust/score?agent="+subjectID, nil)
	if scoreRec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", scoreRec.Code)
	}
	var scoreResp struct {
		Score float64 `json:"score"`
	}
	if err := json.Unmarshal(scoreRec.Body.Bytes(), &scoreResp); err != nil {
		t.Fatalf("decode score: %v", err)
	}
	if scoreResp.Score <= 0 {
		t.Fatalf("expected positive score after admitted attestation, got %v", scoreResp.Score)
	}
}

func TestPolicyEvaluateDenyOnLowTrust(t *testing.T) {
	app := newTestApp(t)
	ctx := map[string]any{
		"agent_id":    "agent:low0000000",
		"trust_score": 0.1,
	}
	rec := doJSON(t, app.Router(), http.MethodPost, "/policies/strict-commerce/evaluate", ctx)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var decision struct {
		Action string `json:"action"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &decision); err != nil {
		t.Fatalf("decode decision: %v", err)
	}
	if decision.Action != "deny" {
		t.Fatalf("expected deny, got %s", decision.Action)
	}
}

func TestDiscoveryRegisterRejectsUnsigned(t *testing.T) {
	app := newTestApp(t)
	profile := map[string]any{
		"agent_id":   "agent:unsigned000",
		"public_key": "deadbeef",
		"name":       "bot",
	}
	rec := doJSON(t, app.Router(), http.MethodPost, "/discovery/", profile)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unsigned profile, got %d", rec.Code)
	}
}

func TestIdentityCreateAndGet(t *testing.T) {
	app := newTestApp(t)
	kp, _ := crypto.GenerateKeyPair()
	agentID := crypto.AgentID(kp.PublicKeyHex())

	rec := doJSON(t, app.Router(), http.MethodPost, "/identities/", map[string]string{
		"agent_id":   agentID,
		"public_key": kp.PublicKeyHex(),
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	getRec := doJSON(t, app.Router(), http.MethodGet, "/identities/"+agentID, nil)
	if getRec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", getRec.Code)
	}
}

func TestIdentityEraseRemovesRecord(t *testing.T) {
	app := newTestApp(t)
	kp, _ := crypto.GenerateKeyPair()
	agentID := crypto.AgentID(kp.PublicKeyHex())

	rec := doJSON(t, app.Router(), http.MethodPost, "/identities/", map[string]string{
		"agent_id":   agentID,
		"public_key": kp.PublicKeyHex(),
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	delRec := doJSON(t, app.Router(), http.MethodDelete, "/identities/"+agentID, nil)
	if delRec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", delRec.Code, delRec.Body.String())
	}

	getRec := doJSON(t, app.Router(), http.MethodGet, "/identities/"+agentID, nil)
	if getRec.Code != http.StatusNotFound {
		t.Fatalf("expected erased identity to 404, got %d", getRec.Code)
	}
}

func TestUpsertPlatformDataUpdatesInPlace(t *testing.T) {
	app := newTestApp(t)
	target := scanner.Target{AgentID: "agent:scan00000000", URL: "https://example.test/profile"}

	first := scanner.Outcome{
		Target: target,
		Result: connectors.Result{Platform: "generic", URL: target.URL, Alive: true, RawData: map[string]any{"status": 200}},
	}
	app.upsertPlatformData([]scanner.Outcome{first})

	app.platformMu.RLock()
	datum := app.platform[target.AgentID][target.URL]
	app.platformMu.RUnlock()
	if !datum.Alive || datum.PlatformURL != target.URL {
		t.Fatalf("unexpected first datum: %+v", datum)
	}
	firstFetch := datum.LastFetched

	second := scanner.Outcome{
		Target: target,
		Result: connectors.Result{Platform: "generic", URL: target.URL, Alive: false, Error: "timeout"},
	}
	app.upsertPlatformData([]scanner.Outcome{second})

	app.platformMu.RLock()
	byURL := app.platform[target.AgentID]
	updated := byURL[target.URL]
	count := len(byURL)
	app.platformMu.RUnlock()

	if count != 1 {
		t.Fatalf("expected exactly one datum per (agent, url), got %d", count)
	}
	if updated.Alive {
		t.Fatal("expected second scan to overwrite alive=false in place")
	}
	if !updated.LastFetched.After(firstFetch) && updated.LastFetched != firstFetch {
		t.Fatalf("expected last_fetched to advance, got %v then %v", firstFetch, updated.LastFetched)
	}
}

func TestEraseAgentDropsPlatformData(t *testing.T) {
	app := newTestApp(t)
	agentID := "agent:erase0000000"
	app.upsertPlatformData([]scanner.Outcome{{
		Target: scanner.Target{AgentID: agentID, URL: "https://example.test/a"},
		Result: connectors.Result{Platform: "generic", Alive: true},
	}})

	if err := app.EraseAgent(agentID); err != nil {
		t.Fatalf("EraseAgent: %v", err)
	}

	app.platformMu.RLock()
	_, ok := app.platform[agentID]
	app.platformMu.RUnlock()
	if ok {
		t.Fatal("expected platform data to be dropped on erasure")
	}
}

func TestMetricsEndpointServesPrometheusText(t *testing.T) {
	app := newTestApp(t)
	rec := doJSON(t, app.Router(), http.MethodGet, "/metrics", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !bytes.Contains(rec.Body.Bytes(), []byte("isnad_health_score")) {
		t.Fatalf("expected health score gauge in body, got: %s", rec.Body.String())
	}
}
