package api

import (
	"encoding/json"
	"net/http"
	"testing"

	"isnad/attestation"
	"isnad/crypto"
	"isnad/keyrotation"
)

func TestKeyRotationCreateAndList(t *testing.T) {
	app := newTestApp(t)
	oldKP, _ := crypto.GenerateKeyPair()
	newKP, _ := crypto.GenerateKeyPair()

	rot, err := keyrotation.New(oldKP.PublicKeyHex(), newKP.PublicKeyHex(), oldKP.Sign)
	if err != nil {
		t.Fatalf("new rotation: %v", err)
	}

	rec := doJSON(t, app.Router(), http.MethodPost, "/keyrotations/", rot)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Inserted bool `json:"inserted"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Inserted {
		t.Fatal("expected rotation to be inserted")
	}

	listRec := doJSON(t, app.Router(), http.MethodGet, "/keyrotations/"+rot.OldAgentID(), nil)
	if listRec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", listRec.Code)
	}
	var rotations []keyrotation.KeyRotation
	if err := json.Unmarshal(listRec.Body.Bytes(), &rotations); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(rotations) != 1 {
		t.Fatalf("expected 1 rotation, got %d", len(rotations))
	}
}

func TestGraphAnalyticsAndSybilScore(t *testing.T) {
	app := newTestApp(t)
	witnessKP, _ := crypto.GenerateKeyPair()
	witnessID := crypto.AgentID(witnessKP.PublicKeyHex())
	subjectID := "agent:subject0000"

	att, err := attestation.New(subjectID, "code-review", "lgtm", witnessID, witnessKP.PublicKeyHex(), witnessKP.Sign)
	if err != nil {
		t.Fatalf("build attestation: %v", err)
	}
	if ok, err := app.Ledger.Add(att); err != nil || !ok {
		t.Fatalf("admit attestation: ok=%v err=%v", ok, err)
	}

	rec := doJSON(t, app.Router(), http.MethodGet, "/graph/analytics", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Network struct {
			NumAgents int `json:"NumAgents"`
		} `json:"network"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Network.NumAgents != 2 {
		t.Fatalf("expected 2 agents in graph, got %d", resp.Network.NumAgents)
	}

	sybilRec := doJSON(t, app.Router(), http.MethodGet, "/graph/sybil/"+subjectID, nil)
	if sybilRec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", sybilRec.Code)
	}
}
