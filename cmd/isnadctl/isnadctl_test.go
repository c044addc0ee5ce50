package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"isnad/identity"
)

func writeIdentity(t *testing.T, dir, name string) string {
	t.Helper()
	id, err := identity.New()
	if err != nil {
		t.Fatalf("identity.New: %v", err)
	}
	path := filepath.Join(dir, name)
	if err := id.Export(path); err != nil {
		t.Fatalf("export: %v", err)
	}
	return path
}

func TestAttestVerifyRoundTrip(t *testing.T) {
	dir := t.TempDir()
	keyfile := writeIdentity(t, dir, "witness.json")
	attPath := filepath.Join(dir, "att.json")

	var stdout, stderr bytes.Buffer
	exit := run([]string{"attest", "agent:subject0000", "code-review", "-k", keyfile, "-o", attPath}, &stdout, &stderr)
	if exit != 0 {
		t.Fatalf("attest exit=%d stderr=%s", exit, stderr.String())
	}

	stdout.Reset()
	stderr.Reset()
	exit = run([]string{"verify", attPath}, &stdout, &stderr)
	if exit != 0 {
		t.Fatalf("verify exit=%d stderr=%s", exit, stderr.String())
	}
}

func TestVerifyRejectsTamperedAttestation(t *testing.T) {
	dir := t.TempDir()
	keyfile := writeIdentity(t, dir, "witness.json")
	attPath := filepath.Join(dir, "att.json")

	var stdout, stderr bytes.Buffer
	if exit := run([]string{"attest", "agent:subject0000", "code-review", "-k", keyfile, "-o", attPath}, &stdout, &stderr); exit != 0 {
		t.Fatalf("attest exit=%d stderr=%s", exit, stderr.String())
	}

	data, err := os.ReadFile(attPath)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	raw["task"] = "something-else"
	tampered, _ := json.Marshal(raw)
	tamperedPath := filepath.Join(dir, "tampered.json")
	if err := os.WriteFile(tamperedPath, tampered, 0644); err != nil {
		t.Fatalf("write tampered: %v", err)
	}

	stdout.Reset()
	stderr.Reset()
	exit := run([]string{"verify", tamperedPath}, &stdout, &stderr)
	if exit != 1 {
		t.Fatalf("expected exit 1 for tampered attestation, got %d", exit)
	}
}

func TestChainAndScoreCommands(t *testing.T) {
	dir := t.TempDir()
	keyfile := writeIdentity(t, dir, "witness.json")

	attPath := filepath.Join(dir, "att.json")
	var stdout, stderr bytes.Buffer
	subject := "agent:subjectsubje"
	if exit := run([]string{"attest", subject, "code-review", "-k", keyfile, "-o", attPath}, &stdout, &stderr); exit != 0 {
		t.Fatalf("attest exit=%d stderr=%s", exit, stderr.String())
	}

	attData, err := os.ReadFile(attPath)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var attMap map[string]any
	if err := json.Unmarshal(attData, &attMap); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	bundle := map[string]any{
		"version":      "isnad-bundle/v1",
		"created_at":   "2026-01-01T00:00:00Z",
		"attestations": []any{attMap},
		"stats":        map[string]any{"count": 1, "subjects": 1, "witnesses": 1},
	}
	bundleData, err := json.Marshal(bundle)
	if err != nil {
		t.Fatalf("marshal bundle: %v", err)
	}
	bundlePath := filepath.Join(dir, "bundle.json")
	if err := os.WriteFile(bundlePath, bundleData, 0644); err != nil {
		t.Fatalf("write bundle: %v", err)
	}

	stdout.Reset()
	stderr.Reset()
	exit := run([]string{"score", subject, "-c", bundlePath, "--json"}, &stdout, &stderr)
	if exit != 0 {
		t.Fatalf("score exit=%d stderr=%s", exit, stderr.String())
	}
	var scoreResult struct {
		Score float64 `json:"score"`
	}
	if err := json.Unmarshal(stdout.Bytes(), &scoreResult); err != nil {
		t.Fatalf("decode score: %v", err)
	}
	if scoreResult.Score <= 0 {
		t.Fatalf("expected positive score, got %v", scoreResult.Score)
	}

	stdout.Reset()
	stderr.Reset()
	exit = run([]string{"chain", subject, "-c", bundlePath, "--json"}, &stdout, &stderr)
	if exit != 0 {
		t.Fatalf("chain exit=%d stderr=%s", exit, stderr.String())
	}

	stdout.Reset()
	stderr.Reset()
	exit = run([]string{"stats", "-c", bundlePath, "--json"}, &stdout, &stderr)
	if exit != 0 {
		t.Fatalf("stats exit=%d stderr=%s", exit, stderr.String())
	}
}

func TestDelegateCreateAndSub(t *testing.T) {
	dir := t.TempDir()
	principalKey := writeIdentity(t, dir, "principal.json")
	delegateID, err := identity.New()
	if err != nil {
		t.Fatalf("identity.New: %v", err)
	}
	subDelegateID, err := identity.New()
	if err != nil {
		t.Fatalf("identity.New: %v", err)
	}

	rootPath := filepath.Join(dir, "root.json")
	var stdout, stderr bytes.Buffer
	exit := run([]string{"delegate", "create", delegateID.PublicKeyHex(), "-k", principalKey, "-s", "code-review", "-o", rootPath}, &stdout, &stderr)
	if exit != 0 {
		t.Fatalf("delegate create exit=%d stderr=%s", exit, stderr.String())
	}

	delegateKeyfile := filepath.Join(dir, "delegate.json")
	if err := delegateID.Export(delegateKeyfile); err != nil {
		t.Fatalf("export: %v", err)
	}

	subPath := filepath.Join(dir, "sub.json")
	stdout.Reset()
	stderr.Reset()
	exit = run([]string{"delegate", "sub", rootPath, subDelegateID.PublicKeyHex(), "-k", delegateKeyfile, "-s", "code-review", "-o", subPath}, &stdout, &stderr)
	if exit != 0 {
		t.Fatalf("delegate sub exit=%d stderr=%s", exit, stderr.String())
	}
}

func TestRevokeCommand(t *testing.T) {
	dir := t.TempDir()
	keyfile := writeIdentity(t, dir, "revoker.json")
	out := filepath.Join(dir, "revocation.json")

	var stdout, stderr bytes.Buffer
	exit := run([]string{"revoke", "agent:targettarget", "--reason", "compromised", "-k", keyfile, "-o", out}, &stdout, &stderr)
	if exit != 0 {
		t.Fatalf("revoke exit=%d stderr=%s", exit, stderr.String())
	}
}
