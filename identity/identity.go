// Package identity models an agent's keypair and its derived identifier.
package identity

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"

	"isnad/crypto"
)

var ErrInvalidIdentityFile = errors.New("identity: invalid identity file")

// Identity is an agent's keypair plus its derived agent_id. It exclusively
// owns the private seed and never emits it except through Export.
type Identity struct {
	AgentID   string
	keyPair   *crypto.KeyPair
	CreatedAt time.Time
}

// New generates a fresh identity.
func New() (*Identity, error) {
	kp, err := crypto.GenerateKeyPair()
	if err != nil {
		return nil, err
	}
	return &Identity{
		AgentID:   crypto.AgentID(kp.PublicKeyHex()),
		keyPair:   kp,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// FromSeedHex reconstructs an identity from a hex-encoded seed.
func FromSeedHex(seedHex string, createdAt time.Time) (*Identity, error) {
	kp, err := crypto.KeyPairFromSeedHex(seedHex)
	if err != nil {
		return nil, err
	}
	return &Identity{
		AgentID:   crypto.AgentID(kp.PublicKeyHex()),
		keyPair:   kp,
		CreatedAt: createdAt,
	}, nil
}

// PublicKeyHex returns the hex-encoded public key.
func (id *Identity) PublicKeyHex() string { return id.keyPair.PublicKeyHex() }

// Sign signs payload and returns a hex-encoded signature.
func (id *Identity) Sign(payload []byte) string { return id.keyPair.Sign(payload) }

// identityFile is the on-disk JSON shape: {agent_id, public_key, private_key, created_at}.
type identityFile struct {
	AgentID    string    `json:"agent_id"`
	PublicKey  string    `json:"public_key"`
	PrivateKey string    `json:"private_key"`
	CreatedAt  time.Time `json:"created_at"`
}

// Export writes the identity file to path with 0600 permissions. This is the
// only call site allowed to emit the private seed.
func (id *Identity) Export(path string) error {
	f := identityFile{
		AgentID:    id.AgentID,
		PublicKey:  id.keyPair.PublicKeyHex(),
		PrivateKey: id.keyPair.SeedHex(),
		CreatedAt:  id.CreatedAt,
	}
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

// LoadOrCreate reads the identity file at path, creating a fresh identity
// and writing it there if none exists yet. Used to bootstrap a service's
// own signing identity (bundle export, discovery self-registration).
func LoadOrCreate(path string) (*Identity, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, err
		}
	}
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	id, err := New()
	if err != nil {
		return nil, err
	}
	if err := id.Export(path); err != nil {
		return nil, err
	}
	return id, nil
}

// Load reads an identity file written by Export.
func Load(path string) (*Identity, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f identityFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, ErrInvalidIdentityFile
	}
	if f.PrivateKey == "" || f.PublicKey == "" {
		return nil, ErrInvalidIdentityFile
	}
	id, err := FromSeedHex(f.PrivateKey, f.CreatedAt)
	if err != nil {
		return nil, ErrInvalidIdentityFile
	}
	if id.AgentID != f.AgentID || id.PublicKeyHex() != f.PublicKey {
		return nil, ErrInvalidIdentityFile
	}
	return id, nil
}
