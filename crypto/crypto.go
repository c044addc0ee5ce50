// Package crypto provides the signing, hashing, and canonical
// serialization primitives shared by every record type in the ledger.
package crypto

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
)

const (
	// PublicKeySize is the length in bytes of an Ed25519 public key.
	PublicKeySize = ed25519.PublicKeySize
	// PrivateKeySize is the length in bytes of an Ed25519 seed (not the
	// expanded 64-byte key Go's stdlib normally stores).
	PrivateKeySize = ed25519.SeedSize
	// SignatureSize is the length in bytes of an Ed25519 signature.
	SignatureSize = ed25519.SignatureSize
)

var (
	ErrInvalidPublicKey  = errors.New("crypto: invalid public key")
	ErrInvalidPrivateKey = errors.New("crypto: invalid private key")
	ErrInvalidSignature  = errors.New("crypto: invalid signature encoding")
	ErrVerifyFailed      = errors.New("crypto: signature verification failed")
)

// KeyPair holds an Ed25519 seed and its derived public key.
type KeyPair struct {
	Public  ed25519.PublicKey
	Private ed25519.PrivateKey // expanded form, derived from the seed
	Seed    []byte
}

// GenerateKeyPair creates a new random Ed25519 key pair.
func GenerateKeyPair() (*KeyPair, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("crypto: generate key: %w", err)
	}
	seed := priv.Seed()
	return &KeyPair{Public: pub, Private: priv, Seed: seed}, nil
}

// KeyPairFromSeedHex reconstructs a key pair from a hex-encoded 32-byte seed.
func KeyPairFromSeedHex(seedHex string) (*KeyPair, error) {
	seed, err := hex.DecodeString(seedHex)
	if err != nil || len(seed) != PrivateKeySize {
		return nil, ErrInvalidPrivateKey
	}
	priv := ed25519.NewKeyFromSeed(seed)
	pub := priv.Public().(ed25519.PublicKey)
	return &KeyPair{Public: pub, Private: priv, Seed: seed}, nil
}

// PublicKeyHex returns the lowercase hex encoding of the public key.
func (k *KeyPair) PublicKeyHex() string { return hex.EncodeToString(k.Public) }

// SeedHex returns the lowercase hex encoding of the seed.
func (k *KeyPair) SeedHex() string { return hex.EncodeToString(k.Seed) }

// Sign signs payload with the key pair's private key, returning a hex string.
func (k *KeyPair) Sign(payload []byte) string {
	sig := ed25519.Sign(k.Private, payload)
	return hex.EncodeToString(sig)
}

// Verify checks a hex-encoded signature against payload using a hex-encoded
// public key.
func Verify(publicKeyHex, signatureHex string, payload []byte) error {
	pub, err := hex.DecodeString(publicKeyHex)
	if err != nil || len(pub) != PublicKeySize {
		return ErrInvalidPublicKey
	}
	sig, err := hex.DecodeString(signatureHex)
	if err != nil || len(sig) != SignatureSize {
		return ErrInvalidSignature
	}
	if !ed25519.Verify(ed25519.PublicKey(pub), payload, sig) {
		return ErrVerifyFailed
	}
	return nil
}

// SHA256Hex returns the lowercase hex-encoded SHA-256 digest of data.
func SHA256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// AgentID derives the stable agent identifier from a hex-encoded public key:
// "agent:" followed by the first 16 hex characters of sha256(public_key_hex).
func AgentID(publicKeyHex string) string {
	digest := SHA256Hex([]byte(publicKeyHex))
	return "agent:" + digest[:16]
}
