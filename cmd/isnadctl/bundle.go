package main

import (
	"isnad/ledger"
	"isnad/storage/memstore"
)

// loadChain reads the bundle file at path and imports it into a fresh
// in-memory ledger, giving the chain/score/stats subcommands a queryable
// context without a running daemon. Signature verification is left to
// each attestation's own admission check, since a local bundle file has
// no envelope signer to trust by default.
func loadChain(path string) (*ledger.Ledger, *ledger.ImportResult, error) {
	data, err := readInput(path)
	if err != nil {
		return nil, nil, err
	}
	l := ledger.New(memstore.New())
	result, err := l.ImportBundle(data, false)
	if err != nil {
		return nil, nil, err
	}
	return l, result, nil
}
