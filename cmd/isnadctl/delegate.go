package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"isnad/crypto"
	"isnad/delegation"
	"isnad/identity"
)

// scopeList accumulates repeated -s flags into a slice.
type scopeList []string

func (s *scopeList) String() string { return strings.Join(*s, ",") }
func (s *scopeList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

func runDelegateCommand(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(stderr, "Error: delegate requires create|sub")
		return 1
	}
	switch args[0] {
	case "create":
		return runDelegateCreate(args[1:], stdout, stderr)
	case "sub":
		return runDelegateSub(args[1:], stdout, stderr)
	default:
		fmt.Fprintf(stderr, "Unknown delegate subcommand: %s\n", args[0])
		return 1
	}
}

func runDelegateCreate(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("delegate create", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var keyfile, out, expires string
	var scopes scopeList
	var maxDepth int
	var jsonOut bool
	fs.StringVar(&keyfile, "k", "", "principal identity file")
	fs.Var(&scopes, "s", "scope to grant (repeatable)")
	fs.StringVar(&expires, "expires", "", "RFC 3339 expiry, empty means no expiry")
	fs.IntVar(&maxDepth, "max-depth", 3, "maximum sub-delegation depth")
	fs.StringVar(&out, "o", "-", "output path, - for stdout")
	fs.BoolVar(&jsonOut, "json", false, "machine-readable output")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if fs.NArg() < 1 {
		fmt.Fprintln(stderr, "Error: delegate create requires <delegate-pubkey>")
		return 1
	}
	delegatePubkey := fs.Arg(0)
	// Flags may also follow <delegate-pubkey>.
	if err := fs.Parse(fs.Args()[1:]); err != nil {
		return 1
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(stderr, "Error: delegate create requires <delegate-pubkey>")
		return 1
	}
	if strings.TrimSpace(keyfile) == "" {
		fmt.Fprintln(stderr, "Error: -k <keyfile> is required")
		return 1
	}
	if len(scopes) == 0 {
		fmt.Fprintln(stderr, "Error: at least one -s <scope> is required")
		return 1
	}

	id, err := identity.Load(keyfile)
	if err != nil {
		fmt.Fprintf(stderr, "Error: load identity: %v\n", err)
		return 1
	}
	var expiresAt *time.Time
	if strings.TrimSpace(expires) != "" {
		ts, err := time.Parse(time.RFC3339, expires)
		if err != nil {
			fmt.Fprintf(stderr, "Error: invalid --expires: %v\n", err)
			return 1
		}
		expiresAt = &ts
	}
	delegateAgentID := crypto.AgentID(delegatePubkey)
	d, err := delegation.NewRoot(id.AgentID, id.PublicKeyHex(), delegateAgentID, scopes, expiresAt, maxDepth, id.Sign)
	if err != nil {
		fmt.Fprintf(stderr, "Error: build delegation: %v\n", err)
		return 1
	}
	return writeDelegationResult(stdout, stderr, d, out, jsonOut)
}

func runDelegateSub(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("delegate sub", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var keyfile, out, expires string
	var scopes scopeList
	var maxDepth int
	var jsonOut bool
	fs.StringVar(&keyfile, "k", "", "signer identity file (must be the parent's delegate)")
	fs.Var(&scopes, "s", "scope to grant (repeatable, must narrow parent's scopes)")
	fs.StringVar(&expires, "expires", "", "RFC 3339 expiry, empty means inherit parent's")
	fs.IntVar(&maxDepth, "max-depth", 0, "max sub-delegation depth, 0 means inherit parent's budget")
	fs.StringVar(&out, "o", "-", "output path, - for stdout")
	fs.BoolVar(&jsonOut, "json", false, "machine-readable output")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if fs.NArg() < 2 {
		fmt.Fprintln(stderr, "Error: delegate sub requires <parent-file> <delegate-pubkey>")
		return 1
	}
	parentPath, delegatePubkey := fs.Arg(0), fs.Arg(1)
	// Flags may also follow the positional arguments.
	if err := fs.Parse(fs.Args()[2:]); err != nil {
		return 1
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(stderr, "Error: delegate sub requires <parent-file> <delegate-pubkey>")
		return 1
	}
	if strings.TrimSpace(keyfile) == "" {
		fmt.Fprintln(stderr, "Error: -k <keyfile> is required")
		return 1
	}

	parentData, err := readInput(parentPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: read parent delegation: %v\n", err)
		return 1
	}
	var parent delegation.Delegation
	if err := json.Unmarshal(parentData, &parent); err != nil {
		fmt.Fprintf(stderr, "Error: decode parent delegation: %v\n", err)
		return 1
	}
	id, err := identity.Load(keyfile)
	if err != nil {
		fmt.Fprintf(stderr, "Error: load identity: %v\n", err)
		return 1
	}
	var expiresAt *time.Time
	if strings.TrimSpace(expires) != "" {
		ts, err := time.Parse(time.RFC3339, expires)
		if err != nil {
			fmt.Fprintf(stderr, "Error: invalid --expires: %v\n", err)
			return 1
		}
		expiresAt = &ts
	}
	delegateAgentID := crypto.AgentID(delegatePubkey)
	d, err := delegation.SubDelegate(&parent, id.AgentID, id.PublicKeyHex(), delegateAgentID, scopes, expiresAt, maxDepth, id.Sign)
	if err != nil {
		fmt.Fprintf(stderr, "Error: build sub-delegation: %v\n", err)
		return 1
	}
	return writeDelegationResult(stdout, stderr, d, out, jsonOut)
}

func writeDelegationResult(stdout, stderr io.Writer, d *delegation.Delegation, out string, jsonOut bool) int {
	if err := writeJSONFile(stdout, out, d); err != nil {
		fmt.Fprintf(stderr, "Error: write output: %v\n", err)
		return 1
	}
	if !jsonOut && out != "-" {
		fmt.Fprintf(stdout, "wrote delegation %s to %s\n", d.DelegationID, out)
	}
	return 0
}
