package main

import (
	"flag"
	"fmt"
	"io"
	"strings"

	"isnad/identity"
	"isnad/revocation"
)

func runRevokeCommand(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("revoke", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var keyfile, reason, scope, out string
	var jsonOut bool
	fs.StringVar(&keyfile, "k", "", "revoker identity file")
	fs.StringVar(&reason, "reason", "", "revocation reason")
	fs.StringVar(&scope, "s", "", "scope, empty means global")
	fs.StringVar(&out, "o", "-", "output path, - for stdout")
	fs.BoolVar(&jsonOut, "json", false, "machine-readable output")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if fs.NArg() < 1 {
		fmt.Fprintln(stderr, "Error: revoke requires <id>")
		return 1
	}
	targetID := fs.Arg(0)
	// Flags may also follow <id>.
	if err := fs.Parse(fs.Args()[1:]); err != nil {
		return 1
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(stderr, "Error: revoke requires <id>")
		return 1
	}
	if strings.TrimSpace(keyfile) == "" {
		fmt.Fprintln(stderr, "Error: -k <keyfile> is required")
		return 1
	}

	id, err := identity.Load(keyfile)
	if err != nil {
		fmt.Fprintf(stderr, "Error: load identity: %v\n", err)
		return 1
	}
	rev, err := revocation.New(targetID, reason, id.AgentID, id.PublicKeyHex(), scope, id.Sign)
	if err != nil {
		fmt.Fprintf(stderr, "Error: build revocation: %v\n", err)
		return 1
	}
	if err := writeJSONFile(stdout, out, rev); err != nil {
		fmt.Fprintf(stderr, "Error: write output: %v\n", err)
		return 1
	}
	if !jsonOut && out != "-" {
		fmt.Fprintf(stdout, "wrote revocation %s to %s\n", rev.RevocationID, out)
	}
	return 0
}
