package main

import (
	"flag"
	"fmt"
	"io"
	"strings"

	"isnad/attestation"
	"isnad/identity"
)

func runAttestCommand(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("attest", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var keyfile, evidence, out string
	var jsonOut bool
	fs.StringVar(&keyfile, "k", "", "witness identity file")
	fs.StringVar(&evidence, "e", "", "evidence string")
	fs.StringVar(&out, "o", "-", "output path, - for stdout")
	fs.BoolVar(&jsonOut, "json", false, "machine-readable output")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if fs.NArg() < 2 {
		fmt.Fprintln(stderr, "Error: attest requires <subject> <task>")
		return 1
	}
	subject, task := fs.Arg(0), fs.Arg(1)
	// Flags may also follow the positional arguments.
	if err := fs.Parse(fs.Args()[2:]); err != nil {
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
	att, err := attestation.New(subject, task, evidence, id.AgentID, id.PublicKeyHex(), id.Sign)
	if err != nil {
		fmt.Fprintf(stderr, "Error: build attestation: %v\n", err)
		return 1
	}
	if err := writeJSONFile(stdout, out, att); err != nil {
		fmt.Fprintf(stderr, "Error: write output: %v\n", err)
		return 1
	}
	if !jsonOut && out != "-" {
		fmt.Fprintf(stdout, "wrote attestation %s to %s\n", att.AttestationID, out)
	}
	return 0
}
