package main

import (
	"flag"
	"fmt"
	"io"
	"strings"
)

// runChainCommand prints the attestation history for an agent (as subject
// or witness) found in the bundle given by -c.
func runChainCommand(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("chain", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var chainPath string
	var jsonOut bool
	fs.StringVar(&chainPath, "c", "", "bundle file to load as chain context")
	fs.BoolVar(&jsonOut, "json", false, "machine-readable output")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if fs.NArg() < 1 {
		fmt.Fprintln(stderr, "Error: chain requires <agent>")
		return 1
	}
	agent := fs.Arg(0)
	// Flags may also follow <agent>.
	if err := fs.Parse(fs.Args()[1:]); err != nil {
		return 1
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(stderr, "Error: chain requires <agent>")
		return 1
	}
	if strings.TrimSpace(chainPath) == "" {
		fmt.Fprintln(stderr, "Error: -c <chain> is required")
		return 1
	}

	l, _, err := loadChain(chainPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: load chain: %v\n", err)
		return 1
	}
	asSubject, err := l.BySubject(agent)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	asWitness, err := l.ByWitness(agent)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	result := struct {
		Agent     string `json:"agent"`
		AsSubject any    `json:"as_subject"`
		AsWitness any    `json:"as_witness"`
	}{Agent: agent, AsSubject: asSubject, AsWitness: asWitness}

	writeResult(stdout, result, jsonOut, func(w io.Writer) {
		fmt.Fprintf(w, "%s: %d attestation(s) as subject, %d as witness\n", agent, len(asSubject), len(asWitness))
		for _, a := range asSubject {
			fmt.Fprintf(w, "  subject <- %s: %s (%s)\n", a.Witness, a.Task, a.Timestamp.Format("2006-01-02T15:04:05Z07:00"))
		}
		for _, a := range asWitness {
			fmt.Fprintf(w, "  witness -> %s: %s (%s)\n", a.Subject, a.Task, a.Timestamp.Format("2006-01-02T15:04:05Z07:00"))
		}
	})
	return 0
}
