package main

import (
	"flag"
	"fmt"
	"io"
	"strings"

	"isnad/trust"
)

func runScoreCommand(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("score", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var chainPath, scope string
	var jsonOut bool
	fs.StringVar(&chainPath, "c", "", "bundle file to load as chain context")
	fs.StringVar(&scope, "s", "", "scope filter")
	fs.BoolVar(&jsonOut, "json", false, "machine-readable output")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if fs.NArg() < 1 {
		fmt.Fprintln(stderr, "Error: score requires <agent>")
		return 1
	}
	agent := fs.Arg(0)
	// Flags may also follow <agent>.
	if err := fs.Parse(fs.Args()[1:]); err != nil {
		return 1
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(stderr, "Error: score requires <agent>")
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
	e := trust.NewEngine(l)
	score := e.ReputationScore(agent, scope)

	result := struct {
		Agent string  `json:"agent"`
		Scope string  `json:"scope,omitempty"`
		Score float64 `json:"score"`
	}{Agent: agent, Scope: scope, Score: score}

	writeResult(stdout, result, jsonOut, func(w io.Writer) {
		fmt.Fprintf(w, "%s: %.4f\n", agent, score)
	})
	return 0
}
