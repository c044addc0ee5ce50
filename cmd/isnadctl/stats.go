package main

import (
	"flag"
	"fmt"
	"io"
	"strings"
)

func runStatsCommand(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("stats", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var chainPath string
	var jsonOut bool
	fs.StringVar(&chainPath, "c", "", "bundle file to load as chain context")
	fs.BoolVar(&jsonOut, "json", false, "machine-readable output")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if strings.TrimSpace(chainPath) == "" {
		fmt.Fprintln(stderr, "Error: -c <chain> is required")
		return 1
	}

	l, importResult, err := loadChain(chainPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: load chain: %v\n", err)
		return 1
	}
	atts, err := l.All()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	subjects := make(map[string]bool)
	witnesses := make(map[string]bool)
	for _, a := range atts {
		subjects[a.Subject] = true
		witnesses[a.Witness] = true
	}

	result := struct {
		Count     int `json:"count"`
		Subjects  int `json:"subjects"`
		Witnesses int `json:"witnesses"`
		Admitted  int `json:"admitted"`
		Rejected  int `json:"rejected"`
		Skipped   int `json:"skipped"`
	}{
		Count: len(atts), Subjects: len(subjects), Witnesses: len(witnesses),
		Admitted: importResult.Admitted, Rejected: importResult.Rejected, Skipped: importResult.Skipped,
	}

	writeResult(stdout, result, jsonOut, func(w io.Writer) {
		fmt.Fprintf(w, "count=%d subjects=%d witnesses=%d admitted=%d rejected=%d skipped=%d\n",
			result.Count, result.Subjects, result.Witnesses, result.Admitted, result.Rejected, result.Skipped)
	})
	return 0
}
