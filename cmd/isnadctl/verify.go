package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"

	"isnad/attestation"
)

func runVerifyCommand(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("verify", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var jsonOut bool
	fs.BoolVar(&jsonOut, "json", false, "machine-readable output")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(stderr, "Error: verify requires <file|->")
		return 1
	}
	data, err := readInput(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(stderr, "Error: read input: %v\n", err)
		return 1
	}
	var att attestation.Attestation
	if err := json.Unmarshal(data, &att); err != nil {
		fmt.Fprintf(stderr, "Error: decode attestation: %v\n", err)
		return 1
	}

	verifyErr := att.Verify()
	result := struct {
		AttestationID string `json:"attestation_id"`
		Valid         bool   `json:"valid"`
		Reason        string `json:"reason,omitempty"`
	}{AttestationID: att.AttestationID, Valid: verifyErr == nil}
	if verifyErr != nil {
		result.Reason = verifyErr.Error()
	}

	writeResult(stdout, result, jsonOut, func(w io.Writer) {
		if result.Valid {
			fmt.Fprintf(w, "%s: valid\n", result.AttestationID)
		} else {
			fmt.Fprintf(w, "%s: invalid (%s)\n", result.AttestationID, result.Reason)
		}
	})
	if verifyErr != nil {
		return 1
	}
	return 0
}
