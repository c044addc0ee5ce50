// Command isnadctl is the offline CLI for producing and inspecting signed
// attestation records, bundles, and delegations without a running daemon.
// Every subcommand follows the teacher's cmd/nhb-cli idiom: a
// runXxxCommand(args, stdout, stderr) int function dispatched from main,
// flag.NewFlagSet per subcommand, exit code 0 on success and 1 on failure.
package main

import (
	"fmt"
	"io"
	"os"
	"strings"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(stderr, usage())
		return 1
	}
	cmd, rest := args[0], args[1:]
	switch cmd {
	case "attest":
		return runAttestCommand(rest, stdout, stderr)
	case "verify":
		return runVerifyCommand(rest, stdout, stderr)
	case "chain":
		return runChainCommand(rest, stdout, stderr)
	case "score":
		return runScoreCommand(rest, stdout, stderr)
	case "revoke":
		return runRevokeCommand(rest, stdout, stderr)
	case "delegate":
		return runDelegateCommand(rest, stdout, stderr)
	case "stats":
		return runStatsCommand(rest, stdout, stderr)
	case "-h", "--help", "help":
		fmt.Fprintln(stdout, usage())
		return 0
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n", cmd)
		fmt.Fprintln(stderr, usage())
		return 1
	}
}

func usage() string {
	return strings.TrimSpace(`
Usage: isnadctl <command> [flags]

Commands:
  attest <subject> <task> -k <keyfile> [-e evidence] [-o out]
  verify <file|->
  chain <agent> -c <chain>
  score <agent> -c <chain> [-s scope]
  revoke <id> --reason <reason> -k <keyfile> [-s scope] [-o list]
  delegate create <delegate-pubkey> -k <keyfile> -s <scope> [-s scope...] [--expires <rfc3339>] [--max-depth n]
  delegate sub <parent-file> <delegate-pubkey> -k <keyfile> [-s scope...] [--expires <rfc3339>] [--max-depth n]
  stats -c <chain>

Every command exits 0 on success, 1 on failure. --json switches output to
machine-readable JSON.
`)
}
