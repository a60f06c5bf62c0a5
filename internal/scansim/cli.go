package scansim

import "os"

// ShowHelp prints usage information for the scan simulator.
func ShowHelp() {
	_, _ = os.Stdout.WriteString(`Absensi Scan Simulator
======================

Posts card tokens to a running absensi service one at a time, the way a
classroom camera does, and prints how many were accepted.

Usage:
  go run ./cmd/scan-sim [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9080")
  -tokens string
        File with one token per line; when empty demo tokens are generated
  -secret string
        Demo signing secret (default "absensi-demo-secret")
  -students string
        Student ids to generate tokens for (default "1-17")
  -repeat int
        Passes over the token list (default 1)
  -shuffle
        Randomise the order of each pass
  -delay duration
        Pause between scans (default 2.5s)
  -timeout duration
        HTTP request timeout (default 10s)
  -verbose
        Log every scan
  -help
        Show this help message

Examples:
  # Scan every demo student once
  go run ./cmd/scan-sim

  # Replay tokens from a file twice, fast enough to trip the cooldown
  go run ./cmd/scan-sim -tokens cards.txt -repeat 2 -delay 500ms
`)
}
