package loadgen

import "os"

// ShowHelp prints usage information for the load generator.
func ShowHelp() {
	_, _ = os.Stdout.WriteString(`Twin Load Generator
===================

Creates synthetic athletes on a running twin service, streams their sessions
concurrently and verifies the resulting states.

Usage:
  loadgen [options]

Options:
  -url string        Base URL of the service (default "http://localhost:9080")
  -athletes int      Number of synthetic athletes (default 100)
  -sessions int      Sessions per athlete (default 30)
  -workers int       Concurrent submitters (default CPU cores * 2)
  -rps int           Client-side request rate limit (default 500)
  -timeout duration  HTTP request timeout (default 10s)
  -settle duration   Maximum wait for the queue to drain (default 1m)
  -seed uint         Generator seed (default 1)
  -output string     Write generated athletes as JSON to this file
  -verbose           Log every failed session
  -help              Show this help message

Examples:
  loadgen -athletes 1000 -sessions 60 -workers 16
  loadgen -url http://localhost:8080 -rps 100 -output athletes.json
`)
}
