package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/okian/twin/internal/twinctl"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		printUsage(stderr)
		return 2
	}

	command := args[0]
	switch command {
	case "help", "--help", "-h":
		printUsage(stdout)
		return 0
	case "run", twinctl.BlockSimulate, twinctl.BlockOptimize, twinctl.BlockCompare, twinctl.BlockAdvise:
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n\n", command)
		printUsage(stderr)
		return 2
	}

	fs := flag.NewFlagSet(command, flag.ContinueOnError)
	fs.SetOutput(stderr)
	output := fs.String("o", "", "Write the JSON report to this file instead of stdout")
	if err := fs.Parse(args[1:]); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintf(stderr, "%s: expected one scenario file\n", command)
		return 2
	}

	f, err := twinctl.Load(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(stderr, "twinctl: %v\n", err)
		return 1
	}
	only := command
	if only == "run" {
		only = ""
	}
	report, err := twinctl.Run(f, only)
	if err != nil {
		fmt.Fprintf(stderr, "twinctl: %v\n", err)
		return 1
	}

	w := stdout
	if *output != "" {
		file, err := os.Create(*output)
		if err != nil {
			fmt.Fprintf(stderr, "twinctl: %v\n", err)
			return 1
		}
		defer func() { _ = file.Close() }()
		w = file
	}
	if err := twinctl.Write(w, report); err != nil {
		fmt.Fprintf(stderr, "twinctl: %v\n", err)
		return 1
	}
	return 0
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, `twinctl - run the training twin engine on a scenario file

USAGE:
    twinctl <command> [-o FILE] SCENARIO.yaml

COMMANDS:
    run         Run every block present in the file
    simulate    Project the twin over the simulate plan
    optimize    Choose a taper toward optimize.target_date
    compare     Rank the compare scenarios
    advise      Recommend training for the current state
    help        Show this message
`)
}
