package main

// ---------------------------------------------------------------------------
// main.go — command dispatcher for the socsentry CLI
//
// This file is intentionally slim. All command implementations live in
// their own files (cmd_*.go). Shared helpers are in helpers.go and
// output.go.
// ---------------------------------------------------------------------------

import (
	"fmt"
	"io"
	"os"
)

var (
	version   = "0.3.0"
	commit    = "dev"
	buildDate = "unknown"
)

func main() {
	if len(os.Args) >= 2 {
		switch os.Args[1] {
		case "--version", "-V", "version":
			printVersion(os.Stdout)
			os.Exit(0)
		case "--help", "-h", "help":
			printUsage(os.Stdout)
			os.Exit(0)
		}
	}

	if len(os.Args) < 2 {
		printUsage(os.Stdout)
		os.Exit(0)
	}

	subcmd := os.Args[1]
	args := os.Args[2:]

	switch subcmd {
	case "classify":
		cmdClassify(args)
	case "scan":
		cmdScan(args)
	case "watch":
		cmdWatch(args)
	case "config":
		cmdConfig(args)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", subcmd)
		printUsage(os.Stderr)
		os.Exit(2)
	}
}

func printVersion(w io.Writer) {
	fmt.Fprintf(w, "socsentry %s (%s, built %s)\n", version, commit, buildDate)
}

func printUsage(w io.Writer) {
	fmt.Fprintf(w, `socsentry — SOC phishing and auth-log threat detection

Usage:
  socsentry <command> [flags]

Commands:
  classify   Classify a URL or email snippet as a phishing indicator
  scan       Scan an auth log file for brute force and stuffing patterns
  watch      Tail auth logs live and alert on detections until interrupted
  config     Initialize or show the configuration
  version    Print version information

Run 'socsentry <command> -h' for command flags.
`)
}
