package main

// ---------------------------------------------------------------------------
// helpers.go — TTY detection, color, error helpers, env-based config
// ---------------------------------------------------------------------------

import (
	"fmt"
	"os"
)

// ---------------------------------------------------------------------------
// TTY / color helpers
// ---------------------------------------------------------------------------

func isTTY(f *os.File) bool {
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}

func colorEnabled() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if os.Getenv("TERM") == "dumb" {
		return false
	}
	return isTTY(os.Stdout)
}

func ansi(code, s string) string {
	if !colorEnabled() {
		return s
	}
	return code + s + "\033[0m"
}

func red(s string) string     { return ansi("\033[91m", s) }
func yellow(s string) string  { return ansi("\033[93m", s) }
func green(s string) string   { return ansi("\033[32m", s) }
func cyan(s string) string    { return ansi("\033[36m", s) }
func magenta(s string) string { return ansi("\033[95m", s) }
func dim(s string) string     { return ansi("\033[90m", s) }
func bold(s string) string    { return ansi("\033[1m", s) }

// ---------------------------------------------------------------------------
// Error / warn helpers (always to stderr)
// ---------------------------------------------------------------------------

func errorf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, red("error: ")+format+"\n", args...)
	os.Exit(1)
}

func warnf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, yellow("warn: ")+format+"\n", args...)
}

// envConfig returns the config path, preferring flag > SOCSENTRY_CONFIG env >
// flag default.
func envConfig(flagVal string) string {
	if flagVal != "" && flagVal != defaultConfigPath {
		return flagVal
	}
	if env := os.Getenv("SOCSENTRY_CONFIG"); env != "" {
		return env
	}
	return flagVal
}

const defaultConfigPath = "configs/default.yaml"
