// Package main is the FragMind command line: capture notes, manage todos and
// keep a daily diary summary.
package main

import (
	"os"
)

// Version is set at build time
var Version = "0.1.0"

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
