// Package main is the entry point for the gantry CLI.
//
// gantry provisions and reconciles cluster infrastructure from a
// declarative YAML specification. It builds a dependency graph of the
// declared resources, compares it with recorded state and converges the
// provider towards the declaration.
//
// Commands: init, plan, apply, status, destroy.
//
// For detailed usage information, run:
//
//	gantry --help
package main

import (
	"fmt"
	"os"

	"github.com/gantry-sh/gantry/cmd/gantry/commands"
)

// Version information set by goreleaser at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.SetVersionInfo(version, commit, date)
	if err := commands.Root().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
