// Package main is the entry point for the pixmatch CLI.
//
// Usage:
//
//	pixmatch [flags] <command> [args]
//
// Commands:
//
//	build    - Build the descriptor cache from a reference directory
//	search   - Match one query image against a built cache
//	run      - Run the full pipeline (build, match, report)
//	inspect  - Print cache artifact statistics
package main

import (
	"fmt"
	"os"

	"github.com/pixmatch/pixmatch/cmd/pixmatch/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
