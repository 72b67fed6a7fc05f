// Package main runs resolvectl, a local harness that pushes resolver events
// through the envelope pipeline.
package main

import (
	"os"

	"github.com/jamalishaq/resolve_envelope/cmd/resolvectl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
