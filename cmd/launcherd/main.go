// Package main provides the entry point for the launcherd CLI.
package main

import (
	"os"

	"github.com/pkdesk/launcherd/cmd/launcherd/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
