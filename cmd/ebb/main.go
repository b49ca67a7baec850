// Package main is the entry point for the ebb CLI tool.
package main

import (
	"os"

	"github.com/aidanlsb/ebbinghaus/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
