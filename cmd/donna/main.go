// Package main is the entry point for the donna CLI.
package main

import (
	"os"

	"github.com/donna-agent/donna/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
