// Package main is the entry point for the lantern application.
package main

import (
	"os"

	"github.com/henosis-us/lantern/cmd/lantern/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
