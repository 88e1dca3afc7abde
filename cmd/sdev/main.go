// Package main is the entry point for the sdev CLI.
package main

import (
	"os"

	"github.com/runger/sdev/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
