// Package main is the entry point for the pulsectl admin tool.
package main

import (
	"os"

	"github.com/pulseworks/pulseboard/cmd/pulsectl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
