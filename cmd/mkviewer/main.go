// Package main provides the entry point for the mkviewer CLI.
package main

import (
	"os"

	"github.com/mkviewer/mkviewer/cmd/mkviewer/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
