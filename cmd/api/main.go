// Package main is the entry point for the Amplify API server.
package main

import (
	"os"
)

// version is set at build time.
var version = "dev"

func main() {
	cmd := NewRootCmd()
	cmd.Version = version

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
