// Package main provides the CLI entry point for the engine application.
package main

import (
	"fmt"
	"os"

	"github.com/harrison/scengine/internal/cmd"
)

// Version is the current version of the engine application.
const Version = "1.0.0"

func main() {
	cmd.Version = Version
	rootCmd := cmd.NewRootCommand()

	if err := rootCmd.Execute(); err != nil {
		if exitErr, ok := err.(*cmd.ExitError); ok {
			os.Exit(exitErr.Code)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
