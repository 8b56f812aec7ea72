package main

import (
	"os"

	"github.com/Harsh-BH/edgeclassify/cmd/classifyctl/commands"
)

// Version information - set during build
var version = "dev"

func main() {
	commands.SetVersion(version)

	// Errors are printed by the printer package
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
