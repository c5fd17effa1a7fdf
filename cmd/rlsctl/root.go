package main

import (
	"os"

	"github.com/spf13/cobra"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

var rootCmd = &cobra.Command{
	Use:     "rlsctl",
	Short:   "Run and manage the rlsnotes server",
	Long:    `rlsctl runs the rlsnotes API, manages its schema and mints bearer tokens for it.`,
	Version: version,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func main() {
	Execute()
}
