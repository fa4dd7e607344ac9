package main

import (
	"fmt"
	"os"

	"github.com/crucial707/brewlog/cmd/cli/analyze"
	"github.com/crucial707/brewlog/cmd/cli/auth"
	"github.com/crucial707/brewlog/cmd/cli/coffees"
	"github.com/crucial707/brewlog/cmd/cli/root"
)

func main() {
	rootCmd := root.GetRoot()
	auth.InitAuth(rootCmd)
	coffees.InitCoffees(rootCmd)
	analyze.InitAnalyze(rootCmd)

	// Execute the root Cobra command
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
