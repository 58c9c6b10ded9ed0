// Package main is the entry point for the kalkulator CLI.
package main

import (
	"os"

	"github.com/AlanSteinbarth/Kalkulator-dla-biegaczy/cmd/kalkulator/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
