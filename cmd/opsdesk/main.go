// Package main is the entry point for the opsdesk CLI.
package main

import (
	"os"

	"github.com/opsdesk/opsdesk/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
