package main

import (
	"fmt"
	"os"

	"github.com/trebuchet-org/mangonel/internal/cli"
	"github.com/trebuchet-org/mangonel/internal/config"
)

// Set by -ldflags at release time
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	config.SetBuildFlags(version, commit, date)

	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
