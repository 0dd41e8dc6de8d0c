// Package main recovers roster state from message text piped on stdin.
package main

import (
	"flag"
	"os"

	"github.com/louisbranch/pickup.football/internal/platform/config"
	"github.com/louisbranch/pickup.football/internal/tools/rosterparse"
)

func main() {
	cfg, err := rosterparse.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exitf("parse flags: %v", err)
	}
	if err := rosterparse.Run(cfg, os.Stdout, os.Stdin); err != nil {
		config.Exitf("recover roster: %v", err)
	}
}
