// Package main starts the sign-up bot and handles termination.
//
// The process is a transport adapter around roster lifecycle: Telegram owns
// the user surface and a small HTTP API exposes health and admin reads.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	botcmd "github.com/louisbranch/pickup.football/internal/cmd/bot"
)

func main() {
	cfg, err := botcmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatalf("parse flags: %v", err)
	}
	log.SetPrefix("[BOT] ")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := botcmd.Run(ctx, cfg); err != nil {
		log.Fatalf("failed to serve: %v", err)
	}
}
