package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/orgball2608/snappy-sync/internal/app"
	"github.com/orgball2608/snappy-sync/pkg/logger"
	"go.uber.org/fx"
)

func main() {
	log := logger.New(logger.Opts{})

	agent := fx.New(
		fx.Logger(log),
		app.Module,
	)

	// Start the sync agent
	if err := agent.Start(context.Background()); err != nil {
		log.Error("Failed to start application", "error", err)
		os.Exit(1)
	}

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	// Gracefully shutdown, draining background work
	if err := agent.Stop(context.Background()); err != nil {
		log.Error("Failed to stop application", "error", err)
		os.Exit(1)
	}
}
