package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/orgball2608/snappy-sync/internal/mediaproxy"
	"github.com/orgball2608/snappy-sync/pkg/config"
	"github.com/orgball2608/snappy-sync/pkg/httpclient"
	"github.com/orgball2608/snappy-sync/pkg/logger"
	"go.uber.org/fx"
)

func main() {
	log := logger.New(logger.Opts{})

	app := fx.New(
		fx.Logger(log),
		fx.Provide(
			config.New,
			logger.FxOption,
			httpclient.FromConfig,
		),
		mediaproxy.Module,
	)

	if err := app.Start(context.Background()); err != nil {
		log.Error("Failed to start media proxy", "error", err)
		os.Exit(1)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	if err := app.Stop(context.Background()); err != nil {
		log.Error("Failed to stop media proxy", "error", err)
		os.Exit(1)
	}
}
