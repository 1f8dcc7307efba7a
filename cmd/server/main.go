package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/prior-it/bestiary/bootstrap"
	"github.com/prior-it/bestiary/config"
)

func main() {
	cfg, err := config.Load(os.DirFS("."))
	if err != nil {
		slog.Error("Could not load the configuration", "error", err)
		os.Exit(1)
	}
	logger := bootstrap.Logger(cfg, os.Stdout)

	app, err := bootstrap.New(cfg, logger)
	if err != nil {
		logger.Error("Could not start the application", "error", err)
		os.Exit(1)
	}
	if err := app.Run(context.Background(), nil); err != nil {
		logger.Error("Server failed", "error", err)
		os.Exit(1)
	}
}
