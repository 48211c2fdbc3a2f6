package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/samvad-hq/samvad-wsclient/internal/app"
	"github.com/samvad-hq/samvad-wsclient/internal/config"
	"github.com/samvad-hq/samvad-wsclient/internal/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "wsclient start failed: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	sugar, err := logger.Init(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Close()

	logger.InfoObj("wsclient starting", "config", cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	zl := sugar.Desugar()
	runner, err := app.NewRunner(ctx, cfg, logger.New(zl), app.WithZap(zl))
	if err != nil {
		logger.ErrorObj("failed to initialize runner", "error", err.Error())
		return err
	}

	if err := runner.Run(ctx); err != nil {
		return fmt.Errorf("runner run: %w", err)
	}
	return nil
}
