package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/yourusername/productsync/config"
	"github.com/yourusername/productsync/internal/app"
	"github.com/yourusername/productsync/internal/delivery/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cli.NewRootCommand(newRuntime).ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func newRuntime(ctx context.Context, opts cli.Options) (*cli.Runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if opts.APIURL != "" {
		cfg.APIURL = opts.APIURL
	}
	if opts.StoreDriver != "" {
		cfg.StoreDriver = opts.StoreDriver
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger, err := app.NewLogger(cfg)
	if err != nil {
		return nil, err
	}

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		_ = logger.Sync()
		return nil, err
	}

	return &cli.Runtime{
		Products: application.Products,
		Parser:   application.Parser,
		RunBot:   application.RunBot,
		Release:  application.Release,
	}, nil
}
