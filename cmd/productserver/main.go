package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-extras/cobraflags"
	"github.com/spf13/cobra"
	"github.com/yourusername/productsync/config"
	"github.com/yourusername/productsync/internal/app"
	"github.com/yourusername/productsync/internal/delivery/rest"
	"go.uber.org/zap"
)

const (
	addrFlag     = "addr"
	resourceFlag = "resource"
	seedFlag     = "seed"

	shutdownTimeout = 10 * time.Second
)

var serverFlags = map[string]cobraflags.Flag{
	addrFlag: &cobraflags.StringFlag{
		Name:  addrFlag,
		Value: "",
		Usage: "Listen address (defaults to SERVER_ADDR)",
	},
	resourceFlag: &cobraflags.StringFlag{
		Name:  resourceFlag,
		Value: "",
		Usage: "Collection name served under /{resource} (defaults to SERVER_RESOURCE)",
	},
	seedFlag: &cobraflags.StringFlag{
		Name:  seedFlag,
		Value: "",
		Usage: "json-server style db.json to preload",
	},
}

func main() {
	cmd := &cobra.Command{
		Use:          "productserver",
		Short:        "Serve an in-memory product collection over REST",
		SilenceUsage: true,
		RunE:         serve,
	}
	cobraflags.RegisterMap(cmd, serverFlags)

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serve(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if addr := serverFlags[addrFlag].GetString(); addr != "" {
		cfg.ServerAddr = addr
	}
	if resource := serverFlags[resourceFlag].GetString(); resource != "" {
		cfg.ServerResource = resource
	}

	logger, err := app.NewLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync()

	server := rest.NewServer(cfg.ServerResource, logger)
	if seed := serverFlags[seedFlag].GetString(); seed != "" {
		f, err := os.Open(seed)
		if err != nil {
			return fmt.Errorf("failed to open seed: %w", err)
		}
		err = server.LoadSeed(f)
		f.Close()
		if err != nil {
			return err
		}
		logger.Info("seed loaded", zap.String("file", seed), zap.Int("records", server.Len()))
	}

	srv := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      server.Routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("collection server starting",
			zap.String("addr", cfg.ServerAddr),
			zap.String("resource", "/"+cfg.ServerResource))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-quit:
	}

	logger.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	return nil
}
