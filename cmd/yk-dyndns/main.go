package main

import (
	"flag"
	"fmt"
	"os"

	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/log/zap"

	"github.com/yuriy-kovalchuk/yk-dyndns/internal/app"
	"github.com/yuriy-kovalchuk/yk-dyndns/internal/config"
	"github.com/yuriy-kovalchuk/yk-dyndns/internal/server"
)

var Version = "dev"

func main() {
	opts := zap.Options{
		Development: true,
	}
	opts.BindFlags(flag.CommandLine)
	flag.Parse()

	ctrl.SetLogger(zap.New(zap.UseFlagOptions(&opts)))

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	log := ctrl.Log.WithName("setup")

	log.Info("starting yk-dyndns", "version", Version)

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("unable to load config: %w", err)
	}

	ctx := ctrl.SetupSignalHandler()

	svc, err := app.NewService(ctx, cfg, ctrl.Log)
	if err != nil {
		return err
	}

	srv := &server.Server{
		Updater:           svc,
		Log:               ctrl.Log.WithName("server"),
		TrustForwardedFor: cfg.TrustForwardedFor,
	}

	log.Info("starting server", "addr", cfg.Listen)
	if err := srv.Run(ctx, cfg.Listen); err != nil {
		return fmt.Errorf("server exited with error: %w", err)
	}

	return nil
}
