package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/maax3v3/retile/internal/cli"
	"github.com/maax3v3/retile/internal/pipeline"
	"github.com/maax3v3/retile/internal/server"
)

func main() {
	cfg, err := cli.Parse()
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	level := slog.LevelInfo
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("retile failed", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg cli.Config, log *slog.Logger) error {
	if cfg.Serve == "" {
		return pipeline.Run(ctx, cfg, log, os.Stdout)
	}

	eng, err := pipeline.NewEngine(cfg, log)
	if err != nil {
		return err
	}
	// Build the dictionary before accepting requests.
	n, err := eng.Prototypes()
	if err != nil {
		return err
	}
	log.Info("engine ready", "prototypes", n)
	return server.ListenAndServe(ctx, cfg.Serve, server.New(eng, log), log)
}
