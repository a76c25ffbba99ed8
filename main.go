package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"gridwalk/server"
	"gridwalk/utils"
)

func main() {
	configPath := flag.String("config", "", "path to a yaml config file")
	boardPath := flag.String("board", "", "path to a board map file (built-in arena when empty)")
	flag.Parse()

	cfg, err := utils.LoadConfig(*configPath)
	if err != nil {
		slog.Error("load config", "err", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: utils.ParseLogLevel(cfg.LogLevel),
	}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.Start(ctx, cfg, *boardPath); err != nil {
		logger.Error("server exited", "err", err)
		os.Exit(1)
	}
}
