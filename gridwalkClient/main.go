package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/lguibr/asciiring/helpers"

	"gridwalk/client"
	"gridwalk/utils"
)

func main() {
	configPath := flag.String("config", "", "path to a yaml config file")
	name := flag.String("name", "", "player name (server assigns one when empty)")
	host := flag.String("host", "", "server host override")
	port := flag.Int("port", 0, "server port override")
	flag.Parse()

	cfg, err := utils.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "load config:", err)
		os.Exit(1)
	}
	if *host != "" {
		cfg.Websocket.Host = *host
	}
	if *port != 0 {
		cfg.Websocket.Port = *port
	}

	// The board owns the screen; logs go to a file or nowhere.
	logger := slog.New(slog.NewTextHandler(logSink(), &slog.HandlerOptions{
		Level: utils.ParseLogLevel(cfg.LogLevel),
	}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	helpers.ClearScreen()
	if err := client.Run(ctx, cfg, *name, logger); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func logSink() *os.File {
	if path := os.Getenv("GRIDWALK_CLIENT_LOG"); path != "" {
		if f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644); err == nil {
			return f
		}
	}
	devnull, _ := os.OpenFile(os.DevNull, os.O_WRONLY, 0)
	return devnull
}
