package main

import (
	"flag"
	"log/slog"
	"os"

	"github.com/relabs-tech/crop_monitor/internal/app"
	"github.com/relabs-tech/crop_monitor/internal/config"
)

func main() {
	configPath := flag.String("config", "crop_config.txt", "path to configuration file")
	seed := flag.Uint64("seed", 1, "random seed for the simulated sensors")
	flag.Parse()

	slog.Info("starting crop monitor (mock hardware)")

	if err := config.InitGlobal(*configPath); err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	if err := app.RunMockMonitor(*seed); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}
